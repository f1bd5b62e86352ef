// Package validation extracts route query parameters and checks that they are
// present. Values are returned as sent, untrimmed and unparsed: a non-numeric
// latitude passes here and fails upstream.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ErrMissingParam is returned when a required query parameter is absent or blank.
var ErrMissingParam = errors.New("missing query parameter")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// notblank rejects whitespace-only values without changing the value itself.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("param"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// LocationQuery is the input of /location.
type LocationQuery struct {
	Data string `param:"data" validate:"required,notblank"`
}

// CoordinatesQuery is the input of /weather and /trails.
type CoordinatesQuery struct {
	Latitude  string `param:"data[latitude]" validate:"required,notblank"`
	Longitude string `param:"data[longitude]" validate:"required,notblank"`
}

// PlaceQuery is the input of /movies and /yelp.
type PlaceQuery struct {
	LocationName string `param:"data[location_name]" validate:"required,notblank"`
}

// NestedParam returns data[field], falling back to data.field when the bracket
// form is absent or blank. The value is returned untrimmed.
func NestedParam(values url.Values, field string) string {
	if v := values.Get("data[" + field + "]"); strings.TrimSpace(v) != "" {
		return v
	}
	return values.Get("data." + field)
}

func ParseLocation(values url.Values) (LocationQuery, error) {
	q := LocationQuery{Data: values.Get("data")}
	return q, check(q)
}

func ParseCoordinates(values url.Values) (CoordinatesQuery, error) {
	q := CoordinatesQuery{
		Latitude:  NestedParam(values, "latitude"),
		Longitude: NestedParam(values, "longitude"),
	}
	return q, check(q)
}

func ParsePlace(values url.Values) (PlaceQuery, error) {
	q := PlaceQuery{LocationName: NestedParam(values, "location_name")}
	return q, check(q)
}

// check runs the struct tags and names every missing parameter in the error.
func check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return fmt.Errorf("%w: %s", ErrMissingParam, strings.Join(names, ", "))
}
