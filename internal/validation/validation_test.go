package validation

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestNestedParam_BlankBracketFallsBackToDot(t *testing.T) {
	values := url.Values{"data[location_name]": {"  "}, "data.location_name": {"Seattle "}}
	if got := NestedParam(values, "location_name"); got != "Seattle " {
		t.Errorf("NestedParam() = %q, want %q", got, "Seattle ")
	}
}

func TestParsePlace_BlankIsMissing(t *testing.T) {
	values := url.Values{"data[location_name]": {" \t "}}
	if _, err := ParsePlace(values); !errors.Is(err, ErrMissingParam) {
		t.Errorf("ParsePlace() error = %v, want ErrMissingParam", err)
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"present", "data=seattle", "seattle", false},
		{"kept raw", "data=%20seattle%20", " seattle ", false},
		{"missing", "", "", true},
		{"blank", "data=%20%20", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseLocation(values)
			if tt.wantErr {
				if !errors.Is(err, ErrMissingParam) {
					t.Fatalf("ParseLocation() error = %v, want ErrMissingParam", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocation() error = %v", err)
			}
			if got.Data != tt.want {
				t.Errorf("Data = %q, want %q", got.Data, tt.want)
			}
		})
	}
}

func TestParseCoordinates_BracketAndDotForms(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bracket", "data%5Blatitude%5D=47.6&data%5Blongitude%5D=-122.3"},
		{"dot", "data.latitude=47.6&data.longitude=-122.3"},
		{"mixed", "data%5Blatitude%5D=47.6&data.longitude=-122.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseCoordinates(values)
			if err != nil {
				t.Fatalf("ParseCoordinates() error = %v", err)
			}
			if got.Latitude != "47.6" || got.Longitude != "-122.3" {
				t.Errorf("ParseCoordinates() = %+v", got)
			}
		})
	}
}

func TestParseCoordinates_MalformedPassesThrough(t *testing.T) {
	values := url.Values{"data[latitude]": {"north"}, "data[longitude]": {"west"}}
	got, err := ParseCoordinates(values)
	if err != nil {
		t.Fatalf("ParseCoordinates() error = %v, want nil for non-numeric values", err)
	}
	if got.Latitude != "north" {
		t.Errorf("Latitude = %q, want passthrough", got.Latitude)
	}
}

func TestParseCoordinates_MissingNamesParams(t *testing.T) {
	_, err := ParseCoordinates(url.Values{})
	if !errors.Is(err, ErrMissingParam) {
		t.Fatalf("error = %v, want ErrMissingParam", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "data[latitude]") || !strings.Contains(msg, "data[longitude]") {
		t.Errorf("error = %q, want both parameter names", msg)
	}
}

func TestParsePlace(t *testing.T) {
	values := url.Values{"data[location_name]": {"Seattle"}}
	got, err := ParsePlace(values)
	if err != nil {
		t.Fatalf("ParsePlace() error = %v", err)
	}
	if got.LocationName != "Seattle" {
		t.Errorf("LocationName = %q, want Seattle", got.LocationName)
	}

	if _, err := ParsePlace(url.Values{"data[other]": {"x"}}); !errors.Is(err, ErrMissingParam) {
		t.Errorf("ParsePlace() error = %v, want ErrMissingParam", err)
	}
}

func TestNestedParam_BracketWins(t *testing.T) {
	values := url.Values{"data[latitude]": {"1"}, "data.latitude": {"2"}}
	if got := NestedParam(values, "latitude"); got != "1" {
		t.Errorf("NestedParam() = %q, want bracket form", got)
	}
}
