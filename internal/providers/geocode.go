package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/kjstillabower/city-explorer-service/internal/gateway"
	"github.com/kjstillabower/city-explorer-service/internal/models"
)

// ErrNoResults is returned when the geocoder answers without a usable result.
var ErrNoResults = errors.New("no geocode results")

// Geocoder resolves a free-text query to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.LocationRecord, error)
}

type GeocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NormalizeGeocode maps the first result to a LocationRecord keyed by query.
func NormalizeGeocode(query string, resp GeocodeResponse) (models.LocationRecord, error) {
	if resp.Status != "" && resp.Status != "OK" {
		return models.LocationRecord{}, fmt.Errorf("%w: status %s", ErrNoResults, resp.Status)
	}
	if len(resp.Results) == 0 {
		return models.LocationRecord{}, ErrNoResults
	}
	first := resp.Results[0]
	return models.LocationRecord{
		SearchQuery:    query,
		FormattedQuery: first.FormattedAddress,
		Latitude:       first.Geometry.Location.Lat,
		Longitude:      first.Geometry.Location.Lng,
	}, nil
}

type GoogleGeocoder struct {
	gw       gateway.Gateway
	endpoint Endpoint
}

func NewGoogleGeocoder(gw gateway.Gateway, endpoint Endpoint) *GoogleGeocoder {
	return &GoogleGeocoder{gw: gw, endpoint: endpoint}
}

// Geocode returns the raw error on failure; the caller decides its kind.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (models.LocationRecord, error) {
	var resp GeocodeResponse
	err := g.gw.FetchJSON(ctx, gateway.Request{
		Provider: ProviderGeocode,
		URL:      g.endpoint.URL,
		Query:    url.Values{"address": {query}, "key": {g.endpoint.APIKey}},
	}, &resp)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	return NormalizeGeocode(query, resp)
}
