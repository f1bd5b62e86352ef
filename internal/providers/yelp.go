package providers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/gateway"
	"github.com/kjstillabower/city-explorer-service/internal/models"
)

type BusinessFetcher interface {
	Fetch(ctx context.Context, locationName string) ([]models.BusinessRecord, error)
}

type BusinessesResponse struct {
	Businesses []struct {
		Name     string  `json:"name"`
		ImageURL string  `json:"image_url"`
		Price    string  `json:"price"`
		Rating   float64 `json:"rating"`
		URL      string  `json:"url"`
	} `json:"businesses"`
}

func NormalizeBusinesses(resp BusinessesResponse) []models.BusinessRecord {
	out := make([]models.BusinessRecord, 0, len(resp.Businesses))
	for _, b := range resp.Businesses {
		out = append(out, models.BusinessRecord{
			Name:     b.Name,
			ImageURL: b.ImageURL,
			Price:    b.Price,
			Rating:   b.Rating,
			URL:      b.URL,
		})
	}
	return out
}

// YelpFetcher authenticates with a Bearer token instead of a query key.
type YelpFetcher struct {
	gw       gateway.Gateway
	endpoint Endpoint
}

func NewYelpFetcher(gw gateway.Gateway, endpoint Endpoint) *YelpFetcher {
	return &YelpFetcher{gw: gw, endpoint: endpoint}
}

func (f *YelpFetcher) Fetch(ctx context.Context, locationName string) ([]models.BusinessRecord, error) {
	var resp BusinessesResponse
	err := f.gw.FetchJSON(ctx, gateway.Request{
		Provider: ProviderYelp,
		URL:      f.endpoint.URL,
		Query:    url.Values{"location": {locationName}},
		Header:   http.Header{"Authorization": {"Bearer " + f.endpoint.APIKey}},
	}, &resp)
	if err != nil {
		return nil, apperr.UpstreamFailed("yelp.fetch", err)
	}
	// JSON null and an absent key both leave the slice nil; [] does not.
	if resp.Businesses == nil {
		return nil, errMissingCollection("yelp.fetch", "businesses")
	}
	return NormalizeBusinesses(resp), nil
}
