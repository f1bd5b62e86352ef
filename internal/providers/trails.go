package providers

import (
	"context"
	"net/url"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/gateway"
	"github.com/kjstillabower/city-explorer-service/internal/models"
)

type TrailFetcher interface {
	Fetch(ctx context.Context, lat, lon string) ([]models.TrailRecord, error)
}

type TrailsResponse struct {
	Trails []struct {
		Name            string  `json:"name"`
		Location        string  `json:"location"`
		Length          float64 `json:"length"`
		Stars           float64 `json:"stars"`
		StarVotes       int     `json:"starVotes"`
		Summary         string  `json:"summary"`
		URL             string  `json:"url"`
		ConditionStatus string  `json:"conditionStatus"`
		ConditionDate   string  `json:"conditionDate"`
	} `json:"trails"`
}

func NormalizeTrails(resp TrailsResponse) []models.TrailRecord {
	out := make([]models.TrailRecord, 0, len(resp.Trails))
	for _, t := range resp.Trails {
		out = append(out, models.TrailRecord{
			Name:          t.Name,
			Location:      t.Location,
			Length:        t.Length,
			Stars:         t.Stars,
			StarVotes:     t.StarVotes,
			Summary:       t.Summary,
			TrailURL:      t.URL,
			Conditions:    t.ConditionStatus,
			ConditionDate: t.ConditionDate,
		})
	}
	return out
}

type HikingProjectFetcher struct {
	gw       gateway.Gateway
	endpoint Endpoint
}

func NewHikingProjectFetcher(gw gateway.Gateway, endpoint Endpoint) *HikingProjectFetcher {
	return &HikingProjectFetcher{gw: gw, endpoint: endpoint}
}

func (f *HikingProjectFetcher) Fetch(ctx context.Context, lat, lon string) ([]models.TrailRecord, error) {
	var resp TrailsResponse
	err := f.gw.FetchJSON(ctx, gateway.Request{
		Provider: ProviderTrails,
		URL:      f.endpoint.URL,
		Query: url.Values{
			"lat":         {lat},
			"lon":         {lon},
			"maxDistance": {trailsMaxDistance},
			"key":         {f.endpoint.APIKey},
		},
	}, &resp)
	if err != nil {
		return nil, apperr.UpstreamFailed("trails.fetch", err)
	}
	// JSON null and an absent key both leave the slice nil; [] does not.
	if resp.Trails == nil {
		return nil, errMissingCollection("trails.fetch", "trails")
	}
	return NormalizeTrails(resp), nil
}
