package providers

import (
	"context"
	"net/url"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/gateway"
	"github.com/kjstillabower/city-explorer-service/internal/models"
)

type MovieFetcher interface {
	Fetch(ctx context.Context, locationName string) ([]models.MovieRecord, error)
}

type MoviesResponse struct {
	Results []struct {
		Title       string  `json:"title"`
		Overview    string  `json:"overview"`
		VoteAverage float64 `json:"vote_average"`
		VoteCount   int     `json:"vote_count"`
		PosterPath  string  `json:"poster_path"`
		Popularity  float64 `json:"popularity"`
		ReleaseDate string  `json:"release_date"`
	} `json:"results"`
}

// NormalizeMovies maps each result in order. image_url is always the TMDB
// prefix plus poster_path, even when poster_path is empty.
func NormalizeMovies(resp MoviesResponse) []models.MovieRecord {
	out := make([]models.MovieRecord, 0, len(resp.Results))
	for _, m := range resp.Results {
		out = append(out, models.MovieRecord{
			Title:        m.Title,
			Overview:     m.Overview,
			AverageVotes: m.VoteAverage,
			TotalVotes:   m.VoteCount,
			ImageURL:     TMDBImageBase + m.PosterPath,
			Popularity:   m.Popularity,
			ReleaseDate:  m.ReleaseDate,
		})
	}
	return out
}

type TMDBFetcher struct {
	gw       gateway.Gateway
	endpoint Endpoint
}

func NewTMDBFetcher(gw gateway.Gateway, endpoint Endpoint) *TMDBFetcher {
	return &TMDBFetcher{gw: gw, endpoint: endpoint}
}

func (f *TMDBFetcher) Fetch(ctx context.Context, locationName string) ([]models.MovieRecord, error) {
	var resp MoviesResponse
	err := f.gw.FetchJSON(ctx, gateway.Request{
		Provider: ProviderMovies,
		URL:      f.endpoint.URL,
		Query:    url.Values{"api_key": {f.endpoint.APIKey}, "query": {locationName}},
	}, &resp)
	if err != nil {
		return nil, apperr.UpstreamFailed("movies.fetch", err)
	}
	// JSON null and an absent key both leave the slice nil; [] does not.
	if resp.Results == nil {
		return nil, errMissingCollection("movies.fetch", "results")
	}
	return NormalizeMovies(resp), nil
}
