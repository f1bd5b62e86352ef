// Package providers wraps the third-party data sources (geocoding, forecast,
// trails, movies, businesses). Each provider has a response shape, a pure
// Normalize function and a fetcher that calls through the gateway.
package providers

import (
	"fmt"
	"strings"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/gateway"
)

const (
	DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	DefaultWeatherURL = "https://api.darksky.net/forecast"
	DefaultTrailsURL  = "https://www.hikingproject.com/data/get-trails"
	DefaultMoviesURL  = "https://api.themoviedb.org/3/search/movie"
	DefaultYelpURL    = "https://api.yelp.com/v3/businesses/search"

	// TMDBImageBase is prepended to poster_path.
	TMDBImageBase = "https://image.tmdb.org/t/p/w500"

	trailsMaxDistance = "10"
)

// Provider names, used as gateway circuit and metric labels.
const (
	ProviderGeocode = "geocode"
	ProviderWeather = "weather"
	ProviderTrails  = "trails"
	ProviderMovies  = "movies"
	ProviderYelp    = "yelp"
)

// Endpoint is a provider base URL and its API key.
type Endpoint struct {
	URL    string
	APIKey string
}

// Set holds every fetcher the HTTP layer needs.
type Set struct {
	Geocoder Geocoder
	Weather  WeatherFetcher
	Trails   TrailFetcher
	Movies   MovieFetcher
	Yelp     BusinessFetcher
}

// Endpoints configures NewSet. Empty URLs fall back to the public defaults.
type Endpoints struct {
	Geocode Endpoint
	Weather Endpoint
	Trails  Endpoint
	Movies  Endpoint
	Yelp    Endpoint
}

// NewSet builds all fetchers over one shared gateway.
func NewSet(gw gateway.Gateway, eps Endpoints) Set {
	return Set{
		Geocoder: NewGoogleGeocoder(gw, withDefault(eps.Geocode, DefaultGeocodeURL)),
		Weather:  NewDarkSkyFetcher(gw, withDefault(eps.Weather, DefaultWeatherURL)),
		Trails:   NewHikingProjectFetcher(gw, withDefault(eps.Trails, DefaultTrailsURL)),
		Movies:   NewTMDBFetcher(gw, withDefault(eps.Movies, DefaultMoviesURL)),
		Yelp:     NewYelpFetcher(gw, withDefault(eps.Yelp, DefaultYelpURL)),
	}
}

func withDefault(ep Endpoint, fallback string) Endpoint {
	if strings.TrimSpace(ep.URL) == "" {
		ep.URL = fallback
	}
	return ep
}

// errMissingCollection reports a 2xx body without the expected result list.
// Providers answer some failures (bad key, bad request) with 200 and an error object.
func errMissingCollection(op, field string) error {
	return apperr.UpstreamFailed(op, fmt.Errorf("%w: missing %s", gateway.ErrMalformedResponse, field))
}
