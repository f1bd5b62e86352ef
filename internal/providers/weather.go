package providers

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/city-explorer-service/internal/apperr"
	"github.com/kjstillabower/city-explorer-service/internal/gateway"
	"github.com/kjstillabower/city-explorer-service/internal/models"
)

// forecastTimeLayout renders e.g. "Mon Jan 02 2006".
const forecastTimeLayout = "Mon Jan 02 2006"

type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon string) ([]models.WeatherRecord, error)
}

type ForecastResponse struct {
	Daily struct {
		Data []struct {
			Summary string `json:"summary"`
			Time    int64  `json:"time"`
		} `json:"data"`
	} `json:"daily"`
}

// NormalizeForecast maps each daily entry in order. Times are rendered in UTC.
func NormalizeForecast(resp ForecastResponse) []models.WeatherRecord {
	out := make([]models.WeatherRecord, 0, len(resp.Daily.Data))
	for _, day := range resp.Daily.Data {
		out = append(out, models.WeatherRecord{
			Forecast: day.Summary,
			Time:     time.Unix(day.Time, 0).UTC().Format(forecastTimeLayout),
		})
	}
	return out
}

type DarkSkyFetcher struct {
	gw       gateway.Gateway
	endpoint Endpoint
}

func NewDarkSkyFetcher(gw gateway.Gateway, endpoint Endpoint) *DarkSkyFetcher {
	return &DarkSkyFetcher{gw: gw, endpoint: endpoint}
}

func (f *DarkSkyFetcher) Fetch(ctx context.Context, lat, lon string) ([]models.WeatherRecord, error) {
	u := strings.TrimRight(f.endpoint.URL, "/") + "/" +
		url.PathEscape(f.endpoint.APIKey) + "/" + url.PathEscape(lat) + "," + url.PathEscape(lon)

	var resp ForecastResponse
	if err := f.gw.FetchJSON(ctx, gateway.Request{Provider: ProviderWeather, URL: u}, &resp); err != nil {
		return nil, apperr.UpstreamFailed("weather.fetch", err)
	}
	// JSON null and an absent key both leave the slice nil; [] does not.
	if resp.Daily.Data == nil {
		return nil, errMissingCollection("weather.fetch", "daily.data")
	}
	return NormalizeForecast(resp), nil
}
