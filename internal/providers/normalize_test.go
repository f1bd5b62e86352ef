package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/city-explorer-service/internal/models"
)

func decode(t *testing.T, raw string, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(raw), out))
}

func TestNormalizeGeocode(t *testing.T) {
	var resp GeocodeResponse
	decode(t, `{
		"status": "OK",
		"results": [
			{"formatted_address": "Seattle, WA, USA", "geometry": {"location": {"lat": 47.6062, "lng": -122.3321}}},
			{"formatted_address": "Seattle Hill, WA, USA", "geometry": {"location": {"lat": 1, "lng": 2}}}
		]
	}`, &resp)

	got, err := NormalizeGeocode("seattle", resp)
	require.NoError(t, err)
	assert.Equal(t, models.LocationRecord{
		SearchQuery:    "seattle",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	}, got)
}

func TestNormalizeGeocode_NoResults(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"zero results status", `{"status":"ZERO_RESULTS","results":[]}`},
		{"denied", `{"status":"REQUEST_DENIED","results":[]}`},
		{"empty results", `{"status":"OK","results":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp GeocodeResponse
			decode(t, tt.raw, &resp)
			_, err := NormalizeGeocode("nowhere", resp)
			assert.ErrorIs(t, err, ErrNoResults)
		})
	}
}

func TestNormalizeForecast(t *testing.T) {
	var resp ForecastResponse
	decode(t, `{"daily":{"data":[
		{"summary":"Light rain in the morning.","time":1540000000},
		{"summary":"Clear throughout the day.","time":1540086400}
	]}}`, &resp)

	got := NormalizeForecast(resp)
	assert.Equal(t, []models.WeatherRecord{
		{Forecast: "Light rain in the morning.", Time: "Sat Oct 20 2018"},
		{Forecast: "Clear throughout the day.", Time: "Sun Oct 21 2018"},
	}, got)
}

func TestNormalizeForecast_EmptyIsNotNil(t *testing.T) {
	got := NormalizeForecast(ForecastResponse{})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeTrails(t *testing.T) {
	var resp TrailsResponse
	decode(t, `{"trails":[{
		"name":"Rattlesnake Ledge",
		"location":"North Bend, Washington",
		"length":4.3,
		"stars":4.4,
		"starVotes":79,
		"summary":"A popular hike.",
		"url":"https://www.hikingproject.com/trail/7011192",
		"conditionStatus":"All Clear",
		"conditionDate":"2018-07-21 20:58:45"
	}]}`, &resp)

	got := NormalizeTrails(resp)
	require.Len(t, got, 1)
	assert.Equal(t, models.TrailRecord{
		Name:          "Rattlesnake Ledge",
		Location:      "North Bend, Washington",
		Length:        4.3,
		Stars:         4.4,
		StarVotes:     79,
		Summary:       "A popular hike.",
		TrailURL:      "https://www.hikingproject.com/trail/7011192",
		Conditions:    "All Clear",
		ConditionDate: "2018-07-21 20:58:45",
	}, got[0])
}

func TestNormalizeMovies(t *testing.T) {
	var resp MoviesResponse
	decode(t, `{"results":[
		{"title":"Sleepless in Seattle","overview":"A widowed man...","vote_average":6.6,"vote_count":881,
		 "poster_path":"/afkYP15OeUOD0tFEmj6VvejuOcz.jpg","popularity":8.2,"release_date":"1993-06-24"},
		{"title":"No Poster","overview":"","vote_average":0,"vote_count":0,"poster_path":"","popularity":0.6,"release_date":""}
	]}`, &resp)

	got := NormalizeMovies(resp)
	require.Len(t, got, 2)
	assert.Equal(t, models.MovieRecord{
		Title:        "Sleepless in Seattle",
		Overview:     "A widowed man...",
		AverageVotes: 6.6,
		TotalVotes:   881,
		ImageURL:     "https://image.tmdb.org/t/p/w500/afkYP15OeUOD0tFEmj6VvejuOcz.jpg",
		Popularity:   8.2,
		ReleaseDate:  "1993-06-24",
	}, got[0])
	assert.Equal(t, TMDBImageBase, got[1].ImageURL)
}

func TestNormalizeBusinesses(t *testing.T) {
	var resp BusinessesResponse
	decode(t, `{"businesses":[
		{"name":"Pike Place Chowder","image_url":"https://s3-media.fl.yelpcdn.com/a.jpg","price":"$$","rating":4.5,"url":"https://www.yelp.com/biz/pike"},
		{"name":"Piroshky Piroshky","image_url":"","price":"$","rating":4,"url":"https://www.yelp.com/biz/piroshky"}
	]}`, &resp)

	got := NormalizeBusinesses(resp)
	assert.Equal(t, []models.BusinessRecord{
		{Name: "Pike Place Chowder", ImageURL: "https://s3-media.fl.yelpcdn.com/a.jpg", Price: "$$", Rating: 4.5, URL: "https://www.yelp.com/biz/pike"},
		{Name: "Piroshky Piroshky", ImageURL: "", Price: "$", Rating: 4, URL: "https://www.yelp.com/biz/piroshky"},
	}, got)
}
