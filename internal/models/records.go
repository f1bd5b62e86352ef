package models

// LocationRecord is a resolved location. SearchQuery is the raw query string
// it was resolved from and is the lookup key in the location store.
type LocationRecord struct {
	SearchQuery    string  `json:"search_query"`
	FormattedQuery string  `json:"formatted_query"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// WeatherRecord is one day of forecast.
type WeatherRecord struct {
	Forecast string `json:"forecast"`
	Time     string `json:"time"`
}

type TrailRecord struct {
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	Length        float64 `json:"length"`
	Stars         float64 `json:"stars"`
	StarVotes     int     `json:"star_votes"`
	Summary       string  `json:"summary"`
	TrailURL      string  `json:"trail_url"`
	Conditions    string  `json:"conditions"`
	ConditionDate string  `json:"condition_date"`
}

type MovieRecord struct {
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	AverageVotes float64 `json:"averageVotes"`
	TotalVotes   int     `json:"totalVotes"`
	ImageURL     string  `json:"image_url"`
	Popularity   float64 `json:"popularity"`
	ReleaseDate  string  `json:"releaseDate"`
}

type BusinessRecord struct {
	Name     string  `json:"name"`
	ImageURL string  `json:"image_url"`
	Price    string  `json:"price"`
	Rating   float64 `json:"rating"`
	URL      string  `json:"url"`
}
