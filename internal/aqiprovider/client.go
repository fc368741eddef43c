package aqiprovider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"airhealth-cloud/internal/apperr"
	readings "airhealth-cloud/internal/readings/domain"
)

// Client fetches live air-quality data from an OpenWeather-compatible
// API: a geocoding lookup resolves the city, then the air_pollution
// endpoint returns pollutant components and a 1..5 quality index.
type Client struct {
	http   *resty.Client
	apiKey string
}

// Option configures the client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// WithRetries sets the retry count for transient failures.
func WithRetries(count int) Option {
	return func(c *Client) {
		if count > 0 {
			c.http.SetRetryCount(count)
		}
	}
}

// NewClient constructs a provider client.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:   resty.New().SetBaseURL(baseURL).SetTimeout(10 * time.Second),
		apiKey: apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type geocodeResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type pollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   float64 `json:"co"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
		} `json:"components"`
		Dt int64 `json:"dt"`
	} `json:"list"`
}

// aqiFromIndex maps the provider's 1..5 quality index onto the AQI
// midpoints the scorer expects. Anything outside 1..5 is rejected so a
// malformed response never persists as a zero-AQI sample.
func aqiFromIndex(index int) (int, error) {
	switch index {
	case 1:
		return 25, nil
	case 2:
		return 75, nil
	case 3:
		return 125, nil
	case 4:
		return 200, nil
	case 5:
		return 350, nil
	default:
		return 0, apperr.Validation("aqi provider: quality index %d outside 1..5", index)
	}
}

// Fetch resolves the city and returns its current air-quality sample.
// The sample carries no ID; identity belongs to the caller.
func (c *Client) Fetch(ctx context.Context, city string) (readings.AQISample, error) {
	if city == "" {
		return readings.AQISample{}, apperr.Validation("aqi provider: empty city")
	}

	var locations []geocodeResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"limit": "1",
			"appid": c.apiKey,
		}).
		SetResult(&locations).
		ForceContentType("application/json").
		Get("/geo/1.0/direct")
	if err != nil {
		return readings.AQISample{}, apperr.Persistence("aqi provider: geocode request", err)
	}
	if resp.IsError() {
		return readings.AQISample{}, apperr.Persistence(fmt.Sprintf("aqi provider: geocode status %d", resp.StatusCode()), nil)
	}
	if len(locations) == 0 {
		return readings.AQISample{}, apperr.NotFound("aqi provider: unknown city %s", city)
	}

	var pollution pollutionResponse
	resp, err = c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   fmt.Sprintf("%f", locations[0].Lat),
			"lon":   fmt.Sprintf("%f", locations[0].Lon),
			"appid": c.apiKey,
		}).
		SetResult(&pollution).
		ForceContentType("application/json").
		Get("/data/2.5/air_pollution")
	if err != nil {
		return readings.AQISample{}, apperr.Persistence("aqi provider: pollution request", err)
	}
	if resp.IsError() {
		return readings.AQISample{}, apperr.Persistence(fmt.Sprintf("aqi provider: pollution status %d", resp.StatusCode()), nil)
	}
	if len(pollution.List) == 0 {
		return readings.AQISample{}, apperr.NotFound("aqi provider: no data for city %s", city)
	}

	entry := pollution.List[0]
	aqiValue, err := aqiFromIndex(entry.Main.AQI)
	if err != nil {
		return readings.AQISample{}, err
	}
	capturedAt := time.Unix(entry.Dt, 0).UTC()
	if entry.Dt == 0 {
		capturedAt = time.Now().UTC()
	}
	return readings.AQISample{
		City:       city,
		AQIValue:   aqiValue,
		PM25:       entry.Components.PM25,
		PM10:       entry.Components.PM10,
		CO:         entry.Components.CO,
		NO2:        entry.Components.NO2,
		O3:         entry.Components.O3,
		CapturedAt: capturedAt,
	}, nil
}
