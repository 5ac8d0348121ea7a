// Package weather resolves a device's coordinates to a place name and a
// current-conditions overview via a third-party forecast API.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Overview is the weather block attached to a report. A nil Overview on
// the report means the lookup failed or was skipped.
type Overview struct {
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	Clouds      int     `json:"clouds"`
	FetchedAt   string  `json:"fetched_at"`
}

type Client struct {
	http        *resty.Client
	geocodeBase string
	apiKey      string
}

func NewClient(baseURL, geocodeBase, apiKey string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c, geocodeBase: geocodeBase, apiKey: apiKey}
}

type currentResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
}

type geocodeEntry struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// Fetch builds the overview for the given coordinates. The reverse-geocode
// step is best-effort: a failure there leaves Location empty rather than
// failing the whole lookup.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*Overview, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("weather api key not configured")
	}

	var cur currentResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   fmt.Sprintf("%f", lat),
			"lon":   fmt.Sprintf("%f", lon),
			"units": "metric",
			"appid": c.apiKey,
		}).
		SetResult(&cur).
		Get("/data/2.5/weather")
	if err != nil {
		return nil, fmt.Errorf("weather fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("weather fetch: http %d", resp.StatusCode())
	}

	out := &Overview{
		Latitude:    lat,
		Longitude:   lon,
		Temperature: cur.Main.Temp,
		FeelsLike:   cur.Main.FeelsLike,
		Humidity:    cur.Main.Humidity,
		Pressure:    cur.Main.Pressure,
		WindSpeed:   cur.Wind.Speed,
		Clouds:      cur.Clouds.All,
		FetchedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if len(cur.Weather) > 0 {
		out.Description = cur.Weather[0].Description
	}
	out.Location = c.reverseGeocode(ctx, lat, lon)

	return out, nil
}

func (c *Client) reverseGeocode(ctx context.Context, lat, lon float64) string {
	var entries []geocodeEntry
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   fmt.Sprintf("%f", lat),
			"lon":   fmt.Sprintf("%f", lon),
			"limit": "1",
			"appid": c.apiKey,
		}).
		SetResult(&entries).
		Get(c.geocodeBase + "/geo/1.0/reverse")
	if err != nil || resp.IsError() || len(entries) == 0 {
		return ""
	}
	e := entries[0]
	if e.State != "" {
		return fmt.Sprintf("%s, %s, %s", e.Name, e.State, e.Country)
	}
	return fmt.Sprintf("%s, %s", e.Name, e.Country)
}
