// Package weather wraps the two location collaborators: the Google geocoder
// and the OpenWeather forecast API, plus the aggregation from raw 3-hourly
// forecast entries to one day's snapshot.
package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
)

// Geocoder resolves a free-text address to coordinates.
type Geocoder struct {
	client *resty.Client
	apiKey string
}

func NewGeocoder(apiKey string) *Geocoder {
	return &Geocoder{
		client: resty.New().
			SetBaseURL("https://maps.googleapis.com").
			SetTimeout(10 * time.Second),
		apiKey: apiKey,
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode returns coordinates rounded to two decimals, enough to key a city
// without storing a precise home address.
func (g *Geocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, fmt.Errorf("GOOGLE_MAPS_API_KEY is not set")
	}

	var out geocodeResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": address,
			"key":     g.apiKey,
		}).
		SetResult(&out).
		Get("/maps/api/geocode/json")
	if err != nil {
		return 0, 0, fmt.Errorf("geocode request failed: %w", err)
	}
	if resp.IsError() {
		return 0, 0, fmt.Errorf("geocode request failed: status %d", resp.StatusCode())
	}
	if out.Status != "OK" || len(out.Results) == 0 {
		return 0, 0, fmt.Errorf("no geocode result for %q (status %s)", address, out.Status)
	}

	loc := out.Results[0].Geometry.Location
	return round2(loc.Lat), round2(loc.Lng), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
