package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
)

// OpenWeather fetches the 5-day / 3-hour forecast.
type OpenWeather struct {
	client *resty.Client
	apiKey string
}

func NewOpenWeather(apiKey string) *OpenWeather {
	return &OpenWeather{
		client: resty.New().
			SetBaseURL("https://api.openweathermap.org").
			SetTimeout(10 * time.Second),
		apiKey: apiKey,
	}
}

// ForecastResponse mirrors the subset of the OpenWeather payload we read.
type ForecastResponse struct {
	List []ForecastEntry `json:"list"`
}

type ForecastEntry struct {
	DtTxt string `json:"dt_txt"` // "2026-08-30 03:00:00"
	Main  struct {
		TempMax  float64 `json:"temp_max"`
		TempMin  float64 `json:"temp_min"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Pop     float64 `json:"pop"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
}

func (w *OpenWeather) Forecast(ctx context.Context, lat, lon float64) (*ForecastResponse, error) {
	if w.apiKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY is not set")
	}

	var out ForecastResponse
	resp, err := w.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   fmt.Sprintf("%.2f", lat),
			"lon":   fmt.Sprintf("%.2f", lon),
			"appid": w.apiKey,
			"units": "metric",
		}).
		SetResult(&out).
		Get("/data/2.5/forecast")
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("forecast request failed: status %d", resp.StatusCode())
	}
	return &out, nil
}

// BuildSnapshot aggregates the 3-hourly entries of one day into a snapshot
// record: max/min over all of the day's entries, precipitation as the day's
// peak, and description/humidity/wind from the 03:00 entry (falling back to
// the day's first entry).
func BuildSnapshot(ownerID, targetDate, city string, lat, lon float64, fc *ForecastResponse) (*models.WeatherSnapshot, error) {
	var (
		temps   []float64
		maxPop  float64
		primary *ForecastEntry
		first   *ForecastEntry
	)
	for i := range fc.List {
		entry := &fc.List[i]
		if !strings.HasPrefix(entry.DtTxt, targetDate) {
			continue
		}
		temps = append(temps, entry.Main.TempMax, entry.Main.TempMin)
		if entry.Pop > maxPop {
			maxPop = entry.Pop
		}
		if first == nil {
			first = entry
		}
		if strings.Contains(entry.DtTxt, "03:00:00") {
			primary = entry
		}
	}
	if len(temps) == 0 {
		return nil, fmt.Errorf("forecast for %s not found", targetDate)
	}
	if primary == nil {
		primary = first
	}

	maxTemp, minTemp := temps[0], temps[0]
	for _, t := range temps[1:] {
		if t > maxTemp {
			maxTemp = t
		}
		if t < minTemp {
			minTemp = t
		}
	}

	snap := &models.WeatherSnapshot{
		Meta:          store.NewMeta(ownerID, store.NewVersionKey()),
		TargetDate:    targetDate,
		City:          city,
		Latitude:      lat,
		Longitude:     lon,
		MaxTemp:       maxTemp,
		MinTemp:       minTemp,
		Pop:           int(maxPop * 100),
		Humidity:      primary.Main.Humidity,
		WindSpeed:     primary.Wind.Speed,
		WindDirection: WindDirection(primary.Wind.Deg),
	}
	if len(primary.Weather) > 0 {
		snap.Description = primary.Weather[0].Description
		snap.IconURL = fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", primary.Weather[0].Icon)
	}
	return snap, nil
}

var windRose = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirection maps degrees to a 16-point compass direction.
func WindDirection(deg float64) string {
	idx := int((deg+11.25)/22.5) % 16
	return windRose[idx]
}
