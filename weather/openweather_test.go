package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(dtTxt string, tempMax, tempMin, pop float64) ForecastEntry {
	e := ForecastEntry{DtTxt: dtTxt, Pop: pop}
	e.Main.TempMax = tempMax
	e.Main.TempMin = tempMin
	e.Main.Humidity = 60
	e.Wind.Speed = 3.5
	e.Wind.Deg = 90
	e.Weather = append(e.Weather, struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	}{Description: "scattered clouds", Icon: "03d"})
	return e
}

func TestBuildSnapshotAggregatesTargetDay(t *testing.T) {
	fc := &ForecastResponse{List: []ForecastEntry{
		entry("2026-08-31 21:00:00", 30, 26, 0.1), // previous day, ignored
		entry("2026-09-01 00:00:00", 22, 18, 0.2),
		entry("2026-09-01 03:00:00", 24, 19, 0.6), // primary entry
		entry("2026-09-01 06:00:00", 27, 21, 0.3),
		entry("2026-09-02 00:00:00", 20, 15, 0.9), // next day, ignored
	}}

	snap, err := BuildSnapshot("owner-1", "2026-09-01", "Fukuoka", 33.59, 130.4, fc)
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01", snap.TargetDate)
	assert.Equal(t, "Fukuoka", snap.City)
	assert.Equal(t, 27.0, snap.MaxTemp)
	assert.Equal(t, 18.0, snap.MinTemp)
	assert.Equal(t, 60, snap.Pop) // max pop of the day as percent
	assert.Equal(t, 60, snap.Humidity)
	assert.Equal(t, "scattered clouds", snap.Description)
	assert.Equal(t, "https://openweathermap.org/img/wn/03d@2x.png", snap.IconURL)
	assert.Equal(t, 3.5, snap.WindSpeed)
	assert.Equal(t, "E", snap.WindDirection)
	assert.Equal(t, "owner-1", snap.RecordOwner())
	assert.NotEmpty(t, snap.RecordKey())
}

func TestBuildSnapshotFallsBackToFirstEntry(t *testing.T) {
	// No 03:00 entry for the day; the first entry supplies the description.
	fc := &ForecastResponse{List: []ForecastEntry{
		entry("2026-09-01 12:00:00", 25, 20, 0),
		entry("2026-09-01 15:00:00", 26, 21, 0),
	}}

	snap, err := BuildSnapshot("owner-1", "2026-09-01", "", 0, 0, fc)
	require.NoError(t, err)
	assert.Equal(t, "scattered clouds", snap.Description)
	assert.Equal(t, 26.0, snap.MaxTemp)
	assert.Equal(t, 20.0, snap.MinTemp)
}

func TestBuildSnapshotNoEntriesForDate(t *testing.T) {
	fc := &ForecastResponse{List: []ForecastEntry{
		entry("2026-09-02 00:00:00", 20, 15, 0),
	}}

	_, err := BuildSnapshot("owner-1", "2026-09-01", "", 0, 0, fc)
	assert.ErrorContains(t, err, "forecast for 2026-09-01 not found")
}

func TestWindDirection(t *testing.T) {
	tests := []struct {
		deg      float64
		expected string
	}{
		{0, "N"},
		{45, "NE"},
		{90, "E"},
		{135, "SE"},
		{180, "S"},
		{225, "SW"},
		{270, "W"},
		{315, "NW"},
		{350, "N"},
		{11, "N"},
		{12, "NNE"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, WindDirection(tt.deg), "deg=%v", tt.deg)
	}
}
