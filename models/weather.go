package models

import "github.com/coordii/coordii-backend/store"

// WeatherSnapshot is one day's aggregated forecast for an owner's location.
// Single-active: each fetch replaces the previous snapshot.
type WeatherSnapshot struct {
	store.Meta `bson:",inline"`

	TargetDate    string  `bson:"target_date" json:"targetDate"` // YYYY-MM-DD
	City          string  `bson:"city,omitempty" json:"city,omitempty"`
	Latitude      float64 `bson:"latitude" json:"latitude"`
	Longitude     float64 `bson:"longitude" json:"longitude"`
	Description   string  `bson:"description,omitempty" json:"description,omitempty"`
	IconURL       string  `bson:"icon_url,omitempty" json:"iconUrl,omitempty"`
	MaxTemp       float64 `bson:"max_temp" json:"maxTemp"`
	MinTemp       float64 `bson:"min_temp" json:"minTemp"`
	Humidity      int     `bson:"humidity" json:"humidity"`
	Pop           int     `bson:"pop" json:"pop"` // precipitation probability, percent
	WindSpeed     float64 `bson:"wind_speed" json:"windSpeed"`
	WindDirection string  `bson:"wind_direction,omitempty" json:"windDirection,omitempty"`
}
