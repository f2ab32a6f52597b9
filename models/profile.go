package models

import "github.com/coordii/coordii-backend/store"

// Profile holds a user's body attributes, location and weekly style themes.
// Single-active: registering a profile tombstones every previous version.
type Profile struct {
	store.Meta `bson:",inline"`

	Gender         string            `bson:"gender,omitempty" json:"gender,omitempty"`
	Birthday       string            `bson:"birthday,omitempty" json:"birthday,omitempty"`
	Height         float64           `bson:"height,omitempty" json:"height,omitempty"` // in cm
	Address        string            `bson:"address,omitempty" json:"address,omitempty"`
	Latitude       float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude      float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	WeeklySchedule map[string]string `bson:"weekly_schedule,omitempty" json:"weeklySchedule,omitempty"` // e.g. {"Mon": "Office"}
	PhotoKey       string            `bson:"photo_key,omitempty" json:"photoKey,omitempty"`
}
