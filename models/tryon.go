package models

import "github.com/coordii/coordii-backend/store"

// TryOn is a virtual try-on render job record. It references the completed
// coordinate whose garments are rendered onto the owner's profile photo.
// Like Coordinate, the version key is the job handle and the worker performs
// a single terminal write.
type TryOn struct {
	store.Meta `bson:",inline"`
	JobState   `bson:",inline"`

	CoordinateKey string `bson:"coordinate_key" json:"coordinateKey"`
	ImageKey      string `bson:"image_key,omitempty" json:"imageKey,omitempty"`
}
