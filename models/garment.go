package models

import "github.com/coordii/coordii-backend/store"

// Garment represents one wardrobe item. Its version key doubles as the item
// identifier: editing a garment tombstones the old version and inserts a new
// record under a freshly minted key, so an identifier is never reused.
type Garment struct {
	store.Meta `bson:",inline"`

	ImageKey        string   `bson:"image_key,omitempty" json:"imageKey,omitempty"`
	Category        string   `bson:"category" json:"category"`
	Brand           string   `bson:"brand,omitempty" json:"brand,omitempty"`
	Size            string   `bson:"size,omitempty" json:"size,omitempty"`
	Color           string   `bson:"color,omitempty" json:"color,omitempty"`
	Material        string   `bson:"material,omitempty" json:"material,omitempty"`
	Seasons         []string `bson:"seasons,omitempty" json:"seasons,omitempty"`
	Style           string   `bson:"style,omitempty" json:"style,omitempty"`
	SuitableMinTemp *float64 `bson:"suitable_min_temp,omitempty" json:"suitableMinTemp,omitempty"`
	SuitableMaxTemp *float64 `bson:"suitable_max_temp,omitempty" json:"suitableMaxTemp,omitempty"`
	Description     string   `bson:"description,omitempty" json:"description,omitempty"`
}

// ItemID is the externally visible garment identifier.
func (g *Garment) ItemID() string { return g.CreatedAt }
