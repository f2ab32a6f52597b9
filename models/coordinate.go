package models

import "github.com/coordii/coordii-backend/store"

// Coordinate is an outfit composition job record. Its version key is the
// externally visible job handle. The record is created in PROCESSING by the
// submission path and mutated exactly once by the worker's terminal write;
// result slots are populated only on COMPLETED.
type Coordinate struct {
	store.Meta `bson:",inline"`
	JobState   `bson:",inline"`

	TargetDate   string `bson:"target_date" json:"targetDate"` // YYYY-MM-DD
	AnchorItemID string `bson:"anchor_item_id,omitempty" json:"anchorItemId,omitempty"`

	OuterID   string   `bson:"outer_id,omitempty" json:"outerId,omitempty"`
	TopIDs    []string `bson:"top_ids,omitempty" json:"topIds,omitempty"`
	BottomsID string   `bson:"bottoms_id,omitempty" json:"bottomsId,omitempty"`
	ShoesID   string   `bson:"shoes_id,omitempty" json:"shoesId,omitempty"`
	Reason    string   `bson:"reason,omitempty" json:"reason,omitempty"`
}

// ItemIDs lists every garment identifier chosen for this outfit.
func (c *Coordinate) ItemIDs() []string {
	var ids []string
	if c.OuterID != "" {
		ids = append(ids, c.OuterID)
	}
	ids = append(ids, c.TopIDs...)
	if c.BottomsID != "" {
		ids = append(ids, c.BottomsID)
	}
	if c.ShoesID != "" {
		ids = append(ids, c.ShoesID)
	}
	return ids
}
