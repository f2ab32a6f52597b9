package advisory

import (
	"encoding/json"
	"fmt"
)

// ParseOutfitResult decodes and validates the model's answer against the
// request it was produced for. The advisory provider returns loosely-typed
// JSON; anything that does not line up with the candidate set is rejected
// here so partial data never reaches a job record.
func ParseOutfitResult(raw []byte, req OutfitRequest) (*OutfitResult, error) {
	var res OutfitResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("advisory response is not valid JSON: %w", err)
	}

	known := make(map[string]bool, len(req.Candidates))
	for _, c := range req.Candidates {
		known[c.ID] = true
	}

	chosen := 0
	for _, id := range res.itemIDs() {
		if !known[id] {
			return nil, fmt.Errorf("advisory response references unknown item %q", id)
		}
		chosen++
	}
	if chosen == 0 {
		return nil, fmt.Errorf("advisory response selected no items")
	}
	if res.Reason == "" {
		return nil, fmt.Errorf("advisory response is missing a reason")
	}

	if req.AnchorID != "" && !res.contains(req.AnchorID) {
		return nil, fmt.Errorf("advisory response dropped the anchor item %q", req.AnchorID)
	}

	return &res, nil
}

func (r *OutfitResult) itemIDs() []string {
	var ids []string
	if r.OuterID != "" {
		ids = append(ids, r.OuterID)
	}
	ids = append(ids, r.TopIDs...)
	if r.BottomsID != "" {
		ids = append(ids, r.BottomsID)
	}
	if r.ShoesID != "" {
		ids = append(ids, r.ShoesID)
	}
	return ids
}

func (r *OutfitResult) contains(id string) bool {
	for _, have := range r.itemIDs() {
		if have == id {
			return true
		}
	}
	return false
}
