// Package advisory wraps the external generative collaborator. The worker
// talks to the Client interface only; the Gemini implementation lives in
// gemini.go and a fake stands in for it in tests.
package advisory

import "context"

// GarmentSummary is the compact per-item view handed to the model.
type GarmentSummary struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Color       string `json:"color,omitempty"`
	Style       string `json:"style,omitempty"`
	Description string `json:"desc,omitempty"`
}

// OutfitRequest carries the candidate set and the day's context.
type OutfitRequest struct {
	TargetDate string
	Weekday    string
	Season     string

	WeatherDescription string
	MaxTemp            float64
	MinTemp            float64
	Humidity           int
	Pop                int
	WindSpeed          float64
	WindDirection      string

	Theme          string // weekly-schedule theme for the weekday, may be empty
	UserAttributes string // e.g. "gender: female, height: 165cm"

	AnchorID   string
	Candidates []GarmentSummary
}

// OutfitResult is the strict expected shape of the model's answer. IDs must
// come from the candidate set; anything else is rejected as malformed.
type OutfitResult struct {
	OuterID   string   `json:"outer_id"`
	TopIDs    []string `json:"top_ids"`
	BottomsID string   `json:"bottoms_id"`
	ShoesID   string   `json:"shoes_id"`
	Reason    string   `json:"reason"`
}

// ImagePart is one inline image sent to or received from the model.
type ImagePart struct {
	MIMEType string
	Data     []byte
}

// RenderRequest carries the person photo and the garment photos to render.
type RenderRequest struct {
	PersonImage    ImagePart
	GarmentImages  []ImagePart
	GarmentDetails []string // short text per garment, e.g. "black outer"
}

// GarmentAttributes is the structured result of analyzing a garment photo.
type GarmentAttributes struct {
	Category        string   `json:"category"`
	Brand           string   `json:"brand"`
	Size            string   `json:"size"`
	Color           string   `json:"color"`
	Material        string   `json:"material"`
	Seasons         []string `json:"seasons"`
	Style           string   `json:"style"`
	SuitableMinTemp *float64 `json:"suitableMinTemp"`
	SuitableMaxTemp *float64 `json:"suitableMaxTemp"`
	Description     string   `json:"description"`
}

// Client is the external advisory/generative collaborator.
type Client interface {
	// ComposeOutfit asks the model to pick one outfit from the candidates.
	ComposeOutfit(ctx context.Context, req OutfitRequest) (*OutfitResult, error)
	// RenderTryOn generates a try-on image of the person wearing the garments.
	RenderTryOn(ctx context.Context, req RenderRequest) ([]byte, error)
	// AnalyzeGarment extracts garment attributes from a photo.
	AnalyzeGarment(ctx context.Context, image ImagePart, wearerInfo string) (*GarmentAttributes, error)
}
