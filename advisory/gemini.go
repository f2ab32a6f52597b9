package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultTextModel  = "gemini-1.5-pro"
	defaultImageModel = "gemini-3-pro-image-preview"
)

// Gemini implements Client against the Google generative API.
type Gemini struct {
	APIKey     string
	TextModel  string
	ImageModel string
}

func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		APIKey:     apiKey,
		TextModel:  defaultTextModel,
		ImageModel: defaultImageModel,
	}
}

func (g *Gemini) newClient(ctx context.Context) (*genai.Client, error) {
	if g.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// ComposeOutfit sends the candidate summary in JSON mode and parses the
// strict result schema.
func (g *Gemini) ComposeOutfit(ctx context.Context, req OutfitRequest) (*OutfitResult, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.GenerativeModel(g.TextModel)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	resp, err := model.GenerateContent(ctx, genai.Text(outfitPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate outfit: %w", err)
	}

	raw, err := firstText(resp)
	if err != nil {
		return nil, err
	}
	return ParseOutfitResult([]byte(raw), req)
}

// RenderTryOn sends the person photo plus garment photos and expects an
// image blob back.
func (g *Gemini) RenderTryOn(ctx context.Context, req RenderRequest) ([]byte, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.GenerativeModel(g.ImageModel)
	model.SetTemperature(0.4)

	parts := []genai.Part{
		genai.Text(renderPrompt(req)),
		genai.Blob{MIMEType: req.PersonImage.MIMEType, Data: req.PersonImage.Data},
	}
	for _, img := range req.GarmentImages {
		parts = append(parts, genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate try-on image: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			return blob.Data, nil
		}
	}
	return nil, fmt.Errorf("model returned text but no image data")
}

// AnalyzeGarment extracts structured garment attributes from a photo.
func (g *Gemini) AnalyzeGarment(ctx context.Context, image ImagePart, wearerInfo string) (*GarmentAttributes, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.GenerativeModel(g.TextModel)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.Text(analyzePrompt(wearerInfo)),
		genai.Blob{MIMEType: image.MIMEType, Data: image.Data},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze garment: %w", err)
	}

	raw, err := firstText(resp)
	if err != nil {
		return nil, err
	}
	var attrs GarmentAttributes
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, fmt.Errorf("analysis response is not valid JSON: %w", err)
	}
	return &attrs, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return string(text), nil
		}
	}
	return "", fmt.Errorf("unexpected response format (no text part)")
}

func outfitPrompt(req OutfitRequest) string {
	summary, _ := json.Marshal(req.Candidates)

	var b strings.Builder
	b.WriteString("You are a professional stylist. Propose exactly one outfit under the following conditions.\n\n")
	fmt.Fprintf(&b, "Date: %s (%s, %s)\n", req.TargetDate, req.Weekday, req.Season)
	fmt.Fprintf(&b, "Weather: %s, high %.1f C / low %.1f C, humidity %d%%, precipitation %d%%, wind %s %.1f m/s\n",
		req.WeatherDescription, req.MaxTemp, req.MinTemp, req.Humidity, req.Pop, req.WindDirection, req.WindSpeed)
	if req.Theme != "" {
		fmt.Fprintf(&b, "Today's theme: %q\n", req.Theme)
	} else {
		b.WriteString("No theme set; dress well for the occasion.\n")
	}
	if req.UserAttributes != "" {
		fmt.Fprintf(&b, "Wearer: %s\n", req.UserAttributes)
	}
	if req.AnchorID != "" {
		fmt.Fprintf(&b, "\nPinned item: the wearer insists on item id %q. It MUST appear in the outfit.\n", req.AnchorID)
	}
	fmt.Fprintf(&b, "\nWardrobe (candidate items):\n%s\n", summary)
	b.WriteString(`
Rules:
1. Return JSON only, matching exactly:
   {"outer_id": "..." or "", "top_ids": ["..."], "bottoms_id": "..." or "", "shoes_id": "..." or "", "reason": "..."}
2. Use the exact id strings from the wardrobe list; never invent ids.
3. If a pinned item is given, place its id in the field for its category.
4. Keep reason under 100 characters: why this combination fits the weather and theme.
`)
	return b.String()
}

func renderPrompt(req RenderRequest) string {
	return fmt.Sprintf(`
Generate a photorealistic fashion image of the person shown in the first image, wearing the clothing items shown in the subsequent images.

Input Images:
1. The Person (reference for face, body type, pose)
2+. Clothing Items (reference for outfit details)

Outfit details: %s

Requirements:
- Maintain the person's facial features and body proportions exactly.
- Naturally fit the provided clothes onto the person.
- High quality, professional fashion photography style.
- Simple studio background.
`, strings.Join(req.GarmentDetails, ", "))
}

func analyzePrompt(wearerInfo string) string {
	var b strings.Builder
	b.WriteString("Analyze this garment photo and extract the following JSON.\n")
	if wearerInfo != "" {
		fmt.Fprintf(&b, "Wearer info (use it to estimate the best size): %s\n", wearerInfo)
	}
	b.WriteString(`
{
  "category": "outer" | "tops" | "bottoms" | "shoes" | "dress" | "accessory",
  "brand": "brand name guessed from logos or tags (empty string if unknown)",
  "size": "estimated size (S/M/L/free, use free if unsure)",
  "color": "the one dominant color (e.g. black, navy, white)",
  "material": "the one dominant material guessed from the photo (e.g. cotton, nylon, leather)",
  "seasons": array containing any of ["spring", "summer", "autumn", "winter"],
  "style": "casual" | "smart" | "sporty" | "formal",
  "suitableMinTemp": lowest wearable temperature (integer),
  "suitableMaxTemp": highest wearable temperature (integer),
  "description": "one short sentence describing the garment"
}
Return JSON only.
`)
	return b.String()
}
