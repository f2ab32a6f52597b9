package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coordii/coordii-backend/advisory"
	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
)

// GarmentRequest represents the payload for registering or editing a garment
type GarmentRequest struct {
	ItemID          string   `json:"itemId"` // required for PUT/DELETE only
	ImageKey        string   `json:"imageKey"`
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

// garmentView is a garment plus its presigned image URL.
type garmentView struct {
	*models.Garment
	ItemID   string `json:"itemId"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func (s *Server) garmentViews(r *http.Request, garments []*models.Garment) []garmentView {
	views := make([]garmentView, 0, len(garments))
	for _, g := range garments {
		view := garmentView{Garment: g, ItemID: g.ItemID()}
		if g.ImageKey != "" {
			if url, err := s.Storage.PresignGet(r.Context(), g.ImageKey); err == nil {
				view.ImageURL = url
			}
		}
		views = append(views, view)
	}
	return views
}

// ClothesHandler serves /clothes: POST registers, GET lists, PUT edits via
// tombstone-and-recreate, DELETE tombstones.
func (s *Server) ClothesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.registerGarment(w, r)
	case http.MethodGet:
		s.listGarments(w, r)
	case http.MethodPut:
		s.updateGarment(w, r)
	case http.MethodDelete:
		s.deleteGarment(w, r)
	default:
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func garmentFromRequest(userID string, req *GarmentRequest) *models.Garment {
	return &models.Garment{
		Meta:            store.NewMeta(userID, store.NewVersionKey()),
		ImageKey:        req.ImageKey,
		Category:        req.Category,
		Brand:           req.Brand,
		Size:            req.Size,
		Color:           req.Color,
		Material:        req.Material,
		Seasons:         req.Seasons,
		Style:           req.Style,
		SuitableMinTemp: req.SuitableMinTemp,
		SuitableMaxTemp: req.SuitableMaxTemp,
		Description:     req.Description,
	}
}

func (s *Server) registerGarment(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Register Garment API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req GarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Category == "" {
		utils.RespondError(w, &logMessageBuilder, "Category is required", http.StatusBadRequest)
		return
	}

	garment := garmentFromRequest(userID, &req)
	if err := s.Garments.Put(r.Context(), garment); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to save garment: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to save garment", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Garment registered: %s", garment.ItemID()))
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Garment registered",
		"itemId":  garment.ItemID(),
		"garment": garment,
	})
}

func (s *Server) listGarments(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[List Garments API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	garments, err := s.Garments.QueryActive(r.Context(), userID)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to list garments: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to list garments", http.StatusInternalServerError)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := garments[:0]
		for _, g := range garments {
			if g.Category == category {
				filtered = append(filtered, g)
			}
		}
		garments = filtered
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returning %d garments", len(garments)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"clothes": s.garmentViews(r, garments),
	})
}

func (s *Server) updateGarment(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Update Garment API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req GarmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ItemID == "" {
		utils.RespondError(w, &logMessageBuilder, "itemId is required", http.StatusBadRequest)
		return
	}

	old, err := s.Garments.GetExact(r.Context(), userID, req.ItemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, &logMessageBuilder, "Garment not found", http.StatusNotFound)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to load garment: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Failed to load garment", http.StatusInternalServerError)
		}
		return
	}

	fresh := garmentFromRequest(userID, &req)
	if fresh.ImageKey == "" {
		fresh.ImageKey = old.ImageKey
	}

	if err := store.Replace(r.Context(), s.Garments, old, fresh); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to replace garment: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to update garment", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Garment %s replaced by %s", req.ItemID, fresh.ItemID()))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Garment updated",
		"itemId":  fresh.ItemID(),
		"garment": fresh,
	})
}

func (s *Server) deleteGarment(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Delete Garment API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := r.URL.Query().Get("itemId")
	if itemID == "" {
		var req GarmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			itemID = req.ItemID
		}
	}
	if itemID == "" {
		utils.RespondError(w, &logMessageBuilder, "itemId is required", http.StatusBadRequest)
		return
	}

	if err := s.Garments.MarkDeleted(r.Context(), userID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, &logMessageBuilder, "Garment not found", http.StatusNotFound)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to delete garment: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Failed to delete garment", http.StatusInternalServerError)
		}
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Garment deleted: %s", itemID))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Garment deleted"})
}

// AnalyzeRequest represents the payload for garment photo analysis
type AnalyzeRequest struct {
	ImageKey string `json:"imageKey"`
	ImageURL string `json:"imageUrl"`
}

// AnalyzeGarmentHandler runs the model's attribute extraction on a garment
// photo so the client can prefill the registration form.
func (s *Server) AnalyzeGarmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Analyze Garment API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	source := req.ImageKey
	if source == "" {
		source = req.ImageURL
	}
	if source == "" {
		utils.RespondError(w, &logMessageBuilder, "imageKey or imageUrl is required", http.StatusBadRequest)
		return
	}

	data, contentType, err := s.Storage.Download(r.Context(), source)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to download image: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to download image", http.StatusBadRequest)
		return
	}

	wearerInfo := ""
	if profile, err := s.Profiles.Latest(r.Context(), userID); err == nil {
		wearerInfo = profileAttributes(profile)
	}

	attrs, err := s.Advisory.AnalyzeGarment(r.Context(), advisory.ImagePart{
		MIMEType: contentType,
		Data:     data,
	}, wearerInfo)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Analysis failed: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to analyze garment", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Garment analyzed")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"attributes": attrs})
}

// ImportRequest represents the payload for importing a garment from a
// product page URL
type ImportRequest struct {
	URL string `json:"url"`
}

// ImportGarmentHandler extracts a garment preview from an online store page.
func (s *Server) ImportGarmentHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Import Garment API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := GetUserIDFromContext(r.Context()); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		utils.RespondError(w, &logMessageBuilder, "url is required", http.StatusBadRequest)
		return
	}

	preview, err := s.Importer.FetchPreview(r.Context(), req.URL)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to fetch preview: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to fetch product page", http.StatusBadGateway)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Imported preview from %s", req.URL))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"preview": preview})
}
