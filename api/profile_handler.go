package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
)

// ProfileRequest represents the payload for registering a profile
type ProfileRequest struct {
	Gender         string            `json:"gender"`
	Birthday       string            `json:"birthday"`
	Height         float64           `json:"height"`
	Address        string            `json:"address"`
	WeeklySchedule map[string]string `json:"weeklySchedule"`
	PhotoKey       string            `json:"photoKey"`
}

func profileAttributes(p *models.Profile) string {
	return fmt.Sprintf("gender: %s, height: %.0f cm", p.Gender, p.Height)
}

// ProfileHandler serves /users: POST registers a profile version, GET returns
// the current one.
func (s *Server) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createProfile(w, r)
	case http.MethodGet:
		s.getProfile(w, r)
	default:
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Create Profile API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile := &models.Profile{
		Meta:           store.NewMeta(userID, store.NewVersionKey()),
		Gender:         req.Gender,
		Birthday:       req.Birthday,
		Height:         req.Height,
		Address:        req.Address,
		WeeklySchedule: req.WeeklySchedule,
		PhotoKey:       req.PhotoKey,
	}

	if req.Address != "" {
		lat, lon, err := s.Geocoder.Geocode(r.Context(), req.Address)
		if err != nil {
			// Geocoding failure is not fatal; the weather endpoint will
			// report the missing location when it is actually needed.
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Geocoding failed for %q: %v", req.Address, err))
		} else {
			profile.Latitude = lat
			profile.Longitude = lon
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Geocoded address to (%v, %v)", lat, lon))
		}
	}

	if err := store.ReplaceActive(r.Context(), s.Profiles, profile); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to save profile: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to save profile", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Profile registered")
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Profile registered",
		"profile": profile,
	})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Get Profile API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := s.Profiles.Latest(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, &logMessageBuilder, "Profile not found", http.StatusNotFound)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to load profile: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Failed to load profile", http.StatusInternalServerError)
		}
		return
	}

	photoURL := ""
	if profile.PhotoKey != "" {
		if url, err := s.Storage.PresignGet(r.Context(), profile.PhotoKey); err == nil {
			photoURL = url
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to presign photo: %v", err))
		}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"profile":  profile,
		"photoUrl": photoURL,
	})
}
