package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
	"github.com/coordii/coordii-backend/weather"
)

// WeatherRequest represents the payload for fetching a forecast
type WeatherRequest struct {
	City       string `json:"city"`       // optional, falls back to the profile address
	TargetDate string `json:"targetDate"` // optional YYYY-MM-DD, defaults like outfit submission
}

// WeatherHandler fetches the target day's forecast, stores it as the single
// active snapshot and returns it. Outfit jobs read the stored snapshot
// rather than calling the forecast API themselves.
func (s *Server) WeatherHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Weather API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req WeatherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	city := req.City
	if city == "" {
		if profile, perr := s.Profiles.Latest(r.Context(), userID); perr == nil {
			city = profile.Address
		}
	}
	if city == "" {
		utils.RespondError(w, &logMessageBuilder, "City is required (no profile address on file)", http.StatusBadRequest)
		return
	}

	lat, lon, err := s.Geocoder.Geocode(r.Context(), city)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Geocoding failed for %q: %v", city, err))
		utils.RespondError(w, &logMessageBuilder, "Location not found", http.StatusNotFound)
		return
	}

	targetDate := req.TargetDate
	if targetDate == "" {
		targetDate = s.Jobs.DefaultTargetDate()
	}

	fc, err := s.Forecast.Forecast(r.Context(), lat, lon)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Forecast fetch failed: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to fetch forecast", http.StatusBadGateway)
		return
	}

	snapshot, err := weather.BuildSnapshot(userID, targetDate, city, lat, lon, fc)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("No forecast entries: %v", err))
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Forecast for %s not found", targetDate), http.StatusNotFound)
		return
	}

	if err := store.ReplaceActive(r.Context(), s.Weather, snapshot); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to save snapshot: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to save forecast", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Stored forecast for %s (%s)", targetDate, city))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"weather": snapshot})
}
