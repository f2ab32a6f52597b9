package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
)

// CoordinateRequest represents the payload for submitting an outfit job
type CoordinateRequest struct {
	TargetDate   string `json:"targetDate"`   // optional YYYY-MM-DD
	AnchorItemID string `json:"anchorItemId"` // optional garment to build around
}

// coordinateView is a completed coordinate plus the chosen garments with
// presigned image URLs.
type coordinateView struct {
	*models.Coordinate
	JobHandle string        `json:"jobHandle"`
	Items     []garmentView `json:"items,omitempty"`
}

func (s *Server) coordinateView(r *http.Request, coord *models.Coordinate) coordinateView {
	view := coordinateView{Coordinate: coord, JobHandle: coord.RecordKey()}
	for _, id := range coord.ItemIDs() {
		g, err := s.Garments.GetExact(r.Context(), coord.RecordOwner(), id)
		if err != nil {
			continue
		}
		view.Items = append(view.Items, s.garmentViews(r, []*models.Garment{g})...)
	}
	return view
}

// CoordinateHandler serves /coordinates: POST submits an outfit job and
// returns 202 with a handle, GET lists past completed outfits.
func (s *Server) CoordinateHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.submitOutfit(w, r)
	case http.MethodGet:
		s.listCoordinates(w, r)
	default:
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitOutfit(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Submit Outfit API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CoordinateRequest
	if r.Body != nil {
		// An empty body means "tomorrow, no anchor"; decode errors on an
		// actually present body are still rejected.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	job, err := s.Jobs.SubmitOutfit(r.Context(), userID, req.TargetDate, req.AnchorItemID)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Submission failed: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to submit outfit request", http.StatusBadRequest)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Outfit job accepted: %s", job.RecordKey()))
	utils.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Outfit request accepted",
		"accepted":  true,
		"jobHandle": job.RecordKey(),
		"status":    job.CurrentStatus(),
	})
}

// CoordinateStatusHandler polls an outfit job. Polling is a pure read and
// idempotent; repeated calls on a terminal job return the same answer.
func (s *Server) CoordinateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Outfit Status API]")

	if r.Method != http.MethodGet {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	jobHandle := r.URL.Query().Get("jobHandle")
	if jobHandle == "" {
		utils.RespondError(w, &logMessageBuilder, "jobHandle is required", http.StatusBadRequest)
		return
	}

	status, err := s.Jobs.PollOutfit(r.Context(), userID, jobHandle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, &logMessageBuilder, "Job not found", http.StatusNotFound)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Poll failed: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Failed to poll job", http.StatusInternalServerError)
		}
		return
	}

	resp := map[string]interface{}{"status": status.Status}
	if status.Result != nil {
		resp["result"] = s.coordinateView(r, status.Result)
	}
	if status.FailReason != "" {
		resp["failReason"] = status.FailReason
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Job %s is %s", jobHandle, status.Status))
	utils.RespondJSON(w, http.StatusOK, resp)
}

func (s *Server) listCoordinates(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Outfit History API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	coords, err := s.Coordinates.QueryActive(r.Context(), userID)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to list outfits: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to list outfits", http.StatusInternalServerError)
		return
	}

	// Newest first, one outfit per target date, completed only.
	seen := make(map[string]bool)
	views := make([]coordinateView, 0, len(coords))
	for _, c := range coords {
		if c.CurrentStatus() != models.StatusCompleted || seen[c.TargetDate] {
			continue
		}
		seen[c.TargetDate] = true
		views = append(views, s.coordinateView(r, c))
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returning %d outfits", len(views)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"coordinates": views})
}
