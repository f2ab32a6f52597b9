package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/coordii/coordii-backend/jobs"
	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
)

// TryOnRequest represents the payload for submitting a try-on render job
type TryOnRequest struct {
	CoordinateID string `json:"coordinateId"`
}

// TryOnHandler submits a render job for a completed outfit and returns 202
// with a handle.
func (s *Server) TryOnHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Submit Try-On API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req TryOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CoordinateID == "" {
		utils.RespondError(w, &logMessageBuilder, "coordinateId is required", http.StatusBadRequest)
		return
	}

	job, err := s.Jobs.SubmitTryOn(r.Context(), userID, req.CoordinateID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			utils.RespondError(w, &logMessageBuilder, "Coordinate not found", http.StatusNotFound)
		case errors.Is(err, jobs.ErrNotReady):
			utils.RespondError(w, &logMessageBuilder, "Coordinate is not completed yet", http.StatusConflict)
		default:
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Submission failed: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Failed to submit try-on request", http.StatusInternalServerError)
		}
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Try-on job accepted: %s", job.RecordKey()))
	utils.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":   "Try-on request accepted",
		"accepted":  true,
		"jobHandle": job.RecordKey(),
		"status":    job.CurrentStatus(),
	})
}

// TryOnStatusHandler polls a render job and presigns the generated image on
// completion.
func (s *Server) TryOnStatusHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Try-On Status API]")

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

	status, err := s.Jobs.PollTryOn(r.Context(), userID, jobHandle)
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
		resp["result"] = status.Result
		if status.Result.ImageKey != "" {
			if url, perr := s.Storage.PresignGet(r.Context(), status.Result.ImageKey); perr == nil {
				resp["imageUrl"] = url
			} else {
				utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to presign image: %v", perr))
			}
		}
	}
	if status.FailReason != "" {
		resp["failReason"] = status.FailReason
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Job %s is %s", jobHandle, status.Status))
	utils.RespondJSON(w, http.StatusOK, resp)
}

// tryOnView is a completed render plus its presigned image URL.
type tryOnView struct {
	*models.TryOn
	JobHandle string `json:"jobHandle"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// GalleryHandler lists the owner's completed try-on renders, newest first,
// with simple page/limit pagination.
func (s *Server) GalleryHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Gallery API]")

	if r.Method != http.MethodGet {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	tryOns, err := s.TryOns.QueryActive(r.Context(), userID)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to list try-ons: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to list try-ons", http.StatusInternalServerError)
		return
	}

	completed := make([]*models.TryOn, 0, len(tryOns))
	for _, t := range tryOns {
		if t.CurrentStatus() == models.StatusCompleted && t.ImageKey != "" {
			completed = append(completed, t)
		}
	}

	start := (page - 1) * limit
	if start > len(completed) {
		start = len(completed)
	}
	end := start + limit
	if end > len(completed) {
		end = len(completed)
	}

	views := make([]tryOnView, 0, end-start)
	for _, t := range completed[start:end] {
		view := tryOnView{TryOn: t, JobHandle: t.RecordKey()}
		if url, perr := s.Storage.PresignGet(r.Context(), t.ImageKey); perr == nil {
			view.ImageURL = url
		}
		views = append(views, view)
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returning %d renders (page %d)", len(views), page))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"tryOns": views,
		"page":   page,
		"limit":  limit,
		"total":  len(completed),
	})
}
