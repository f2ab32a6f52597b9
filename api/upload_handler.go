package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/coordii/coordii-backend/utils"
)

// UploadURLRequest represents the payload for requesting a presigned upload
type UploadURLRequest struct {
	FileType string `json:"fileType"` // jpg, jpeg, png
	Prefix   string `json:"prefix"`   // optional key prefix, e.g. "clothes"
}

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// UploadURLHandler mints a presigned PUT URL so the client uploads images
// directly to S3. The returned imageKey is what other endpoints accept.
func (s *Server) UploadURLHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Upload URL API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	fileType := strings.ToLower(req.FileType)
	if fileType == "" {
		fileType = "jpg"
	}
	contentType, ok := contentTypes[fileType]
	if !ok {
		utils.RespondError(w, &logMessageBuilder, "Unsupported file type", http.StatusBadRequest)
		return
	}

	prefix := req.Prefix
	if prefix == "" {
		prefix = "uploads"
	}
	objectKey := fmt.Sprintf("%s/%s/%s.%s", prefix, userID, uuid.New().String(), fileType)

	uploadURL, err := s.Storage.PresignPut(r.Context(), objectKey, contentType)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to presign upload: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to create upload URL", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Presigned upload for %s", objectKey))
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"uploadUrl":   uploadURL,
		"imageKey":    objectKey,
		"contentType": contentType,
	})
}
