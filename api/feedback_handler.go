package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/utils"
)

// FeedbackHandler handles feedback submission
func (s *Server) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	logMessageBuilder := strings.Builder{}
	utils.AddToLogMessage(&logMessageBuilder, "[Feedback API]")
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10 MB limit
		utils.RespondError(w, &logMessageBuilder, "Error parsing form data", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")
	message := r.FormValue("message")
	contactBack := r.FormValue("contact_back") == "true"

	if name == "" || email == "" || message == "" {
		utils.RespondError(w, &logMessageBuilder, "Name, email, and message are required", http.StatusBadRequest)
		return
	}

	var fileKeys []string
	for _, file := range r.MultipartForm.File["files"] {
		f, err := file.Open()
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error opening file %s", file.Filename), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		ext := filepath.Ext(file.Filename)
		objectKey := fmt.Sprintf("feedback/%s/%s%s", userID, uuid.New().String(), ext)

		if _, err := s.Storage.Upload(r.Context(), objectKey, f, file.Header.Get("Content-Type")); err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Upload failed for %s: %v", file.Filename, err))
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error uploading file %s", file.Filename), http.StatusInternalServerError)
			return
		}
		fileKeys = append(fileKeys, objectKey)
	}

	feedback := models.Feedback{
		ID:          primitive.NewObjectID(),
		OwnerID:     userID,
		Name:        name,
		Email:       email,
		Message:     message,
		ContactBack: contactBack,
		FileKeys:    fileKeys,
		CreatedAt:   time.Now(),
	}

	if _, err := s.Feedbacks.InsertOne(r.Context(), feedback); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Error saving feedback: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Error saving feedback", http.StatusInternalServerError)
		return
	}

	if emailErr := s.Mailer.Send(name, email, "We received your feedback",
		"Thanks for your feedback! Our team will review it shortly.",
		"<p>Thanks for your feedback! Our team will review it shortly.</p>"); emailErr != nil {
		// Feedback is saved; the confirmation email is best-effort.
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to send confirmation email: %v", emailErr))
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"message": "Feedback submitted successfully"})
}
