package api

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/utils"
)

// SignupRequest represents the payload for user registration
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the payload for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest represents the payload for verifying OTP
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func generateOTP() string {
	otp := ""
	for i := 0; i < 6; i++ {
		b := make([]byte, 1)
		rand.Read(b)
		otp += fmt.Sprintf("%d", int(b[0])%10)
	}
	return otp
}

// SignupHandler handles user registration
func (s *Server) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Signup API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.RespondError(w, &logMessageBuilder, "Name, Email and Password are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var existing models.Account
	err := s.Accounts.FindOne(ctx, bson.M{"email": req.Email}).Decode(&existing)
	if err == nil {
		utils.RespondError(w, &logMessageBuilder, "An account with this email already exists", http.StatusConflict)
		return
	} else if err != mongo.ErrNoDocuments {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Database error checking account: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Database error", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	otpCode := generateOTP()
	account := models.Account{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Status:    "pending",
		OTP:       otpCode,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	res, err := s.Accounts.InsertOne(ctx, account)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to create account: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to create account", http.StatusInternalServerError)
		return
	}
	account.ID = res.InsertedID.(primitive.ObjectID)

	if emailErr := s.Mailer.Send(req.Name, req.Email, "Verify your email",
		fmt.Sprintf("Your OTP is: %s", otpCode),
		fmt.Sprintf("<h1>Your OTP is: <strong>%s</strong></h1>", otpCode)); emailErr != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to send OTP email: %v", emailErr))
		// Account exists but email failed; the client can request a resend.
	} else {
		utils.AddToLogMessage(&logMessageBuilder, "Account registered. Sent OTP email.")
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account registered. Please verify your email using the OTP sent.",
		"user":    account,
	})
}

// VerifyOTPHandler handles OTP verification after signup
func (s *Server) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Verify OTP API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.OTP == "" {
		utils.RespondError(w, &logMessageBuilder, "Email and OTP are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var account models.Account
	err := s.Accounts.FindOne(ctx, bson.M{"email": req.Email}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, &logMessageBuilder, "Account not found", http.StatusNotFound)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Database error: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if account.OTP != req.OTP {
		utils.RespondError(w, &logMessageBuilder, "Invalid OTP", http.StatusUnauthorized)
		return
	}

	update := bson.M{
		"$set":   bson.M{"status": "verified", "updated_at": time.Now()},
		"$unset": bson.M{"otp": ""},
	}
	if _, err := s.Accounts.UpdateOne(ctx, bson.M{"_id": account.ID}, update); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to verify account: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to verify account", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Email verification completed")
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified! Kindly proceed with login",
	})
}

// LoginHandler handles user login and issues a JWT
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Login API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondError(w, &logMessageBuilder, "Email and Password are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var account models.Account
	err := s.Accounts.FindOne(ctx, bson.M{"email": req.Email}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondError(w, &logMessageBuilder, "Invalid email or password", http.StatusUnauthorized)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Database error: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if account.Status == "pending" {
		utils.RespondError(w, &logMessageBuilder, "Please verify your email first", http.StatusForbidden)
		return
	}

	if account.Status == "verified" {
		if _, err := s.Accounts.UpdateOne(ctx, bson.M{"_id": account.ID},
			bson.M{"$set": bson.M{"status": "active"}}); err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to update status to active: %v", err))
		} else {
			account.Status = "active"
		}
	}

	token, err := utils.GenerateToken([]byte(s.Cfg.JWTSecret), account.ID.Hex())
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to generate token: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Login successful")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
		"user":    account,
	})
}
