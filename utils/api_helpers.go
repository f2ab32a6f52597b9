package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Fallback error logging if encoding fails, though we can't write to w anymore if headers sent
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// RespondError sends a JSON error response and logs the error to the provided logger or stdout.
// If logger is nil, it prints to stdout using fmt.Println.
func RespondError(w http.ResponseWriter, logger *strings.Builder, message string, status int) {
	if logger != nil {
		AddToLogMessage(logger, message)
	} else {
		fmt.Println("[Error]", message)
	}
	RespondJSON(w, status, map[string]string{"error": message})
}

// AddToLogMessage appends one line to a per-request log message.
func AddToLogMessage(logMessagesBuilder *strings.Builder, strToAdd string) {
	logMessagesBuilder.WriteString(strToAdd)
	logMessagesBuilder.WriteString(";")
	logMessagesBuilder.WriteString("\n")
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		fmt.Printf("[LATENCY] %s %s - %v\n", r.Method, r.URL.Path, duration)
	})
}
