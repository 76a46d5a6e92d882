// Package httpx provides JSON response helpers shared by all HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorBody is the generic error envelope returned for 4xx/5xx responses.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// UnauthorizedBody is the structured body written by the authentication gate.
type UnauthorizedBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends the generic error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Code: status, Message: message})
}

// Unauthorized writes the gate's 401 body and terminates the response.
func Unauthorized(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, UnauthorizedBody{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusUnauthorized,
		Error:     "Unauthorized",
		Message:   message,
	})
}

// DecodeJSON decodes a JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
