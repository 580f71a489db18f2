package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody is the error payload of every structured rejection.
type ErrorBody struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// ErrorResponse is the wire shape for middleware rejections:
// {"ok": false, "error": {"message": "...", ...}}
type ErrorResponse struct {
	OK    bool      `json:"ok"`
	Error ErrorBody `json:"error"`
}

func JSONError(w http.ResponseWriter, statusCode int, message string) {
	writeError(w, statusCode, ErrorBody{Message: message})
}

// JSONRetryAfter writes a 429 rejection with both the Retry-After header
// and the retry_after body field, in seconds.
func JSONRetryAfter(w http.ResponseWriter, retryAfter int, message string) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeError(w, http.StatusTooManyRequests, ErrorBody{Message: message, RetryAfter: retryAfter})
}

func writeError(w http.ResponseWriter, statusCode int, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{OK: false, Error: body})
}
