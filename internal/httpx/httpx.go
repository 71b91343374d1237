// Package httpx holds small helpers shared by the JSON route handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// errorResponse is the uniform error body: {"detail": "..."}.
type errorResponse struct {
	Detail string `json:"detail"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// Error writes an error body with the given status.
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, errorResponse{Detail: err.Error()})
}

// ErrorMsg writes an error body with a literal message.
func ErrorMsg(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorResponse{Detail: msg})
}

// Decode parses the request body into v, rejecting unknown fields.
func Decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

// PathID parses the named path value as a numeric ID.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
