package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gestmais/internal/log"
	"gestmais/internal/response"
	"gestmais/internal/services"
)

const maxBodyBytes = 1_048_576 // 1 MB

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, response.APIResponse[any]{Success: false, Message: message})
}

func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(data)
}

// failureStatus maps a service error to its HTTP status code.
func failureStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure answers with the user-safe message of a service error. The
// service has already logged storage failures with their cause.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := failureStatus(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldErrorType, log.ErrorTypeInternal)
	}
	writeJSONError(w, status, services.UserMessage(err))
}
