package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mimir-aip/soil-texture/pkg/metadatastore"
	"github.com/mimir-aip/soil-texture/pkg/models"
)

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response with the given status code and message
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]any{
		"error":  message,
		"status": "error",
	})
}

// validationErrorResponse carries the violated constraint alongside the message
type validationErrorResponse struct {
	Error      string `json:"error"`
	Status     string `json:"status"`
	Constraint string `json:"constraint"`
	Field      string `json:"field,omitempty"`
}

// writeServiceError maps domain errors onto HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONResponse(w, http.StatusBadRequest, validationErrorResponse{
			Error:      verr.Message,
			Status:     "error",
			Constraint: verr.Constraint,
			Field:      verr.Field,
		})
	case errors.Is(err, models.ErrModelNotTrained):
		writeErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, metadatastore.ErrNotFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error())
	default:
		writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}
