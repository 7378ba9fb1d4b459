package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rifayetuxbd/craftshop-api/internal/apperror"
)

// ErrorResponse is the error envelope every failing request renders.
// Details and Cause are populated only outside production mode.
type ErrorResponse struct {
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	StatusCode int               `json:"statusCode"`
	Details    map[string]string `json:"details,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondAppError renders a typed error. In production the field-level
// validation detail and the internal cause are stripped from the body.
func RespondAppError(w http.ResponseWriter, err error, production bool) {
	appErr := apperror.From(err)

	resp := ErrorResponse{
		Error:      appErr.Message,
		Code:       appErr.Code,
		StatusCode: appErr.Status,
	}
	if !production {
		resp.Details = appErr.Fields
		if appErr.Err != nil {
			resp.Cause = appErr.Err.Error()
		}
	}

	RespondJSON(w, resp, appErr.Status)
}
