package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ukydev/garage-service/internal/apperr"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its HTTP status. Delivery failures carry the
// provider's reason in details.
func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: apperr.PublicMessage(err)}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) && appErr.Kind == apperr.KindDelivery && appErr.Err != nil {
		resp.Details = appErr.Err.Error()
	}
	writeJSON(w, apperr.StatusCode(err), resp)
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperr.NewValidationError("failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.NewValidationError("invalid JSON")
	}
	return nil
}
