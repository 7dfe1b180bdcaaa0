package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nikbrunner/bmsync/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps model sentinels onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, model.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

// decode reads a JSON body into v. Malformed bodies are validation errors.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	return nil
}
