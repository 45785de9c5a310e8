// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/MatteoBdl31/trailguide/internal/logging"
)

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger := logging.Logger()
		logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, details []string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code, Details: details})
}

// respondValidationError renders validator failures as one detail line per
// failing field, without echoing submitted values back.
func respondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(w, http.StatusBadRequest, "invalid_request", "request validation failed", nil)
		return
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, fe.Namespace()+": failed "+fe.Tag())
	}
	respondError(w, http.StatusBadRequest, "invalid_request", "request validation failed", details)
}
