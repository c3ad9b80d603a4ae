package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// FieldErrors maps input field names to their validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

type ValidationResponse struct {
	Message string      `json:"message"`
	Errors  FieldErrors `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write json response")
	}
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func writeValidation(w http.ResponseWriter, errs FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, ValidationResponse{
		Message: "The given data was invalid.",
		Errors:  errs,
	})
}

func fieldError(w http.ResponseWriter, field, msg string) {
	fe := FieldErrors{}
	fe.Add(field, msg)
	writeValidation(w, fe)
}

func forbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "forbidden", "you are not allowed to perform this action")
}

func internalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
}
