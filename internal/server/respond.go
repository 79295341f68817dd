package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"expense-chat/internal/auth"
	"expense-chat/internal/interpreter"
	"expense-chat/internal/logger"
	"expense-chat/internal/repository"
)

func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	respondJSON(w, status, map[string]any{"error": err.Error()})
}

// writeError maps application errors onto HTTP statuses: invalid input is
// 400, failed auth 401, duplicate identity 409, upstream model failure 502,
// everything else 500 with the detail kept out of the response body.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *auth.ValidationError
	var conflictErr *auth.ConflictError
	var queryErr *repository.QueryError
	var externalErr *interpreter.ExternalServiceError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, err)
	case errors.As(err, &queryErr):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidSession):
		respondError(w, http.StatusUnauthorized, err)
	case errors.As(err, &conflictErr):
		respondError(w, http.StatusConflict, err)
	case errors.As(err, &externalErr):
		respondError(w, http.StatusBadGateway, errors.New("assistant is temporarily unavailable"))
	default:
		logger.Log.Error().Err(err).Msg("Unhandled request error")
		respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
