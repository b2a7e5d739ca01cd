package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/nuage/internal/apperr"
	"github.com/starford/nuage/internal/record"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError renders err as the notice for action. Only server-side failures
// are logged; the body never carries technical detail.
func writeError(w http.ResponseWriter, action apperr.Action, err error) {
	status := http.StatusInternalServerError
	msg := apperr.NoticeFor(action, err).Message

	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	default:
		switch apperr.KindOf(err) {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindDecode:
			status, msg = http.StatusUnprocessableEntity, record.ErrInvalidDrawing.Error()
		case apperr.KindStorageUnavailable:
			status = http.StatusServiceUnavailable
		}
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("action", string(action)), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errorBody(msg))
}
