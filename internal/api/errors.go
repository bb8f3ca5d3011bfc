package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/talgya/nation-sim/internal/engine"
	"github.com/talgya/nation-sim/internal/store"
)

// Error codes returned in the "code" field of error responses.
const (
	ErrBadRequest      = "E_BAD_REQUEST"
	ErrGameNotFound    = "E_GAME_NOT_FOUND"
	ErrGameFinished    = "E_GAME_FINISHED"
	ErrRateLimit       = "E_RATE_LIMIT"
	ErrUnauthorized    = "E_UNAUTHORIZED"
	ErrForbidden       = "E_FORBIDDEN"
	ErrJournalDisabled = "E_JOURNAL_DISABLED"
	ErrInternal        = "E_INTERNAL"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSONStatus(w, status, errorBody{Code: code, Message: msg})
}

// writeFailure maps a domain error onto a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrGameNotFound, "game not found")
	case errors.Is(err, engine.ErrInvalidTurn):
		writeError(w, http.StatusBadRequest, ErrGameFinished, "game is already finished")
	case errors.Is(err, engine.ErrInvalidConfig), errors.Is(err, engine.ErrInvalidPolicy):
		writeError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrInternal, "internal error")
	}
}
