package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/jvanhorsen/Twixie/internal/game"
	"github.com/jvanhorsen/Twixie/internal/store"
	"github.com/jvanhorsen/Twixie/internal/words"
)

// errorRes is the body of every non-2xx JSON response.
type errorRes struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorRes{Error: msg, Code: code})
}

// writeGameError maps core errors to HTTP statuses and stable codes.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidLength):
		writeError(w, http.StatusBadRequest, "invalid_length", err.Error())
	case errors.Is(err, game.ErrInvalidWord):
		writeError(w, http.StatusBadRequest, "invalid_word", err.Error())
	case errors.Is(err, game.ErrGameOver):
		writeError(w, http.StatusBadRequest, "game_over", err.Error())
	case errors.Is(err, game.ErrGameNotStarted):
		writeError(w, http.StatusConflict, "not_started", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, words.ErrUnknownDifficulty):
		writeError(w, http.StatusBadRequest, "invalid_difficulty", err.Error())
	case errors.Is(err, words.ErrNoWordsAvailable):
		writeError(w, http.StatusServiceUnavailable, "no_words", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// decode reads a JSON body, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

// newID returns a random UUID string for games and guests.
func newID() string { return uuid.NewString() }
