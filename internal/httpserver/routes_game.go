// internal/httpserver/routes_game.go
//
// Game endpoints. Each request locks one live session in the store, runs a
// single core operation on it, and answers with the outcome. Finished games
// are recorded in the games table (and daily_results for daily mode).

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/jvanhorsen/Twixie/internal/daily"
	"github.com/jvanhorsen/Twixie/internal/game"
	"github.com/jvanhorsen/Twixie/internal/history"
	"github.com/jvanhorsen/Twixie/internal/store"
	"github.com/jvanhorsen/Twixie/internal/words"
)

// mountGame registers the /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Post("/game/guess", s.handleGuess)
	r.Post("/game/key", s.handleKey)
	r.Post("/game/hint", s.handleHint)
	r.Get("/game/{id}", s.handleGetGame)
}

// ------------------------------ /game/new ----------------------------------

type newGameReq struct {
	Mode       string `json:"mode"`       // "daily" | "endless" (default)
	Difficulty string `json:"difficulty"` // endless only; default medium
}

type newGameRes struct {
	GameID         string           `json:"gameId"`
	Mode           game.Mode        `json:"mode"`
	Phase          game.Phase       `json:"phase"`
	Difficulty     words.Difficulty `json:"difficulty"`
	SegmentLength  int              `json:"segmentLength"`
	WordLength     int              `json:"wordLength"`
	HintsRemaining int              `json:"hintsRemaining"`
	MaxGuesses     int              `json:"maxGuesses"`
	Date           string           `json:"date,omitempty"`
}

// handleNewGame starts a session for the caller and stores it.
// Daily mode can be started once per player and date.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	mode := game.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = game.ModeEndless
	}
	if mode != game.ModeDaily && mode != game.ModeEndless {
		writeError(w, http.StatusBadRequest, "invalid_mode", "mode must be daily or endless")
		return
	}
	diff := words.Medium
	if req.Difficulty != "" {
		d, err := words.ParseDifficulty(req.Difficulty)
		if err != nil {
			writeGameError(w, err)
			return
		}
		diff = d
	}

	ownerID, authed := s.owner(w, r)
	rec, err := s.players.get(r.Context(), ownerID, authed)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats of this game will not be saved")
	}
	sess := s.newSession(rec)
	if err := sess.Start(mode, diff); err != nil {
		writeGameError(w, err)
		return
	}
	st, _ := sess.State()

	// The date is reserved as the game starts, so opening a second daily
	// game (for fresh hints or guesses) is refused even while the first is
	// still open.
	var date string
	if mode == game.ModeDaily {
		date = daily.Today(st.StartTime)
		ok, err := s.daily.Reserve(r.Context(), ownerID, date, st.TargetWord)
		if err != nil {
			s.logger.Error().Err(err).Msg("reserve daily")
			writeError(w, http.StatusInternalServerError, "db_error", "daily lookup failed")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "already_played", "daily challenge already played")
			return
		}
	}

	g := &store.Game{ID: newID(), OwnerID: ownerID, Authenticated: authed, Session: sess}
	if err := s.games.Save(r.Context(), g); err != nil {
		s.logger.Error().Err(err).Msg("save game")
		if date != "" {
			if err := s.daily.Release(r.Context(), ownerID, date); err != nil {
				s.logger.Warn().Err(err).Msg("release daily")
			}
		}
		writeError(w, http.StatusInternalServerError, "save_failed", "could not save game")
		return
	}
	if err := s.history.Start(r.Context(), g.ID, ownerOf(g), string(st.Mode), string(st.Difficulty), st.StartTime); err != nil {
		s.logger.Warn().Err(err).Str("gameId", g.ID).Msg("insert game row")
	}

	writeJSON(w, http.StatusOK, newGameRes{
		GameID:         g.ID,
		Mode:           st.Mode,
		Phase:          st.Phase,
		Difficulty:     st.Difficulty,
		SegmentLength:  utf8.RuneCountInString(st.FirstSegment),
		WordLength:     utf8.RuneCountInString(st.TargetWord),
		HintsRemaining: st.HintsRemaining,
		MaxGuesses:     sess.MaxGuesses(),
		Date:           date,
	})
}

// ----------------------------- /game/guess ---------------------------------

type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}

type guessRes struct {
	game.GuessResult
	GuessesLeft int    `json:"guessesLeft"`
	Answer      string `json:"answer,omitempty"` // revealed once the game is over
	Share       string `json:"share,omitempty"`
}

// handleGuess applies a guess to a live session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if !decode(w, r, &req) {
		return
	}
	var out guessRes
	err := s.withGame(w, r, req.GameID, func(g *store.Game) error {
		res, err := g.Session.MakeGuess(req.Guess)
		if err != nil {
			return err
		}
		out = s.afterGuess(r.Context(), g, res)
		return nil
	})
	if err != nil {
		if !errors.Is(err, errStop) {
			writeGameError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// afterGuess persists progress (or the final outcome) and builds the reply.
// Called with the game locked.
func (s *Server) afterGuess(ctx context.Context, g *store.Game, res game.GuessResult) guessRes {
	st, _ := g.Session.State()
	out := guessRes{GuessResult: res, GuessesLeft: g.Session.MaxGuesses() - len(st.Guesses)}
	if !st.Status.Terminal() {
		if err := s.history.Progress(ctx, g.ID, len(st.Guesses), st.HintsUsed()); err != nil {
			s.logger.Warn().Err(err).Str("gameId", g.ID).Msg("update game row")
		}
		return out
	}
	out.Answer = st.TargetWord
	out.Share = game.ShareText(st, true)
	s.finishGame(ctx, g, st)
	return out
}

// finishGame writes the outcome of a finished game. Failures are logged;
// the player already has the result.
func (s *Server) finishGame(ctx context.Context, g *store.Game, st game.State) {
	if err := s.history.Finish(ctx, g.ID, string(st.Status), len(st.Guesses), st.HintsUsed(), st.Score, st.EndTime); err != nil {
		s.logger.Warn().Err(err).Str("gameId", g.ID).Msg("finish game row")
	}
	if st.Mode != game.ModeDaily {
		return
	}
	res := daily.Result{
		UserID:    g.OwnerID,
		Date:      daily.Today(st.StartTime),
		Word:      st.TargetWord,
		Finished:  true,
		Completed: st.Status == game.Won,
		Score:     st.Score,
		Attempts:  len(st.Guesses),
		ElapsedMs: st.Elapsed(st.EndTime).Milliseconds(),
		HintsUsed: st.HintsUsed(),
	}
	if err := s.daily.Finish(ctx, res); err != nil {
		s.logger.Warn().Err(err).Str("gameId", g.ID).Msg("finish daily result")
	}
}

// ------------------------------ /game/key ----------------------------------

type keyReq struct {
	GameID string `json:"gameId"`
	Key    string `json:"key"` // a letter, "BACKSPACE" or "ENTER"
}

type keyRes struct {
	CurrentGuess string    `json:"currentGuess"`
	Result       *guessRes `json:"result,omitempty"` // set when ENTER submitted a guess
}

// handleKey edits the input buffer, or submits it on ENTER.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyReq
	if !decode(w, r, &req) {
		return
	}
	var out keyRes
	err := s.withGame(w, r, req.GameID, func(g *store.Game) error {
		switch key := strings.TrimSpace(req.Key); {
		case strings.EqualFold(key, "ENTER"):
			res, err := g.Session.Submit()
			if err != nil {
				return err
			}
			gr := s.afterGuess(r.Context(), g, res)
			out.Result = &gr
		case strings.EqualFold(key, "BACKSPACE"):
			if err := g.Session.Backspace(); err != nil {
				return err
			}
		case utf8.RuneCountInString(key) == 1:
			rn, _ := utf8.DecodeRuneInString(key)
			if err := g.Session.AppendLetter(rn); err != nil {
				return err
			}
		default:
			writeError(w, http.StatusBadRequest, "invalid_key", "key must be a letter, BACKSPACE or ENTER")
			return errStop
		}
		st, _ := g.Session.State()
		out.CurrentGuess = st.CurrentGuess
		return nil
	})
	if err != nil {
		if !errors.Is(err, errStop) {
			writeGameError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------ /game/hint ---------------------------------

type hintReq struct {
	GameID string        `json:"gameId"`
	Type   game.HintType `json:"type"` // "letter" | "definition"
}

type hintRes struct {
	game.Hint
	HintsRemaining int `json:"hintsRemaining"`
}

// handleHint spends one hint.
func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req hintReq
	if !decode(w, r, &req) {
		return
	}
	var out hintRes
	err := s.withGame(w, r, req.GameID, func(g *store.Game) error {
		h, ok := g.Session.UseHint(req.Type)
		if !ok {
			writeError(w, http.StatusConflict, "no_hint", "no hint available")
			return errStop
		}
		st, _ := g.Session.State()
		out = hintRes{Hint: h, HintsRemaining: st.HintsRemaining}
		if err := s.history.Progress(r.Context(), g.ID, len(st.Guesses), st.HintsUsed()); err != nil {
			s.logger.Warn().Err(err).Str("gameId", g.ID).Msg("update game row")
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errStop) {
			writeGameError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------ GET /game/{id} -----------------------------

// gameView is the client-facing state. The answer and the second segment
// stay hidden until the game is over.
type gameView struct {
	GameID         string                       `json:"gameId"`
	Mode           game.Mode                    `json:"mode"`
	Phase          game.Phase                   `json:"phase"`
	Status         game.Status                  `json:"status"`
	Difficulty     words.Difficulty             `json:"difficulty"`
	SegmentLength  int                          `json:"segmentLength"`
	WordLength     int                          `json:"wordLength"`
	FirstSegment   string                       `json:"firstSegment,omitempty"`
	TargetWord     string                       `json:"targetWord,omitempty"`
	Guesses        []string                     `json:"guesses"`
	Evaluations    []game.Evaluation            `json:"evaluations"`
	CurrentGuess   string                       `json:"currentGuess"`
	HintsRemaining int                          `json:"hintsRemaining"`
	MaxGuesses     int                          `json:"maxGuesses"`
	ElapsedMs      int64                        `json:"elapsedMs"`
	Score          int                          `json:"score"`
	Board          [][]game.Tile                `json:"board"`
	Keyboard       map[string]game.LetterStatus `json:"keyboard"`
	Share          string                       `json:"share,omitempty"`
}

func viewOf(id string, sess *game.Session, now time.Time) gameView {
	st, _ := sess.State()
	v := gameView{
		GameID:         id,
		Mode:           st.Mode,
		Phase:          st.Phase,
		Status:         st.Status,
		Difficulty:     st.Difficulty,
		SegmentLength:  utf8.RuneCountInString(st.FirstSegment),
		WordLength:     utf8.RuneCountInString(st.TargetWord),
		Guesses:        st.Guesses,
		Evaluations:    st.Evaluations,
		CurrentGuess:   st.CurrentGuess,
		HintsRemaining: st.HintsRemaining,
		MaxGuesses:     sess.MaxGuesses(),
		ElapsedMs:      st.Elapsed(now).Milliseconds(),
		Score:          st.Score,
		Board:          game.Board(st, sess.MaxGuesses()),
		Keyboard:       game.KeyboardLetters(st),
	}
	if st.Phase == game.PhaseFullWord || st.Status.Terminal() {
		v.FirstSegment = st.FirstSegment
	}
	if st.Status.Terminal() {
		v.TargetWord = st.TargetWord
		v.Share = game.ShareText(st, true)
	}
	return v
}

// handleGetGame returns the state view of a game.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var v gameView
	err := s.viewGame(w, r, id, func(g *store.Game) error {
		v = viewOf(g.ID, g.Session, s.now())
		return nil
	})
	if err != nil {
		if !errors.Is(err, errStop) {
			writeGameError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ------------------------------- helpers -----------------------------------

// ownerOf is the games-table owner of a live game.
func ownerOf(g *store.Game) history.Owner {
	if g.Authenticated {
		return history.Owner{UserID: g.OwnerID}
	}
	return history.Owner{AnonID: g.OwnerID}
}

// canAccess reports whether the request may touch g: its owner, or the
// guest who started it and signed in since.
func canAccess(g *store.Game, r *http.Request, userID string) bool {
	if g.Authenticated {
		return g.OwnerID == userID
	}
	return g.OwnerID == anonID(r)
}

// withGame locks the game for an update after checking ownership.
// Unknown ids and games of other players both answer 404.
func (s *Server) withGame(w http.ResponseWriter, r *http.Request, id string, fn func(g *store.Game) error) error {
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_game_id", "gameId is required")
		return errStop
	}
	userID := requestUserID(r)
	return s.games.Update(r.Context(), id, func(g *store.Game) error {
		if !canAccess(g, r, userID) {
			return store.ErrNotFound
		}
		return fn(g)
	})
}

// viewGame is withGame for read-only access.
func (s *Server) viewGame(w http.ResponseWriter, r *http.Request, id string, fn func(g *store.Game) error) error {
	userID := requestUserID(r)
	return s.games.View(r.Context(), id, func(g *store.Game) error {
		if !canAccess(g, r, userID) {
			return store.ErrNotFound
		}
		return fn(g)
	})
}
