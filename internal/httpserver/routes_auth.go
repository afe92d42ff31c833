// internal/httpserver/routes_auth.go
//
// Account endpoints (signup, login, logout, me) and the gated profile
// endpoints (/stats/me, /games/mine).

package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jvanhorsen/Twixie/internal/auth"
	"github.com/jvanhorsen/Twixie/internal/stats"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userRes struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// statsRes is Stats plus the derived numbers the profile page shows.
type statsRes struct {
	ID            string `json:"id"`
	Streak        int    `json:"streak"`
	BestStreak    int    `json:"bestStreak"`
	GamesPlayed   int    `json:"gamesPlayed"`
	Wins          int    `json:"wins"`
	TotalScore    int    `json:"totalScore"`
	TotalTimeMs   int64  `json:"totalTimeMs"`
	WinPercentage int    `json:"winPercentage"`
	AverageTimeMs int64  `json:"averageTimeMs"`
}

func statsView(id string, st stats.Stats) statsRes {
	return statsRes{
		ID:            id,
		Streak:        st.Streak,
		BestStreak:    st.BestStreak,
		GamesPlayed:   st.GamesPlayed,
		Wins:          st.Wins,
		TotalScore:    st.TotalScore,
		TotalTimeMs:   st.TotalTime.Milliseconds(),
		WinPercentage: st.WinPercentage(),
		AverageTimeMs: st.AverageTime().Milliseconds(),
	}
}

// requestUserID is the signed-in user of r, or "".
func requestUserID(r *http.Request) string {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID
	}
	return ""
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authmw.Require)
		r.Get("/auth/me", s.handleMe)
		r.Get("/stats/me", s.handleStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

// handleSignup creates a new user, signs a JWT, sets the auth cookie, and
// claims the caller's anonymous history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if !decode(w, r, &body) {
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username_taken", "Username taken")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_signup", err.Error())
		return
	}
	if !s.signIn(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, userRes{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt.Format(time.RFC3339)})
}

// handleLogin authenticates the user, sets the cookie, and claims history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if !decode(w, r, &body) {
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "db_error", "login failed")
		return
	}
	if !s.signIn(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, userRes{ID: u.ID, Username: u.Username})
}

// signIn issues the token cookie and moves guest games to the account.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tok, exp, err := s.tokens.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed", "could not sign token")
		return false
	}
	s.authmw.SetCookie(w, tok, exp)
	if n, err := s.history.ClaimAnon(r.Context(), anonID(r), u.ID); err != nil {
		s.logger.Warn().Err(err).Msg("claim anon games")
	} else if n > 0 {
		s.logger.Debug().Int64("count", n).Str("user", u.ID).Msg("claimed anon games")
	}
	return true
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.authmw.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, userRes{ID: me.ID, Username: me.Username})
}

// handleStats answers from the player's aggregator, which is seeded from the
// users table and ahead of it while writes are in flight.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	agg, err := s.players.get(r.Context(), me.ID, true)
	if err != nil {
		s.logger.Error().Err(err).Msg("load stats")
		writeError(w, http.StatusServiceUnavailable, "stats_unavailable", "stats are unavailable, try again")
		return
	}
	writeJSON(w, http.StatusOK, statsView(me.ID, agg.Stats()))
}

// handleMyGames lists the caller's recent games.
func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	rows, err := s.history.Mine(r.Context(), me.ID, 0)
	if err != nil {
		s.logger.Error().Err(err).Msg("list games")
		writeError(w, http.StatusInternalServerError, "db_error", "could not list games")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
