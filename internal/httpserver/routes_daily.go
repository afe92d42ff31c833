// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily challenge. The daily game itself is played
// through /game/* with mode "daily"; these endpoints report on it:
//   - GET /daily/today       → today's date and whether the caller played it
//   - GET /daily/leaderboard → top results for today (or ?date=YYYY-MM-DD)
//
// Each player can start the daily word once per UTC date: the row in
// daily_results is reserved when the game starts (unique user and date).

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jvanhorsen/Twixie/internal/daily"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/today", s.handleDailyToday)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// todayRes is returned by /daily/today.
type todayRes struct {
	Date   string        `json:"date"`
	Played bool          `json:"played"`
	Result *daily.Result `json:"result,omitempty"`
}

// handleDailyToday reports whether the caller already played today.
func (s *Server) handleDailyToday(w http.ResponseWriter, r *http.Request) {
	date := daily.Today(s.now())
	id := requestUserID(r)
	if id == "" {
		id = anonID(r)
	}
	out := todayRes{Date: date}
	if id != "" {
		res, ok, err := s.daily.Get(r.Context(), id, date)
		if err != nil {
			s.logger.Error().Err(err).Msg("daily result")
			writeError(w, http.StatusInternalServerError, "db_error", "daily lookup failed")
			return
		}
		if ok {
			out.Played, out.Result = true, &res
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.Today(s.now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	rows, err := s.daily.Leaderboard(r.Context(), date, daily.DefaultLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error", "server error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
