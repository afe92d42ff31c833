package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jvanhorsen/Twixie/internal/game"
	"github.com/jvanhorsen/Twixie/internal/store"
)

const (
	clockPeriod    = time.Second
	clockWriteWait = 10 * time.Second
	clockReadLimit = 512
)

// clockTick is pushed to the display once per second.
type clockTick struct {
	ElapsedMs int64       `json:"elapsedMs"`
	Status    game.Status `json:"status"`
}

// handleClock streams the elapsed time of a game over a websocket until the
// game ends or the client goes away. It only reads the session.
func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.tick(r, id); err != nil {
		writeGameError(w, err)
		return
	}

	conn, err := s.ws.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Drain client frames so close and pong messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(clockReadLimit)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug().Err(err).Msg("websocket read error")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(clockPeriod)
	defer ticker.Stop()
	for {
		t, err := s.tick(r, id)
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "game gone"),
				time.Now().Add(clockWriteWait))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(clockWriteWait))
		if err := conn.WriteJSON(t); err != nil {
			return
		}
		if t.Status.Terminal() {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(t.Status)),
				time.Now().Add(clockWriteWait))
			return
		}
		select {
		case <-done:
			return
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// tick reads the current clock value of a game.
func (s *Server) tick(r *http.Request, id string) (clockTick, error) {
	var t clockTick
	userID := requestUserID(r)
	err := s.games.View(r.Context(), id, func(g *store.Game) error {
		if !canAccess(g, r, userID) {
			return store.ErrNotFound
		}
		st, _ := g.Session.State()
		t = clockTick{ElapsedMs: st.Elapsed(s.now()).Milliseconds(), Status: st.Status}
		return nil
	})
	return t, err
}
