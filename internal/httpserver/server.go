// internal/httpserver/server.go
//
// HTTP server wiring for the Twixie backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): /game/new, /game/guess, /game/key,
//     /game/hint, /game/{id}, /game/{id}/clock (websocket).
//   - Daily endpoints (optional auth): /daily/today, /daily/leaderboard.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - All game rules live in internal/game; handlers only translate JSON.
//   - Live sessions are held in store.Store; finished games are written to
//     the games and daily_results tables and folded into per-player stats.

package httpserver

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jvanhorsen/Twixie/internal/auth"
	"github.com/jvanhorsen/Twixie/internal/daily"
	"github.com/jvanhorsen/Twixie/internal/game"
	"github.com/jvanhorsen/Twixie/internal/history"
	"github.com/jvanhorsen/Twixie/internal/stats"
	"github.com/jvanhorsen/Twixie/internal/store"
	"github.com/jvanhorsen/Twixie/internal/words"
)

const (
	anonCookieName = "twixie_anon"
	sweepInterval  = 10 * time.Minute
	idleTimeout    = 2 * time.Hour
)

// Options configures a Server.
type Options struct {
	Bank       *words.Bank
	DB         *sql.DB
	JWTSecret  string
	JWTTTL     time.Duration
	CookieName string
	MaxGuesses int

	// Games holds live sessions; defaults to an in-memory store.
	Games store.Store

	// Secure marks cookies Secure/SameSite=None for production.
	Secure bool

	// ClientOrigin is the allowed CORS and websocket origin.
	ClientOrigin string

	// Source drives hint positions; crypto/rand when nil.
	Source words.Source

	// Clock defaults to time.Now.
	Clock func() time.Time

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger

	// ReadTimeout bounds each request handler (not the clock feed).
	ReadTimeout time.Duration
}

// Server bundles router, live game store, and DB-backed repositories.
type Server struct {
	r       *chi.Mux
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
	games   store.Store
	users   *auth.Users
	tokens  *auth.Tokens
	authmw  *auth.Middleware
	history *history.Store
	daily   *daily.Store
	stats   *stats.SQLStore
	players *players
	ws      websocket.Upgrader

	http     *http.Server
	stopOnce sync.Once
	stop     chan struct{}
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.Games == nil {
		opts.Games = store.NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	s := &Server{
		r:       chi.NewRouter(),
		opts:    opts,
		logger:  logger,
		now:     opts.Clock,
		games:   opts.Games,
		users:   auth.NewUsers(opts.DB),
		tokens:  auth.NewTokens(opts.JWTSecret, opts.JWTTTL),
		history: history.NewStore(opts.DB),
		daily:   daily.NewStore(opts.DB),
		stats:   stats.NewSQLStore(opts.DB),
		stop:    make(chan struct{}),
	}
	s.authmw = auth.NewMiddleware(s.tokens, s.users, opts.CookieName, opts.Secure)
	s.players = newPlayers(s.stats, logger)
	s.ws = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == opts.ClientOrigin
		},
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(s.requestLogger) // zerolog access log
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	// The clock feed is long-lived: no handler timeout, no JSON header.
	s.r.With(s.authmw.Optional).Get("/game/{id}/clock", s.handleClock)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(opts.ReadTimeout)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service": "twixie",
				"endpoints": []string{
					"/health", "POST /game/new", "POST /game/guess", "POST /game/key",
					"POST /game/hint", "GET /game/{id}", "GET /game/{id}/clock",
					"/daily/*", "/auth/*", "/stats/me", "/games/mine",
				},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})

		// Game endpoints: OPTIONAL AUTH (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.authmw.Optional)
			s.mountGame(r)
			s.mountDaily(r)
		})

		// Auth + profile/stats
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router (tests, custom listeners).
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router.
func (s *Server) Router() chi.Router { return s.r }

// Start begins serving HTTP on addr and sweeps idle sessions in the
// background. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.sweepLoop()
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones, and drains
// pending stats writes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	done := make(chan struct{})
	go func() {
		s.players.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Wait blocks until detached stats writes have finished.
func (s *Server) Wait() { s.players.Wait() }

func (s *Server) sweepLoop() {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if n := s.games.Sweep(s.now().Add(-idleTimeout)); n > 0 {
				s.logger.Debug().Int("count", n).Msg("swept idle games")
			}
		}
	}
}

// newSession builds a game session wired to the player's stats.
func (s *Server) newSession(rec game.StatsRecorder) *game.Session {
	opts := []game.Option{
		game.WithClock(s.now),
		game.WithRecorder(rec),
		game.WithLogger(s.logger),
	}
	if s.opts.MaxGuesses > 0 {
		opts = append(opts, game.WithMaxGuesses(s.opts.MaxGuesses))
	}
	if s.opts.Source != nil {
		opts = append(opts, game.WithSource(s.opts.Source))
	}
	return game.NewSession(s.opts.Bank, opts...)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one debug line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest games with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := newID()
	s.authmw.SetAnonCookie(w, anonCookieName, id)
	return id
}

// anonID returns the anon cookie without setting one.
func anonID(r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil {
		return c.Value
	}
	return ""
}

// owner resolves who is playing: the signed-in user, or the guest cookie.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (id string, authenticated bool) {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID, true
	}
	return s.ensureAnonID(w, r), false
}

// errStop is returned from store callbacks after a response was written.
var errStop = errors.New("response written")
