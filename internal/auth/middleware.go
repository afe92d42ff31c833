package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Principal is the authenticated user attached to a request.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserID reports the principal's id; a nil principal is anonymous.
// It makes *Principal usable as a stats.Identity.
func (p *Principal) UserID() (string, bool) {
	if p == nil || p.ID == "" {
		return "", false
	}
	return p.ID, true
}

type ctxUserKey struct{}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, p)
}

// FromContext returns the principal of the request, or nil for guests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxUserKey{}).(*Principal)
	return p
}

// Middleware resolves principals from a bearer token or the auth cookie.
type Middleware struct {
	tokens     *Tokens
	users      *Users
	cookieName string
	secure     bool
}

// NewMiddleware creates the auth middleware. secure marks cookies Secure and
// SameSite=None, which production deployments behind HTTPS need.
func NewMiddleware(tokens *Tokens, users *Users, cookieName string, secure bool) *Middleware {
	if cookieName == "" {
		cookieName = "twixie_token"
	}
	return &Middleware{tokens: tokens, users: users, cookieName: cookieName, secure: secure}
}

// principal validates the request token and makes sure the user still exists.
func (m *Middleware) principal(r *http.Request) *Principal {
	tok := m.bearerOrCookie(r)
	if tok == "" {
		return nil
	}
	p, err := m.tokens.Parse(tok)
	if err != nil {
		return nil
	}
	if _, err := m.users.FindByID(r.Context(), p.ID); err != nil {
		return nil
	}
	return p
}

// Optional decorates requests with the principal when a valid token is
// present. It never rejects; guests pass through.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := m.principal(r); p != nil {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token with 401.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := m.principal(r)
		if p == nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or the
// auth cookie.
func (m *Middleware) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(m.cookieName); err == nil {
		return c.Value
	}
	return ""
}

func (m *Middleware) sameSite() http.SameSite {
	if m.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (m *Middleware) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (m *Middleware) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
		MaxAge:   -1,
	})
}

// SetAnonCookie writes a long-lived guest id cookie.
func (m *Middleware) SetAnonCookie(w http.ResponseWriter, name, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
}
