package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-payment-console/console"
	"github.com/jrsteele09/go-payment-console/guard"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyWorkspace stores the request's *console.Store
	ContextKeyWorkspace ContextKey = "workspace"
	// ContextKeyWorkspaceID stores the workspace cookie value
	ContextKeyWorkspaceID ContextKey = "workspace_id"
)

const (
	sessionExpiredMessage = "Session expired"
	accessDeniedMessage   = "Access denied"
)

// forbiddenPage is served when a signed-in user has no role that can see the home page.
type forbiddenPage struct {
	Error   string      `json:"error"`
	Session SessionView `json:"session"`
}

// WorkspaceMiddleware resolves the workspace cookie to a console store, creating one when
// the cookie is missing or no longer known, and keeps the cookie alive.
func (s *Server) WorkspaceMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(s.config.GetWorkspaceCookieName()); err == nil {
			id = cookie.Value
		}

		ws, err := s.workspaces.Resolve(r.Context(), id)
		if err != nil {
			log.Err(err).Msg("workspace resolve failed")
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Something went wrong!"})
			return
		}
		if ws.ID != id || ws.Created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.config.GetWorkspaceCookieName(),
				Value:    ws.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), ContextKeyWorkspace, ws.Console)
		ctx = context.WithValue(ctx, ContextKeyWorkspaceID, ws.ID)
		next(w, r.WithContext(ctx))
	}
}

func consoleFrom(r *http.Request) *console.Store {
	c, _ := r.Context().Value(ContextKeyWorkspace).(*console.Store)
	return c
}

// RequireSession lets authenticated sessions through. An elapsed session is logged out
// and sent to the login page with a "Session expired" error.
func (s *Server) RequireSession() Middleware {
	return s.requireGuards()
}

// RequireRole additionally requires at least one of roles; other signed-in users go home.
func (s *Server) RequireRole(roles ...string) Middleware {
	return s.requireGuards(guard.RequireAnyRole(roles...))
}

func (s *Server) requireGuards(guards ...guard.Guard) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			c := consoleFrom(r)
			if c == nil {
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Something went wrong!"})
				return
			}

			sess := c.Session()
			if _, err := sess.CheckExpiration(r.Context()); err != nil {
				if errors.IsKind(err, errors.KindSessionExpired) {
					s.metrics.RecordGuardDecision(guard.RedirectLogin.String())
					query := url.Values{"from": {r.URL.RequestURI()}, "error": {sessionExpiredMessage}}
					http.Redirect(w, r, RouteLogin+"?"+query.Encode(), http.StatusSeeOther)
					return
				}
				log.Warn().Err(err).Msg("session expiration check failed")
			}

			decision := guard.Evaluate(sess.State(), r.URL.RequestURI(), guards...)
			s.metrics.RecordGuardDecision(decision.Outcome.String())
			switch decision.Outcome {
			case guard.RedirectLogin:
				http.Redirect(w, r, guard.LoginURL(decision), http.StatusSeeOther)
				return
			case guard.RedirectHome:
				// Home itself denied: redirecting would loop.
				if r.URL.Path == guard.HomePath {
					writeJSON(w, http.StatusForbidden, forbiddenPage{Error: accessDeniedMessage, Session: newSessionView(sess.State())})
					return
				}
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}
			next(w, r)
		}
	}
}
