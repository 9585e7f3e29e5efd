package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/session"
)

// SessionView is the session as a browser may see it: no tokens.
type SessionView struct {
	Authenticated bool              `json:"isAuthenticated"`
	Identity      *session.Identity `json:"identity"`
	Roles         []string          `json:"roles"`
	ExpiresIn     *int64            `json:"expiresIn"`
	Loading       bool              `json:"loading"`
	Error         string            `json:"error,omitempty"`
}

func newSessionView(st session.State) SessionView {
	return SessionView{
		Authenticated: st.Authenticated,
		Identity:      st.Identity,
		Roles:         st.Roles,
		ExpiresIn:     st.ExpiresIn,
		Loading:       st.Loading,
		Error:         st.Error,
	}
}

type loginPage struct {
	From    string      `json:"from"`
	Error   string      `json:"error,omitempty"`
	Session SessionView `json:"session"`
}

type loginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type redirectBody struct {
	Redirect string       `json:"redirect"`
	Session  *SessionView `json:"session,omitempty"`
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, RouteLogin) {
		return RouteDashboard
	}
	return from
}

// LoginPageHandler renders the login model, or sends a signed-in user on to where they were going.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := consoleFrom(r).Session().State()
		from := r.URL.Query().Get("from")
		if state.IsAuthenticated() {
			http.Redirect(w, r, safeRedirect(from), http.StatusSeeOther)
			return
		}
		page := loginPage{From: from, Error: r.URL.Query().Get("error"), Session: newSessionView(state)}
		if page.Error == "" {
			page.Error = state.Error
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// LoginSubmissionHandler accepts a JSON body or an urlencoded form.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form loginForm
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			if !decodeBody(w, r, &form) {
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "Malformed request body"})
				return
			}
			form = loginForm{Username: r.FormValue("username"), Password: r.FormValue("password"), From: r.FormValue("from")}
		}

		sess := consoleFrom(r).Session()
		state, err := sess.Login(r.Context(), session.Credentials{Username: form.Username, Password: form.Password})
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: errors.Message(err)})
			return
		}
		view := newSessionView(state)
		writeJSON(w, http.StatusOK, redirectBody{Redirect: safeRedirect(form.From), Session: &view})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		consoleFrom(r).Session().Logout(r.Context())
		writeJSON(w, http.StatusOK, redirectBody{Redirect: RouteLogin})
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := consoleFrom(r).Session().Refresh(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(state))
	}
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newSessionView(consoleFrom(r).Session().State()))
	}
}
