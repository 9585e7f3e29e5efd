package server

import (
	"net/http"

	"github.com/jrsteele09/go-payment-console/ui"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type confirmBody struct {
	Confirmed bool     `json:"confirmed"`
	UI        ui.State `json:"ui"`
}

func (s *Server) UIStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, consoleFrom(r).UI().State())
	}
}

func (s *Server) HideToastHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signals := consoleFrom(r).UI()
		signals.HideToast()
		writeJSON(w, http.StatusOK, signals.State())
	}
}

// ConfirmModalHandler runs the open modal's action, e.g. a pending account deletion.
func (s *Server) ConfirmModalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signals := consoleFrom(r).UI()
		confirmed, err := signals.ConfirmModal(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, confirmBody{Confirmed: confirmed, UI: signals.State()})
	}
}

func (s *Server) CancelModalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signals := consoleFrom(r).UI()
		signals.HideModal()
		writeJSON(w, http.StatusOK, signals.State())
	}
}

// APIDocsHandler lists the console's routes.
func (s *Server) APIDocsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"routes": s.routes})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "workspaces": s.workspaces.Len()})
	}
}

func (s *Server) MetricsHandler() http.Handler {
	if s.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

// NotFoundHandler sends unknown pages to the login page.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
