package server

import (
	"net/http"

	"github.com/jrsteele09/go-payment-console/entities"
)

const defaultPeriod = "today"

type dashboardPage struct {
	Period    string             `json:"period"`
	Dashboard entities.Dashboard `json:"dashboard"`
	Session   SessionView        `json:"session"`
	Clients   []entities.Client  `json:"clients,omitempty"`
}

// DashboardHandler serves both role trees. Admins also get the client list.
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := consoleFrom(r)
		period := r.URL.Query().Get("period")
		if period == "" {
			period = defaultPeriod
		}

		dashboard, err := c.LoadDashboard(r.Context(), period)
		if err != nil {
			writeError(w, err)
			return
		}
		page := dashboardPage{Period: period, Dashboard: dashboard, Session: newSessionView(c.Session().State())}
		if page.Session.Authenticated && c.Session().State().HasRole(entities.RoleAdmin) {
			// A failed client fetch is already toasted; the dashboard still renders.
			_, _ = c.FetchClients(r.Context())
			page.Clients = c.Clients().Items()
		}
		writeJSON(w, http.StatusOK, page)
	}
}
