package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/console"
	"github.com/jrsteele09/go-payment-console/internal/config"
	"github.com/jrsteele09/go-payment-console/metrics"
	"github.com/jrsteele09/go-payment-console/server/workspace"
	"github.com/jrsteele09/go-payment-console/session"
	"github.com/jrsteele09/go-payment-console/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators the server does not own.
type Dependencies struct {
	Storage  storage.Store
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// HTTPClient overrides the transport used for backend calls, e.g. in tests.
	HTTPClient *http.Client
}

type Server struct {
	env        string
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	storage    storage.Store
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	httpClient *http.Client
	workspaces workspace.Repo
}

func New(cfg config.Config, deps Dependencies) (*Server, error) {
	if deps.Storage == nil {
		return nil, fmt.Errorf("[Server New] storage is required")
	}
	s := &Server{
		env:        cfg.GetEnv(),
		mux:        http.NewServeMux(),
		config:     cfg,
		storage:    deps.Storage,
		metrics:    deps.Metrics,
		gatherer:   deps.Gatherer,
		httpClient: deps.HTTPClient,
	}
	s.workspaces = workspace.NewRegistry(s.newConsole,
		workspace.WithIdleTimeout(cfg.GetWorkspaceIdleTimeout()),
		workspace.WithMetrics(deps.Metrics),
	)

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

// Workspaces exposes the registry so the caller can run its sweeper.
func (s *Server) Workspaces() workspace.Repo {
	return s.workspaces
}

// newConsole wires one workspace: its own request client authenticated by its own session,
// persisted under a per-workspace namespace.
func (s *Server) newConsole(ctx context.Context, id string) (*console.Store, error) {
	opts := []apiclient.Option{
		apiclient.WithTimeout(s.config.GetBackendTimeout()),
		apiclient.WithMetrics(s.metrics),
	}
	if s.httpClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(s.httpClient))
	}
	api := apiclient.New(s.config.GetBackendBaseURL(), opts...)

	persist := storage.WithNamespace(s.storage, s.config.GetStorageNamespace()+":"+id)
	sess := session.New(session.NewAPIAuthenticator(api), persist,
		session.WithMetrics(s.metrics),
		session.WithLogoutTimeout(s.config.GetServerLogoutTimeout()),
	)
	api.UseTokenSource(sess)

	store, err := console.New(api, sess, console.WithMetrics(s.metrics))
	if err != nil {
		return nil, err
	}
	if _, err := sess.Rehydrate(ctx); err != nil {
		log.Warn().Err(err).Str("workspace", id).Msg("session rehydrate failed, starting signed out")
	}
	return store, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Debug().Msg(colourMethod(method) + " " + path)
	}
}
