// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/crimson-sun/splinter/internal/capability/generation"
	"github.com/crimson-sun/splinter/internal/cluster"
	"github.com/crimson-sun/splinter/internal/engine"
	"github.com/crimson-sun/splinter/internal/incident"
	"github.com/crimson-sun/splinter/internal/notify"
)

// Server holds the Echo app and its dependencies.
type Server struct {
	Echo      *echo.Echo
	addr      string
	analyzer  *engine.Analyzer
	incidents *incident.Store
	clusters  cluster.Index
	generator generation.Generator
	notifier  *notify.GitHub
	log       zerolog.Logger
}

// Deps bundles the collaborators the server needs. Generator and Notifier
// are optional; without them explanations degrade and PR comments are
// skipped.
type Deps struct {
	Analyzer  *engine.Analyzer
	Incidents *incident.Store
	Clusters  cluster.Index
	Generator generation.Generator
	Notifier  *notify.GitHub
}

// New builds the Echo server and registers routes.
func New(addr string, deps Deps, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover(), middleware.RequestID())

	s := &Server{
		Echo:      e,
		addr:      addr,
		analyzer:  deps.Analyzer,
		incidents: deps.Incidents,
		clusters:  deps.Clusters,
		generator: deps.Generator,
		notifier:  deps.Notifier,
		log:       log,
	}

	e.POST("/webhook/ci", s.handleWebhook)
	e.POST("/analyze", s.handleAnalyze)
	e.GET("/incidents", s.handleListIncidents)
	e.GET("/incidents/:id", s.handleGetIncident)
	e.GET("/clusters", s.handleListClusters)
	e.GET("/healthz", s.handleHealth)

	return s
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Echo.Shutdown(context.Background())
	}()
	return s.Echo.Start(s.addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
