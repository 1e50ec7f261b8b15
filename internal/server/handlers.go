package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/crimson-sun/splinter/internal/incident"
	"github.com/crimson-sun/splinter/internal/model"
)

const commentTimeout = 30 * time.Second

// webhookRequest is what CI systems post after a run.
type webhookRequest struct {
	Repo     string `json:"repo"`
	RunID    string `json:"run_id"`
	PRNumber int    `json:"pr_number"`
	Status   string `json:"status"` // CI conclusion, e.g. failure, success
	Log      string `json:"log"`
}

// analyzeRequest is the manual analysis API payload.
type analyzeRequest struct {
	RunID string `json:"run_id"`
	Log   string `json:"log"`
}

// handleWebhook is the CI entry point. It must never fail the pipeline:
// every well-formed HTTP request gets a 200, malformed payloads are
// acknowledged as ignored and analysis errors reported in the body.
func (s *Server) handleWebhook(c echo.Context) error {
	var req webhookRequest
	if err := c.Bind(&req); err != nil {
		s.log.Warn().Err(err).Msg("webhook: unreadable payload")
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored", "reason": "invalid json"})
	}
	if req.Log == "" {
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored", "reason": "no log"})
	}
	if !failed(req.Status) {
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored", "reason": "run did not fail"})
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	ctx := c.Request().Context()
	result, err := s.analyzer.Analyze(ctx, req.RunID, req.Log)
	if err != nil {
		s.log.Error().Err(err).Str("run", req.RunID).Msg("webhook: analysis failed")
		return c.JSON(http.StatusOK, echo.Map{"status": "analysis_failed", "error": err.Error()})
	}

	if result.Outcome == model.OutcomeCleanLog {
		return c.JSON(http.StatusOK, echo.Map{
			"status": "analysis_completed",
			"result": result,
		})
	}

	explanation := s.explain(ctx, result)
	inc := s.incidents.Record(ctx, req.Repo, explanation, result)

	if s.notifier != nil && req.PRNumber > 0 {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), commentTimeout)
			defer cancel()
			s.notifier.CommentPR(ctx, req.Repo, req.PRNumber, explanation, result)
		}()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":      "analysis_completed",
		"incident_id": inc.ID,
		"explanation": explanation,
		"result":      result,
	})
}

// handleAnalyze is the manual API. Unlike the webhook it reports client
// errors as such.
func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json payload")
	}
	if req.Log == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "log is required")
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	ctx := c.Request().Context()
	result, err := s.analyzer.Analyze(ctx, req.RunID, req.Log)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if result.Outcome == model.OutcomeCleanLog {
		return c.JSON(http.StatusOK, echo.Map{"result": result})
	}

	explanation := s.explain(ctx, result)
	inc := s.incidents.Record(ctx, "", explanation, result)

	return c.JSON(http.StatusOK, echo.Map{
		"incident_id": inc.ID,
		"explanation": explanation,
		"result":      result,
	})
}

func (s *Server) handleListIncidents(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	incidents := s.incidents.List(c.Request().Context(), limit)
	return c.JSON(http.StatusOK, echo.Map{
		"count":     len(incidents),
		"incidents": incidents,
	})
}

func (s *Server) handleGetIncident(c echo.Context) error {
	inc, err := s.incidents.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, incident.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "incident not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, inc)
}

func (s *Server) handleListClusters(c echo.Context) error {
	clusters, err := s.clusters.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"count":    len(clusters),
		"clusters": clusters,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "splinter"})
}

// failed reports whether a CI status string names a failed run. An empty
// status is treated as failed so minimal payloads still get analyzed.
func failed(status string) bool {
	switch status {
	case "", "failure", "failed", "error":
		return true
	default:
		return false
	}
}
