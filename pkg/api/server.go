// Package api serves run history over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EquablePanic4/codli-gci/pkg/models"
	"github.com/EquablePanic4/codli-gci/pkg/observability"
	"github.com/EquablePanic4/codli-gci/pkg/store"
)

const defaultListLimit = 50

type Server struct {
	store  store.Store
	logger *slog.Logger
	router *gin.Engine
}

func NewServer(st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{store: st, logger: logger, router: router}
	router.GET("/healthz", s.health)
	router.GET("/metrics", s.metrics)
	runs := router.Group("/runs")
	runs.GET("", s.listRuns)
	runs.GET("/:id", s.getRun)
	runs.GET("/:id/logs", s.getRunLogs)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving run history", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listRuns(c *gin.Context) {
	filter := store.RunFilter{
		Repository: c.Query("repository"),
		State:      models.RunState(c.Query("state")),
		Limit:      defaultListLimit,
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	runs, err := s.store.ListRuns(filter)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) getRun(c *gin.Context) {
	run, err := s.store.GetRun(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) getRunLogs(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.store.GetRun(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, err)
		return
	}
	logs, err := s.store.GetRunLogs(id)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if logs == nil {
		logs = []models.RunLog{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// metrics aggregates every recorded run into a fresh registry.
func (s *Server) metrics(c *gin.Context) {
	runs, err := s.store.ListRuns(store.RunFilter{})
	if err != nil {
		s.internalError(c, err)
		return
	}
	registry := observability.NewRegistry()
	for _, run := range runs {
		registry.ObserveRun(run, true)
	}
	c.JSON(http.StatusOK, registry.Snapshot())
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
