// Package http exposes the chat-bot fallback and action-group handlers over
// HTTP with gin.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nextlevelbuilder/agentbridge/internal/actiongroup"
	"github.com/nextlevelbuilder/agentbridge/internal/fallback"
)

// FallbackHandler answers Lex fallback events.
type FallbackHandler interface {
	Handle(ctx context.Context, ev fallback.Event) fallback.Response
}

// ActionDispatcher answers action-group invocations.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, ev *actiongroup.Event) actiongroup.Response
}

// Deps wires a Server. Nil handlers leave their routes unregistered.
type Deps struct {
	Fallback    FallbackHandler
	Actions     ActionDispatcher
	Token       func() string // nil or "" = no auth
	Limiter     *RateLimiter  // nil = unlimited
	CORSOrigins []string
	Version     string
	Logger      *slog.Logger
}

// Server is the agentbridge HTTP surface.
type Server struct {
	engine *gin.Engine
	deps   Deps
	logger *slog.Logger
}

// NewServer builds the gin engine and registers routes.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Token == nil {
		deps.Token = func() string { return "" }
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(deps.Logger))
	if len(deps.CORSOrigins) > 0 {
		engine.Use(cors.New(corsConfig(deps.CORSOrigins)))
	}

	s := &Server{engine: engine, deps: deps, logger: deps.Logger}
	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cfg
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/v1", requireToken(s.deps.Token))
	if s.deps.Limiter != nil {
		v1.Use(s.deps.Limiter.middleware())
	}
	if s.deps.Fallback != nil {
		v1.POST("/lex/fallback", s.handleFallback)
	}
	if s.deps.Actions != nil {
		v1.POST("/actions/invoke", s.handleActionInvoke)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.deps.Version})
}

func (s *Server) handleFallback(c *gin.Context) {
	var ev fallback.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	c.JSON(http.StatusOK, s.deps.Fallback.Handle(c.Request.Context(), ev))
}

func (s *Server) handleActionInvoke(c *gin.Context) {
	var ev actiongroup.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	c.JSON(http.StatusOK, s.deps.Actions.Dispatch(c.Request.Context(), &ev))
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP(),
		)
	}
}
