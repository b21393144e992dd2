// Package server assembles the HTTP surface: routing, authentication,
// CORS, rate limiting and request logging.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/ledgerlens/internal/domain/auth"
	"github.com/FACorreiaa/ledgerlens/internal/domain/category"
	"github.com/FACorreiaa/ledgerlens/internal/domain/statement"
	"github.com/FACorreiaa/ledgerlens/internal/domain/tag"
	"github.com/FACorreiaa/ledgerlens/internal/ingest"
	"github.com/FACorreiaa/ledgerlens/pkg/config"
)

// Handlers collects every route group the server mounts.
type Handlers struct {
	Auth      *auth.Handler
	Category  *category.Handler
	Tag       *tag.Handler
	Statement *statement.Handler
	Ingest    *ingest.Handler
}

// Server wraps echo with the application's middleware stack.
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	logger   *slog.Logger
	handlers Handlers
	tokens   *auth.TokenManager
	sessions *auth.Sessions
}

// New builds the server; Start wires middleware and routes.
func New(cfg *config.Config, logger *slog.Logger, handlers Handlers, tokens *auth.TokenManager, sessions *auth.Sessions) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	return &Server{
		echo:     e,
		cfg:      cfg,
		logger:   logger,
		handlers: handlers,
		tokens:   tokens,
		sessions: sessions,
	}
}

// Start begins serving. Blocks until Shutdown or a listener error.
func (s *Server) Start() error {
	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info("starting http server", slog.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.RequestID())
	s.echo.Use(s.requestLogger())
	s.echo.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler))
	s.echo.Use(s.rateLimiter())
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	v1 := s.echo.Group("/v1")
	s.handlers.Auth.Register(v1.Group("/auth"))

	authed := v1.Group("", auth.Middleware(s.tokens, s.sessions))
	s.handlers.Category.Register(authed.Group("/categories"))
	s.handlers.Tag.Register(authed.Group("/tags"))
	s.handlers.Statement.Register(authed.Group("/statements"))
	s.handlers.Ingest.Register(authed.Group("/ingest"))
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			s.logger.Info("request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", c.Response().Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	}
}

// rateLimiter applies a global token bucket. Uploads are heavyweight, so the
// cap protects the OCR pipeline more than the web tier.
func (s *Server) rateLimiter() echo.MiddlewareFunc {
	limiter := rate.NewLimiter(
		rate.Limit(s.cfg.Server.RateLimitPerSecond),
		s.cfg.Server.RateLimitBurst,
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.Allow() {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
