package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the auth HTTP endpoints
type Handler struct {
	service  *Service
	sessions *Sessions
	logger   *slog.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *Service, sessions *Sessions, logger *slog.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, logger: logger}
}

// Register mounts the auth routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func (h *Handler) register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, token, err := h.service.Register(c.Request().Context(), req.Email, req.Username, req.Password)
	if errors.Is(err, ErrUserAlreadyExists) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
	}
	if errors.Is(err, ErrWeakPassword) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err != nil {
		h.logger.Error("registration failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to register"})
	}

	if err := h.sessions.Issue(c, user.ID); err != nil {
		h.logger.Warn("failed to set session cookie", slog.Any("error", err))
	}
	return c.JSON(http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *Handler) login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	user, token, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}
	if err != nil {
		h.logger.Error("login failed", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
	}

	if err := h.sessions.Issue(c, user.ID); err != nil {
		h.logger.Warn("failed to set session cookie", slog.Any("error", err))
	}
	return c.JSON(http.StatusOK, authResponse{User: user, Token: token})
}

func (h *Handler) logout(c echo.Context) error {
	if err := h.sessions.Clear(c); err != nil {
		h.logger.Warn("failed to clear session cookie", slog.Any("error", err))
	}
	return c.NoContent(http.StatusNoContent)
}
