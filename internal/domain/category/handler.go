package category

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/FACorreiaa/ledgerlens/internal/domain/auth"
)

// Handler exposes category CRUD endpoints
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new category handler
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the category routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

type categoryRequest struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Color    string   `json:"color"`
}

func (h *Handler) create(c echo.Context) error {
	userID, _ := auth.UserID(c)

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	created, err := h.service.Create(c.Request().Context(), userID, req.Title, req.Keywords, req.Color)
	if errors.Is(err, ErrInvalidTitle) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if errors.Is(err, ErrDuplicateTitle) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "a category with this title already exists"})
	}
	if err != nil {
		h.logger.Error("failed to create category", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create category"})
	}

	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) list(c echo.Context) error {
	userID, _ := auth.UserID(c)

	categories, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list categories", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list categories"})
	}
	if categories == nil {
		categories = []Category{}
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *Handler) get(c echo.Context) error {
	userID, _ := auth.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid category id"})
	}

	cat, err := h.service.Get(c.Request().Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "category not found"})
	}
	if err != nil {
		h.logger.Error("failed to get category", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get category"})
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *Handler) update(c echo.Context) error {
	userID, _ := auth.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid category id"})
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	updated, err := h.service.Update(c.Request().Context(), userID, id, req.Title, req.Keywords, req.Color)
	switch {
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "category not found"})
	case errors.Is(err, ErrInvalidTitle):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrDuplicateTitle):
		return c.JSON(http.StatusConflict, map[string]string{"error": "a category with this title already exists"})
	case err != nil:
		h.logger.Error("failed to update category", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update category"})
	}

	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) delete(c echo.Context) error {
	userID, _ := auth.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid category id"})
	}

	if err := h.service.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "category not found"})
		}
		h.logger.Error("failed to delete category", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete category"})
	}
	return c.NoContent(http.StatusNoContent)
}
