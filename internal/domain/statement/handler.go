package statement

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/FACorreiaa/ledgerlens/internal/domain/auth"
)

// Handler exposes statement endpoints
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new statement handler
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the statement routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/export", h.export)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	userID, _ := auth.UserID(c)

	statements, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list statements", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list statements"})
	}
	if statements == nil {
		statements = []Statement{}
	}
	return c.JSON(http.StatusOK, statements)
}

func (h *Handler) get(c echo.Context) error {
	userID, _ := auth.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid statement id"})
	}

	st, expenses, err := h.service.Get(c.Request().Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "statement not found"})
	}
	if err != nil {
		h.logger.Error("failed to get statement", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get statement"})
	}

	if expenses == nil {
		expenses = []Expense{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"statement": st,
		"expenses":  expenses,
	})
}

func (h *Handler) export(c echo.Context) error {
	userID, _ := auth.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid statement id"})
	}

	format := ExportFormat(c.QueryParam("format"))
	if format == "" {
		format = FormatCSV
	}

	data, name, contentType, err := h.service.Export(c.Request().Context(), userID, id, format)
	switch {
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "statement not found"})
	case errors.Is(err, ErrUnsupportedFormat):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "format must be csv or xlsx"})
	case err != nil:
		h.logger.Error("failed to export statement", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to export statement"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, contentType, data)
}

func (h *Handler) delete(c echo.Context) error {
	userID, _ := auth.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid statement id"})
	}

	if err := h.service.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "statement not found"})
		}
		h.logger.Error("failed to delete statement", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete statement"})
	}
	return c.NoContent(http.StatusNoContent)
}
