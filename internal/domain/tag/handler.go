package tag

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/FACorreiaa/ledgerlens/internal/domain/auth"
)

// Handler exposes tag endpoints
type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

// NewHandler creates a new tag handler
func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Register mounts the tag routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("", h.list)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) create(c echo.Context) error {
	userID, _ := auth.UserID(c)

	var req struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": ErrInvalidTitle.Error()})
	}

	t := &Tag{UserID: userID, Title: title}
	if err := h.repo.Create(c.Request().Context(), t); err != nil {
		if errors.Is(err, ErrDuplicateTitle) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "a tag with this title already exists"})
		}
		h.logger.Error("failed to create tag", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create tag"})
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) list(c echo.Context) error {
	userID, _ := auth.UserID(c)

	tags, err := h.repo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list tags", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list tags"})
	}
	if tags == nil {
		tags = []Tag{}
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *Handler) delete(c echo.Context) error {
	userID, _ := auth.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid tag id"})
	}

	if err := h.repo.Delete(c.Request().Context(), userID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "tag not found"})
		}
		h.logger.Error("failed to delete tag", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete tag"})
	}
	return c.NoContent(http.StatusNoContent)
}
