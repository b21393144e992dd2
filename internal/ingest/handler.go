package ingest

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/FACorreiaa/ledgerlens/internal/domain/auth"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/queue"
)

// maxUploadBytes caps a single upload; statements are small, archives of a
// year's statements still fit comfortably.
const maxUploadBytes = 64 << 20

// Handler exposes the ingestion endpoints
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates a new ingest handler
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the ingest routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/upload", h.upload)
	g.GET("/tasks", h.listTasks)
	g.GET("/tasks/:key", h.getReview)
	g.DELETE("/tasks", h.deleteTasks)
	g.POST("/commit", h.commit)
}

func (h *Handler) upload(c echo.Context) error {
	ctx := c.Request().Context()
	userID, _ := auth.UserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}
	if file.Size > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error("failed to open upload", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read file"})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		h.logger.Error("failed to read upload", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read file"})
	}
	if len(data) > maxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
	}

	tasks, err := h.service.Submit(ctx, userID, file.Filename, data)
	switch {
	case errors.Is(err, ErrUnsupportedFile), errors.Is(err, ErrEmptyArchive):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		h.logger.Error("failed to submit statements", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to submit statements"})
	}

	return c.JSON(http.StatusAccepted, map[string]any{"tasks": tasks})
}

func (h *Handler) listTasks(c echo.Context) error {
	userID, _ := auth.UserID(c)

	tasks, err := h.service.ListTasks(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("failed to list tasks", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return c.JSON(http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) getReview(c echo.Context) error {
	userID, _ := auth.UserID(c)
	key := c.Param("key")

	review, err := h.service.GetReview(c.Request().Context(), userID, key)
	if errors.Is(err, queue.ErrJobNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no completed task for this key"})
	}
	if err != nil {
		h.logger.Error("failed to load review", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load review"})
	}
	return c.JSON(http.StatusOK, review)
}

type keysRequest struct {
	Keys []string `json:"keys"`
}

func (h *Handler) deleteTasks(c echo.Context) error {
	userID, _ := auth.UserID(c)

	var req keysRequest
	if err := c.Bind(&req); err != nil || len(req.Keys) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "keys are required"})
	}

	if err := h.service.Delete(c.Request().Context(), userID, req.Keys); err != nil {
		h.logger.Error("failed to delete tasks", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete tasks"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) commit(c echo.Context) error {
	userID, _ := auth.UserID(c)

	var req keysRequest
	if err := c.Bind(&req); err != nil || len(req.Keys) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "keys are required"})
	}

	outcome, err := h.service.Commit(c.Request().Context(), userID, req.Keys)
	if err != nil {
		h.logger.Error("failed to commit statements", slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to commit statements"})
	}

	status := http.StatusOK
	if len(outcome.Committed) == 0 && len(outcome.Failed) > 0 {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, outcome)
}
