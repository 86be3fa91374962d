package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/repository"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

const searchResultLimit = 20

// VideoHandler handles video listing and flag toggles.
type VideoHandler struct {
	repo repository.VideoRepository
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(repo repository.VideoRepository) *VideoHandler {
	return &VideoHandler{repo: repo}
}

// List returns videos ordered by publish timestamp, filtered by the
// hideShorts and hideHidden query parameters.
func (h *VideoHandler) List(c *gin.Context) {
	filters := repository.VideoFilters{
		HideShorts: c.Query("hideShorts") == "true",
		HideHidden: c.Query("hideHidden") == "true",
		Limit:      parseLimit(c),
		Offset:     parseOffset(c),
	}

	videos, err := h.repo.List(c.Request.Context(), filters)
	if err != nil {
		logger.Log.Error("list videos failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to fetch videos")
		return
	}

	c.JSON(http.StatusOK, videos)
}

// Search returns up to 20 non-hidden videos whose title or channel title
// matches the query. Queries shorter than two characters return an empty list.
func (h *VideoHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		c.JSON(http.StatusOK, []*models.Video{})
		return
	}

	videos, err := h.repo.Search(c.Request.Context(), query, searchResultLimit)
	if err != nil {
		logger.Log.Error("search videos failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to search videos")
		return
	}

	c.JSON(http.StatusOK, videos)
}

// ToggleHidden flips a video's user-controlled visibility flag.
func (h *VideoHandler) ToggleHidden(c *gin.Context) {
	h.toggle(c, h.repo.ToggleHidden)
}

// ToggleShort flips a video's short classification flag, correcting the
// ingestion heuristic when it misfires.
func (h *VideoHandler) ToggleShort(c *gin.Context) {
	h.toggle(c, h.repo.ToggleShort)
}

func (h *VideoHandler) toggle(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*models.Video, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Bad Request", "invalid video id")
		return
	}

	video, err := op(c.Request.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			sendError(c, http.StatusNotFound, "Not Found", "video not found")
			return
		}
		logger.Log.Error("toggle video flag failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to update video")
		return
	}

	c.JSON(http.StatusOK, video)
}
