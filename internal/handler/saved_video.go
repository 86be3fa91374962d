package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/repository"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/youtube"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

// SavedVideoHandler handles manually saved video links.
type SavedVideoHandler struct {
	repo repository.SavedVideoRepository
}

// NewSavedVideoHandler creates a new SavedVideoHandler.
func NewSavedVideoHandler(repo repository.SavedVideoRepository) *SavedVideoHandler {
	return &SavedVideoHandler{repo: repo}
}

// List returns all saved videos, newest first.
func (h *SavedVideoHandler) List(c *gin.Context) {
	savedVideos, err := h.repo.List(c.Request.Context())
	if err != nil {
		logger.Log.Error("list saved videos failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to fetch saved videos")
		return
	}

	c.JSON(http.StatusOK, savedVideos)
}

type createSavedVideoRequest struct {
	URL   string  `json:"url" binding:"required"`
	Title *string `json:"title"`
}

// Create saves an arbitrary video link. The video id is extracted from any
// of the supported URL shapes (watch, youtu.be, shorts, embed, bare id).
func (h *SavedVideoHandler) Create(c *gin.Context) {
	var req createSavedVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Bad Request", "url is required")
		return
	}

	videoID := youtube.ExtractVideoID(req.URL)
	if videoID == "" {
		sendError(c, http.StatusBadRequest, "Bad Request", "could not extract video id from url")
		return
	}

	savedVideo := &models.SavedVideo{
		ID:             uuid.New(),
		YouTubeVideoID: videoID,
		SourceURL:      req.URL,
		Title:          req.Title,
		CreatedAt:      time.Now(),
	}

	if err := h.repo.Create(c.Request.Context(), savedVideo); err != nil {
		if db.IsDuplicateKey(err) {
			sendError(c, http.StatusConflict, "Conflict", "video already saved")
			return
		}
		logger.Log.Error("create saved video failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to save video")
		return
	}

	c.JSON(http.StatusCreated, savedVideo)
}

// Delete removes a saved video.
func (h *SavedVideoHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Bad Request", "invalid saved video id")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if db.IsNotFound(err) {
			sendError(c, http.StatusNotFound, "Not Found", "saved video not found")
			return
		}
		logger.Log.Error("delete saved video failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to delete saved video")
		return
	}

	c.Status(http.StatusNoContent)
}
