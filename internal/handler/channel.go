package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/repository"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/youtube"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

// ChannelHandler handles channel CRUD requests.
type ChannelHandler struct {
	repo repository.ChannelRepository
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(repo repository.ChannelRepository) *ChannelHandler {
	return &ChannelHandler{repo: repo}
}

// List returns all channels, newest first.
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.repo.List(c.Request.Context(), false)
	if err != nil {
		logger.Log.Error("list channels failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to fetch channels")
		return
	}

	c.JSON(http.StatusOK, channels)
}

type createChannelRequest struct {
	ChannelID string  `json:"channel_id" binding:"required"`
	RSSURL    string  `json:"rss_url"`
	Title     *string `json:"title"`
}

// Create adds a new tracked channel. The feed URL defaults to the canonical
// feed for the channel id when omitted.
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Bad Request", "channel_id is required")
		return
	}

	if !youtube.IsValidChannelID(req.ChannelID) {
		sendError(c, http.StatusBadRequest, "Bad Request", "invalid channel id format")
		return
	}

	rssURL := req.RSSURL
	if rssURL == "" {
		rssURL = youtube.FeedURL(req.ChannelID)
	}

	channel := models.NewChannel(req.ChannelID, rssURL, req.Title)
	if err := h.repo.Create(c.Request.Context(), channel); err != nil {
		if db.IsDuplicateKey(err) {
			sendError(c, http.StatusConflict, "Conflict", "channel already exists")
			return
		}
		logger.Log.Error("create channel failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to create channel")
		return
	}

	c.JSON(http.StatusCreated, channel)
}

type updateChannelRequest struct {
	Title    *string `json:"title"`
	RSSURL   *string `json:"rss_url"`
	IsActive *bool   `json:"is_active"`
}

// Update applies a partial update to a channel's title, feed URL or active flag.
func (h *ChannelHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Bad Request", "invalid channel id")
		return
	}

	var req updateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Bad Request", "invalid request payload")
		return
	}

	channel, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			sendError(c, http.StatusNotFound, "Not Found", "channel not found")
			return
		}
		logger.Log.Error("get channel failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to fetch channel")
		return
	}

	if req.Title != nil {
		channel.Title = req.Title
	}
	if req.RSSURL != nil {
		channel.RSSURL = *req.RSSURL
	}
	if req.IsActive != nil {
		channel.IsActive = *req.IsActive
	}

	if err := h.repo.Update(c.Request.Context(), channel); err != nil {
		logger.Log.Error("update channel failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "failed to update channel")
		return
	}

	c.JSON(http.StatusOK, channel)
}
