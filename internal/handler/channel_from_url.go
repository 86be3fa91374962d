package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/youtube"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

// ChannelFromURLHandler resolves channel URLs (including @handle pages) to
// canonical channel ids and feed URLs.
type ChannelFromURLHandler struct {
	resolver *youtube.Resolver
}

// NewChannelFromURLHandler creates a new ChannelFromURLHandler.
func NewChannelFromURLHandler(resolver *youtube.Resolver) *ChannelFromURLHandler {
	return &ChannelFromURLHandler{resolver: resolver}
}

type extractChannelIDRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExtractChannelID resolves the posted channel URL. Handle URLs require a
// best-effort page scrape; a failed scrape is a plain error response.
func (h *ChannelFromURLHandler) ExtractChannelID(c *gin.Context) {
	var req extractChannelIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Bad Request", "url is required")
		return
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, youtube.ErrUnsupportedURL) {
			sendError(c, http.StatusBadRequest, "Bad Request",
				"unsupported URL format, use a YouTube channel URL (e.g. https://www.youtube.com/@username)")
			return
		}
		logger.Log.Warn("channel id resolution failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		sendError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	c.JSON(http.StatusOK, resolution)
}
