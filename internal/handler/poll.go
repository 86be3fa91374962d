package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/poller"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

// PollRunner runs one poll pass over all active channels.
type PollRunner interface {
	Run(ctx context.Context) (*poller.RunResult, error)
}

// PollHandler triggers poll runs over HTTP.
type PollHandler struct {
	poller     PollRunner
	adminToken string
}

// NewPollHandler creates a new PollHandler. adminToken guards the
// token-protected trigger; empty means that trigger is unconfigured.
func NewPollHandler(p PollRunner, adminToken string) *PollHandler {
	return &PollHandler{
		poller:     p,
		adminToken: adminToken,
	}
}

// TriggerPoll runs a poll now and returns the run result. Partial failures
// are reported inside the result; only a failed channel-list load is a
// server error.
func (h *PollHandler) TriggerPoll(c *gin.Context) {
	result, err := h.poller.Run(c.Request.Context())
	if err != nil {
		logger.Log.Error("poll run failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// TriggerPollWithToken is the shared-secret variant for external schedulers.
// It returns 500 when no token is configured server-side and 401 when the
// presented token does not match.
func (h *PollHandler) TriggerPollWithToken(c *gin.Context) {
	if h.adminToken == "" {
		sendError(c, http.StatusInternalServerError, "Internal Server Error", "admin token not configured")
		return
	}

	token := c.Query("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		logger.Log.Warn("poll trigger rejected, invalid token",
			zap.String("remoteAddr", c.ClientIP()),
		)
		sendError(c, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	h.TriggerPoll(c)
}
