package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/parser"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/youtube"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

// reconcile upserts each parsed entry for one channel. New videos start
// visible; for known videos every feed-derived field is refreshed but the
// user-owned is_hidden flag is copied forward from the existing record.
// Entry failures are recorded and never abort the batch.
func (p *Poller) reconcile(ctx context.Context, channel *models.Channel, entries []parser.VideoEntry, result *RunResult) {
	for _, entry := range entries {
		existing, err := p.videos.GetByYouTubeID(ctx, entry.VideoID)
		if err != nil && !db.IsNotFound(err) {
			p.failEntry(result, entry.VideoID, err)
			continue
		}

		video := &models.Video{
			ID:             uuid.New(),
			YouTubeVideoID: entry.VideoID,
			ChannelID:      &channel.ID,
			Title:          entry.Title,
			URL:            entry.URL,
			PublishedAt:    entry.PublishedAt,
			ThumbnailURL:   entry.ThumbnailURL,
			IsShort:        youtube.IsShort(entry.URL, entry.Title),
			IsHidden:       false,
			CreatedAt:      time.Now(),
		}
		if existing != nil {
			// Preserve manual hide state across re-polls.
			video.IsHidden = existing.IsHidden
		}

		if err := p.videos.Upsert(ctx, video); err != nil {
			p.failEntry(result, entry.VideoID, err)
			continue
		}

		if existing != nil {
			result.VideosUpdated++
			p.metrics.VideosUpdated.Inc()
		} else {
			result.VideosAdded++
			p.metrics.VideosAdded.Inc()
		}
	}
}

func (p *Poller) failEntry(result *RunResult, videoID string, err error) {
	msg := fmt.Sprintf("Error processing video %s: %v", videoID, err)
	result.Errors = append(result.Errors, msg)

	logger.Log.Warn("video reconciliation failed",
		zap.String("videoId", videoID),
		zap.Error(err),
	)
}
