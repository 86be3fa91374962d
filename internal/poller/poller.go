// Package poller implements the feed poll orchestrator and the
// reconciliation of parsed feed entries against stored videos.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/repository"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/metrics"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/parser"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/youtube"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

// Fetcher retrieves a raw feed document for a feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (string, error)
}

// RunResult is the aggregate outcome of one poll run. Failed channels and
// failed entries are reported as error strings; the run itself only fails
// when the channel list cannot be loaded.
type RunResult struct {
	RunID             uuid.UUID `json:"runId"`
	ChannelsProcessed int       `json:"channelsProcessed"`
	VideosAdded       int       `json:"videosAdded"`
	VideosUpdated     int       `json:"videosUpdated"`
	Errors            []string  `json:"errors"`
	CompletedAt       time.Time `json:"timestamp"`
}

// Poller iterates all active channels and runs the fetch-parse-reconcile
// pipeline per channel. Channel failures are isolated: one broken feed never
// affects the rest of the run.
type Poller struct {
	channels repository.ChannelRepository
	videos   repository.VideoRepository
	fetcher  Fetcher
	metrics  *metrics.Metrics
}

// New creates a Poller over the given record store and fetcher.
func New(channels repository.ChannelRepository, videos repository.VideoRepository, fetcher Fetcher, m *metrics.Metrics) *Poller {
	return &Poller{
		channels: channels,
		videos:   videos,
		fetcher:  fetcher,
		metrics:  m,
	}
}

// Run performs one complete poll pass over all active channels. Each channel's
// work is committed independently, so an abandoned context leaves already
// polled channels intact.
func (p *Poller) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	result := &RunResult{
		RunID:  uuid.New(),
		Errors: []string{},
	}

	channels, err := p.channels.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active channels: %w", err)
	}

	logger.Log.Info("poll run started",
		zap.String("runId", result.RunID.String()),
		zap.Int("channels", len(channels)),
	)

	for _, channel := range channels {
		p.pollChannel(ctx, channel, result)
	}

	result.CompletedAt = time.Now()

	p.metrics.PollRuns.Inc()
	p.metrics.PollDuration.Observe(time.Since(started).Seconds())

	logger.Log.Info("poll run finished",
		zap.String("runId", result.RunID.String()),
		zap.Int("channelsProcessed", result.ChannelsProcessed),
		zap.Int("videosAdded", result.VideosAdded),
		zap.Int("videosUpdated", result.VideosUpdated),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}

// pollChannel runs the pipeline for one channel. Any failure is recorded in
// the run result and the channel is skipped without advancing last_polled_at.
func (p *Poller) pollChannel(ctx context.Context, channel *models.Channel, result *RunResult) {
	feedURL, err := youtube.CanonicalFeedURL(channel.RSSURL)
	if err != nil {
		p.failChannel(result, channel, fmt.Errorf("invalid feed address: %w", err))
		return
	}

	raw, err := p.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		p.metrics.FetchErrors.Inc()
		p.failChannel(result, channel, err)
		return
	}

	parsed, err := parser.ParseFeed(raw)
	if err != nil {
		p.failChannel(result, channel, err)
		return
	}
	for _, skipped := range parsed.Skipped {
		logger.Log.Debug("feed entry skipped",
			zap.String("channelId", channel.ChannelID),
			zap.Int("index", skipped.Index),
			zap.String("reason", skipped.Reason),
		)
	}

	p.reconcile(ctx, channel, parsed.Entries, result)

	if err := p.channels.SetLastPolled(ctx, channel.ID, time.Now()); err != nil {
		p.failChannel(result, channel, fmt.Errorf("update last polled: %w", err))
		return
	}

	result.ChannelsProcessed++
	p.metrics.ChannelsProcessed.Inc()
}

func (p *Poller) failChannel(result *RunResult, channel *models.Channel, err error) {
	msg := fmt.Sprintf("Error processing channel %s: %v", channel.ChannelID, err)
	result.Errors = append(result.Errors, msg)
	p.metrics.ChannelsFailed.Inc()

	logger.Log.Warn("channel poll failed",
		zap.String("channelId", channel.ChannelID),
		zap.Error(err),
	)
}
