package models

import (
	"time"

	"github.com/google/uuid"
)

// Video is the canonical stored record for a discovered video. The external
// YouTubeVideoID is the upsert key; ChannelID is nil for manually saved links
// without a tracked channel.
type Video struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	YouTubeVideoID string     `db:"youtube_video_id" json:"youtube_video_id"`
	ChannelID      *uuid.UUID `db:"channel_id" json:"channel_id"`
	Title          string     `db:"title" json:"title"`
	URL            string     `db:"url" json:"url"`
	PublishedAt    time.Time  `db:"published_at" json:"published_at"`
	ThumbnailURL   *string    `db:"thumbnail_url" json:"thumbnail_url"`
	IsShort        bool       `db:"is_short" json:"is_short"`
	IsHidden       bool       `db:"is_hidden" json:"is_hidden"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
