package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedVideo is a manually saved video link, independent of any tracked channel.
type SavedVideo struct {
	ID             uuid.UUID `db:"id" json:"id"`
	YouTubeVideoID string    `db:"youtube_video_id" json:"youtube_video_id"`
	SourceURL      string    `db:"source_url" json:"source_url"`
	Title          *string   `db:"title" json:"title"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
