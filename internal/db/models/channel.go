// Package models contains the persisted record types.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel represents a subscribed YouTube channel whose RSS feed is polled.
type Channel struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ChannelID    string     `db:"channel_id" json:"channel_id"`
	Title        *string    `db:"title" json:"title"`
	RSSURL       string     `db:"rss_url" json:"rss_url"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastPolledAt *time.Time `db:"last_polled_at" json:"last_polled_at"`
}

// NewChannel creates a new active Channel for the given external channel id and feed URL.
func NewChannel(channelID, rssURL string, title *string) *Channel {
	return &Channel{
		ID:        uuid.New(),
		ChannelID: channelID,
		Title:     title,
		RSSURL:    rssURL,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}
