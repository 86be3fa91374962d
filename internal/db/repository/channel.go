// Package repository implements the record store on top of PostgreSQL.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
)

// ChannelRepository defines operations for managing channels.
type ChannelRepository interface {
	// Create creates a new channel. Returns db.ErrDuplicateKey if the external
	// channel id is already tracked.
	Create(ctx context.Context, channel *models.Channel) error

	// Update updates a channel's title, feed URL and active flag.
	Update(ctx context.Context, channel *models.Channel) error

	// GetByID retrieves a single channel by internal id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error)

	// GetByChannelID retrieves a single channel by external channel id.
	GetByChannelID(ctx context.Context, channelID string) (*models.Channel, error)

	// List retrieves channels ordered by creation time, newest first.
	// With activeOnly set, only channels flagged active are returned.
	List(ctx context.Context, activeOnly bool) ([]*models.Channel, error)

	// SetLastPolled advances a channel's last-polled timestamp.
	SetLastPolled(ctx context.Context, id uuid.UUID, polledAt time.Time) error
}

type channelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepository{pool: pool}
}

func (r *channelRepository) Create(ctx context.Context, channel *models.Channel) error {
	query := `
		INSERT INTO channels (id, channel_id, title, rss_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		channel.ID,
		channel.ChannelID,
		channel.Title,
		channel.RSSURL,
		channel.IsActive,
		channel.CreatedAt,
	).Scan(&channel.CreatedAt)

	if err != nil {
		return db.WrapError(err, "create channel")
	}

	return nil
}

func (r *channelRepository) Update(ctx context.Context, channel *models.Channel) error {
	query := `
		UPDATE channels
		SET title = $1,
		    rss_url = $2,
		    is_active = $3
		WHERE id = $4
		RETURNING created_at, last_polled_at
	`

	err := r.pool.QueryRow(ctx, query,
		channel.Title,
		channel.RSSURL,
		channel.IsActive,
		channel.ID,
	).Scan(&channel.CreatedAt, &channel.LastPolledAt)

	if err != nil {
		return db.WrapError(err, "update channel")
	}

	return nil
}

func (r *channelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	return r.getOne(ctx, "get channel by id", "id", id)
}

func (r *channelRepository) GetByChannelID(ctx context.Context, channelID string) (*models.Channel, error) {
	return r.getOne(ctx, "get channel by channel id", "channel_id", channelID)
}

func (r *channelRepository) getOne(ctx context.Context, operation, column string, key interface{}) (*models.Channel, error) {
	query := fmt.Sprintf(`
		SELECT id, channel_id, title, rss_url, is_active, created_at, last_polled_at
		FROM channels
		WHERE %s = $1
	`, column)

	channel := &models.Channel{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&channel.ID,
		&channel.ChannelID,
		&channel.Title,
		&channel.RSSURL,
		&channel.IsActive,
		&channel.CreatedAt,
		&channel.LastPolledAt,
	)

	if err != nil {
		return nil, db.WrapError(err, operation)
	}

	return channel, nil
}

func (r *channelRepository) List(ctx context.Context, activeOnly bool) ([]*models.Channel, error) {
	query := `
		SELECT id, channel_id, title, rss_url, is_active, created_at, last_polled_at
		FROM channels
	`
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list channels")
	}
	defer rows.Close()

	return scanChannels(rows)
}

func (r *channelRepository) SetLastPolled(ctx context.Context, id uuid.UUID, polledAt time.Time) error {
	query := `UPDATE channels SET last_polled_at = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, polledAt, id)
	if err != nil {
		return db.WrapError(err, "set channel last polled")
	}

	if result.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "set channel last polled")
	}

	return nil
}

// Helper function to scan multiple channels from query results
func scanChannels(rows pgx.Rows) ([]*models.Channel, error) {
	var channels []*models.Channel

	for rows.Next() {
		channel := &models.Channel{}
		err := rows.Scan(
			&channel.ID,
			&channel.ChannelID,
			&channel.Title,
			&channel.RSSURL,
			&channel.IsActive,
			&channel.CreatedAt,
			&channel.LastPolledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}
