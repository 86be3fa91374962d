package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
)

// VideoFilters contains filter options for listing videos.
type VideoFilters struct {
	HideShorts bool
	HideHidden bool
	Limit      int
	Offset     int
}

// VideoRepository defines operations for managing videos.
type VideoRepository interface {
	// Upsert inserts a video or updates the existing record keyed on the
	// external video id. The caller decides what is_hidden value to carry;
	// ingestion copies it forward from the pre-existing record.
	Upsert(ctx context.Context, video *models.Video) error

	// GetByYouTubeID retrieves a single video by external video id.
	// Returns db.ErrNotFound if no such video exists.
	GetByYouTubeID(ctx context.Context, youtubeVideoID string) (*models.Video, error)

	// GetByID retrieves a single video by internal id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// List retrieves videos ordered by publish timestamp, newest first.
	List(ctx context.Context, filters VideoFilters) ([]*models.Video, error)

	// Search retrieves non-hidden videos whose title, or owning channel's
	// title, matches the query substring, case-insensitively, newest first.
	Search(ctx context.Context, query string, limit int) ([]*models.Video, error)

	// ToggleHidden flips the user-controlled visibility flag.
	ToggleHidden(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// ToggleShort flips the short classification flag.
	ToggleShort(ctx context.Context, id uuid.UUID) (*models.Video, error)
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const (
	videoColumns         = "id, youtube_video_id, channel_id, title, url, published_at, thumbnail_url, is_short, is_hidden, created_at"
	prefixedVideoColumns = "v.id, v.youtube_video_id, v.channel_id, v.title, v.url, v.published_at, v.thumbnail_url, v.is_short, v.is_hidden, v.created_at"
)

func (r *videoRepository) Upsert(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (id, youtube_video_id, channel_id, title, url, published_at, thumbnail_url, is_short, is_hidden, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (youtube_video_id) DO UPDATE
		SET channel_id = EXCLUDED.channel_id,
		    title = EXCLUDED.title,
		    url = EXCLUDED.url,
		    published_at = EXCLUDED.published_at,
		    thumbnail_url = EXCLUDED.thumbnail_url,
		    is_short = EXCLUDED.is_short,
		    is_hidden = EXCLUDED.is_hidden
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		video.ID,
		video.YouTubeVideoID,
		video.ChannelID,
		video.Title,
		video.URL,
		video.PublishedAt,
		video.ThumbnailURL,
		video.IsShort,
		video.IsHidden,
		video.CreatedAt,
	).Scan(&video.ID, &video.CreatedAt)

	if err != nil {
		return db.WrapError(err, "upsert video")
	}

	return nil
}

func (r *videoRepository) GetByYouTubeID(ctx context.Context, youtubeVideoID string) (*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE youtube_video_id = $1`, videoColumns)
	return r.getOne(ctx, "get video by youtube id", query, youtubeVideoID)
}

func (r *videoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE id = $1`, videoColumns)
	return r.getOne(ctx, "get video by id", query, id)
}

func (r *videoRepository) getOne(ctx context.Context, operation, query string, key interface{}) (*models.Video, error) {
	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&video.ID,
		&video.YouTubeVideoID,
		&video.ChannelID,
		&video.Title,
		&video.URL,
		&video.PublishedAt,
		&video.ThumbnailURL,
		&video.IsShort,
		&video.IsHidden,
		&video.CreatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, operation)
	}

	return video, nil
}

func (r *videoRepository) List(ctx context.Context, filters VideoFilters) ([]*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE true`, videoColumns)
	if filters.HideShorts {
		query += " AND NOT is_short"
	}
	if filters.HideHidden {
		query += " AND NOT is_hidden"
	}
	query += " ORDER BY published_at DESC"

	args := []interface{}{}
	argPos := 1
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filters.Limit)
		argPos++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.WrapError(err, "list videos")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) Search(ctx context.Context, query string, limit int) ([]*models.Video, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM videos v
		LEFT JOIN channels c ON c.id = v.channel_id
		WHERE NOT v.is_hidden AND (v.title ILIKE $1 OR c.title ILIKE $1)
		ORDER BY v.published_at DESC
		LIMIT $2
	`, prefixedVideoColumns)

	rows, err := r.pool.Query(ctx, sql, "%"+query+"%", limit)
	if err != nil {
		return nil, db.WrapError(err, "search videos")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) ToggleHidden(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return r.toggleFlag(ctx, "toggle video hidden", "is_hidden", id)
}

func (r *videoRepository) ToggleShort(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return r.toggleFlag(ctx, "toggle video short", "is_short", id)
}

func (r *videoRepository) toggleFlag(ctx context.Context, operation, column string, id uuid.UUID) (*models.Video, error) {
	query := fmt.Sprintf(`
		UPDATE videos SET %s = NOT %s WHERE id = $1
		RETURNING %s
	`, column, column, videoColumns)

	return r.getOne(ctx, operation, query, id)
}

// Helper function to scan multiple videos from query results
func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	var videos []*models.Video

	for rows.Next() {
		video := &models.Video{}
		err := rows.Scan(
			&video.ID,
			&video.YouTubeVideoID,
			&video.ChannelID,
			&video.Title,
			&video.URL,
			&video.PublishedAt,
			&video.ThumbnailURL,
			&video.IsShort,
			&video.IsHidden,
			&video.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}
