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

// SavedVideoRepository defines operations for manually saved video links.
type SavedVideoRepository interface {
	// Create stores a saved video. Returns db.ErrDuplicateKey when the video
	// was already saved.
	Create(ctx context.Context, savedVideo *models.SavedVideo) error

	// List retrieves all saved videos, newest first.
	List(ctx context.Context) ([]*models.SavedVideo, error)

	// Delete removes a saved video by internal id.
	Delete(ctx context.Context, id uuid.UUID) error
}

type savedVideoRepository struct {
	pool *pgxpool.Pool
}

// NewSavedVideoRepository creates a new SavedVideoRepository.
func NewSavedVideoRepository(pool *pgxpool.Pool) SavedVideoRepository {
	return &savedVideoRepository{pool: pool}
}

func (r *savedVideoRepository) Create(ctx context.Context, savedVideo *models.SavedVideo) error {
	query := `
		INSERT INTO saved_videos (id, youtube_video_id, source_url, title, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		savedVideo.ID,
		savedVideo.YouTubeVideoID,
		savedVideo.SourceURL,
		savedVideo.Title,
		savedVideo.CreatedAt,
	).Scan(&savedVideo.CreatedAt)

	if err != nil {
		return db.WrapError(err, "create saved video")
	}

	return nil
}

func (r *savedVideoRepository) List(ctx context.Context) ([]*models.SavedVideo, error) {
	query := `
		SELECT id, youtube_video_id, source_url, title, created_at
		FROM saved_videos
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list saved videos")
	}
	defer rows.Close()

	var savedVideos []*models.SavedVideo
	for rows.Next() {
		sv := &models.SavedVideo{}
		err := rows.Scan(&sv.ID, &sv.YouTubeVideoID, &sv.SourceURL, &sv.Title, &sv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan saved video: %w", err)
		}
		savedVideos = append(savedVideos, sv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved videos: %w", err)
	}

	return savedVideos, nil
}

func (r *savedVideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM saved_videos WHERE id = $1`, id)
	if err != nil {
		return db.WrapError(err, "delete saved video")
	}

	if result.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "delete saved video")
	}

	return nil
}
