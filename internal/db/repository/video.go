// Package repository provides data access for videos, channels and quota logs.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"madtown/video-aggregator/internal/db"
	"madtown/video-aggregator/internal/db/models"
)

// VideoRepository defines operations for managing videos.
type VideoRepository interface {
	// UpsertBatch writes the given videos in one logical write. Upserts are
	// keyed by video_id and idempotent. Returns how many rows were newly
	// inserted and how many updated existing rows.
	UpsertBatch(ctx context.Context, videos []*models.Video) (inserted, updated int, err error)

	// GetVideoByID retrieves a single video by ID.
	GetVideoByID(ctx context.Context, videoID string) (*models.Video, error)

	// LatestPublishedAt returns the most recent publish timestamp in the
	// store. Returns ErrNotFound when the store holds no videos.
	LatestPublishedAt(ctx context.Context) (time.Time, error)

	// ListForClassification retrieves videos for the shorts classifier. With
	// unclassifiedOnly set, only rows whose is_short_final is still null are
	// returned.
	ListForClassification(ctx context.Context, unclassifiedOnly bool, limit int) ([]*models.Video, error)

	// ListVideoIDs retrieves up to limit video IDs ordered by publish time.
	ListVideoIDs(ctx context.Context, limit int) ([]string, error)

	// ListStaleStats retrieves videos whose stats have not been refreshed
	// since the given time.
	ListStaleStats(ctx context.Context, olderThan time.Time, limit int) ([]*models.Video, error)

	// SetShortFinal writes the classifier's verdict for one video.
	SetShortFinal(ctx context.Context, videoID string, isShort bool) error

	// SetShortsPlayable records whether the shorts URL variant resolved.
	SetShortsPlayable(ctx context.Context, videoID string, playable bool) error

	// UpdateStats patches view/like counts for one video.
	UpdateStats(ctx context.Context, videoID string, viewCount, likeCount int64) error
}

type videoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) VideoRepository {
	return &videoRepository{pool: pool}
}

const videoColumns = `video_id, title, channel_id, channel_name, view_count, like_count,
	published_at, thumbnail_url, duration, is_short_final, is_shorts_playable, season,
	created_at, updated_at`

func (r *videoRepository) UpsertBatch(ctx context.Context, videos []*models.Video) (int, int, error) {
	if len(videos) == 0 {
		return 0, 0, nil
	}

	query := `
		INSERT INTO videos (video_id, title, channel_id, channel_name, view_count, like_count,
		                    published_at, thumbnail_url, duration, is_short_final, is_shorts_playable,
		                    season, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (video_id) DO UPDATE
		SET title = EXCLUDED.title,
		    channel_id = EXCLUDED.channel_id,
		    channel_name = EXCLUDED.channel_name,
		    view_count = EXCLUDED.view_count,
		    like_count = EXCLUDED.like_count,
		    published_at = EXCLUDED.published_at,
		    thumbnail_url = EXCLUDED.thumbnail_url,
		    duration = EXCLUDED.duration,
		    season = EXCLUDED.season,
		    updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, db.WrapError(err, "begin upsert batch")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var inserted, updated int
	for _, v := range videos {
		var isNew bool
		err := tx.QueryRow(ctx, query,
			v.VideoID,
			v.Title,
			v.ChannelID,
			v.ChannelName,
			v.ViewCount,
			v.LikeCount,
			v.PublishedAt,
			v.ThumbnailURL,
			v.Duration,
			v.IsShortFinal,
			v.IsShortsPlayable,
			v.Season,
			v.CreatedAt,
			v.UpdatedAt,
		).Scan(&isNew)
		if err != nil {
			return 0, 0, db.WrapError(err, "upsert video")
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, db.WrapError(err, "commit upsert batch")
	}

	return inserted, updated, nil
}

func (r *videoRepository) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE video_id = $1`, videoColumns)

	video := &models.Video{}
	err := r.pool.QueryRow(ctx, query, videoID).Scan(
		&video.VideoID,
		&video.Title,
		&video.ChannelID,
		&video.ChannelName,
		&video.ViewCount,
		&video.LikeCount,
		&video.PublishedAt,
		&video.ThumbnailURL,
		&video.Duration,
		&video.IsShortFinal,
		&video.IsShortsPlayable,
		&video.Season,
		&video.CreatedAt,
		&video.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get video by id")
	}

	return video, nil
}

func (r *videoRepository) LatestPublishedAt(ctx context.Context) (time.Time, error) {
	query := `
		SELECT published_at
		FROM videos
		ORDER BY published_at DESC
		LIMIT 1
	`

	var latest time.Time
	if err := r.pool.QueryRow(ctx, query).Scan(&latest); err != nil {
		return time.Time{}, db.WrapError(err, "latest published at")
	}

	return latest, nil
}

func (r *videoRepository) ListForClassification(ctx context.Context, unclassifiedOnly bool, limit int) ([]*models.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos`, videoColumns)
	if unclassifiedOnly {
		query += ` WHERE is_short_final IS NULL`
	}
	query += ` ORDER BY published_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "list for classification")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) ListVideoIDs(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT video_id
		FROM videos
		ORDER BY published_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, db.WrapError(err, "list video ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan video id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video ids: %w", err)
	}

	return ids, nil
}

func (r *videoRepository) ListStaleStats(ctx context.Context, olderThan time.Time, limit int) ([]*models.Video, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM videos
		WHERE updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`, videoColumns)

	rows, err := r.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, db.WrapError(err, "list stale stats")
	}
	defer rows.Close()

	return scanVideos(rows)
}

func (r *videoRepository) SetShortFinal(ctx context.Context, videoID string, isShort bool) error {
	query := `
		UPDATE videos
		SET is_short_final = $2, updated_at = NOW()
		WHERE video_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, videoID, isShort)
	if err != nil {
		return db.WrapError(err, "set short final")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set short final: %w", db.ErrNotFound)
	}

	return nil
}

func (r *videoRepository) SetShortsPlayable(ctx context.Context, videoID string, playable bool) error {
	query := `
		UPDATE videos
		SET is_shorts_playable = $2, updated_at = NOW()
		WHERE video_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, videoID, playable)
	if err != nil {
		return db.WrapError(err, "set shorts playable")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set shorts playable: %w", db.ErrNotFound)
	}

	return nil
}

func (r *videoRepository) UpdateStats(ctx context.Context, videoID string, viewCount, likeCount int64) error {
	query := `
		UPDATE videos
		SET view_count = $2, like_count = $3, updated_at = NOW()
		WHERE video_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, videoID, viewCount, likeCount)
	if err != nil {
		return db.WrapError(err, "update stats")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stats: %w", db.ErrNotFound)
	}

	return nil
}

// Helper function to scan multiple videos from query results
func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	var videos []*models.Video

	for rows.Next() {
		video := &models.Video{}
		err := rows.Scan(
			&video.VideoID,
			&video.Title,
			&video.ChannelID,
			&video.ChannelName,
			&video.ViewCount,
			&video.LikeCount,
			&video.PublishedAt,
			&video.ThumbnailURL,
			&video.Duration,
			&video.IsShortFinal,
			&video.IsShortsPlayable,
			&video.Season,
			&video.CreatedAt,
			&video.UpdatedAt,
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
