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

// ChannelRepository defines operations for managing tracked channels.
type ChannelRepository interface {
	// UpsertChannel creates a new channel or updates an existing one.
	UpsertChannel(ctx context.Context, channel *models.Channel) error

	// GetByID retrieves a single channel by ID.
	GetByID(ctx context.Context, channelID string) (*models.Channel, error)

	// ListActive retrieves active channels that are due for a discovery pass:
	// never checked, or last checked after the given freshness cutoff.
	ListActive(ctx context.Context, checkedSince time.Time, limit int) ([]*models.Channel, error)

	// RewriteChannelID replaces a placeholder identifier with the canonical
	// one. Keyed by display name since the old identifier is being replaced.
	RewriteChannelID(ctx context.Context, name, canonicalID string) error

	// AdvanceLastChecked moves the channel's checkpoint forward. The
	// checkpoint never moves backwards; an older timestamp is a no-op.
	AdvanceLastChecked(ctx context.Context, channelID string, to time.Time) error

	// ListMissingUploadsPlaylist retrieves channels without a cached uploads
	// collection identifier.
	ListMissingUploadsPlaylist(ctx context.Context) ([]*models.Channel, error)

	// SetUploadsPlaylistID caches the channel's uploads collection identifier.
	SetUploadsPlaylistID(ctx context.Context, channelID, playlistID string) error
}

type channelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepository{pool: pool}
}

const channelColumns = `channel_id, name, active, video_count, last_checked,
	uploads_playlist_id, created_at, updated_at`

func (r *channelRepository) UpsertChannel(ctx context.Context, channel *models.Channel) error {
	query := `
		INSERT INTO madtown_channels (channel_id, name, active, video_count, last_checked,
		                              uploads_playlist_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (channel_id) DO UPDATE
		SET name = EXCLUDED.name,
		    active = EXCLUDED.active,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		channel.ChannelID,
		channel.Name,
		channel.Active,
		channel.VideoCount,
		channel.LastChecked,
		channel.UploadsPlaylistID,
		channel.CreatedAt,
		channel.UpdatedAt,
	).Scan(&channel.CreatedAt, &channel.UpdatedAt)

	if err != nil {
		return db.WrapError(err, "upsert channel")
	}

	return nil
}

func (r *channelRepository) GetByID(ctx context.Context, channelID string) (*models.Channel, error) {
	query := fmt.Sprintf(`SELECT %s FROM madtown_channels WHERE channel_id = $1`, channelColumns)

	channel := &models.Channel{}
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&channel.ChannelID,
		&channel.Name,
		&channel.Active,
		&channel.VideoCount,
		&channel.LastChecked,
		&channel.UploadsPlaylistID,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)

	if err != nil {
		return nil, db.WrapError(err, "get channel by id")
	}

	return channel, nil
}

func (r *channelRepository) ListActive(ctx context.Context, checkedSince time.Time, limit int) ([]*models.Channel, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM madtown_channels
		WHERE active = TRUE
		  AND (last_checked IS NULL OR last_checked > $1)
		ORDER BY last_checked ASC NULLS FIRST
		LIMIT $2
	`, channelColumns)

	rows, err := r.pool.Query(ctx, query, checkedSince, limit)
	if err != nil {
		return nil, db.WrapError(err, "list active channels")
	}
	defer rows.Close()

	return scanChannels(rows)
}

func (r *channelRepository) RewriteChannelID(ctx context.Context, name, canonicalID string) error {
	query := `
		UPDATE madtown_channels
		SET channel_id = $2, updated_at = NOW()
		WHERE name = $1
	`

	tag, err := r.pool.Exec(ctx, query, name, canonicalID)
	if err != nil {
		return db.WrapError(err, "rewrite channel id")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rewrite channel id: %w", db.ErrNotFound)
	}

	return nil
}

func (r *channelRepository) AdvanceLastChecked(ctx context.Context, channelID string, to time.Time) error {
	query := `
		UPDATE madtown_channels
		SET last_checked = $2, updated_at = NOW()
		WHERE channel_id = $1
		  AND (last_checked IS NULL OR last_checked < $2)
	`

	// Zero rows affected means the checkpoint was already at or past the
	// target, which is fine: the checkpoint only moves forward.
	if _, err := r.pool.Exec(ctx, query, channelID, to); err != nil {
		return db.WrapError(err, "advance last checked")
	}

	return nil
}

func (r *channelRepository) ListMissingUploadsPlaylist(ctx context.Context) ([]*models.Channel, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM madtown_channels
		WHERE uploads_playlist_id IS NULL
		ORDER BY name ASC
	`, channelColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list missing uploads playlist")
	}
	defer rows.Close()

	return scanChannels(rows)
}

func (r *channelRepository) SetUploadsPlaylistID(ctx context.Context, channelID, playlistID string) error {
	query := `
		UPDATE madtown_channels
		SET uploads_playlist_id = $2, updated_at = NOW()
		WHERE channel_id = $1
	`

	tag, err := r.pool.Exec(ctx, query, channelID, playlistID)
	if err != nil {
		return db.WrapError(err, "set uploads playlist id")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set uploads playlist id: %w", db.ErrNotFound)
	}

	return nil
}

// Helper function to scan multiple channels from query results
func scanChannels(rows pgx.Rows) ([]*models.Channel, error) {
	var channels []*models.Channel

	for rows.Next() {
		channel := &models.Channel{}
		err := rows.Scan(
			&channel.ChannelID,
			&channel.Name,
			&channel.Active,
			&channel.VideoCount,
			&channel.LastChecked,
			&channel.UploadsPlaylistID,
			&channel.CreatedAt,
			&channel.UpdatedAt,
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
