package models

import "time"

// Channel represents a tracked YouTube channel.
//
// ChannelID may start out as a placeholder (manually registered) and is
// rewritten to the canonical UC-prefixed form by the resolver. LastChecked
// is the discovery checkpoint; it only ever moves forward.
type Channel struct {
	ChannelID         string     `db:"channel_id"`
	Name              string     `db:"name"`
	Active            bool       `db:"active"`
	VideoCount        int        `db:"video_count"`
	LastChecked       *time.Time `db:"last_checked"`
	UploadsPlaylistID *string    `db:"uploads_playlist_id"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// NewChannel creates a new active Channel with the given identity.
func NewChannel(channelID, name string) *Channel {
	now := time.Now()
	return &Channel{
		ChannelID: channelID,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsCanonicalID reports whether the stored identifier is already in the
// platform's authoritative channel ID format.
func (c *Channel) IsCanonicalID() bool {
	return len(c.ChannelID) > 2 && c.ChannelID[:2] == "UC"
}
