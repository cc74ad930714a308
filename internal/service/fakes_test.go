package service

import (
	"context"
	"errors"
	"time"

	"madtown/video-aggregator/internal/db"
	"madtown/video-aggregator/internal/db/models"
	"madtown/video-aggregator/internal/youtube"
)

// fakeSource implements VideoSource from canned data.
type fakeSource struct {
	channelVideos map[string][]string            // channelID -> video IDs
	queryPages    [][]string                     // page index -> video IDs
	channelIDs    map[string]string              // name -> channel ID
	details       map[string]youtube.VideoDetails // videoID -> details
	playlists     map[string]string              // channelID -> uploads playlist ID

	searchErr  error
	detailsErr error
	units      int

	searchCalls  int
	detailsCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		channelVideos: map[string][]string{},
		channelIDs:    map[string]string{},
		details:       map[string]youtube.VideoDetails{},
		playlists:     map[string]string{},
	}
}

func (f *fakeSource) addVideo(channelID string, det youtube.VideoDetails) {
	f.channelVideos[channelID] = append(f.channelVideos[channelID], det.VideoID)
	f.details[det.VideoID] = det
}

func (f *fakeSource) SearchChannelVideos(ctx context.Context, channelID string, publishedAfter time.Time, maxResults int64) ([]string, error) {
	f.searchCalls++
	f.units += 100
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.channelVideos[channelID], nil
}

func (f *fakeSource) SearchQueryVideos(ctx context.Context, query string, publishedAfter time.Time, pageToken string, maxResults int64) ([]string, string, error) {
	f.searchCalls++
	f.units += 100
	if f.searchErr != nil {
		return nil, "", f.searchErr
	}

	page := 0
	if pageToken != "" {
		page = int(pageToken[0] - '0')
	}
	if page >= len(f.queryPages) {
		return nil, "", nil
	}

	next := ""
	if page+1 < len(f.queryPages) {
		next = string(rune('0' + page + 1))
	}
	return f.queryPages[page], next, nil
}

func (f *fakeSource) SearchChannelID(ctx context.Context, name string) (string, error) {
	f.searchCalls++
	f.units += 100
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return f.channelIDs[name], nil
}

func (f *fakeSource) FetchDetails(ctx context.Context, videoIDs []string) ([]youtube.VideoDetails, error) {
	f.detailsCalls++
	f.units++
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}

	var out []youtube.VideoDetails
	for _, id := range videoIDs {
		if det, ok := f.details[id]; ok {
			out = append(out, det)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchUploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	f.units++
	return f.playlists[channelID], nil
}

func (f *fakeSource) EstimatedUnits() int { return f.units }

// fakeVideoStore implements repository.VideoRepository in memory.
type fakeVideoStore struct {
	videos    map[string]*models.Video
	upsertErr error
	stats     map[string][2]int64
	statsErr  map[string]error
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{
		videos:   map[string]*models.Video{},
		stats:    map[string][2]int64{},
		statsErr: map[string]error{},
	}
}

func (f *fakeVideoStore) UpsertBatch(ctx context.Context, videos []*models.Video) (int, int, error) {
	if f.upsertErr != nil {
		return 0, 0, f.upsertErr
	}
	inserted, updated := 0, 0
	for _, v := range videos {
		if _, ok := f.videos[v.VideoID]; ok {
			updated++
		} else {
			inserted++
		}
		f.videos[v.VideoID] = v
	}
	return inserted, updated, nil
}

func (f *fakeVideoStore) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	v, ok := f.videos[videoID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return v, nil
}

func (f *fakeVideoStore) LatestPublishedAt(ctx context.Context) (time.Time, error) {
	var latest time.Time
	for _, v := range f.videos {
		if v.PublishedAt.After(latest) {
			latest = v.PublishedAt
		}
	}
	if latest.IsZero() {
		return time.Time{}, db.ErrNotFound
	}
	return latest, nil
}

func (f *fakeVideoStore) ListForClassification(ctx context.Context, unclassifiedOnly bool, limit int) ([]*models.Video, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVideoStore) ListVideoIDs(ctx context.Context, limit int) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVideoStore) ListStaleStats(ctx context.Context, olderThan time.Time, limit int) ([]*models.Video, error) {
	var out []*models.Video
	for _, v := range f.videos {
		if v.UpdatedAt.Before(olderThan) {
			out = append(out, v)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeVideoStore) SetShortFinal(ctx context.Context, videoID string, isShort bool) error {
	return errors.New("not implemented")
}

func (f *fakeVideoStore) SetShortsPlayable(ctx context.Context, videoID string, playable bool) error {
	return errors.New("not implemented")
}

func (f *fakeVideoStore) UpdateStats(ctx context.Context, videoID string, viewCount, likeCount int64) error {
	if err := f.statsErr[videoID]; err != nil {
		return err
	}
	f.stats[videoID] = [2]int64{viewCount, likeCount}
	return nil
}

// fakeChannelStore implements repository.ChannelRepository in memory.
type fakeChannelStore struct {
	channels    []*models.Channel
	checkpoints map[string]time.Time
	rewrites    map[string]string
	rewriteErr  error
	playlists   map[string]string
}

func newFakeChannelStore(channels ...*models.Channel) *fakeChannelStore {
	return &fakeChannelStore{
		channels:    channels,
		checkpoints: map[string]time.Time{},
		rewrites:    map[string]string{},
		playlists:   map[string]string{},
	}
}

func (f *fakeChannelStore) UpsertChannel(ctx context.Context, channel *models.Channel) error {
	return errors.New("not implemented")
}

func (f *fakeChannelStore) GetByID(ctx context.Context, channelID string) (*models.Channel, error) {
	for _, c := range f.channels {
		if c.ChannelID == channelID {
			return c, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeChannelStore) ListActive(ctx context.Context, checkedSince time.Time, limit int) ([]*models.Channel, error) {
	var out []*models.Channel
	for _, c := range f.channels {
		if !c.Active {
			continue
		}
		if c.LastChecked != nil && !c.LastChecked.After(checkedSince) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeChannelStore) RewriteChannelID(ctx context.Context, name, canonicalID string) error {
	if f.rewriteErr != nil {
		return f.rewriteErr
	}
	f.rewrites[name] = canonicalID
	return nil
}

func (f *fakeChannelStore) AdvanceLastChecked(ctx context.Context, channelID string, to time.Time) error {
	if prev, ok := f.checkpoints[channelID]; ok && !prev.Before(to) {
		return nil
	}
	f.checkpoints[channelID] = to
	return nil
}

func (f *fakeChannelStore) ListMissingUploadsPlaylist(ctx context.Context) ([]*models.Channel, error) {
	var out []*models.Channel
	for _, c := range f.channels {
		if c.UploadsPlaylistID == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChannelStore) SetUploadsPlaylistID(ctx context.Context, channelID, playlistID string) error {
	f.playlists[channelID] = playlistID
	return nil
}

// fakeQuotaStore implements repository.QuotaLogRepository in memory.
type fakeQuotaStore struct {
	entries []models.QuotaLog
	err     error
}

func (f *fakeQuotaStore) Record(ctx context.Context, runLabel string, usage int) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, models.QuotaLog{RunLabel: runLabel, Usage: usage})
	return nil
}

func (f *fakeQuotaStore) DailyUsage(ctx context.Context, days int) ([]*models.QuotaDay, error) {
	return nil, errors.New("not implemented")
}
