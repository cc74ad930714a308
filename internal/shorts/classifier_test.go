package shorts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"madtown/video-aggregator/internal/db/models"
)

// fakeVideoRepo implements repository.VideoRepository in memory.
type fakeVideoRepo struct {
	videos       []*models.Video
	verdicts     map[string]bool
	playable     map[string]bool
	failWriteFor map[string]bool
	listErr      error
}

func newFakeVideoRepo(videos ...*models.Video) *fakeVideoRepo {
	return &fakeVideoRepo{
		videos:       videos,
		verdicts:     map[string]bool{},
		playable:     map[string]bool{},
		failWriteFor: map[string]bool{},
	}
}

func (f *fakeVideoRepo) UpsertBatch(ctx context.Context, videos []*models.Video) (int, int, error) {
	return 0, 0, errors.New("not implemented")
}

func (f *fakeVideoRepo) GetVideoByID(ctx context.Context, videoID string) (*models.Video, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVideoRepo) LatestPublishedAt(ctx context.Context) (time.Time, error) {
	return time.Time{}, errors.New("not implemented")
}

func (f *fakeVideoRepo) ListForClassification(ctx context.Context, unclassifiedOnly bool, limit int) ([]*models.Video, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Video
	for _, v := range f.videos {
		if unclassifiedOnly && v.IsShortFinal != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVideoRepo) ListVideoIDs(ctx context.Context, limit int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []string
	for _, v := range f.videos {
		ids = append(ids, v.VideoID)
	}
	return ids, nil
}

func (f *fakeVideoRepo) ListStaleStats(ctx context.Context, olderThan time.Time, limit int) ([]*models.Video, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVideoRepo) SetShortFinal(ctx context.Context, videoID string, isShort bool) error {
	if f.failWriteFor[videoID] {
		return errors.New("write failed")
	}
	f.verdicts[videoID] = isShort
	return nil
}

func (f *fakeVideoRepo) SetShortsPlayable(ctx context.Context, videoID string, playable bool) error {
	if f.failWriteFor[videoID] {
		return errors.New("write failed")
	}
	f.playable[videoID] = playable
	return nil
}

func (f *fakeVideoRepo) UpdateStats(ctx context.Context, videoID string, viewCount, likeCount int64) error {
	return errors.New("not implemented")
}

type fakeProber struct {
	signals PageSignals
	err     error
	calls   int
}

func (p *fakeProber) Probe(ctx context.Context, videoID string) (PageSignals, error) {
	p.calls++
	return p.signals, p.err
}

func video(id, title, duration string) *models.Video {
	return &models.Video{VideoID: id, Title: title, Duration: duration}
}

func TestClassifier_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("duration-only score stays below threshold", func(t *testing.T) {
		repo := newFakeVideoRepo(video("v1", "MADTOWN clip #1", "PT40S"))
		prober := &fakeProber{}
		c := NewClassifier(repo, prober, PageSignalStrategy(Thresholds{}), 0, zap.NewNop())

		result, err := c.Run(ctx, false, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
		assert.Equal(t, 1, result.Updated)
		assert.Equal(t, false, repo.verdicts["v1"])
	})

	t.Run("long-form cutoff skips the page probe", func(t *testing.T) {
		repo := newFakeVideoRepo(video("v1", "MADTOWN #shorts", "PT10M"))
		prober := &fakeProber{signals: PageSignals{Fetched: true, CanonicalShorts: true}}
		c := NewClassifier(repo, prober, PageSignalStrategy(Thresholds{}), 0, zap.NewNop())

		result, err := c.Run(ctx, false, 100)
		require.NoError(t, err)
		assert.Equal(t, false, repo.verdicts["v1"])
		assert.Equal(t, 1, result.LongForm)
		assert.Zero(t, prober.calls)
	})

	t.Run("probe failure defaults to long-form", func(t *testing.T) {
		repo := newFakeVideoRepo(video("v1", "MADTOWN #shorts", "PT30S"))
		prober := &fakeProber{err: errors.New("timeout")}
		c := NewClassifier(repo, prober, PageSignalStrategy(Thresholds{}), 0, zap.NewNop())

		result, err := c.Run(ctx, false, 100)
		require.NoError(t, err)
		verdict, ok := repo.verdicts["v1"]
		require.True(t, ok, "verdict must be written even when the probe fails")
		assert.False(t, verdict)
		assert.Equal(t, 1, result.Updated)
	})

	t.Run("page signals push score over threshold", func(t *testing.T) {
		repo := newFakeVideoRepo(video("v1", "MADTOWN highlight", "PT2M"))
		prober := &fakeProber{signals: PageSignals{Fetched: true, CanonicalShorts: true}}
		c := NewClassifier(repo, prober, PageSignalStrategy(Thresholds{}), 0, zap.NewNop())

		result, err := c.Run(ctx, false, 100)
		require.NoError(t, err)
		assert.Equal(t, true, repo.verdicts["v1"])
		assert.Equal(t, 1, result.Shorts)
	})

	t.Run("write failure does not abort the batch", func(t *testing.T) {
		repo := newFakeVideoRepo(
			video("v1", "a", "PT30S"),
			video("v2", "b", "PT30S"),
		)
		repo.failWriteFor["v1"] = true
		c := NewClassifier(repo, nil, LightStrategy(Thresholds{}), 0, zap.NewNop())

		result, err := c.Run(ctx, false, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Updated)
		assert.Contains(t, repo.verdicts, "v2")
	})

	t.Run("unclassified-only mode skips classified rows", func(t *testing.T) {
		classified := video("v1", "a", "PT30S")
		done := true
		classified.IsShortFinal = &done
		repo := newFakeVideoRepo(classified, video("v2", "b", "PT30S"))
		c := NewClassifier(repo, nil, LightStrategy(Thresholds{}), 0, zap.NewNop())

		result, err := c.Run(ctx, false, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
		assert.NotContains(t, repo.verdicts, "v1")
	})

	t.Run("recompute-all mode revisits classified rows", func(t *testing.T) {
		classified := video("v1", "a", "PT30S")
		done := true
		classified.IsShortFinal = &done
		repo := newFakeVideoRepo(classified)
		c := NewClassifier(repo, nil, LightStrategy(Thresholds{}), 0, zap.NewNop())

		result, err := c.Run(ctx, true, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)
		assert.Contains(t, repo.verdicts, "v1")
	})
}

func TestURLSyncer_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("writes playable flags", func(t *testing.T) {
		repo := newFakeVideoRepo(video("v1", "a", "PT30S"), video("v2", "b", "PT30S"))
		prober := newTestProber(t, httpOKForShorts("v1"))

		syncer := NewURLSyncer(repo, prober, 0, zap.NewNop())
		updated, err := syncer.Run(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 2, updated)
		assert.True(t, repo.playable["v1"])
		assert.False(t, repo.playable["v2"])
	})

	t.Run("write failure is skipped not fatal", func(t *testing.T) {
		repo := newFakeVideoRepo(video("v1", "a", "PT30S"), video("v2", "b", "PT30S"))
		repo.failWriteFor["v1"] = true
		prober := newTestProber(t, httpOKForShorts("v1", "v2"))

		syncer := NewURLSyncer(repo, prober, 0, zap.NewNop())
		updated, err := syncer.Run(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, updated)
	})
}
