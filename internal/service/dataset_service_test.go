package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
)

func newCachedDatasets(repo *stubFeedRepo) (*DatasetService, *memoryCacheRepo, *MetricsService) {
	metrics := NewMetricsService()
	store := &memoryCacheRepo{}
	cache := NewCacheService(store, metrics, time.Minute, zap.NewNop(), true)
	return NewDatasetService(repo, cache, time.Minute, zap.NewNop()), store, metrics
}

func TestDatasetServiceCachesSnapshots(t *testing.T) {
	repo := fixtureFeeds()
	svc, store, metrics := newCachedDatasets(repo)

	first, hit := svc.Practice(context.Background())
	require.Len(t, first, len(repo.practice))
	assert.False(t, hit)
	assert.Contains(t, store.store, "dataset:practice")

	second, hit := svc.Practice(context.Background())
	assert.True(t, hit)
	assert.Equal(t, 1, repo.callCount("practice"))
	require.Len(t, second, len(first))
	assert.Equal(t, *first[0].Date, *second[0].Date)
	assert.Equal(t, first[0].BinaryRes, second[0].BinaryRes)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestDatasetServiceServesEmptySetOnFailure(t *testing.T) {
	repo := fixtureFeeds()
	repo.failures = map[string]error{"quiz": errFeedDown}
	svc, store, _ := newCachedDatasets(repo)

	events, hit := svc.Quiz(context.Background())
	assert.False(t, hit)
	assert.NotNil(t, events)
	assert.Empty(t, events)
	assert.NotContains(t, store.store, "dataset:quiz")
}

func TestDatasetServiceWithoutCache(t *testing.T) {
	repo := fixtureFeeds()
	svc := NewDatasetService(repo, nil, 0, nil)

	svc.Video(context.Background())
	videos, hit := svc.Video(context.Background())
	assert.False(t, hit)
	assert.Len(t, videos, len(repo.video))
	assert.Equal(t, 2, repo.callCount("video"))
}

func TestDatasetServiceLoadAllIsolatesFailures(t *testing.T) {
	repo := fixtureFeeds()
	repo.failures = map[string]error{"math": errFeedDown}
	svc, _, _ := newCachedDatasets(repo)

	snap := svc.LoadAll(context.Background())
	assert.Len(t, snap.Practice, len(repo.practice))
	assert.Len(t, snap.PracticeSessions, len(repo.sessions))
	assert.Len(t, snap.Quiz, len(repo.quiz))
	assert.Len(t, snap.Video, len(repo.video))
	assert.Empty(t, snap.Math)
	assert.False(t, snap.CacheHit)

	repo.failures = nil
	svc.Math(context.Background())
	again := svc.LoadAll(context.Background())
	assert.True(t, again.CacheHit)
}

func TestDatasetServiceRefresh(t *testing.T) {
	repo := fixtureFeeds()
	svc, store, _ := newCachedDatasets(repo)

	assert.Equal(t, []string{"practice", "practice_sessions", "quiz", "video", "math", "identity_0", "identity_1"}, svc.Feeds())

	rows, err := svc.Refresh(context.Background(), "identity_1")
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Contains(t, store.store, "dataset:identity_1")

	repo.failures = map[string]error{"video": errFeedDown}
	_, err = svc.Refresh(context.Background(), "video")
	assert.ErrorIs(t, err, errFeedDown)

	_, err = svc.Refresh(context.Background(), "attendance")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Invalidate(context.Background()))
	assert.Empty(t, store.store)
}
