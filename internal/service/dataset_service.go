package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/internal/repository"
	appErrors "github.com/noah-isme/student-insight-api/pkg/errors"
)

// FeedRepository describes the CSV feeds required by DatasetService.
type FeedRepository interface {
	Practice(ctx context.Context) ([]models.PracticeRecord, error)
	PracticeSessions(ctx context.Context) ([]models.PracticeSession, error)
	Quiz(ctx context.Context) ([]models.QuizEvent, error)
	Video(ctx context.Context) ([]models.VideoSession, error)
	Math(ctx context.Context) ([]models.MathDrill, error)
	IdentitySources() int
	Identities(ctx context.Context, i int) ([]models.StudentIdentity, error)
}

// Snapshot is the full normalized record set of every feed.
type Snapshot struct {
	Practice         []models.PracticeRecord
	PracticeSessions []models.PracticeSession
	Quiz             []models.QuizEvent
	Video            []models.VideoSession
	Math             []models.MathDrill
	// CacheHit is true only when every feed came from the cache.
	CacheHit bool
}

// DatasetService serves normalized feed snapshots. Loads never fail: a feed
// that cannot be fetched is logged and served as an empty set so the
// dashboards still render with the feeds they have.
type DatasetService struct {
	repo   FeedRepository
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDatasetService constructs a dataset service. A nil cache disables
// snapshot caching.
func NewDatasetService(repo FeedRepository, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Feeds lists the refreshable feed names, identity feeds included.
func (s *DatasetService) Feeds() []string {
	feeds := []string{
		repository.FeedPractice,
		repository.FeedPracticeSessions,
		repository.FeedQuiz,
		repository.FeedVideo,
		repository.FeedMath,
	}
	for i := 0; i < s.repo.IdentitySources(); i++ {
		feeds = append(feeds, repository.IdentityFeedName(i))
	}
	return feeds
}

// Practice returns the practice attempts and whether they came from cache.
func (s *DatasetService) Practice(ctx context.Context) ([]models.PracticeRecord, bool) {
	return cachedFeed(ctx, s, repository.FeedPractice, s.repo.Practice)
}

// PracticeSessions returns the per-session summaries.
func (s *DatasetService) PracticeSessions(ctx context.Context) ([]models.PracticeSession, bool) {
	return cachedFeed(ctx, s, repository.FeedPracticeSessions, s.repo.PracticeSessions)
}

// Quiz returns the quiz events.
func (s *DatasetService) Quiz(ctx context.Context) ([]models.QuizEvent, bool) {
	return cachedFeed(ctx, s, repository.FeedQuiz, s.repo.Quiz)
}

// Video returns the video sessions.
func (s *DatasetService) Video(ctx context.Context) ([]models.VideoSession, bool) {
	return cachedFeed(ctx, s, repository.FeedVideo, s.repo.Video)
}

// Math returns the math drills.
func (s *DatasetService) Math(ctx context.Context) ([]models.MathDrill, bool) {
	return cachedFeed(ctx, s, repository.FeedMath, s.repo.Math)
}

// Identities returns the login candidates of identity feed i.
func (s *DatasetService) Identities(ctx context.Context, i int) ([]models.StudentIdentity, bool) {
	return cachedFeed(ctx, s, repository.IdentityFeedName(i), func(ctx context.Context) ([]models.StudentIdentity, error) {
		return s.repo.Identities(ctx, i)
	})
}

// IdentitySources returns the number of identity feeds.
func (s *DatasetService) IdentitySources() int {
	return s.repo.IdentitySources()
}

// LoadAll loads every dashboard feed concurrently.
func (s *DatasetService) LoadAll(ctx context.Context) Snapshot {
	var (
		snap Snapshot
		hits [5]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { snap.Practice, hits[0] = s.Practice(gctx); return nil })
	g.Go(func() error { snap.PracticeSessions, hits[1] = s.PracticeSessions(gctx); return nil })
	g.Go(func() error { snap.Quiz, hits[2] = s.Quiz(gctx); return nil })
	g.Go(func() error { snap.Video, hits[3] = s.Video(gctx); return nil })
	g.Go(func() error { snap.Math, hits[4] = s.Math(gctx); return nil })
	_ = g.Wait()

	snap.CacheHit = true
	for _, hit := range hits {
		snap.CacheHit = snap.CacheHit && hit
	}
	return snap
}

// Refresh reloads one feed into the cache, returning load failures so the
// caller can retry.
func (s *DatasetService) Refresh(ctx context.Context, feed string) (int, error) {
	switch feed {
	case repository.FeedPractice:
		return refreshFeed(ctx, s, feed, s.repo.Practice)
	case repository.FeedPracticeSessions:
		return refreshFeed(ctx, s, feed, s.repo.PracticeSessions)
	case repository.FeedQuiz:
		return refreshFeed(ctx, s, feed, s.repo.Quiz)
	case repository.FeedVideo:
		return refreshFeed(ctx, s, feed, s.repo.Video)
	case repository.FeedMath:
		return refreshFeed(ctx, s, feed, s.repo.Math)
	}
	for i := 0; i < s.repo.IdentitySources(); i++ {
		if feed == repository.IdentityFeedName(i) {
			idx := i
			return refreshFeed(ctx, s, feed, func(ctx context.Context) ([]models.StudentIdentity, error) {
				return s.repo.Identities(ctx, idx)
			})
		}
	}
	return 0, appErrors.Clone(appErrors.ErrNotFound, "unknown feed "+feed)
}

// Invalidate drops every cached snapshot.
func (s *DatasetService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, datasetKey("*"))
}

func datasetKey(feed string) string {
	return makeCacheKey("dataset", feed)
}

func cachedFeed[T any](ctx context.Context, s *DatasetService, feed string, load func(context.Context) ([]T, error)) ([]T, bool) {
	key := datasetKey(feed)
	var cached []T
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		if cached == nil {
			cached = []T{}
		}
		return cached, true
	}

	records, err := load(ctx)
	if err != nil {
		s.logger.Warn("feed unavailable, serving empty data set", zap.String("source", feed), zap.Error(err))
		return []T{}, false
	}
	if err := s.cache.Set(ctx, key, records, s.ttl); err != nil {
		s.logger.Debug("snapshot not cached", zap.String("source", feed), zap.Error(err))
	}
	return records, false
}

func refreshFeed[T any](ctx context.Context, s *DatasetService, feed string, load func(context.Context) ([]T, error)) (int, error) {
	records, err := load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, datasetKey(feed), records, s.ttl); err != nil {
		return len(records), err
	}
	return len(records), nil
}
