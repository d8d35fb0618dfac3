package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/internal/normalize"
	"github.com/noah-isme/student-insight-api/pkg/csvsource"
)

// Feed names used for logging, metrics and cache keys.
const (
	FeedPractice         = "practice"
	FeedPracticeSessions = "practice_sessions"
	FeedQuiz             = "quiz"
	FeedVideo            = "video"
	FeedMath             = "math"
	FeedIdentity         = "identity"
)

// FeedURLs holds the published CSV location of every feed. Empty entries are
// feeds that are not wired up yet.
type FeedURLs struct {
	Practice         string
	PracticeSessions string
	Quiz             string
	Video            string
	Math             string
	Identity         []string
}

// FeedRepository reads the CSV feeds and normalizes their rows. Every call
// hits the network; snapshot caching lives in the service layer.
type FeedRepository struct {
	loader     *csvsource.Loader
	normalizer *normalize.Normalizer
	urls       FeedURLs
}

// NewFeedRepository constructs a feed repository.
func NewFeedRepository(loader *csvsource.Loader, normalizer *normalize.Normalizer, urls FeedURLs) *FeedRepository {
	if normalizer == nil {
		normalizer = normalize.New(nil)
	}
	return &FeedRepository{loader: loader, normalizer: normalizer, urls: urls}
}

// Practice loads the practice attempts feed.
func (r *FeedRepository) Practice(ctx context.Context) ([]models.PracticeRecord, error) {
	return csvsource.Collect(ctx, r.loader, csvsource.Source{Name: FeedPractice, URL: r.urls.Practice}, r.normalizer.Practice)
}

// PracticeSessions loads the per-session summary feed.
func (r *FeedRepository) PracticeSessions(ctx context.Context) ([]models.PracticeSession, error) {
	return csvsource.Collect(ctx, r.loader, csvsource.Source{Name: FeedPracticeSessions, URL: r.urls.PracticeSessions}, r.normalizer.PracticeSession)
}

// Quiz loads the quiz event feed.
func (r *FeedRepository) Quiz(ctx context.Context) ([]models.QuizEvent, error) {
	return csvsource.Collect(ctx, r.loader, csvsource.Source{Name: FeedQuiz, URL: r.urls.Quiz}, r.normalizer.QuizEvent)
}

// Video loads the video session feed.
func (r *FeedRepository) Video(ctx context.Context) ([]models.VideoSession, error) {
	return csvsource.Collect(ctx, r.loader, csvsource.Source{Name: FeedVideo, URL: r.urls.Video}, r.normalizer.VideoSession)
}

// Math loads the math drill feed.
func (r *FeedRepository) Math(ctx context.Context) ([]models.MathDrill, error) {
	return csvsource.Collect(ctx, r.loader, csvsource.Source{Name: FeedMath, URL: r.urls.Math}, r.normalizer.MathDrill)
}

// IdentitySources returns the number of configured identity feeds.
func (r *FeedRepository) IdentitySources() int {
	return len(r.urls.Identity)
}

// Identities loads the login candidates of the identity feed at index i.
func (r *FeedRepository) Identities(ctx context.Context, i int) ([]models.StudentIdentity, error) {
	if i < 0 || i >= len(r.urls.Identity) {
		return []models.StudentIdentity{}, nil
	}
	src := csvsource.Source{Name: IdentityFeedName(i), URL: r.urls.Identity[i]}
	return csvsource.Collect(ctx, r.loader, src, r.normalizer.Identity)
}

// IdentityFeedName names the identity feed at index i.
func IdentityFeedName(i int) string {
	return fmt.Sprintf("%s_%d", FeedIdentity, i)
}
