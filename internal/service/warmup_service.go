package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-insight-api/pkg/jobs"
)

const warmupJobType = "feed_refresh"

type feedRefresher interface {
	Feeds() []string
	Refresh(ctx context.Context, feed string) (int, error)
}

// WarmupConfig tunes background snapshot priming.
type WarmupConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
	Interval   time.Duration
}

// WarmupService primes the snapshot cache in the background so the first
// dashboard request does not pay for the CSV downloads. A failed refresh is
// retried by the queue.
type WarmupService struct {
	datasets feedRefresher
	queue    *jobs.Queue
	logger   *zap.Logger
	interval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWarmupService constructs a WarmupService.
func NewWarmupService(datasets feedRefresher, logger *zap.Logger, cfg WarmupConfig) *WarmupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &WarmupService{datasets: datasets, logger: logger, interval: cfg.Interval, stop: make(chan struct{})}
	s.queue = jobs.NewQueue("warmup", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the workers, schedules one refresh per feed and, with a
// positive interval, repeats that on every tick.
func (s *WarmupService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.EnqueueAll()
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.EnqueueAll()
			}
		}
	}()
}

// Stop halts the ticker and the workers.
func (s *WarmupService) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	s.wg.Wait()
	s.queue.Stop()
}

// EnqueueAll schedules a refresh of every feed and returns the job ids.
func (s *WarmupService) EnqueueAll() []string {
	feeds := s.datasets.Feeds()
	ids := make([]string, 0, len(feeds))
	for _, feed := range feeds {
		id, err := s.queue.Enqueue(jobs.Job{Type: warmupJobType, Key: feed})
		if err != nil {
			s.logger.Warn("warmup enqueue failed", zap.String("source", feed), zap.Error(err))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Stats returns the refresh outcomes since start.
func (s *WarmupService) Stats() jobs.Stats {
	return s.queue.Stats()
}

func (s *WarmupService) handle(ctx context.Context, job jobs.Job) error {
	rows, err := s.datasets.Refresh(ctx, job.Key)
	if err != nil {
		return err
	}
	s.logger.Debug("feed snapshot primed", zap.String("job_id", job.ID), zap.String("source", job.Key), zap.Int("rows", rows))
	return nil
}
