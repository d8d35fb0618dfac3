package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-insight-api/internal/models"
	"github.com/noah-isme/student-insight-api/internal/normalize"
	"github.com/noah-isme/student-insight-api/internal/repository"
	"github.com/noah-isme/student-insight-api/pkg/config"
	"github.com/noah-isme/student-insight-api/pkg/csvsource"
)

type probe struct {
	Feed       string
	Configured bool
	Rows       int
	ZeroKey    int
	Undated    int
	Duration   time.Duration
	Error      error
}

func main() {
	var (
		timeout time.Duration
		strict  bool
	)
	flag.DurationVar(&timeout, "timeout", 0, "Per-feed fetch timeout (defaults to SOURCES_FETCH_TIMEOUT)")
	flag.BoolVar(&strict, "strict", false, "Also fail when a feed has rows without a student key")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if timeout <= 0 {
		timeout = cfg.Sources.FetchTimeout
	}

	src := cfg.Sources
	feeds := repository.NewFeedRepository(csvsource.NewLoader(timeout, zap.NewNop()), normalize.New(src.Location()), repository.FeedURLs{
		Practice:         src.Practice,
		PracticeSessions: src.PracticeSessions,
		Quiz:             src.Quiz,
		Video:            src.Video,
		Math:             src.Math,
		Identity:         src.Identity,
	})

	ctx := context.Background()
	probes := []probe{
		measure(repository.FeedPractice, src.Practice, func() ([]models.PracticeRecord, error) { return feeds.Practice(ctx) },
			func(r models.PracticeRecord) (int64, bool) { return r.UserSN, r.Date != nil }),
		measure(repository.FeedPracticeSessions, src.PracticeSessions, func() ([]models.PracticeSession, error) { return feeds.PracticeSessions(ctx) },
			func(s models.PracticeSession) (int64, bool) { return s.UserSN, s.Date != nil }),
		measure(repository.FeedQuiz, src.Quiz, func() ([]models.QuizEvent, error) { return feeds.Quiz(ctx) },
			func(e models.QuizEvent) (int64, bool) { return e.UserSN, e.ActionTime != nil }),
		measure(repository.FeedVideo, src.Video, func() ([]models.VideoSession, error) { return feeds.Video(ctx) },
			func(v models.VideoSession) (int64, bool) { return v.UserSN, v.Day() != "" }),
		measure(repository.FeedMath, src.Math, func() ([]models.MathDrill, error) { return feeds.Math(ctx) },
			func(m models.MathDrill) (int64, bool) { return m.UserSN, m.LastModified != nil }),
	}
	for i := 0; i < feeds.IdentitySources(); i++ {
		idx := i
		probes = append(probes, measure(repository.IdentityFeedName(i), src.Identity[i], func() ([]models.StudentIdentity, error) { return feeds.Identities(ctx, idx) },
			func(s models.StudentIdentity) (int64, bool) { return s.StudentKey, true }))
	}

	failed := 0
	fmt.Printf("%-20s %-8s %8s %9s %8s %10s\n", "FEED", "STATUS", "ROWS", "ZERO_KEY", "UNDATED", "LATENCY")
	for _, p := range probes {
		status := "ok"
		switch {
		case !p.Configured:
			status = "unset"
		case p.Error != nil:
			status = "error"
			failed++
		case strict && p.ZeroKey > 0:
			status = "dirty"
			failed++
		}
		fmt.Printf("%-20s %-8s %8d %9d %8d %10s\n", p.Feed, status, p.Rows, p.ZeroKey, p.Undated, p.Duration.Round(time.Millisecond))
		if p.Error != nil {
			fmt.Printf("  %s: %v\n", p.Feed, p.Error)
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d feed(s) failed\n", failed)
		os.Exit(1)
	}
}

func measure[T any](feed, url string, load func() ([]T, error), inspect func(T) (key int64, dated bool)) probe {
	p := probe{Feed: feed, Configured: strings.TrimSpace(url) != ""}
	start := time.Now()
	rows, err := load()
	p.Duration = time.Since(start)
	if err != nil {
		p.Error = err
		return p
	}
	p.Rows = len(rows)
	for _, r := range rows {
		key, dated := inspect(r)
		if key == 0 {
			p.ZeroKey++
		}
		if !dated {
			p.Undated++
		}
	}
	return p
}
