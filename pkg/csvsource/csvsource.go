// Package csvsource fetches published spreadsheet feeds and turns them into
// header-keyed rows.
package csvsource

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row maps a trimmed column name to its trimmed cell value.
type Row map[string]string

// Get returns the cell for key or "" when the column is absent.
func (r Row) Get(key string) string {
	if r == nil {
		return ""
	}
	return r[key]
}

// Source names a feed. An empty URL means the feed is not wired up yet.
type Source struct {
	Name string
	URL  string
}

// Configured reports whether the source points anywhere.
func (s Source) Configured() bool {
	return strings.TrimSpace(s.URL) != ""
}

// Observer receives load instrumentation.
type Observer interface {
	ObserveSourceLoad(source string, rows int, duration time.Duration, err error)
}

// Option customises a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithObserver attaches load instrumentation.
func WithObserver(observer Observer) Option {
	return func(l *Loader) {
		l.observer = observer
	}
}

// Loader downloads and parses CSV feeds.
type Loader struct {
	client   *http.Client
	logger   *zap.Logger
	observer Observer
}

// NewLoader builds a loader whose requests time out after timeout.
func NewLoader(timeout time.Duration, logger *zap.Logger, opts ...Option) *Loader {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Fetch downloads src and parses it into rows. An unconfigured source yields
// no rows and performs no request.
func (l *Loader) Fetch(ctx context.Context, src Source) ([]Row, error) {
	if !src.Configured() {
		return []Row{}, nil
	}
	start := time.Now()
	rows, err := l.fetch(ctx, src)
	if l.observer != nil {
		l.observer.ObserveSourceLoad(src.Name, len(rows), time.Since(start), err)
	}
	return rows, err
}

func (l *Loader) fetch(ctx context.Context, src Source) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(src.URL), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", src.Name, err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch %s: unexpected status %d", src.Name, resp.StatusCode)
	}

	rows, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Name, err)
	}
	return rows, nil
}

// Collect fetches src and applies normalize to every row, returning fetch and
// parse failures to the caller.
func Collect[T any](ctx context.Context, l *Loader, src Source, normalize func(Row) T) ([]T, error) {
	rows, err := l.Fetch(ctx, src)
	if err != nil {
		return []T{}, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalize(row))
	}
	return out, nil
}

// Load is Collect for callers that must always render: failures are logged
// and produce an empty result.
func Load[T any](ctx context.Context, l *Loader, src Source, normalize func(Row) T) []T {
	out, err := Collect(ctx, l, src, normalize)
	if err != nil {
		l.logger.Warn("csv source load failed",
			zap.String("source", src.Name),
			zap.String("url", src.URL),
			zap.Error(err),
		)
		return []T{}
	}
	return out
}

// Parse reads header-delimited CSV. Header names and cell values are trimmed;
// columns with a blank header are ignored and short rows leave the missing
// columns absent.
func Parse(r io.Reader) ([]Row, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	payload = bytes.TrimPrefix(payload, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = strings.TrimSpace(h)
	}

	rows := []Row{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(Row, len(keys))
		for i, value := range record {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			row[keys[i]] = strings.TrimSpace(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
