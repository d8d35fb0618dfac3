package models

import "time"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// SourceStatus describes the last load of one CSV feed.
type SourceStatus struct {
	Source   string     `json:"source"`
	Rows     int        `json:"rows"`
	Loads    uint64     `json:"loads"`
	Failures uint64     `json:"failures"`
	LastLoad *time.Time `json:"last_load,omitempty"`
	LastErr  string     `json:"last_error,omitempty"`
}

// SystemMetrics represents system level metrics captured from instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64        `json:"cache_hit_ratio"`
	CacheHits                uint64         `json:"cache_hits"`
	CacheMisses              uint64         `json:"cache_misses"`
	RequestsTotal            uint64         `json:"requests_total"`
	AverageRequestDurationMs float64        `json:"average_request_duration_ms"`
	SourceLoads              uint64         `json:"source_loads"`
	AverageSourceLoadMs      float64        `json:"average_source_load_ms"`
	AnalysisRequests         uint64         `json:"analysis_requests"`
	Sources                  []SourceStatus `json:"sources"`
	Goroutines               int            `json:"goroutines"`
	GeneratedAt              time.Time      `json:"generated_at"`
}
