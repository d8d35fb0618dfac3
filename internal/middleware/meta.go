package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ResponseMeta is the envelope metadata collected while a request runs.
type ResponseMeta map[string]interface{}

const (
	responseMetaKey  = "response_meta"
	metaCacheHit     = "cache_hit"
	metaProcessingMS = "processing_time_ms"

	// SnapshotCacheHeader tells operators whether feed snapshots came from redis.
	SnapshotCacheHeader = "X-Snapshot-Cache"
)

// WithResponseMeta attaches an empty ResponseMeta to the request and fills in
// the processing time when the handler did not.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := ResponseMeta{}
		c.Set(responseMetaKey, meta)
		c.Next()
		if _, ok := meta[metaProcessingMS]; !ok {
			meta[metaProcessingMS] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records whether the snapshots behind the response were cached.
// Must run before the body is written for the header to reach the client.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	metaOf(c)[metaCacheHit] = hit
	if hit {
		c.Header(SnapshotCacheHeader, "HIT")
	} else {
		c.Header(SnapshotCacheHeader, "MISS")
	}
}

// ExtractMeta returns the request's metadata, or nil outside WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if v, ok := c.Get(responseMetaKey); ok {
		if meta, ok := v.(ResponseMeta); ok {
			return meta
		}
	}
	return nil
}

func metaOf(c *gin.Context) ResponseMeta {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := ResponseMeta{}
	c.Set(responseMetaKey, meta)
	return meta
}
