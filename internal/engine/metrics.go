package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests      atomic.Int64
	EnhancedRequests        atomic.Int64
	MultiVideoRequests      atomic.Int64
	CaptionFetches          atomic.Int64
	CaptionFetchErrors      atomic.Int64
	DataAPIRequests         atomic.Int64
	DataAPIErrors           atomic.Int64
	DataAPIKeyFallbacks     atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"transcript_requests":    metrics.TranscriptRequests.Load(),
		"enhanced_requests":      metrics.EnhancedRequests.Load(),
		"multi_video_requests":   metrics.MultiVideoRequests.Load(),
		"caption_fetches":        metrics.CaptionFetches.Load(),
		"caption_fetch_errors":   metrics.CaptionFetchErrors.Load(),
		"data_api_requests":      metrics.DataAPIRequests.Load(),
		"data_api_errors":        metrics.DataAPIErrors.Load(),
		"data_api_key_fallbacks": metrics.DataAPIKeyFallbacks.Load(),
		"cache_hits":             hits,
		"cache_misses":           misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"transcript_requests", "enhanced_requests", "multi_video_requests",
		"caption_fetches", "caption_fetch_errors",
		"data_api_requests", "data_api_errors", "data_api_key_fallbacks",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the ytserver tool layer.
func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }
func IncrEnhancedRequests()   { metrics.EnhancedRequests.Add(1) }
func IncrMultiVideoRequests() { metrics.MultiVideoRequests.Add(1) }

// Incrementors for the sources sub-package.
func IncrCaptionFetches()      { metrics.CaptionFetches.Add(1) }
func IncrCaptionFetchErrors()  { metrics.CaptionFetchErrors.Add(1) }
func IncrDataAPIRequests()     { metrics.DataAPIRequests.Add(1) }
func IncrDataAPIErrors()       { metrics.DataAPIErrors.Add(1) }
func IncrDataAPIKeyFallbacks() { metrics.DataAPIKeyFallbacks.Add(1) }
