package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	CacheHits    int64
	CacheMisses  int64

	// Resolution engine counters
	SuggestionRuns int64
	ManualMatches  int64
	NewIdentities  int64
	Exclusions     int64
	AutoMatchRuns  int64
	AutoMatched    int64

	// Scoring counters
	SurveyRecalcs    int64
	CompositeRecalcs int64

	StartTime time.Time

	// Response time tracking for percentiles
	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	// Status code tracking
	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, 1000),
		RequestCountByStatus: make(map[int]int64),
	}
}

// IncrementRequest increments the request count
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementSuggestionRun counts one suggestion engine invocation
func (m *Metrics) IncrementSuggestionRun() {
	atomic.AddInt64(&m.SuggestionRuns, 1)
}

// IncrementManualMatch counts one human-confirmed match
func (m *Metrics) IncrementManualMatch() {
	atomic.AddInt64(&m.ManualMatches, 1)
}

// IncrementNewIdentity counts one create-person-and-match resolution
func (m *Metrics) IncrementNewIdentity() {
	atomic.AddInt64(&m.NewIdentities, 1)
}

// IncrementExclusion counts one nomination exclusion
func (m *Metrics) IncrementExclusion() {
	atomic.AddInt64(&m.Exclusions, 1)
}

// RecordAutoMatchRun counts one bulk auto-match run and its matches
func (m *Metrics) RecordAutoMatchRun(matched int) {
	atomic.AddInt64(&m.AutoMatchRuns, 1)
	atomic.AddInt64(&m.AutoMatched, int64(matched))
}

// IncrementSurveyRecalc counts one survey score recalculation
func (m *Metrics) IncrementSurveyRecalc() {
	atomic.AddInt64(&m.SurveyRecalcs, 1)
}

// IncrementCompositeRecalc counts one composite recalculation
func (m *Metrics) IncrementCompositeRecalc() {
	atomic.AddInt64(&m.CompositeRecalcs, 1)
}

// RecordResponseTime records a response time for percentile calculations
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.ResponseTimesMutex.Lock()
	defer m.ResponseTimesMutex.Unlock()

	m.ResponseTimes = append(m.ResponseTimes, duration)

	// Keep only the most recent 1000 samples
	if len(m.ResponseTimes) > 1000 {
		m.ResponseTimes = m.ResponseTimes[len(m.ResponseTimes)-1000:]
	}
}

// RecordRequestByStatus tracks request counts by status code
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()

	m.RequestCountByStatus[statusCode]++
}

// Percentile returns the given response time percentile in milliseconds
func (m *Metrics) Percentile(p float64) float64 {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.ResponseTimes))
	copy(sorted, m.ResponseTimes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * p / 100)
	return float64(sorted[idx].Milliseconds())
}

// GetStats returns a snapshot of all counters
func (m *Metrics) GetStats() map[string]interface{} {
	m.StatusMutex.RLock()
	byStatus := make(map[int]int64, len(m.RequestCountByStatus))
	for code, count := range m.RequestCountByStatus {
		byStatus[code] = count
	}
	m.StatusMutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":    time.Since(m.StartTime).Seconds(),
		"request_count":     atomic.LoadInt64(&m.RequestCount),
		"error_count":       atomic.LoadInt64(&m.ErrorCount),
		"cache_hits":        atomic.LoadInt64(&m.CacheHits),
		"cache_misses":      atomic.LoadInt64(&m.CacheMisses),
		"suggestion_runs":   atomic.LoadInt64(&m.SuggestionRuns),
		"manual_matches":    atomic.LoadInt64(&m.ManualMatches),
		"new_identities":    atomic.LoadInt64(&m.NewIdentities),
		"exclusions":        atomic.LoadInt64(&m.Exclusions),
		"auto_match_runs":   atomic.LoadInt64(&m.AutoMatchRuns),
		"auto_matched":      atomic.LoadInt64(&m.AutoMatched),
		"survey_recalcs":    atomic.LoadInt64(&m.SurveyRecalcs),
		"composite_recalcs": atomic.LoadInt64(&m.CompositeRecalcs),
		"requests_by_status": byStatus,
		"p50_ms":            m.Percentile(50),
		"p95_ms":            m.Percentile(95),
		"p99_ms":            m.Percentile(99),
	}
}
