package middleware

import (
	"sync"
	"time"

	"github.com/foiafeed/foiafeed/internal/infrastructure/logger"
)

// RunMetrics counts what one pipeline pass did.
type RunMetrics struct {
	mu sync.Mutex

	startTime time.Time

	outlets         int64
	feedFailures    int64
	entries         int64
	duplicates      int64
	processed       int64
	extractFailures int64
	matched         int64
	posted          int64
	publishFailures int64
}

// RunReport is a point-in-time snapshot of the counters.
type RunReport struct {
	Duration        time.Duration
	Outlets         int64
	FeedFailures    int64
	Entries         int64
	Duplicates      int64
	Processed       int64
	ExtractFailures int64
	Matched         int64
	Posted          int64
	PublishFailures int64
}

// NewRunMetrics creates a counter set for one run.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{startTime: time.Now()}
}

// OutletDone records one outlet fully handled; failed marks a feed that
// could not be fetched or parsed.
func (m *RunMetrics) OutletDone(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outlets++
	if failed {
		m.feedFailures++
	}
}

// Entries records how many feed entries an outlet yielded.
func (m *RunMetrics) Entries(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries += count
}

// DuplicateSkipped records an entry dropped by the dedup horizon.
func (m *RunMetrics) DuplicateSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duplicates++
}

// ArticleProcessed records one article that survived dedup filtering.
func (m *RunMetrics) ArticleProcessed(extractFailed, matched bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	if extractFailed {
		m.extractFailures++
	}
	if matched {
		m.matched++
	}
}

// PublishOutcome records whether the status post succeeded.
func (m *RunMetrics) PublishOutcome(posted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if posted {
		m.posted++
	} else {
		m.publishFailures++
	}
}

// Report returns a snapshot of the counters.
func (m *RunMetrics) Report() RunReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	return RunReport{
		Duration:        time.Since(m.startTime),
		Outlets:         m.outlets,
		FeedFailures:    m.feedFailures,
		Entries:         m.entries,
		Duplicates:      m.duplicates,
		Processed:       m.processed,
		ExtractFailures: m.extractFailures,
		Matched:         m.matched,
		Posted:          m.posted,
		PublishFailures: m.publishFailures,
	}
}

// LogReport writes the run summary to the log.
func (m *RunMetrics) LogReport() {
	report := m.Report()
	logger.Info("run summary",
		"duration", report.Duration,
		"outlets", report.Outlets,
		"feed_failures", report.FeedFailures,
		"entries", report.Entries,
		"duplicates_skipped", report.Duplicates,
		"articles_processed", report.Processed,
		"extract_failures", report.ExtractFailures,
		"matched", report.Matched,
		"posted", report.Posted,
		"publish_failures", report.PublishFailures,
	)
}
