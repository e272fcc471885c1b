package bulk

import (
	"log/slog"
	"sync"
	"time"
)

const defaultProgressInterval = 5 * time.Second

// LogReporter logs run events. Item progress is throttled to one line per
// ProgressInterval per run; failures, degraded items and the final event are
// always logged.
type LogReporter struct {
	Logger           *slog.Logger
	ProgressInterval time.Duration

	mu         sync.Mutex
	lastLogged map[string]time.Time
}

func (r *LogReporter) Report(e Event) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := e.At
	if now.IsZero() {
		now = time.Now()
	}

	attrs := []any{"run_id", e.RunID}
	if e.Format != "" {
		attrs = append(attrs, "format", e.Format)
	}
	if e.Report != "" {
		attrs = append(attrs, "report", e.Report)
	}
	if e.Total > 0 {
		attrs = append(attrs, "completed", e.Completed, "total", e.Total, "progress", e.Progress)
	}

	if e.Err != nil {
		attrs = append(attrs, "err", e.Err)
		logger.Error(messageOr(e.Message, "bulk export failed"), attrs...)
		return
	}
	if e.Done {
		r.forget(e.RunID)
		logger.Info(messageOr(e.Message, "bulk export complete"), attrs...)
		return
	}
	if e.Item != nil {
		attrs = append(attrs, "status", e.Item.Status, "duration_ms", e.Item.DurationMS)
		switch e.Item.Status {
		case StatusFailed:
			attrs = append(attrs, "err", e.Item.Error)
			logger.Error("report export failed", attrs...)
			return
		case StatusDegraded:
			attrs = append(attrs, "degraded_sources", e.Item.Degraded)
			logger.Warn("report exported with unavailable sources", attrs...)
			return
		}
	}
	if !r.shouldLog(now, e) {
		return
	}
	logger.Info(messageOr(e.Message, "report exported"), attrs...)
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

func (r *LogReporter) shouldLog(now time.Time, e Event) bool {
	// First and last item of a run always log.
	if e.Completed <= 1 || e.Completed >= e.Total {
		r.record(now, e.RunID)
		return true
	}

	interval := r.ProgressInterval
	if interval <= 0 {
		interval = defaultProgressInterval
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastLogged == nil {
		r.lastLogged = make(map[string]time.Time)
	}
	if last, ok := r.lastLogged[e.RunID]; ok && now.Sub(last) < interval {
		return false
	}
	r.lastLogged[e.RunID] = now
	return true
}

func (r *LogReporter) record(now time.Time, runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastLogged == nil {
		r.lastLogged = make(map[string]time.Time)
	}
	r.lastLogged[runID] = now
}

func (r *LogReporter) forget(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lastLogged, runID)
}
