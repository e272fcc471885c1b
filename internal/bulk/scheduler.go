package bulk

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"
)

type Runner interface {
	RunOnce(ctx context.Context) error
}

type Scheduler struct {
	Runner   Runner
	Interval time.Duration
}

func (s *Scheduler) Run(ctx context.Context) {
	if s.Runner == nil || s.Interval <= 0 {
		return
	}

	// Run immediately at startup.
	if err := s.Runner.RunOnce(ctx); err != nil {
		slog.Error("initial bulk export failed", "err", err)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Runner.RunOnce(ctx); err != nil {
				slog.Error("scheduled bulk export failed", "err", err)
			}
		}
	}
}

// DirJob runs one bulk export per call into a new timestamped directory
// under Dir.
type DirJob struct {
	Orchestrator *Orchestrator
	Request      Request
	Dir          string
	Now          func() time.Time
}

// RunDirName formats the per-run directory name.
func RunDirName(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func (j *DirJob) RunOnce(ctx context.Context) error {
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	sink := &DirSink{Dir: filepath.Join(j.Dir, RunDirName(now()))}

	summary, err := j.Orchestrator.Run(ctx, j.Request, sink)
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			slog.Warn("skipping bulk export; previous run still active")
			return nil
		}
		return err
	}
	if err := sink.WriteSummary(summary); err != nil {
		return err
	}
	return summary.Err()
}
