// Package bulk exports several report types in one sequential run.
//
// Items run strictly one after another so progress is meaningful and only one
// report's data is held in memory at a time. A failing item is logged and
// recorded in the run summary; it never stops the items after it.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grcdesk/grcdesk/internal/aggregate"
	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/metrics"
	"github.com/grcdesk/grcdesk/internal/report"
)

// DefaultPacing is the pause between two items of a run.
const DefaultPacing = 500 * time.Millisecond

var (
	// ErrEmptySelection is returned when a run is requested with no report types.
	ErrEmptySelection = errors.New("select at least one report to export")
	// ErrAlreadyRunning is returned when a run is requested while another is active.
	ErrAlreadyRunning = errors.New("a bulk export is already running")
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateDone    State = "done"
)

type Status string

const (
	StatusExported Status = "exported"
	// StatusDegraded marks an artifact built with one or more sources replaced
	// by empty collections.
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Item is the outcome of one report type within a run.
type Item struct {
	Report     report.Type `json:"report"`
	Status     Status      `json:"status"`
	Filename   string      `json:"filename,omitempty"`
	Degraded   []string    `json:"degradedSources,omitempty"`
	Error      string      `json:"error,omitempty"`
	DurationMS int64       `json:"durationMs"`
}

// Request selects what a run exports.
type Request struct {
	Types  []report.Type
	Format export.Format
	Filter grc.GovernanceFilter
}

// Validate rejects empty selections and unknown types or formats.
func (r Request) Validate() error {
	if len(r.Types) == 0 {
		return ErrEmptySelection
	}
	for _, t := range r.Types {
		if _, err := report.ParseType(string(t)); err != nil {
			return err
		}
	}
	switch r.Format {
	case export.FormatPDF, export.FormatExcel, export.FormatCSV:
	default:
		return fmt.Errorf("%w: %q", export.ErrUnknownFormat, r.Format)
	}
	return nil
}

// Summary describes a finished run.
type Summary struct {
	RunID      string        `json:"runId"`
	Format     export.Format `json:"format"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Exported   int           `json:"exported"`
	Degraded   int           `json:"degraded"`
	Failed     int           `json:"failed"`
	Items      []Item        `json:"items"`
}

// Err joins the errors of failed items, or returns nil.
func (s Summary) Err() error {
	var errs []error
	for _, it := range s.Items {
		if it.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %s", it.Report, it.Error))
		}
	}
	return errors.Join(errs...)
}

// Message is a one line human readable outcome.
func (s Summary) Message() string {
	return fmt.Sprintf("Exported %d of %d reports (%d degraded, %d failed)",
		s.Exported+s.Degraded, len(s.Items), s.Degraded, s.Failed)
}

// Snapshot is the observable state of the orchestrator.
type Snapshot struct {
	State     State         `json:"state"`
	RunID     string        `json:"runId,omitempty"`
	Format    export.Format `json:"format,omitempty"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Progress  int           `json:"progress"`
	Current   report.Type   `json:"current,omitempty"`
	Items     []Item        `json:"outcomes"`
}

// Assembler builds one report record.
type Assembler interface {
	Assemble(ctx context.Context, t report.Type, opts report.Options) (report.Report, error)
}

// Sink stores the artifacts produced by a run.
type Sink interface {
	Put(ctx context.Context, a export.Artifact) error
}

type Orchestrator struct {
	assembler Assembler
	reporter  Reporter
	pacing    time.Duration
	render    func(report.Report, export.Format) (export.Artifact, error)
	logger    *slog.Logger

	mu   sync.Mutex
	snap Snapshot
}

func NewOrchestrator(a Assembler) *Orchestrator {
	return &Orchestrator{
		assembler: a,
		pacing:    DefaultPacing,
		render:    export.Render,
		snap:      Snapshot{State: StateIdle, Items: []Item{}},
	}
}

func (o *Orchestrator) SetReporter(r Reporter) {
	o.reporter = r
}

// SetPacing sets the pause between items. Zero disables it.
func (o *Orchestrator) SetPacing(d time.Duration) {
	if d < 0 {
		d = 0
	}
	o.pacing = d
}

func (o *Orchestrator) SetLogger(l *slog.Logger) {
	o.logger = l
}

func (o *Orchestrator) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}

func (o *Orchestrator) report(e Event) {
	if o.reporter == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	o.reporter.Report(e)
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.snap
	s.Items = append([]Item{}, o.snap.Items...)
	return s
}

// Begin validates req and claims the orchestrator for a run. Callers that
// need to reject a request before committing to a response use Begin and
// then Execute; Run does both.
func (o *Orchestrator) Begin(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.snap.State == StateRunning {
		return "", ErrAlreadyRunning
	}
	runID := uuid.NewString()
	o.snap = Snapshot{
		State:  StateRunning,
		RunID:  runID,
		Format: req.Format,
		Total:  len(req.Types),
		Items:  []Item{},
	}
	metrics.BulkExportProgress.Set(0)
	return runID, nil
}

// Run validates req and exports every selected report into sink.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) (Summary, error) {
	runID, err := o.Begin(req)
	if err != nil {
		return Summary{}, err
	}
	return o.Execute(ctx, runID, req, sink)
}

// Execute runs a request previously accepted by Begin.
func (o *Orchestrator) Execute(ctx context.Context, runID string, req Request, sink Sink) (summary Summary, err error) {
	o.mu.Lock()
	claimed := o.snap.State == StateRunning && o.snap.RunID == runID
	o.mu.Unlock()
	if !claimed {
		return Summary{}, fmt.Errorf("bulk run %q was not started", runID)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bulk export aborted: %v", r)
		}
		if err != nil {
			o.reset()
			metrics.BulkExportRunsTotal.WithLabelValues("error").Inc()
			o.log().Error("bulk export failed", "run_id", runID, "err", err)
			o.report(Event{RunID: runID, Format: req.Format, Err: err, Done: true})
		}
	}()

	if sink == nil {
		return Summary{}, errors.New("bulk export sink is nil")
	}

	summary = Summary{
		RunID:     runID,
		Format:    req.Format,
		StartedAt: time.Now().UTC(),
		Items:     make([]Item, 0, len(req.Types)),
	}
	total := len(req.Types)
	o.log().Info("bulk export started", "run_id", runID, "format", req.Format, "reports", len(req.Types))
	o.report(Event{RunID: runID, Format: req.Format, Total: total, Message: "bulk export started"})

	for i, t := range req.Types {
		o.setCurrent(t)

		var item Item
		if ctxErr := ctx.Err(); ctxErr != nil {
			item = Item{Report: t, Status: StatusFailed, Error: ctxErr.Error()}
		} else {
			item = o.runItem(ctx, t, req, sink)
		}
		summary.Items = append(summary.Items, item)
		switch item.Status {
		case StatusExported:
			summary.Exported++
		case StatusDegraded:
			summary.Degraded++
		default:
			summary.Failed++
		}

		completed := i + 1
		progress := aggregate.Ratio(completed, total)
		o.setProgress(completed, progress, item)
		metrics.BulkExportProgress.Set(float64(progress))
		o.report(Event{
			RunID:     runID,
			Format:    req.Format,
			Report:    t,
			Completed: completed,
			Total:     total,
			Progress:  progress,
			Item:      &item,
		})

		if completed < total {
			o.pause(ctx)
		}
	}

	summary.FinishedAt = time.Now().UTC()
	o.finish()

	status := "success"
	switch {
	case summary.Failed == total:
		status = "failure"
	case summary.Failed > 0 || summary.Degraded > 0:
		status = "partial"
	}
	metrics.BulkExportRunsTotal.WithLabelValues(status).Inc()
	o.log().Info("bulk export finished",
		"run_id", runID,
		"exported", summary.Exported,
		"degraded", summary.Degraded,
		"failed", summary.Failed,
	)
	o.report(Event{
		RunID:     runID,
		Format:    req.Format,
		Completed: total,
		Total:     total,
		Progress:  100,
		Message:   summary.Message(),
		Done:      true,
	})
	return summary, nil
}

func (o *Orchestrator) runItem(ctx context.Context, t report.Type, req Request, sink Sink) (item Item) {
	start := time.Now()
	item = Item{Report: t}
	defer func() {
		if r := recover(); r != nil {
			item.Status = StatusFailed
			item.Error = fmt.Sprintf("panic: %v", r)
		}
		elapsed := time.Since(start)
		item.DurationMS = elapsed.Milliseconds()
		metrics.ReportExportDuration.WithLabelValues(string(t), string(req.Format)).Observe(elapsed.Seconds())
		metrics.ReportExportsTotal.WithLabelValues(string(t), string(req.Format), string(item.Status)).Inc()
		if item.Status == StatusFailed {
			o.log().Error("report export failed", "report", t, "format", req.Format, "err", item.Error)
		}
	}()

	fail := func(err error) Item {
		item.Status = StatusFailed
		item.Error = err.Error()
		return item
	}

	rep, err := o.assembler.Assemble(ctx, t, report.Options{
		Filter:   req.Filter,
		Detailed: req.Format != export.FormatPDF,
	})
	if err != nil {
		return fail(fmt.Errorf("assemble: %w", err))
	}
	art, err := o.render(rep, req.Format)
	if err != nil {
		return fail(err)
	}
	if err := sink.Put(ctx, art); err != nil {
		return fail(fmt.Errorf("store %s: %w", art.Filename, err))
	}

	item.Filename = art.Filename
	item.Degraded = rep.ReportMeta().Degraded()
	item.Status = StatusExported
	if len(item.Degraded) > 0 {
		item.Status = StatusDegraded
	}
	return item
}

func (o *Orchestrator) pause(ctx context.Context) {
	if o.pacing <= 0 {
		return
	}
	timer := time.NewTimer(o.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (o *Orchestrator) setCurrent(t report.Type) {
	o.mu.Lock()
	o.snap.Current = t
	o.mu.Unlock()
}

func (o *Orchestrator) setProgress(completed, progress int, item Item) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap.Completed = completed
	o.snap.Progress = progress
	o.snap.Items = append(o.snap.Items, item)
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap.State = StateDone
	o.snap.Current = ""
}

func (o *Orchestrator) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snap = Snapshot{State: StateIdle, Items: []Item{}}
}
