package bulk

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/grcdesk/grcdesk/internal/source"
)

type stubSource struct {
	failRisks bool
}

func (s stubSource) Governance(context.Context, grc.GovernanceFilter) source.Result[grc.GovernanceItem] {
	return source.OK([]grc.GovernanceItem{{ID: "g1", Status: grc.GovernanceCompleted, Progress: 100}})
}

func (s stubSource) Audits(context.Context) source.Result[grc.Audit] {
	return source.OK([]grc.Audit{{ID: "a1", Code: "AUD-1", Title: "SOX walkthrough", Status: grc.AuditInProgress}})
}

func (s stubSource) Findings(context.Context) source.Result[grc.AuditFinding] {
	return source.OK([]grc.AuditFinding{{ID: "f1", Severity: grc.SeverityCritical, Status: grc.FindingOpen}})
}

func (s stubSource) Schedules(context.Context) source.Result[grc.AuditSchedule] {
	return source.OK([]grc.AuditSchedule{{ID: "s1", Status: grc.ScheduleScheduled}})
}

func (s stubSource) Controls(context.Context) source.Result[grc.ComplianceControl] {
	return source.OK([]grc.ComplianceControl{{ID: "c1", Status: grc.ControlActive}})
}

func (s stubSource) Policies(context.Context) source.Result[grc.CompliancePolicy] {
	return source.OK([]grc.CompliancePolicy{{ID: "p1", Status: grc.PolicyApproved}})
}

func (s stubSource) Risks(context.Context) source.Result[grc.Risk] {
	if s.failRisks {
		return source.Failed[grc.Risk](&source.FetchError{Source: source.NameRisks, Status: 503})
	}
	return source.OK([]grc.Risk{{ID: "r1", Impact: grc.LevelHigh, Likelihood: grc.LevelLikely}})
}

type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  map[string]bool
}

func (s *memorySink) Put(_ context.Context, a export.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[a.Filename] {
		return errors.New("disk full")
	}
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[a.Filename] = a.Body
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Report(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) progress() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, e := range r.events {
		if e.Item != nil {
			out = append(out, e.Progress)
		}
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(src source.Source) (*Orchestrator, *recorder) {
	o := NewOrchestrator(report.NewAssembler(src))
	o.SetPacing(0)
	o.SetLogger(quietLogger())
	rec := &recorder{}
	o.SetReporter(rec)
	return o, rec
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(stubSource{})
	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"empty", Request{Format: export.FormatPDF}, ErrEmptySelection},
		{"unknown type", Request{Types: []report.Type{"weekly"}, Format: export.FormatPDF}, report.ErrUnknownType},
		{"unknown format", Request{Types: []report.Type{report.TypeRisk}, Format: "docx"}, export.ErrUnknownFormat},
	}
	for _, tc := range cases {
		if _, err := o.Run(context.Background(), tc.req, &memorySink{}); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
	if got := o.Snapshot().State; got != StateIdle {
		t.Fatalf("state after rejected requests = %q, want idle", got)
	}
}

func TestRunProgressIsMonotonicAndEndsAt100(t *testing.T) {
	t.Parallel()

	o, rec := newTestOrchestrator(stubSource{})
	sink := &memorySink{}
	types := report.Types()

	summary, err := o.Run(context.Background(), Request{Types: types, Format: export.FormatExcel}, sink)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	progress := rec.progress()
	if len(progress) != len(types) {
		t.Fatalf("progress events = %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress decreased: %v", progress)
		}
	}
	if progress[len(progress)-1] != 100 {
		t.Fatalf("final progress = %d", progress[len(progress)-1])
	}

	if summary.Exported != len(types) || summary.Failed != 0 || summary.Err() != nil {
		t.Fatalf("summary = %+v", summary)
	}
	for i, it := range summary.Items {
		if it.Report != types[i] {
			t.Fatalf("item %d report = %q, want %q", i, it.Report, types[i])
		}
	}
	if len(sink.files) != len(types) {
		t.Fatalf("artifacts = %d", len(sink.files))
	}

	snap := o.Snapshot()
	if snap.State != StateDone || snap.Progress != 100 || snap.Completed != len(types) || len(snap.Items) != len(types) {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestRunWithFailingRiskSource(t *testing.T) {
	t.Parallel()

	for _, f := range []export.Format{export.FormatCSV, export.FormatPDF, export.FormatExcel} {
		o, _ := newTestOrchestrator(stubSource{failRisks: true})
		sink := &memorySink{}

		summary, err := o.Run(context.Background(), Request{
			Types:  []report.Type{report.TypeAudit, report.TypeRisk},
			Format: f,
		}, sink)
		if err != nil {
			t.Fatalf("%s: Run() error = %v", f, err)
		}
		if len(summary.Items) != 2 {
			t.Fatalf("%s: items = %+v", f, summary.Items)
		}
		audit, risk := summary.Items[0], summary.Items[1]
		if audit.Status != StatusExported || len(sink.files[audit.Filename]) == 0 {
			t.Fatalf("%s: audit item = %+v", f, audit)
		}
		if risk.Status != StatusDegraded || len(risk.Degraded) != 1 || risk.Degraded[0] != source.NameRisks {
			t.Fatalf("%s: risk item = %+v", f, risk)
		}
		if _, ok := sink.files[risk.Filename]; !ok {
			t.Fatalf("%s: degraded risk artifact missing", f)
		}
	}
}

func TestRunContinuesAfterItemFailure(t *testing.T) {
	t.Parallel()

	o, rec := newTestOrchestrator(stubSource{})
	o.render = func(rep report.Report, f export.Format) (export.Artifact, error) {
		if rep.ReportMeta().Type == report.TypeGovernance {
			panic("renderer exploded")
		}
		return export.Render(rep, f)
	}
	today := time.Now().UTC().Format(time.DateOnly)
	sink := &memorySink{fail: map[string]bool{"audit_report_" + today + ".csv": true}}

	summary, err := o.Run(context.Background(), Request{
		Types:  []report.Type{report.TypeGovernance, report.TypeAudit, report.TypeRisk},
		Format: export.FormatCSV,
	}, sink)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Failed != 2 || summary.Exported != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Items[2].Status != StatusExported {
		t.Fatalf("risk item = %+v", summary.Items[2])
	}
	if err := summary.Err(); err == nil {
		t.Fatal("Summary.Err() = nil")
	}
	if got := rec.progress(); len(got) != 3 || got[2] != 100 {
		t.Fatalf("progress = %v", got)
	}
	if got := summary.Message(); got != "Exported 1 of 3 reports (0 degraded, 2 failed)" {
		t.Fatalf("Message() = %q", got)
	}
}

type blockingAssembler struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAssembler) Assemble(ctx context.Context, t report.Type, opts report.Options) (report.Report, error) {
	close(b.started)
	<-b.release
	return report.NewAssembler(stubSource{}).Assemble(ctx, t, opts)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	blocker := &blockingAssembler{started: make(chan struct{}), release: make(chan struct{})}
	o := NewOrchestrator(blocker)
	o.SetPacing(0)
	o.SetLogger(quietLogger())

	req := Request{Types: []report.Type{report.TypeRisk}, Format: export.FormatCSV}
	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), req, &memorySink{})
		done <- err
	}()

	<-blocker.started
	if snap := o.Snapshot(); snap.State != StateRunning || snap.Current != report.TypeRisk {
		t.Fatalf("snapshot while running = %+v", snap)
	}
	if _, err := o.Run(context.Background(), req, &memorySink{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
	close(blocker.release)
	if err := <-done; err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
}

func TestRunCanceledMarksRemainingFailed(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(stubSource{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := o.Run(ctx, Request{Types: []report.Type{report.TypeAudit, report.TypeRisk}, Format: export.FormatPDF}, &memorySink{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Failed != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestExecuteWithNilSinkResetsToIdle(t *testing.T) {
	t.Parallel()

	o, rec := newTestOrchestrator(stubSource{})
	if _, err := o.Run(context.Background(), Request{Types: []report.Type{report.TypeRisk}, Format: export.FormatPDF}, nil); err == nil {
		t.Fatal("Run(nil sink) error = nil")
	}
	if got := o.Snapshot().State; got != StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}
	last := rec.events[len(rec.events)-1]
	if !last.Done || last.Err == nil {
		t.Fatalf("last event = %+v", last)
	}
}

func TestZipSink(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(stubSource{})
	var buf bytes.Buffer
	sink := NewZipSink(&buf)

	summary, err := o.Run(context.Background(), Request{
		Types:  []report.Type{report.TypeCompliance, report.TypeManagement},
		Format: export.FormatPDF,
	}, sink)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := sink.Close(summary); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	var names []string
	var decoded Summary
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name != SummaryFilename {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open summary: %v", err)
		}
		if err := json.NewDecoder(rc).Decode(&decoded); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
		_ = rc.Close()
	}
	sort.Strings(names)
	want := []string{"compliance_report.pdf", "management_report.pdf", SummaryFilename}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] || names[2] != want[2] {
		t.Fatalf("zip entries = %v", names)
	}
	if decoded.RunID != summary.RunID || decoded.Exported != 2 {
		t.Fatalf("decoded summary = %+v", decoded)
	}
}

func TestDirJobWritesTimestampedRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	o, _ := newTestOrchestrator(stubSource{failRisks: true})
	at := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	job := &DirJob{
		Orchestrator: o,
		Request:      Request{Types: []report.Type{report.TypeRisk}, Format: export.FormatExcel},
		Dir:          dir,
		Now:          func() time.Time { return at },
	}
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	runDir := filepath.Join(dir, "20260501T060000Z")
	entries, err := os.ReadDir(runDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	raw, err := os.ReadFile(filepath.Join(runDir, SummaryFilename))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if s.Degraded != 1 || s.Items[0].Status != StatusDegraded {
		t.Fatalf("summary = %+v", s)
	}
}

type countingHandler struct {
	mu     sync.Mutex
	levels []slog.Level
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *countingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.levels = append(h.levels, r.Level)
	h.mu.Unlock()
	return nil
}

func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestLogReporterThrottlesProgress(t *testing.T) {
	t.Parallel()

	handler := &countingHandler{}
	reporter := &LogReporter{Logger: slog.New(handler), ProgressInterval: time.Hour}
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	const total = 10
	reporter.Report(Event{RunID: "run", Total: total, Message: "bulk export started", At: at})
	for i := 1; i <= total; i++ {
		item := &Item{Report: report.TypeAudit, Status: StatusExported}
		if i == 4 {
			item.Status = StatusFailed
			item.Error = "boom"
		}
		reporter.Report(Event{RunID: "run", Completed: i, Total: total, Progress: i * 10, Item: item, At: at.Add(time.Duration(i) * time.Second)})
	}
	reporter.Report(Event{RunID: "run", Completed: total, Total: total, Progress: 100, Done: true, At: at.Add(time.Minute)})

	// start, first item, failed item, last item, done
	if got := len(handler.levels); got != 5 {
		t.Fatalf("logged %d lines, want 5", got)
	}
	if handler.levels[2] != slog.LevelError {
		t.Fatalf("failed item logged at %v", handler.levels[2])
	}
}
