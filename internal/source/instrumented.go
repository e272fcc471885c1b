package source

import (
	"context"
	"log/slog"

	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/metrics"
)

// Instrumented counts and logs failed fetches of the wrapped Source.
type Instrumented struct {
	Next   Source
	Logger *slog.Logger
}

func Instrument(next Source, logger *slog.Logger) *Instrumented {
	return &Instrumented{Next: next, Logger: logger}
}

func observe[T any](i *Instrumented, name string, res Result[T]) Result[T] {
	if res.Err == nil {
		return res
	}
	metrics.SourceFetchFailuresTotal.WithLabelValues(name).Inc()
	logger := i.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("collection fetch failed; using empty collection", "source", name, "err", res.Err)
	return res
}

func (i *Instrumented) Governance(ctx context.Context, filter grc.GovernanceFilter) Result[grc.GovernanceItem] {
	return observe(i, NameGovernance, i.Next.Governance(ctx, filter))
}

func (i *Instrumented) Audits(ctx context.Context) Result[grc.Audit] {
	return observe(i, NameAudits, i.Next.Audits(ctx))
}

func (i *Instrumented) Findings(ctx context.Context) Result[grc.AuditFinding] {
	return observe(i, NameFindings, i.Next.Findings(ctx))
}

func (i *Instrumented) Schedules(ctx context.Context) Result[grc.AuditSchedule] {
	return observe(i, NameSchedules, i.Next.Schedules(ctx))
}

func (i *Instrumented) Controls(ctx context.Context) Result[grc.ComplianceControl] {
	return observe(i, NameControls, i.Next.Controls(ctx))
}

func (i *Instrumented) Policies(ctx context.Context) Result[grc.CompliancePolicy] {
	return observe(i, NamePolicies, i.Next.Policies(ctx))
}

func (i *Instrumented) Risks(ctx context.Context) Result[grc.Risk] {
	return observe(i, NameRisks, i.Next.Risks(ctx))
}
