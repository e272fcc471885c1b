package report

import (
	"context"
	"fmt"
	"time"

	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/source"
	"golang.org/x/sync/errgroup"
)

// Options tune a single assembly.
type Options struct {
	// Filter narrows governance items. Other report types ignore it.
	Filter grc.GovernanceFilter
	// Detailed also fetches secondary collections (audit schedules and
	// compliance policies) used by the multi-sheet breakdowns.
	Detailed bool
}

// Assembler builds report records from a Source. Fetch failures never fail
// an assembly: the affected collection is replaced by an empty one and the
// failure is recorded in Meta.Sources.
type Assembler struct {
	Source source.Source
	Now    func() time.Time
}

func NewAssembler(src source.Source) *Assembler {
	return &Assembler{Source: src, Now: time.Now}
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

// Assemble builds the report for t.
func (a *Assembler) Assemble(ctx context.Context, t Type, opts Options) (Report, error) {
	switch t {
	case TypeGovernance:
		return a.Governance(ctx, opts.Filter), nil
	case TypeAudit:
		return a.Audit(ctx, opts.Detailed), nil
	case TypeCompliance:
		return a.Compliance(ctx, opts.Detailed), nil
	case TypeRisk:
		return a.Risk(ctx), nil
	case TypeManagement:
		return a.Management(ctx), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

func (a *Assembler) meta(t Type) Meta {
	return Meta{Type: t, Title: t.Title(), GeneratedAt: a.now(), Sources: []SourceStatus{}}
}

func status[T any](name string, res source.Result[T]) SourceStatus {
	st := SourceStatus{Name: name, Available: res.Available()}
	if res.Err != nil {
		st.Error = res.Err.Error()
	}
	return st
}

func (a *Assembler) Governance(ctx context.Context, filter grc.GovernanceFilter) GovernanceReport {
	meta := a.meta(TypeGovernance)
	res := a.Source.Governance(ctx, filter)
	meta.Sources = append(meta.Sources, status(source.NameGovernance, res))
	return buildGovernance(meta, filter, res.OrEmpty())
}

func (a *Assembler) Audit(ctx context.Context, detailed bool) AuditReport {
	meta := a.meta(TypeAudit)
	audits := a.Source.Audits(ctx)
	findings := a.Source.Findings(ctx)
	meta.Sources = append(meta.Sources, status(source.NameAudits, audits), status(source.NameFindings, findings))

	schedules := []grc.AuditSchedule{}
	if detailed {
		res := a.Source.Schedules(ctx)
		meta.Sources = append(meta.Sources, status(source.NameSchedules, res))
		schedules = res.OrEmpty()
	}
	return buildAudit(meta, audits.OrEmpty(), findings.OrEmpty(), schedules)
}

func (a *Assembler) Compliance(ctx context.Context, detailed bool) ComplianceReport {
	meta := a.meta(TypeCompliance)
	controls := a.Source.Controls(ctx)
	meta.Sources = append(meta.Sources, status(source.NameControls, controls))

	policies := []grc.CompliancePolicy{}
	if detailed {
		res := a.Source.Policies(ctx)
		meta.Sources = append(meta.Sources, status(source.NamePolicies, res))
		policies = res.OrEmpty()
	}
	return buildCompliance(meta, controls.OrEmpty(), policies)
}

func (a *Assembler) Risk(ctx context.Context) RiskReport {
	meta := a.meta(TypeRisk)
	res := a.Source.Risks(ctx)
	meta.Sources = append(meta.Sources, status(source.NameRisks, res))
	return buildRisk(meta, res.OrEmpty())
}

// Management fetches the governance, audit, compliance and risk domains
// concurrently and joins on all of them before assembling.
func (a *Assembler) Management(ctx context.Context) ManagementReport {
	var (
		g errgroup.Group

		governance source.Result[grc.GovernanceItem]
		audits     source.Result[grc.Audit]
		findings   source.Result[grc.AuditFinding]
		controls   source.Result[grc.ComplianceControl]
		policies   source.Result[grc.CompliancePolicy]
		risks      source.Result[grc.Risk]
	)

	g.Go(func() error {
		governance = guarded(source.NameGovernance, func() source.Result[grc.GovernanceItem] {
			return a.Source.Governance(ctx, grc.GovernanceFilter{})
		})
		return nil
	})
	g.Go(func() error {
		audits = guarded(source.NameAudits, func() source.Result[grc.Audit] { return a.Source.Audits(ctx) })
		findings = guarded(source.NameFindings, func() source.Result[grc.AuditFinding] { return a.Source.Findings(ctx) })
		return nil
	})
	g.Go(func() error {
		controls = guarded(source.NameControls, func() source.Result[grc.ComplianceControl] { return a.Source.Controls(ctx) })
		policies = guarded(source.NamePolicies, func() source.Result[grc.CompliancePolicy] { return a.Source.Policies(ctx) })
		return nil
	})
	g.Go(func() error {
		risks = guarded(source.NameRisks, func() source.Result[grc.Risk] { return a.Source.Risks(ctx) })
		return nil
	})
	_ = g.Wait()

	meta := a.meta(TypeManagement)
	meta.Sources = append(meta.Sources,
		status(source.NameGovernance, governance),
		status(source.NameAudits, audits),
		status(source.NameFindings, findings),
		status(source.NameControls, controls),
		status(source.NamePolicies, policies),
		status(source.NameRisks, risks),
	)
	return buildManagement(meta, managementInput{
		governance: governance.OrEmpty(),
		audits:     audits.OrEmpty(),
		findings:   findings.OrEmpty(),
		controls:   controls.OrEmpty(),
		policies:   policies.OrEmpty(),
		risks:      risks.OrEmpty(),
	})
}

// guarded runs fetch on a fan-out goroutine, where a panic cannot be
// recovered by the caller, and turns a panic into a failed result.
func guarded[T any](name string, fetch func() source.Result[T]) (res source.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = source.Failed[T](&source.FetchError{Source: name, Err: fmt.Errorf("panic: %v", r)})
		}
	}()
	return fetch()
}
