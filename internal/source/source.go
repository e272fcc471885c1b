// Package source fetches the GRC collections that reports are built from.
//
// Fetchers never fail outright: each call returns a Result holding either the
// collection or the error that prevented reading it. Callers decide how to
// degrade, usually with OrEmpty.
package source

import (
	"context"
	"fmt"

	"github.com/grcdesk/grcdesk/internal/grc"
)

// Collection names, used in errors, logs and metrics labels.
const (
	NameGovernance = "governance"
	NameAudits     = "audits"
	NameFindings   = "audit_findings"
	NameSchedules  = "audit_schedules"
	NameControls   = "compliance_controls"
	NamePolicies   = "compliance_policies"
	NameRisks      = "risks"
)

// Result is the outcome of one collection fetch.
type Result[T any] struct {
	Items []T
	Err   error
}

// OK wraps a successfully fetched collection.
func OK[T any](items []T) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Items: items}
}

// Failed wraps a fetch error.
func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Available reports whether the fetch succeeded.
func (r Result[T]) Available() bool {
	return r.Err == nil
}

// OrEmpty returns the fetched items, or an empty collection if the fetch
// failed.
func (r Result[T]) OrEmpty() []T {
	if r.Err != nil || r.Items == nil {
		return []T{}
	}
	return r.Items
}

// FetchError describes a failed read from a collection.
type FetchError struct {
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.Source, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Source reads every collection a report may depend on.
type Source interface {
	Governance(ctx context.Context, filter grc.GovernanceFilter) Result[grc.GovernanceItem]
	Audits(ctx context.Context) Result[grc.Audit]
	Findings(ctx context.Context) Result[grc.AuditFinding]
	Schedules(ctx context.Context) Result[grc.AuditSchedule]
	Controls(ctx context.Context) Result[grc.ComplianceControl]
	Policies(ctx context.Context) Result[grc.CompliancePolicy]
	Risks(ctx context.Context) Result[grc.Risk]
}
