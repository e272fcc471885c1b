package source

import (
	"context"

	"github.com/grcdesk/grcdesk/internal/grc"
)

// Reader is the subset of store queries used by StoreSource.
type Reader interface {
	ListGovernanceItems(ctx context.Context, filter grc.GovernanceFilter) ([]grc.GovernanceItem, error)
	ListAudits(ctx context.Context) ([]grc.Audit, error)
	ListAuditFindings(ctx context.Context) ([]grc.AuditFinding, error)
	ListAuditSchedules(ctx context.Context) ([]grc.AuditSchedule, error)
	ListComplianceControls(ctx context.Context) ([]grc.ComplianceControl, error)
	ListCompliancePolicies(ctx context.Context) ([]grc.CompliancePolicy, error)
	ListRisks(ctx context.Context) ([]grc.Risk, error)
}

// StoreSource reads collections in-process from the database.
type StoreSource struct {
	Q Reader
}

func NewStoreSource(q Reader) *StoreSource {
	return &StoreSource{Q: q}
}

func fromStore[T any](name string, items []T, err error) Result[T] {
	if err != nil {
		return Failed[T](&FetchError{Source: name, Err: err})
	}
	return OK(items)
}

func (s *StoreSource) Governance(ctx context.Context, filter grc.GovernanceFilter) Result[grc.GovernanceItem] {
	items, err := s.Q.ListGovernanceItems(ctx, filter)
	return fromStore(NameGovernance, items, err)
}

func (s *StoreSource) Audits(ctx context.Context) Result[grc.Audit] {
	items, err := s.Q.ListAudits(ctx)
	return fromStore(NameAudits, items, err)
}

func (s *StoreSource) Findings(ctx context.Context) Result[grc.AuditFinding] {
	items, err := s.Q.ListAuditFindings(ctx)
	return fromStore(NameFindings, items, err)
}

func (s *StoreSource) Schedules(ctx context.Context) Result[grc.AuditSchedule] {
	items, err := s.Q.ListAuditSchedules(ctx)
	return fromStore(NameSchedules, items, err)
}

func (s *StoreSource) Controls(ctx context.Context) Result[grc.ComplianceControl] {
	items, err := s.Q.ListComplianceControls(ctx)
	return fromStore(NameControls, items, err)
}

func (s *StoreSource) Policies(ctx context.Context) Result[grc.CompliancePolicy] {
	items, err := s.Q.ListCompliancePolicies(ctx)
	return fromStore(NamePolicies, items, err)
}

func (s *StoreSource) Risks(ctx context.Context) Result[grc.Risk] {
	items, err := s.Q.ListRisks(ctx)
	return fromStore(NameRisks, items, err)
}
