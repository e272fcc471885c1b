package report

import (
	"time"

	"github.com/grcdesk/grcdesk/internal/aggregate"
	"github.com/grcdesk/grcdesk/internal/grc"
)

type GovernanceReport struct {
	Meta
	Filter          grc.GovernanceFilter `json:"filter"`
	Total           int                  `json:"total"`
	Completed       int                  `json:"completed"`
	InProgress      int                  `json:"inProgress"`
	AtRisk          int                  `json:"atRisk"`
	AverageProgress int                  `json:"averageProgress"`
	CompletionRate  int                  `json:"completionRate"`
	ByStatus        aggregate.Counts     `json:"byStatus"`
	ByType          aggregate.Counts     `json:"byType"`
	ByDepartment    aggregate.Counts     `json:"byDepartment"`
	Items           []grc.GovernanceItem `json:"items"`
}

type AuditReport struct {
	Meta
	TotalAudits        int                 `json:"totalAudits"`
	InProgress         int                 `json:"inProgress"`
	Completed          int                 `json:"completed"`
	ByStatus           aggregate.Counts    `json:"byStatus"`
	ByType             aggregate.Counts    `json:"byType"`
	TotalFindings      int                 `json:"totalFindings"`
	OpenFindings       int                 `json:"openFindings"`
	FindingsBySeverity aggregate.Counts    `json:"findingsBySeverity"`
	FindingsByStatus   aggregate.Counts    `json:"findingsByStatus"`
	CriticalFindings   []grc.AuditFinding  `json:"criticalFindings"`
	HighFindings       []grc.AuditFinding  `json:"highFindings"`
	Upcoming           []grc.AuditSchedule `json:"upcoming"`
	CompletedSchedules []grc.AuditSchedule `json:"completedSchedules"`
	Audits             []grc.Audit         `json:"audits"`
	Findings           []grc.AuditFinding  `json:"findings"`
	Schedules          []grc.AuditSchedule `json:"schedules"`
}

type ComplianceReport struct {
	Meta
	TotalControls     int                     `json:"totalControls"`
	EffectiveControls int                     `json:"effectiveControls"`
	Effectiveness     int                     `json:"effectiveness"`
	ControlsByStatus  aggregate.Counts        `json:"controlsByStatus"`
	TotalPolicies     int                     `json:"totalPolicies"`
	ApprovedPolicies  int                     `json:"approvedPolicies"`
	PoliciesByStatus  aggregate.Counts        `json:"policiesByStatus"`
	Score             int                     `json:"score"`
	Controls          []grc.ComplianceControl `json:"controls"`
	Policies          []grc.CompliancePolicy  `json:"policies"`
}

type RiskReport struct {
	Meta
	Total        int              `json:"total"`
	High         int              `json:"high"`
	ByImpact     aggregate.Counts `json:"byImpact"`
	ByLikelihood aggregate.Counts `json:"byLikelihood"`
	ByCategory   aggregate.Counts `json:"byCategory"`
	ByStatus     aggregate.Counts `json:"byStatus"`
	HighRisks    []grc.Risk       `json:"highRisks"`
	Risks        []grc.Risk       `json:"risks"`
}

// Trend compares how many records were created in the current window with
// the window before it.
type Trend struct {
	Metric   string `json:"metric"`
	Current  int    `json:"current"`
	Previous int    `json:"previous"`
	Change   int    `json:"change"`
}

type GovernanceSummary struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	AtRisk    int `json:"atRisk"`
}

type AuditSummary struct {
	Total            int `json:"total"`
	InProgress       int `json:"inProgress"`
	OpenFindings     int `json:"openFindings"`
	CriticalFindings int `json:"criticalFindings"`
}

type ComplianceSummary struct {
	Controls      int `json:"controls"`
	Effectiveness int `json:"effectiveness"`
	Policies      int `json:"policies"`
	Score         int `json:"score"`
}

type RiskSummary struct {
	Total    int              `json:"total"`
	High     int              `json:"high"`
	ByImpact aggregate.Counts `json:"byImpact"`
}

// ManagementReport is the cross-domain executive summary.
type ManagementReport struct {
	Meta
	Governance  GovernanceSummary `json:"governance"`
	Audit       AuditSummary      `json:"audit"`
	Compliance  ComplianceSummary `json:"compliance"`
	Risk        RiskSummary       `json:"risk"`
	TrendWindow string            `json:"trendWindow"`
	Trends      []Trend           `json:"trends"`
}

// TrendPeriod is the length of each period compared by management trends.
const TrendPeriod = 30 * 24 * time.Hour

func governanceActive(g grc.GovernanceItem) bool { return g.Status == grc.GovernanceInProgress }

func governanceCompleted(g grc.GovernanceItem) bool { return g.Status == grc.GovernanceCompleted }

func governanceAtRisk(g grc.GovernanceItem) bool {
	return g.Status == grc.GovernanceAtRisk || g.Status == grc.GovernanceBlocked
}

func findingOpen(f grc.AuditFinding) bool {
	return f.Status != grc.FindingResolved && f.Status != grc.FindingClosed
}

func buildGovernance(meta Meta, filter grc.GovernanceFilter, items []grc.GovernanceItem) GovernanceReport {
	progress := make([]int, 0, len(items))
	for _, it := range items {
		progress = append(progress, it.Progress)
	}
	completed := aggregate.Count(items, governanceCompleted)
	return GovernanceReport{
		Meta:            meta,
		Filter:          filter,
		Total:           len(items),
		Completed:       completed,
		InProgress:      aggregate.Count(items, governanceActive),
		AtRisk:          aggregate.Count(items, governanceAtRisk),
		AverageProgress: aggregate.Mean(progress),
		CompletionRate:  aggregate.Ratio(completed, len(items)),
		ByStatus:        aggregate.GroupBy(items, func(g grc.GovernanceItem) string { return g.Status }),
		ByType:          aggregate.GroupBy(items, func(g grc.GovernanceItem) string { return g.Type }),
		ByDepartment:    aggregate.GroupBy(items, grc.GovernanceItem.Department),
		Items:           items,
	}
}

func buildAudit(meta Meta, audits []grc.Audit, findings []grc.AuditFinding, schedules []grc.AuditSchedule) AuditReport {
	return AuditReport{
		Meta:               meta,
		TotalAudits:        len(audits),
		InProgress:         aggregate.Count(audits, func(a grc.Audit) bool { return a.Status == grc.AuditInProgress }),
		Completed:          aggregate.Count(audits, func(a grc.Audit) bool { return a.Status == grc.AuditCompleted }),
		ByStatus:           aggregate.GroupBy(audits, func(a grc.Audit) string { return a.Status }),
		ByType:             aggregate.GroupBy(audits, func(a grc.Audit) string { return a.Type }),
		TotalFindings:      len(findings),
		OpenFindings:       aggregate.Count(findings, findingOpen),
		FindingsBySeverity: aggregate.GroupBy(findings, func(f grc.AuditFinding) string { return f.Severity }),
		FindingsByStatus:   aggregate.GroupBy(findings, func(f grc.AuditFinding) string { return f.Status }),
		CriticalFindings:   aggregate.Filter(findings, func(f grc.AuditFinding) bool { return f.Severity == grc.SeverityCritical }),
		HighFindings:       aggregate.Filter(findings, func(f grc.AuditFinding) bool { return f.Severity == grc.SeverityHigh }),
		Upcoming:           aggregate.Filter(schedules, func(s grc.AuditSchedule) bool { return s.Status == grc.ScheduleScheduled }),
		CompletedSchedules: aggregate.Filter(schedules, func(s grc.AuditSchedule) bool { return s.Status == grc.ScheduleCompleted }),
		Audits:             audits,
		Findings:           findings,
		Schedules:          schedules,
	}
}

func buildCompliance(meta Meta, controls []grc.ComplianceControl, policies []grc.CompliancePolicy) ComplianceReport {
	effective := aggregate.Count(controls, func(c grc.ComplianceControl) bool { return c.Status == grc.ControlActive })
	approved := aggregate.Count(policies, func(p grc.CompliancePolicy) bool { return p.Status == grc.PolicyApproved })
	return ComplianceReport{
		Meta:              meta,
		TotalControls:     len(controls),
		EffectiveControls: effective,
		Effectiveness:     aggregate.Ratio(effective, len(controls)),
		ControlsByStatus:  aggregate.GroupBy(controls, func(c grc.ComplianceControl) string { return c.Status }),
		TotalPolicies:     len(policies),
		ApprovedPolicies:  approved,
		PoliciesByStatus:  aggregate.GroupBy(policies, func(p grc.CompliancePolicy) string { return p.Status }),
		Score:             aggregate.Ratio(effective+approved, len(controls)+len(policies)),
		Controls:          controls,
		Policies:          policies,
	}
}

func buildRisk(meta Meta, risks []grc.Risk) RiskReport {
	high := aggregate.Filter(risks, grc.Risk.IsHigh)
	return RiskReport{
		Meta:         meta,
		Total:        len(risks),
		High:         len(high),
		ByImpact:     aggregate.GroupBy(risks, func(r grc.Risk) string { return r.Impact }),
		ByLikelihood: aggregate.GroupBy(risks, func(r grc.Risk) string { return r.Likelihood }),
		ByCategory:   aggregate.GroupBy(risks, func(r grc.Risk) string { return r.Category }),
		ByStatus:     aggregate.GroupBy(risks, func(r grc.Risk) string { return r.Status }),
		HighRisks:    high,
		Risks:        risks,
	}
}

type managementInput struct {
	governance []grc.GovernanceItem
	audits     []grc.Audit
	findings   []grc.AuditFinding
	controls   []grc.ComplianceControl
	policies   []grc.CompliancePolicy
	risks      []grc.Risk
}

func buildManagement(meta Meta, in managementInput) ManagementReport {
	gov := buildGovernance(Meta{}, grc.GovernanceFilter{}, in.governance)
	aud := buildAudit(Meta{}, in.audits, in.findings, nil)
	comp := buildCompliance(Meta{}, in.controls, in.policies)
	risk := buildRisk(Meta{}, in.risks)

	now := meta.GeneratedAt
	return ManagementReport{
		Meta: meta,
		Governance: GovernanceSummary{
			Total:     gov.Total,
			Active:    gov.InProgress,
			Completed: gov.Completed,
			AtRisk:    gov.AtRisk,
		},
		Audit: AuditSummary{
			Total:            aud.TotalAudits,
			InProgress:       aud.InProgress,
			OpenFindings:     aud.OpenFindings,
			CriticalFindings: len(aud.CriticalFindings),
		},
		Compliance: ComplianceSummary{
			Controls:      comp.TotalControls,
			Effectiveness: comp.Effectiveness,
			Policies:      comp.TotalPolicies,
			Score:         comp.Score,
		},
		Risk: RiskSummary{
			Total:    risk.Total,
			High:     risk.High,
			ByImpact: risk.ByImpact,
		},
		TrendWindow: "30d",
		Trends: []Trend{
			trend("Governance items", now, in.governance, func(g grc.GovernanceItem) time.Time { return g.CreatedAt }),
			trend("Audits", now, in.audits, func(a grc.Audit) time.Time { return a.CreatedAt }),
			trend("Audit findings", now, in.findings, func(f grc.AuditFinding) time.Time { return f.CreatedAt }),
			trend("Compliance controls", now, in.controls, func(c grc.ComplianceControl) time.Time { return c.CreatedAt }),
			trend("Risks", now, in.risks, func(r grc.Risk) time.Time { return r.CreatedAt }),
		},
	}
}

// trend counts items created in (now-window, now] against the window before.
func trend[T any](metric string, now time.Time, items []T, created func(T) time.Time) Trend {
	currentStart := now.Add(-TrendPeriod)
	previousStart := currentStart.Add(-TrendPeriod)
	var cur, prev int
	for _, it := range items {
		at := created(it)
		switch {
		case at.After(currentStart) && !at.After(now):
			cur++
		case at.After(previousStart) && !at.After(currentStart):
			prev++
		}
	}
	return Trend{Metric: metric, Current: cur, Previous: prev, Change: aggregate.Change(cur, prev)}
}
