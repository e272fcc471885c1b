// Package grc holds the read-only projections of governance, audit, compliance
// and risk records served by the collections API.
package grc

import (
	"strings"
	"time"
)

// Governance item statuses.
const (
	GovernanceNotStarted = "NOT_STARTED"
	GovernanceInProgress = "IN_PROGRESS"
	GovernanceBlocked    = "BLOCKED"
	GovernanceAtRisk     = "AT_RISK"
	GovernanceCompleted  = "COMPLETED"
	GovernanceDeferred   = "DEFERRED"
)

// Audit statuses.
const (
	AuditPlanned    = "PLANNED"
	AuditInProgress = "IN_PROGRESS"
	AuditCompleted  = "COMPLETED"
	AuditCancelled  = "CANCELLED"
)

// Finding severities.
const (
	SeverityCritical      = "CRITICAL"
	SeverityHigh          = "HIGH"
	SeverityMedium        = "MEDIUM"
	SeverityLow           = "LOW"
	SeverityInformational = "INFORMATIONAL"
)

// Finding statuses.
const (
	FindingOpen       = "OPEN"
	FindingInProgress = "IN_PROGRESS"
	FindingResolved   = "RESOLVED"
	FindingClosed     = "CLOSED"
)

// Schedule statuses.
const (
	ScheduleScheduled = "SCHEDULED"
	ScheduleCompleted = "COMPLETED"
	ScheduleCancelled = "CANCELLED"
)

// Control statuses.
const (
	ControlActive   = "ACTIVE"
	ControlInactive = "INACTIVE"
)

// Policy statuses.
const (
	PolicyDraft    = "DRAFT"
	PolicyPending  = "PENDING"
	PolicyApproved = "APPROVED"
	PolicyArchived = "ARCHIVED"
)

// Risk impact and likelihood levels.
const (
	LevelLow      = "LOW"
	LevelMedium   = "MEDIUM"
	LevelHigh     = "HIGH"
	LevelCritical = "CRITICAL"
	LevelLikely   = "LIKELY"
)

type Department struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Code      string    `json:"code" db:"code"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type GovernanceItem struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	Status         string     `json:"status" db:"status"`
	Type           string     `json:"type" db:"type"`
	DepartmentID   *string    `json:"departmentId" db:"department_id"`
	DepartmentName *string    `json:"departmentName,omitempty" db:"department_name"`
	Progress       int        `json:"progress" db:"progress"`
	DueDate        *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// Department returns the department label used for grouping.
func (g GovernanceItem) Department() string {
	if g.DepartmentName != nil && *g.DepartmentName != "" {
		return *g.DepartmentName
	}
	if g.DepartmentID != nil {
		return *g.DepartmentID
	}
	return ""
}

type Audit struct {
	ID        string     `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	Title     string     `json:"title" db:"title"`
	Status    string     `json:"status" db:"status"`
	Type      string     `json:"type" db:"type"`
	StartDate *time.Time `json:"startDate,omitempty" db:"start_date"`
	EndDate   *time.Time `json:"endDate,omitempty" db:"end_date"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

type AuditFinding struct {
	ID        string     `json:"id" db:"id"`
	AuditID   string     `json:"auditId" db:"audit_id"`
	Title     string     `json:"title" db:"title"`
	Severity  string     `json:"severity" db:"severity"`
	Status    string     `json:"status" db:"status"`
	Category  string     `json:"category" db:"category"`
	DueDate   *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

type AuditSchedule struct {
	ID            string    `json:"id" db:"id"`
	AuditID       string    `json:"auditId" db:"audit_id"`
	Title         string    `json:"title" db:"title"`
	ScheduledDate time.Time `json:"scheduledDate" db:"scheduled_date"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type ComplianceControl struct {
	ID        string    `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Title     string    `json:"title" db:"title"`
	Framework string    `json:"framework" db:"framework"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CompliancePolicy struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Version   string    `json:"version" db:"version"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Risk struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Category   string    `json:"category" db:"category"`
	Impact     string    `json:"impact" db:"impact"`
	Likelihood string    `json:"likelihood" db:"likelihood"`
	Status     string    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// IsHigh reports whether the risk has high or critical impact and a high or
// likely likelihood.
func (r Risk) IsHigh() bool {
	switch r.Impact {
	case LevelHigh, LevelCritical:
	default:
		return false
	}
	switch r.Likelihood {
	case LevelHigh, LevelLikely:
		return true
	default:
		return false
	}
}

// GovernanceFilter narrows governance items. Empty fields match everything.
type GovernanceFilter struct {
	Status       string `json:"status,omitempty" yaml:"status"`
	Type         string `json:"type,omitempty" yaml:"type"`
	DepartmentID string `json:"departmentId,omitempty" yaml:"departmentId"`
}

// IsZero reports whether the filter matches every item.
func (f GovernanceFilter) IsZero() bool {
	return f.Status == "" && f.Type == "" && f.DepartmentID == ""
}

// Match reports whether item satisfies the filter.
func (f GovernanceFilter) Match(item GovernanceItem) bool {
	if f.Status != "" && !strings.EqualFold(item.Status, f.Status) {
		return false
	}
	if f.Type != "" && !strings.EqualFold(item.Type, f.Type) {
		return false
	}
	if f.DepartmentID != "" {
		if item.DepartmentID == nil || *item.DepartmentID != f.DepartmentID {
			return false
		}
	}
	return true
}
