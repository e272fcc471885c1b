// Package report assembles report-data records from GRC collections.
//
// Each report category has its own record type. All of them satisfy Report,
// which exporters switch on exhaustively.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type identifies a report category.
type Type string

const (
	TypeGovernance Type = "governance"
	TypeAudit      Type = "audit"
	TypeCompliance Type = "compliance"
	TypeRisk       Type = "risk"
	TypeManagement Type = "management"
)

// ErrUnknownType is returned for report type names that are not recognised.
var ErrUnknownType = errors.New("unknown report type")

// Types lists every report category in display order.
func Types() []Type {
	return []Type{TypeGovernance, TypeAudit, TypeCompliance, TypeRisk, TypeManagement}
}

// ParseType parses a report type name, ignoring case and surrounding space.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case TypeGovernance, TypeAudit, TypeCompliance, TypeRisk, TypeManagement:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
}

// ParseTypes parses a list of report type names, dropping duplicates while
// keeping the first occurrence order.
func ParseTypes(raw []string) ([]Type, error) {
	out := make([]Type, 0, len(raw))
	seen := make(map[Type]struct{}, len(raw))
	var errs []error
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		t, err := ParseType(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Name returns the artifact base name, e.g. "audit_report".
func (t Type) Name() string {
	return string(t) + "_report"
}

// Title returns the human readable report title.
func (t Type) Title() string {
	switch t {
	case TypeGovernance:
		return "Governance Report"
	case TypeAudit:
		return "Audit Report"
	case TypeCompliance:
		return "Compliance Report"
	case TypeRisk:
		return "Risk Report"
	case TypeManagement:
		return "Executive Summary"
	default:
		return string(t)
	}
}

// SourceStatus records whether one dependency of a report could be read.
type SourceStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Meta is shared by every report record.
type Meta struct {
	Type        Type           `json:"type"`
	Title       string         `json:"title"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Sources     []SourceStatus `json:"sources"`
}

// Degraded returns the names of sources that could not be read and were
// replaced by empty collections.
func (m Meta) Degraded() []string {
	var out []string
	for _, s := range m.Sources {
		if !s.Available {
			out = append(out, s.Name)
		}
	}
	return out
}

// Report is implemented by the record types in this package only.
type Report interface {
	ReportMeta() Meta
	isReport()
}

func (m Meta) ReportMeta() Meta { return m }
func (Meta) isReport()          {}
