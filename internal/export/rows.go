package export

import (
	"strconv"
	"time"

	"github.com/grcdesk/grcdesk/internal/aggregate"
	"github.com/grcdesk/grcdesk/internal/grc"
)

// Field is one named cell of a flat record.
type Field struct {
	Key   string
	Value string
}

// Row is a flat record with ordered fields.
type Row []Field

func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, f := range r {
		keys = append(keys, f.Key)
	}
	return keys
}

// Get returns the value stored under key, or "".
func (r Row) Get(key string) string {
	for _, f := range r {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Sheet is one named table of a workbook.
type Sheet struct {
	Name string
	Rows []Row
}

// Metric is one line of a metric/value table.
type Metric struct {
	Name  string
	Value string
}

func metricRows(metrics []Metric) []Row {
	rows := make([]Row, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, Row{{"Metric", m.Name}, {"Value", m.Value}})
	}
	return rows
}

func countRows(label string, c aggregate.Counts) []Row {
	rows := make([]Row, 0, c.Len())
	c.Each(func(key string, n int) {
		rows = append(rows, Row{{label, key}, {"Count", strconv.Itoa(n)}})
	})
	return rows
}

func itoa(n int) string { return strconv.Itoa(n) }

func percent(n int) string { return strconv.Itoa(n) + "%" }

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func datePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return date(*t)
}

func governanceRows(items []grc.GovernanceItem) []Row {
	rows := make([]Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, Row{
			{"ID", it.ID},
			{"Title", it.Title},
			{"Status", it.Status},
			{"Type", it.Type},
			{"Department", it.Department()},
			{"Progress", itoa(it.Progress)},
			{"Due Date", datePtr(it.DueDate)},
			{"Created", date(it.CreatedAt)},
		})
	}
	return rows
}

func auditRows(audits []grc.Audit) []Row {
	rows := make([]Row, 0, len(audits))
	for _, a := range audits {
		rows = append(rows, Row{
			{"ID", a.ID},
			{"Code", a.Code},
			{"Title", a.Title},
			{"Status", a.Status},
			{"Type", a.Type},
			{"Start Date", datePtr(a.StartDate)},
			{"End Date", datePtr(a.EndDate)},
		})
	}
	return rows
}

func findingRows(findings []grc.AuditFinding) []Row {
	rows := make([]Row, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, Row{
			{"ID", f.ID},
			{"Audit ID", f.AuditID},
			{"Title", f.Title},
			{"Severity", f.Severity},
			{"Status", f.Status},
			{"Category", f.Category},
			{"Due Date", datePtr(f.DueDate)},
		})
	}
	return rows
}

func scheduleRows(schedules []grc.AuditSchedule) []Row {
	rows := make([]Row, 0, len(schedules))
	for _, s := range schedules {
		rows = append(rows, Row{
			{"ID", s.ID},
			{"Audit ID", s.AuditID},
			{"Title", s.Title},
			{"Scheduled Date", date(s.ScheduledDate)},
			{"Status", s.Status},
		})
	}
	return rows
}

func controlRows(controls []grc.ComplianceControl) []Row {
	rows := make([]Row, 0, len(controls))
	for _, c := range controls {
		rows = append(rows, Row{
			{"ID", c.ID},
			{"Code", c.Code},
			{"Title", c.Title},
			{"Framework", c.Framework},
			{"Status", c.Status},
		})
	}
	return rows
}

func policyRows(policies []grc.CompliancePolicy) []Row {
	rows := make([]Row, 0, len(policies))
	for _, p := range policies {
		rows = append(rows, Row{
			{"ID", p.ID},
			{"Title", p.Title},
			{"Version", p.Version},
			{"Status", p.Status},
		})
	}
	return rows
}

func riskRows(risks []grc.Risk) []Row {
	rows := make([]Row, 0, len(risks))
	for _, r := range risks {
		rows = append(rows, Row{
			{"ID", r.ID},
			{"Title", r.Title},
			{"Category", r.Category},
			{"Impact", r.Impact},
			{"Likelihood", r.Likelihood},
			{"Status", r.Status},
		})
	}
	return rows
}
