package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/grcdesk/grcdesk/internal/source"
)

// Artifact is a rendered report ready for download or storage.
type Artifact struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Filename returns the artifact name for a report: "<name>_<YYYY-MM-DD>.csv"
// and ".xlsx" for spreadsheets, "<name>.pdf" for PDFs.
func Filename(t report.Type, f Format, at time.Time) string {
	if f == FormatPDF {
		return t.Name() + ".pdf"
	}
	return fmt.Sprintf("%s_%s.%s", t.Name(), at.Format(time.DateOnly), f.Extension())
}

// Render serializes rep in format f.
func Render(rep report.Report, f Format) (Artifact, error) {
	meta := rep.ReportMeta()
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatPDF:
		err = WritePDF(&buf, Document{
			Title:    meta.Title,
			Subtitle: "Generated " + meta.GeneratedAt.Format("2006-01-02 15:04 MST"),
			Notes:    degradedNotes(meta),
			Metrics:  Metrics(rep),
		})
	case FormatExcel:
		err = WriteWorkbook(&buf, Sheets(rep))
	case FormatCSV:
		err = WriteCSV(&buf, CSVRows(rep))
	default:
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s as %s: %w", meta.Type, f, err)
	}
	return Artifact{
		Filename:    Filename(meta.Type, f, meta.GeneratedAt),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

func degradedNotes(meta report.Meta) []string {
	degraded := meta.Degraded()
	if len(degraded) == 0 {
		return nil
	}
	return []string{"Unavailable sources (shown as empty): " + strings.Join(degraded, ", ")}
}

func consulted(meta report.Meta, name string) bool {
	for _, s := range meta.Sources {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Metrics returns the metric/value table for rep.
func Metrics(rep report.Report) []Metric {
	switch r := rep.(type) {
	case report.GovernanceReport:
		return []Metric{
			{"Total Items", itoa(r.Total)},
			{"Completed", itoa(r.Completed)},
			{"In Progress", itoa(r.InProgress)},
			{"At Risk or Blocked", itoa(r.AtRisk)},
			{"Completion Rate", percent(r.CompletionRate)},
			{"Average Progress", percent(r.AverageProgress)},
		}
	case report.AuditReport:
		m := []Metric{
			{"Total Audits", itoa(r.TotalAudits)},
			{"In Progress", itoa(r.InProgress)},
			{"Completed", itoa(r.Completed)},
			{"Total Findings", itoa(r.TotalFindings)},
			{"Open Findings", itoa(r.OpenFindings)},
			{"Critical Findings", itoa(len(r.CriticalFindings))},
			{"High Findings", itoa(len(r.HighFindings))},
		}
		if consulted(r.Meta, source.NameSchedules) {
			m = append(m,
				Metric{"Upcoming Audits", itoa(len(r.Upcoming))},
				Metric{"Completed Schedules", itoa(len(r.CompletedSchedules))},
			)
		}
		return m
	case report.ComplianceReport:
		m := []Metric{
			{"Total Controls", itoa(r.TotalControls)},
			{"Effective Controls", itoa(r.EffectiveControls)},
			{"Control Effectiveness", percent(r.Effectiveness)},
		}
		if consulted(r.Meta, source.NamePolicies) {
			m = append(m,
				Metric{"Total Policies", itoa(r.TotalPolicies)},
				Metric{"Approved Policies", itoa(r.ApprovedPolicies)},
				Metric{"Compliance Score", percent(r.Score)},
			)
		}
		return m
	case report.RiskReport:
		m := []Metric{
			{"Total Risks", itoa(r.Total)},
			{"High Risks", itoa(r.High)},
		}
		r.ByImpact.Each(func(level string, n int) {
			m = append(m, Metric{"Impact " + level, itoa(n)})
		})
		return m
	case report.ManagementReport:
		return []Metric{
			{"Governance Items", itoa(r.Governance.Total)},
			{"Active Governance Items", itoa(r.Governance.Active)},
			{"Completed Governance Items", itoa(r.Governance.Completed)},
			{"Audits", itoa(r.Audit.Total)},
			{"Audits In Progress", itoa(r.Audit.InProgress)},
			{"Open Findings", itoa(r.Audit.OpenFindings)},
			{"Critical Findings", itoa(r.Audit.CriticalFindings)},
			{"Compliance Controls", itoa(r.Compliance.Controls)},
			{"Control Effectiveness", percent(r.Compliance.Effectiveness)},
			{"Compliance Score", percent(r.Compliance.Score)},
			{"Total Risks", itoa(r.Risk.Total)},
			{"High Risks", itoa(r.Risk.High)},
		}
	default:
		panic(fmt.Sprintf("export: unhandled report %T", rep))
	}
}

// Sheets returns the workbook layout for rep.
func Sheets(rep report.Report) []Sheet {
	summary := Sheet{Name: "Summary", Rows: metricRows(Metrics(rep))}
	switch r := rep.(type) {
	case report.GovernanceReport:
		return []Sheet{
			summary,
			{Name: "Items", Rows: governanceRows(r.Items)},
			{Name: "By Status", Rows: countRows("Status", r.ByStatus)},
			{Name: "By Type", Rows: countRows("Type", r.ByType)},
			{Name: "By Department", Rows: countRows("Department", r.ByDepartment)},
		}
	case report.AuditReport:
		sheets := []Sheet{
			summary,
			{Name: "Audits", Rows: auditRows(r.Audits)},
			{Name: "Findings", Rows: findingRows(r.Findings)},
			{Name: "Findings by Severity", Rows: countRows("Severity", r.FindingsBySeverity)},
			{Name: "Findings by Status", Rows: countRows("Status", r.FindingsByStatus)},
			{Name: "Critical Findings", Rows: findingRows(r.CriticalFindings)},
		}
		if consulted(r.Meta, source.NameSchedules) {
			sheets = append(sheets,
				Sheet{Name: "Upcoming Audits", Rows: scheduleRows(r.Upcoming)},
				Sheet{Name: "Completed Schedules", Rows: scheduleRows(r.CompletedSchedules)},
			)
		}
		return sheets
	case report.ComplianceReport:
		sheets := []Sheet{
			summary,
			{Name: "Controls", Rows: controlRows(r.Controls)},
			{Name: "Controls by Status", Rows: countRows("Status", r.ControlsByStatus)},
		}
		if consulted(r.Meta, source.NamePolicies) {
			sheets = append(sheets,
				Sheet{Name: "Policies", Rows: policyRows(r.Policies)},
				Sheet{Name: "Policies by Status", Rows: countRows("Status", r.PoliciesByStatus)},
			)
		}
		return sheets
	case report.RiskReport:
		return []Sheet{
			summary,
			{Name: "Risks", Rows: riskRows(r.Risks)},
			{Name: "High Risks", Rows: riskRows(r.HighRisks)},
			{Name: "By Impact", Rows: countRows("Impact", r.ByImpact)},
			{Name: "By Likelihood", Rows: countRows("Likelihood", r.ByLikelihood)},
			{Name: "By Category", Rows: countRows("Category", r.ByCategory)},
		}
	case report.ManagementReport:
		return []Sheet{summary, {Name: "Trends", Rows: trendRows(r.Trends)}}
	default:
		panic(fmt.Sprintf("export: unhandled report %T", rep))
	}
}

// CSVRows returns the flat rows of rep's primary collection. Reports with no
// primary rows fall back to their metric table.
func CSVRows(rep report.Report) []Row {
	var rows []Row
	switch r := rep.(type) {
	case report.GovernanceReport:
		rows = governanceRows(r.Items)
	case report.AuditReport:
		rows = auditRows(r.Audits)
	case report.ComplianceReport:
		rows = controlRows(r.Controls)
	case report.RiskReport:
		rows = riskRows(r.Risks)
	case report.ManagementReport:
	default:
		panic(fmt.Sprintf("export: unhandled report %T", rep))
	}
	if len(rows) == 0 {
		return metricRows(Metrics(rep))
	}
	return rows
}

func trendRows(trends []report.Trend) []Row {
	rows := make([]Row, 0, len(trends))
	for _, t := range trends {
		rows = append(rows, Row{
			{"Metric", t.Metric},
			{"Last 30 Days", itoa(t.Current)},
			{"Previous 30 Days", itoa(t.Previous)},
			{"Change", fmt.Sprintf("%+d%%", t.Change)},
		})
	}
	return rows
}
