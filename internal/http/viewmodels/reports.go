package viewmodels

// ReportCard is one row of the reports index.
type ReportCard struct {
	Type     string
	Title    string
	JSONHref string
	Exports  []ExportLink
}

type ExportLink struct {
	Label string
	Href  string
}

// BulkExportView mirrors the orchestrator snapshot for display.
type BulkExportView struct {
	State     string
	Completed int
	Total     int
	Progress  int
	Current   string
	Message   string
}

type ReportsViewData struct {
	Layout  LayoutData
	Reports []ReportCard
	Formats []string
	Bulk    BulkExportView
}
