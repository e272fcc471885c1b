package views

import (
	"net/url"
	"strconv"
	"strings"
)

func FormatInt(v int) string {
	return strconv.Itoa(v)
}

func QueryEscape(v string) string {
	return url.QueryEscape(v)
}

// ReportHref returns the JSON endpoint for a report type.
func ReportHref(reportType string) string {
	return "/api/reports/" + url.PathEscape(strings.TrimSpace(reportType))
}

// ExportHref returns the download endpoint for a report type in format.
func ExportHref(reportType, format string) string {
	return ReportHref(reportType) + "/export?format=" + url.QueryEscape(strings.TrimSpace(format))
}

// ProgressWidth clamps a percentage for use in an inline width style.
func ProgressWidth(progress int) string {
	progress = max(0, min(100, progress))
	return strconv.Itoa(progress) + "%"
}
