// Package export serializes report records into downloadable PDF, Excel and
// CSV artifacts.
package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format is an artifact format.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
	FormatCSV   Format = "csv"
)

var (
	// ErrUnknownFormat is returned for format names that are not recognised.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrEmptyInput is returned when an artifact needs at least one row.
	ErrEmptyInput = errors.New("nothing to export")
)

// Formats lists the supported formats in display order.
func Formats() []Format {
	return []Format{FormatPDF, FormatExcel, FormatCSV}
}

// ParseFormat accepts pdf, excel (or xlsx) and csv, ignoring case.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pdf":
		return FormatPDF, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	default:
		return string(f)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
