package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const maxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(
	":", "-", `\`, "-", "/", "-", "?", "-", "*", "-", "[", "-", "]", "-",
)

// SheetName makes name valid as a worksheet name: forbidden characters are
// replaced, leading and trailing apostrophes trimmed and the result cut to
// 31 characters.
func SheetName(name string) string {
	name = sheetNameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	name = strings.TrimRight(truncateRunes(name, maxSheetNameLen), "'")
	if strings.TrimSpace(name) == "" {
		return "Sheet"
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// uniqueSheetNames sanitizes names and suffixes duplicates with " (2)",
// " (3)" and so on. Comparison ignores case, as spreadsheet apps do.
func uniqueSheetNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		base := SheetName(raw)
		name := base
		for i := 2; ; i++ {
			if _, dup := seen[strings.ToLower(name)]; !dup {
				break
			}
			suffix := fmt.Sprintf(" (%d)", i)
			name = strings.TrimRight(truncateRunes(base, maxSheetNameLen-utf8.RuneCountInString(suffix)), "'") + suffix
		}
		seen[strings.ToLower(name)] = struct{}{}
		out = append(out, name)
	}
	return out
}

// WriteWorkbook writes sheets, in order, as an xlsx workbook. Each sheet has
// a bold header row taken from its first row's keys. A sheet without rows
// holds a single "No data" cell.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return ErrEmptyInput
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("excel: header style: %w", err)
	}

	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	names = uniqueSheetNames(names)

	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		name := names[i]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("excel: rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("excel: add sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, s.Rows, bold); err != nil {
			return fmt.Errorf("excel: sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("excel: write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows []Row, headerStyle int) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return f.SetCellValue(sheet, "A1", "No data")
	}

	header := rows[0].Keys()
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	values := make([]string, len(header))
	for i, row := range rows {
		for j, key := range header {
			values[j] = row.Get(key)
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 20)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
