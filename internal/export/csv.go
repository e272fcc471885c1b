package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes rows as comma separated values. The header is taken from
// the first row's keys in order; later rows are written in header order with
// missing keys left blank. Output starts with a UTF-8 BOM so spreadsheet
// applications detect the encoding.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ErrEmptyInput
	}
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("csv: write bom: %w", err)
	}

	header := rows[0].Keys()
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		for i, key := range header {
			record[i] = row.Get(key)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
