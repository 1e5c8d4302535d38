package table

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// loadWorkbook reads the first sheet of an xlsx workbook. Raw cell values are
// used so display formats like "#,##0" do not leak into numeric cells.
func loadWorkbook(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, parseErr(FormatWorkbook, "open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErr(FormatWorkbook, "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, parseErr(FormatWorkbook, "read sheet "+sheets[0], err)
	}
	rows = trimTrailingBlankRows(rows)
	if len(rows) == 0 {
		return nil, parseErr(FormatWorkbook, "first sheet is empty", nil)
	}
	// Cells to the right of the header get unnamed columns instead of failing.
	header := rows[0]
	for _, row := range rows[1:] {
		for len(header) < len(row) {
			header = append(header, "")
		}
	}
	t, err := New("", header, rows[1:])
	if err != nil {
		return nil, parseErr(FormatWorkbook, "malformed row", err)
	}
	return t, nil
}

func trimTrailingBlankRows(rows [][]string) [][]string {
	for len(rows) > 0 && isBlankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
