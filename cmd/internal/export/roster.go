package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxRosterRows bounds how much of a legacy .xls sheet is read.
const maxRosterRows = 100000

var (
	ErrNoWorksheet = errors.New("no worksheet found")
	ErrEmptyRoster = errors.New("roster is empty")
	ErrManySheets  = errors.New("multiple worksheets found; use a file with a single sheet")
)

// ReadGymIDs reads a roster of gym ids from a .csv, .xls or .xlsx file. The
// column headed gym_id is used when present, otherwise the first column.
// Blank cells and duplicates are dropped; order is kept.
func ReadGymIDs(r io.Reader, filename string) ([]string, error) {
	rows, err := readRows(r, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyRoster
	}

	col, start := 0, 0
	for i, h := range rows[0] {
		if isGymIDHeader(h) {
			col, start = i, 1
			break
		}
	}

	seen := map[string]struct{}{}
	var ids []string
	for _, row := range rows[start:] {
		v := cellValue(row, col)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		ids = append(ids, v)
	}
	if len(ids) == 0 {
		return nil, ErrEmptyRoster
	}
	return ids, nil
}

func readRows(r io.Reader, filename string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".csv" {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		return cr.ReadAll()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	switch ext {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, ErrNoWorksheet
		}
		if workbook.NumSheets() > 1 {
			return nil, ErrManySheets
		}
		return workbook.ReadAllCells(maxRosterRows), nil
	case ".xlsx":
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoWorksheet
		}
		if len(sheets) > 1 {
			return nil, ErrManySheets
		}
		return file.GetRows(sheets[0])
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func normalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
}

func isGymIDHeader(h string) bool {
	switch normalizeHeader(h) {
	case "gym_id", "gym id", "gymid":
		return true
	}
	return false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
