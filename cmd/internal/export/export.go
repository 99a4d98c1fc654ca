package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"telecall/cmd/internal/callcenter"
)

// ErrUnsupportedFormat is returned for an unknown export or import format.
var ErrUnsupportedFormat = errors.New("unsupported format")

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath infers the format from a file name, ignoring a trailing .xz.
func FormatFromPath(path string) (Format, error) {
	name := strings.TrimSuffix(strings.ToLower(path), ".xz")
	return ParseFormat(strings.TrimPrefix(filepath.Ext(name), "."))
}

const sheetName = "Calls"

var callHeader = []string{
	"call_id",
	"called_at",
	"gym_id",
	"gym_name",
	"telecaller_id",
	"telecaller_name",
	"outcome",
	"follow_up_date",
	"remarks",
}

// WriteCalls writes calls with a header row.
func WriteCalls(w io.Writer, f Format, calls []callcenter.Call) error {
	switch f {
	case CSV:
		return writeCSV(w, calls)
	case XLSX:
		return writeXLSX(w, calls)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func writeCSV(w io.Writer, calls []callcenter.Call) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(callHeader); err != nil {
		return err
	}
	for _, c := range calls {
		row := []string{
			c.ID,
			c.CalledAt.UTC().Format(time.RFC3339),
			c.GymID,
			c.GymName,
			c.TelecallerID,
			c.TelecallerName,
			string(c.Outcome),
			c.FollowUpDate,
			c.Remarks,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, calls []callcenter.Call) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return err
	}

	headStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	dateFmt := "yyyy-mm-dd hh:mm"
	dateStyle, err := file.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return err
	}

	sw, err := file.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, len(callHeader), 18); err != nil {
		return err
	}

	head := make([]any, len(callHeader))
	for i, h := range callHeader {
		head[i] = h
	}
	if err := sw.SetRow("A1", head, excelize.RowOpts{StyleID: headStyle}); err != nil {
		return err
	}

	for i, c := range calls {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			c.ID,
			excelize.Cell{StyleID: dateStyle, Value: c.CalledAt.UTC()},
			c.GymID,
			c.GymName,
			c.TelecallerID,
			c.TelecallerName,
			string(c.Outcome),
			c.FollowUpDate,
			c.Remarks,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return file.Write(w)
}
