package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nerrad567/firecad/internal/firesafety"
)

// Sheet names.
const (
	SheetDevices = "Devices"
	SheetSummary = "Summary"

	defaultSheet = "Sheet1"
)

// ErrNoResult is returned when there is nothing to export.
var ErrNoResult = errors.New("export: analysis has no result")

// DevicesHeader is the header row of the Devices sheet.
var DevicesHeader = []string{
	"Layer",
	"Device Type",
	"Block",
	"X",
	"Y",
	"Rotation",
	"Scale X",
	"Scale Y",
	"Attributes",
}

var devicesColumnWidths = []float64{16, 22, 24, 12, 12, 10, 9, 9, 40}

// Write renders result as an XLSX workbook to w.
func Write(w io.Writer, result *firesafety.AnalysisResult) error {
	if result == nil {
		return ErrNoResult
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // In-memory file, nothing to release on error

	if err := f.SetSheetName(defaultSheet, SheetDevices); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := writeDevices(f, result, header); err != nil {
		return err
	}
	if err := writeSummary(f, result, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Bytes renders result as an XLSX workbook.
func Bytes(result *firesafety.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func headerStyle(f *excelize.File) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FDE2E1"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("creating header style: %w", err)
	}
	return style, nil
}

func writeDevices(f *excelize.File, result *firesafety.AnalysisResult, style int) error {
	if err := writeHeader(f, SheetDevices, DevicesHeader, style); err != nil {
		return err
	}
	for i, width := range devicesColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetDevices, col, col, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	for i, d := range result.Devices() {
		row := []any{
			d.LayerName,
			string(d.Type),
			d.BlockName,
			d.Coordinates.X,
			d.Coordinates.Y,
			d.Rotation,
			d.Scale.X,
			d.Scale.Y,
			formatAttributes(d.Attributes),
		}
		if err := setRow(f, SheetDevices, i+2, row); err != nil {
			return err
		}
	}

	// Keep the header visible while scrolling long schedules.
	if err := f.SetPanes(SheetDevices, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header row: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, result *firesafety.AnalysisResult, style int) error {
	types := firesafety.DeviceTypes()

	header := make([]string, 0, len(types)+2)
	header = append(header, "Layer")
	for _, t := range types {
		header = append(header, string(t))
	}
	header = append(header, "Total")
	if err := writeHeader(f, SheetSummary, header, style); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 16); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	summary := result.DeviceSummary
	rowNum := 2
	for _, layer := range result.ScannedLayers {
		counts := summary.ByLayer[layer]
		row := make([]any, 0, len(header))
		row = append(row, layer)
		total := 0
		for _, t := range types {
			row = append(row, counts[t])
			total += counts[t]
		}
		row = append(row, total)
		if err := setRow(f, SheetSummary, rowNum, row); err != nil {
			return err
		}
		rowNum++
	}

	totals := make([]any, 0, len(header))
	totals = append(totals, "Total")
	for _, t := range types {
		totals = append(totals, summary.ByType[t])
	}
	totals = append(totals, summary.TotalDevices)
	if err := setRow(f, SheetSummary, rowNum, totals); err != nil {
		return err
	}

	first, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), rowNum)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, first, last, style); err != nil {
		return fmt.Errorf("styling totals row: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := setRow(f, sheet, 1, row); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

// formatAttributes renders attributes as "TAG=text; TAG=text" in drawing order.
func formatAttributes(attrs firesafety.Attributes) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a.Tag+"="+a.Text)
	}
	return strings.Join(parts, "; ")
}
