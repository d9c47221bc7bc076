// Package export renders analysis results as an XLSX device schedule.
//
// The workbook has two sheets:
//
//	Devices   one row per extracted device, in scan order
//	Summary   device counts per layer and type, with totals
//
// Files are produced with excelize and returned as bytes or written to an
// io.Writer so HTTP handlers and the CLI share one code path.
package export
