package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nerrad567/firecad/internal/firesafety"
)

func sampleResult() *firesafety.AnalysisResult {
	devices := map[string][]firesafety.Device{
		"E-FIRE": {
			{
				Type:        firesafety.DeviceSmokeDetector,
				LayerName:   "E-FIRE",
				BlockName:   "SMOKE_DET",
				Coordinates: firesafety.Point{X: 12.5, Y: 40},
				Rotation:    90,
				Scale:       firesafety.Scale{X: 1, Y: 1},
				Attributes:  firesafety.Attributes{{Tag: "ROOM", Text: "101"}, {Tag: "ZONE", Text: "Z1"}},
			},
			{
				Type:        firesafety.DeviceHornStrobe,
				LayerName:   "E-FIRE",
				BlockName:   "HORN-STROBE",
				Coordinates: firesafety.Point{X: 3, Y: 4},
				Scale:       firesafety.Scale{X: 2, Y: 2},
			},
		},
		"E-SPKR": {},
	}
	return &firesafety.AnalysisResult{
		FireSafetyDevices: devices,
		ScannedLayers:     []string{"E-FIRE", "E-SPKR"},
		DeviceSummary:     firesafety.Summarize(devices),
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestBytes_Sheets(t *testing.T) {
	data, err := Bytes(sampleResult())
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{SheetDevices, SheetSummary}, f.GetSheetList())
}

func TestBytes_DevicesSheet(t *testing.T) {
	data, err := Bytes(sampleResult())
	require.NoError(t, err)

	rows, err := openWorkbook(t, data).GetRows(SheetDevices)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, DevicesHeader, rows[0])
	assert.Equal(t, []string{"E-FIRE", "smoke_detector", "SMOKE_DET", "12.5", "40", "90", "1", "1", "ROOM=101; ZONE=Z1"}, rows[1])
	// Trailing empty cells are trimmed by GetRows.
	assert.Equal(t, []string{"E-FIRE", "horn_strobe", "HORN-STROBE", "3", "4", "0", "2", "2"}, rows[2])
}

func TestBytes_SummarySheet(t *testing.T) {
	data, err := Bytes(sampleResult())
	require.NoError(t, err)

	rows, err := openWorkbook(t, data).GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	types := firesafety.DeviceTypes()
	header := rows[0]
	require.Len(t, header, len(types)+2)
	assert.Equal(t, "Layer", header[0])
	assert.Equal(t, "Total", header[len(header)-1])

	col := func(dt firesafety.DeviceType) int {
		for i, h := range header {
			if h == string(dt) {
				return i
			}
		}
		t.Fatalf("missing column %s", dt)
		return -1
	}

	fire := rows[1]
	assert.Equal(t, "E-FIRE", fire[0])
	assert.Equal(t, "1", fire[col(firesafety.DeviceSmokeDetector)])
	assert.Equal(t, "1", fire[col(firesafety.DeviceHornStrobe)])
	assert.Equal(t, "0", fire[col(firesafety.DeviceSprinklerHead)])
	assert.Equal(t, "2", fire[len(fire)-1])

	spkr := rows[2]
	assert.Equal(t, "E-SPKR", spkr[0])
	assert.Equal(t, "0", spkr[len(spkr)-1])

	totals := rows[3]
	assert.Equal(t, "Total", totals[0])
	assert.Equal(t, "2", totals[len(totals)-1])
}

func TestWrite_NoResult(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, nil), ErrNoResult)
	assert.Zero(t, buf.Len())
}

func TestFormatAttributes(t *testing.T) {
	assert.Empty(t, formatAttributes(nil))
	assert.Equal(t, "A=1", formatAttributes(firesafety.Attributes{{Tag: "A", Text: "1"}}))
}
