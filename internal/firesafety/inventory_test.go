package firesafety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func device(layer string, typ DeviceType) Device {
	return Device{Type: typ, LayerName: layer}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(map[string][]Device{
		"E-FIRE": {
			device("E-FIRE", DeviceSmokeDetector),
			device("E-FIRE", DeviceSmokeDetector),
			device("E-FIRE", DeviceManualPullStation),
		},
		"E-SPKR": {
			device("E-SPKR", DeviceSprinklerHead),
			device("E-SPKR", DeviceUnknown),
		},
		"ALARM": {},
	})

	assert.Equal(t, 5, summary.TotalDevices)
	assert.Equal(t, map[string]map[DeviceType]int{
		"E-FIRE": {DeviceSmokeDetector: 2, DeviceManualPullStation: 1},
		"E-SPKR": {DeviceSprinklerHead: 1, DeviceUnknown: 1},
		"ALARM":  {},
	}, summary.ByLayer)
	assert.Equal(t, map[DeviceType]int{
		DeviceSmokeDetector:     2,
		DeviceManualPullStation: 1,
		DeviceSprinklerHead:     1,
		DeviceUnknown:           1,
	}, summary.ByType)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.TotalDevices)
	assert.NotNil(t, summary.ByLayer)
	assert.NotNil(t, summary.ByType)
}

func TestCrossCheck(t *testing.T) {
	devices := []Device{
		device("E-FIRE", DeviceSmokeDetector),
		device("E-FIRE", DeviceSmokeDetector),
		device("FIRE", DeviceHornStrobe),
	}

	report := CrossCheck(7, devices)

	assert.Equal(t, 7, report.VisualCount)
	assert.Equal(t, 3, report.LayerCount)
	assert.Equal(t, map[DeviceType]int{DeviceSmokeDetector: 2, DeviceHornStrobe: 1}, report.LayerCountsByType)
	assert.Equal(t, AuthoritativeSource, report.AuthoritativeSource)
	assert.Contains(t, report.Note, "authoritative")
}

func TestCrossCheck_NoDevices(t *testing.T) {
	report := CrossCheck(0, nil)
	assert.Equal(t, 0, report.LayerCount)
	assert.NotNil(t, report.LayerCountsByType)
	assert.Empty(t, report.LayerCountsByType)
}
