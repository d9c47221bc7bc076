package firesafety

// AuthoritativeSource names the count CrossCheck treats as ground truth.
const AuthoritativeSource = "layer_analysis"

const crossCheckNote = "Layer-based counts come from the drawing's own layer organisation and are authoritative; " +
	"visual detection counts are shown for comparison only."

// CrossCheckReport places a visual-detection count next to the
// layer-derived inventory.
type CrossCheckReport struct {
	VisualCount         int                `json:"visual_detection_count"`
	LayerCount          int                `json:"layer_based_count"`
	LayerCountsByType   map[DeviceType]int `json:"layer_based_by_type"`
	AuthoritativeSource string             `json:"authoritative_source"`
	Note                string             `json:"note"`
}

// Summarize tallies devices per layer and per type. TotalDevices equals the
// sum of the per-layer list lengths. Every input layer appears in ByLayer,
// with an empty map when it has no devices.
func Summarize(devices map[string][]Device) DeviceSummary {
	summary := DeviceSummary{
		ByLayer: make(map[string]map[DeviceType]int, len(devices)),
		ByType:  make(map[DeviceType]int),
	}

	for layer, list := range devices {
		counts := make(map[DeviceType]int)
		for _, d := range list {
			counts[d.Type]++
			summary.ByType[d.Type]++
		}
		summary.ByLayer[layer] = counts
		summary.TotalDevices += len(list)
	}

	return summary
}

// CrossCheck builds the comparison payload for the visual-detection
// pipeline. It performs no extraction of its own.
func CrossCheck(visualCount int, devices []Device) CrossCheckReport {
	byType := make(map[DeviceType]int)
	for _, d := range devices {
		byType[d.Type]++
	}

	return CrossCheckReport{
		VisualCount:         visualCount,
		LayerCount:          len(devices),
		LayerCountsByType:   byType,
		AuthoritativeSource: AuthoritativeSource,
		Note:                crossCheckNote,
	}
}
