package firesafety

import (
	"sort"

	"github.com/nerrad567/firecad/internal/cad"
)

// Defaults for insertion properties missing on the source entity.
const (
	DefaultRotation = 0.0
	DefaultScale    = 1.0
)

// ScanLayers selects the layers to search for devices: curated fire-safety
// layers present in layerNames (curated order), followed by any other layer
// whose name classifies as fire_safety (sorted by name). Each layer appears
// once.
func ScanLayers(layerNames []string) []string {
	present := make(map[string]bool, len(layerNames))
	for _, name := range layerNames {
		present[name] = true
	}

	out := make([]string, 0, len(curatedFireLayers))
	for _, name := range curatedFireLayers {
		if present[name] {
			out = append(out, name)
		}
	}

	var fallback []string
	seen := make(map[string]bool, len(layerNames))
	for _, name := range layerNames {
		if seen[name] || IsCuratedFireLayer(name) {
			continue
		}
		seen[name] = true
		if IsFireSafetyLayer(name) {
			fallback = append(fallback, name)
		}
	}
	sort.Strings(fallback)

	return append(out, fallback...)
}

// ExtractDevices returns a device for every block insertion in entities
// whose owning layer is exactly layer. It never returns nil.
func ExtractDevices(entities []cad.Entity, layer string) []Device {
	devices := make([]Device, 0)
	for _, e := range entities {
		if e.Kind != cad.KindInsert || e.Layer != layer {
			continue
		}
		devices = append(devices, deviceFromInsert(e))
	}
	return devices
}

func deviceFromInsert(e cad.Entity) Device {
	d := Device{
		Type:        ClassifyDevice(e.BlockName),
		Coordinates: Point{X: e.X, Y: e.Y},
		BlockName:   e.BlockName,
		LayerName:   e.Layer,
		Rotation:    valueOr(e.Rotation, DefaultRotation),
		Scale: Scale{
			X: valueOr(e.ScaleX, DefaultScale),
			Y: valueOr(e.ScaleY, DefaultScale),
		},
		Attributes: Attributes{},
	}
	for _, attr := range e.Attributes {
		d.Attributes.Set(attr.Tag, attr.Text)
	}
	return d
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
