package firesafety

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/firecad/internal/cad"
)

// LayerInfo describes one layer of an analysed drawing.
type LayerInfo struct {
	Name           string         `json:"name"`
	ElementCount   int            `json:"element_count"`
	Color          int            `json:"color"`
	LineWeight     int            `json:"lineweight"`
	Classification Classification `json:"classification"`
	Relevance      Relevance      `json:"fire_safety_relevance"`
	Frozen         bool           `json:"frozen"`
	Hidden         bool           `json:"hidden"`
}

// Point is a 2D insertion point in drawing units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale holds non-uniform X/Y scale factors.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Device is one block insertion recognised on a fire-safety layer.
type Device struct {
	Type        DeviceType `json:"device_type"`
	Coordinates Point      `json:"coordinates"`
	BlockName   string     `json:"block_name"`
	LayerName   string     `json:"layer_name"`
	Rotation    float64    `json:"rotation"`
	Scale       Scale      `json:"scale"`
	Attributes  Attributes `json:"attributes"`
}

// Attributes is an ordered tag -> text mapping. Tags are unique; setting an
// existing tag replaces its text in place. It marshals as a JSON object in
// insertion order.
type Attributes []cad.Attribute

// Set stores text for tag.
func (a *Attributes) Set(tag, text string) {
	for i := range *a {
		if (*a)[i].Tag == tag {
			(*a)[i].Text = text
			return
		}
	}
	*a = append(*a, cad.Attribute{Tag: tag, Text: text})
}

// MarshalJSON writes the attributes as an object, preserving order.
func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, attr := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(attr.Tag)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(attr.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*a = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("attributes: expected object, got %v", tok)
	}

	out := Attributes{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("attributes: expected string key, got %v", keyTok)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("attributes: value for %q: %w", key, err)
		}
		out.Set(key, text)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = out
	return nil
}

// Organization reports whether curated fire-safety layers are in use.
type Organization struct {
	Organized     bool     `json:"organized"`
	PresentLayers []string `json:"present_layers"`
}

// ValidationReport is the result of ValidateStandards.
type ValidationReport struct {
	AIACompliance          map[string]bool `json:"aia_compliance"`
	FireSafetyOrganization Organization    `json:"fire_safety_organization"`
	MissingCriticalLayers  []string        `json:"missing_critical_layers"`
	Recommendations        []string        `json:"recommendations"`
}

// DeviceSummary is the per-layer and per-type device tally.
type DeviceSummary struct {
	ByLayer      map[string]map[DeviceType]int `json:"by_layer"`
	ByType       map[DeviceType]int            `json:"by_type"`
	TotalDevices int                           `json:"total_devices"`
}

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	LayerAnalysis        map[string]LayerInfo `json:"layer_analysis"`
	FireSafetyDevices    map[string][]Device  `json:"fire_safety_devices"`
	ScannedLayers        []string             `json:"scanned_layers"`
	DeviceSummary        DeviceSummary        `json:"device_summary"`
	Validation           ValidationReport     `json:"validation"`
	TotalLayers          int                  `json:"total_layers"`
	FireSafetyLayerCount int                  `json:"fire_safety_layer_count"`
}

// Devices returns every extracted device in scan order.
func (r *AnalysisResult) Devices() []Device {
	if r == nil {
		return nil
	}
	var out []Device
	for _, layer := range r.ScannedLayers {
		out = append(out, r.FireSafetyDevices[layer]...)
	}
	return out
}
