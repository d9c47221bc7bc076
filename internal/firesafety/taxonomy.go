package firesafety

import (
	"slices"
	"strings"
	"unicode"
)

// Classification is the discipline a layer belongs to.
type Classification string

// Layer classifications.
const (
	ClassFireSafety    Classification = "fire_safety"
	ClassElectrical    Classification = "electrical"
	ClassMechanical    Classification = "mechanical"
	ClassPlumbing      Classification = "plumbing"
	ClassArchitectural Classification = "architectural"
	ClassStructural    Classification = "structural"
	ClassAnnotation    Classification = "annotation"
	ClassUnknown       Classification = "unknown"
)

// Relevance is a layer's importance to fire-safety review.
type Relevance string

// Relevance tiers, highest first.
const (
	RelevanceCritical   Relevance = "critical"
	RelevanceImportant  Relevance = "important"
	RelevanceContextual Relevance = "contextual"
	RelevanceMinimal    Relevance = "minimal"
)

// DeviceType is the fire-safety device taxonomy.
type DeviceType string

// Device types.
const (
	DeviceSmokeDetector     DeviceType = "smoke_detector"
	DeviceSprinklerHead     DeviceType = "sprinkler_head"
	DeviceManualPullStation DeviceType = "manual_pull_station"
	DeviceHornStrobe        DeviceType = "horn_strobe"
	DeviceExitLight         DeviceType = "exit_light"
	DeviceFireExtinguisher  DeviceType = "fire_extinguisher"
	DeviceUnknown           DeviceType = "unknown_device"
)

// keywordRule maps any of its keywords (upper case, substring match) or
// tokens (upper case, whole-word match) to a result.
type keywordRule[T any] struct {
	Keywords []string
	Tokens   []string
	Result   T
}

// match returns the result of the first rule whose keyword occurs in the
// upper-cased text. Tokens are only consulted when no keyword matched, so
// an abbreviation never outranks a keyword of a later rule.
func match[T any](rules []keywordRule[T], text string, fallback T) T {
	upper := strings.ToUpper(text)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(upper, kw) {
				return rule.Result
			}
		}
	}

	words := strings.FieldsFunc(upper, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range rules {
		for _, w := range words {
			if slices.Contains(rule.Tokens, w) {
				return rule.Result
			}
		}
	}
	return fallback
}

// classificationRules is checked in order; first match wins.
var classificationRules = []keywordRule[Classification]{
	{Keywords: []string{"FIRE", "SMOKE", "SPRINKLER", "ALARM"}, Result: ClassFireSafety},
	{Keywords: []string{"ELECTRICAL", "POWER", "LITE", "E-"}, Result: ClassElectrical},
	{Keywords: []string{"HVAC", "MECHANICAL", "DUCT", "M-"}, Result: ClassMechanical},
	{Keywords: []string{"PLUMBING", "PIPE", "P-"}, Result: ClassPlumbing},
	{Keywords: []string{"WALL", "DOOR", "WINDOW", "A-"}, Result: ClassArchitectural},
	{Keywords: []string{"STRUCTURAL", "BEAM", "COLUMN", "S-"}, Result: ClassStructural},
	{Keywords: []string{"TEXT", "DIMENSION", "ANNO"}, Result: ClassAnnotation},
}

// relevanceRules is maintained separately from classificationRules; a
// layer's tier is never derived from its classification.
var relevanceRules = []keywordRule[Relevance]{
	{Keywords: []string{"FIRE", "SMOKE", "SPRINKLER", "ALARM", "DETECTOR"}, Result: RelevanceCritical},
	{Keywords: []string{"ELECTRICAL", "LITE", "POWER", "HVAC"}, Result: RelevanceImportant},
	{Keywords: []string{"WALL", "DOOR", "WINDOW", "ROOM"}, Result: RelevanceContextual},
}

// deviceRules classifies block reference names. Tokens cover the symbol
// abbreviations used in fire alarm block libraries (SD-TYPE-A, MPS-1).
var deviceRules = []keywordRule[DeviceType]{
	{Keywords: []string{"SMOKE", "DETECTOR"}, Tokens: []string{"SD"}, Result: DeviceSmokeDetector},
	{Keywords: []string{"SPRINKLER", "SPKR"}, Result: DeviceSprinklerHead},
	{Keywords: []string{"PULL", "STATION"}, Tokens: []string{"MPS"}, Result: DeviceManualPullStation},
	{Keywords: []string{"HORN", "STROBE"}, Result: DeviceHornStrobe},
	{Keywords: []string{"EXIT", "LIGHT"}, Result: DeviceExitLight},
	{Keywords: []string{"FIRE", "EXTINGUISHER"}, Result: DeviceFireExtinguisher},
}

// curatedFireLayers are the well-known fire-safety layer names, in
// reporting order.
var curatedFireLayers = []string{
	"E-FIRE", "E-SPKR", "E-LITE", "E-SECU",
	"FIRE", "SPRINKLER", "SMOKE", "ALARM",
}

// aiaLayers is the curated AIA CAD layer naming table (exact names).
var aiaLayers = map[string]string{
	"A-WALL": "Walls",
	"A-DOOR": "Doors",
	"A-GLAZ": "Windows and glazing",
	"A-FLOR": "Floor information",
	"A-CLNG": "Ceiling information",
	"A-ROOF": "Roof",
	"A-FURN": "Furniture",
	"A-ANNO": "Architectural annotation",
	"E-LITE": "Lighting",
	"E-POWR": "Power",
	"E-FIRE": "Fire alarm",
	"E-SPKR": "Fire sprinklers",
	"E-SECU": "Security",
	"E-COMM": "Communications",
	"M-HVAC": "HVAC",
	"M-DUCT": "Ductwork",
	"M-PIPE": "Mechanical piping",
	"P-PIPE": "Plumbing piping",
	"P-FIXT": "Plumbing fixtures",
	"S-GRID": "Structural grid",
	"S-BEAM": "Beams",
	"S-COLS": "Columns",
	"S-FNDN": "Foundations",
	"F-PROT": "Fire protection",
	"F-SPRN": "Sprinkler system",
	"F-ALRM": "Fire detection and alarm",
}

// CuratedFireLayers returns a copy of the curated fire-safety layer list.
func CuratedFireLayers() []string {
	return slices.Clone(curatedFireLayers)
}

// IsCuratedFireLayer reports whether name is exactly a curated layer.
func IsCuratedFireLayer(name string) bool {
	return slices.Contains(curatedFireLayers, name)
}

// AIALayer returns the description of an AIA standard layer name.
func AIALayer(name string) (string, bool) {
	desc, ok := aiaLayers[name]
	return desc, ok
}

// DeviceTypes lists the device taxonomy in classification order, with
// unknown_device last.
func DeviceTypes() []DeviceType {
	out := make([]DeviceType, 0, len(deviceRules)+1)
	for _, r := range deviceRules {
		out = append(out, r.Result)
	}
	return append(out, DeviceUnknown)
}
