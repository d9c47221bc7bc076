package firesafety

import "errors"

// Sentinel errors for analysis.
var (
	// ErrNoDocument indicates a nil document was passed for analysis.
	ErrNoDocument = errors.New("firesafety: no document")

	// ErrDecoderPanic indicates the decoder panicked while reading the drawing.
	ErrDecoderPanic = errors.New("firesafety: decoder panicked")
)

// Warning codes for non-fatal analysis findings.
const (
	WarnNoFireSafetyLayers = "NO_FIRE_SAFETY_LAYERS"
	WarnUnknownDevices     = "UNKNOWN_DEVICES"
	WarnFrozenFireLayer    = "FROZEN_FIRE_LAYER"
	WarnHiddenFireLayer    = "HIDDEN_FIRE_LAYER"
	WarnEmptyFireLayer     = "EMPTY_FIRE_LAYER"
)

// Warning is a non-fatal finding attached to an outcome.
type Warning struct {
	Code    string `json:"code"`
	Layer   string `json:"layer,omitempty"`
	Message string `json:"message"`
}
