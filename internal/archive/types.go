package archive

import (
	"time"

	"github.com/nerrad567/firecad/internal/firesafety"
)

// Record is one archived analysis.
type Record struct {
	ID                   string                     `json:"id"`
	Source               string                     `json:"source"`
	Format               string                     `json:"format,omitempty"`
	Status               firesafety.Status          `json:"status"`
	Error                string                     `json:"error,omitempty"`
	TotalLayers          int                        `json:"total_layers"`
	FireSafetyLayerCount int                        `json:"fire_safety_layer_count"`
	TotalDevices         int                        `json:"total_devices"`
	AIACompliantLayers   int                        `json:"aia_compliant_layers"`
	Result               *firesafety.AnalysisResult `json:"result,omitempty"`
	Warnings             []firesafety.Warning       `json:"warnings"`
	CreatedAt            time.Time                  `json:"created_at"`
}

// Filter controls which records List returns.
type Filter struct {
	Status firesafety.Status // optional
	Limit  int               // default 50, max 200
	Offset int
}

// ListResult is a page of records. Records in a list carry no Result.
type ListResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// FromOutcome builds an unsaved Record from an analysis outcome.
func FromOutcome(out firesafety.Outcome) *Record {
	rec := &Record{
		Source:   out.Source,
		Format:   out.Format,
		Status:   out.Status,
		Error:    out.Error,
		Result:   out.Result,
		Warnings: out.Warnings,
	}
	if rec.Warnings == nil {
		rec.Warnings = []firesafety.Warning{}
	}

	if r := out.Result; r != nil {
		rec.TotalLayers = r.TotalLayers
		rec.FireSafetyLayerCount = r.FireSafetyLayerCount
		rec.TotalDevices = r.DeviceSummary.TotalDevices
		for _, ok := range r.Validation.AIACompliance {
			if ok {
				rec.AIACompliantLayers++
			}
		}
	}
	return rec
}

// Outcome rebuilds the outcome envelope stored in the record.
func (r *Record) Outcome() firesafety.Outcome {
	return firesafety.Outcome{
		Status:   r.Status,
		Source:   r.Source,
		Format:   r.Format,
		Error:    r.Error,
		Result:   r.Result,
		Warnings: r.Warnings,
	}
}
