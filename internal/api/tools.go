package api

import (
	"net/http"

	"github.com/nerrad567/firecad/internal/firesafety"
)

// CrossCheckRequest compares a visual-detection count against an archived
// analysis.
type CrossCheckRequest struct {
	VisualCount *int   `json:"visual_count" validate:"required,min=0"`
	AnalysisID  string `json:"analysis_id" validate:"required,uuid"`
}

// CrossCheckResponse is the cross-check payload for one analysis.
type CrossCheckResponse struct {
	AnalysisID string `json:"analysis_id"`
	firesafety.CrossCheckReport
}

func (s *Server) handleCrossCheck(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}

	var req CrossCheckRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	rec, ok := s.fetchRecord(w, r, req.AnalysisID)
	if !ok {
		return
	}
	if rec.Result == nil {
		writeConflict(w, "analysis has no device inventory to compare")
		return
	}

	writeJSON(w, http.StatusOK, CrossCheckResponse{
		AnalysisID:       rec.ID,
		CrossCheckReport: firesafety.CrossCheck(*req.VisualCount, rec.Result.Devices()),
	})
}

// ClassifyRequest lists layer names to classify without a drawing.
type ClassifyRequest struct {
	Layers []string `json:"layers" validate:"required,min=1,max=1000,dive,required,max=255"`
}

// LayerClassification is the classification of one layer name.
type LayerClassification struct {
	Name           string                    `json:"name"`
	Classification firesafety.Classification `json:"classification"`
	Relevance      firesafety.Relevance      `json:"fire_safety_relevance"`
	FireSafety     bool                      `json:"fire_safety"`
	Curated        bool                      `json:"curated"`
	AIAStandard    string                    `json:"aia_standard,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	out := make([]LayerClassification, 0, len(req.Layers))
	for _, name := range req.Layers {
		out = append(out, ClassifyName(name))
	}
	writeJSON(w, http.StatusOK, map[string]any{"layers": out})
}

// ClassifyName classifies a single layer name.
func ClassifyName(name string) LayerClassification {
	class, relevance := firesafety.ClassifyLayer(name)
	aia, _ := firesafety.AIALayer(name)
	return LayerClassification{
		Name:           name,
		Classification: class,
		Relevance:      relevance,
		FireSafety:     class == firesafety.ClassFireSafety,
		Curated:        firesafety.IsCuratedFireLayer(name),
		AIAStandard:    aia,
	}
}
