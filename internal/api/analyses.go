package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/export"
	"github.com/nerrad567/firecad/internal/firesafety"
)

const (
	// multipartMemory is how much of an upload is buffered in memory before
	// spilling to a temp file.
	multipartMemory = 8 << 20

	// multipartOverhead allows for form boundaries and headers on top of
	// the drawing itself.
	multipartOverhead = 1 << 20

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AnalysisResponse is returned for a newly analysed drawing.
type AnalysisResponse struct {
	ID        string             `json:"id"`
	Archived  bool               `json:"archived"`
	CreatedAt time.Time          `json:"created_at"`
	Outcome   firesafety.Outcome `json:"outcome"`
}

// handleCreateAnalysis analyses an uploaded drawing (multipart field "file").
// The outcome is returned whatever its status; only archive failures are 5xx.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge,
				fmt.Sprintf("drawing exceeds %d MB", s.maxUpload>>20))
			return
		}
		writeBadRequest(w, "expected multipart/form-data body")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // Temp file cleanup is best effort

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge,
			fmt.Sprintf("drawing exceeds %d MB", s.maxUpload>>20))
		return
	}

	rec, err := s.pipeline.AnalyzeReader(r.Context(), header.Filename, file)
	if err != nil {
		s.logger.Error("failed to archive analysis", "source", header.Filename, "error", err)
		writeInternalError(w, "failed to archive analysis")
		return
	}

	status := http.StatusOK
	if s.pipeline.Archived() {
		status = http.StatusCreated
	}
	writeJSON(w, status, AnalysisResponse{
		ID:        rec.ID,
		Archived:  s.pipeline.Archived(),
		CreatedAt: rec.CreatedAt,
		Outcome:   rec.Outcome(),
	})
}

// handleListAnalyses returns archived analyses, newest first.
// Query parameters: status, limit, offset.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}

	q := r.URL.Query()
	filter := archive.Filter{Status: firesafety.Status(q.Get("status"))}
	switch filter.Status {
	case "", firesafety.StatusOK, firesafety.StatusError, firesafety.StatusUnavailable:
	default:
		writeBadRequest(w, "status must be one of ok, error, unavailable")
		return
	}

	var ok bool
	if filter.Limit, ok = queryInt(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = queryInt(w, q.Get("offset"), "offset"); !ok {
		return
	}

	result, err := s.archive.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list analyses", "error", err)
		writeInternalError(w, "failed to list analyses")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetAnalysis returns one archived analysis with its full result.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteAnalysis removes an archived analysis and its devices.
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.archive.Delete(r.Context(), id); err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			writeNotFound(w, "analysis not found")
			return
		}
		s.logger.Error("failed to delete analysis", "id", id, "error", err)
		writeInternalError(w, "failed to delete analysis")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalysisDevicesXLSX streams the device schedule workbook.
func (s *Server) handleAnalysisDevicesXLSX(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadRecord(w, r)
	if !ok {
		return
	}
	if rec.Result == nil {
		writeConflict(w, fmt.Sprintf("analysis has status %s and no device schedule", rec.Status))
		return
	}

	data, err := export.Bytes(rec.Result)
	if err != nil {
		s.logger.Error("failed to build device schedule", "id", rec.ID, "error", err)
		writeInternalError(w, "failed to build device schedule")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-devices.xlsx"`, rec.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(data)
}

// handleInventory returns archived device counts by type across every analysis.
func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	if !s.requireArchive(w) {
		return
	}
	totals, err := s.archive.DeviceTotals(r.Context())
	if err != nil {
		s.logger.Error("failed to load device inventory", "error", err)
		writeInternalError(w, "failed to load device inventory")
		return
	}

	total := 0
	for _, n := range totals {
		total += n
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"by_type":       totals,
		"total_devices": total,
	})
}

// loadRecord fetches the record named by the {id} URL parameter, writing
// the error response itself on failure.
func (s *Server) loadRecord(w http.ResponseWriter, r *http.Request) (*archive.Record, bool) {
	if !s.requireArchive(w) {
		return nil, false
	}
	return s.fetchRecord(w, r, chi.URLParam(r, "id"))
}

func (s *Server) fetchRecord(w http.ResponseWriter, r *http.Request, id string) (*archive.Record, bool) {
	rec, err := s.archive.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			writeNotFound(w, "analysis not found")
			return nil, false
		}
		s.logger.Error("failed to load analysis", "id", id, "error", err)
		writeInternalError(w, "failed to load analysis")
		return nil, false
	}
	return rec, true
}

func (s *Server) requireArchive(w http.ResponseWriter) bool {
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "analysis archive is disabled")
		return false
	}
	return true
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
