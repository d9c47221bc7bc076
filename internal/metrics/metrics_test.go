package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/nerrad567/firecad/internal/firesafety"
)

var _ firesafety.Observer = (*Registry)(nil)

func metricValue(t *testing.T, m prometheus.Metric) *dto.Metric {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	return &out
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.AnalysesTotal == nil || r.AnalysisDuration == nil || r.DevicesExtracted == nil {
		t.Fatal("analysis metrics not initialised")
	}

	// Two registries must not collide on registration.
	_ = NewRegistry()
}

func TestObserveAnalysis(t *testing.T) {
	r := NewRegistry()

	result := &firesafety.AnalysisResult{
		ScannedLayers: []string{"E-FIRE", "E-SPKR"},
		DeviceSummary: firesafety.DeviceSummary{
			ByType: map[firesafety.DeviceType]int{
				firesafety.DeviceSmokeDetector: 3,
				firesafety.DeviceSprinklerHead: 5,
			},
			TotalDevices: 8,
		},
	}

	r.ObserveAnalysis(firesafety.StatusOK, 120*time.Millisecond, result)
	r.ObserveAnalysis(firesafety.StatusOK, 80*time.Millisecond, result)
	r.ObserveAnalysis(firesafety.StatusUnavailable, time.Millisecond, nil)

	tests := []struct {
		name  string
		vec   *prometheus.CounterVec
		label string
		want  float64
	}{
		{"ok analyses", r.AnalysesTotal, "ok", 2},
		{"unavailable analyses", r.AnalysesTotal, "unavailable", 1},
		{"smoke detectors", r.DevicesExtracted, "smoke_detector", 6},
		{"sprinkler heads", r.DevicesExtracted, "sprinkler_head", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.vec.GetMetricWithLabelValues(tt.label)
			if err != nil {
				t.Fatalf("GetMetricWithLabelValues: %v", err)
			}
			if got := metricValue(t, c).GetCounter().GetValue(); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}

	if got := metricValue(t, r.AnalysisDuration).GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("duration samples = %d, want 3", got)
	}
	if got := metricValue(t, r.LayersScanned).GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("layers scanned samples = %d, want 2 (failures skipped)", got)
	}
}

func TestRecordHTTPRequestAndPublishFailure(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest(http.MethodPost, "/api/v1/analyses", http.StatusCreated, 50*time.Millisecond)
	r.RecordPublishFailure("mqtt")
	r.RecordPublishFailure("mqtt")

	c, err := r.HTTPRequestsTotal.GetMetricWithLabelValues(http.MethodPost, "/api/v1/analyses", "Created")
	if err != nil {
		t.Fatal(err)
	}
	if got := metricValue(t, c).GetCounter().GetValue(); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}

	f, err := r.PublishFailuresTotal.GetMetricWithLabelValues("mqtt")
	if err != nil {
		t.Fatal(err)
	}
	if got := metricValue(t, f).GetCounter().GetValue(); got != 2 {
		t.Errorf("publish failures = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.ObserveAnalysis(firesafety.StatusError, time.Second, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body) //nolint:errcheck // Recorder body
	for _, want := range []string{
		`firecad_analyses_total{status="error"} 1`,
		"firecad_analysis_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}

	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("Gather() returned no families")
	}
}
