package firesafety

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/nerrad567/firecad/internal/cad"
)

// Status is the tag of an analysis Outcome.
type Status string

// Outcome statuses.
const (
	StatusOK          Status = "ok"
	StatusError       Status = "error"
	StatusUnavailable Status = "unavailable"
)

// Outcome is the structured result of an analysis entry point. Exactly one
// of Result (StatusOK) or Error (otherwise) is set.
type Outcome struct {
	Status   Status          `json:"status"`
	Source   string          `json:"source"`
	Format   string          `json:"format,omitempty"`
	Error    string          `json:"error,omitempty"`
	Result   *AnalysisResult `json:"result,omitempty"`
	Warnings []Warning       `json:"warnings,omitempty"`

	err error
}

// OK reports whether the analysis succeeded.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Err returns the underlying error for non-OK outcomes.
func (o Outcome) Err() error { return o.err }

// Logger defines the logging interface used by the Analyzer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer receives one call per finished analysis.
type Observer interface {
	ObserveAnalysis(status Status, elapsed time.Duration, result *AnalysisResult)
}

// Analyzer runs the layer analysis over documents opened through a format
// registry. It holds no per-analysis state and is safe for concurrent use
// once configured.
type Analyzer struct {
	formats  *cad.Registry
	logger   Logger
	observer Observer
}

// NewAnalyzer creates an analyzer over the given format registry.
func NewAnalyzer(formats *cad.Registry) *Analyzer {
	return &Analyzer{
		formats: formats,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the analyzer.
func (a *Analyzer) SetLogger(logger Logger) {
	a.logger = logger
}

// SetObserver sets the hook notified after every analysis.
func (a *Analyzer) SetObserver(o Observer) {
	a.observer = o
}

// Available reports whether a working decoder exists for the file name.
func (a *Analyzer) Available(name string) bool {
	return a.formats.Available(name)
}

// Formats lists the registered drawing formats.
func (a *Analyzer) Formats() []cad.FormatInfo {
	return a.formats.Formats()
}

// Analyze opens the drawing at path and analyses it. Failures are reported
// in the returned Outcome; it never panics.
func (a *Analyzer) Analyze(ctx context.Context, path string) Outcome {
	return a.run(ctx, path, func(o cad.Opener) (cad.Document, error) {
		return o.Open(ctx, path)
	})
}

// AnalyzeReader analyses a drawing read from r. name selects the format by
// extension and is reported as the outcome source.
func (a *Analyzer) AnalyzeReader(ctx context.Context, name string, r io.Reader) Outcome {
	return a.run(ctx, name, func(o cad.Opener) (cad.Document, error) {
		return o.Decode(ctx, r)
	})
}

func (a *Analyzer) run(ctx context.Context, name string, open func(cad.Opener) (cad.Document, error)) (out Outcome) {
	start := time.Now()
	out.Source = filepath.Base(name)

	defer func() {
		if r := recover(); r != nil {
			out = failed(out, fmt.Errorf("%w: %v", ErrDecoderPanic, r))
		}
		a.finish(out, time.Since(start))
	}()

	opener, ok := a.formats.Lookup(name)
	if !ok || !opener.Available() {
		return unavailable(out, name, opener)
	}
	out.Format = opener.Format()

	a.logger.Debug("opening drawing", "source", out.Source, "format", out.Format)

	doc, err := open(opener)
	if err != nil {
		if errors.Is(err, cad.ErrUnavailable) {
			return unavailable(out, name, opener)
		}
		return failed(out, fmt.Errorf("opening drawing: %w", err))
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			a.logger.Warn("closing drawing", "source", out.Source, "error", cerr)
		}
	}()

	result, warnings, err := AnalyzeDocument(ctx, doc)
	if err != nil {
		return failed(out, err)
	}

	out.Status = StatusOK
	out.Result = result
	out.Warnings = warnings
	return out
}

func (a *Analyzer) finish(out Outcome, elapsed time.Duration) {
	switch out.Status {
	case StatusOK:
		a.logger.Info("analysis complete",
			"source", out.Source,
			"layers", out.Result.TotalLayers,
			"scanned_layers", len(out.Result.ScannedLayers),
			"devices", out.Result.DeviceSummary.TotalDevices,
			"warnings", len(out.Warnings),
			"duration", elapsed,
		)
	case StatusUnavailable:
		a.logger.Warn("analysis unavailable", "source", out.Source, "error", out.Error)
	default:
		a.logger.Error("analysis failed", "source", out.Source, "error", out.Error)
	}

	if a.observer != nil {
		a.observer.ObserveAnalysis(out.Status, elapsed, out.Result)
	}
}

func unavailable(out Outcome, name string, opener cad.Opener) Outcome {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "(none)"
	}
	err := fmt.Errorf("%w: no decoder for %s files", cad.ErrUnavailable, ext)
	if opener != nil {
		out.Format = opener.Format()
		err = fmt.Errorf("%w: %s decoder not available", cad.ErrUnavailable, opener.Format())
	}

	out.Status = StatusUnavailable
	out.Error = err.Error()
	out.Result = nil
	out.Warnings = nil
	out.err = err
	return out
}

func failed(out Outcome, err error) Outcome {
	out.Status = StatusError
	out.Error = err.Error()
	out.Result = nil
	out.Warnings = nil
	out.err = err
	return out
}

// AnalyzeDocument runs classification, extraction, validation and
// aggregation over an open document. The document is not closed.
func AnalyzeDocument(ctx context.Context, doc cad.Document) (*AnalysisResult, []Warning, error) {
	if doc == nil {
		return nil, nil, ErrNoDocument
	}

	layers := doc.Layers()
	result := &AnalysisResult{
		LayerAnalysis:     make(map[string]LayerInfo, len(layers)),
		FireSafetyDevices: make(map[string][]Device),
	}

	names := make([]string, 0, len(layers))
	for _, l := range layers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if _, dup := result.LayerAnalysis[l.Name]; dup {
			continue
		}

		class, relevance := ClassifyLayer(l.Name)
		result.LayerAnalysis[l.Name] = LayerInfo{
			Name:           l.Name,
			ElementCount:   len(doc.Entities(l.Name, cad.KindAny)),
			Color:          l.ColorIndex,
			LineWeight:     l.LineWeight,
			Classification: class,
			Relevance:      relevance,
			Frozen:         l.Frozen,
			Hidden:         l.Hidden,
		}
		if relevance == RelevanceCritical {
			result.FireSafetyLayerCount++
		}
		names = append(names, l.Name)
	}
	result.TotalLayers = len(names)

	result.ScannedLayers = ScanLayers(names)
	for _, name := range result.ScannedLayers {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		result.FireSafetyDevices[name] = ExtractDevices(doc.Entities(name, cad.KindInsert), name)
	}

	result.DeviceSummary = Summarize(result.FireSafetyDevices)
	result.Validation = ValidateStandards(names)

	return result, collectWarnings(result), nil
}

func collectWarnings(result *AnalysisResult) []Warning {
	var warnings []Warning

	if len(result.ScannedLayers) == 0 {
		warnings = append(warnings, Warning{
			Code:    WarnNoFireSafetyLayers,
			Message: "no fire safety layers found; device inventory is empty",
		})
	}

	for _, name := range result.ScannedLayers {
		info := result.LayerAnalysis[name]
		devices := result.FireSafetyDevices[name]

		if info.Frozen {
			warnings = append(warnings, Warning{Code: WarnFrozenFireLayer, Layer: name, Message: "fire safety layer is frozen"})
		}
		if info.Hidden {
			warnings = append(warnings, Warning{Code: WarnHiddenFireLayer, Layer: name, Message: "fire safety layer is switched off"})
		}
		if len(devices) == 0 {
			warnings = append(warnings, Warning{Code: WarnEmptyFireLayer, Layer: name, Message: "no block insertions on fire safety layer"})
			continue
		}
		if n := result.DeviceSummary.ByLayer[name][DeviceUnknown]; n > 0 {
			warnings = append(warnings, Warning{
				Code:    WarnUnknownDevices,
				Layer:   name,
				Message: fmt.Sprintf("%d block(s) not recognised as a fire safety device type", n),
			})
		}
	}

	return warnings
}
