// Package pipeline runs one drawing through analysis, archiving and
// publishing. The HTTP API, the CLI and MQTT analysis requests share it.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/firesafety"
)

// recordTimeout bounds archiving and publishing once analysis has finished.
const recordTimeout = 10 * time.Second

// Analyzer is satisfied by *firesafety.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, path string) firesafety.Outcome
	AnalyzeReader(ctx context.Context, name string, r io.Reader) firesafety.Outcome
}

// Publisher is satisfied by *publish.Publisher.
type Publisher interface {
	Publish(ctx context.Context, rec *archive.Record)
}

// Deps configures a Pipeline. Archive and Publisher are optional.
type Deps struct {
	Analyzer  Analyzer
	Archive   archive.Repository
	Publisher Publisher

	// Timeout bounds a single analysis (0 = no limit).
	Timeout time.Duration
}

// Pipeline turns drawings into archived, published records.
//
// Thread Safety: safe for concurrent use when its dependencies are.
type Pipeline struct {
	analyzer  Analyzer
	archive   archive.Repository
	publisher Publisher
	timeout   time.Duration
}

// New creates a Pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	return &Pipeline{
		analyzer:  deps.Analyzer,
		archive:   deps.Archive,
		publisher: deps.Publisher,
		timeout:   deps.Timeout,
	}, nil
}

// Archived reports whether records are persisted.
func (p *Pipeline) Archived() bool {
	return p.archive != nil
}

// AnalyzeFile analyses the drawing at path.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*archive.Record, error) {
	actx, cancel := p.withTimeout(ctx)
	out := p.analyzer.Analyze(actx, path)
	cancel()
	return p.finish(ctx, out)
}

// AnalyzeReader analyses a drawing read from r; name selects the format.
func (p *Pipeline) AnalyzeReader(ctx context.Context, name string, r io.Reader) (*archive.Record, error) {
	actx, cancel := p.withTimeout(ctx)
	out := p.analyzer.AnalyzeReader(actx, name, r)
	cancel()
	return p.finish(ctx, out)
}

// finish archives and publishes every outcome, failed ones included, so
// the archive is a complete log of what was submitted. The returned error
// is an archive failure, never an analysis failure.
//
// The analysis deadline and caller cancellation do not apply here: a
// timed-out or abandoned analysis is still recorded.
func (p *Pipeline) finish(parent context.Context, out firesafety.Outcome) (*archive.Record, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), recordTimeout)
	defer cancel()

	rec := archive.FromOutcome(out)

	if p.archive != nil {
		if err := p.archive.Create(ctx, rec); err != nil {
			return rec, fmt.Errorf("archiving analysis: %w", err)
		}
	} else {
		rec.ID = uuid.NewString()
		rec.CreatedAt = time.Now().UTC()
	}

	if p.publisher != nil {
		p.publisher.Publish(ctx, rec)
	}
	return rec, nil
}

func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
