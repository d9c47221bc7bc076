package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nerrad567/firecad/internal/archive"
	"github.com/nerrad567/firecad/internal/infrastructure/mqtt"
)

var (
	// ErrInvalidRequest is returned for malformed analysis requests.
	ErrInvalidRequest = errors.New("publish: invalid analysis request")

	// ErrRequestsClosed is returned for requests arriving after Close.
	ErrRequestsClosed = errors.New("publish: analysis requests closed")
)

// AnalyzeRequest asks for the drawing File, relative to the inbox, to be analysed.
type AnalyzeRequest struct {
	File      string `json:"file" validate:"required,max=255"`
	RequestID string `json:"request_id,omitempty" validate:"max=64"`
}

// Subscriber is satisfied by *mqtt.Client.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, qos byte, handler mqtt.MessageHandler) error
}

// AnalyzeFunc analyses, archives and publishes the drawing at path.
type AnalyzeFunc func(ctx context.Context, path string) (*archive.Record, error)

// Requests handles analysis requests arriving on firecad/request/analyze.
// Each accepted request runs on its own goroutine so the MQTT client's
// delivery loop is never blocked by an analysis.
type Requests struct {
	inbox    string
	analyze  AnalyzeFunc
	logger   Logger
	validate *validator.Validate

	ctx context.Context

	mu     sync.Mutex // guards closed and wg.Add
	closed bool
	wg     sync.WaitGroup
}

// NewRequests creates a request handler reading drawings from inbox.
func NewRequests(inbox string, analyze AnalyzeFunc, logger Logger) *Requests {
	return &Requests{
		inbox:    inbox,
		analyze:  analyze,
		logger:   logger,
		validate: validator.New(),
		ctx:      context.Background(),
	}
}

// Listen subscribes to the request topic. ctx bounds every analysis
// started from a request.
func (r *Requests) Listen(ctx context.Context, sub Subscriber) error {
	r.ctx = ctx
	if err := sub.Subscribe(ctx, mqtt.Topics{}.AnalyzeRequest(), 1, r.Handle); err != nil {
		return fmt.Errorf("subscribing to analysis requests: %w", err)
	}
	return nil
}

// Handle validates one request payload and starts its analysis.
func (r *Requests) Handle(_ string, payload []byte) error {
	var req AnalyzeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := r.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	path, err := r.resolve(req.File)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRequestsClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		rec, err := r.analyze(r.ctx, path)
		if r.logger == nil {
			return
		}
		if err != nil {
			r.logger.Warn("requested analysis failed", "file", req.File, "request_id", req.RequestID, "error", err)
			return
		}
		r.logger.Info("requested analysis complete", "file", req.File, "request_id", req.RequestID,
			"analysis_id", rec.ID, "status", rec.Status)
	}()
	return nil
}

// Close stops accepting requests and blocks until every started analysis
// has finished. Later calls to Handle return ErrRequestsClosed.
func (r *Requests) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}

// resolve maps a request file name into the inbox, rejecting names that
// would escape it.
func (r *Requests) resolve(file string) (string, error) {
	if !filepath.IsLocal(file) {
		return "", fmt.Errorf("%w: %q is outside the inbox", ErrInvalidRequest, file)
	}
	return filepath.Join(r.inbox, file), nil
}
