package dxf

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nerrad567/firecad/internal/cad"
)

// DefaultMaxFileSize is the default upper bound for a DXF file (100MB).
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// Format is the registry name of the DXF decoder.
const Format = "dxf"

// Opener implements cad.Opener for ASCII DXF files.
type Opener struct {
	maxSize int64
}

// NewOpener creates a DXF opener. A maxSize of zero or less uses DefaultMaxFileSize.
func NewOpener(maxSize int64) *Opener {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Opener{maxSize: maxSize}
}

// Format returns "dxf".
func (o *Opener) Format() string { return Format }

// Extensions returns the handled extensions.
func (o *Opener) Extensions() []string { return []string{".dxf"} }

// Available is always true; the decoder is built in.
func (o *Opener) Available() bool { return true }

// MaxFileSize returns the configured size limit in bytes.
func (o *Opener) MaxFileSize() int64 { return o.maxSize }

// Open decodes the DXF file at path.
func (o *Opener) Open(ctx context.Context, path string) (cad.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat drawing: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", cad.ErrInvalidFile, path)
	}
	if info.Size() > o.maxSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", cad.ErrFileTooLarge, info.Size(), o.maxSize)
	}

	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator or a temp upload
	if err != nil {
		return nil, fmt.Errorf("open drawing: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only handle

	return o.Decode(ctx, f)
}

// Decode reads a DXF stream, failing with cad.ErrFileTooLarge once more
// than the size limit has been consumed.
func (o *Opener) Decode(ctx context.Context, r io.Reader) (cad.Document, error) {
	doc, err := Read(ctx, &limitReader{r: r, remaining: o.maxSize})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// limitReader is io.LimitReader with an error instead of a silent EOF.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, cad.ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, cad.ErrFileTooLarge
	}
	return n, err
}
