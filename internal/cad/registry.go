package cad

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// FormatInfo describes a registered format for capability reporting.
type FormatInfo struct {
	Format     string   `json:"format"`
	Extensions []string `json:"extensions"`
	Available  bool     `json:"available"`
	Reason     string   `json:"reason,omitempty"`
}

// Registry maps file extensions to decoders.
//
// A Registry is immutable after NewRegistry and safe for concurrent use.
type Registry struct {
	byExt   map[string]Opener
	openers []Opener
}

// NewRegistry creates a registry. When two openers claim the same extension,
// the first one wins.
func NewRegistry(openers ...Opener) *Registry {
	r := &Registry{
		byExt: make(map[string]Opener),
	}
	for _, o := range openers {
		if o == nil {
			continue
		}
		r.openers = append(r.openers, o)
		for _, ext := range o.Extensions() {
			ext = strings.ToLower(ext)
			if _, exists := r.byExt[ext]; !exists {
				r.byExt[ext] = o
			}
		}
	}
	return r
}

// Lookup returns the opener registered for the file's extension, available or not.
func (r *Registry) Lookup(name string) (Opener, bool) {
	if r == nil {
		return nil, false
	}
	o, ok := r.byExt[strings.ToLower(filepath.Ext(name))]
	return o, ok
}

// Available reports whether a working decoder exists for name.
func (r *Registry) Available(name string) bool {
	o, ok := r.Lookup(name)
	return ok && o.Available()
}

// Formats lists registered formats sorted by name.
func (r *Registry) Formats() []FormatInfo {
	if r == nil {
		return nil
	}
	out := make([]FormatInfo, 0, len(r.openers))
	for _, o := range r.openers {
		info := FormatInfo{
			Format:     o.Format(),
			Extensions: append([]string(nil), o.Extensions()...),
			Available:  o.Available(),
		}
		if u, ok := o.(*unsupported); ok {
			info.Reason = u.reason
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format < out[j].Format })
	return out
}

// Unsupported returns an Opener for a format that is recognised but cannot
// be decoded in this build. It always reports unavailable.
func Unsupported(format, reason string, extensions ...string) Opener {
	return &unsupported{format: format, reason: reason, extensions: extensions}
}

type unsupported struct {
	format     string
	reason     string
	extensions []string
}

func (u *unsupported) Format() string       { return u.format }
func (u *unsupported) Extensions() []string { return u.extensions }
func (u *unsupported) Available() bool      { return false }

func (u *unsupported) Open(_ context.Context, _ string) (Document, error) {
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnavailable, u.format, u.reason)
}

func (u *unsupported) Decode(_ context.Context, _ io.Reader) (Document, error) {
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnavailable, u.format, u.reason)
}
