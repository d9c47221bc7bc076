package cad

import (
	"context"
	"io"
	"sync"
)

// EntityKind is the DXF-style entity type name (INSERT, LINE, TEXT, ...).
type EntityKind string

// Entity kinds the analysis cares about.
const (
	// KindAny matches every entity kind in Document.Entities.
	KindAny EntityKind = ""

	// KindInsert is a block insertion.
	KindInsert EntityKind = "INSERT"
)

// Layer defaults applied when a decoder has no table entry for a layer.
const (
	DefaultColorIndex = 7
	DefaultLineWeight = -3
)

// Layer is one entry of the drawing's layer table.
type Layer struct {
	Name       string
	ColorIndex int
	LineWeight int
	Frozen     bool
	Hidden     bool
}

// Attribute is a single tag/text pair attached to a block insertion.
type Attribute struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// Entity is a drawing entity as seen through the adapter.
//
// Rotation and scale are pointers because the source entity may omit them;
// consumers resolve defaults once instead of guessing from zero values.
type Entity struct {
	Kind       EntityKind
	Layer      string
	BlockName  string
	X          float64
	Y          float64
	Rotation   *float64
	ScaleX     *float64
	ScaleY     *float64
	Attributes []Attribute
}

// Float returns a pointer to v, for building entities with optional fields.
func Float(v float64) *float64 {
	return &v
}

// Document is an opened drawing.
type Document interface {
	// Layers returns the layer table in document order.
	Layers() []Layer

	// Entities returns the entities owned by layer (exact name match).
	// KindAny returns every kind. An unknown layer yields an empty slice.
	Entities(layer string, kind EntityKind) []Entity

	// Close releases the document. It is safe to call more than once.
	Close() error
}

// Opener decodes one drawing format.
type Opener interface {
	// Format is the short format name (e.g. "dxf").
	Format() string

	// Extensions lists the lower-case file extensions handled, with dot.
	Extensions() []string

	// Available reports whether the decoder can actually read files.
	Available() bool

	// Open decodes the file at path.
	Open(ctx context.Context, path string) (Document, error)

	// Decode reads a drawing from r.
	Decode(ctx context.Context, r io.Reader) (Document, error)
}

// Drawing is an in-memory Document.
type Drawing struct {
	layers   []Layer
	entities []Entity
	byLayer  map[string][]int

	mu     sync.RWMutex
	closed bool
}

// NewDrawing builds a Drawing from a layer table and an entity list.
//
// Duplicate layer names keep the first entry. Layers referenced by entities
// but absent from the table are appended with default properties, so every
// entity's layer is always listed by Layers.
func NewDrawing(layers []Layer, entities []Entity) *Drawing {
	d := &Drawing{
		layers:   make([]Layer, 0, len(layers)),
		entities: make([]Entity, 0, len(entities)),
		byLayer:  make(map[string][]int),
	}

	seen := make(map[string]bool, len(layers))
	for _, l := range layers {
		if seen[l.Name] {
			continue
		}
		seen[l.Name] = true
		d.layers = append(d.layers, l)
	}

	for _, e := range entities {
		if !seen[e.Layer] {
			seen[e.Layer] = true
			d.layers = append(d.layers, Layer{
				Name:       e.Layer,
				ColorIndex: DefaultColorIndex,
				LineWeight: DefaultLineWeight,
			})
		}
		d.byLayer[e.Layer] = append(d.byLayer[e.Layer], len(d.entities))
		d.entities = append(d.entities, cloneEntity(e))
	}

	return d
}

// Layers returns a copy of the layer table.
func (d *Drawing) Layers() []Layer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil
	}

	out := make([]Layer, len(d.layers))
	copy(out, d.layers)
	return out
}

// Entities returns copies of the entities on layer filtered by kind.
func (d *Drawing) Entities(layer string, kind EntityKind) []Entity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil
	}

	idx := d.byLayer[layer]
	out := make([]Entity, 0, len(idx))
	for _, i := range idx {
		e := d.entities[i]
		if kind != KindAny && e.Kind != kind {
			continue
		}
		out = append(out, cloneEntity(e))
	}
	return out
}

// EntityCount returns the total number of entities in the drawing.
func (d *Drawing) EntityCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entities)
}

// Close marks the drawing closed. Later reads return empty results.
func (d *Drawing) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called.
func (d *Drawing) Closed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

func cloneEntity(e Entity) Entity {
	if e.Attributes != nil {
		attrs := make([]Attribute, len(e.Attributes))
		copy(attrs, e.Attributes)
		e.Attributes = attrs
	}
	e.Rotation = cloneFloat(e.Rotation)
	e.ScaleX = cloneFloat(e.ScaleX)
	e.ScaleY = cloneFloat(e.ScaleY)
	return e
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
