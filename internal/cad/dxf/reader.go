package dxf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nerrad567/firecad/internal/cad"
)

// Reader limits.
const (
	// maxLineLength bounds a single group value (long MTEXT runs, XDATA).
	maxLineLength = 1024 * 1024

	// ctxCheckInterval is how many records are read between context checks.
	ctxCheckInterval = 512

	// binarySentinel opens every binary DXF file.
	binarySentinel = "AutoCAD Binary DXF"

	// defaultLayer is the layer DXF assigns when an entity omits group 8.
	defaultLayer = "0"
)

// Group codes used by the reader.
const (
	codeStructure  = 0
	codeText       = 1
	codeName       = 2
	codeLayer      = 8
	codeX          = 10
	codeY          = 20
	codeScaleX     = 41
	codeScaleY     = 42
	codeRotation   = 50
	codeColor      = 62
	codeFollows    = 66
	codePaperSpace = 67
	codeFlags      = 70
	codeLineWeight = 370
	codeComment    = 999
)

// Layer table flag bits (group 70).
const (
	layerFlagFrozen = 1
)

// pair is one group code / value pair.
type pair struct {
	code  int
	value string
	line  int
}

// record is a structural record: its 0-group kind and the pairs that follow.
type record struct {
	kind   string
	line   int
	groups []pair
}

func (r record) str(code int) (string, bool) {
	for _, g := range r.groups {
		if g.code == code {
			return g.value, true
		}
	}
	return "", false
}

func (r record) integer(code int) (int, bool, error) {
	s, ok := r.str(code)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("%w: line %d: group %d: %q is not an integer", cad.ErrInvalidFile, r.line, code, s)
	}
	return v, true, nil
}

func (r record) number(code int) (float64, bool, error) {
	s, ok := r.str(code)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: line %d: group %d: %q is not a number", cad.ErrInvalidFile, r.line, code, s)
	}
	return v, true, nil
}

// pairReader yields group pairs from an ASCII DXF stream.
type pairReader struct {
	sc      *bufio.Scanner
	line    int
	pending *pair
}

func newPairReader(r io.Reader) *pairReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &pairReader{sc: sc}
}

func (p *pairReader) scanLine() (string, bool) {
	if !p.sc.Scan() {
		return "", false
	}
	p.line++
	return strings.TrimSpace(p.sc.Text()), true
}

// next returns io.EOF only on a clean pair boundary. Comment pairs are
// skipped.
func (p *pairReader) next() (pair, error) {
	if p.pending != nil {
		out := *p.pending
		p.pending = nil
		return out, nil
	}
	for {
		pr, err := p.readPair()
		if err != nil || pr.code != codeComment {
			return pr, err
		}
	}
}

func (p *pairReader) readPair() (pair, error) {
	codeText, ok := p.scanLine()
	if !ok {
		if err := p.sc.Err(); err != nil {
			return pair{}, err
		}
		return pair{}, io.EOF
	}
	line := p.line

	code, err := strconv.Atoi(codeText)
	if err != nil {
		if line == 1 && strings.HasPrefix(codeText, binarySentinel) {
			return pair{}, fmt.Errorf("%w: binary DXF", cad.ErrUnsupportedVersion)
		}
		return pair{}, fmt.Errorf("%w: line %d: invalid group code %q", cad.ErrInvalidFile, line, codeText)
	}

	value, ok := p.scanLine()
	if !ok {
		if err := p.sc.Err(); err != nil {
			return pair{}, err
		}
		return pair{}, fmt.Errorf("%w: line %d: group %d has no value", cad.ErrInvalidFile, line, code)
	}

	return pair{code: code, value: value, line: line}, nil
}

func (p *pairReader) unread(pr pair) {
	p.pending = &pr
}

// nextRecord reads a 0-group and every pair up to the next 0-group.
func (p *pairReader) nextRecord() (record, error) {
	head, err := p.next()
	if err != nil {
		return record{}, err
	}
	if head.code != codeStructure {
		return record{}, fmt.Errorf("%w: line %d: expected group 0, got %d", cad.ErrInvalidFile, head.line, head.code)
	}

	rec := record{kind: strings.ToUpper(head.value), line: head.line}
	for {
		pr, err := p.next()
		if errors.Is(err, io.EOF) {
			return rec, nil
		}
		if err != nil {
			return record{}, err
		}
		if pr.code == codeStructure {
			p.unread(pr)
			return rec, nil
		}
		rec.groups = append(rec.groups, pr)
	}
}

// decoder accumulates layers and entities while walking the file.
type decoder struct {
	ctx      context.Context
	pr       *pairReader
	records  int
	layers   []cad.Layer
	entities []cad.Entity
}

// Read decodes an ASCII DXF stream into a Drawing. No size limit is applied.
func Read(ctx context.Context, r io.Reader) (*cad.Drawing, error) {
	d := &decoder{ctx: ctx, pr: newPairReader(r)}
	if err := d.run(); err != nil {
		return nil, err
	}
	return cad.NewDrawing(d.layers, d.entities), nil
}

// ReadBytes decodes an in-memory DXF file.
func ReadBytes(ctx context.Context, data []byte) (*cad.Drawing, error) {
	return Read(ctx, bytes.NewReader(data))
}

func (d *decoder) read() (record, error) {
	d.records++
	if d.records%ctxCheckInterval == 0 {
		if err := d.ctx.Err(); err != nil {
			return record{}, err
		}
	}
	return d.pr.nextRecord()
}

func (d *decoder) run() error {
	sections := 0
	for {
		rec, err := d.read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		switch rec.kind {
		case "EOF":
			if sections == 0 {
				return fmt.Errorf("%w: no sections", cad.ErrInvalidFile)
			}
			return d.ctx.Err()
		case "SECTION":
			sections++
			name, _ := rec.str(codeName)
			if err := d.section(strings.ToUpper(name)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: line %d: unexpected %s outside a section", cad.ErrInvalidFile, rec.line, rec.kind)
		}
	}

	if sections == 0 {
		return fmt.Errorf("%w: no sections", cad.ErrInvalidFile)
	}
	return d.ctx.Err()
}

func (d *decoder) section(name string) error {
	switch name {
	case "TABLES":
		return d.tables()
	case "ENTITIES":
		return d.entitiesSection()
	default:
		return d.skipSection()
	}
}

func (d *decoder) skipSection() error {
	for {
		rec, err := d.read()
		if err != nil {
			return unexpectedEOF(err)
		}
		if rec.kind == "ENDSEC" {
			return nil
		}
	}
}

func (d *decoder) tables() error {
	table := ""
	for {
		rec, err := d.read()
		if err != nil {
			return unexpectedEOF(err)
		}

		switch rec.kind {
		case "ENDSEC":
			return nil
		case "TABLE":
			name, _ := rec.str(codeName)
			table = strings.ToUpper(name)
		case "ENDTAB":
			table = ""
		case "LAYER":
			if table != "LAYER" {
				continue
			}
			layer, err := layerFromRecord(rec)
			if err != nil {
				return err
			}
			d.layers = append(d.layers, layer)
		}
	}
}

func layerFromRecord(rec record) (cad.Layer, error) {
	name, ok := rec.str(codeName)
	if !ok || name == "" {
		return cad.Layer{}, fmt.Errorf("%w: line %d: layer without a name", cad.ErrInvalidFile, rec.line)
	}

	layer := cad.Layer{
		Name:       name,
		ColorIndex: cad.DefaultColorIndex,
		LineWeight: cad.DefaultLineWeight,
	}

	color, ok, err := rec.integer(codeColor)
	if err != nil {
		return cad.Layer{}, err
	}
	if ok {
		// A negative colour number means the layer is switched off.
		if color < 0 {
			layer.Hidden = true
			color = -color
		}
		layer.ColorIndex = color
	}

	flags, _, err := rec.integer(codeFlags)
	if err != nil {
		return cad.Layer{}, err
	}
	layer.Frozen = flags&layerFlagFrozen != 0

	lw, ok, err := rec.integer(codeLineWeight)
	if err != nil {
		return cad.Layer{}, err
	}
	if ok {
		layer.LineWeight = lw
	}

	return layer, nil
}

func (d *decoder) entitiesSection() error {
	// owner is the INSERT collecting ATTRIBs, or -1 while inside a
	// sequence whose children are dropped (polyline vertices).
	owner := -1
	inSequence := false

	for {
		rec, err := d.read()
		if err != nil {
			return unexpectedEOF(err)
		}

		switch rec.kind {
		case "ENDSEC":
			return nil
		case "SEQEND":
			inSequence = false
			owner = -1
			continue
		case "ATTRIB":
			if inSequence && owner >= 0 {
				tag, _ := rec.str(codeName)
				text, _ := rec.str(codeText)
				d.entities[owner].Attributes = append(d.entities[owner].Attributes, cad.Attribute{Tag: tag, Text: text})
			}
			continue
		case "VERTEX":
			continue
		}

		// Any other entity closes an unterminated sequence.
		inSequence = false
		owner = -1

		paper, _, err := rec.integer(codePaperSpace)
		if err != nil {
			return err
		}
		follows, _, err := rec.integer(codeFollows)
		if err != nil {
			return err
		}

		if paper == 1 {
			// Keep swallowing the children of a paper-space sequence.
			inSequence = follows == 1 || rec.kind == "POLYLINE"
			continue
		}

		entity, err := entityFromRecord(rec)
		if err != nil {
			return err
		}
		d.entities = append(d.entities, entity)

		switch {
		case rec.kind == string(cad.KindInsert) && follows == 1:
			inSequence = true
			owner = len(d.entities) - 1
		case rec.kind == "POLYLINE":
			inSequence = true
		}
	}
}

func entityFromRecord(rec record) (cad.Entity, error) {
	layer, ok := rec.str(codeLayer)
	if !ok || layer == "" {
		layer = defaultLayer
	}

	e := cad.Entity{
		Kind:  cad.EntityKind(rec.kind),
		Layer: layer,
	}
	if e.Kind != cad.KindInsert {
		return e, nil
	}

	e.BlockName, _ = rec.str(codeName)

	var err error
	if e.X, _, err = rec.number(codeX); err != nil {
		return cad.Entity{}, err
	}
	if e.Y, _, err = rec.number(codeY); err != nil {
		return cad.Entity{}, err
	}

	optional := []struct {
		code int
		dst  **float64
	}{
		{codeRotation, &e.Rotation},
		{codeScaleX, &e.ScaleX},
		{codeScaleY, &e.ScaleY},
	}
	for _, o := range optional {
		v, ok, err := rec.number(o.code)
		if err != nil {
			return cad.Entity{}, err
		}
		if ok {
			*o.dst = cad.Float(v)
		}
	}

	return e, nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected end of file inside section", cad.ErrInvalidFile)
	}
	return err
}
