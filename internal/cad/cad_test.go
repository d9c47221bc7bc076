package cad

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOpener struct {
	format string
	exts   []string
	doc    Document
}

func (s *stubOpener) Format() string       { return s.format }
func (s *stubOpener) Extensions() []string { return s.exts }
func (s *stubOpener) Available() bool      { return true }

func (s *stubOpener) Open(context.Context, string) (Document, error) { return s.doc, nil }

func (s *stubOpener) Decode(context.Context, io.Reader) (Document, error) { return s.doc, nil }

func TestNewDrawing_DeduplicatesAndFillsLayers(t *testing.T) {
	d := NewDrawing(
		[]Layer{
			{Name: "E-FIRE", ColorIndex: 1, LineWeight: 25},
			{Name: "E-FIRE", ColorIndex: 3},
			{Name: "A-WALL", ColorIndex: 2},
		},
		[]Entity{
			{Kind: KindInsert, Layer: "E-FIRE", BlockName: "SD-1"},
			{Kind: "LINE", Layer: "A-WALL"},
			{Kind: KindInsert, Layer: "ORPHAN", BlockName: "X"},
		},
	)

	layers := d.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, "E-FIRE", layers[0].Name)
	assert.Equal(t, 1, layers[0].ColorIndex)
	assert.Equal(t, "ORPHAN", layers[2].Name)
	assert.Equal(t, DefaultColorIndex, layers[2].ColorIndex)
	assert.Equal(t, DefaultLineWeight, layers[2].LineWeight)
	assert.Equal(t, 3, d.EntityCount())
}

func TestDrawing_EntitiesFilter(t *testing.T) {
	d := NewDrawing(nil, []Entity{
		{Kind: KindInsert, Layer: "E-FIRE", BlockName: "SD-1"},
		{Kind: "CIRCLE", Layer: "E-FIRE"},
		{Kind: KindInsert, Layer: "E-FIRE", BlockName: "SD-2"},
	})

	assert.Len(t, d.Entities("E-FIRE", KindAny), 3)
	inserts := d.Entities("E-FIRE", KindInsert)
	require.Len(t, inserts, 2)
	assert.Equal(t, "SD-1", inserts[0].BlockName)
	assert.Equal(t, "SD-2", inserts[1].BlockName)
	assert.Empty(t, d.Entities("e-fire", KindAny), "layer lookup is exact")
	assert.Empty(t, d.Entities("MISSING", KindAny))
}

func TestDrawing_ReturnsCopies(t *testing.T) {
	d := NewDrawing(nil, []Entity{{
		Kind:       KindInsert,
		Layer:      "E-FIRE",
		BlockName:  "SD-1",
		Rotation:   Float(90),
		Attributes: []Attribute{{Tag: "ZONE", Text: "1"}},
	}})

	first := d.Entities("E-FIRE", KindInsert)
	*first[0].Rotation = 45
	first[0].Attributes[0].Text = "changed"

	second := d.Entities("E-FIRE", KindInsert)
	assert.Equal(t, 90.0, *second[0].Rotation)
	assert.Equal(t, "1", second[0].Attributes[0].Text)
}

func TestDrawing_Close(t *testing.T) {
	d := NewDrawing([]Layer{{Name: "0"}}, nil)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.True(t, d.Closed())
	assert.Nil(t, d.Layers())
	assert.Nil(t, d.Entities("0", KindAny))
}

func TestRegistry_Lookup(t *testing.T) {
	dxf := &stubOpener{format: "dxf", exts: []string{".dxf"}}
	r := NewRegistry(dxf, Unsupported("dwg", "no decoder", ".dwg"))

	o, ok := r.Lookup("plans/Level1.DXF")
	require.True(t, ok)
	assert.Equal(t, "dxf", o.Format())
	assert.True(t, r.Available("a.dxf"))

	o, ok = r.Lookup("plan.dwg")
	require.True(t, ok)
	assert.Equal(t, "dwg", o.Format())
	assert.False(t, r.Available("plan.dwg"))

	_, ok = r.Lookup("plan.pdf")
	assert.False(t, ok)
	assert.False(t, r.Available("plan.pdf"))
	assert.False(t, r.Available("noext"))
}

func TestRegistry_FirstOpenerWins(t *testing.T) {
	a := &stubOpener{format: "a", exts: []string{".dxf"}}
	b := &stubOpener{format: "b", exts: []string{".dxf"}}
	r := NewRegistry(a, nil, b)

	o, ok := r.Lookup("x.dxf")
	require.True(t, ok)
	assert.Equal(t, "a", o.Format())
}

func TestRegistry_Formats(t *testing.T) {
	r := NewRegistry(
		Unsupported("dwg", "no decoder", ".dwg"),
		&stubOpener{format: "dxf", exts: []string{".dxf"}},
	)

	formats := r.Formats()
	require.Len(t, formats, 2)
	assert.Equal(t, "dwg", formats[0].Format)
	assert.False(t, formats[0].Available)
	assert.Equal(t, "no decoder", formats[0].Reason)
	assert.Equal(t, "dxf", formats[1].Format)
	assert.True(t, formats[1].Available)
	assert.Empty(t, formats[1].Reason)
}

func TestUnsupported_OpenFails(t *testing.T) {
	o := Unsupported("dwg", "no decoder", ".dwg")
	assert.False(t, o.Available())

	_, err := o.Open(context.Background(), "x.dwg")
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = o.Decode(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	_, ok := r.Lookup("x.dxf")
	assert.False(t, ok)
	assert.False(t, r.Available("x.dxf"))
	assert.Nil(t, r.Formats())
}
