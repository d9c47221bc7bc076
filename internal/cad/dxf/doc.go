// Package dxf reads ASCII DXF drawings into cad.Drawing values.
//
// Only the parts of a drawing the fire-safety analysis consumes are decoded:
//
//   - the LAYER table (name, colour, line weight, frozen and off states)
//   - model-space entities in the ENTITIES section (kind and owning layer)
//   - INSERT entities in full (block name, insertion point, rotation, scale)
//     together with their trailing ATTRIB entities
//
// BLOCKS, OBJECTS and every other section are skipped. Paper-space entities
// (group 67 = 1) are ignored, as are the VERTEX records of polylines.
//
// Binary DXF is detected and rejected with cad.ErrUnsupportedVersion.
//
// # Usage
//
//	opener := dxf.NewOpener(dxf.DefaultMaxFileSize)
//	doc, err := opener.Open(ctx, "level-1.dxf")
//	if err != nil {
//	    return err
//	}
//	defer doc.Close()
package dxf
