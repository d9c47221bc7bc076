// Package cad defines the boundary between FireCAD and CAD file decoders.
//
// A decoder turns a drawing file into a Document: an enumerable set of
// layers plus the entities placed on them. The fire-safety analysis never
// looks at decoder internals; it only consumes the Document interface.
//
// # Formats
//
// Decoders register themselves with a Registry keyed by file extension.
// A format can be known but unavailable (for example .dwg, which has no
// decoder in this build). Callers check availability before opening:
//
//	formats := cad.NewRegistry(dxf.NewOpener(dxf.DefaultMaxFileSize), cad.Unsupported("dwg", "binary DWG decoder not installed", ".dwg"))
//	if !formats.Available("plan.dwg") {
//	    // report unavailable, do not open
//	}
//
// # Drawing
//
// Drawing is the fully materialised, read-only Document produced by the
// decoders in this module. It is safe for concurrent readers.
package cad
