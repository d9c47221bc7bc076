// Package firesafety analyses CAD layer organisation for fire-safety review.
//
// It works on any cad.Document and runs four steps in one synchronous pass:
//
//  1. Layer classification: every layer name is mapped to a discipline
//     (fire_safety, electrical, ...) and, through a separate keyword table,
//     to a relevance tier (critical, important, contextual, minimal).
//  2. Device extraction: block insertions on the curated fire-safety layers
//     (E-FIRE, E-SPKR, ...) and on any other layer whose name classifies as
//     fire_safety are turned into typed Device records.
//  3. Standards validation: layer names are checked against the AIA naming
//     table and missing curated fire-safety layers are reported.
//  4. Inventory: devices are tallied per layer and per type.
//
// All keyword tables are fixed package data. Results carry no timestamps or
// random identifiers, so analysing the same drawing twice yields
// byte-identical JSON.
//
// # Usage
//
//	formats := cad.NewRegistry(dxf.NewOpener(dxf.DefaultMaxFileSize))
//	analyzer := firesafety.NewAnalyzer(formats)
//	analyzer.SetLogger(logger)
//
//	outcome := analyzer.Analyze(ctx, "level-2.dxf")
//	switch outcome.Status {
//	case firesafety.StatusOK:
//	    fmt.Println(outcome.Result.DeviceSummary.TotalDevices)
//	case firesafety.StatusUnavailable:
//	    // no decoder for this format
//	default:
//	    return outcome.Err()
//	}
//
// Collaborators that count devices visually can compare their figure with
// the layer inventory through CrossCheck.
package firesafety
