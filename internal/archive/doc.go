// Package archive stores finished analyses in SQLite.
//
// Each Record keeps the outcome envelope (source, status, totals, warnings)
// and the full AnalysisResult as JSON. Extracted devices are also written
// row by row so inventory totals can be queried across drawings without
// decoding every stored result.
//
// IDs and timestamps live on the Record only; the AnalysisResult itself
// stays free of them so repeated analyses of one drawing compare equal.
package archive
