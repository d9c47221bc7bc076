package cad

import "errors"

// Sentinel errors for document decoding.
var (
	// ErrUnavailable indicates no decoder is available for the file format.
	ErrUnavailable = errors.New("cad: format decoder unavailable")

	// ErrInvalidFile indicates the file is not a recognised drawing.
	ErrInvalidFile = errors.New("cad: invalid drawing file")

	// ErrUnsupportedVersion indicates a recognised format variant that cannot be read.
	ErrUnsupportedVersion = errors.New("cad: unsupported drawing version")

	// ErrFileTooLarge indicates the file exceeds the decoder size limit.
	ErrFileTooLarge = errors.New("cad: file exceeds maximum size limit")
)
