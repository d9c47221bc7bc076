package archive

import "errors"

var (
	// ErrNotFound is returned when no analysis has the requested ID.
	ErrNotFound = errors.New("archive: analysis not found")

	// ErrInvalidRecord is returned when a record is missing required fields.
	ErrInvalidRecord = errors.New("archive: invalid record")
)
