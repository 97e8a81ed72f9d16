package hcl

import "errors"

var (
	// ErrNoSceneFiles is returned when none of the given paths holds a scene file.
	ErrNoSceneFiles = errors.New("no scene files found")
	// ErrUnknownReference is returned when a block names a data-block that
	// does not exist.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrInvalidValue is returned for attribute values outside their domain.
	ErrInvalidValue = errors.New("invalid value")
)
