package dvc

import "errors"

var (
	// ErrSourceNotFound is returned when a required document does not exist.
	ErrSourceNotFound = errors.New("source document not found")

	// ErrMalformedDocument is returned when a document does not have the
	// expected top-level shape.
	ErrMalformedDocument = errors.New("malformed document")
)
