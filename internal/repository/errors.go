package repository

import "errors"

// ErrDocNotFound is returned when a document id has no match in the store.
var ErrDocNotFound = errors.New("document not found")
