package models

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid arguments")
)

// Ingest failure kinds. Callers match them with errors.Is.
var (
	ErrAudioStorage = errors.New("audio storage failure")
	ErrUpstream     = errors.New("upstream failure")
	ErrPersistence  = errors.New("persistence failure")
)
