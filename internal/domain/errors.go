package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a raw listing missing a required field
	ErrMalformedRecord = errors.New("malformed record")
	// ErrEmptyQuery is returned for a blank job title
	ErrEmptyQuery = errors.New("empty job title query")
	// ErrSuperseded is returned when a newer request from the same session cancelled this one
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrSourceUnavailable wraps transport and decoding failures of a listing source
	ErrSourceUnavailable = errors.New("listing source unavailable")
)

// MalformedRecordError reports which record and field could not be normalized
type MalformedRecordError struct {
	Index int
	ID    string
	Field string
}

func (e *MalformedRecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed record %d (id %s): missing %s", e.Index, e.ID, e.Field)
	}
	return fmt.Sprintf("malformed record %d: missing %s", e.Index, e.Field)
}

// Is lets errors.Is match ErrMalformedRecord
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
