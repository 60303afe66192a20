package service

import "errors"

var (
	// ErrNotFound is returned when an operation targets a record id that is
	// not in the collection.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateActiveEntry rejects a visitor entry while another record
	// with the same document is still active on-site.
	ErrDuplicateActiveEntry = errors.New("visitor already has an active entry")

	// ErrAlreadyDeparted rejects checkout of a record that already departed.
	ErrAlreadyDeparted = errors.New("visitor already departed")

	// ErrMissingField rejects input with a required field absent; wrapping
	// adds the field name.
	ErrMissingField = errors.New("required field is missing")

	// ErrInvalidSchedule rejects appointment input whose date or time does
	// not parse.
	ErrInvalidSchedule = errors.New("invalid schedule date or time")

	// ErrScheduleConflict rejects an appointment within the conflict window
	// of an existing one at the same destination.
	ErrScheduleConflict = errors.New("appointment conflicts with an existing one")
)
