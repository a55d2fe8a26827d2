package repos

import "errors"

var (
	// ErrNotFound is the generic sentinel for missing rows.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateActive is returned by the conditional intervention create
	// when an open intervention already exists for the (student, category) pair.
	ErrDuplicateActive = errors.New("duplicate active intervention")
	// ErrTerminalStatus is returned when a status update targets an
	// intervention that already reached a terminal status.
	ErrTerminalStatus = errors.New("intervention already terminal")
)
