package order

import "errors"

var (
	// ErrDuplicateCode is returned when an order code already exists for the
	// same sales channel. It is surfaced verbatim, never coerced.
	ErrDuplicateCode = errors.New("codigo_orden already exists for this channel")

	// ErrNotFound is returned when the referenced order or item row is gone.
	ErrNotFound = errors.New("order not found")

	// ErrBadPayload marks a fetch whose payload is not a sequence of rows.
	// It is a fetch failure, never an empty-result success.
	ErrBadPayload = errors.New("unexpected payload shape")

	// ErrSessionOpen is returned when opening an edit session while another
	// one is still open. At most one session exists at a time.
	ErrSessionOpen = errors.New("an edit session is already open")

	// ErrNoSession is returned by session operations when no session is open.
	ErrNoSession = errors.New("no edit session is open")
)
