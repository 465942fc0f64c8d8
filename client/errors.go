package client

import "errors"

// Error kinds stored on the handle and wrapped into returned errors.
var (
	// ErrInvalid marks bad input: malformed names, templates, or
	// frames that are not exactly one element.
	ErrInvalid = errors.New("invalid argument or message")
	// ErrIO marks an OS-level failure on the socket or tap.
	ErrIO = errors.New("i/o error")
	// ErrNotConnected marks operations on a closed connection,
	// including a peer close observed on read.
	ErrNotConnected = errors.New("not connected")
	// ErrBusy marks a re-entrant Run.
	ErrBusy = errors.New("handle is already running")
	// ErrInternal marks conditions that cannot happen.
	ErrInternal = errors.New("internal error")
	// ErrTimeout is returned by Get when no content arrived in time.
	ErrTimeout = errors.New("timed out")
)
