package errors

import "errors"

var (
	// ErrNoSession is returned when input arrives for a requester with no
	// intake dialogue in progress.
	ErrNoSession = errors.New("no intake session in progress")
)
