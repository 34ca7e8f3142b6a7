package errors

import "errors"

var (
	// ErrNoPendingReason is returned when an approver submits a rejection
	// reason but no rejection of theirs is awaiting one.
	ErrNoPendingReason = errors.New("no rejection awaiting a reason for this approver")
)
