package services

import "errors"

// Workflow errors. Controllers map these onto HTTP error codes; anything not
// in this list is treated as an internal error.
var (
	// ErrRoomNotFound: the requested room number does not exist.
	ErrRoomNotFound = errors.New("room_not_found")

	// ErrRoomUnavailable: the room is not in the available state. The loser
	// of a concurrent initiate race gets this synchronously; there is no
	// queued retry.
	ErrRoomUnavailable = errors.New("room_unavailable")

	// ErrCapacityExceeded: accompany_number exceeds the room capacity.
	ErrCapacityExceeded = errors.New("capacity_exceeded")

	// ErrNotApproved: the client has not been approved for reservations.
	ErrNotApproved = errors.New("client_not_approved")

	// ErrClientNotFound: no such client.
	ErrClientNotFound = errors.New("client_not_found")

	// ErrPaymentFailed: the gateway declined or the charge could not be
	// completed. The room has already been released when this is returned.
	ErrPaymentFailed = errors.New("payment_failed")

	// ErrSessionNotFound: unknown checkout session reference.
	ErrSessionNotFound = errors.New("session_not_found")

	// ErrSessionExpired: the checkout session's hold window elapsed before
	// the payment completed.
	ErrSessionExpired = errors.New("session_expired")

	// ErrInconsistentState: a finalize step found the room outside
	// being_reserved. This is a programming/ordering fault that needs manual
	// reconciliation; it is never retried (a retry could double-charge).
	ErrInconsistentState = errors.New("inconsistent_state")
)
