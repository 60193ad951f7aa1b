package services

import (
	"context"
	"time"

	"hms-backend/models"
)

// RoomInventory is the single source of truth for a room's booking state.
// Every method must be individually atomic: no two concurrent TryReserve
// calls for the same room may both succeed, and no lock is ever held across
// a payment network call.
type RoomInventory interface {
	GetByNumber(ctx context.Context, number uint) (*models.Room, error)

	// TryReserve transitions available -> being_reserved, or returns
	// ErrRoomUnavailable (ErrRoomNotFound if the room does not exist).
	TryReserve(ctx context.Context, number uint) error

	// Release transitions being_reserved -> available. Releasing a room in
	// any other state is an idempotent no-op, since cancellation can race
	// with success.
	Release(ctx context.Context, number uint) error

	// FinalizeOccupied atomically creates the reservation row and moves the
	// room being_reserved -> occupied in one transaction. If the room is not
	// in being_reserved, nothing is written and ErrInconsistentState is
	// returned.
	FinalizeOccupied(ctx context.Context, res *models.Reservation) error

	// ReleaseExpired releases every room stuck in being_reserved longer than
	// window, returning how many were released. Idempotent.
	ReleaseExpired(ctx context.Context, window time.Duration) (int64, error)
}

// ApprovalChecker answers whether a client may create a reservation on a
// room. It is injected into the workflow so the engine stays decoupled from
// any particular role model.
type ApprovalChecker interface {
	// CanReserve returns nil when allowed, ErrNotApproved when the client is
	// pending approval or lacks the reservation capability.
	CanReserve(ctx context.Context, clientID uint, roomNumber uint) error
}

// SessionStore persists pending checkout sessions between Initiate and the
// out-of-band success/cancel callback.
type SessionStore interface {
	Create(ctx context.Context, session *models.CheckoutSession) error
	GetByRef(ctx context.Context, ref string) (*models.CheckoutSession, error)

	// MarkCompleted flips a pending session to completed and records the
	// reservation it produced. Returns ErrSessionNotFound if the session is
	// no longer pending (completion races are resolved by whoever gets here
	// first).
	MarkCompleted(ctx context.Context, ref string, reservationID uint) error

	// Close flips a pending session to the given terminal status (cancelled
	// or expired). Closing a non-pending session is a no-op.
	Close(ctx context.Context, ref string, status string) error

	// ExpirePending returns every pending session whose hold window elapsed
	// before now, marking each expired. Safe to call repeatedly.
	ExpirePending(ctx context.Context, now time.Time) ([]models.CheckoutSession, error)
}
