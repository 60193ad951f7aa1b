package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Checkout session status.
const (
	SessionStatusPending   = "pending"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
	SessionStatusExpired   = "expired"
)

// CheckoutSession carries the context of an asynchronous payment attempt
// between Initiate and the success/cancel callback. While a pending session
// exists its room stays in being_reserved; the session expires after the
// reservation hold window and the sweep releases the room.
type CheckoutSession struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// SessionRef is the opaque reference handed to the caller (and embedded
	// in the success/cancel URLs).
	SessionRef string `json:"session_ref" gorm:"column:session_ref;size:64;uniqueIndex;not null"`

	// GatewayRef is the gateway's own identifier for the checkout session or
	// payment intent behind this attempt.
	GatewayRef  string `json:"gateway_ref,omitempty" gorm:"column:gateway_ref;size:128;index"`
	RedirectURL string `json:"redirect_url,omitempty" gorm:"column:redirect_url;type:text"`

	RoomNumber      uint      `json:"room_number" gorm:"column:room_number;index;not null"`
	ClientID        uint      `json:"client_id" gorm:"column:client_id;index;not null"`
	AccompanyNumber int       `json:"accompany_number" gorm:"column:accompany_number;default:1"`
	ReservationDate time.Time `json:"reservation_date" gorm:"column:reservation_date"`

	// AmountCents is the charged amount: the room price snapshot in cents.
	AmountCents int64 `json:"amount_cents" gorm:"column:amount_cents;not null"`

	Status    string     `json:"status" gorm:"column:status;size:32;index;default:pending"`
	ExpiresAt *time.Time `json:"expires_at" gorm:"column:expires_at;index"`

	// ReservationID is filled in once the session completes.
	ReservationID *uint `json:"reservation_id,omitempty" gorm:"column:reservation_id"`

	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata"`
}

// Expired reports whether the session's hold window has elapsed.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}
