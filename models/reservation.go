package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment status of a reservation.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// Reservation is only ever created as the terminal step of a successful
// payment; its price is the room price at initiation time and never changes
// afterwards, even if the room is repriced.
type Reservation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ReservationDate time.Time `json:"reservation_date" gorm:"column:reservation_date;not null"`

	// PriceCents is the snapshot of the room price, in cents, captured when
	// the reservation was initiated.
	PriceCents int64 `json:"reservation_price" gorm:"column:reservation_price;not null"`

	RoomNumber      uint  `json:"room_number" gorm:"column:room_number;index;not null"`
	ClientID        *uint `json:"client_id" gorm:"column:client_id;index"`
	AccompanyNumber int   `json:"accompany_number" gorm:"column:accompany_number;default:1"`

	PaymentStatus string `json:"payment_status" gorm:"column:payment_status;size:32;index;default:pending"`
	PaymentID     string `json:"payment_id,omitempty" gorm:"column:payment_id;size:128;index"`

	Room   Room    `json:"room,omitempty" gorm:"foreignKey:RoomNumber;references:Number"`
	Client *Client `json:"client,omitempty" gorm:"foreignKey:ClientID;references:ID"`
}
