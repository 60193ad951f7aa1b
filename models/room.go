package models

import (
	"time"

	"gorm.io/gorm"
)

// Room states. Reservation-related transitions (available -> being_reserved ->
// occupied/available) belong to the inventory service; maintenance toggling is
// the only state change room management may do directly.
const (
	RoomStateAvailable     = "available"
	RoomStateBeingReserved = "being_reserved"
	RoomStateOccupied      = "occupied"
	RoomStateMaintenance   = "maintenance"
)

type Room struct {
	gorm.Model

	Number      uint   `json:"number" gorm:"column:number;uniqueIndex;not null"`
	Title       string `json:"title" gorm:"type:varchar(255)"`
	Description string `json:"description" gorm:"type:text"`
	Capacity    int    `json:"capacity" gorm:"not null"`

	// Price is stored in minor currency units (cents); never a float.
	PriceCents int64 `json:"room_price" gorm:"column:room_price;not null"`

	State string `json:"state" gorm:"type:varchar(32);index;default:available"`

	// ReservedAt is set when the room enters being_reserved and cleared on
	// confirm/release. The reconciliation sweep keys off it.
	ReservedAt *time.Time `json:"-" gorm:"column:reserved_at"`

	FloorNumber   uint  `json:"floor_number" gorm:"column:floor_number;index"`
	CreatorUserID *uint `json:"creator_user_id,omitempty" gorm:"column:creator_user_id"`

	Floor Floor `json:"floor,omitempty" gorm:"foreignKey:FloorNumber;references:Number"`
}

func ValidRoomState(state string) bool {
	switch state {
	case RoomStateAvailable, RoomStateBeingReserved, RoomStateOccupied, RoomStateMaintenance:
		return true
	}
	return false
}
