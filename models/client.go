package models

import (
	"gorm.io/gorm"
)

// Client is a guest account. A client may only create reservations after a
// staff member approved it (ApprovedBy set).
type Client struct {
	gorm.Model

	Name    string `json:"name" gorm:"type:varchar(255);not null"`
	Country string `json:"country" gorm:"type:varchar(100)"`
	Gender  string `json:"gender" gorm:"type:varchar(16)"`
	Email   string `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Phone   string `json:"phone" gorm:"type:varchar(32)"`

	// ApprovedBy references the staff user who approved the client; nil means
	// the account is still pending approval.
	ApprovedBy *uint `json:"approved_by" gorm:"column:approved_by;index"`

	UserID *uint `json:"user_id,omitempty" gorm:"column:user_id;index"`

	Reservations []Reservation `json:"reservations,omitempty" gorm:"foreignKey:ClientID"`
}

// Approved reports whether the client has passed the approval workflow.
func (c *Client) Approved() bool {
	return c.ApprovedBy != nil
}
