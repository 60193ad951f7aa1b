package models

import (
	"gorm.io/gorm"
)

// User is a staff account (admin, manager, receptionist). Client-facing
// authentication lives outside this service; users exist here for creator
// references, approvals and permission checks.
type User struct {
	gorm.Model

	Name     string `json:"name" gorm:"type:varchar(255)"`
	Email    string `json:"email" gorm:"type:varchar(255);uniqueIndex"`
	Password string `json:"-" gorm:"type:varchar(255)"`
}
