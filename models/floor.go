package models

import (
	"gorm.io/gorm"
)

type Floor struct {
	gorm.Model

	Number        uint   `json:"number" gorm:"column:number;uniqueIndex;not null"`
	Name          string `json:"name" gorm:"type:varchar(100);not null"`
	CreatorUserID *uint  `json:"creator_user_id,omitempty" gorm:"column:creator_user_id"`

	Rooms []Room `json:"rooms,omitempty" gorm:"foreignKey:FloorNumber;references:Number"`
}
