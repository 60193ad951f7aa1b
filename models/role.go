package models

import "time"

type Role struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:100;uniqueIndex" json:"name"`
	Description string           `gorm:"size:255" json:"description"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"permissions"`
	Members     []User           `gorm:"many2many:role_members;joinForeignKey:RoleID;JoinReferences:UserID" json:"members"`
	CreatedAt   time.Time        `json:"created_at"`
}

type RolePermission struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	RoleID     uint   `gorm:"not null;index:idx_role_permission,unique" json:"role_id"`
	Permission string `gorm:"size:150;not null;index:idx_role_permission,unique" json:"permission"`
}

type RoleMember struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	RoleID uint `gorm:"not null;index:idx_role_member,unique" json:"role_id"`
	UserID uint `gorm:"not null;index:idx_role_member,unique" json:"user_id"`
}
