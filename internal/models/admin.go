package models

import "time"

// Admin is a catalog editor account. Only active admins can obtain a token.
type Admin struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"type:text;not null;uniqueIndex"`
	Password string `gorm:"type:text;not null"` // bcrypt hash
	Active   bool   `gorm:"not null;default:true"`

	LastLoginAt *time.Time

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}
