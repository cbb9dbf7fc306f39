package models

import "time"

// Brand is a vehicle make such as "BMW".
type Brand struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`         // Primary key.
	Name string `gorm:"type:text;not null;uniqueIndex" json:"name"` // Unique display name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// VehicleModel is a model name such as "i4". Model names are shared across brands.
type VehicleModel struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`         // Primary key.
	Name string `gorm:"type:text;not null;uniqueIndex" json:"name"` // Unique display name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// TableName overrides the default table name.
func (VehicleModel) TableName() string {
	return "vehicle_models"
}

// Series is a generation label such as "2024 LCI" that several generations may share.
type Series struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`         // Primary key.
	Name string `gorm:"type:text;not null;uniqueIndex" json:"name"` // Unique display name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Series) TableName() string {
	return "series"
}

// Package is an equipment package such as "M50".
type Package struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`         // Primary key.
	Name string `gorm:"type:text;not null;uniqueIndex" json:"name"` // Unique display name.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// Year is a selectable model year. Rules use year ranges, never references to Year rows.
type Year struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.
	Year int    `gorm:"not null;uniqueIndex" json:"year"`   // Four-digit year.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
}
