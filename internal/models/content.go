package models

import "time"

// DefaultGroupMaxItems is the cap applied to a content group when none is given.
const DefaultGroupMaxItems = 1

// ContentGroup caps how many of its member items may appear together in generated copy.
type ContentGroup struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Name        string `gorm:"type:text;not null;uniqueIndex" json:"name"` // Unique group name.
	Description string `gorm:"type:text" json:"description"`               // What the group represents.
	MaxItems    int    `gorm:"not null;default:1" json:"max_items"`        // Members allowed to co-occur.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// ContentItem is a short reusable marketing text ("blurb").
type ContentItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	Text string `gorm:"type:text;not null" json:"text"` // Marketing text.

	GroupID       *uint64       `gorm:"index" json:"group_id"`                                                  // Optional exclusion group.
	Group         *ContentGroup `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"` // Group relation.
	GroupPriority int           `gorm:"not null;default:0" json:"group_priority"`                               // Higher wins inside the group.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// TableName overrides the default table name.
func (ContentItem) TableName() string {
	return "blurbs"
}

// Preview returns at most the first 50 characters of the text.
func (c *ContentItem) Preview() string {
	if c == nil {
		return ""
	}
	return TruncateText(c.Text, 50)
}

// TruncateText shortens s to limit runes and appends "..." when it was cut.
func TruncateText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
