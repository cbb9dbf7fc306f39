package models

import (
	"time"

	"gorm.io/datatypes"
)

// History actions.
const (
	HistoryActionCreate = "create"
	HistoryActionUpdate = "update"
	HistoryActionDelete = "delete"
)

// HistoryEntry records one change made to a catalog row through the admin API.
type HistoryEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Entity   string `gorm:"type:varchar(64);not null;index:idx_history_entity,priority:1"` // Table of the changed row.
	EntityID uint64 `gorm:"not null;index:idx_history_entity,priority:2"`                  // Id of the changed row.
	Action   string `gorm:"type:varchar(16);not null"`                                     // create, update or delete.
	Actor    string `gorm:"type:text"`                                                     // Admin username, empty for system changes.

	Snapshot datatypes.JSON `gorm:"type:jsonb"` // Row state after the change, or before a delete.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Change timestamp.
}
