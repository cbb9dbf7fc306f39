package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Setting overrides one content limit or display option at runtime. Keys are
// upper-case names such as CONTENT_LIMIT_INTERIOR.
type Setting struct {
	Key       string       `gorm:"type:varchar(255);primaryKey"`
	Value     SettingValue // raw JSON
	UpdatedBy string       `gorm:"type:text"` // admin username; empty when set from the CLI
	UpdatedAt time.Time    `gorm:"not null;autoUpdateTime;default:CURRENT_TIMESTAMP"`
}

// SettingValue is a raw JSON document. PostgreSQL stores it as jsonb and
// SQLite as text, so bare numbers keep their JSON spelling.
type SettingValue json.RawMessage

// GormDBDataType picks the column type per dialect.
func (SettingValue) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}

// Value implements driver.Valuer.
func (v SettingValue) Value() (driver.Value, error) {
	if len(v) == 0 {
		return nil, nil
	}
	return string(v), nil
}

// Scan implements sql.Scanner. Numeric values come from SQLite tables whose
// value column was created with numeric affinity.
func (v *SettingValue) Scan(src any) error {
	switch val := src.(type) {
	case nil:
		*v = nil
	case []byte:
		*v = append(SettingValue(nil), val...)
	case string:
		*v = SettingValue(val)
	case int64:
		*v = SettingValue(strconv.FormatInt(val, 10))
	case float64:
		*v = SettingValue(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		*v = SettingValue(strconv.FormatBool(val))
	default:
		return fmt.Errorf("models: cannot scan %T into SettingValue", src)
	}
	return nil
}

// MarshalJSON writes the stored document as is.
func (v SettingValue) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}
