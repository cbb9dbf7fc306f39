package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Rows returns every stored setting ordered by key.
func Rows(ctx context.Context, db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, errors.New("settings: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var rows []models.Setting
	if errFind := db.WithContext(ctx).Order("key ASC").Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// RefreshDBConfigSnapshot replaces the in-memory snapshot with the stored
// settings. Readers never query the table, so run it at startup and after
// every write.
func RefreshDBConfigSnapshot(ctx context.Context, db *gorm.DB) error {
	rows, errRows := Rows(ctx, db)
	if errRows != nil {
		return errRows
	}
	var newest time.Time
	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
		if row.UpdatedAt.After(newest) {
			newest = row.UpdatedAt
		}
	}
	StoreDBConfig(newest, values)
	return nil
}

// Upsert writes one setting on behalf of updatedBy and refreshes the snapshot.
func Upsert(ctx context.Context, db *gorm.DB, key string, value json.RawMessage, updatedBy string) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("settings: empty key")
	}
	row := models.Setting{Key: key, Value: models.SettingValue(value), UpdatedBy: updatedBy, UpdatedAt: time.Now().UTC()}
	if errSave := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&row).Error; errSave != nil {
		return errSave
	}
	return RefreshDBConfigSnapshot(ctx, db)
}

// Delete removes a setting and refreshes the snapshot.
func Delete(ctx context.Context, db *gorm.DB, key string) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if errDelete := db.WithContext(ctx).Delete(&models.Setting{}, "key = ?", strings.TrimSpace(key)).Error; errDelete != nil {
		return errDelete
	}
	return RefreshDBConfigSnapshot(ctx, db)
}
