package db

import (
	"fmt"

	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table and rewrites legacy rule item placements.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(AllModels()...); errMigrate != nil {
		return fmt.Errorf("db: auto migrate: %w", errMigrate)
	}
	if errBackfill := backfillLegacyPlacements(conn); errBackfill != nil {
		return errBackfill
	}
	return nil
}

// AllModels lists every persisted model in dependency order.
func AllModels() []any {
	return []any{
		&models.Brand{},
		&models.VehicleModel{},
		&models.Series{},
		&models.Package{},
		&models.Year{},
		&models.Generation{},
		&models.ContentGroup{},
		&models.ContentItem{},
		&models.Rule{},
		&models.RuleItem{},
		&models.Setting{},
		&models.Admin{},
		&models.HistoryEntry{},
	}
}

// backfillLegacyPlacements moves highlights and options placements onto flags.
func backfillLegacyPlacements(conn *gorm.DB) error {
	updates := []struct {
		placement string
		flag      string
	}{
		{placement: "highlights", flag: "is_highlight"},
		{placement: "options", flag: "is_option"},
	}
	for _, u := range updates {
		res := conn.Model(&models.RuleItem{}).
			Where("placement = ?", u.placement).
			Updates(map[string]any{"placement": models.PlacementExterior, u.flag: true})
		if res.Error != nil {
			return fmt.Errorf("db: backfill %s placement: %w", u.placement, res.Error)
		}
	}
	return nil
}
