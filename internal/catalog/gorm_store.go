package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// GormStore reads the catalog from a relational database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Brand loads a brand by id.
func (s *GormStore) Brand(ctx context.Context, id uint64) (*models.Brand, error) {
	var row models.Brand
	if errFind := s.first(ctx, &row, id); errFind != nil {
		return nil, errFind
	}
	return &row, nil
}

// VehicleModel loads a model by id.
func (s *GormStore) VehicleModel(ctx context.Context, id uint64) (*models.VehicleModel, error) {
	var row models.VehicleModel
	if errFind := s.first(ctx, &row, id); errFind != nil {
		return nil, errFind
	}
	return &row, nil
}

// Series loads a series by id.
func (s *GormStore) Series(ctx context.Context, id uint64) (*models.Series, error) {
	var row models.Series
	if errFind := s.first(ctx, &row, id); errFind != nil {
		return nil, errFind
	}
	return &row, nil
}

// Package loads a package by id.
func (s *GormStore) Package(ctx context.Context, id uint64) (*models.Package, error) {
	var row models.Package
	if errFind := s.first(ctx, &row, id); errFind != nil {
		return nil, errFind
	}
	return &row, nil
}

// Year loads a year by id.
func (s *GormStore) Year(ctx context.Context, id uint64) (*models.Year, error) {
	var row models.Year
	if errFind := s.first(ctx, &row, id); errFind != nil {
		return nil, errFind
	}
	return &row, nil
}

// first loads a row by primary key, mapping a missing row to ErrNotFound.
func (s *GormStore) first(ctx context.Context, dest any, id uint64) error {
	if errFind := s.db.WithContext(ctx).First(dest, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("catalog: load %T %d: %w", dest, id, errFind)
	}
	return nil
}

// GenerationsCovering returns generations whose span contains year.
func (s *GormStore) GenerationsCovering(ctx context.Context, brandID, modelID uint64, year int) ([]models.Generation, error) {
	var rows []models.Generation
	errFind := s.db.WithContext(ctx).
		Preload("Brand").
		Preload("Model").
		Preload("Series").
		Where("brand_id = ? AND model_id = ? AND year_start <= ?", brandID, modelID, year).
		Where("year_end IS NULL OR year_end >= ?", year).
		Order("year_start DESC").
		Order("id DESC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("catalog: find generations: %w", errFind)
	}
	return rows, nil
}

// GenerationPackages returns the packages linked to a generation.
func (s *GormStore) GenerationPackages(ctx context.Context, generationID uint64) ([]models.Package, error) {
	var rows []models.Package
	errFind := s.db.WithContext(ctx).
		Joins("JOIN generation_packages gp ON gp.package_id = packages.id").
		Where("gp.generation_id = ?", generationID).
		Order("packages.name ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("catalog: find generation packages: %w", errFind)
	}
	return rows, nil
}

// Rules loads every rule with items, content items and groups.
func (s *GormStore) Rules(ctx context.Context) ([]models.Rule, error) {
	var rows []models.Rule
	errFind := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("rule_items.id ASC") }).
		Preload("Items.ContentItem").
		Preload("Items.ContentItem.Group").
		Order("id ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("catalog: find rules: %w", errFind)
	}
	return rows, nil
}
