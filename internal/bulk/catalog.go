package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dbutil "github.com/picklesmaker/pickles/internal/db"
	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// placeholderYearStart is the year given to the generation created alongside a new model.
const placeholderYearStart = 2024

// SeriesOption is one selectable generation of a brand and model.
type SeriesOption struct {
	ID           *uint64 `json:"id"`
	Name         string  `json:"name"`
	YearRange    string  `json:"year_range"`
	GenerationID uint64  `json:"generation_id"`
}

// Brands lists every brand ordered by name.
func (s *Service) Brands(ctx context.Context) ([]models.Brand, error) {
	var rows []models.Brand
	if errFind := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("bulk: list brands: %w", errFind)
	}
	return rows, nil
}

// ModelsForBrand lists the distinct models that have a generation under brandID.
func (s *Service) ModelsForBrand(ctx context.Context, brandID uint64) ([]models.VehicleModel, error) {
	db := s.db.WithContext(ctx)
	if ok, errExists := exists(db, &models.Brand{}, brandID); errExists != nil {
		return nil, errExists
	} else if !ok {
		return nil, notFoundf("brand %d not found", brandID)
	}
	var rows []models.VehicleModel
	errFind := db.Model(&models.VehicleModel{}).
		Where("id IN (?)", db.Model(&models.Generation{}).Select("model_id").Where("brand_id = ?", brandID)).
		Order("name ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("bulk: list models: %w", errFind)
	}
	return rows, nil
}

// SeriesFor lists the generations of a brand and model. Generations without a
// series appear as "No Series" with a nil id.
func (s *Service) SeriesFor(ctx context.Context, brandID, modelID uint64) ([]SeriesOption, error) {
	var gens []models.Generation
	errFind := s.db.WithContext(ctx).
		Preload("Series").
		Where("brand_id = ? AND model_id = ?", brandID, modelID).
		Order("year_start DESC").
		Order("id ASC").
		Find(&gens).Error
	if errFind != nil {
		return nil, fmt.Errorf("bulk: list series: %w", errFind)
	}
	out := make([]SeriesOption, 0, len(gens))
	for i := range gens {
		gen := &gens[i]
		opt := SeriesOption{
			ID:           gen.SeriesID,
			Name:         "No Series",
			YearRange:    gen.YearDisplay(),
			GenerationID: gen.ID,
		}
		if gen.Series != nil {
			opt.Name = gen.Series.Name
		}
		out = append(out, opt)
	}
	return out, nil
}

// Years lists every year, newest first.
func (s *Service) Years(ctx context.Context) ([]models.Year, error) {
	var rows []models.Year
	if errFind := s.db.WithContext(ctx).Order("year DESC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("bulk: list years: %w", errFind)
	}
	return rows, nil
}

// CreateBrand adds a brand.
func (s *Service) CreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("brand name is required")
	}
	row := models.Brand{Name: name}
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if errDup := ensureUniqueName(tx, &models.Brand{}, "Brand", name); errDup != nil {
			return errDup
		}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create brand: %w", errCreate)
		}
		return record(ctx, tx, "brand", row.ID, models.HistoryActionCreate, row)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// CreateModel adds a model. When brandID names an existing brand a placeholder
// generation starting in 2024 is created for the pair; an unknown brand is ignored.
func (s *Service) CreateModel(ctx context.Context, name string, brandID *uint64) (*models.VehicleModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("model name is required")
	}
	row := models.VehicleModel{Name: name}
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if errDup := ensureUniqueName(tx, &models.VehicleModel{}, "Model", name); errDup != nil {
			return errDup
		}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create model: %w", errCreate)
		}
		if errRecord := record(ctx, tx, "model", row.ID, models.HistoryActionCreate, row); errRecord != nil {
			return errRecord
		}
		if brandID == nil {
			return nil
		}
		ok, errExists := exists(tx, &models.Brand{}, *brandID)
		if errExists != nil || !ok {
			return errExists
		}
		gen := models.Generation{BrandID: *brandID, ModelID: row.ID, YearStart: placeholderYearStart}
		if errCreate := tx.Create(&gen).Error; errCreate != nil {
			return fmt.Errorf("bulk: create generation: %w", errCreate)
		}
		return record(ctx, tx, "generation", gen.ID, models.HistoryActionCreate, gen)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// CreateSeriesInput describes a new generation of a brand and model.
type CreateSeriesInput struct {
	Name      string `json:"name"`
	BrandID   uint64 `json:"brand_id"`
	ModelID   uint64 `json:"model_id"`
	YearStart int    `json:"year_start"`
	YearEnd   *int   `json:"year_end"`
}

// CreateSeries creates the series label when missing and a generation using it.
// A series-less generation with the same start year is claimed instead of duplicated.
func (s *Service) CreateSeries(ctx context.Context, in CreateSeriesInput) (*models.Generation, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return nil, invalidf("series name is required")
	case in.BrandID == 0:
		return nil, invalidf("brand_id is required")
	case in.ModelID == 0:
		return nil, invalidf("model_id is required")
	case in.YearStart <= 0:
		return nil, invalidf("year_start is required")
	case in.YearEnd != nil && *in.YearEnd < in.YearStart:
		return nil, invalidf("year_end must not be before year_start")
	}

	var gen models.Generation
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if ok, errExists := exists(tx, &models.Brand{}, in.BrandID); errExists != nil {
			return errExists
		} else if !ok {
			return notFoundf("brand %d not found", in.BrandID)
		}
		if ok, errExists := exists(tx, &models.VehicleModel{}, in.ModelID); errExists != nil {
			return errExists
		} else if !ok {
			return notFoundf("model %d not found", in.ModelID)
		}

		series := models.Series{Name: in.Name}
		if errSeries := tx.Where("name = ?", in.Name).FirstOrCreate(&series).Error; errSeries != nil {
			return fmt.Errorf("bulk: create series: %w", errSeries)
		}

		errFind := tx.Where("brand_id = ? AND model_id = ? AND year_start = ?", in.BrandID, in.ModelID, in.YearStart).First(&gen).Error
		switch {
		case errFind == nil && gen.SeriesID != nil:
			return conflictf("a generation starting in %d already exists for this model", in.YearStart)
		case errFind == nil:
			gen.SeriesID = &series.ID
			gen.YearEnd = in.YearEnd
			if errSave := tx.Save(&gen).Error; errSave != nil {
				return fmt.Errorf("bulk: update generation: %w", errSave)
			}
			return record(ctx, tx, "generation", gen.ID, models.HistoryActionUpdate, gen)
		case !errors.Is(errFind, gorm.ErrRecordNotFound):
			return fmt.Errorf("bulk: find generation: %w", errFind)
		}

		gen = models.Generation{
			BrandID:   in.BrandID,
			ModelID:   in.ModelID,
			SeriesID:  &series.ID,
			YearStart: in.YearStart,
			YearEnd:   in.YearEnd,
		}
		if errCreate := tx.Create(&gen).Error; errCreate != nil {
			return fmt.Errorf("bulk: create generation: %w", errCreate)
		}
		return record(ctx, tx, "generation", gen.ID, models.HistoryActionCreate, gen)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &gen, nil
}

// CreateYear adds a selectable model year.
func (s *Service) CreateYear(ctx context.Context, year int) (*models.Year, error) {
	if year < 1900 || year > 2200 {
		return nil, invalidf("year %d is out of range", year)
	}
	row := models.Year{Year: year}
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.Year{}).Where("year = ?", year).Count(&count).Error; errCount != nil {
			return errCount
		}
		if count > 0 {
			return conflictf("year %d already exists", year)
		}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create year: %w", errCreate)
		}
		return record(ctx, tx, "year", row.ID, models.HistoryActionCreate, row)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// SearchPackages returns up to 20 packages whose name contains q, ignoring case.
func (s *Service) SearchPackages(ctx context.Context, q string) ([]models.Package, error) {
	q = strings.TrimSpace(q)
	rows := make([]models.Package, 0)
	if q == "" {
		return rows, nil
	}
	db := s.db.WithContext(ctx)
	errFind := db.Where(dbutil.ContainsFold(db, "name", q)).
		Order("name ASC").
		Limit(searchLimit).
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("bulk: search packages: %w", errFind)
	}
	return rows, nil
}

// CreatePackage creates a package and links it to a generation. Names are unique
// ignoring case.
func (s *Service) CreatePackage(ctx context.Context, name string, generationID uint64) (*models.Package, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("package name is required")
	}
	row := models.Package{Name: name}
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		var count int64
		errCount := tx.Model(&models.Package{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count).Error
		if errCount != nil {
			return errCount
		}
		if count > 0 {
			return conflictf("Package with name %q already exists", name)
		}
		gen, errGen := loadGeneration(tx, generationID)
		if errGen != nil {
			return errGen
		}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create package: %w", errCreate)
		}
		if errLink := tx.Model(gen).Association("Packages").Append(&row); errLink != nil {
			return fmt.Errorf("bulk: link package: %w", errLink)
		}
		return record(ctx, tx, "package", row.ID, models.HistoryActionCreate, packageSnapshot(row, generationID))
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// LinkPackage makes a package available within a generation.
func (s *Service) LinkPackage(ctx context.Context, generationID, packageID uint64) error {
	return s.write(ctx, func(tx *gorm.DB) error {
		gen, pkg, linked, errLoad := loadLink(tx, generationID, packageID)
		if errLoad != nil {
			return errLoad
		}
		if linked {
			return invalidf("Package %q is already associated with this generation", pkg.Name)
		}
		if errLink := tx.Model(gen).Association("Packages").Append(pkg); errLink != nil {
			return fmt.Errorf("bulk: link package: %w", errLink)
		}
		return record(ctx, tx, "generation", gen.ID, models.HistoryActionUpdate, map[string]any{"linked_package_id": pkg.ID})
	})
}

// UnlinkPackage removes a package from a generation.
func (s *Service) UnlinkPackage(ctx context.Context, generationID, packageID uint64) error {
	return s.write(ctx, func(tx *gorm.DB) error {
		gen, pkg, linked, errLoad := loadLink(tx, generationID, packageID)
		if errLoad != nil {
			return errLoad
		}
		if !linked {
			return invalidf("Package %q is not associated with this generation", pkg.Name)
		}
		if errUnlink := tx.Model(gen).Association("Packages").Delete(pkg); errUnlink != nil {
			return fmt.Errorf("bulk: unlink package: %w", errUnlink)
		}
		return record(ctx, tx, "generation", gen.ID, models.HistoryActionUpdate, map[string]any{"unlinked_package_id": pkg.ID})
	})
}

// packageSnapshot bundles a package snapshot with the generation it was created for.
func packageSnapshot(pkg models.Package, generationID uint64) map[string]any {
	return map[string]any{"package": pkg, "generation_id": generationID}
}

// loadGeneration loads a generation or returns a not-found error.
func loadGeneration(tx *gorm.DB, id uint64) (*models.Generation, error) {
	var gen models.Generation
	if errFind := tx.First(&gen, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundf("generation %d not found", id)
		}
		return nil, fmt.Errorf("bulk: load generation: %w", errFind)
	}
	return &gen, nil
}

// loadLink loads both sides of a generation/package link and reports whether it exists.
func loadLink(tx *gorm.DB, generationID, packageID uint64) (*models.Generation, *models.Package, bool, error) {
	gen, errGen := loadGeneration(tx, generationID)
	if errGen != nil {
		return nil, nil, false, errGen
	}
	var pkg models.Package
	if errFind := tx.First(&pkg, "id = ?", packageID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil, false, notFoundf("package %d not found", packageID)
		}
		return nil, nil, false, fmt.Errorf("bulk: load package: %w", errFind)
	}
	var count int64
	errCount := tx.Table("generation_packages").
		Where("generation_id = ? AND package_id = ?", generationID, packageID).
		Count(&count).Error
	if errCount != nil {
		return nil, nil, false, fmt.Errorf("bulk: check link: %w", errCount)
	}
	return gen, &pkg, count > 0, nil
}

// ensureUniqueName rejects a name already used by a row of model.
func ensureUniqueName(tx *gorm.DB, model any, label, name string) error {
	var count int64
	if errCount := tx.Model(model).Where("name = ?", name).Count(&count).Error; errCount != nil {
		return errCount
	}
	if count > 0 {
		return conflictf("%s with name %q already exists", label, name)
	}
	return nil
}

// generationPackages lists a generation's packages ordered by name.
func generationPackages(tx *gorm.DB, generationID uint64) ([]models.Package, error) {
	var rows []models.Package
	errFind := tx.Model(&models.Package{}).
		Joins("JOIN generation_packages ON generation_packages.package_id = packages.id").
		Where("generation_packages.generation_id = ?", generationID).
		Order("packages.name ASC").
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("bulk: list generation packages: %w", errFind)
	}
	return rows, nil
}
