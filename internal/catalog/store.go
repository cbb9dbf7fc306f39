// Package catalog provides read access to the vehicle catalog and content rules.
package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/picklesmaker/pickles/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Store is the read side used to resolve selections.
type Store interface {
	Brand(ctx context.Context, id uint64) (*models.Brand, error)
	VehicleModel(ctx context.Context, id uint64) (*models.VehicleModel, error)
	Series(ctx context.Context, id uint64) (*models.Series, error)
	Package(ctx context.Context, id uint64) (*models.Package, error)
	Year(ctx context.Context, id uint64) (*models.Year, error)

	// GenerationsCovering returns the generations of brand and model whose span
	// contains year, preferred generation first.
	GenerationsCovering(ctx context.Context, brandID, modelID uint64, year int) ([]models.Generation, error)
	// GenerationPackages returns the packages of a generation ordered by name.
	GenerationPackages(ctx context.Context, generationID uint64) ([]models.Package, error)
	// Rules returns every rule with its items and their content items loaded.
	Rules(ctx context.Context) ([]models.Rule, error)
}

// SortGenerations orders generations by descending year_start, then descending id.
func SortGenerations(gens []models.Generation) {
	sort.SliceStable(gens, func(i, j int) bool {
		if gens[i].YearStart != gens[j].YearStart {
			return gens[i].YearStart > gens[j].YearStart
		}
		return gens[i].ID > gens[j].ID
	})
}
