package resolver

import (
	"context"
	"fmt"

	"github.com/picklesmaker/pickles/internal/models"
)

// PackageFilter echoes the ids a package lookup was made with.
type PackageFilter struct {
	BrandID   uint64 `json:"brand_id"`
	ModelID   uint64 `json:"model_id"`
	YearID    uint64 `json:"year_id"`
	YearValue int    `json:"year_value"`
}

// PackageLookup lists the packages available to a brand, model and year.
type PackageLookup struct {
	Packages   []models.Package `json:"packages"`
	Generation *GenerationInfo  `json:"series_info"`
	Filter     PackageFilter    `json:"filter_applied"`
}

// Packages returns the packages of the generation covering the selection. The list
// is empty when no generation covers it.
func (r *Resolver) Packages(ctx context.Context, brandID, modelID, yearID uint64) (*PackageLookup, error) {
	if _, err := r.store.Brand(ctx, brandID); err != nil {
		return nil, lookupError("brand", brandID, err)
	}
	if _, err := r.store.VehicleModel(ctx, modelID); err != nil {
		return nil, lookupError("model", modelID, err)
	}
	year, err := r.store.Year(ctx, yearID)
	if err != nil {
		return nil, lookupError("year", yearID, err)
	}

	out := &PackageLookup{
		Packages: []models.Package{},
		Filter:   PackageFilter{BrandID: brandID, ModelID: modelID, YearID: yearID, YearValue: year.Year},
	}
	gen, err := r.generation(ctx, brandID, modelID, year.Year)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return out, nil
	}
	out.Generation = generationInfo(gen)
	pkgs, err := r.store.GenerationPackages(ctx, gen.ID)
	if err != nil {
		return nil, fmt.Errorf("resolver: load packages: %w", err)
	}
	if pkgs != nil {
		out.Packages = pkgs
	}
	return out, nil
}
