package resolver

import (
	"github.com/picklesmaker/pickles/internal/catalog"
	"github.com/picklesmaker/pickles/internal/models"
)

func ptr[T any](v T) *T { return &v }

const (
	bmwID         uint64 = 1
	audiID        uint64 = 2
	i4ID          uint64 = 1
	lciID         uint64 = 1
	year2024ID    uint64 = 1
	year2019ID    uint64 = 2
	baseID        uint64 = 1
	midID         uint64 = 2
	performanceID uint64 = 3
)

// ruleFor builds a rule with one content item.
func ruleFor(id uint64, filter models.Rule, text string, item models.RuleItem) models.Rule {
	filter.ID = id
	item.ID = id
	item.RuleID = id
	item.ContentItemID = id
	item.ContentItem = &models.ContentItem{ID: id, Text: text}
	filter.Items = []models.RuleItem{item}
	return filter
}

// bmwStore builds the BMW i4 catalog: three packages with their own interior text
// plus one package-independent highlight.
func bmwStore() *catalog.MemoryStore {
	store := catalog.NewMemoryStore()
	store.AddBrand(models.Brand{ID: bmwID, Name: "BMW"})
	store.AddBrand(models.Brand{ID: audiID, Name: "Audi"})
	store.AddVehicleModel(models.VehicleModel{ID: i4ID, Name: "i4"})
	store.AddSeries(models.Series{ID: lciID, Name: "2024 LCI"})
	store.AddYear(models.Year{ID: year2024ID, Year: 2024})
	store.AddYear(models.Year{ID: year2019ID, Year: 2019})

	pkgs := []models.Package{
		{ID: baseID, Name: "base"},
		{ID: performanceID, Name: "performance"},
		{ID: midID, Name: "mid"},
	}
	for _, p := range pkgs {
		store.AddPackage(p)
	}
	store.AddGeneration(models.Generation{
		ID: 1, BrandID: bmwID, ModelID: i4ID, SeriesID: ptr(lciID), YearStart: 2024, Packages: pkgs,
	})

	base := models.Rule{BrandID: ptr(bmwID), ModelID: ptr(i4ID), SeriesID: ptr(lciID)}
	interior := models.RuleItem{Placement: models.PlacementInterior}

	withPkg := func(id uint64) models.Rule {
		r := base
		r.PackageID = ptr(id)
		return r
	}
	store.AddRule(ruleFor(1, withPkg(baseID), "Base interior.", interior))
	store.AddRule(ruleFor(2, withPkg(midID), "Mid interior.", interior))
	store.AddRule(ruleFor(3, withPkg(performanceID), "Performance interior.", interior))
	store.AddRule(ruleFor(4, base, "Universal highlight.", models.RuleItem{Placement: models.PlacementExterior, IsHighlight: true}))
	return store
}
