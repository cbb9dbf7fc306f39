// Package demo loads a small sample catalog for development.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/picklesmaker/pickles/internal/backup"
	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// ErrNotEmpty is returned when seeding a catalog that already holds brands.
var ErrNotEmpty = fmt.Errorf("demo: catalog already has data (use clear)")

// BrandSummary lists the models of one brand.
type BrandSummary struct {
	Name   string   `json:"name"`
	Models []string `json:"models"`
}

// GroupSummary describes one content group.
type GroupSummary struct {
	Name     string `json:"name"`
	Members  int64  `json:"members"`
	MaxItems int    `json:"max_items"`
}

// Summary describes the catalog after seeding.
type Summary struct {
	Counts     map[string]int64 `json:"counts"`
	Brands     []BrandSummary   `json:"brands"`
	Groups     []GroupSummary   `json:"groups"`
	Placements map[string]int64 `json:"placements"` // Rule items per copy category.
}

func intPtr(v int) *int { return &v }

// Seed loads the sample catalog in one transaction. With clear set, existing
// catalog rows are deleted first; otherwise a non-empty catalog is rejected.
func Seed(ctx context.Context, db *gorm.DB, clear bool) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clear {
			if errClear := backup.Clear(tx); errClear != nil {
				return errClear
			}
		} else {
			var count int64
			if errCount := tx.Model(&models.Brand{}).Count(&count).Error; errCount != nil {
				return errCount
			}
			if count > 0 {
				return ErrNotEmpty
			}
		}
		return seed(tx)
	})
}

// seed inserts the sample rows.
func seed(tx *gorm.DB) error {
	s := &seeder{tx: tx}

	bmw := s.brand("BMW")
	audi := s.brand("Audi")
	i4 := s.model("i4")
	a4 := s.model("A4")
	lci := s.series("2024 LCI")
	b9 := s.series("B9")
	for year := 2019; year <= 2025; year++ {
		s.create(&models.Year{Year: year})
	}

	base := s.pkg("base")
	mid := s.pkg("mid")
	performance := s.pkg("performance")
	sLine := s.pkg("S line")

	s.create(&models.Generation{BrandID: bmw, ModelID: i4, YearStart: 2021, YearEnd: intPtr(2023),
		Packages: []models.Package{base, performance}})
	s.create(&models.Generation{BrandID: bmw, ModelID: i4, SeriesID: &lci, YearStart: 2024,
		Packages: []models.Package{base, mid, performance}})
	s.create(&models.Generation{BrandID: audi, ModelID: a4, SeriesID: &b9, YearStart: 2016, YearEnd: intPtr(2023),
		Packages: []models.Package{sLine}})

	parking := models.ContentGroup{Name: "Parking assistance", Description: "Only the best parking aid is listed.", MaxItems: 1}
	s.create(&parking)

	curved := s.blurb("Curved Display", nil, 0)
	baseTrim := s.blurb("Sensatec interior trim", nil, 0)
	seats := s.blurb("Sport seats in Vernasca leather", nil, 0)
	brakes := s.blurb("M Sport brakes", nil, 0)
	suspension := s.blurb("Adaptive M suspension", nil, 0)
	parkingPlus := s.blurb("Parking Assistant Plus", &parking.ID, 2)
	parkingBasic := s.blurb("Parking Assistant", &parking.ID, 1)
	cockpit := s.blurb("Audi virtual cockpit", nil, 0)
	matrix := s.blurb("Matrix LED headlights", nil, 0)

	lciScope := models.Rule{BrandID: &bmw, ModelID: &i4, SeriesID: &lci}
	withPackage := func(p models.Package) models.Rule {
		r := lciScope
		r.PackageID = &p.ID
		return r
	}
	interior := func(id uint64, seq int) models.RuleItem {
		return models.RuleItem{ContentItemID: id, Placement: models.PlacementInterior, Sequence: seq}
	}

	s.rule(lciScope,
		models.RuleItem{ContentItemID: curved, Placement: models.PlacementInterior, IsHighlight: true, Priority: 10})
	s.rule(withPackage(base), interior(baseTrim, 1))
	s.rule(withPackage(mid), interior(seats, 1))
	s.rule(withPackage(performance),
		interior(seats, 1),
		models.RuleItem{ContentItemID: brakes, Placement: models.PlacementExterior, IsHighlight: true, Sequence: 1},
		models.RuleItem{ContentItemID: suspension, Placement: models.PlacementExterior, IsOption: true, Sequence: 2},
		models.RuleItem{ContentItemID: parkingPlus, Placement: models.PlacementInterior, IsOption: true, Sequence: 3})
	s.rule(models.Rule{BrandID: &bmw, YearStart: intPtr(2020)},
		models.RuleItem{ContentItemID: parkingBasic, Placement: models.PlacementInterior, IsOption: true, Sequence: 5})
	s.rule(models.Rule{BrandID: &audi, ModelID: &a4},
		interior(cockpit, 1),
		models.RuleItem{ContentItemID: matrix, Placement: models.PlacementExterior, IsHighlight: true, Sequence: 1})

	return s.err
}

// seeder stops at the first failed insert and keeps its error.
type seeder struct {
	tx  *gorm.DB
	err error
}

func (s *seeder) create(row any) {
	if s.err != nil {
		return
	}
	if errCreate := s.tx.Create(row).Error; errCreate != nil {
		s.err = fmt.Errorf("demo: create %T: %w", row, errCreate)
	}
}

func (s *seeder) brand(name string) uint64 {
	row := models.Brand{Name: name}
	s.create(&row)
	return row.ID
}

func (s *seeder) model(name string) uint64 {
	row := models.VehicleModel{Name: name}
	s.create(&row)
	return row.ID
}

func (s *seeder) series(name string) uint64 {
	row := models.Series{Name: name}
	s.create(&row)
	return row.ID
}

func (s *seeder) pkg(name string) models.Package {
	row := models.Package{Name: name}
	s.create(&row)
	return row
}

func (s *seeder) blurb(text string, groupID *uint64, groupPriority int) uint64 {
	row := models.ContentItem{Text: text, GroupID: groupID, GroupPriority: groupPriority}
	s.create(&row)
	return row.ID
}

func (s *seeder) rule(filter models.Rule, items ...models.RuleItem) {
	filter.Items = items
	s.create(&filter)
}

// Summarize reports the catalog contents.
func Summarize(ctx context.Context, db *gorm.DB) (*Summary, error) {
	conn := db.WithContext(ctx)
	snap, errCapture := backup.Capture(ctx, db, "", time.Time{})
	if errCapture != nil {
		return nil, errCapture
	}
	out := &Summary{Counts: snap.Metadata.Counts, Placements: map[string]int64{}}

	modelNames := make(map[uint64]string, len(snap.Data.Models))
	for _, m := range snap.Data.Models {
		modelNames[m.ID] = m.Name
	}
	for _, brand := range snap.Data.Brands {
		summary := BrandSummary{Name: brand.Name, Models: []string{}}
		seen := map[uint64]bool{}
		for _, gen := range snap.Data.Generations {
			if gen.BrandID == brand.ID && !seen[gen.ModelID] {
				seen[gen.ModelID] = true
				summary.Models = append(summary.Models, modelNames[gen.ModelID])
			}
		}
		out.Brands = append(out.Brands, summary)
	}

	for _, group := range snap.Data.Groups {
		var members int64
		if errCount := conn.Model(&models.ContentItem{}).Where("group_id = ?", group.ID).Count(&members).Error; errCount != nil {
			return nil, fmt.Errorf("demo: count group members: %w", errCount)
		}
		out.Groups = append(out.Groups, GroupSummary{Name: group.Name, Members: members, MaxItems: group.MaxItems})
	}

	for _, item := range snap.Data.RuleItems {
		out.Placements[item.Placement]++
		if item.IsHighlight {
			out.Placements["highlights"]++
		}
		if item.IsOption {
			out.Placements["options"]++
		}
	}
	return out, nil
}
