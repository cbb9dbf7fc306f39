package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/picklesmaker/pickles/internal/db"
	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func TestGormStoreLookupNotFound(t *testing.T) {
	store := NewGormStore(setupCatalogTestDB(t))

	if _, errFind := store.Brand(context.Background(), 12); !errors.Is(errFind, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", errFind)
	}
}

func TestGormStoreGenerationsCovering(t *testing.T) {
	conn := setupCatalogTestDB(t)
	store := NewGormStore(conn)
	ctx := context.Background()

	brand := models.Brand{Name: "BMW"}
	model := models.VehicleModel{Name: "i4"}
	series := models.Series{Name: "2024 LCI"}
	for _, row := range []any{&brand, &model, &series} {
		if errCreate := conn.Create(row).Error; errCreate != nil {
			t.Fatalf("create %T: %v", row, errCreate)
		}
	}
	end := 2023
	old := models.Generation{BrandID: brand.ID, ModelID: model.ID, YearStart: 2021, YearEnd: &end}
	current := models.Generation{BrandID: brand.ID, ModelID: model.ID, SeriesID: &series.ID, YearStart: 2024,
		Packages: []models.Package{{Name: "M50"}, {Name: "eDrive40"}}}
	for _, gen := range []*models.Generation{&old, &current} {
		if errCreate := conn.Create(gen).Error; errCreate != nil {
			t.Fatalf("create generation: %v", errCreate)
		}
	}

	gens, errFind := store.GenerationsCovering(ctx, brand.ID, model.ID, 2022)
	if errFind != nil {
		t.Fatalf("generations: %v", errFind)
	}
	if len(gens) != 1 || gens[0].ID != old.ID {
		t.Fatalf("expected old generation for 2022, got %+v", gens)
	}

	gens, errFind = store.GenerationsCovering(ctx, brand.ID, model.ID, 2030)
	if errFind != nil {
		t.Fatalf("generations: %v", errFind)
	}
	if len(gens) != 1 || gens[0].ID != current.ID {
		t.Fatalf("expected current generation for 2030, got %+v", gens)
	}
	if gens[0].Series == nil || gens[0].Series.Name != "2024 LCI" || gens[0].Brand == nil || gens[0].Model == nil {
		t.Fatalf("relations not loaded: %+v", gens[0])
	}

	pkgs, errPkgs := store.GenerationPackages(ctx, current.ID)
	if errPkgs != nil {
		t.Fatalf("packages: %v", errPkgs)
	}
	if len(pkgs) != 2 || pkgs[0].Name != "M50" || pkgs[1].Name != "eDrive40" {
		t.Fatalf("unexpected packages %+v", pkgs)
	}
}

func TestGormStoreRulesLoadContent(t *testing.T) {
	conn := setupCatalogTestDB(t)
	store := NewGormStore(conn)

	group := models.ContentGroup{Name: "Parking", MaxItems: 1}
	if errCreate := conn.Create(&group).Error; errCreate != nil {
		t.Fatalf("create group: %v", errCreate)
	}
	blurb := models.ContentItem{Text: "Parking assistant.", GroupID: &group.ID, GroupPriority: 3}
	if errCreate := conn.Create(&blurb).Error; errCreate != nil {
		t.Fatalf("create blurb: %v", errCreate)
	}
	rule := models.Rule{Items: []models.RuleItem{{ContentItemID: blurb.ID, Placement: models.PlacementInterior, Priority: 2}}}
	if errCreate := conn.Create(&rule).Error; errCreate != nil {
		t.Fatalf("create rule: %v", errCreate)
	}

	rules, errFind := store.Rules(context.Background())
	if errFind != nil {
		t.Fatalf("rules: %v", errFind)
	}
	if len(rules) != 1 || len(rules[0].Items) != 1 {
		t.Fatalf("unexpected rules %+v", rules)
	}
	item := rules[0].Items[0]
	if item.ContentItem == nil || item.ContentItem.Text != "Parking assistant." {
		t.Fatalf("content item not loaded: %+v", item)
	}
	if item.ContentItem.Group == nil || item.ContentItem.Group.MaxItems != 1 {
		t.Fatalf("group not loaded: %+v", item.ContentItem)
	}
	if rules[0].FilterKey != "b-|m-|s-|p-|ys-|ye-" {
		t.Fatalf("unexpected filter key %q", rules[0].FilterKey)
	}
}

func TestSortGenerations(t *testing.T) {
	gens := []models.Generation{{ID: 1, YearStart: 2020}, {ID: 3, YearStart: 2022}, {ID: 2, YearStart: 2022}}
	SortGenerations(gens)
	if gens[0].ID != 3 || gens[1].ID != 2 || gens[2].ID != 1 {
		t.Fatalf("unexpected order %+v", gens)
	}
}
