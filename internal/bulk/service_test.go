package bulk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/picklesmaker/pickles/internal/db"
	"github.com/picklesmaker/pickles/internal/history"
	"github.com/picklesmaker/pickles/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupBulkTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:bulk_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, errOpen)
	require.NoError(t, db.Migrate(conn))
	return conn
}

type fixture struct {
	svc     *Service
	db      *gorm.DB
	brand   *models.Brand
	model   *models.VehicleModel
	gen     *models.Generation
	m50     *models.Package
	blurb   *models.ContentItem
	changes int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: setupBulkTestDB(t)}
	f.svc = NewService(f.db, WithChangeHook(func(context.Context) error {
		f.changes++
		return nil
	}))
	ctx := context.Background()

	var errCreate error
	f.brand, errCreate = f.svc.CreateBrand(ctx, "BMW")
	require.NoError(t, errCreate)
	f.model, errCreate = f.svc.CreateModel(ctx, "i4", &f.brand.ID)
	require.NoError(t, errCreate)
	f.gen, errCreate = f.svc.CreateSeries(ctx, CreateSeriesInput{Name: "2024 LCI", BrandID: f.brand.ID, ModelID: f.model.ID, YearStart: 2024})
	require.NoError(t, errCreate)
	f.m50, errCreate = f.svc.CreatePackage(ctx, "M50", f.gen.ID)
	require.NoError(t, errCreate)
	f.blurb, errCreate = f.svc.CreateContent(ctx, ContentInput{Text: "Curved Display"})
	require.NoError(t, errCreate)
	return f
}

func (f *fixture) scope() Scope {
	return Scope{BrandID: f.brand.ID, ModelID: f.model.ID, SeriesID: f.gen.SeriesID}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, errBrand := f.svc.CreateBrand(ctx, "  ")
	assert.ErrorIs(t, errBrand, ErrInvalid)

	_, errDup := f.svc.CreateBrand(ctx, "BMW")
	assert.ErrorIs(t, errDup, ErrConflict)

	_, errPkg := f.svc.CreatePackage(ctx, "m50", f.gen.ID)
	require.ErrorIs(t, errPkg, ErrConflict)
	assert.Equal(t, `Package with name "m50" already exists`, errPkg.Error())

	_, errGen := f.svc.CreatePackage(ctx, "xDrive", 999)
	assert.ErrorIs(t, errGen, ErrNotFound)

	_, errLong := f.svc.CreateContent(ctx, ContentInput{Text: "This text is certainly far too long to fit"})
	assert.ErrorIs(t, errLong, ErrInvalid)

	_, errSeries := f.svc.CreateSeries(ctx, CreateSeriesInput{Name: "G26", BrandID: f.brand.ID, ModelID: f.model.ID})
	assert.ErrorIs(t, errSeries, ErrInvalid)
}

func TestCreateModelClaimsPlaceholderGeneration(t *testing.T) {
	f := newFixture(t)

	var gens []models.Generation
	require.NoError(t, f.db.Where("brand_id = ? AND model_id = ?", f.brand.ID, f.model.ID).Find(&gens).Error)
	require.Len(t, gens, 1)
	assert.Equal(t, 2024, gens[0].YearStart)
	require.NotNil(t, gens[0].SeriesID)

	series, errSeries := f.svc.SeriesFor(context.Background(), f.brand.ID, f.model.ID)
	require.NoError(t, errSeries)
	require.Len(t, series, 1)
	assert.Equal(t, "2024 LCI", series[0].Name)
	assert.Equal(t, "2024+", series[0].YearRange)
}

func TestCreateModelIgnoresUnknownBrand(t *testing.T) {
	f := newFixture(t)
	missing := uint64(999)

	model, errCreate := f.svc.CreateModel(context.Background(), "iX", &missing)
	require.NoError(t, errCreate)

	var count int64
	require.NoError(t, f.db.Model(&models.Generation{}).Where("model_id = ?", model.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestModelsForBrand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, errCreate := f.svc.CreateModel(ctx, "iX", nil)
	require.NoError(t, errCreate)

	rows, errList := f.svc.ModelsForBrand(ctx, f.brand.ID)
	require.NoError(t, errList)
	require.Len(t, rows, 1)
	assert.Equal(t, "i4", rows[0].Name)

	_, errMissing := f.svc.ModelsForBrand(ctx, 999)
	assert.ErrorIs(t, errMissing, ErrNotFound)
}

func TestLinkAndUnlinkPackage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	errLinked := f.svc.LinkPackage(ctx, f.gen.ID, f.m50.ID)
	assert.ErrorIs(t, errLinked, ErrInvalid)

	require.NoError(t, f.svc.UnlinkPackage(ctx, f.gen.ID, f.m50.ID))
	assert.ErrorIs(t, f.svc.UnlinkPackage(ctx, f.gen.ID, f.m50.ID), ErrInvalid)
	require.NoError(t, f.svc.LinkPackage(ctx, f.gen.ID, f.m50.ID))
}

func TestSavePackageAssociationsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m50Key := PackageKey(&f.m50.ID)

	summary, errSave := f.svc.SavePackageAssociations(ctx, SaveAssociationsInput{
		ContentItemID: f.blurb.ID,
		Scope:         f.scope(),
		PackageStates: map[string]PackageState{
			"null": {Checked: true, Placement: "Exterior", IsHighlight: true, Sequence: 2},
			m50Key: {Checked: false},
		},
	})
	require.NoError(t, errSave)
	assert.Equal(t, 1, summary.Created)
	assert.Zero(t, summary.RulesDeleted)

	var rules []models.Rule
	require.NoError(t, f.db.Preload("Items").Find(&rules).Error)
	require.Len(t, rules, 1)
	assert.Nil(t, rules[0].PackageID)
	require.Len(t, rules[0].Items, 1)
	assert.Equal(t, models.PlacementExterior, rules[0].Items[0].Placement)
	assert.True(t, rules[0].Items[0].IsHighlight)

	matrix, errMatrix := f.svc.Matrix(ctx, f.scope())
	require.NoError(t, errMatrix)
	require.Len(t, matrix.Packages, 2)
	assert.Nil(t, matrix.Packages[0].ID)
	assert.Equal(t, "All Packages", matrix.Packages[0].Name)
	require.Len(t, matrix.Rows, 1)
	all := matrix.Rows[0].PackageStates["null"]
	assert.True(t, all.Checked)
	assert.Equal(t, 2, all.Sequence)
	assert.False(t, matrix.Rows[0].PackageStates[m50Key].Checked)
	assert.Equal(t, models.PlacementInterior, matrix.Rows[0].PackageStates[m50Key].Placement)

	summary, errSave = f.svc.SavePackageAssociations(ctx, SaveAssociationsInput{
		ContentItemID: f.blurb.ID,
		Scope:         f.scope(),
		PackageStates: map[string]PackageState{"null": {Checked: false}},
	})
	require.NoError(t, errSave)
	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 1, summary.RulesDeleted)

	var count int64
	require.NoError(t, f.db.Model(&models.Rule{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSavePackageAssociationsIsAtomic(t *testing.T) {
	f := newFixture(t)

	_, errSave := f.svc.SavePackageAssociations(context.Background(), SaveAssociationsInput{
		ContentItemID: f.blurb.ID,
		Scope:         f.scope(),
		PackageStates: map[string]PackageState{
			"null": {Checked: true},
			"999":  {Checked: true},
		},
	})
	require.ErrorIs(t, errSave, ErrNotFound)

	var count int64
	require.NoError(t, f.db.Model(&models.RuleItem{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSavePackageAssociationsRejectsPlacement(t *testing.T) {
	f := newFixture(t)

	_, errSave := f.svc.SavePackageAssociations(context.Background(), SaveAssociationsInput{
		ContentItemID: f.blurb.ID,
		Scope:         f.scope(),
		PackageStates: map[string]PackageState{"null": {Checked: true, Placement: "roof"}},
	})
	assert.ErrorIs(t, errSave, ErrInvalid)
}

func TestMatrixMissingGeneration(t *testing.T) {
	f := newFixture(t)

	_, errMatrix := f.svc.Matrix(context.Background(), Scope{BrandID: f.brand.ID, ModelID: f.model.ID})
	assert.ErrorIs(t, errMatrix, ErrNotFound)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	blurbs, errSearch := f.svc.SearchContent(ctx, "curved")
	require.NoError(t, errSearch)
	require.Len(t, blurbs, 1)

	empty, errEmpty := f.svc.SearchContent(ctx, " ")
	require.NoError(t, errEmpty)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	pkgs, errPkgs := f.svc.SearchPackages(ctx, "m5")
	require.NoError(t, errPkgs)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "M50", pkgs[0].Name)
}

func TestGroupsAndDeleteContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	zero := 0
	group, errGroup := f.svc.CreateGroup(ctx, GroupInput{Name: "Parking", MaxItems: &zero})
	require.NoError(t, errGroup)
	assert.Equal(t, 0, group.MaxItems)

	_, errUpdate := f.svc.UpdateContent(ctx, f.blurb.ID, ContentInput{Text: "Curved Display", GroupID: &group.ID, GroupPriority: 3})
	require.NoError(t, errUpdate)

	groups, errList := f.svc.Groups(ctx)
	require.NoError(t, errList)
	require.Len(t, groups, 1)
	assert.EqualValues(t, 1, groups[0].MemberCount)

	require.NoError(t, f.svc.DeleteGroup(ctx, group.ID))
	summary, errContent := f.svc.Content(ctx, f.blurb.ID)
	require.NoError(t, errContent)
	assert.Nil(t, summary.GroupID)

	_, errSave := f.svc.SavePackageAssociations(ctx, SaveAssociationsInput{
		ContentItemID: f.blurb.ID,
		Scope:         f.scope(),
		PackageStates: map[string]PackageState{"null": {Checked: true}},
	})
	require.NoError(t, errSave)
	summary, errContent = f.svc.Content(ctx, f.blurb.ID)
	require.NoError(t, errContent)
	assert.EqualValues(t, 1, summary.UsageCount)
	assert.Equal(t, []string{"Match (Brand: BMW, Model: i4, Series: 2024 LCI)"}, summary.UsedIn)

	require.NoError(t, f.svc.DeleteContent(ctx, f.blurb.ID))
	var count int64
	require.NoError(t, f.db.Model(&models.Rule{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRuleCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := 2020

	rule, errCreate := f.svc.CreateRule(ctx, RuleInput{
		BrandID:   &f.brand.ID,
		YearStart: &start,
		Items:     []RuleItemInput{{ContentItemID: f.blurb.ID, Placement: "highlights"}},
	})
	require.ErrorIs(t, errCreate, ErrInvalid)

	rule, errCreate = f.svc.CreateRule(ctx, RuleInput{
		BrandID:   &f.brand.ID,
		YearStart: &start,
		Items:     []RuleItemInput{{ContentItemID: f.blurb.ID, IsOption: true}},
	})
	require.NoError(t, errCreate)
	assert.Equal(t, "Match (Brand: BMW, Years: 2020+)", rule.Description)
	require.Len(t, rule.Items, 1)
	assert.Equal(t, models.PlacementInterior, rule.Items[0].Placement)

	_, errDup := f.svc.CreateRule(ctx, RuleInput{BrandID: &f.brand.ID, YearStart: &start})
	assert.ErrorIs(t, errDup, ErrConflict)

	updated, errUpdate := f.svc.UpdateRule(ctx, rule.ID, RuleInput{BrandID: &f.brand.ID, ModelID: &f.model.ID})
	require.NoError(t, errUpdate)
	assert.Empty(t, updated.Items)
	assert.Equal(t, "Match (Brand: BMW, Model: i4)", updated.Description)

	require.NoError(t, f.svc.DeleteRule(ctx, rule.ID))
	_, errMissing := f.svc.Rule(ctx, rule.ID)
	assert.ErrorIs(t, errMissing, ErrNotFound)
}

func TestWritesRecordHistoryAndFireHook(t *testing.T) {
	f := newFixture(t)
	before := f.changes
	ctx := history.WithActor(context.Background(), "editor")

	_, errCreate := f.svc.CreateBrand(ctx, "Audi")
	require.NoError(t, errCreate)
	assert.Equal(t, before+1, f.changes)

	entries, errList := history.List(ctx, f.db, "brand", 0, 10)
	require.NoError(t, errList)
	require.NotEmpty(t, entries)
	assert.Equal(t, "editor", entries[0].Actor)
	assert.Equal(t, models.HistoryActionCreate, entries[0].Action)

	_, errFail := f.svc.CreateBrand(ctx, "Audi")
	require.Error(t, errFail)
	assert.Equal(t, before+1, f.changes)
	var bulkErr *Error
	assert.True(t, errors.As(errFail, &bulkErr))
}

func TestParsePackageKey(t *testing.T) {
	id, errParse := ParsePackageKey("null")
	require.NoError(t, errParse)
	assert.Nil(t, id)

	id, errParse = ParsePackageKey("12")
	require.NoError(t, errParse)
	require.NotNil(t, id)
	assert.Equal(t, "12", PackageKey(id))

	_, errParse = ParsePackageKey("abc")
	assert.ErrorIs(t, errParse, ErrInvalid)
}
