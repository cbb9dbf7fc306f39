package bulk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// allPackagesName labels the column for rules without a package filter.
const allPackagesName = "All Packages"

// PackageColumn is one column of the content matrix. A nil ID is "All Packages".
type PackageColumn struct {
	ID   *uint64 `json:"id"`
	Name string  `json:"name"`
}

// PackageState is how one content item is placed for one package column.
type PackageState struct {
	Checked     bool    `json:"checked"`
	Placement   string  `json:"placement"`
	IsHighlight bool    `json:"is_highlight"`
	IsOption    bool    `json:"is_option"`
	Priority    int     `json:"priority"`
	Sequence    int     `json:"sequence"`
	RuleItemID  *uint64 `json:"rule_item_id"`
	// IsComplex marks placements made by a rule with year bounds, which the matrix does not edit.
	IsComplex bool `json:"is_complex"`
}

// MatrixRow is one content item with its per-package states keyed by PackageKey.
type MatrixRow struct {
	ID            uint64                  `json:"id"`
	Text          string                  `json:"text"`
	Preview       string                  `json:"preview"`
	PackageStates map[string]PackageState `json:"package_states"`
}

// Matrix is the content placement grid for one brand, model and series.
type Matrix struct {
	GenerationID uint64          `json:"generation_id"`
	Packages     []PackageColumn `json:"packages"`
	Rows         []MatrixRow     `json:"blurbs"`
}

// Scope selects a brand, model and optional series.
type Scope struct {
	BrandID  uint64  `json:"brand_id"`
	ModelID  uint64  `json:"model_id"`
	SeriesID *uint64 `json:"series_id"`
}

// scopeRules filters rules to those whose brand, model and series equal the scope exactly.
func scopeRules(tx *gorm.DB, sc Scope) *gorm.DB {
	q := tx.Where("brand_id = ? AND model_id = ?", sc.BrandID, sc.ModelID)
	if sc.SeriesID == nil {
		return q.Where("series_id IS NULL")
	}
	return q.Where("series_id = ?", *sc.SeriesID)
}

// scopeGeneration returns the newest generation of the scope.
func scopeGeneration(tx *gorm.DB, sc Scope) (*models.Generation, error) {
	q := tx.Where("brand_id = ? AND model_id = ?", sc.BrandID, sc.ModelID)
	if sc.SeriesID == nil {
		q = q.Where("series_id IS NULL")
	} else {
		q = q.Where("series_id = ?", *sc.SeriesID)
	}
	var gen models.Generation
	if errFind := q.Order("year_start DESC").Order("id DESC").First(&gen).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundf("no generation found for this combination")
		}
		return nil, fmt.Errorf("bulk: find generation: %w", errFind)
	}
	return &gen, nil
}

// Matrix builds the placement grid: every content item placed by a rule of the
// scope, against "All Packages" and each package of the scope's generation.
func (s *Service) Matrix(ctx context.Context, sc Scope) (*Matrix, error) {
	db := s.db.WithContext(ctx)
	gen, errGen := scopeGeneration(db, sc)
	if errGen != nil {
		return nil, errGen
	}
	pkgs, errPkgs := generationPackages(db, gen.ID)
	if errPkgs != nil {
		return nil, errPkgs
	}
	columns := make([]PackageColumn, 0, len(pkgs)+1)
	columns = append(columns, PackageColumn{Name: allPackagesName})
	for i := range pkgs {
		id := pkgs[i].ID
		columns = append(columns, PackageColumn{ID: &id, Name: pkgs[i].Name})
	}

	var rules []models.Rule
	errRules := scopeRules(db, sc).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Preload("Items.ContentItem").
		Order("id ASC").
		Find(&rules).Error
	if errRules != nil {
		return nil, fmt.Errorf("bulk: load rules: %w", errRules)
	}

	type placed struct {
		item    *models.ContentItem
		byKey   map[string]models.RuleItem
		complex map[string]bool
	}
	byContent := make(map[uint64]*placed)
	for i := range rules {
		rule := &rules[i]
		key := PackageKey(rule.PackageID)
		complexRule := rule.YearStart != nil || rule.YearEnd != nil
		for _, item := range rule.Items {
			if item.ContentItem == nil {
				continue
			}
			p := byContent[item.ContentItemID]
			if p == nil {
				p = &placed{item: item.ContentItem, byKey: map[string]models.RuleItem{}, complex: map[string]bool{}}
				byContent[item.ContentItemID] = p
			}
			if _, seen := p.byKey[key]; seen && (complexRule || !p.complex[key]) {
				continue
			}
			p.byKey[key] = item
			p.complex[key] = complexRule
		}
	}

	ids := make([]uint64, 0, len(byContent))
	for id := range byContent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := &Matrix{GenerationID: gen.ID, Packages: columns, Rows: make([]MatrixRow, 0, len(ids))}
	for _, id := range ids {
		p := byContent[id]
		row := MatrixRow{
			ID:            id,
			Text:          p.item.Text,
			Preview:       p.item.Preview(),
			PackageStates: make(map[string]PackageState, len(columns)),
		}
		for _, col := range columns {
			key := PackageKey(col.ID)
			state := PackageState{Placement: models.PlacementInterior}
			if item, ok := p.byKey[key]; ok {
				itemID := item.ID
				state = PackageState{
					Checked:     true,
					Placement:   item.Placement,
					IsHighlight: item.IsHighlight,
					IsOption:    item.IsOption,
					Priority:    item.Priority,
					Sequence:    item.Sequence,
					RuleItemID:  &itemID,
					IsComplex:   p.complex[key],
				}
			}
			row.PackageStates[key] = state
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// SaveAssociationsInput replaces the placements of one content item within a scope.
type SaveAssociationsInput struct {
	ContentItemID uint64                  `json:"blurb_id"`
	Scope         Scope                   `json:"scope"`
	PackageStates map[string]PackageState `json:"package_states"`
}

// SaveSummary reports what SavePackageAssociations changed.
type SaveSummary struct {
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Removed      int `json:"removed"`
	RulesDeleted int `json:"rules_deleted"`
}

// SavePackageAssociations applies the matrix edits for one content item atomically.
// For each package key the unbounded rule of the scope and package is found or
// created; a checked state creates or updates the item's placement, an unchecked
// one removes it, and a rule left without items is deleted.
func (s *Service) SavePackageAssociations(ctx context.Context, in SaveAssociationsInput) (*SaveSummary, error) {
	if in.ContentItemID == 0 {
		return nil, invalidf("blurb_id is required")
	}
	if in.Scope.BrandID == 0 || in.Scope.ModelID == 0 {
		return nil, invalidf("brand_id and model_id are required")
	}
	keys := make([]string, 0, len(in.PackageStates))
	for key, state := range in.PackageStates {
		if state.Checked {
			placement := strings.ToLower(strings.TrimSpace(state.Placement))
			if placement == "" {
				placement = models.PlacementInterior
			}
			if !models.ValidPlacement(placement) {
				return nil, invalidf("invalid placement %q", state.Placement)
			}
			state.Placement = placement
			in.PackageStates[key] = state
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	summary := &SaveSummary{}
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if ok, errExists := exists(tx, &models.ContentItem{}, in.ContentItemID); errExists != nil {
			return errExists
		} else if !ok {
			return notFoundf("blurb %d not found", in.ContentItemID)
		}
		for _, key := range keys {
			packageID, errKey := ParsePackageKey(key)
			if errKey != nil {
				return errKey
			}
			if packageID != nil {
				if ok, errExists := exists(tx, &models.Package{}, *packageID); errExists != nil {
					return errExists
				} else if !ok {
					return notFoundf("package %d not found", *packageID)
				}
			}
			if errApply := s.applyState(ctx, tx, in, packageID, in.PackageStates[key], summary); errApply != nil {
				return errApply
			}
		}
		return nil
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return summary, nil
}

// applyState reconciles one package column for one content item.
func (s *Service) applyState(ctx context.Context, tx *gorm.DB, in SaveAssociationsInput, packageID *uint64, state PackageState, summary *SaveSummary) error {
	filter := models.Rule{
		BrandID:   &in.Scope.BrandID,
		ModelID:   &in.Scope.ModelID,
		SeriesID:  in.Scope.SeriesID,
		PackageID: packageID,
	}
	var rule *models.Rule
	var errRule error
	if state.Checked {
		rule, errRule = findOrCreateRule(ctx, tx, filter)
	} else {
		rule, errRule = findRule(tx, filter)
	}
	if errRule != nil || rule == nil {
		return errRule
	}

	var item models.RuleItem
	errFind := tx.Where("rule_id = ? AND content_item_id = ?", rule.ID, in.ContentItemID).First(&item).Error
	found := errFind == nil
	if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("bulk: load rule item: %w", errFind)
	}

	switch {
	case state.Checked:
		item.RuleID = rule.ID
		item.ContentItemID = in.ContentItemID
		item.Placement = state.Placement
		item.IsHighlight = state.IsHighlight
		item.IsOption = state.IsOption
		item.Priority = state.Priority
		item.Sequence = state.Sequence
		action := models.HistoryActionUpdate
		if found {
			summary.Updated++
		} else {
			action = models.HistoryActionCreate
			summary.Created++
		}
		if errSave := tx.Save(&item).Error; errSave != nil {
			return fmt.Errorf("bulk: save rule item: %w", errSave)
		}
		if errRecord := record(ctx, tx, "rule_item", item.ID, action, item); errRecord != nil {
			return errRecord
		}
	case found:
		if errDelete := tx.Delete(&item).Error; errDelete != nil {
			return fmt.Errorf("bulk: delete rule item: %w", errDelete)
		}
		summary.Removed++
		if errRecord := record(ctx, tx, "rule_item", item.ID, models.HistoryActionDelete, item); errRecord != nil {
			return errRecord
		}
	}

	deleted, errPrune := pruneEmptyRule(ctx, tx, rule)
	if errPrune != nil {
		return errPrune
	}
	if deleted {
		summary.RulesDeleted++
	}
	return nil
}

// findOrCreateRule returns the rule owning the filter tuple of r, inserting it when absent.
func findOrCreateRule(ctx context.Context, tx *gorm.DB, r models.Rule) (*models.Rule, error) {
	key := models.RuleFilterKey(r.BrandID, r.ModelID, r.SeriesID, r.PackageID, r.YearStart, r.YearEnd)
	res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "filter_key"}}, DoNothing: true}).Create(&r)
	if res.Error != nil {
		return nil, fmt.Errorf("bulk: create rule: %w", res.Error)
	}
	var row models.Rule
	if errFind := tx.Where("filter_key = ?", key).First(&row).Error; errFind != nil {
		return nil, fmt.Errorf("bulk: load rule: %w", errFind)
	}
	if res.RowsAffected > 0 {
		if errRecord := record(ctx, tx, "rule", row.ID, models.HistoryActionCreate, row); errRecord != nil {
			return nil, errRecord
		}
	}
	return &row, nil
}

// findRule returns the rule owning the filter tuple of r, or nil when there is none.
func findRule(tx *gorm.DB, r models.Rule) (*models.Rule, error) {
	key := models.RuleFilterKey(r.BrandID, r.ModelID, r.SeriesID, r.PackageID, r.YearStart, r.YearEnd)
	var row models.Rule
	if errFind := tx.Where("filter_key = ?", key).First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("bulk: load rule: %w", errFind)
	}
	return &row, nil
}

// pruneEmptyRule deletes rule when it has no items left.
func pruneEmptyRule(ctx context.Context, tx *gorm.DB, rule *models.Rule) (bool, error) {
	var count int64
	if errCount := tx.Model(&models.RuleItem{}).Where("rule_id = ?", rule.ID).Count(&count).Error; errCount != nil {
		return false, fmt.Errorf("bulk: count rule items: %w", errCount)
	}
	if count > 0 {
		return false, nil
	}
	if errDelete := tx.Delete(&models.Rule{}, "id = ?", rule.ID).Error; errDelete != nil {
		return false, fmt.Errorf("bulk: delete rule: %w", errDelete)
	}
	return true, record(ctx, tx, "rule", rule.ID, models.HistoryActionDelete, rule)
}
