package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// RuleItemInput places one content item within a rule.
type RuleItemInput struct {
	ContentItemID uint64 `json:"blurb_id"`
	Placement     string `json:"placement"`
	IsHighlight   bool   `json:"is_highlight"`
	IsOption      bool   `json:"is_option"`
	Priority      int    `json:"priority"`
	Sequence      int    `json:"sequence"`
}

// RuleInput is a full rule definition. Its items replace any existing ones.
type RuleInput struct {
	BrandID   *uint64         `json:"brand_id"`
	ModelID   *uint64         `json:"model_id"`
	SeriesID  *uint64         `json:"series_id"`
	PackageID *uint64         `json:"package_id"`
	YearStart *int            `json:"year_start"`
	YearEnd   *int            `json:"year_end"`
	Items     []RuleItemInput `json:"items"`
}

// RuleView is a rule with its human readable description.
type RuleView struct {
	models.Rule
	Description string `json:"description"`
}

// preloadRule loads the relations a RuleView needs.
func preloadRule(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Brand").Preload("Model").Preload("Series").Preload("Package").
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("priority DESC").Order("sequence ASC").Order("id ASC") }).
		Preload("Items.ContentItem")
}

// Rules lists every rule, optionally limited to those naming brandID.
func (s *Service) Rules(ctx context.Context, brandID *uint64) ([]RuleView, error) {
	q := preloadRule(s.db.WithContext(ctx))
	if brandID != nil {
		q = q.Where("brand_id = ?", *brandID)
	}
	var rows []models.Rule
	if errFind := q.Order("id ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("bulk: list rules: %w", errFind)
	}
	out := make([]RuleView, 0, len(rows))
	for i := range rows {
		out = append(out, RuleView{Rule: rows[i], Description: rows[i].Describe()})
	}
	return out, nil
}

// Rule loads one rule.
func (s *Service) Rule(ctx context.Context, id uint64) (*RuleView, error) {
	return loadRuleView(preloadRule(s.db.WithContext(ctx)), id)
}

// loadRuleView loads a rule by id with its relations.
func loadRuleView(tx *gorm.DB, id uint64) (*RuleView, error) {
	var row models.Rule
	if errFind := tx.First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundf("rule %d not found", id)
		}
		return nil, fmt.Errorf("bulk: load rule: %w", errFind)
	}
	return &RuleView{Rule: row, Description: row.Describe()}, nil
}

// validateRule checks filter references, year bounds and items.
func validateRule(tx *gorm.DB, in *RuleInput) error {
	if in.YearStart != nil && in.YearEnd != nil && *in.YearEnd < *in.YearStart {
		return invalidf("year_end must not be before year_start")
	}
	refs := []struct {
		label string
		id    *uint64
		model any
	}{
		{"brand", in.BrandID, &models.Brand{}},
		{"model", in.ModelID, &models.VehicleModel{}},
		{"series", in.SeriesID, &models.Series{}},
		{"package", in.PackageID, &models.Package{}},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		ok, errExists := exists(tx, ref.model, *ref.id)
		if errExists != nil {
			return errExists
		}
		if !ok {
			return notFoundf("%s %d not found", ref.label, *ref.id)
		}
	}
	seen := make(map[uint64]struct{}, len(in.Items))
	for i := range in.Items {
		item := &in.Items[i]
		if _, dup := seen[item.ContentItemID]; dup {
			return invalidf("blurb %d is listed twice", item.ContentItemID)
		}
		seen[item.ContentItemID] = struct{}{}
		item.Placement = strings.ToLower(strings.TrimSpace(item.Placement))
		if item.Placement == "" {
			item.Placement = models.PlacementInterior
		}
		if !models.ValidPlacement(item.Placement) {
			return invalidf("invalid placement %q", item.Placement)
		}
		ok, errExists := exists(tx, &models.ContentItem{}, item.ContentItemID)
		if errExists != nil {
			return errExists
		}
		if !ok {
			return notFoundf("blurb %d not found", item.ContentItemID)
		}
	}
	return nil
}

// ensureFreeFilter rejects a filter tuple already owned by a rule other than selfID.
func ensureFreeFilter(tx *gorm.DB, in *RuleInput, selfID uint64) error {
	key := models.RuleFilterKey(in.BrandID, in.ModelID, in.SeriesID, in.PackageID, in.YearStart, in.YearEnd)
	var count int64
	if errCount := tx.Model(&models.Rule{}).Where("filter_key = ? AND id <> ?", key, selfID).Count(&count).Error; errCount != nil {
		return fmt.Errorf("bulk: check rule filter: %w", errCount)
	}
	if count > 0 {
		return conflictf("a rule with the same filters already exists")
	}
	return nil
}

// replaceItems swaps the items of ruleID for in.
func replaceItems(tx *gorm.DB, ruleID uint64, in []RuleItemInput) error {
	if errDelete := tx.Where("rule_id = ?", ruleID).Delete(&models.RuleItem{}).Error; errDelete != nil {
		return fmt.Errorf("bulk: clear rule items: %w", errDelete)
	}
	for _, item := range in {
		row := models.RuleItem{
			RuleID:        ruleID,
			ContentItemID: item.ContentItemID,
			Placement:     item.Placement,
			IsHighlight:   item.IsHighlight,
			IsOption:      item.IsOption,
			Priority:      item.Priority,
			Sequence:      item.Sequence,
		}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create rule item: %w", errCreate)
		}
	}
	return nil
}

// CreateRule adds a rule with its items.
func (s *Service) CreateRule(ctx context.Context, in RuleInput) (*RuleView, error) {
	var out *RuleView
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if errValidate := validateRule(tx, &in); errValidate != nil {
			return errValidate
		}
		if errFree := ensureFreeFilter(tx, &in, 0); errFree != nil {
			return errFree
		}
		row := models.Rule{
			BrandID:   in.BrandID,
			ModelID:   in.ModelID,
			SeriesID:  in.SeriesID,
			PackageID: in.PackageID,
			YearStart: in.YearStart,
			YearEnd:   in.YearEnd,
		}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create rule: %w", errCreate)
		}
		if errItems := replaceItems(tx, row.ID, in.Items); errItems != nil {
			return errItems
		}
		view, errLoad := loadRuleView(preloadRule(tx), row.ID)
		if errLoad != nil {
			return errLoad
		}
		out = view
		return record(ctx, tx, "rule", row.ID, models.HistoryActionCreate, view.Rule)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return out, nil
}

// UpdateRule replaces the filters and items of a rule.
func (s *Service) UpdateRule(ctx context.Context, id uint64, in RuleInput) (*RuleView, error) {
	var out *RuleView
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		var row models.Rule
		if errFind := tx.First(&row, "id = ?", id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return notFoundf("rule %d not found", id)
			}
			return fmt.Errorf("bulk: load rule: %w", errFind)
		}
		if errValidate := validateRule(tx, &in); errValidate != nil {
			return errValidate
		}
		if errFree := ensureFreeFilter(tx, &in, id); errFree != nil {
			return errFree
		}
		row.BrandID = in.BrandID
		row.ModelID = in.ModelID
		row.SeriesID = in.SeriesID
		row.PackageID = in.PackageID
		row.YearStart = in.YearStart
		row.YearEnd = in.YearEnd
		if errSave := tx.Omit("Items", "Brand", "Model", "Series", "Package").Save(&row).Error; errSave != nil {
			return fmt.Errorf("bulk: save rule: %w", errSave)
		}
		if errItems := replaceItems(tx, row.ID, in.Items); errItems != nil {
			return errItems
		}
		view, errLoad := loadRuleView(preloadRule(tx), row.ID)
		if errLoad != nil {
			return errLoad
		}
		out = view
		return record(ctx, tx, "rule", row.ID, models.HistoryActionUpdate, view.Rule)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return out, nil
}

// DeleteRule removes a rule and its items.
func (s *Service) DeleteRule(ctx context.Context, id uint64) error {
	return s.write(ctx, func(tx *gorm.DB) error {
		view, errLoad := loadRuleView(preloadRule(tx), id)
		if errLoad != nil {
			return errLoad
		}
		if errDelete := tx.Where("rule_id = ?", id).Delete(&models.RuleItem{}).Error; errDelete != nil {
			return fmt.Errorf("bulk: delete rule items: %w", errDelete)
		}
		if errDelete := tx.Delete(&models.Rule{}, "id = ?", id).Error; errDelete != nil {
			return fmt.Errorf("bulk: delete rule: %w", errDelete)
		}
		return record(ctx, tx, "rule", id, models.HistoryActionDelete, view.Rule)
	})
}
