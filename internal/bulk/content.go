package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	dbutil "github.com/picklesmaker/pickles/internal/db"
	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// ContentInput is the editable part of a content item.
type ContentInput struct {
	Text          string  `json:"text"`
	GroupID       *uint64 `json:"group_id"`
	GroupPriority int     `json:"group_priority"`
}

// ContentSummary is a content item with its usage projections.
type ContentSummary struct {
	ID            uint64   `json:"id"`
	Text          string   `json:"text"`
	Preview       string   `json:"preview"`
	GroupID       *uint64  `json:"group_id"`
	GroupName     string   `json:"group_name,omitempty"`
	GroupPriority int      `json:"group_priority"`
	UsageCount    int64    `json:"usage_count"`
	UsedIn        []string `json:"used_in,omitempty"`
}

// validateContent normalizes and checks a ContentInput.
func (s *Service) validateContent(tx *gorm.DB, in *ContentInput) error {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return invalidf("text is required")
	}
	if n := utf8.RuneCountInString(in.Text); n > s.maxContentLength {
		return invalidf("text is %d characters, the limit is %d", n, s.maxContentLength)
	}
	if in.GroupID != nil {
		ok, errExists := exists(tx, &models.ContentGroup{}, *in.GroupID)
		if errExists != nil {
			return errExists
		}
		if !ok {
			return notFoundf("group %d not found", *in.GroupID)
		}
	}
	return nil
}

// SearchContent returns up to 20 content items whose text contains q, ignoring case.
func (s *Service) SearchContent(ctx context.Context, q string) ([]models.ContentItem, error) {
	q = strings.TrimSpace(q)
	rows := make([]models.ContentItem, 0)
	if q == "" {
		return rows, nil
	}
	db := s.db.WithContext(ctx)
	errFind := db.Where(dbutil.ContainsFold(db, "text", q)).
		Order("id ASC").
		Limit(searchLimit).
		Find(&rows).Error
	if errFind != nil {
		return nil, fmt.Errorf("bulk: search content: %w", errFind)
	}
	return rows, nil
}

// ListContent returns content items with usage counts, optionally filtered by text.
func (s *Service) ListContent(ctx context.Context, q string, offset, limit int) ([]ContentSummary, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	db := s.db.WithContext(ctx)
	query := db.Model(&models.ContentItem{})
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where(dbutil.ContainsFold(db, "text", q))
	}
	var total int64
	if errCount := query.Count(&total).Error; errCount != nil {
		return nil, 0, fmt.Errorf("bulk: count content: %w", errCount)
	}
	var rows []models.ContentItem
	if errFind := query.Preload("Group").Order("id ASC").Offset(offset).Limit(limit).Find(&rows).Error; errFind != nil {
		return nil, 0, fmt.Errorf("bulk: list content: %w", errFind)
	}
	ids := make([]uint64, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}
	counts, errCounts := usageCounts(db, ids)
	if errCounts != nil {
		return nil, 0, errCounts
	}
	out := make([]ContentSummary, 0, len(rows))
	for i := range rows {
		summary := summarize(&rows[i])
		summary.UsageCount = counts[rows[i].ID]
		out = append(out, summary)
	}
	return out, total, nil
}

// Content loads one content item with its usage projections.
func (s *Service) Content(ctx context.Context, id uint64) (*ContentSummary, error) {
	db := s.db.WithContext(ctx)
	var row models.ContentItem
	if errFind := db.Preload("Group").First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, notFoundf("blurb %d not found", id)
		}
		return nil, fmt.Errorf("bulk: load content: %w", errFind)
	}
	summary := summarize(&row)
	usedIn, errUsed := usedIn(db, id)
	if errUsed != nil {
		return nil, errUsed
	}
	summary.UsedIn = usedIn
	summary.UsageCount = int64(len(usedIn))
	return &summary, nil
}

// CreateContent adds a content item.
func (s *Service) CreateContent(ctx context.Context, in ContentInput) (*models.ContentItem, error) {
	var row models.ContentItem
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if errValidate := s.validateContent(tx, &in); errValidate != nil {
			return errValidate
		}
		row = models.ContentItem{Text: in.Text, GroupID: in.GroupID, GroupPriority: in.GroupPriority}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create content: %w", errCreate)
		}
		return record(ctx, tx, "blurb", row.ID, models.HistoryActionCreate, row)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// UpdateContent replaces the text and group membership of a content item.
func (s *Service) UpdateContent(ctx context.Context, id uint64, in ContentInput) (*models.ContentItem, error) {
	var row models.ContentItem
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if errFind := tx.First(&row, "id = ?", id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return notFoundf("blurb %d not found", id)
			}
			return fmt.Errorf("bulk: load content: %w", errFind)
		}
		if errValidate := s.validateContent(tx, &in); errValidate != nil {
			return errValidate
		}
		row.Text = in.Text
		row.GroupID = in.GroupID
		row.GroupPriority = in.GroupPriority
		if errSave := tx.Save(&row).Error; errSave != nil {
			return fmt.Errorf("bulk: save content: %w", errSave)
		}
		return record(ctx, tx, "blurb", row.ID, models.HistoryActionUpdate, row)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// DeleteContent removes a content item and every placement of it. Rules left
// without items are deleted too.
func (s *Service) DeleteContent(ctx context.Context, id uint64) error {
	return s.write(ctx, func(tx *gorm.DB) error {
		var row models.ContentItem
		if errFind := tx.First(&row, "id = ?", id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return notFoundf("blurb %d not found", id)
			}
			return fmt.Errorf("bulk: load content: %w", errFind)
		}
		var ruleIDs []uint64
		if errPluck := tx.Model(&models.RuleItem{}).Where("content_item_id = ?", id).Distinct().Pluck("rule_id", &ruleIDs).Error; errPluck != nil {
			return fmt.Errorf("bulk: list placements: %w", errPluck)
		}
		if errDelete := tx.Where("content_item_id = ?", id).Delete(&models.RuleItem{}).Error; errDelete != nil {
			return fmt.Errorf("bulk: delete placements: %w", errDelete)
		}
		if errDelete := tx.Delete(&row).Error; errDelete != nil {
			return fmt.Errorf("bulk: delete content: %w", errDelete)
		}
		for _, ruleID := range ruleIDs {
			if _, errPrune := pruneEmptyRule(ctx, tx, &models.Rule{ID: ruleID}); errPrune != nil {
				return errPrune
			}
		}
		return record(ctx, tx, "blurb", row.ID, models.HistoryActionDelete, row)
	})
}

// summarize projects a content item without usage data.
func summarize(row *models.ContentItem) ContentSummary {
	out := ContentSummary{
		ID:            row.ID,
		Text:          row.Text,
		Preview:       row.Preview(),
		GroupID:       row.GroupID,
		GroupPriority: row.GroupPriority,
	}
	if row.Group != nil {
		out.GroupName = row.Group.Name
	}
	return out
}

// usageCounts returns how many rule items place each of ids.
func usageCounts(tx *gorm.DB, ids []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ContentItemID uint64
		Total         int64
	}
	errScan := tx.Model(&models.RuleItem{}).
		Select("content_item_id, COUNT(*) AS total").
		Where("content_item_id IN ?", ids).
		Group("content_item_id").
		Scan(&rows).Error
	if errScan != nil {
		return nil, fmt.Errorf("bulk: count usage: %w", errScan)
	}
	for _, row := range rows {
		out[row.ContentItemID] = row.Total
	}
	return out, nil
}

// usedIn describes every rule placing content item id.
func usedIn(tx *gorm.DB, id uint64) ([]string, error) {
	var rules []models.Rule
	errFind := tx.Model(&models.Rule{}).
		Preload("Brand").Preload("Model").Preload("Series").Preload("Package").
		Where("id IN (?)", tx.Model(&models.RuleItem{}).Select("rule_id").Where("content_item_id = ?", id)).
		Order("id ASC").
		Find(&rules).Error
	if errFind != nil {
		return nil, fmt.Errorf("bulk: list usage: %w", errFind)
	}
	out := make([]string, 0, len(rules))
	for i := range rules {
		out = append(out, rules[i].Describe())
	}
	return out, nil
}

// GroupInput is the editable part of a content group.
type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxItems    *int   `json:"max_items"`
}

// GroupSummary is a group with its member count.
type GroupSummary struct {
	models.ContentGroup
	MemberCount int64 `json:"member_count"`
}

// Groups lists content groups ordered by name with their member counts.
func (s *Service) Groups(ctx context.Context) ([]GroupSummary, error) {
	db := s.db.WithContext(ctx)
	var groups []models.ContentGroup
	if errFind := db.Order("name ASC").Find(&groups).Error; errFind != nil {
		return nil, fmt.Errorf("bulk: list groups: %w", errFind)
	}
	var counts []struct {
		GroupID uint64
		Total   int64
	}
	errScan := db.Model(&models.ContentItem{}).
		Select("group_id, COUNT(*) AS total").
		Where("group_id IS NOT NULL").
		Group("group_id").
		Scan(&counts).Error
	if errScan != nil {
		return nil, fmt.Errorf("bulk: count group members: %w", errScan)
	}
	byGroup := make(map[uint64]int64, len(counts))
	for _, c := range counts {
		byGroup[c.GroupID] = c.Total
	}
	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupSummary{ContentGroup: g, MemberCount: byGroup[g.ID]})
	}
	return out, nil
}

// normalizeGroup validates a GroupInput and fills the default cap.
func normalizeGroup(in *GroupInput) (int, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return 0, invalidf("group name is required")
	}
	maxItems := models.DefaultGroupMaxItems
	if in.MaxItems != nil {
		maxItems = *in.MaxItems
	}
	if maxItems < 0 {
		return 0, invalidf("max_items must not be negative")
	}
	return maxItems, nil
}

// CreateGroup adds a content group.
func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (*models.ContentGroup, error) {
	maxItems, errNorm := normalizeGroup(&in)
	if errNorm != nil {
		return nil, errNorm
	}
	row := models.ContentGroup{Name: in.Name, Description: in.Description, MaxItems: maxItems}
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if errDup := ensureUniqueName(tx, &models.ContentGroup{}, "Group", in.Name); errDup != nil {
			return errDup
		}
		if errCreate := tx.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("bulk: create group: %w", errCreate)
		}
		// A zero cap would otherwise be replaced by the column default.
		if maxItems == 0 {
			row.MaxItems = 0
			if errUpdate := tx.Model(&row).Update("max_items", 0).Error; errUpdate != nil {
				return fmt.Errorf("bulk: create group: %w", errUpdate)
			}
		}
		return record(ctx, tx, "group", row.ID, models.HistoryActionCreate, row)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// UpdateGroup replaces a group's name, description and cap.
func (s *Service) UpdateGroup(ctx context.Context, id uint64, in GroupInput) (*models.ContentGroup, error) {
	maxItems, errNorm := normalizeGroup(&in)
	if errNorm != nil {
		return nil, errNorm
	}
	var row models.ContentGroup
	errWrite := s.write(ctx, func(tx *gorm.DB) error {
		if errFind := tx.First(&row, "id = ?", id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return notFoundf("group %d not found", id)
			}
			return fmt.Errorf("bulk: load group: %w", errFind)
		}
		if row.Name != in.Name {
			if errDup := ensureUniqueName(tx, &models.ContentGroup{}, "Group", in.Name); errDup != nil {
				return errDup
			}
		}
		row.Name = in.Name
		row.Description = in.Description
		row.MaxItems = maxItems
		if errSave := tx.Save(&row).Error; errSave != nil {
			return fmt.Errorf("bulk: save group: %w", errSave)
		}
		return record(ctx, tx, "group", row.ID, models.HistoryActionUpdate, row)
	})
	if errWrite != nil {
		return nil, errWrite
	}
	return &row, nil
}

// DeleteGroup removes a group. Its members become ungrouped.
func (s *Service) DeleteGroup(ctx context.Context, id uint64) error {
	return s.write(ctx, func(tx *gorm.DB) error {
		var row models.ContentGroup
		if errFind := tx.First(&row, "id = ?", id).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return notFoundf("group %d not found", id)
			}
			return fmt.Errorf("bulk: load group: %w", errFind)
		}
		errUngroup := tx.Model(&models.ContentItem{}).
			Where("group_id = ?", id).
			Updates(map[string]any{"group_id": nil, "group_priority": 0}).Error
		if errUngroup != nil {
			return fmt.Errorf("bulk: ungroup members: %w", errUngroup)
		}
		if errDelete := tx.Delete(&row).Error; errDelete != nil {
			return fmt.Errorf("bulk: delete group: %w", errDelete)
		}
		return record(ctx, tx, "group", row.ID, models.HistoryActionDelete, row)
	})
}
