package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Placement values stored on rule items.
const (
	// PlacementInterior places the item in the interior copy.
	PlacementInterior = "interior"
	// PlacementExterior places the item in the exterior copy.
	PlacementExterior = "exterior"

	// legacyPlacementHighlights was a placement before highlights became a flag.
	legacyPlacementHighlights = "highlights"
	// legacyPlacementOptions was a placement before options became a flag.
	legacyPlacementOptions = "options"
)

// Criteria is the resolved vehicle selection a rule is evaluated against.
type Criteria struct {
	BrandID   *uint64
	ModelID   *uint64
	SeriesID  *uint64
	PackageID *uint64
	Year      *int
}

// Rule activates its items for every selection whose set fields it matches.
// Unset fields impose no constraint.
type Rule struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	BrandID   *uint64 `gorm:"index" json:"brand_id"`   // Optional brand filter.
	ModelID   *uint64 `gorm:"index" json:"model_id"`   // Optional model filter.
	SeriesID  *uint64 `gorm:"index" json:"series_id"`  // Optional series filter.
	PackageID *uint64 `gorm:"index" json:"package_id"` // Optional package filter.
	YearStart *int    `json:"year_start"`              // Inclusive lower year bound.
	YearEnd   *int    `json:"year_end"`                // Inclusive upper year bound.

	// FilterKey encodes the whole filter tuple so a tuple maps to at most one rule.
	FilterKey string `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`

	Brand   *Brand        `gorm:"foreignKey:BrandID;constraint:OnDelete:CASCADE" json:"brand,omitempty"`
	Model   *VehicleModel `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE" json:"model,omitempty"`
	Series  *Series       `gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE" json:"series,omitempty"`
	Package *Package      `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE" json:"package,omitempty"`
	Items   []RuleItem    `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// BeforeSave keeps FilterKey in sync with the filter fields.
func (r *Rule) BeforeSave(*gorm.DB) error {
	r.FilterKey = RuleFilterKey(r.BrandID, r.ModelID, r.SeriesID, r.PackageID, r.YearStart, r.YearEnd)
	return nil
}

// RuleFilterKey builds the canonical key for a rule filter tuple.
func RuleFilterKey(brandID, modelID, seriesID, packageID *uint64, yearStart, yearEnd *int) string {
	id := func(v *uint64) string {
		if v == nil {
			return "-"
		}
		return strconv.FormatUint(*v, 10)
	}
	year := func(v *int) string {
		if v == nil {
			return "-"
		}
		return strconv.Itoa(*v)
	}
	return strings.Join([]string{
		"b" + id(brandID),
		"m" + id(modelID),
		"s" + id(seriesID),
		"p" + id(packageID),
		"ys" + year(yearStart),
		"ye" + year(yearEnd),
	}, "|")
}

// Matches reports whether every set filter equals the criteria. Year bounds are
// only checked when the criteria carry a year.
func (r *Rule) Matches(c Criteria) bool {
	if r == nil {
		return false
	}
	if !idMatches(r.BrandID, c.BrandID) ||
		!idMatches(r.ModelID, c.ModelID) ||
		!idMatches(r.SeriesID, c.SeriesID) ||
		!idMatches(r.PackageID, c.PackageID) {
		return false
	}
	if c.Year == nil {
		return true
	}
	if r.YearStart != nil && *c.Year < *r.YearStart {
		return false
	}
	if r.YearEnd != nil && *c.Year > *r.YearEnd {
		return false
	}
	return true
}

// idMatches reports whether an optional rule filter accepts the given value.
func idMatches(filter, value *uint64) bool {
	if filter == nil {
		return true
	}
	return value != nil && *value == *filter
}

// YearDisplay renders the rule year span, or "" when unbounded.
func (r *Rule) YearDisplay() string {
	switch {
	case r == nil || (r.YearStart == nil && r.YearEnd == nil):
		return ""
	case r.YearStart != nil && r.YearEnd != nil:
		return fmt.Sprintf("%d-%d", *r.YearStart, *r.YearEnd)
	case r.YearStart != nil:
		return fmt.Sprintf("%d+", *r.YearStart)
	default:
		return fmt.Sprintf("-%d", *r.YearEnd)
	}
}

// Describe summarises the loaded filters, e.g. "Match (Brand: BMW, Years: 2020+)".
func (r *Rule) Describe() string {
	if r == nil {
		return ""
	}
	var parts []string
	if r.Brand != nil {
		parts = append(parts, "Brand: "+r.Brand.Name)
	}
	if r.Model != nil {
		parts = append(parts, "Model: "+r.Model.Name)
	}
	if r.Series != nil {
		parts = append(parts, "Series: "+r.Series.Name)
	}
	if r.Package != nil {
		parts = append(parts, "Package: "+r.Package.Name)
	}
	if years := r.YearDisplay(); years != "" {
		parts = append(parts, "Years: "+years)
	}
	if len(parts) == 0 {
		return "Match (All vehicles)"
	}
	return "Match (" + strings.Join(parts, ", ") + ")"
}

// RuleItem places one content item in the copy produced by a rule.
type RuleItem struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	RuleID        uint64 `gorm:"not null;uniqueIndex:idx_rule_items_rule_content,priority:1" json:"rule_id"`               // Owning rule.
	ContentItemID uint64 `gorm:"not null;uniqueIndex:idx_rule_items_rule_content,priority:2;index" json:"content_item_id"` // Placed item.

	ContentItem *ContentItem `gorm:"foreignKey:ContentItemID;constraint:OnDelete:CASCADE" json:"content_item,omitempty"`

	Placement   string `gorm:"type:varchar(20);not null;default:'interior'" json:"placement"` // interior or exterior.
	IsHighlight bool   `gorm:"not null;default:false" json:"is_highlight"`                    // Also listed in highlights.
	IsOption    bool   `gorm:"not null;default:false" json:"is_option"`                       // Also listed in options.
	Priority    int    `gorm:"not null;default:0" json:"priority"`                            // Higher first.
	Sequence    int    `gorm:"not null;default:0" json:"sequence"`                            // Lower first on equal priority.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// ValidPlacement reports whether p is a storable placement.
func ValidPlacement(p string) bool {
	return p == PlacementInterior || p == PlacementExterior
}

// NormalizeLegacyPlacement rewrites pre-flag placements into the exterior placement
// with the matching flag set. It reports whether the item was changed.
func NormalizeLegacyPlacement(item *RuleItem) bool {
	if item == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(item.Placement)) {
	case legacyPlacementHighlights:
		item.Placement = PlacementExterior
		item.IsHighlight = true
		return true
	case legacyPlacementOptions:
		item.Placement = PlacementExterior
		item.IsOption = true
		return true
	}
	return false
}
