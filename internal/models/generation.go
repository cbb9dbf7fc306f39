package models

import (
	"fmt"
	"time"
)

// Generation ties a brand and model (and optionally a series) to a span of model years
// and the packages available within it.
type Generation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"` // Primary key.

	BrandID uint64 `gorm:"not null;uniqueIndex:idx_generations_brand_model_start,priority:1" json:"brand_id"`       // Owning brand.
	ModelID uint64 `gorm:"not null;uniqueIndex:idx_generations_brand_model_start,priority:2;index" json:"model_id"` // Owning model.

	SeriesID *uint64 `gorm:"index" json:"series_id"` // Optional series label.

	YearStart int  `gorm:"not null;uniqueIndex:idx_generations_brand_model_start,priority:3" json:"year_start"` // First covered year.
	YearEnd   *int `json:"year_end"`                                                                            // Last covered year, nil when ongoing.

	Brand    *Brand        `gorm:"foreignKey:BrandID;constraint:OnDelete:CASCADE" json:"brand,omitempty"`   // Brand relation.
	Model    *VehicleModel `gorm:"foreignKey:ModelID;constraint:OnDelete:CASCADE" json:"model,omitempty"`   // Model relation.
	Series   *Series       `gorm:"foreignKey:SeriesID;constraint:OnDelete:CASCADE" json:"series,omitempty"` // Series relation.
	Packages []Package     `gorm:"many2many:generation_packages;constraint:OnDelete:CASCADE" json:"packages,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"` // Last update timestamp.
}

// Covers reports whether the generation spans the given year.
func (g *Generation) Covers(year int) bool {
	if g == nil || year < g.YearStart {
		return false
	}
	return g.YearEnd == nil || year <= *g.YearEnd
}

// YearDisplay renders the span as "2020-2023", "2024" or "2024+".
func (g *Generation) YearDisplay() string {
	if g == nil {
		return ""
	}
	switch {
	case g.YearEnd != nil && *g.YearEnd != g.YearStart:
		return fmt.Sprintf("%d-%d", g.YearStart, *g.YearEnd)
	case g.YearEnd != nil:
		return fmt.Sprintf("%d", g.YearStart)
	default:
		return fmt.Sprintf("%d+", g.YearStart)
	}
}

// String renders "BMW i4 (2024+) 2024 LCI" when the relations are loaded.
func (g *Generation) String() string {
	if g == nil {
		return ""
	}
	brand, model := "", ""
	if g.Brand != nil {
		brand = g.Brand.Name
	}
	if g.Model != nil {
		model = g.Model.Name
	}
	out := fmt.Sprintf("%s %s (%s)", brand, model, g.YearDisplay())
	if g.Series != nil {
		out += " " + g.Series.Name
	}
	return out
}
