// Package resolver turns a brand/model/year/package selection into marketing copy.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/picklesmaker/pickles/internal/catalog"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/models"
	log "github.com/sirupsen/logrus"
)

// Report messages.
const (
	MessageNoMatches = "No content rules found for this selection. Please check the database configuration."
	MessageGenerated = "Content generated successfully."
	MessageTruncated = "Content was truncated to fit character limits."
)

// Selection holds the raw ids chosen by the caller. Every field is optional.
type Selection struct {
	BrandID   *uint64 `json:"brand_id"`
	ModelID   *uint64 `json:"model_id"`
	YearID    *uint64 `json:"year_id"`
	PackageID *uint64 `json:"package_id"`
}

// GenerationInfo describes the generation a selection resolved to.
type GenerationInfo struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	YearRange string `json:"year_range"`
}

// Resolved echoes the entities a selection resolved to.
type Resolved struct {
	Brand      *models.Brand        `json:"brand,omitempty"`
	Model      *models.VehicleModel `json:"model,omitempty"`
	Year       *models.Year         `json:"year,omitempty"`
	Series     *models.Series       `json:"series,omitempty"`
	Package    *models.Package      `json:"package,omitempty"`
	Generation *GenerationInfo      `json:"generation,omitempty"`
}

// Report is the outcome of resolving a selection.
type Report struct {
	Content      map[content.Category]string         `json:"content"`
	Stats        map[content.Category]content.Result `json:"stats"`
	MatchesFound int                                 `json:"matches_found"`
	Truncated    bool                                `json:"truncated"`
	Success      bool                                `json:"success"`
	NoRulesFound bool                                `json:"no_rules_found"`
	Message      string                              `json:"message"`
	Selection    Resolved                            `json:"selection"`
}

// OptionsFunc returns the assembly options for the current request.
type OptionsFunc func() content.Options

// Resolver resolves selections against a catalog store.
type Resolver struct {
	store   catalog.Store
	options OptionsFunc
}

// New builds a Resolver. A nil options func uses content.DefaultOptions.
func New(store catalog.Store, options OptionsFunc) *Resolver {
	if options == nil {
		options = content.DefaultOptions
	}
	return &Resolver{store: store, options: options}
}

// Resolve produces the copy for a selection. A selection matching no rule is not an
// error; the report then carries empty content and NoRulesFound.
func (r *Resolver) Resolve(ctx context.Context, sel Selection) (*Report, error) {
	resolved, criteria, err := r.resolveSelection(ctx, sel)
	if err != nil {
		return nil, err
	}

	rules, err := r.store.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolver: load rules: %w", err)
	}
	matched := content.FilterRules(rules, criteria)

	opts := r.options()
	if len(matched) == 0 {
		return fallbackReport(opts, resolved), nil
	}

	results, err := content.NewAssembler(opts).AssembleAll(matched)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}

	report := &Report{
		Content:      make(map[content.Category]string, len(results)),
		Stats:        results,
		MatchesFound: len(matched),
		Success:      true,
		Message:      MessageGenerated,
		Selection:    resolved,
	}
	for category, res := range results {
		report.Content[category] = res.Text
		if res.Truncated {
			report.Truncated = true
		}
	}
	if report.Truncated {
		report.Message = MessageTruncated
	}
	log.WithFields(log.Fields{
		"matches":   report.MatchesFound,
		"truncated": report.Truncated,
	}).Debug("resolver: content assembled")
	return report, nil
}

// fallbackReport is returned when no rule matches.
func fallbackReport(opts content.Options, resolved Resolved) *Report {
	report := &Report{
		Content:      make(map[content.Category]string, len(content.Categories)),
		Stats:        make(map[content.Category]content.Result, len(content.Categories)),
		NoRulesFound: true,
		Message:      MessageNoMatches,
		Selection:    resolved,
	}
	for _, category := range content.Categories {
		report.Content[category] = ""
		report.Stats[category] = content.Result{CharLimit: opts.Limit(category)}
	}
	return report
}

// resolveSelection loads the selected entities and derives the match criteria.
func (r *Resolver) resolveSelection(ctx context.Context, sel Selection) (Resolved, models.Criteria, error) {
	var (
		out      Resolved
		criteria models.Criteria
		err      error
	)

	if sel.BrandID != nil {
		if out.Brand, err = r.store.Brand(ctx, *sel.BrandID); err != nil {
			return out, criteria, lookupError("brand", *sel.BrandID, err)
		}
		criteria.BrandID = &out.Brand.ID
	}
	if sel.ModelID != nil {
		if out.Model, err = r.store.VehicleModel(ctx, *sel.ModelID); err != nil {
			return out, criteria, lookupError("model", *sel.ModelID, err)
		}
		criteria.ModelID = &out.Model.ID
	}
	if sel.YearID != nil {
		if out.Year, err = r.store.Year(ctx, *sel.YearID); err != nil {
			return out, criteria, lookupError("year", *sel.YearID, err)
		}
		year := out.Year.Year
		criteria.Year = &year
	}
	if sel.PackageID != nil {
		if out.Package, err = r.store.Package(ctx, *sel.PackageID); err != nil {
			return out, criteria, lookupError("package", *sel.PackageID, err)
		}
		criteria.PackageID = &out.Package.ID
	}

	if out.Brand != nil && out.Model != nil && out.Year != nil {
		gen, errGen := r.generation(ctx, out.Brand.ID, out.Model.ID, out.Year.Year)
		if errGen != nil {
			return out, criteria, errGen
		}
		if gen != nil {
			out.Generation = generationInfo(gen)
			if gen.SeriesID != nil {
				criteria.SeriesID = gen.SeriesID
				out.Series = gen.Series
			}
		}
	}
	return out, criteria, nil
}

// generation returns the preferred generation covering year, or nil.
func (r *Resolver) generation(ctx context.Context, brandID, modelID uint64, year int) (*models.Generation, error) {
	gens, err := r.store.GenerationsCovering(ctx, brandID, modelID, year)
	if err != nil {
		return nil, fmt.Errorf("resolver: find generation: %w", err)
	}
	if len(gens) == 0 {
		return nil, nil
	}
	catalog.SortGenerations(gens)
	if len(gens) > 1 {
		log.WithFields(log.Fields{
			"brand_id": brandID,
			"model_id": modelID,
			"year":     year,
			"chosen":   gens[0].ID,
		}).Warn("resolver: overlapping generations")
	}
	return &gens[0], nil
}

// generationInfo summarises a generation for the report.
func generationInfo(g *models.Generation) *GenerationInfo {
	return &GenerationInfo{ID: g.ID, Name: g.String(), YearRange: g.YearDisplay()}
}

// lookupError wraps a store miss as NotFoundError.
func lookupError(entity string, id uint64, err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("resolver: load %s %d: %w", entity, id, err)
}
