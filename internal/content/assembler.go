package content

import (
	"errors"
	"fmt"
	"sort"

	"github.com/picklesmaker/pickles/internal/models"
)

// ErrDanglingContent is returned when a rule item references a content item that
// could not be loaded.
var ErrDanglingContent = errors.New("content: rule item references missing content item")

// FilterRules returns the rules matching the criteria, preserving order.
func FilterRules(rules []models.Rule, criteria models.Criteria) []models.Rule {
	out := make([]models.Rule, 0, len(rules))
	for i := range rules {
		if rules[i].Matches(criteria) {
			out = append(out, rules[i])
		}
	}
	return out
}

// Assembler turns matching rules into category copy.
type Assembler struct {
	opts Options
}

// NewAssembler builds an assembler with the given options.
func NewAssembler(opts Options) *Assembler {
	if opts.Limits == nil {
		opts.Limits = DefaultOptions().Limits
	}
	return &Assembler{opts: opts}
}

// Options returns the assembler settings.
func (a *Assembler) Options() Options {
	return a.opts
}

// Collect pools the category's rule items across rules, applies the group policy
// and orders the survivors by priority then sequence.
func (a *Assembler) Collect(rules []models.Rule, category Category) ([]Candidate, error) {
	var pool []Candidate
	for i := range rules {
		for j := range rules[i].Items {
			item := &rules[i].Items[j]
			if !category.Includes(item) {
				continue
			}
			cand, err := candidateFor(item)
			if err != nil {
				return nil, err
			}
			pool = append(pool, cand)
		}
	}

	kept := ApplyGroupPolicy(pool)
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Priority != kept[j].Priority {
			return kept[i].Priority > kept[j].Priority
		}
		return kept[i].Sequence < kept[j].Sequence
	})
	return kept, nil
}

// Assemble packs one category from the matching rules.
func (a *Assembler) Assemble(rules []models.Rule, category Category) (Result, error) {
	cands, err := a.Collect(rules, category)
	if err != nil {
		return Result{}, err
	}
	return Pack(cands, a.opts.Limit(category), a.opts.Separator, a.opts.Suffix), nil
}

// AssembleAll packs every category. No partial output is returned on error.
func (a *Assembler) AssembleAll(rules []models.Rule) (map[Category]Result, error) {
	out := make(map[Category]Result, len(Categories))
	for _, category := range Categories {
		res, err := a.Assemble(rules, category)
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", category, err)
		}
		out[category] = res
	}
	return out, nil
}

// candidateFor flattens a rule item and its loaded content item.
func candidateFor(item *models.RuleItem) (Candidate, error) {
	if item.ContentItem == nil || (item.ContentItemID != 0 && item.ContentItem.ID != item.ContentItemID) {
		return Candidate{}, fmt.Errorf("%w: rule item %d, content item %d", ErrDanglingContent, item.ID, item.ContentItemID)
	}
	ci := item.ContentItem
	cand := Candidate{
		RuleItemID:    item.ID,
		ContentID:     ci.ID,
		Text:          ci.Text,
		GroupPriority: ci.GroupPriority,
		Priority:      item.Priority,
		Sequence:      item.Sequence,
	}
	if ci.GroupID != nil {
		gid := *ci.GroupID
		cand.GroupID = &gid
		cand.GroupMaxItems = models.DefaultGroupMaxItems
		if ci.Group != nil {
			cand.GroupMaxItems = ci.Group.MaxItems
		}
	}
	return cand, nil
}
