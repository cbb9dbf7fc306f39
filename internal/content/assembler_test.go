package content

import (
	"errors"
	"testing"

	"github.com/picklesmaker/pickles/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id uint64, text string, placement string) models.RuleItem {
	return models.RuleItem{
		ID:            id,
		ContentItemID: id,
		ContentItem:   &models.ContentItem{ID: id, Text: text},
		Placement:     placement,
	}
}

func TestAssemblePriorityOrdering(t *testing.T) {
	low := item(1, "Low priority.", models.PlacementInterior)
	low.Priority = 1
	high := item(2, "High priority.", models.PlacementInterior)
	high.Priority = 5

	rules := []models.Rule{{Items: []models.RuleItem{low, high}}}
	res, err := NewAssembler(DefaultOptions()).Assemble(rules, Interior)
	require.NoError(t, err)
	assert.Equal(t, "High priority.\n\nLow priority.", res.Text)
}

func TestAssembleSequenceBreaksTies(t *testing.T) {
	a := item(1, "Second.", models.PlacementExterior)
	a.Sequence = 2
	b := item(2, "First.", models.PlacementExterior)
	b.Sequence = 1

	rules := []models.Rule{{Items: []models.RuleItem{a, b}}}
	res, err := NewAssembler(DefaultOptions()).Assemble(rules, Exterior)
	require.NoError(t, err)
	assert.Equal(t, "First.\n\nSecond.", res.Text)
}

func TestAssembleVirtualCategoriesUseFlags(t *testing.T) {
	hl := item(1, "Highlight.", models.PlacementExterior)
	hl.IsHighlight = true
	opt := item(2, "Option.", models.PlacementInterior)
	opt.IsOption = true

	rules := []models.Rule{{Items: []models.RuleItem{hl, opt}}}
	out, err := NewAssembler(DefaultOptions()).AssembleAll(rules)
	require.NoError(t, err)

	assert.Equal(t, "Option.", out[Interior].Text)
	assert.Equal(t, "Highlight.", out[Exterior].Text)
	assert.Equal(t, "Highlight.", out[Highlights].Text)
	assert.Equal(t, "Option.", out[OptionsCategory].Text)
}

func TestAssembleDeduplicatesAcrossRules(t *testing.T) {
	shared := item(1, "Shared.", models.PlacementInterior)
	again := shared
	again.ID = 99

	rules := []models.Rule{
		{ID: 1, Items: []models.RuleItem{shared}},
		{ID: 2, Items: []models.RuleItem{again}},
	}
	res, err := NewAssembler(DefaultOptions()).Assemble(rules, Interior)
	require.NoError(t, err)
	assert.Equal(t, "Shared.", res.Text)
	assert.Equal(t, 1, res.ItemsUsed)
}

func TestAssembleAppliesGroupPolicy(t *testing.T) {
	group := &models.ContentGroup{ID: 4, Name: "Parking", MaxItems: 1}
	mk := func(id uint64, text string, groupPriority int) models.RuleItem {
		ri := item(id, text, models.PlacementInterior)
		ri.ContentItem.GroupID = &group.ID
		ri.ContentItem.Group = group
		ri.ContentItem.GroupPriority = groupPriority
		return ri
	}
	rules := []models.Rule{{Items: []models.RuleItem{
		mk(1, "Parking sensors.", 1),
		mk(2, "Automatic parking.", 10),
		mk(3, "Parking camera.", 5),
	}}}
	res, err := NewAssembler(DefaultOptions()).Assemble(rules, Interior)
	require.NoError(t, err)
	assert.Equal(t, "Automatic parking.", res.Text)
}

func TestAssembleUsesConfiguredLimitAndSeparator(t *testing.T) {
	opts := DefaultOptions().WithLimit(Interior, 25)
	opts.Separator = " "
	rules := []models.Rule{{Items: []models.RuleItem{
		item(1, "aaaaaaaaaa", models.PlacementInterior),
		item(2, "bbbbbbbbbb", models.PlacementInterior),
		item(3, "cccccccccc", models.PlacementInterior),
	}}}
	res, err := NewAssembler(opts).Assemble(rules, Interior)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsUsed)
	assert.True(t, res.Truncated)
	assert.Equal(t, 25, res.CharLimit)
}

func TestAssembleDanglingContent(t *testing.T) {
	rules := []models.Rule{{Items: []models.RuleItem{{ID: 1, ContentItemID: 42, Placement: models.PlacementInterior}}}}
	_, err := NewAssembler(DefaultOptions()).AssembleAll(rules)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDanglingContent))
}

func TestFilterRules(t *testing.T) {
	brand := uint64(1)
	other := uint64(2)
	rules := []models.Rule{
		{ID: 1},
		{ID: 2, BrandID: &brand},
		{ID: 3, BrandID: &other},
	}
	got := FilterRules(rules, models.Criteria{BrandID: &brand})
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(2), got[1].ID)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("highlights")
	assert.True(t, ok)
	assert.Equal(t, Highlights, c)

	_, ok = ParseCategory("roof")
	assert.False(t, ok)
}
