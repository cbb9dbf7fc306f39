package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gid(v uint64) *uint64 { return &v }

func contentIDs(cands []Candidate) []uint64 {
	out := make([]uint64, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.ContentID)
	}
	return out
}

func TestApplyGroupPolicyKeepsHighestGroupPriority(t *testing.T) {
	members := []Candidate{
		{ContentID: 1, GroupID: gid(7), GroupMaxItems: 1, GroupPriority: 1},
		{ContentID: 2, GroupID: gid(7), GroupMaxItems: 1, GroupPriority: 5},
		{ContentID: 3, GroupID: gid(7), GroupMaxItems: 1, GroupPriority: 10},
	}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}, {0, 2, 1}}
	for _, order := range orders {
		pool := make([]Candidate, 0, len(order))
		for _, idx := range order {
			pool = append(pool, members[idx])
		}
		got := ApplyGroupPolicy(pool)
		assert.Equal(t, []uint64{3}, contentIDs(got), "order %v", order)
	}
}

func TestApplyGroupPolicyTieBreaks(t *testing.T) {
	pool := []Candidate{
		{ContentID: 1, GroupID: gid(1), GroupMaxItems: 2, GroupPriority: 5, Priority: 1, Sequence: 0},
		{ContentID: 2, GroupID: gid(1), GroupMaxItems: 2, GroupPriority: 5, Priority: 3, Sequence: 9},
		{ContentID: 3, GroupID: gid(1), GroupMaxItems: 2, GroupPriority: 5, Priority: 3, Sequence: 2},
	}
	got := ApplyGroupPolicy(pool)
	assert.Equal(t, []uint64{3, 2}, contentIDs(got))
}

func TestApplyGroupPolicyUngroupedPassThrough(t *testing.T) {
	pool := []Candidate{
		{ContentID: 10},
		{ContentID: 1, GroupID: gid(1), GroupMaxItems: 1, GroupPriority: 1},
		{ContentID: 11},
		{ContentID: 2, GroupID: gid(1), GroupMaxItems: 1, GroupPriority: 2},
		{ContentID: 3, GroupID: gid(2), GroupMaxItems: 1},
	}
	got := ApplyGroupPolicy(pool)
	assert.Equal(t, []uint64{2, 3, 10, 11}, contentIDs(got))
}

func TestApplyGroupPolicyDeduplicatesContent(t *testing.T) {
	pool := []Candidate{
		{RuleItemID: 1, ContentID: 5, Priority: 1},
		{RuleItemID: 2, ContentID: 5, Priority: 9},
		{RuleItemID: 3, ContentID: 6},
	}
	got := ApplyGroupPolicy(pool)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].RuleItemID)
	assert.Equal(t, uint64(6), got[1].ContentID)
}

func TestApplyGroupPolicyDuplicateDoesNotConsumeGroupSlot(t *testing.T) {
	pool := []Candidate{
		{RuleItemID: 1, ContentID: 1, GroupID: gid(1), GroupMaxItems: 2, GroupPriority: 9},
		{RuleItemID: 2, ContentID: 1, GroupID: gid(1), GroupMaxItems: 2, GroupPriority: 9},
		{RuleItemID: 3, ContentID: 2, GroupID: gid(1), GroupMaxItems: 2, GroupPriority: 1},
	}
	got := ApplyGroupPolicy(pool)
	assert.Equal(t, []uint64{1, 2}, contentIDs(got))
}

func TestApplyGroupPolicyZeroAndNegativeCap(t *testing.T) {
	pool := []Candidate{
		{ContentID: 1, GroupID: gid(1), GroupMaxItems: 0},
		{ContentID: 2, GroupID: gid(2), GroupMaxItems: -3},
		{ContentID: 3},
	}
	assert.Equal(t, []uint64{3}, contentIDs(ApplyGroupPolicy(pool)))
}

func TestApplyGroupPolicyEmpty(t *testing.T) {
	assert.Empty(t, ApplyGroupPolicy(nil))
}
