package content

import "sort"

// Candidate is one rule item competing for space in a category.
type Candidate struct {
	RuleItemID uint64
	ContentID  uint64
	Text       string

	GroupID       *uint64
	GroupMaxItems int
	GroupPriority int

	Priority int
	Sequence int
}

// ApplyGroupPolicy keeps at most MaxItems members of each content group, ranked by
// group priority, then item priority, then sequence. Kept grouped candidates come
// first, in order of each group's first appearance, followed by the ungrouped ones.
// The result never holds two candidates for the same content item.
func ApplyGroupPolicy(pool []Candidate) []Candidate {
	if len(pool) == 0 {
		return nil
	}

	var (
		groupOrder []uint64
		groups     = make(map[uint64][]Candidate)
		ungrouped  []Candidate
	)
	for _, cand := range pool {
		if cand.GroupID == nil {
			ungrouped = append(ungrouped, cand)
			continue
		}
		gid := *cand.GroupID
		if _, seen := groups[gid]; !seen {
			groupOrder = append(groupOrder, gid)
		}
		groups[gid] = append(groups[gid], cand)
	}

	out := make([]Candidate, 0, len(pool))
	for _, gid := range groupOrder {
		members := groups[gid]
		sort.SliceStable(members, func(i, j int) bool {
			a, b := members[i], members[j]
			if a.GroupPriority != b.GroupPriority {
				return a.GroupPriority > b.GroupPriority
			}
			if a.Priority != b.Priority {
				return a.Priority > b.Priority
			}
			return a.Sequence < b.Sequence
		})
		// A content item reached through several rules must only use one slot.
		members = dedupe(members)
		limit := members[0].GroupMaxItems
		if limit < 0 {
			limit = 0
		}
		if limit < len(members) {
			members = members[:limit]
		}
		out = append(out, members...)
	}
	out = append(out, ungrouped...)
	return dedupe(out)
}

// dedupe drops candidates whose content item already appeared earlier.
func dedupe(in []Candidate) []Candidate {
	seen := make(map[uint64]struct{}, len(in))
	out := in[:0:0]
	for _, cand := range in {
		if _, ok := seen[cand.ContentID]; ok {
			continue
		}
		seen[cand.ContentID] = struct{}{}
		out = append(out, cand)
	}
	return out
}
