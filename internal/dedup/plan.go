package dedup

import (
	"sort"

	"crisiswatch/internal/db"
)

// exactPlan is the outcome of the exact-duplicate phase before any row is
// touched: which items to remove and how many duplicate groups existed.
type exactPlan struct {
	Removals []db.DuplicateMember
	Groups   int
}

// planExactRemovals groups items by identical (title, source_id), keeps the
// earliest-created member of each group, and marks the rest for removal. Ties
// on created_at are broken by the lowest id so repeated runs converge on the
// same survivor.
func planExactRemovals(members []db.DuplicateMember) exactPlan {
	type groupKey struct {
		sourceID int64
		title    string
	}

	groups := make(map[groupKey][]db.DuplicateMember)
	order := make([]groupKey, 0, len(members))
	for _, m := range members {
		key := groupKey{sourceID: m.SourceID, title: m.Title}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], m)
	}

	var plan exactPlan
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ContentItemID < group[j].ContentItemID
		})

		plan.Groups++
		plan.Removals = append(plan.Removals, group[1:]...)
	}
	return plan
}

// fuzzyPlan is the outcome of the near-duplicate phase: which items to remove
// and how many qualifying pairs were observed. Pairs counts every match, so it
// can exceed the number of removals when one item matches several others.
type fuzzyPlan struct {
	Removals []db.DuplicateMember
	Pairs    int
}

// planFuzzyRemovals compares every unordered pair of recent items against the
// policy. For each qualifying pair the later-created member is marked for
// removal; the earlier one always survives. An item marked by several pairs is
// still removed only once.
func planFuzzyRemovals(members []db.DuplicateMember, policy SimilarityPolicy) fuzzyPlan {
	var plan fuzzyPlan
	marked := make(map[int64]struct{})

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			a, b := members[i], members[j]
			if !policy.Match(a, b) {
				continue
			}
			plan.Pairs++

			loser := laterCreated(a, b)
			if _, seen := marked[loser.ContentItemID]; seen {
				continue
			}
			marked[loser.ContentItemID] = struct{}{}
			plan.Removals = append(plan.Removals, loser)
		}
	}
	return plan
}

func laterCreated(a, b db.DuplicateMember) db.DuplicateMember {
	if a.CreatedAt.After(b.CreatedAt) {
		return a
	}
	if b.CreatedAt.After(a.CreatedAt) {
		return b
	}
	// Same timestamp: the higher id is the newer insert.
	if a.ContentItemID > b.ContentItemID {
		return a
	}
	return b
}
