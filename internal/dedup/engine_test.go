package dedup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"crisiswatch/internal/db"
	"crisiswatch/internal/monlog"
)

type fakeCollapseStore struct {
	exact  []db.DuplicateMember
	recent []db.DuplicateMember

	removals     []int64
	removeErrs   map[int64]error
	missingItems map[int64]bool
}

func (f *fakeCollapseStore) ListExactDuplicateMembers(_ context.Context) ([]db.DuplicateMember, error) {
	return f.exact, nil
}

func (f *fakeCollapseStore) ListItemsCreatedSince(_ context.Context, _ time.Time) ([]db.DuplicateMember, error) {
	return f.recent, nil
}

// RemoveContentItem drops the member from both listings so a later Collapse
// run sees the store as it would be after the transaction committed.
func (f *fakeCollapseStore) RemoveContentItem(_ context.Context, contentItemID int64) (int64, int64, error) {
	if err := f.removeErrs[contentItemID]; err != nil {
		return 0, 0, err
	}
	if f.missingItems[contentItemID] {
		return 0, 0, nil
	}
	f.removals = append(f.removals, contentItemID)
	f.exact = dropMember(f.exact, contentItemID)
	f.recent = dropMember(f.recent, contentItemID)
	return 1, 1, nil
}

func dropMember(members []db.DuplicateMember, contentItemID int64) []db.DuplicateMember {
	kept := make([]db.DuplicateMember, 0, len(members))
	for _, m := range members {
		if m.ContentItemID != contentItemID {
			kept = append(kept, m)
		}
	}
	return kept
}

type nopSink struct {
	entries []monlog.Entry
}

func (s *nopSink) Write(_ context.Context, entry monlog.Entry) {
	s.entries = append(s.entries, entry)
}

func testEngine(store *fakeCollapseStore, sink auditSink) *Engine {
	policy := PrefixWindowPolicy{PrefixLen: 60, Window: 2 * time.Hour}
	return NewEngine(store, sink, zerolog.Nop(), policy, 7*24*time.Hour)
}

func TestCollapseRemovesBothPhases(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &fakeCollapseStore{
		exact: []db.DuplicateMember{
			memberAt(1, 1, "Shelling resumes at dawn", base),
			memberAt(2, 1, "Shelling resumes at dawn", base.Add(10*time.Minute)),
			memberAt(3, 1, "Shelling resumes at dawn", base.Add(20*time.Minute)),
		},
		recent: []db.DuplicateMember{
			memberAt(12, 2, "aid convoy reaches the city", base.Add(30*time.Minute)),
			memberAt(11, 2, "Aid convoy reaches the city", base),
		},
	}
	sink := &nopSink{}
	engine := testEngine(store, sink)

	result, err := engine.Collapse(context.Background())
	if err != nil {
		t.Fatalf("collapse failed: %v", err)
	}

	if result.ExactDuplicates != 2 {
		t.Fatalf("expected 2 exact removals, got %d", result.ExactDuplicates)
	}
	if result.FuzzyDuplicates != 1 {
		t.Fatalf("expected 1 fuzzy removal, got %d", result.FuzzyDuplicates)
	}
	if result.TotalRemoved != 3 {
		t.Fatalf("expected 3 total removals, got %d", result.TotalRemoved)
	}

	for _, id := range store.removals {
		if id == 1 || id == 11 {
			t.Fatalf("expected earliest members to survive, removed %d", id)
		}
	}

	if len(sink.entries) != 1 || sink.entries[0].Action != "cleanup_duplicates" {
		t.Fatalf("expected one summary audit entry, got %+v", sink.entries)
	}
}

func TestCollapseSkipsFailedRemovals(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &fakeCollapseStore{
		exact: []db.DuplicateMember{
			memberAt(1, 1, "Bridge reopened", base),
			memberAt(2, 1, "Bridge reopened", base.Add(time.Minute)),
			memberAt(3, 1, "Bridge reopened", base.Add(2*time.Minute)),
		},
		removeErrs: map[int64]error{2: fmt.Errorf("deadlock detected")},
	}
	engine := testEngine(store, &nopSink{})

	result, err := engine.Collapse(context.Background())
	if err != nil {
		t.Fatalf("collapse failed: %v", err)
	}

	// Item 2 failed, item 3 must still be removed.
	if result.ExactDuplicates != 1 || result.TotalRemoved != 1 {
		t.Fatalf("expected 1 successful removal, got %+v", result)
	}
	if len(store.removals) != 1 || store.removals[0] != 3 {
		t.Fatalf("expected item 3 removed, got %v", store.removals)
	}
}

func TestCollapseSecondRunRemovesNothing(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &fakeCollapseStore{
		exact: []db.DuplicateMember{
			memberAt(1, 1, "Shelling resumes at dawn", base),
			memberAt(2, 1, "Shelling resumes at dawn", base.Add(10*time.Minute)),
		},
		recent: []db.DuplicateMember{
			memberAt(12, 2, "aid convoy reaches the city", base.Add(30*time.Minute)),
			memberAt(11, 2, "Aid convoy reaches the city", base),
		},
	}
	engine := testEngine(store, &nopSink{})

	first, err := engine.Collapse(context.Background())
	if err != nil {
		t.Fatalf("first collapse failed: %v", err)
	}
	if first.TotalRemoved != 2 {
		t.Fatalf("expected 2 removals on the first run, got %+v", first)
	}

	second, err := engine.Collapse(context.Background())
	if err != nil {
		t.Fatalf("second collapse failed: %v", err)
	}
	if second.TotalRemoved != 0 || second.ExactDuplicates != 0 || second.FuzzyDuplicates != 0 {
		t.Fatalf("expected the second run to remove nothing, got %+v", second)
	}
	if len(store.removals) != 2 {
		t.Fatalf("expected no further store removals, got %v", store.removals)
	}
}

func TestCollapseDoesNotCountAlreadyGoneItems(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	store := &fakeCollapseStore{
		exact: []db.DuplicateMember{
			memberAt(1, 1, "Curfew extended", base),
			memberAt(2, 1, "Curfew extended", base.Add(time.Minute)),
		},
		missingItems: map[int64]bool{2: true},
	}
	engine := testEngine(store, &nopSink{})

	result, err := engine.Collapse(context.Background())
	if err != nil {
		t.Fatalf("collapse failed: %v", err)
	}
	if result.TotalRemoved != 0 {
		t.Fatalf("expected 0 counted removals when the row was already gone, got %d", result.TotalRemoved)
	}
}

func TestCollapseWithCleanStoreRemovesNothing(t *testing.T) {
	engine := testEngine(&fakeCollapseStore{}, &nopSink{})

	result, err := engine.Collapse(context.Background())
	if err != nil {
		t.Fatalf("collapse failed: %v", err)
	}
	if result.TotalRemoved != 0 || result.ExactDuplicates != 0 || result.FuzzyDuplicates != 0 {
		t.Fatalf("expected an empty result, got %+v", result)
	}
}
