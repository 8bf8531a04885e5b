package dedup

import (
	"strings"
	"testing"
	"time"

	"crisiswatch/internal/db"
)

func memberAt(id, sourceID int64, title string, created time.Time) db.DuplicateMember {
	return db.DuplicateMember{
		ContentItemID: id,
		SourceID:      sourceID,
		Title:         title,
		CreatedAt:     created,
	}
}

func TestPrefixWindowPolicy_MatchInsideWindow(t *testing.T) {
	policy := PrefixWindowPolicy{PrefixLen: 60, Window: 2 * time.Hour}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := memberAt(1, 7, "Border clashes reported near the northern checkpoint", base)
	b := memberAt(2, 7, "BORDER CLASHES REPORTED NEAR THE NORTHERN CHECKPOINT", base.Add(time.Hour+59*time.Minute))

	if !policy.Match(a, b) {
		t.Fatalf("expected items 1h59m apart with matching prefix to be duplicates")
	}
	if !policy.Match(b, a) {
		t.Fatalf("expected Match to be symmetric")
	}
}

func TestPrefixWindowPolicy_WindowBoundaryIsExclusive(t *testing.T) {
	policy := PrefixWindowPolicy{PrefixLen: 60, Window: 2 * time.Hour}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := memberAt(1, 7, "Ceasefire talks resume", base)

	exactlyWindow := memberAt(2, 7, "Ceasefire talks resume", base.Add(2*time.Hour))
	if policy.Match(a, exactlyWindow) {
		t.Fatalf("expected items exactly 2h apart not to match")
	}

	pastWindow := memberAt(3, 7, "Ceasefire talks resume", base.Add(2*time.Hour+time.Minute))
	if policy.Match(a, pastWindow) {
		t.Fatalf("expected items 2h01m apart not to match")
	}
}

func TestPrefixWindowPolicy_PrefixLength(t *testing.T) {
	policy := PrefixWindowPolicy{PrefixLen: 60, Window: 2 * time.Hour}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	shared := strings.Repeat("a", 60)
	a := memberAt(1, 7, shared+" first tail", base)
	b := memberAt(2, 7, shared+" completely different tail", base.Add(time.Minute))
	if !policy.Match(a, b) {
		t.Fatalf("expected titles sharing the first 60 characters to match")
	}

	c := memberAt(3, 7, strings.Repeat("a", 59)+"X rest", base.Add(time.Minute))
	if policy.Match(a, c) {
		t.Fatalf("expected titles diverging inside the prefix not to match")
	}
}

func TestPrefixWindowPolicy_ShortTitlesCompareFully(t *testing.T) {
	policy := PrefixWindowPolicy{PrefixLen: 60, Window: 2 * time.Hour}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := memberAt(1, 7, "Strike", base)
	b := memberAt(2, 7, "strike", base.Add(time.Minute))
	if !policy.Match(a, b) {
		t.Fatalf("expected short identical titles to match case-insensitively")
	}

	c := memberAt(3, 7, "Strikes", base.Add(time.Minute))
	if policy.Match(a, c) {
		t.Fatalf("expected different short titles not to match")
	}
}

func TestPrefixWindowPolicy_DifferentSourcesNeverMatch(t *testing.T) {
	policy := PrefixWindowPolicy{PrefixLen: 60, Window: 2 * time.Hour}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := memberAt(1, 7, "Evacuation ordered in coastal district", base)
	b := memberAt(2, 8, "Evacuation ordered in coastal district", base)
	if policy.Match(a, b) {
		t.Fatalf("expected identical titles from different sources not to match")
	}
}

func TestPrefixWindowPolicy_MultibytePrefixCountsRunes(t *testing.T) {
	policy := PrefixWindowPolicy{PrefixLen: 5, Window: 2 * time.Hour}
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a := memberAt(1, 7, "Київ під обстрілом", base)
	b := memberAt(2, 7, "КИЇВ ПІСЛЯ обстрілу", base.Add(time.Minute))
	if !policy.Match(a, b) {
		t.Fatalf("expected 5-rune cyrillic prefix to match")
	}
}
