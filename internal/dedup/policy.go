package dedup

import (
	"strings"
	"time"

	"crisiswatch/internal/db"
)

// SimilarityPolicy decides whether two items describe the same story. Policies
// must be symmetric: Match(a, b) == Match(b, a).
type SimilarityPolicy interface {
	Name() string
	Match(a, b db.DuplicateMember) bool
}

// PrefixWindowPolicy treats two items as near-duplicates when they come from
// the same source, share a lower-cased title prefix, and were created less
// than Window apart. Titles shorter than PrefixLen are compared in full.
type PrefixWindowPolicy struct {
	PrefixLen int
	Window    time.Duration
}

func (PrefixWindowPolicy) Name() string { return "prefix-window" }

func (p PrefixWindowPolicy) Match(a, b db.DuplicateMember) bool {
	if a.SourceID != b.SourceID {
		return false
	}

	delta := a.CreatedAt.Sub(b.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	if delta >= p.Window {
		return false
	}

	return p.titleKey(a.Title) == p.titleKey(b.Title)
}

// titleKey lower-cases the title and truncates it to PrefixLen runes, not
// bytes, so multi-byte alphabets compare the same number of characters.
func (p PrefixWindowPolicy) titleKey(title string) string {
	lowered := strings.ToLower(title)
	if p.PrefixLen <= 0 {
		return lowered
	}

	runes := []rune(lowered)
	if len(runes) <= p.PrefixLen {
		return string(runes)
	}
	return string(runes[:p.PrefixLen])
}
