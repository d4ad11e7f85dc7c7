// Package relatedlinks holds the pure threshold and ordering rules the
// related step applies to a vector search result, kept separate from
// internal/store so they're testable without a database (spec.md section
// 4.6).
package relatedlinks

import "github.com/reorx/linkmind/internal/model"

const (
	// Threshold is the minimum score a candidate must clear to be retained.
	Threshold = 0.65
	// MaxRelations caps how many related links are stored per link.
	MaxRelations = 5
)

// Filter retains candidates scoring at or above Threshold, sorts them by
// score descending (ties broken by lower link id first), and truncates to
// MaxRelations. candidates is expected already sorted by ascending distance
// from Store.VectorSearch, but Filter re-sorts defensively since it is the
// authority on ordering, not its caller.
func Filter(candidates []model.RelatedLink) []model.RelatedLink {
	kept := make([]model.RelatedLink, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= Threshold {
			kept = append(kept, c)
		}
	}

	sortDesc(kept)

	if len(kept) > MaxRelations {
		kept = kept[:MaxRelations]
	}
	return kept
}

func sortDesc(rs []model.RelatedLink) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && less(rs[j], rs[j-1]); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}

func less(a, b model.RelatedLink) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.LinkID < b.LinkID
}
