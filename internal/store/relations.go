package store

import (
	"github.com/reorx/linkmind/internal/model"
)

// SaveRelations replaces the set of outgoing relations for linkId
// atomically (spec.md section 4.1). "Outgoing" means rows this link's own
// related step previously wrote (link_a = linkId); rows the other endpoint
// wrote about this link (link_b = linkId) are not deleted. When a pair
// already exists as such a reverse row, only its score is updated in
// place, so at most one of (a,b)/(b,a) is ever stored.
func (s *Store) SaveRelations(linkID int64, pairs []model.RelatedLink) error {
	tx, err := s.db.Begin()
	if err != nil {
		return classifyPGError(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM link_relations WHERE link_a = $1`, linkID); err != nil {
		return classifyPGError(err)
	}

	for _, p := range pairs {
		var reverseExists bool
		err := tx.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM link_relations WHERE link_a = $1 AND link_b = $2)
		`, p.LinkID, linkID).Scan(&reverseExists)
		if err != nil {
			return classifyPGError(err)
		}

		if reverseExists {
			_, err = tx.Exec(`
				UPDATE link_relations SET score = $1 WHERE link_a = $2 AND link_b = $3
			`, p.Score, p.LinkID, linkID)
		} else {
			_, err = tx.Exec(`
				INSERT INTO link_relations(link_a, link_b, score) VALUES($1, $2, $3)
				ON CONFLICT (link_a, link_b) DO UPDATE SET score = EXCLUDED.score
			`, linkID, p.LinkID, p.Score)
		}
		if err != nil {
			return classifyPGError(err)
		}
	}

	return classifyPGError(tx.Commit())
}

// GetRelations unions outgoing and incoming edges, deduplicates by the
// other endpoint keeping the higher score, sorts by score descending, and
// caps at 5 (spec.md section 4.1 and 4.6).
func (s *Store) GetRelations(linkID int64) ([]model.RelatedLink, error) {
	rows, err := s.db.Query(`
		SELECT link_b AS other, score FROM link_relations WHERE link_a = $1
		UNION ALL
		SELECT link_a AS other, score FROM link_relations WHERE link_b = $1
	`, linkID)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	best := make(map[int64]float64)
	for rows.Next() {
		var other int64
		var score float64
		if err := rows.Scan(&other, &score); err != nil {
			return nil, classifyPGError(err)
		}
		if existing, ok := best[other]; !ok || score > existing {
			best[other] = score
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPGError(err)
	}

	result := make([]model.RelatedLink, 0, len(best))
	for id, score := range best {
		result = append(result, model.RelatedLink{LinkID: id, Score: score})
	}

	sortRelatedDesc(result)

	const maxRelations = 5
	if len(result) > maxRelations {
		result = result[:maxRelations]
	}
	return result, nil
}

func sortRelatedDesc(rs []model.RelatedLink) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && less(rs[j], rs[j-1]); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}

// less orders by score descending, tie-broken by lower linkId first, the
// deterministic tie-break spec.md section 4.3.1 step 4 requires.
func less(a, b model.RelatedLink) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.LinkID < b.LinkID
}

// RemoveLinkFromRelations deletes every row touching linkId and returns how
// many distinct remote links had a reference scrubbed (spec.md section
// 4.1). Call this before DeleteLink so the FK cascade has nothing left to
// do and the audit count is still available.
func (s *Store) RemoveLinkFromRelations(linkID int64) (int, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT other FROM (
			SELECT link_b AS other FROM link_relations WHERE link_a = $1
			UNION
			SELECT link_a AS other FROM link_relations WHERE link_b = $1
		) t
	`, linkID)
	if err != nil {
		return 0, classifyPGError(err)
	}
	var others []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, classifyPGError(err)
		}
		others = append(others, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, classifyPGError(err)
	}

	_, err = s.db.Exec(`DELETE FROM link_relations WHERE link_a = $1 OR link_b = $1`, linkID)
	if err != nil {
		return 0, classifyPGError(err)
	}

	return len(others), nil
}
