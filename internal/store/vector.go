package store

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/reorx/linkmind/internal/model"
)

// SerializeVector encodes a float32 vector into the store's native
// serialization: a little-endian bytea of packed float32s, the same shape
// aduong-slab-search's embeddings package uses for its Embedding column.
func SerializeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DeserializeVector reverses SerializeVector. A malformed or empty buffer
// yields a nil vector rather than an error -- callers treat "no vector" as a
// legitimate state (a link that hasn't reached the embed step yet).
func DeserializeVector(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}

// cosineDistance returns 1 - cosine similarity, matching the convention
// spec.md section 4.1 assumes for VectorSearch ("ascending distance").
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var dot, normA, normB float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return math.Inf(1)
	}
	cosine := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - cosine
}

// scoreFromDistance converts a cosine distance into the [0,1] score space
// spec.md's GLOSSARY defines: score = 1 / (1 + distance), rounded to two
// decimal places.
func scoreFromDistance(distance float64) float64 {
	if math.IsInf(distance, 1) {
		return 0
	}
	score := 1 / (1 + distance)
	return math.Round(score*100) / 100
}

// VectorSearch performs a cosine-similarity search over every other link
// belonging to the same user, following the aduong-slab-search /
// Ekats-Mycelica pattern of loading candidate vectors and ranking them in
// Go rather than assuming a native pgvector operator is installed. Results
// are ordered by ascending distance (descending score) as spec.md requires.
func (s *Store) VectorSearch(query []float32, userID, excludeID int64, k int) ([]model.RelatedLink, error) {
	rows, err := s.db.Query(`
		SELECT id, summary_vector FROM links
		WHERE user_id = $1 AND id != $2 AND summary_vector IS NOT NULL
	`, userID, excludeID)
	if err != nil {
		return nil, classifyPGError(err)
	}
	defer rows.Close()

	type candidate struct {
		id       int64
		distance float64
	}
	var candidates []candidate

	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, classifyPGError(err)
		}
		vec := DeserializeVector(raw)
		if vec == nil {
			continue
		}
		candidates = append(candidates, candidate{id: id, distance: cosineDistance(query, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPGError(err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]model.RelatedLink, len(candidates))
	for i, c := range candidates {
		results[i] = model.RelatedLink{LinkID: c.id, Score: scoreFromDistance(c.distance)}
	}
	return results, nil
}
