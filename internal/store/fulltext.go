package store

import (
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/reorx/linkmind/internal/model"
)

// textDoc is what gets indexed for BM25Search: title, summary, and markdown
// concatenated the way a Postgres tsvector over those three columns would
// be, per spec.md section 4.1.
type textDoc struct {
	UserID   int64  `json:"user_id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Markdown string `json:"markdown"`
}

func openTextIndex(path string) (bleve.Index, error) {
	m := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("user_id", numericFieldMapping())
	m.AddDocumentMapping("textDoc", docMapping)

	if path == "" {
		return bleve.NewMemOnly(m)
	}
	idx, err := bleve.Open(path)
	if err == nil {
		return idx, nil
	}
	return bleve.New(path, m)
}

func numericFieldMapping() *mapping.FieldMapping {
	fm := bleve.NewNumericFieldMapping()
	fm.Store = true
	fm.Index = true
	return fm
}

// indexLinkText upserts a link into the BM25 index. Called after any write
// that touches title/summary/markdown.
func (s *Store) indexLinkText(l model.Link) error {
	return s.text.Index(strconv.FormatInt(l.ID, 10), textDoc{
		UserID:   l.UserID,
		Title:    l.Title,
		Summary:  l.Summary,
		Markdown: l.Markdown,
	})
}

func (s *Store) deleteLinkText(linkID int64) error {
	return s.text.Delete(strconv.FormatInt(linkID, 10))
}

// BM25Search delegates to the store's BM25 operator over
// {title, summary, markdown}, returning an ordered list of link ids
// (spec.md section 4.1). Results are scoped to the caller's user.
func (s *Store) BM25Search(userQuery string, userID int64, k int) ([]int64, error) {
	textQuery := bleve.NewMatchQuery(userQuery)
	textQuery.SetField("title")
	summaryQuery := bleve.NewMatchQuery(userQuery)
	summaryQuery.SetField("summary")
	markdownQuery := bleve.NewMatchQuery(userQuery)
	markdownQuery.SetField("markdown")

	disjunction := bleve.NewDisjunctionQuery(textQuery, summaryQuery, markdownQuery)

	inclusive := true
	userFilter := bleve.NewNumericRangeInclusiveQuery(floatPtr(float64(userID)), floatPtr(float64(userID)), &inclusive, &inclusive)
	userFilter.SetField("user_id")

	combined := bleve.NewConjunctionQuery(disjunction, userFilter)

	req := bleve.NewSearchRequest(combined)
	req.Size = k

	res, err := s.text.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func floatPtr(f float64) *float64 { return &f }
