package store

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/reorx/linkmind/internal/model"
)

func newTestTextStore(t *testing.T) *Store {
	t.Helper()
	idx, err := openTextIndex("")
	if err != nil {
		t.Fatalf("open text index: %v", err)
	}
	return &Store{text: idx}
}

func TestBM25Search_MatchesByTitleScopedToUser(t *testing.T) {
	s := newTestTextStore(t)

	assert.Equal(t, nil, s.indexLinkText(model.Link{ID: 1, UserID: 1, Title: "Rust borrow checker deep dive"}))
	assert.Equal(t, nil, s.indexLinkText(model.Link{ID: 2, UserID: 2, Title: "Rust borrow checker deep dive"}))

	ids, err := s.BM25Search("borrow checker", 1, 10)

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(ids))
	assert.Equal(t, int64(1), ids[0])
}

func TestBM25Search_MatchesAcrossTitleSummaryAndMarkdown(t *testing.T) {
	s := newTestTextStore(t)
	assert.Equal(t, nil, s.indexLinkText(model.Link{ID: 3, UserID: 1, Markdown: "a treatise on distributed consensus"}))

	ids, err := s.BM25Search("consensus", 1, 10)

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(ids))
	assert.Equal(t, int64(3), ids[0])
}

func TestBM25Search_NoMatchesReturnsEmpty(t *testing.T) {
	s := newTestTextStore(t)
	assert.Equal(t, nil, s.indexLinkText(model.Link{ID: 1, UserID: 1, Title: "unrelated content"}))

	ids, err := s.BM25Search("quantum computing", 1, 10)

	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(ids))
}

func TestDeleteLinkText_RemovesFromIndex(t *testing.T) {
	s := newTestTextStore(t)
	assert.Equal(t, nil, s.indexLinkText(model.Link{ID: 4, UserID: 1, Title: "ephemeral article"}))
	assert.Equal(t, nil, s.deleteLinkText(4))

	ids, err := s.BM25Search("ephemeral", 1, 10)

	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(ids))
}
