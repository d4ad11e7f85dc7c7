package store

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/reorx/linkmind/internal/model"
)

func TestSortRelatedDesc_OrdersByScoreDescending(t *testing.T) {
	rs := []model.RelatedLink{
		{LinkID: 1, Score: 0.5},
		{LinkID: 2, Score: 0.9},
		{LinkID: 3, Score: 0.7},
	}

	sortRelatedDesc(rs)

	assert.Equal(t, int64(2), rs[0].LinkID)
	assert.Equal(t, int64(3), rs[1].LinkID)
	assert.Equal(t, int64(1), rs[2].LinkID)
}

func TestSortRelatedDesc_TieBreaksByLowerLinkID(t *testing.T) {
	rs := []model.RelatedLink{
		{LinkID: 9, Score: 0.5},
		{LinkID: 4, Score: 0.5},
	}

	sortRelatedDesc(rs)

	assert.Equal(t, int64(4), rs[0].LinkID)
	assert.Equal(t, int64(9), rs[1].LinkID)
}

func TestLess_HigherScoreSortsFirst(t *testing.T) {
	assert.Equal(t, true, less(model.RelatedLink{LinkID: 1, Score: 0.9}, model.RelatedLink{LinkID: 2, Score: 0.1}))
	assert.Equal(t, false, less(model.RelatedLink{LinkID: 1, Score: 0.1}, model.RelatedLink{LinkID: 2, Score: 0.9}))
}
