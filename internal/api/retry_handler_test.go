package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/reorx/linkmind/internal/model"
)

func TestRetryAll_ReturnsFailedLinkIDsImmediately(t *testing.T) {
	store := newFakeLinkStore()
	store.failed = []model.Link{
		{ID: 1, UserID: 1, URL: "https://a.com"},
		{ID: 2, UserID: 1, URL: "https://b.com"},
	}
	r, _ := newTestRouter(store, &fakePipelineSpawner{taskID: "t"}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/retry", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, strings.Contains(w.Body.String(), `"ids":[1,2]`))
}

func TestRetryOne_NotFoundForOtherUser(t *testing.T) {
	store := newFakeLinkStore()
	store.links[9] = model.Link{ID: 9, UserID: 2, URL: "https://a.com"}
	r, _ := newTestRouter(store, &fakePipelineSpawner{taskID: "t"}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/retry/9", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRetryOne_SpawnsRetryForOwnedLink(t *testing.T) {
	store := newFakeLinkStore()
	store.links[9] = model.Link{ID: 9, UserID: 1, URL: "https://a.com"}
	spawner := &fakePipelineSpawner{taskID: "t-9"}
	r, _ := newTestRouter(store, spawner, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/retry/9", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, len(spawner.retriedLinks))
	assert.Equal(t, int64(9), spawner.retriedLinks[0])
}
