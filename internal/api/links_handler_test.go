package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/reorx/linkmind/internal/model"
)

func TestSubmitLink_Success(t *testing.T) {
	store := newFakeLinkStore()
	spawner := &fakePipelineSpawner{taskID: "task-123"}
	r, _ := newTestRouter(store, spawner, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(`{"url":"https://example.com/a"}`))
	req.Header.Set("Content-Type", "application/json")
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, len(spawner.spawnedURLs))
	assert.Equal(t, "https://example.com/a", spawner.spawnedURLs[0])
}

func TestSubmitLink_MissingURLRejected(t *testing.T) {
	store := newFakeLinkStore()
	spawner := &fakePipelineSpawner{taskID: "task-123"}
	r, _ := newTestRouter(store, spawner, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/links", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListLinks_ScopedToUser(t *testing.T) {
	store := newFakeLinkStore()
	store.links[1] = model.Link{ID: 1, UserID: 1, URL: "https://a.com"}
	store.links[2] = model.Link{ID: 2, UserID: 2, URL: "https://b.com"}
	r, _ := newTestRouter(store, &fakePipelineSpawner{}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, strings.Contains(w.Body.String(), "a.com"))
	assert.Equal(t, false, strings.Contains(w.Body.String(), "b.com"))
}

func TestGetLink_NotFoundForOtherUser(t *testing.T) {
	store := newFakeLinkStore()
	store.links[5] = model.Link{ID: 5, UserID: 2, URL: "https://other.com"}
	r, _ := newTestRouter(store, &fakePipelineSpawner{}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/links/5", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLink_IncludesRelatedLinks(t *testing.T) {
	store := newFakeLinkStore()
	store.links[1] = model.Link{ID: 1, UserID: 1, URL: "https://a.com", Title: "A"}
	store.links[2] = model.Link{ID: 2, UserID: 1, URL: "https://b.com", Title: "B"}
	store.relations[1] = []model.RelatedLink{{LinkID: 2, Score: 0.8}}
	r, _ := newTestRouter(store, &fakePipelineSpawner{}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/links/1", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, strings.Contains(w.Body.String(), "b.com"))
}

func TestDeleteLink_ScrubsRelationsThenDeletes(t *testing.T) {
	store := newFakeLinkStore()
	store.links[1] = model.Link{ID: 1, UserID: 1, URL: "https://a.com"}
	store.relations[1] = []model.RelatedLink{{LinkID: 2, Score: 0.9}}
	r, _ := newTestRouter(store, &fakePipelineSpawner{}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodDelete, "/api/links/1", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), store.removedFromRelations)
	assert.Equal(t, int64(1), store.deletedLinkID)
	_, stillExists := store.links[1]
	assert.Equal(t, false, stillExists)
}

func TestParseLinkID_RejectsNonNumeric(t *testing.T) {
	store := newFakeLinkStore()
	r, _ := newTestRouter(store, &fakePipelineSpawner{}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/links/not-a-number", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
