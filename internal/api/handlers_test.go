package api

import (
	"context"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/probebridge"
)

// fakeLinkStore is an in-memory LinkStore stand-in for handler tests,
// mirroring the teacher's fakeArticleStore/fakeSummaryStore pattern.
type fakeLinkStore struct {
	links     map[int64]model.Link
	relations map[int64][]model.RelatedLink
	failed    []model.Link
	devices   []model.ProbeDevice
	pending   []model.ProbeEvent

	removedFromRelations int64
	deletedLinkID        int64
	err                  error
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{
		links:     map[int64]model.Link{},
		relations: map[int64][]model.RelatedLink{},
	}
}

func (f *fakeLinkStore) ListPaginated(userID int64, limit, offset int) ([]model.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Link
	for _, l := range f.links {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLinkStore) GetLink(linkID int64) (*model.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.links[linkID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f *fakeLinkStore) GetRelations(linkID int64) ([]model.RelatedLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.relations[linkID], nil
}

func (f *fakeLinkStore) RemoveLinkFromRelations(linkID int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.removedFromRelations = linkID
	return len(f.relations[linkID]), nil
}

func (f *fakeLinkStore) DeleteLink(linkID int64) error {
	if f.err != nil {
		return f.err
	}
	f.deletedLinkID = linkID
	delete(f.links, linkID)
	return nil
}

func (f *fakeLinkStore) ListFailed(userID int64, limit int) ([]model.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.failed, nil
}

func (f *fakeLinkStore) ListProbeDevices(userID int64) ([]model.ProbeDevice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices, nil
}

func (f *fakeLinkStore) ListPendingProbeEvents(userID int64) ([]model.ProbeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pending, nil
}

// fakePipelineSpawner is a PipelineSpawner stand-in recording spawn calls.
type fakePipelineSpawner struct {
	taskID       string
	err          error
	spawnedURLs  []string
	retriedLinks []int64
}

func (f *fakePipelineSpawner) SpawnProcessLink(ctx context.Context, userID int64, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.spawnedURLs = append(f.spawnedURLs, url)
	return f.taskID, nil
}

func (f *fakePipelineSpawner) SpawnProcessLinkForRetry(ctx context.Context, userID, linkID int64, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.retriedLinks = append(f.retriedLinks, linkID)
	return f.taskID, nil
}

func (f *fakePipelineSpawner) SpawnRefreshRelated(ctx context.Context, userID, linkID int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.taskID, nil
}

// fakeProbeBridge is a ProbeBridge stand-in for auth/probe handler tests.
type fakeProbeBridge struct {
	initiateResult *probebridge.InitiateDeviceAuthResult
	pollResult     *probebridge.PollTokenResult
	device         *model.ProbeDevice
	err            error

	authorizedUserCode string
	authorizedUserID   int64
	receivedCallback   probebridge.ResultCallback
}

func (f *fakeProbeBridge) InitiateDeviceAuth(verificationURI string) (*probebridge.InitiateDeviceAuthResult, error) {
	return f.initiateResult, f.err
}

func (f *fakeProbeBridge) PollDeviceToken(deviceCode string) (*probebridge.PollTokenResult, error) {
	return f.pollResult, f.err
}

func (f *fakeProbeBridge) AuthorizeDeviceAuth(userCode string, userID int64) error {
	f.authorizedUserCode = userCode
	f.authorizedUserID = userID
	return f.err
}

func (f *fakeProbeBridge) AuthenticateDevice(token string) (*model.ProbeDevice, error) {
	return f.device, f.err
}

func (f *fakeProbeBridge) Subscribe(ctx context.Context, userID int64, sink probebridge.Sink) error {
	return f.err
}

func (f *fakeProbeBridge) Unsubscribe(userID int64, sink probebridge.Sink) {}

func (f *fakeProbeBridge) ReceiveResult(device model.ProbeDevice, cb probebridge.ResultCallback) error {
	f.receivedCallback = cb
	return f.err
}

// newTestRouter wires a minimal gin engine with a fixed session, bypassing
// sessionMiddleware's cookie lookup so tests can drive requests directly.
func newTestRouter(st LinkStore, p PipelineSpawner, bridge ProbeBridge, userID int64) (*gin.Engine, *Handlers) {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(st, p, bridge, "https://app.example.com")
	r := gin.New()
	withSession := func(c *gin.Context) {
		c.Set(contextUserIDKey, userID)
		c.Next()
	}
	r.POST("/api/links", withSession, h.SubmitLink)
	r.GET("/api/links", withSession, h.ListLinks)
	r.GET("/api/links/:id", withSession, h.GetLink)
	r.DELETE("/api/links/:id", withSession, h.DeleteLink)
	r.POST("/api/retry", withSession, h.RetryAll)
	r.POST("/api/retry/:id", withSession, h.RetryOne)
	r.POST("/api/auth/device", h.InitiateDeviceAuth)
	r.POST("/api/auth/token", h.PollDeviceToken)
	r.POST("/api/auth/device/authorize", withSession, h.DeviceAuthorize)
	r.GET("/api/probe/status", withSession, h.ProbeStatus)
	return r, h
}

func newRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
