package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/reorx/linkmind/internal/model"
)

func TestProbeStatus_ReportsDevicesAndPendingCount(t *testing.T) {
	store := newFakeLinkStore()
	store.devices = []model.ProbeDevice{{ID: "d1", DisplayName: "laptop"}}
	store.pending = []model.ProbeEvent{{ID: "e1"}, {ID: "e2"}}
	r, _ := newTestRouter(store, &fakePipelineSpawner{}, &fakeProbeBridge{}, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/probe/status", nil)
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, strings.Contains(w.Body.String(), "\"pending_events_count\":2"))
	assert.Equal(t, true, strings.Contains(w.Body.String(), "laptop"))
}

func newProbeReceiveRouter(bridge ProbeBridge, device *model.ProbeDevice) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandlers(newFakeLinkStore(), &fakePipelineSpawner{}, bridge, "https://app.example.com")
	r := gin.New()
	r.POST("/api/probe/receive_result", func(c *gin.Context) {
		c.Set(contextDeviceKey, device)
		c.Next()
	}, h.ReceiveResult)
	return r
}

func TestReceiveResult_SuccessDelegatesToBridge(t *testing.T) {
	bridge := &fakeProbeBridge{}
	device := &model.ProbeDevice{ID: "dev-1", UserID: 1}
	r := newProbeReceiveRouter(bridge, device)

	body := `{"event_id":"e1","success":true,"data":{"markdown":"# hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/probe/receive_result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e1", bridge.receivedCallback.EventID)
	assert.Equal(t, true, bridge.receivedCallback.Success)
}

func TestReceiveResult_InvalidPayloadRejected(t *testing.T) {
	bridge := &fakeProbeBridge{}
	device := &model.ProbeDevice{ID: "dev-1", UserID: 1}
	r := newProbeReceiveRouter(bridge, device)

	req := httptest.NewRequest(http.MethodPost, "/api/probe/receive_result", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiveResult_BridgeErrorReturnsBadRequest(t *testing.T) {
	bridge := &fakeProbeBridge{err: errAuthFailed}
	device := &model.ProbeDevice{ID: "dev-1", UserID: 1}
	r := newProbeReceiveRouter(bridge, device)

	body := `{"event_id":"e1","success":false,"error":"navigation timeout"}`
	req := httptest.NewRequest(http.MethodPost, "/api/probe/receive_result", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := newRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
