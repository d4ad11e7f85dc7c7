package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/probebridge"
)

// ginSink adapts a gin ResponseWriter into a probebridge.Sink, framing each
// write as the standard `event: <type>\ndata: <json>\n\n` SSE record.
type ginSink struct {
	c  *gin.Context
	mu sync.Mutex
}

func (s *ginSink) Write(eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintf(s.c.Writer, "event: %s\ndata: %s\n\n", eventType, payload)
	if err != nil {
		return err
	}
	s.c.Writer.Flush()
	return nil
}

// SubscribeEvents handles GET /api/probe/subscribe_events: a long-lived SSE
// stream of scrape_request and ping events for the caller's own probes
// (spec.md section 4.4 and 6).
func (h *Handlers) SubscribeEvents(c *gin.Context) {
	device := c.MustGet(contextDeviceKey).(*model.ProbeDevice)
	userID := device.UserID

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	sink := &ginSink{c: c}
	if err := h.bridge.Subscribe(c.Request.Context(), userID, sink); err != nil {
		slog.Error("probe subscribe failed", "user_id", userID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	defer h.bridge.Unsubscribe(userID, sink)

	<-c.Request.Context().Done()
}

// ReceiveResult handles POST /api/probe/receive_result. The caller is a
// bearer-authenticated probe device, not a session user.
func (h *Handlers) ReceiveResult(c *gin.Context) {
	device := c.MustGet(contextDeviceKey).(*model.ProbeDevice)

	var cb probebridge.ResultCallback
	if err := c.ShouldBindJSON(&cb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result payload"})
		return
	}

	if err := h.bridge.ReceiveResult(*device, cb); err != nil {
		slog.Error("receive probe result failed", "device_id", device.ID, "event_id", cb.EventID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ProbeStatus handles GET /api/probe/status.
func (h *Handlers) ProbeStatus(c *gin.Context) {
	userID := userIDFromContext(c)

	devices, err := h.store.ListProbeDevices(userID)
	if err != nil {
		slog.Error("list probe devices failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list devices"})
		return
	}

	pending, err := h.store.ListPendingProbeEvents(userID)
	if err != nil {
		slog.Error("list pending probe events failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count pending events"})
		return
	}

	views := make([]probeDeviceView, len(devices))
	for i, d := range devices {
		views[i] = probeDeviceView{ID: d.ID, DisplayName: d.DisplayName, LastSeenAt: d.LastSeenAt, CreatedAt: d.CreatedAt}
	}

	c.JSON(http.StatusOK, probeStatusResponse{Devices: views, PendingEventsCount: len(pending)})
}
