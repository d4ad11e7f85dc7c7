// Package probebridge is the server side of the coordinator-to-probe
// channel: an in-memory subscription multimap pushing server-sent events to
// long-lived HTTP response streams (spec.md section 4.4).
package probebridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/store"
)

const heartbeatInterval = 30 * time.Second

// Sink is a single subscription connection: a serialized writer for one
// probe's event stream. Implementations (the gin handler) translate Write
// calls into `event: <type>\ndata: <json>\n\n` frames and flush.
type Sink interface {
	Write(eventType string, data interface{}) error
}

// ProcessLinkSpawner is the seam back into the pipeline: on a successful
// probe result, the bridge asks it to resume the link's pipeline. Declared
// locally (rather than importing internal/pipeline) to avoid an import
// cycle -- cmd/coordinator wires the concrete *pipeline.Pipeline in.
type ProcessLinkSpawner interface {
	HandleProbeResult(ctx context.Context, eventID string, result *model.ScrapeData) error
}

type subscription struct {
	sink   Sink
	cancel context.CancelFunc
}

// Bridge holds every user's active subscriptions in memory, guarded by a
// mutex the way spec.md section 5 describes as the bridge's only shared
// mutable state.
type Bridge struct {
	store   *store.Store
	spawner ProcessLinkSpawner

	mu   sync.Mutex
	subs map[int64][]*subscription
}

func New(st *store.Store, spawner ProcessLinkSpawner) *Bridge {
	return &Bridge{
		store:   st,
		spawner: spawner,
		subs:    map[int64][]*subscription{},
	}
}

// Subscribe registers sink for userId, replays every pending ProbeEvent to
// it in creation order (marking each sent), and starts a 30s heartbeat that
// runs until ctx is cancelled or Unsubscribe is called.
func (b *Bridge) Subscribe(ctx context.Context, userID int64, sink Sink) error {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{sink: sink, cancel: cancel}

	b.mu.Lock()
	b.subs[userID] = append(b.subs[userID], sub)
	b.mu.Unlock()

	pending, err := b.store.ListPendingProbeEvents(userID)
	if err != nil {
		slog.Error("probebridge: list pending failed", "user_id", userID, "error", err)
	}
	for _, ev := range pending {
		if err := sink.Write("scrape_request", scrapeRequestPayload(ev)); err != nil {
			slog.Warn("probebridge: replay write failed", "event_id", ev.ID, "error", err)
			continue
		}
		if err := b.store.SetProbeEventStatus(ev.ID, model.ProbeEventStatusSent, nil, ""); err != nil {
			slog.Error("probebridge: mark sent failed", "event_id", ev.ID, "error", err)
		}
	}

	go b.heartbeat(subCtx, sink)
	return nil
}

func (b *Bridge) heartbeat(ctx context.Context, sink Sink) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sink.Write("ping", map[string]interface{}{}); err != nil {
				return
			}
		}
	}
}

// Unsubscribe removes sink from its user's active set and stops its
// heartbeat.
func (b *Bridge) Unsubscribe(userID int64, sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[userID]
	for i, s := range subs {
		if s.sink == sink {
			s.cancel()
			b.subs[userID] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// activeSinks snapshots the current subscription set for userId under lock,
// per spec.md section 5's "reads during Push snapshot the set".
func (b *Bridge) activeSinks(userID int64) []Sink {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[userID]
	sinks := make([]Sink, len(subs))
	for i, s := range subs {
		sinks[i] = s.sink
	}
	return sinks
}

// ActiveSubscriptionCount implements the multi-probe broadcast metric
// supplement: how many sinks are currently subscribed for a user. No HTTP
// route reports it; GET /api/probe/status does not include it.
func (b *Bridge) ActiveSubscriptionCount(userID int64) int {
	return len(b.activeSinks(userID))
}

// Push writes an event to every active sink for userId. No acknowledgement,
// no retries: retransmission is handled by the pending-event replay on
// reconnect (spec.md section 4.4).
func (b *Bridge) Push(userID int64, eventType string, payload interface{}) int {
	sinks := b.activeSinks(userID)
	delivered := 0
	for _, sink := range sinks {
		if err := sink.Write(eventType, payload); err != nil {
			slog.Warn("probebridge: push failed", "user_id", userID, "event_type", eventType, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// PushScrapeRequest implements pipeline.ProbePusher: pushes a scrape_request
// event and, if any sink actually received it, marks the ProbeEvent sent so
// Subscribe's replay-on-reconnect doesn't resend something already
// delivered live.
func (b *Bridge) PushScrapeRequest(userID int64, ev model.ProbeEvent) error {
	delivered := b.Push(userID, "scrape_request", scrapeRequestPayload(ev))
	if delivered == 0 {
		return nil
	}
	return b.store.SetProbeEventStatus(ev.ID, model.ProbeEventStatusSent, nil, "")
}

type scrapeRequestData struct {
	EventID   string    `json:"event_id"`
	URL       string    `json:"url"`
	URLType   string    `json:"url_type"`
	LinkID    int64     `json:"link_id"`
	CreatedAt time.Time `json:"created_at"`
}

func scrapeRequestPayload(ev model.ProbeEvent) scrapeRequestData {
	return scrapeRequestData{
		EventID:   ev.ID,
		URL:       ev.URL,
		URLType:   ev.URLKind,
		LinkID:    ev.LinkID,
		CreatedAt: ev.CreatedAt,
	}
}

// ResultCallback is the body of POST /api/probe/receive_result (spec.md
// section 6).
type ResultCallback struct {
	EventID string             `json:"event_id"`
	Success bool               `json:"success"`
	Data    *model.ScrapeData `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// ReceiveResult implements spec.md section 4.4's ReceiveResult: verifies the
// event belongs to the device's user, records the outcome, and on success
// asynchronously resumes the pipeline via HandleProbeResult.
func (b *Bridge) ReceiveResult(device model.ProbeDevice, cb ResultCallback) error {
	ev, err := b.store.GetProbeEvent(cb.EventID)
	if err != nil {
		return err
	}
	if ev == nil || ev.UserID != device.UserID {
		return fmt.Errorf("probebridge: event %q not found for user", cb.EventID)
	}

	if !cb.Success {
		return b.store.SetProbeEventStatus(ev.ID, model.ProbeEventStatusError, nil, cb.Error)
	}

	if err := b.store.SetProbeEventStatus(ev.ID, model.ProbeEventStatusCompleted, cb.Data, ""); err != nil {
		return err
	}

	go func() {
		if err := b.spawner.HandleProbeResult(context.Background(), ev.ID, cb.Data); err != nil {
			slog.Error("probebridge: handle probe result failed", "event_id", ev.ID, "error", err)
		}
	}()
	return nil
}

// RunExpiryLoop implements the ProbeEvent-expiry supplement (SPEC_FULL.md
// section 12): periodically marks pending/sent events older than ttl as
// error, closing the "stuck in waiting_probe forever" open question.
func (b *Bridge) RunExpiryLoop(ctx context.Context, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.store.ExpireStaleProbeEvents(time.Now(), ttl)
			if err != nil {
				slog.Error("probebridge: expire loop failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("probebridge: expired stale probe events", "count", n)
			}
		}
	}
}
