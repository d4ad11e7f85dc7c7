package probeagent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/reorx/linkmind/internal/fetch"
	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/probebridge"
)

// reconnectSchedule is the fixed backoff ladder spec.md section 4.5 pins:
// 5s -> 10s -> 20s -> 40s -> 60s, capped, reset to 5s on a clean connect.
var reconnectSchedule = []time.Duration{
	5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, 60 * time.Second,
}

const heartbeatDeadline = 60 * time.Second

// Agent runs the event loop: one outstanding subscription at a time,
// dispatching scrape_request events to local fetchers without blocking the
// read loop on the resulting scrape.
type Agent struct {
	cfg        Config
	httpClient *http.Client
	twitter    *fetch.TwitterFetcher
	headless   fetch.ArticleExtractor
}

func NewAgent(cfg Config, twitterBinaryPath string) *Agent {
	return &Agent{
		cfg:        cfg,
		httpClient: &http.Client{},
		twitter:    fetch.NewTwitterFetcher(twitterBinaryPath),
		headless:   fetch.NewHeadlessBrowserExtractor(),
	}
}

// Run connects, reconnects on failure per the backoff schedule, and blocks
// until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		connected, err := a.runOnce(ctx)
		if err != nil {
			slog.Warn("probe agent connection ended", "error", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		if connected {
			attempt = 0
		}
		delay := reconnectSchedule[minInt(attempt, len(reconnectSchedule)-1)]
		attempt++

		slog.Info("probe agent reconnecting", "delay", delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// runOnce holds one subscription connection open until it drops. It
// reports connected=true if the connection was ever fully established
// (HTTP 200 and at least one byte read), the signal that resets backoff.
func (a *Agent) runOnce(ctx context.Context) (connected bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.APIBase+"/api/probe/subscribe_events", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("subscribe failed: status %d", resp.StatusCode)
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan frame, 16)
	readErrCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		readErrCh <- readFrames(scanner, frames)
		close(frames)
	}()

	deadline := time.NewTimer(heartbeatDeadline)
	defer deadline.Stop()

	for {
		select {
		case <-connCtx.Done():
			return connected, nil
		case <-deadline.C:
			return connected, fmt.Errorf("heartbeat deadline exceeded")
		case f, ok := <-frames:
			if !ok {
				return connected, <-readErrCh
			}
			connected = true
			if !deadline.Stop() {
				<-deadline.C
			}
			deadline.Reset(heartbeatDeadline)
			a.dispatch(ctx, f)
		}
	}
}

func (a *Agent) dispatch(ctx context.Context, f frame) {
	switch f.eventType {
	case "ping":
		return
	case "scrape_request":
		var ev scrapeRequestEvent
		if err := json.Unmarshal([]byte(f.data), &ev); err != nil {
			slog.Error("probe agent: malformed scrape_request", "error", err)
			return
		}
		go a.handleScrapeRequest(ctx, ev)
	default:
		slog.Warn("probe agent: unknown event type", "type", f.eventType)
	}
}

type scrapeRequestEvent struct {
	EventID   string    `json:"event_id"`
	URL       string    `json:"url"`
	URLType   string    `json:"url_type"`
	LinkID    int64     `json:"link_id"`
	CreatedAt time.Time `json:"created_at"`
}

// handleScrapeRequest runs entirely off the read loop's goroutine: it never
// blocks event dispatch (spec.md section 5).
func (a *Agent) handleScrapeRequest(ctx context.Context, ev scrapeRequestEvent) {
	result, err := a.scrape(ev)
	cb := probebridge.ResultCallback{EventID: ev.EventID}
	if err != nil {
		cb.Success = false
		cb.Error = err.Error()
	} else {
		cb.Success = true
		cb.Data = result
	}

	if postErr := a.postResult(ctx, cb); postErr != nil {
		slog.Error("probe agent: post result failed", "event_id", ev.EventID, "error", postErr)
	}
}

func (a *Agent) scrape(ev scrapeRequestEvent) (*model.ScrapeData, error) {
	var res *fetch.ScrapeResult
	var err error

	if ev.URLType == model.URLKindTwitter {
		res, err = a.twitter.Fetch(ev.URL)
	} else {
		res, err = a.headless.Extract(ev.URL)
	}
	if err != nil {
		return nil, err
	}

	return &model.ScrapeData{
		Title:         res.Title,
		Markdown:      res.Markdown,
		OGDescription: res.OGDescription,
		OGImage:       res.Image,
		OGSiteName:    res.SiteName,
		OGType:        res.Type,
		RawMedia:      res.RawMedia,
	}, nil
}

func (a *Agent) postResult(ctx context.Context, cb probebridge.ResultCallback) error {
	body, err := json.Marshal(cb)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.APIBase+"/api/probe/receive_result", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("receive_result returned status %d", resp.StatusCode)
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
