package pipeline

import (
	"context"
	"fmt"

	"github.com/reorx/linkmind/internal/model"
)

// HandleProbeResult is the probe result entry point spec.md section 4.3.5
// describes. The Probe Bridge calls this once a probe posts a successful
// result. The old suspended task is already terminated from the runtime's
// point of view -- this spawns a fresh process-link task carrying the
// probe's payload.
func (p *Pipeline) HandleProbeResult(ctx context.Context, eventID string, result *model.ScrapeData) error {
	ev, err := p.store.GetProbeEvent(eventID)
	if err != nil {
		return err
	}
	if ev == nil {
		return fmt.Errorf("probe result: unknown event %q", eventID)
	}

	link, err := p.store.GetLink(ev.LinkID)
	if err != nil {
		return err
	}
	if link == nil {
		return fmt.Errorf("probe result: link %d not found for event %q", ev.LinkID, eventID)
	}

	_, err = p.runtime.Spawn(ctx, KindProcessLink, ProcessLinkParams{
		UserID:     ev.UserID,
		URL:        link.URL,
		LinkID:     ev.LinkID,
		ScrapeData: result,
	}, processLinkRetry)
	return err
}
