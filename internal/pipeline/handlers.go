package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/taskqueue"
)

// handleProcessLink implements spec.md section 4.3.2's handler flow.
func (p *Pipeline) handleProcessLink(ctx *taskqueue.StepContext, raw json.RawMessage) ([]byte, error) {
	var params ProcessLinkParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("decode process-link params: %w", err)
	}

	linkID := params.LinkID
	if linkID == 0 {
		id, _, err := p.store.UpsertLink(params.UserID, params.URL)
		if err != nil {
			return nil, err
		}
		linkID = id
	}

	pending := model.LinkStatusPending
	clearedErr := ""
	if err := p.store.UpdateLinkFields(linkID, model.LinkPartial{Status: &pending, Error: &clearedErr}); err != nil {
		return nil, err
	}

	link, err := p.store.GetLink(linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("process-link: link %d not found after upsert", linkID)
	}
	rawURL := link.URL

	scrapeCP, err := taskqueue.Step(ctx, "scrape", func() (ScrapeCheckpoint, error) {
		return p.scrape(linkID, params.UserID, rawURL, params.ScrapeData)
	})
	if err != nil {
		return p.failLink(linkID, err)
	}
	if scrapeCP.Suspended {
		return json.Marshal(ProcessLinkResult{Status: model.LinkStatusWaitingProbe})
	}

	sumCP, err := taskqueue.Step(ctx, "summarize", func() (SummarizeCheckpoint, error) {
		return p.summarize(linkID, scrapeCP)
	})
	if err != nil {
		return p.failLink(linkID, err)
	}

	vec, err := taskqueue.Step(ctx, "embed", func() ([]float32, error) {
		return p.embed(linkID)
	})
	if err != nil {
		return p.failLink(linkID, err)
	}

	related, err := taskqueue.Step(ctx, "related", func() ([]model.RelatedLink, error) {
		return p.related(linkID, params.UserID, vec)
	})
	if err != nil {
		return p.failLink(linkID, err)
	}

	_, err = taskqueue.Step(ctx, "insight", func() (struct{}, error) {
		return struct{}{}, p.insight(linkID, rawURL, link.Title, sumCP.Summary, related)
	})
	if err != nil {
		return p.failLink(linkID, err)
	}

	_, err = taskqueue.Step(ctx, "export", func() (struct{}, error) {
		return struct{}{}, p.export(linkID)
	})
	if err != nil {
		return p.failLink(linkID, err)
	}

	return json.Marshal(ProcessLinkResult{Status: model.LinkStatusAnalyzed})
}

// failLink records the top-level catch spec.md section 4.3.2/section 7
// describes: status=error with a truncated message, then either a clean
// return (permanent errors) or the original error so the runtime retries.
func (p *Pipeline) failLink(linkID int64, cause error) ([]byte, error) {
	status := model.LinkStatusError
	msg := cause.Error()
	if err := p.store.UpdateLinkFields(linkID, model.LinkPartial{Status: &status, Error: &msg}); err != nil {
		return nil, err
	}
	if isPermanentError(cause) {
		return json.Marshal(ProcessLinkResult{Status: model.LinkStatusError})
	}
	return nil, cause
}

// handleRefreshRelated implements spec.md section 4.3.3: resumes from the
// middle of the pipeline for an already-analyzed link, never re-scraping or
// re-summarizing.
func (p *Pipeline) handleRefreshRelated(ctx *taskqueue.StepContext, raw json.RawMessage) ([]byte, error) {
	var params RefreshRelatedParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("decode refresh-related params: %w", err)
	}

	link, err := p.store.GetLink(params.LinkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("refresh-related: link %d not found", params.LinkID)
	}

	vec := link.Vector
	if vec == nil {
		vec, err = taskqueue.Step(ctx, "embed", func() ([]float32, error) {
			return p.embed(params.LinkID)
		})
		if err != nil {
			return p.failLink(params.LinkID, err)
		}
	}

	related, err := taskqueue.Step(ctx, "related", func() ([]model.RelatedLink, error) {
		return p.related(params.LinkID, params.UserID, vec)
	})
	if err != nil {
		return p.failLink(params.LinkID, err)
	}

	_, err = taskqueue.Step(ctx, "insight", func() (struct{}, error) {
		return struct{}{}, p.insight(params.LinkID, link.URL, link.Title, link.Summary, related)
	})
	if err != nil {
		return p.failLink(params.LinkID, err)
	}

	_, err = taskqueue.Step(ctx, "export", func() (struct{}, error) {
		return struct{}{}, p.export(params.LinkID)
	})
	if err != nil {
		return p.failLink(params.LinkID, err)
	}

	return json.Marshal(ProcessLinkResult{Status: model.LinkStatusAnalyzed})
}
