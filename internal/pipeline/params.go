// Package pipeline orchestrates the enrichment workflow against the Store
// Gateway and the external collaborators (llm, fetch), registered as
// process-link and refresh-related task kinds on the Durable Task Runtime.
package pipeline

import "github.com/reorx/linkmind/internal/model"

const (
	KindProcessLink   = "process-link"
	KindRefreshRelated = "refresh-related"

	QueueDefault = "pipeline"
)

// ProcessLinkParams is what a process-link task is spawned with. LinkID is
// set when the caller already knows it (a resubmission, or a probe result);
// URL is always required so a fresh submission can create the Link row.
type ProcessLinkParams struct {
	UserID     int64             `json:"user_id"`
	URL        string            `json:"url"`
	LinkID     int64             `json:"link_id,omitempty"`
	ScrapeData *model.ScrapeData `json:"scrape_data,omitempty"`
}

// RefreshRelatedParams is what a refresh-related task is spawned with.
type RefreshRelatedParams struct {
	LinkID int64 `json:"link_id"`
	UserID int64 `json:"user_id"`
}

// ProcessLinkResult is the handler's persisted final result.
type ProcessLinkResult struct {
	Status string `json:"status"`
}
