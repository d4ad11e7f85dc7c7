package pipeline

import (
	"context"

	"github.com/reorx/linkmind/internal/model"
)

// processLinkRetry and refreshRelatedRetry are the retry configurations
// spec.md section 4.3.4 pins per task kind.
var (
	processLinkRetry = model.SpawnOptions{
		MaxAttempts:   3,
		RetryStrategy: model.RetryStrategy{Kind: model.RetryKindExponential, BaseSeconds: 10, Factor: 2, MaxSeconds: 300},
	}
	refreshRelatedRetry = model.SpawnOptions{
		MaxAttempts:   2,
		RetryStrategy: model.RetryStrategy{Kind: model.RetryKindFixed, BaseSeconds: 30},
	}
)

// SpawnProcessLink is what the admission API calls for a fresh or
// resubmitted URL (spec.md section 6, POST /api/links).
func (p *Pipeline) SpawnProcessLink(ctx context.Context, userID int64, url string) (string, error) {
	return p.runtime.Spawn(ctx, KindProcessLink, ProcessLinkParams{
		UserID: userID,
		URL:    url,
	}, processLinkRetry)
}

// SpawnProcessLinkForRetry re-spawns process-link against an existing link
// id, for the per-link retry admission endpoint (spec.md section 6, POST
// /api/retry/:id).
func (p *Pipeline) SpawnProcessLinkForRetry(ctx context.Context, userID, linkID int64, url string) (string, error) {
	return p.runtime.Spawn(ctx, KindProcessLink, ProcessLinkParams{
		UserID: userID,
		URL:    url,
		LinkID: linkID,
	}, processLinkRetry)
}

// SpawnRefreshRelated backs a manual related-links recompute.
func (p *Pipeline) SpawnRefreshRelated(ctx context.Context, userID, linkID int64) (string, error) {
	return p.runtime.Spawn(ctx, KindRefreshRelated, RefreshRelatedParams{
		LinkID: linkID,
		UserID: userID,
	}, refreshRelatedRetry)
}
