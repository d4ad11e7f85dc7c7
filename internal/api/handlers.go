package api

import (
	"context"

	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/probebridge"
)

// LinkStore is the subset of *store.Store the admission API's handlers
// depend on, narrowed the way the teacher's ArticleStore/SummaryStore
// interfaces expose only what one handler needs from *sql.DB-backed
// repositories.
type LinkStore interface {
	ListPaginated(userID int64, limit, offset int) ([]model.Link, error)
	GetLink(linkID int64) (*model.Link, error)
	GetRelations(linkID int64) ([]model.RelatedLink, error)
	RemoveLinkFromRelations(linkID int64) (int, error)
	DeleteLink(linkID int64) error
	ListFailed(userID int64, limit int) ([]model.Link, error)
	ListProbeDevices(userID int64) ([]model.ProbeDevice, error)
	ListPendingProbeEvents(userID int64) ([]model.ProbeEvent, error)
}

// PipelineSpawner is the subset of *pipeline.Pipeline the API needs to
// admit work.
type PipelineSpawner interface {
	SpawnProcessLink(ctx context.Context, userID int64, url string) (string, error)
	SpawnProcessLinkForRetry(ctx context.Context, userID, linkID int64, url string) (string, error)
	SpawnRefreshRelated(ctx context.Context, userID, linkID int64) (string, error)
}

// ProbeBridge is the subset of *probebridge.Bridge the API needs.
type ProbeBridge interface {
	InitiateDeviceAuth(verificationURI string) (*probebridge.InitiateDeviceAuthResult, error)
	PollDeviceToken(deviceCode string) (*probebridge.PollTokenResult, error)
	AuthorizeDeviceAuth(userCode string, userID int64) error
	AuthenticateDevice(token string) (*model.ProbeDevice, error)
	Subscribe(ctx context.Context, userID int64, sink probebridge.Sink) error
	Unsubscribe(userID int64, sink probebridge.Sink)
	ReceiveResult(device model.ProbeDevice, cb probebridge.ResultCallback) error
}

// Handlers bundles every collaborator the admission API's route handlers
// need, the way the teacher's handler package holds one struct per
// resource with its ArticleStore/SummaryStore dependency injected.
type Handlers struct {
	store      LinkStore
	pipeline   PipelineSpawner
	bridge     ProbeBridge
	webBaseURL string
}

func NewHandlers(st LinkStore, p PipelineSpawner, bridge ProbeBridge, webBaseURL string) *Handlers {
	return &Handlers{store: st, pipeline: p, bridge: bridge, webBaseURL: webBaseURL}
}
