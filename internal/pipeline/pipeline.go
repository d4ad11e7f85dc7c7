package pipeline

import (
	"github.com/reorx/linkmind/internal/fetch"
	"github.com/reorx/linkmind/internal/llm"
	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/store"
	"github.com/reorx/linkmind/internal/taskqueue"
)

// ProbePusher is the seam pipeline needs into the Probe Bridge: pushing a
// scrape_request event to the user's subscribed probes. It does not report
// whether any subscriber received it; the bridge handles that itself.
// Kept as a locally-declared interface (rather than importing
// internal/probebridge) so the two packages can depend on each other's
// behavior without an import cycle -- cmd/coordinator wires the concrete
// types together.
type ProbePusher interface {
	PushScrapeRequest(userID int64, ev model.ProbeEvent) error
}

// Pipeline is the enrichment workflow's step implementations plus the
// external collaborators they call, registered onto a taskqueue.Runtime as
// the process-link and refresh-related task kinds (spec.md section 4.3).
type Pipeline struct {
	store      *store.Store
	runtime    *taskqueue.Runtime
	summarizer llm.Summarizer
	insightGen llm.InsightGenerator
	embedder   llm.Embedder
	extractor  fetch.ArticleExtractor
	ocr        fetch.ImageOCR
	probes     ProbePusher
}

func New(
	st *store.Store,
	runtime *taskqueue.Runtime,
	summarizer llm.Summarizer,
	insightGen llm.InsightGenerator,
	embedder llm.Embedder,
	extractor fetch.ArticleExtractor,
	ocr fetch.ImageOCR,
) *Pipeline {
	p := &Pipeline{
		store:      st,
		runtime:    runtime,
		summarizer: summarizer,
		insightGen: insightGen,
		embedder:   embedder,
		extractor:  extractor,
		ocr:        ocr,
	}
	runtime.Register(QueueDefault, KindProcessLink, p.handleProcessLink)
	runtime.Register(QueueDefault, KindRefreshRelated, p.handleRefreshRelated)
	return p
}

// SetProbePusher completes construction once the Probe Bridge exists.
// Pipeline and the bridge each need a handle to the other; this two-phase
// wiring breaks the cycle (see cmd/coordinator/main.go).
func (p *Pipeline) SetProbePusher(pusher ProbePusher) {
	p.probes = pusher
}
