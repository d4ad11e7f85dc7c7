package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/reorx/linkmind/internal/fetch"
	"github.com/reorx/linkmind/internal/llm"
	"github.com/reorx/linkmind/internal/model"
	"github.com/reorx/linkmind/internal/relatedlinks"
)

// ScrapeCheckpoint is the compact record the scrape step returns, per
// spec.md section 4.3.1 step 1. Suspended marks the probe-required
// sub-path: the handler must stop after seeing it.
type ScrapeCheckpoint struct {
	Suspended      bool     `json:"suspended,omitempty"`
	Title          string   `json:"title,omitempty"`
	OGDescription  string   `json:"og_description,omitempty"`
	SiteName       string   `json:"site_name,omitempty"`
	MarkdownLength int      `json:"markdown_length,omitempty"`
	OCRTexts       []string `json:"ocr_texts,omitempty"`
}

func (p *Pipeline) scrape(linkID, userID int64, rawURL string, supplied *model.ScrapeData) (ScrapeCheckpoint, error) {
	if supplied != nil {
		return p.scrapeProbeSupplied(linkID, supplied)
	}
	if fetch.IsTwitterURL(rawURL) {
		return p.scrapeProbeRequired(linkID, userID, rawURL)
	}
	return p.scrapeCloud(linkID, rawURL)
}

func (p *Pipeline) scrapeProbeSupplied(linkID int64, data *model.ScrapeData) (ScrapeCheckpoint, error) {
	ocrTexts := fetch.RecognizeAll(p.ocr, data.RawMedia, func(url string, err error) {
		slog.Warn("pipeline: ocr failed", "link_id", linkID, "image_url", url, "error", err)
	})

	title := data.Title
	if title == "" {
		title = data.OGTitle
	}

	scraped := model.LinkStatusScraped
	if err := p.store.UpdateLinkFields(linkID, model.LinkPartial{
		Title:       &title,
		Description: &data.OGDescription,
		Image:       &data.OGImage,
		SiteName:    &data.OGSiteName,
		Type:        &data.OGType,
		Markdown:    &data.Markdown,
		Status:      &scraped,
	}); err != nil {
		return ScrapeCheckpoint{}, err
	}

	return ScrapeCheckpoint{
		Title:          title,
		OGDescription:  data.OGDescription,
		SiteName:       data.OGSiteName,
		MarkdownLength: len(data.Markdown),
		OCRTexts:       ocrTexts,
	}, nil
}

// probeScrapeRequestPayload is what's marshaled as the scrape_request
// event's data field (spec.md section 6).
type probeScrapeRequestPayload struct {
	EventID   string    `json:"event_id"`
	URL       string    `json:"url"`
	URLType   string    `json:"url_type"`
	LinkID    int64     `json:"link_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Pipeline) scrapeProbeRequired(linkID, userID int64, rawURL string) (ScrapeCheckpoint, error) {
	ev, err := p.store.CreateProbeEvent(userID, linkID, rawURL, model.URLKindTwitter)
	if err != nil {
		return ScrapeCheckpoint{}, err
	}

	waiting := model.LinkStatusWaitingProbe
	if err := p.store.UpdateLinkFields(linkID, model.LinkPartial{Status: &waiting}); err != nil {
		return ScrapeCheckpoint{}, err
	}

	if p.probes != nil {
		if err := p.probes.PushScrapeRequest(userID, *ev); err != nil {
			slog.Warn("pipeline: push scrape_request failed", "event_id", ev.ID, "error", err)
		}
	}

	return ScrapeCheckpoint{Suspended: true}, nil
}

func (p *Pipeline) scrapeCloud(linkID int64, rawURL string) (ScrapeCheckpoint, error) {
	result, err := p.extractor.Extract(rawURL)
	if err != nil {
		return ScrapeCheckpoint{}, fmt.Errorf("extract %s: %w", rawURL, err)
	}

	scraped := model.LinkStatusScraped
	if err := p.store.UpdateLinkFields(linkID, model.LinkPartial{
		Title:       &result.Title,
		Description: &result.OGDescription,
		Image:       &result.Image,
		SiteName:    &result.SiteName,
		Type:        &result.Type,
		Markdown:    &result.Markdown,
		Status:      &scraped,
	}); err != nil {
		return ScrapeCheckpoint{}, err
	}

	return ScrapeCheckpoint{
		Title:          result.Title,
		OGDescription:  result.OGDescription,
		SiteName:       result.SiteName,
		MarkdownLength: result.MarkdownLength,
	}, nil
}

// SummarizeCheckpoint is the summarize step's return, per spec.md section
// 4.3.1 step 2.
type SummarizeCheckpoint struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

const ocrMarkerHeading = "\n\n## Recognized image text\n\n"

func (p *Pipeline) summarize(linkID int64, scrapeCP ScrapeCheckpoint) (SummarizeCheckpoint, error) {
	link, err := p.store.GetLink(linkID)
	if err != nil {
		return SummarizeCheckpoint{}, err
	}
	if link == nil {
		return SummarizeCheckpoint{}, fmt.Errorf("summarize: link %d not found", linkID)
	}

	ocrText := ""
	if len(scrapeCP.OCRTexts) > 0 {
		for i, t := range scrapeCP.OCRTexts {
			if i > 0 {
				ocrText += "\n\n"
			}
			ocrText += t
		}
	}

	result, err := p.summarizer.Summarize(link.Markdown, ocrText)
	if err != nil {
		return SummarizeCheckpoint{}, fmt.Errorf("summarize link %d: %w", linkID, err)
	}

	summary := result.Summary
	tags := result.Tags
	if err := p.store.UpdateLinkFields(linkID, model.LinkPartial{
		Summary: &summary,
		Tags:    &tags,
	}); err != nil {
		return SummarizeCheckpoint{}, err
	}

	return SummarizeCheckpoint{Summary: summary, Tags: tags}, nil
}

func (p *Pipeline) embed(linkID int64) ([]float32, error) {
	link, err := p.store.GetLink(linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("embed: link %d not found", linkID)
	}

	vec, err := p.embedder.Embed(link.Summary)
	if err != nil {
		return nil, fmt.Errorf("embed link %d: %w", linkID, err)
	}

	if err := p.store.UpdateLinkFields(linkID, model.LinkPartial{Vector: &vec}); err != nil {
		return nil, err
	}
	return vec, nil
}

func (p *Pipeline) related(linkID, userID int64, vector []float32) ([]model.RelatedLink, error) {
	candidates, err := p.store.VectorSearch(vector, userID, linkID, 10)
	if err != nil {
		return nil, fmt.Errorf("vector search for link %d: %w", linkID, err)
	}

	retained := relatedlinks.Filter(candidates)

	if err := p.store.SaveRelations(linkID, retained); err != nil {
		return nil, err
	}
	return retained, nil
}

const maxInsightRelated = relatedlinks.MaxRelations

func (p *Pipeline) insight(linkID int64, url, title, summary string, related []model.RelatedLink) error {
	contexts := make([]llm.RelatedContext, 0, len(related))
	for i, r := range related {
		if i >= maxInsightRelated {
			break
		}
		other, err := p.store.GetLink(r.LinkID)
		if err != nil || other == nil {
			continue
		}
		contexts = append(contexts, llm.RelatedContext{Title: other.Title, URL: other.URL, Summary: other.Summary})
	}

	text, err := p.insightGen.GenerateInsight(title, summary, contexts)
	if err != nil {
		return fmt.Errorf("generate insight for link %d: %w", linkID, err)
	}

	analyzed := model.LinkStatusAnalyzed
	return p.store.UpdateLinkFields(linkID, model.LinkPartial{
		Insight: &text,
		Status:  &analyzed,
	})
}

// export is currently a no-op hook, kept as an explicit step so it
// participates in memoization and can be extended without touching the
// handler's orchestration (spec.md section 4.3.1 step 6).
func (p *Pipeline) export(linkID int64) error {
	return nil
}
