// Package llm wraps the OpenAI and Anthropic SDKs the way the teacher's
// pkg/llm does: one small client type per provider, a system prompt
// constant, and a cleanJSONResponse helper to strip code fences before
// unmarshaling.
package llm

import "strings"

// SummaryResult is the parsed contract of the summarizer LLM call: spec.md
// section 4.3.1 step 2.
type SummaryResult struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Summarizer produces SummaryResult from markdown content plus any OCR text
// gathered from images on the page.
type Summarizer interface {
	Summarize(markdown, ocrText string) (*SummaryResult, error)
}

// InsightGenerator produces a short free-form note relating a link to its
// related links: spec.md section 4.3.1 step 5.
type InsightGenerator interface {
	GenerateInsight(title, summary string, related []RelatedContext) (string, error)
}

// RelatedContext is what the insight prompt is given about each related
// link: title, url, and summary, capped at the retained related count.
type RelatedContext struct {
	Title   string
	URL     string
	Summary string
}

// Embedder turns text into a fixed-length vector for VectorSearch.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
