package model

import "time"

const (
	LinkStatusPending      = "pending"
	LinkStatusScraped      = "scraped"
	LinkStatusAnalyzed     = "analyzed"
	LinkStatusError        = "error"
	LinkStatusWaitingProbe = "waiting_probe"
)

// ImageDescriptor is one entry of a Link's optional image list, persisted as
// a JSON array on the Link row.
type ImageDescriptor struct {
	URL     string `json:"url"`
	OCRText string `json:"ocr_text,omitempty"`
}

// Link is a single submitted URL and everything the pipeline has derived
// from it. Field zero values follow the pending stage of the lifecycle:
// no scraped metadata, no LLM output, no vector.
type Link struct {
	ID          int64
	UserID      int64
	URL         string
	Title       string
	Description string
	Image       string
	SiteName    string
	Type        string
	Markdown    string
	Summary     string
	Insight     string
	Tags        []string
	Images      []ImageDescriptor
	Vector      []float32
	Status      string
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LinkPartial carries only the fields a caller wants to overwrite via
// Store.UpdateLinkFields. A nil pointer field is left untouched.
type LinkPartial struct {
	Title       *string
	Description *string
	Image       *string
	SiteName    *string
	Type        *string
	Markdown    *string
	Summary     *string
	Insight     *string
	Tags        *[]string
	Images      *[]ImageDescriptor
	Vector      *[]float32
	Status      *string
	Error       *string
}
