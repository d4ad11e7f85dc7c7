package api

import (
	"time"

	"github.com/reorx/linkmind/internal/model"
)

// submitLinkRequest is POST /api/links' body (spec.md section 6).
type submitLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

type submitLinkResponse struct {
	TaskID string `json:"taskId"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// linkSummary is one row of GET /api/links.
type linkSummary struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toLinkSummary(l model.Link) linkSummary {
	return linkSummary{ID: l.ID, URL: l.URL, Title: l.Title, Status: l.Status, CreatedAt: l.CreatedAt}
}

// linkDetail is GET /api/links/:id's response: full fields plus parsed
// tag/relation lists.
type linkDetail struct {
	ID          int64                    `json:"id"`
	URL         string                   `json:"url"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Image       string                   `json:"image"`
	SiteName    string                   `json:"site_name"`
	Type        string                   `json:"type"`
	Summary     string                   `json:"summary"`
	Insight     string                   `json:"insight"`
	Tags        []string                 `json:"tags"`
	Images      []model.ImageDescriptor  `json:"images"`
	Status      string                   `json:"status"`
	Error       string                   `json:"error,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
	Related     []relatedLinkView        `json:"related"`
}

type relatedLinkView struct {
	LinkID int64   `json:"link_id"`
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Score  float64 `json:"score"`
}

type deleteLinkResponse struct {
	Message             string `json:"message"`
	LinkID              int64  `json:"linkId"`
	URL                 string `json:"url"`
	RelatedLinksUpdated int    `json:"relatedLinksUpdated"`
}

type retryAllResponse struct {
	Message string  `json:"message"`
	IDs     []int64 `json:"ids"`
}

type retryOneResponse struct {
	TaskID string `json:"taskId"`
	LinkID int64  `json:"linkId"`
	Status string `json:"status"`
}

type probeStatusResponse struct {
	Devices            []probeDeviceView `json:"devices"`
	PendingEventsCount int               `json:"pending_events_count"`
}

type probeDeviceView struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	LastSeenAt  time.Time `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
