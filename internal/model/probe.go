package model

import "time"

const (
	ProbeEventStatusPending   = "pending"
	ProbeEventStatusSent      = "sent"
	ProbeEventStatusCompleted = "completed"
	ProbeEventStatusError     = "error"
)

const (
	URLKindWeb     = "web"
	URLKindTwitter = "twitter"
)

// ScrapeData is the payload a probe returns for a successful scrape. It
// mirrors the wire contract in spec.md section 6.
type ScrapeData struct {
	Title          string      `json:"title,omitempty"`
	Markdown       string      `json:"markdown"`
	OGTitle        string      `json:"og_title,omitempty"`
	OGDescription  string      `json:"og_description,omitempty"`
	OGImage        string      `json:"og_image,omitempty"`
	OGSiteName     string      `json:"og_site_name,omitempty"`
	OGType         string      `json:"og_type,omitempty"`
	RawMedia       []RawMedia  `json:"raw_media,omitempty"`
}

// RawMedia is one media reference a probe scraped alongside the page text,
// destined for the image+OCR helper.
type RawMedia struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ProbeEvent is a single unit of scrape work handed from the coordinator to
// a probe.
type ProbeEvent struct {
	ID          string
	UserID      int64
	LinkID      int64
	URL         string
	URLKind     string
	Status      string
	Result      *ScrapeData
	Error       string
	CreatedAt   time.Time
	SentAt      *time.Time
	CompletedAt *time.Time
}

// ProbeDevice is a user-owned agent enrollment. Its bearer token is the sole
// capability required to subscribe to events or post results.
type ProbeDevice struct {
	ID          string
	UserID      int64
	Token       string
	DisplayName string
	LastSeenAt  time.Time
	CreatedAt   time.Time
}

const (
	DeviceAuthStatusPending    = "pending"
	DeviceAuthStatusAuthorized = "authorized"
	DeviceAuthStatusExpired    = "expired"
)

// DeviceAuthRequest is one in-flight device-code enrollment.
type DeviceAuthRequest struct {
	DeviceCode    string
	UserCode      string
	Status        string
	AuthorizedBy  *int64
	ExpiresAt     time.Time
	CreatedAt     time.Time
}
