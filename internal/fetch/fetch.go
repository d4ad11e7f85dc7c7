// Package fetch adapts the two external collaborators the scrape step
// depends on: the article extractor (a JS-capable headless-browser +
// content-extraction helper) and the image+OCR helper, in the same
// bare-net/http external-collaborator shape as the teacher's pkg/news
// clients.
package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reorx/linkmind/internal/model"
)

// twitterURLHosts matches the Twitter-kind predicate spec.md section 4.3.1
// step 1 refers to.
var twitterURLHosts = map[string]bool{
	"twitter.com": true,
	"x.com":       true,
}

// IsTwitterURL reports whether rawURL belongs to the Twitter/X domain and
// therefore requires the probe-required sub-path rather than cloud-scrape.
func IsTwitterURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	return twitterURLHosts[host]
}

// ScrapeResult is the compact record the cloud-scrape sub-path persists and
// returns, per spec.md section 4.3.1 step 1.
type ScrapeResult struct {
	Title          string
	OGDescription  string
	SiteName       string
	MarkdownLength int
	Markdown       string
	Image          string
	Type           string
	OCRTexts       []string
	RawMedia       []model.RawMedia
}

// ArticleExtractor is the external collaborator that renders a page with a
// headless browser and extracts its readable content.
type ArticleExtractor interface {
	Extract(rawURL string) (*ScrapeResult, error)
}

// HTTPArticleExtractor talks to a sidecar extraction service over HTTP,
// standing in for the headless-browser process the coordinator launches per
// scrape and tears down on exit or failure (spec.md section 4.5).
type HTTPArticleExtractor struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPArticleExtractor(baseURL string) *HTTPArticleExtractor {
	return &HTTPArticleExtractor{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 45 * time.Second},
	}
}

func (e *HTTPArticleExtractor) Extract(rawURL string) (*ScrapeResult, error) {
	reqBody, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		return nil, fmt.Errorf("extractor request: %w", err)
	}

	resp, err := e.httpClient.Post(e.baseURL+"/extract", "application/json", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("extractor fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	var raw struct {
		Title      string   `json:"title"`
		Markdown   string   `json:"markdown"`
		OGTitle    string   `json:"og_title"`
		OGDesc     string   `json:"og_description"`
		OGImage    string   `json:"og_image"`
		OGSiteName string   `json:"og_site_name"`
		OGType     string   `json:"og_type"`
		MediaURLs  []string `json:"media_urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("extractor decode: %w", err)
	}

	title := raw.Title
	if title == "" {
		title = raw.OGTitle
	}

	return &ScrapeResult{
		Title:          title,
		OGDescription:  raw.OGDesc,
		SiteName:       raw.OGSiteName,
		Markdown:       raw.Markdown,
		MarkdownLength: len(raw.Markdown),
		Image:          raw.OGImage,
		Type:           raw.OGType,
	}, nil
}

