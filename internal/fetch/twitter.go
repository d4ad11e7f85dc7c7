package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/reorx/linkmind/internal/model"
)

// TwitterFetcher runs the external CLI the probe agent shells out to for
// tweet scraping (spec.md section 4.5): "an external CLI invocation with a
// 60s timeout".
type TwitterFetcher struct {
	binaryPath string
	timeout    time.Duration
}

func NewTwitterFetcher(binaryPath string) *TwitterFetcher {
	return &TwitterFetcher{binaryPath: binaryPath, timeout: 60 * time.Second}
}

func (f *TwitterFetcher) Fetch(rawURL string) (*ScrapeResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.binaryPath, "--url", rawURL)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("twitter fetch %q: %w: %s", rawURL, err, stderr.String())
	}

	var raw struct {
		Text      string   `json:"text"`
		Author    string   `json:"author"`
		MediaURLs []string `json:"media_urls"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("twitter fetch %q: decode: %w", rawURL, err)
	}

	media := make([]model.RawMedia, len(raw.MediaURLs))
	for i, u := range raw.MediaURLs {
		media[i] = model.RawMedia{Type: "image", URL: u}
	}

	return &ScrapeResult{
		Title:         raw.Author,
		OGDescription: raw.Text,
		Markdown:      raw.Text,
		SiteName:      "Twitter",
		Type:          "tweet",
		RawMedia:      media,
	}, nil
}
