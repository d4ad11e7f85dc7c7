package fetch

import (
	"context"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/chromedp/chromedp"
)

// HeadlessBrowserExtractor drives a locally-launched Chrome to render a page
// before extracting it, the Probe Agent's local counterpart to the
// coordinator's HTTPArticleExtractor (spec.md section 4.5). A fresh browser
// is launched per scrape and torn down on exit or failure -- no pooling.
type HeadlessBrowserExtractor struct {
	navigationTimeout time.Duration
	settleDelay       time.Duration
}

// NewHeadlessBrowserExtractor applies the fixed timeouts spec.md section 5
// pins for probe subprocess calls: 30s navigation plus a 2s settle window.
func NewHeadlessBrowserExtractor() *HeadlessBrowserExtractor {
	return &HeadlessBrowserExtractor{
		navigationTimeout: 30 * time.Second,
		settleDelay:       2 * time.Second,
	}
}

func (h *HeadlessBrowserExtractor) Extract(rawURL string) (*ScrapeResult, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	ctx, cancel := context.WithTimeout(browserCtx, h.navigationTimeout+h.settleDelay)
	defer cancel()

	var title, html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(rawURL),
		chromedp.Sleep(h.settleDelay),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, err
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		markdown = html
	}

	return &ScrapeResult{
		Title:          title,
		Markdown:       markdown,
		MarkdownLength: len(markdown),
	}, nil
}
