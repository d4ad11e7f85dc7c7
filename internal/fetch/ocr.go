package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/reorx/linkmind/internal/model"
)

// ImageOCR is the image+OCR external helper the scrape step calls for each
// media reference. A failure here is non-fatal per spec.md section 4.3.1:
// callers log it and proceed without that image's text.
type ImageOCR interface {
	Recognize(imageURL string) (string, error)
}

// HTTPImageOCR talks to a sidecar OCR service the same way
// HTTPArticleExtractor talks to its extraction sidecar.
type HTTPImageOCR struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPImageOCR(baseURL string) *HTTPImageOCR {
	return &HTTPImageOCR{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (o *HTTPImageOCR) Recognize(imageURL string) (string, error) {
	reqBody, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}

	resp, err := o.httpClient.Post(o.baseURL+"/ocr", "application/json", strings.NewReader(string(reqBody)))
	if err != nil {
		return "", fmt.Errorf("ocr fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr returned status %d", resp.StatusCode)
	}

	var raw struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("ocr decode: %w", err)
	}
	return raw.Text, nil
}

// RecognizeAll runs OCR over every raw media item, skipping non-image
// entries and swallowing individual failures (spec.md section 4.3.1: "Image
// / OCR failures are non-fatal: logged, the step proceeds without
// ocrTexts").
func RecognizeAll(ocr ImageOCR, media []model.RawMedia, onError func(url string, err error)) []string {
	var texts []string
	for _, m := range media {
		if m.Type != "image" {
			continue
		}
		text, err := ocr.Recognize(m.URL)
		if err != nil {
			if onError != nil {
				onError(m.URL, err)
			}
			continue
		}
		if text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}
