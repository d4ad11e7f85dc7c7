package fetch

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/reorx/linkmind/internal/model"
)

func TestHTTPImageOCR_Recognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ocr" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "recognized text"})
	}))
	defer srv.Close()

	ocr := NewHTTPImageOCR(srv.URL)

	text, err := ocr.Recognize("https://example.com/img.png")

	assert.Equal(t, nil, err)
	assert.Equal(t, "recognized text", text)
}

func TestHTTPImageOCR_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ocr := NewHTTPImageOCR(srv.URL)

	_, err := ocr.Recognize("https://example.com/img.png")

	assert.NotEqual(t, nil, err)
}

type fakeOCR struct {
	results map[string]string
	errs    map[string]error
}

func (f *fakeOCR) Recognize(imageURL string) (string, error) {
	if err, ok := f.errs[imageURL]; ok {
		return "", err
	}
	return f.results[imageURL], nil
}

func TestRecognizeAll_SkipsNonImageMedia(t *testing.T) {
	ocr := &fakeOCR{results: map[string]string{"https://a.com/img.png": "hello"}}
	media := []model.RawMedia{
		{Type: "video", URL: "https://a.com/vid.mp4"},
		{Type: "image", URL: "https://a.com/img.png"},
	}

	texts := RecognizeAll(ocr, media, nil)

	assert.Equal(t, 1, len(texts))
	assert.Equal(t, "hello", texts[0])
}

func TestRecognizeAll_SwallowsIndividualFailures(t *testing.T) {
	ocr := &fakeOCR{
		results: map[string]string{"https://a.com/good.png": "readable"},
		errs:    map[string]error{"https://a.com/bad.png": errors.New("ocr timeout")},
	}
	media := []model.RawMedia{
		{Type: "image", URL: "https://a.com/bad.png"},
		{Type: "image", URL: "https://a.com/good.png"},
	}

	var failed []string
	texts := RecognizeAll(ocr, media, func(url string, err error) {
		failed = append(failed, url)
	})

	assert.Equal(t, 1, len(texts))
	assert.Equal(t, "readable", texts[0])
	assert.Equal(t, 1, len(failed))
	assert.Equal(t, "https://a.com/bad.png", failed[0])
}

func TestRecognizeAll_DropsEmptyResults(t *testing.T) {
	ocr := &fakeOCR{results: map[string]string{"https://a.com/blank.png": ""}}
	media := []model.RawMedia{{Type: "image", URL: "https://a.com/blank.png"}}

	texts := RecognizeAll(ocr, media, nil)

	assert.Equal(t, 0, len(texts))
}

func TestRecognizeAll_EmptyMediaYieldsNoTexts(t *testing.T) {
	texts := RecognizeAll(&fakeOCR{}, nil, nil)
	assert.Equal(t, 0, len(texts))
}
