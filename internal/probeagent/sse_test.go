package probeagent

import (
	"bufio"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func collectFrames(t *testing.T, raw string) []frame {
	t.Helper()
	scanner := bufio.NewScanner(strings.NewReader(raw))
	out := make(chan frame, 16)
	err := readFrames(scanner, out)
	assert.Equal(t, nil, err)
	close(out)

	var frames []frame
	for f := range out {
		frames = append(frames, f)
	}
	return frames
}

func TestReadFrames_ParsesSingleFrame(t *testing.T) {
	frames := collectFrames(t, "event: ping\ndata: {}\n\n")

	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "ping", frames[0].eventType)
	assert.Equal(t, "{}", frames[0].data)
}

func TestReadFrames_ParsesMultipleFrames(t *testing.T) {
	raw := "event: scrape_request\ndata: {\"url\":\"a\"}\n\nevent: ping\ndata: {}\n\n"
	frames := collectFrames(t, raw)

	assert.Equal(t, 2, len(frames))
	assert.Equal(t, "scrape_request", frames[0].eventType)
	assert.Equal(t, "ping", frames[1].eventType)
}

func TestReadFrames_FlushesTrailingFrameWithoutBlankLine(t *testing.T) {
	frames := collectFrames(t, "event: ping\ndata: {}\n")

	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "ping", frames[0].eventType)
}

func TestReadFrames_IgnoresUnrelatedLines(t *testing.T) {
	frames := collectFrames(t, ": keep-alive comment\nevent: ping\ndata: {}\n\n")

	assert.Equal(t, 1, len(frames))
	assert.Equal(t, "ping", frames[0].eventType)
}

func TestReadFrames_EmptyInputYieldsNoFrames(t *testing.T) {
	frames := collectFrames(t, "")
	assert.Equal(t, 0, len(frames))
}
