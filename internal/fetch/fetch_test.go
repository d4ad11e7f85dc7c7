package fetch

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestIsTwitterURL_MatchesTwitterAndXDomains(t *testing.T) {
	assert.Equal(t, true, IsTwitterURL("https://twitter.com/reorx/status/1"))
	assert.Equal(t, true, IsTwitterURL("https://x.com/reorx/status/1"))
	assert.Equal(t, true, IsTwitterURL("https://www.twitter.com/reorx/status/1"))
	assert.Equal(t, true, IsTwitterURL("https://www.x.com/reorx/status/1"))
}

func TestIsTwitterURL_RejectsOtherDomains(t *testing.T) {
	assert.Equal(t, false, IsTwitterURL("https://example.com/article"))
	assert.Equal(t, false, IsTwitterURL("https://notx.com/status/1"))
}

func TestIsTwitterURL_RejectsMalformedURL(t *testing.T) {
	assert.Equal(t, false, IsTwitterURL("://not a url"))
}

func TestIsTwitterURL_IsCaseInsensitive(t *testing.T) {
	assert.Equal(t, true, IsTwitterURL("https://TWITTER.COM/reorx"))
}
