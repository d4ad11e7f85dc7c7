package pipeline

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestIsPermanentError_MatchesKnownSubstrings(t *testing.T) {
	assert.Equal(t, true, isPermanentError(errors.New("Download is starting: report.pdf")))
	assert.Equal(t, true, isPermanentError(errors.New("net::ERR_ABORTED at https://example.com")))
	assert.Equal(t, true, isPermanentError(errors.New("Navigation failed because page was closed")))
}

func TestIsPermanentError_RejectsUnrelatedErrors(t *testing.T) {
	assert.Equal(t, false, isPermanentError(errors.New("connection reset by peer")))
	assert.Equal(t, false, isPermanentError(errors.New("timeout waiting for selector")))
}

func TestIsPermanentError_NilIsFalse(t *testing.T) {
	assert.Equal(t, false, isPermanentError(nil))
}
