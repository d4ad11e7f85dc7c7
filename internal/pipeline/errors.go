package pipeline

import "strings"

// permanentScrapeErrors is the fixed substring list spec.md section 7
// requires be preserved verbatim: these indicate the URL was a
// download-initiated file rather than a page, and retrying cannot help.
var permanentScrapeErrors = []string{
	"Download is starting",
	"net::ERR_ABORTED",
	"Navigation failed because page was closed",
}

func isPermanentError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, needle := range permanentScrapeErrors {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
