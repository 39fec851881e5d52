// Package htmlsanitize strips markup from user-entered text such as report
// comments and issue descriptions. Clients render these fields as plain
// text, so no element is kept.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// PlainText removes all HTML from s and returns the trimmed text with
// entities decoded. Script and style contents are dropped.
func PlainText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(html.UnescapeString(s))
	}
	return strings.TrimSpace(html.UnescapeString(getPolicy().Sanitize(s)))
}
