package cleaner

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Cleaner reduces listing text to plain text using Bluemonday
type Cleaner struct {
	policy *bluemonday.Policy
}

// NewCleaner creates a cleaner that strips ALL HTML.
// Stripped tags leave a space so "<li>Python</li><li>SQL</li>" stays two words.
func NewCleaner() *Cleaner {
	policy := bluemonday.StrictPolicy()
	policy.AddSpaceWhenStrippingTag(true)
	return &Cleaner{policy: policy}
}

// CleanToText removes all HTML, decodes entities and collapses whitespace.
// Search APIs highlight matched terms with <strong>, which would otherwise
// leak into titles and break whole-word skill matching.
func (c *Cleaner) CleanToText(s string) string {
	if s == "" {
		return ""
	}

	// Sanitize escapes what it keeps, so decode after stripping too
	text := c.policy.Sanitize(s)
	text = html.UnescapeString(text)

	return strings.Join(strings.Fields(text), " ")
}
