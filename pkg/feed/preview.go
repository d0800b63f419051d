package feed

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// PreviewHTML returns item description safe to embed into a web page.
// Descriptions are model-generated and may carry arbitrary markup.
func PreviewHTML(description string) template.HTML {
	return template.HTML(ugcPolicy.Sanitize(description)) //nolint:gosec // sanitized by bluemonday
}

// PlainText strips all markup from description and collapses whitespace
func PlainText(description string) string {
	res := html.UnescapeString(strictPolicy.Sanitize(description))
	return strings.Join(strings.Fields(res), " ")
}
