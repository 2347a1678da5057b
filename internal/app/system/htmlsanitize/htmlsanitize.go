// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize wraps the bluemonday policies used for user-supplied
// text. Element content may carry limited markup (it is rendered in the
// viewer); names and descriptions are stripped to plain text.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps user-generated-content-safe HTML (formatting tags, links)
// and removes everything executable.
func Sanitize(s string) string {
	return ugc.Sanitize(s)
}

// Strict strips all HTML, leaving plain text. Used for names, descriptions,
// and any field that is never rendered as markup.
func Strict(s string) string {
	return strict.Sanitize(s)
}
