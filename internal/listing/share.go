package listing

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	emphasisPattern = regexp.MustCompile(`\*\*|~~`)
	bulletPattern   = regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+`)
	quotePattern    = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
)

// StripMarkdown removes the bold, strikethrough, bullet, and quote markers
// the listing description uses, leaving the text itself in place.
func StripMarkdown(s string) string {
	s = emphasisPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "")
	s = quotePattern.ReplaceAllString(s, "")
	return s
}

// PlainText is the copy-to-clipboard form of a listing: title, a blank
// line, then the description, all without markdown markers.
func PlainText(in Insights) string {
	return StripMarkdown(in.Title + "\n\n" + in.Description)
}

// ShareLinks are deep links into external marketplaces and social sites.
type ShareLinks struct {
	Text      string `json:"text"`
	Twitter   string `json:"twitter"`
	Pinterest string `json:"pinterest"`
	EBay      string `json:"ebay"`
}

// Links builds share links for a listing.
func Links(in Insights) ShareLinks {
	text := PlainText(in)
	return ShareLinks{
		Text:      text,
		Twitter:   "https://twitter.com/intent/tweet?text=" + url.QueryEscape(strings.TrimSpace(text)),
		Pinterest: "https://www.pinterest.com/pin-creation-tool/",
		EBay:      "https://www.ebay.com/sl/prelist/suggest?title=" + url.QueryEscape(StripMarkdown(in.Title)),
	}
}
