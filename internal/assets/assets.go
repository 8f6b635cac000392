// Package assets provides embedded prompt templates and the background
// presets offered in the editor.
package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// StagingPrompt asks the image model to cut the subject out onto a neutral
// light grey background.
//
//go:embed prompts/staging.txt
var StagingPrompt string

//go:embed prompts/background.txt
var backgroundTemplate string

//go:embed prompts/listing.txt
var listingTemplate string

// template.Must panics on malformed templates, so a bad edit fails at startup.
var (
	backgroundTmpl = template.Must(template.New("background").Parse(backgroundTemplate))
	listingTmpl    = template.Must(template.New("listing").Parse(listingTemplate))
)

// RenderBackgroundPrompt renders the background replacement instruction for
// a scene description.
func RenderBackgroundPrompt(scene string) string {
	return render(backgroundTmpl, struct{ Scene string }{Scene: scene})
}

// ListingPromptData is the dynamic input to the listing prompt.
type ListingPromptData struct {
	Condition string
	Hint      string
}

// RenderListingPrompt renders the listing instruction for a condition and
// optional seller hint.
func RenderListingPrompt(condition, hint string) string {
	return render(listingTmpl, ListingPromptData{Condition: condition, Hint: strings.TrimSpace(hint)})
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Execution can only fail on a field mismatch, which the tests cover.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
