package assets

import (
	"fmt"
	"strings"
)

// BackgroundPreset is a named one-click background.
type BackgroundPreset struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Scene string `json:"scene"`
}

// BackgroundPresets are offered in display order.
var BackgroundPresets = []BackgroundPreset{
	{ID: "white", Name: "White Background", Scene: "a solid professional white background"},
	{ID: "black", Name: "Black Background", Scene: "a solid professional black background"},
	{ID: "gray", Name: "Gray Background", Scene: "a solid professional gray background"},
	{ID: "pink", Name: "Pink Background", Scene: "a solid professional light pink background"},
	{ID: "light-blue", Name: "Light Blue Background", Scene: "a solid professional light blue background"},
	{ID: "studio-gradient", Name: "Studio Gradient", Scene: "a professional photography studio gradient background"},
	{ID: "wooden-table", Name: "Wooden Table", Scene: "a clean wooden tabletop surface as the background"},
	{ID: "marble", Name: "Marble Surface", Scene: "a clean white marble surface as the background"},
}

// PresetByID looks up a preset.
func PresetByID(id string) (BackgroundPreset, bool) {
	for _, p := range BackgroundPresets {
		if p.ID == id {
			return p, true
		}
	}
	return BackgroundPreset{}, false
}

// PresetInstruction turns a preset into an edit instruction.
func PresetInstruction(p BackgroundPreset) string {
	return fmt.Sprintf("Place the subject on %s, ensuring the lighting on the subject matches the new background.", p.Scene)
}

// CustomSceneInstruction wraps free-form scene text typed by the user.
// Blank input yields an empty instruction.
func CustomSceneInstruction(scene string) string {
	scene = strings.TrimSpace(scene)
	if scene == "" {
		return ""
	}
	return fmt.Sprintf("Place the subject in this scene: '%s'. Ensure the lighting on the subject matches the new background.", scene)
}
