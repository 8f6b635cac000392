package assets

import (
	"strings"
	"testing"
)

func TestRenderListingPrompt(t *testing.T) {
	withHint := RenderListingPrompt("New", "  Sony WH-1000XM4  ")
	if !strings.Contains(withHint, "**New** condition") {
		t.Error("condition not rendered")
	}
	if !strings.Contains(withHint, `"Sony WH-1000XM4"`) {
		t.Error("trimmed hint not rendered")
	}

	noHint := RenderListingPrompt("Used", "")
	if strings.Contains(noHint, "The seller says") {
		t.Error("hint section rendered without a hint")
	}
	if !strings.Contains(noHint, `"pricingGuidance"`) {
		t.Error("JSON schema missing from prompt")
	}
}

func TestRenderBackgroundPrompt(t *testing.T) {
	got := RenderBackgroundPrompt("a beach at sunset")
	if !strings.Contains(got, `Request: "a beach at sunset"`) {
		t.Errorf("scene not rendered:\n%s", got)
	}
}

func TestPresets(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range BackgroundPresets {
		if seen[p.ID] {
			t.Errorf("duplicate preset id %q", p.ID)
		}
		seen[p.ID] = true
	}

	p, ok := PresetByID("white")
	if !ok {
		t.Fatal("white preset missing")
	}
	want := "Place the subject on a solid professional white background, ensuring the lighting on the subject matches the new background."
	if got := PresetInstruction(p); got != want {
		t.Errorf("PresetInstruction() = %q", got)
	}
	if _, ok := PresetByID("neon"); ok {
		t.Error("unexpected preset found")
	}
}

func TestCustomSceneInstruction(t *testing.T) {
	if got := CustomSceneInstruction("   "); got != "" {
		t.Errorf("blank scene = %q, want empty", got)
	}
	got := CustomSceneInstruction(" a rustic kitchen ")
	if !strings.HasPrefix(got, "Place the subject in this scene: 'a rustic kitchen'.") {
		t.Errorf("CustomSceneInstruction() = %q", got)
	}
}
