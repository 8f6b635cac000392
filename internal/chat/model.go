package chat

import "os"

// Gemini model IDs used by this service.
//
// | Model Name             | API Model ID           | Use Case                          |
// |------------------------|------------------------|-----------------------------------|
// | Gemini 2.5 Flash       | gemini-2.5-flash       | Listing text with Google Search   |
// | Gemini 2.5 Flash Image | gemini-2.5-flash-image | Background removal / replacement  |
const (
	// ModelGemini25Flash writes listings; it supports the Google Search tool.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashImage edits product photos and returns an image part.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"
)

// Defaults, overridable through the environment or flags.
const (
	DefaultTextModel  = ModelGemini25Flash
	DefaultImageModel = ModelGemini25FlashImage
)

// TextModelName resolves the listing model from GEMINI_TEXT_MODEL.
func TextModelName() string {
	if env := os.Getenv("GEMINI_TEXT_MODEL"); env != "" {
		return env
	}
	return DefaultTextModel
}

// ImageModelName resolves the image edit model from GEMINI_IMAGE_MODEL.
func ImageModelName() string {
	if env := os.Getenv("GEMINI_IMAGE_MODEL"); env != "" {
		return env
	}
	return DefaultImageModel
}
