// Package chat is the Gemini capability surface: background edits through
// the image model and search-grounded listing generation through the text
// model. Every failure is reported as a *RemoteError or wraps
// ErrMalformedResponse.
package chat

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/photo-to-profit/internal/metrics"
)

// Config selects models and endpoints for a Client.
type Config struct {
	APIKey       string
	TextModel    string
	ImageModel   string
	ImageBaseURL string
	Metrics      *metrics.Sink
}

// Client bundles the image editor and the listing generator behind one
// API key.
type Client struct {
	*ImageEditor
	*ListingGenerator
}

// NewClient creates the genai SDK client and the REST image editor.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		ImageEditor:      NewImageEditor(cfg.APIKey, cfg.ImageModel, cfg.ImageBaseURL, cfg.Metrics),
		ListingGenerator: NewListingGenerator(genaiClient, cfg.TextModel, cfg.Metrics),
	}
	log.Debug().
		Str("text_model", c.ListingGenerator.model).
		Str("image_model", c.ImageEditor.model).
		Msg("Gemini client initialized")
	return c, nil
}
