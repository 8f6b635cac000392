package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/photo-to-profit/internal/assets"
	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/jsonutil"
	"github.com/fpang/photo-to-profit/internal/listing"
	"github.com/fpang/photo-to-profit/internal/metrics"
)

// ListingGenerator writes marketplace listings with a search-grounded
// Gemini text model.
type ListingGenerator struct {
	client  *genai.Client
	model   string
	metrics *metrics.Sink
}

// NewListingGenerator wraps an initialised genai client.
func NewListingGenerator(client *genai.Client, model string, sink *metrics.Sink) *ListingGenerator {
	if model == "" {
		model = DefaultTextModel
	}
	return &ListingGenerator{client: client, model: model, metrics: sink}
}

// GenerateListing identifies the product in img and drafts a listing for it.
func (g *ListingGenerator) GenerateListing(ctx context.Context, img imaging.Image, req listing.Request) (result *listing.Insights, err error) {
	callStart := time.Now()
	defer func() {
		rec := g.metrics.New().
			Dimension("Operation", "listing").
			Duration("LatencyMs", time.Since(callStart)).
			Count("Calls").
			Property("model", g.model).
			Property("condition", string(req.Condition))
		if err != nil {
			rec.Count("Failures")
		}
		rec.Flush()
	}()

	prompt := assets.RenderListingPrompt(string(req.Condition), req.Hint)
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: img.MIMEType(), Data: img.Bytes()}},
			{Text: prompt},
		},
	}}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	log.Debug().
		Str("model", g.model).
		Str("condition", string(req.Condition)).
		Int("hint_length", len(req.Hint)).
		Int("prompt_length", len(prompt)).
		Int("image_bytes", img.Size()).
		Msg("Starting Gemini API call for listing generation")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Failed to generate listing from Gemini")
		return nil, classifyError(err)
	}
	if resp == nil {
		return nil, &RemoteError{Kind: KindUnknown, Message: "Received empty response from Gemini API"}
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &RemoteError{
			Kind:    KindBlocked,
			Message: strings.TrimSpace(fmt.Sprintf("Request was blocked. Reason: %s. %s", fb.BlockReason, fb.BlockReasonMessage)),
		}
	}

	responseText := resp.Text()
	log.Debug().
		Int("response_length", len(responseText)).
		Dur("duration", duration).
		Msg("Gemini API response received for listing generation")

	result, err = parseListingResponse(responseText)
	if err != nil {
		log.Warn().Err(err).Str("response", truncateString(responseText, 500)).Msg("Listing response failed validation")
		return nil, err
	}
	result.GroundingChunks = groundingChunks(resp)

	log.Info().
		Str("title", result.Title).
		Str("price", result.PricingGuidance.RecommendedPrice).
		Int("sources", len(result.GroundingChunks)).
		Dur("duration", duration).
		Msg("Listing generation complete")
	return result, nil
}

// listingPayload mirrors the JSON the prompt asks for. Pointer fields let
// validation tell a missing field from an empty one.
type listingPayload struct {
	Title           *string                  `json:"title"`
	Description     *string                  `json:"description"`
	PricingGuidance *listing.PricingGuidance `json:"pricingGuidance"`
	SimilarListing  *listing.SimilarListing  `json:"similarListing"`
}

// parseListingResponse extracts and validates the listing JSON from model
// output that may be fenced or surrounded by prose.
func parseListingResponse(text string) (*listing.Insights, error) {
	payload, err := jsonutil.ParseJSON[listingPayload](text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var missing []string
	if payload.Title == nil {
		missing = append(missing, "title")
	}
	if payload.Description == nil {
		missing = append(missing, "description")
	}
	if payload.PricingGuidance == nil {
		missing = append(missing, "pricingGuidance")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	out := &listing.Insights{
		Title:           strings.TrimSpace(*payload.Title),
		Description:     strings.TrimSpace(*payload.Description),
		PricingGuidance: *payload.PricingGuidance,
		GroundingChunks: []listing.GroundingChunk{},
	}
	if sl := payload.SimilarListing; sl != nil && (sl.URL != "" || sl.Title != "") {
		out.SimilarListing = &listing.SimilarListing{Title: sl.Title, URL: sl.URL}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}

// groundingChunks collects the web sources from the first candidate.
func groundingChunks(resp *genai.GenerateContentResponse) []listing.GroundingChunk {
	chunks := []listing.GroundingChunk{}
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return chunks
	}
	for _, gc := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if gc == nil || gc.Web == nil || gc.Web.URI == "" {
			continue
		}
		chunks = append(chunks, listing.GroundingChunk{URL: gc.Web.URI, Title: gc.Web.Title})
	}
	return chunks
}
