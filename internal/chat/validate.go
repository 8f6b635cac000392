package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ValidateKey verifies the API key with a minimal text request. It returns
// nil if the key works, or a *RemoteError whose Kind says why it did not.
func (g *ListingGenerator) ValidateKey(ctx context.Context) error {
	log.Debug().Str("model", g.model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	result := "success"
	var verr *RemoteError
	switch {
	case err != nil:
		verr = classifyError(err)
		result = verr.Kind.String()
	case resp == nil || len(resp.Candidates) == 0:
		log.Warn().Msg("API key validation returned empty response")
		verr = &RemoteError{Kind: KindUnknown, Message: "API returned empty response"}
		result = "empty_response"
	}

	g.metrics.New().
		Dimension("Operation", "validate").
		Dimension("Result", result).
		Duration("LatencyMs", elapsed).
		Count("Calls").
		Flush()

	if verr != nil {
		return verr
	}
	log.Info().Dur("duration", elapsed).Msg("API key validated successfully")
	return nil
}
