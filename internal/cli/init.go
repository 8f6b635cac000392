// Package cli holds the bootstrap and terminal helpers shared by the
// command-line binaries.
package cli

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/auth"
	"github.com/fpang/photo-to-profit/internal/chat"
	"github.com/fpang/photo-to-profit/internal/config"
	"github.com/fpang/photo-to-profit/internal/metrics"
)

// ResolveAPIKey loads AWS config only when the key must come from SSM.
func ResolveAPIKey(ctx context.Context) (string, error) {
	if !auth.NeedsParameterStore() {
		return auth.GetAPIKey(ctx, nil)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", awsCfg.Region).Msg("AWS config loaded")
	return auth.GetAPIKey(ctx, ssm.NewFromConfig(awsCfg))
}

// InitClient resolves the API key and creates a Gemini client. service
// names the binary in metrics. When validate is set the key is checked with
// a minimal request first. Exits fatally on failure.
func InitClient(ctx context.Context, cfg config.Config, service string, validate bool) *chat.Client {
	apiKey, err := ResolveAPIKey(ctx)
	if err != nil {
		HandleValidationError(err)
	}

	var sink *metrics.Sink
	if cfg.Metrics {
		sink = metrics.NewSink(os.Stdout, metrics.DefaultNamespace, service)
	}
	client, err := chat.NewClient(ctx, chat.Config{
		APIKey:       apiKey,
		TextModel:    cfg.TextModel,
		ImageModel:   cfg.ImageModel,
		ImageBaseURL: cfg.ImageBaseURL,
		Metrics:      sink,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	if validate {
		if err := client.ValidateKey(ctx); err != nil {
			HandleValidationError(err)
		}
		log.Info().Msg("API key validation complete - ready for operations")
	}
	return client
}
