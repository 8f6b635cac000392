// Package auth resolves the Gemini API key.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ErrNoKey is returned when no source yields an API key.
var ErrNoKey = errors.New("API key not found: set GEMINI_API_KEY or SSM_API_KEY_PARAM")

// Environment variables consulted by GetAPIKey.
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvSSMKeyParam = "SSM_API_KEY_PARAM"
)

// ParameterStore is the subset of the SSM client used to fetch the key.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// GetAPIKey retrieves the Gemini API key from available sources.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. SecureString parameter named by SSM_API_KEY_PARAM, when params is non-nil
func GetAPIKey(ctx context.Context, params ParameterStore) (string, error) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		log.Debug().Msg("Using API key from environment variable")
		return key, nil
	}

	paramName := os.Getenv(EnvSSMKeyParam)
	if paramName == "" || params == nil {
		return "", ErrNoKey
	}

	start := time.Now()
	result, err := params.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		log.Error().Err(err).Str("param", paramName).Msg("Failed to read API key from SSM")
		return "", fmt.Errorf("failed to read API key from SSM parameter %s: %w", paramName, err)
	}
	if result.Parameter == nil || strings.TrimSpace(aws.ToString(result.Parameter.Value)) == "" {
		return "", fmt.Errorf("SSM parameter %s is empty: %w", paramName, ErrNoKey)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(start)).Msg("Gemini API key loaded from SSM")
	return strings.TrimSpace(aws.ToString(result.Parameter.Value)), nil
}

// NeedsParameterStore reports whether GetAPIKey would consult SSM, so
// callers can skip loading AWS config when the key is in the environment.
func NeedsParameterStore() bool {
	return os.Getenv(EnvAPIKey) == "" && os.Getenv(EnvSSMKeyParam) != ""
}
