// Package config resolves runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fpang/photo-to-profit/internal/chat"
	"github.com/fpang/photo-to-profit/internal/gallery"
)

// Config is everything the binaries need to wire a session.
type Config struct {
	TextModel    string
	ImageModel   string
	ImageBaseURL string
	SSMKeyParam  string

	Gallery gallery.Options
	Metrics bool

	LogLevel  string
	LogFormat string
}

// Load reads the environment. Unset keys fall back to defaults.
func Load() (Config, error) {
	cfg := Config{
		TextModel:    chat.TextModelName(),
		ImageModel:   chat.ImageModelName(),
		ImageBaseURL: os.Getenv("GEMINI_IMAGE_BASE_URL"),
		SSMKeyParam:  os.Getenv("SSM_API_KEY_PARAM"),
		Gallery: gallery.Options{
			Kind:   envOr("PHOTO_GALLERY_BACKEND", gallery.KindFile),
			Path:   os.Getenv("PHOTO_GALLERY_PATH"),
			Record: envOr("PHOTO_GALLERY_RECORD", gallery.DefaultRecordName),
			Bucket: os.Getenv("PHOTO_GALLERY_BUCKET"),
			Key:    os.Getenv("PHOTO_GALLERY_KEY"),
			Table:  os.Getenv("PHOTO_GALLERY_TABLE"),
		},
		LogLevel:  envOr("PHOTO_LOG_LEVEL", "info"),
		LogFormat: envOr("PHOTO_LOG_FORMAT", "console"),
	}

	if v := os.Getenv("PHOTO_METRICS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PHOTO_METRICS %q: %w", v, err)
		}
		cfg.Metrics = enabled
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	kind := strings.ToLower(c.Gallery.Kind)
	switch kind {
	case gallery.KindMemory, gallery.KindFile, gallery.KindSQLite:
	case gallery.KindS3:
		if c.Gallery.Bucket == "" {
			return fmt.Errorf("PHOTO_GALLERY_BUCKET is required for the s3 backend")
		}
	case gallery.KindDynamoDB:
		if c.Gallery.Table == "" {
			return fmt.Errorf("PHOTO_GALLERY_TABLE is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown PHOTO_GALLERY_BACKEND %q (want one of %s)", c.Gallery.Kind, strings.Join(gallery.Kinds, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
