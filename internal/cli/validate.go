package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/auth"
	"github.com/fpang/photo-to-profit/internal/chat"
	"github.com/fpang/photo-to-profit/internal/imaging"
)

// ReadImage loads and validates a photo from disk.
func ReadImage(path string) (imaging.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return imaging.Image{}, fmt.Errorf("file not found: %s", path)
		}
		return imaging.Image{}, fmt.Errorf("failed to access %s: %w", path, err)
	}
	if info.IsDir() {
		return imaging.Image{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > imaging.MaxUploadSize {
		return imaging.Image{}, fmt.Errorf("%s is %s, limit is %s", path, FormatBytes(info.Size()), FormatBytes(imaging.MaxUploadSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return imaging.Image{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return imaging.Decode(data, "")
}

// HandleValidationError logs a key or client failure with a hint for the
// user and exits.
func HandleValidationError(err error) {
	if errors.Is(err, auth.ErrNoKey) {
		log.Fatal().Msg("No API key configured. Set GEMINI_API_KEY or SSM_API_KEY_PARAM")
	}

	var remote *chat.RemoteError
	if errors.As(err, &remote) {
		switch remote.Kind {
		case chat.KindInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case chat.KindNetwork:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case chat.KindQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	}
	log.Fatal().Err(err).Msg("unexpected error during API key validation")
	os.Exit(1)
}
