package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/photo-to-profit/internal/config"
	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/logging"
)

// Global flags
var (
	backendFlag    string
	textModelFlag  string
	imageModelFlag string
	noValidateFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "photo-cli",
	Short: "Draft marketplace listings and manage the product gallery from the terminal",
	Long: `Photo CLI drafts search-grounded marketplace listings for product photos,
restages photos on new backgrounds, and manages the saved product gallery
shared with photo-web.

Examples:
  photo-cli describe lamp.jpg --condition new --hint "1970s brass"
  photo-cli edit lamp.jpg --preset marble -o lamp-marble.png
  photo-cli gallery list
  photo-cli gallery export 3f2a... -o lamp.zip`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is normal outside development.
		_ = godotenv.Load()
		logging.Init()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&backendFlag, "backend", "", "Gallery backend: memory, file, sqlite, s3, dynamodb (overrides PHOTO_GALLERY_BACKEND)")
	pf.StringVar(&textModelFlag, "text-model", "", "Gemini model for listings (overrides GEMINI_TEXT_MODEL)")
	pf.StringVar(&imageModelFlag, "image-model", "", "Gemini model for background edits (overrides GEMINI_IMAGE_MODEL)")
	pf.BoolVar(&noValidateFlag, "no-validate", false, "Skip the API key check before calling Gemini")

	rootCmd.AddCommand(describeCmd, editCmd, presetsCmd, checkKeyCmd, galleryCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if backendFlag != "" {
		cfg.Gallery.Kind = backendFlag
	}
	if textModelFlag != "" {
		cfg.TextModel = textModelFlag
	}
	if imageModelFlag != "" {
		cfg.ImageModel = imageModelFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	return cfg
}

// openGallery opens the configured gallery. The returned function closes
// the backend.
func openGallery(ctx context.Context, cfg config.Config) (*gallery.Store, func() error) {
	backend, closeBackend, err := gallery.NewBackend(ctx, cfg.Gallery)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open gallery backend")
	}
	store, err := gallery.Open(ctx, backend)
	if err != nil {
		closeBackend()
		log.Fatal().Err(err).Msg("Failed to load gallery")
	}
	return store, closeBackend
}
