package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/photo-to-profit/internal/cli"
	"github.com/fpang/photo-to-profit/internal/config"
	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/logging"
	"github.com/fpang/photo-to-profit/internal/session"
)

// commitHash is set at build time with -ldflags "-X main.commitHash=...".
var commitHash string

// CLI flags
var (
	portFlag        int
	backendFlag     string
	textModelFlag   string
	imageModelFlag  string
	validateKeyFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "photo-web",
	Short: "Local web API for editing product photos and drafting listings",
	Long: `Photo Web starts a local server for one editing session: upload a product
photo, restage or replace its background with Gemini, generate a
search-grounded marketplace listing, and save results to the gallery.

Examples:
  photo-web
  photo-web --port 9090
  photo-web --backend sqlite --text-model gemini-2.5-pro`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is normal outside development.
		_ = godotenv.Load()
		logging.Init()
	},
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVar(&backendFlag, "backend", "", "Gallery backend: memory, file, sqlite, s3, dynamodb (overrides PHOTO_GALLERY_BACKEND)")
	rootCmd.Flags().StringVar(&textModelFlag, "text-model", "", "Gemini model for listings (overrides GEMINI_TEXT_MODEL)")
	rootCmd.Flags().StringVar(&imageModelFlag, "image-model", "", "Gemini model for background edits (overrides GEMINI_IMAGE_MODEL)")
	rootCmd.Flags().BoolVar(&validateKeyFlag, "validate-key", true, "Check the API key with a minimal request at startup")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := cli.InitClient(ctx, cfg, "photo-web", validateKeyFlag)

	backend, closeBackend, err := gallery.NewBackend(ctx, cfg.Gallery)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open gallery backend")
	}
	defer closeBackend()

	store, err := gallery.Open(ctx, backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load gallery")
	}

	sess := session.New(client, client, store, session.WithContext(ctx))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", portFlag),
		Handler:      newServer(sess, zenityPicker),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logging.NewStartupLogger("photo-web").
		CommitHash(commitHash).
		Storage("backend", backend.Name()).
		Storage("path", cfg.Gallery.Path).
		Storage("bucket", cfg.Gallery.Bucket).
		Storage("table", cfg.Gallery.Table).
		Model("text", cfg.TextModel).
		Model("image", cfg.ImageModel).
		SSMParam(cfg.SSMKeyParam).
		Feature("metrics", cfg.Metrics).
		Feature("validateKey", validateKeyFlag).
		Config("port", fmt.Sprint(portFlag)).
		Config("savedProducts", fmt.Sprint(store.Len())).
		InitDuration(time.Since(initStart)).
		Log()

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Server shutdown did not complete cleanly")
		}
	}()

	log.Info().Int("port", portFlag).Msg("Starting web server")
	fmt.Printf("\n  Photo to Profit: http://localhost:%d\n\n", portFlag)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	// Listing calls observe the cancelled context; let them unwind.
	sess.Wait()
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
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
	return cfg, cfg.Validate()
}
