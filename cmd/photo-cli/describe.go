package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/photo-to-profit/internal/assets"
	"github.com/fpang/photo-to-profit/internal/cli"
	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/listing"
)

var (
	conditionFlag string
	hintFlag      string
	jsonFlag      bool
	saveFlag      bool
	presetFlag    string
	sceneFlag     string
	outputFlag    string
)

var describeCmd = &cobra.Command{
	Use:   "describe [image]",
	Short: "Generate a marketplace listing for a product photo",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := loadConfig()

		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			path = cli.PromptLine(os.Stdin, os.Stdout, "Photo", "")
		}
		img, err := cli.ReadImage(path)
		if err != nil {
			return err
		}
		cond, err := listing.ParseCondition(conditionFlag)
		if err != nil {
			return err
		}

		client := cli.InitClient(ctx, cfg, "photo-cli", !noValidateFlag)
		start := time.Now()
		result, err := client.GenerateListing(ctx, img, listing.Request{Condition: cond, Hint: hintFlag})
		if err != nil {
			return err
		}
		result.Condition = cond
		result.UserProvidedInfo = hintFlag
		log.Info().Dur("duration", time.Since(start)).Str("title", result.Title).Msg("Listing generated")

		if jsonFlag {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatListing(*result))
		}

		if saveFlag {
			store, closeStore := openGallery(ctx, cfg)
			defer closeStore()
			product := gallery.Product{ID: uuid.NewString(), Current: img, Original: img, Insights: *result}
			if err := store.Upsert(ctx, product); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved to gallery as %s\n", product.ID)
		}
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <image>",
	Short: "Restage a product photo on a new background",
	Long: `Edit sends the photo to the Gemini image model. With no --preset or
--scene the product is staged on a neutral light grey background.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := loadConfig()

		img, err := cli.ReadImage(args[0])
		if err != nil {
			return err
		}

		client := cli.InitClient(ctx, cfg, "photo-cli", !noValidateFlag)
		switch {
		case presetFlag != "":
			preset, ok := assets.PresetByID(presetFlag)
			if !ok {
				return fmt.Errorf("unknown preset %q, see photo-cli presets", presetFlag)
			}
			img, err = client.ReplaceBackground(ctx, img, assets.PresetInstruction(preset))
		case sceneFlag != "":
			img, err = client.ReplaceBackground(ctx, img, assets.CustomSceneInstruction(sceneFlag))
		default:
			img, err = client.RemoveBackground(ctx, img)
		}
		if err != nil {
			return err
		}

		out := outputFlag
		if out == "" {
			out = "edited" + img.Extension()
		}
		if err := os.WriteFile(out, img.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, cli.FormatBytes(int64(img.Size())))
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List background presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range assets.BackgroundPresets {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", p.ID, p.Name)
		}
	},
}

var checkKeyCmd = &cobra.Command{
	Use:   "check-key",
	Short: "Verify the Gemini API key",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cli.InitClient(cmd.Context(), loadConfig(), "photo-cli", true)
		fmt.Fprintln(cmd.OutOrStdout(), "API key is valid")
	},
}

func init() {
	describeCmd.Flags().StringVar(&conditionFlag, "condition", string(listing.DefaultCondition), "Item condition: new or used")
	describeCmd.Flags().StringVar(&hintFlag, "hint", "", "Extra details about the item (brand, age, flaws)")
	describeCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the listing as JSON")
	describeCmd.Flags().BoolVar(&saveFlag, "save", false, "Save the photo and listing to the gallery")

	editCmd.Flags().StringVar(&presetFlag, "preset", "", "Background preset ID (see photo-cli presets)")
	editCmd.Flags().StringVar(&sceneFlag, "scene", "", "Free-form scene description")
	editCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output file (default edited.<ext>)")
	editCmd.MarkFlagsMutuallyExclusive("preset", "scene")
}
