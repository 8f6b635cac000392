package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fpang/photo-to-profit/internal/cli"
	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/listing"
)

var (
	yesFlag       bool
	exportOutFlag string
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Inspect and manage saved products",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore := openGallery(cmd.Context(), loadConfig())
		defer closeStore()
		return writeGalleryTable(cmd.OutOrStdout(), store.List())
	},
}

var galleryShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore := openGallery(cmd.Context(), loadConfig())
		defer closeStore()
		p, err := store.FindByID(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatListing(p.Insights))
		fmt.Fprintf(cmd.OutOrStdout(), "Images:    current %s, original %s\n",
			cli.FormatBytes(int64(p.Current.Size())), cli.FormatBytes(int64(p.Original.Size())))
		return nil
	},
}

var galleryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore := openGallery(cmd.Context(), loadConfig())
		defer closeStore()
		p, err := store.FindByID(args[0])
		if err != nil {
			return err
		}
		if !yesFlag && !cli.Confirm(os.Stdin, cmd.OutOrStdout(), fmt.Sprintf("Delete %q?", listing.StripMarkdown(p.Insights.Title))) {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled")
			return nil
		}
		if err := store.Remove(cmd.Context(), p.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", p.ID)
		return nil
	},
}

var galleryExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved product as a ZIP archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore := openGallery(cmd.Context(), loadConfig())
		defer closeStore()
		p, err := store.FindByID(args[0])
		if err != nil {
			return err
		}

		out := exportOutFlag
		if out == "" {
			out = "product-" + p.ID + ".zip"
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		if err := gallery.ExportZip(f, p); err != nil {
			f.Close()
			os.Remove(out)
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		return nil
	},
}

func writeGalleryTable(w io.Writer, products []gallery.Product) error {
	if len(products) == 0 {
		_, err := fmt.Fprintln(w, "Gallery is empty")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tSIZE")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			p.ID,
			listing.StripMarkdown(p.Insights.Title),
			p.Insights.PricingGuidance.RecommendedPrice,
			cli.FormatBytes(int64(p.Current.Size())))
	}
	return tw.Flush()
}

func init() {
	galleryDeleteCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Do not ask for confirmation")
	galleryExportCmd.Flags().StringVarP(&exportOutFlag, "output", "o", "", "Output file (default product-<id>.zip)")
	galleryCmd.AddCommand(galleryListCmd, galleryShowCmd, galleryDeleteCmd, galleryExportCmd)
}
