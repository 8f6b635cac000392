package gallery

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/fpang/photo-to-profit/internal/listing"
)

// ZipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const ZipMethodZstd uint16 = 93

// ExportZip writes a product bundle: the edited image, the original image,
// and listing.txt with the plain-text listing, price, and sources.
func ExportZip(w io.Writer, p Product) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(ZipMethodZstd, func(out io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	})

	modified := time.Now()
	entries := []struct {
		name   string
		data   []byte
		method uint16
	}{
		// Images are already compressed; store them as-is.
		{name: "current" + p.Current.Extension(), data: p.Current.Bytes(), method: zip.Store},
		{name: "original" + p.Original.Extension(), data: p.Original.Bytes(), method: zip.Store},
		{name: "listing.txt", data: []byte(ListingText(p.Insights)), method: ZipMethodZstd},
	}

	for _, e := range entries {
		header := &zip.FileHeader{Name: e.name, Method: e.method}
		header.SetModTime(modified)
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create ZIP entry for %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return fmt.Errorf("write to ZIP for %s: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close ZIP writer: %w", err)
	}
	return nil
}

// ListingText renders insights as a human-readable text file.
func ListingText(in listing.Insights) string {
	var b strings.Builder
	b.WriteString(listing.PlainText(in))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Price: %s\n", in.PricingGuidance.RecommendedPrice)
	if in.PricingGuidance.PriceRationale != "" {
		fmt.Fprintf(&b, "Rationale: %s\n", in.PricingGuidance.PriceRationale)
	}
	if in.Condition != "" {
		fmt.Fprintf(&b, "Condition: %s\n", in.Condition)
	}
	if sl := in.SimilarListing; sl != nil && sl.URL != "" {
		fmt.Fprintf(&b, "Similar listing: %s (%s)\n", sl.Title, sl.URL)
	}
	if len(in.GroundingChunks) > 0 {
		b.WriteString("\nSources:\n")
		for _, c := range in.GroundingChunks {
			fmt.Fprintf(&b, "- %s %s\n", c.Title, c.URL)
		}
	}
	return b.String()
}
