package cli

import (
	"fmt"
	"strings"

	"github.com/fpang/photo-to-profit/internal/listing"
)

// FormatBytes renders a size with a binary unit (B, KB, MB, GB).
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMG"[exp])
}

// FormatListing renders a listing for the terminal.
func FormatListing(in listing.Insights) string {
	var b strings.Builder
	b.WriteString(listing.PlainText(in))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Price:     %s\n", in.PricingGuidance.RecommendedPrice)
	if in.PricingGuidance.PriceRationale != "" {
		fmt.Fprintf(&b, "Rationale: %s\n", in.PricingGuidance.PriceRationale)
	}
	if in.Condition != "" {
		fmt.Fprintf(&b, "Condition: %s\n", in.Condition)
	}
	if sl := in.SimilarListing; sl != nil && sl.URL != "" {
		fmt.Fprintf(&b, "Similar:   %s\n           %s\n", sl.Title, sl.URL)
	}
	if len(in.GroundingChunks) > 0 {
		b.WriteString("Sources:\n")
		for i, c := range in.GroundingChunks {
			fmt.Fprintf(&b, "  %d. %s\n     %s\n", i+1, c.Title, c.URL)
		}
	}
	return b.String()
}
