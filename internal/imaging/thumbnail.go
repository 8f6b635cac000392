package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultThumbnailMaxDimension is the longest edge of a gallery thumbnail.
const DefaultThumbnailMaxDimension = 320

// Thumbnail downsizes the image so neither edge exceeds maxDimension and
// encodes the result as JPEG. Images already within bounds are re-encoded
// without scaling so every thumbnail has the same type.
func Thumbnail(src Image, maxDimension int) (Image, error) {
	img, _, err := image.Decode(bytes.NewReader(src.data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := thumbnailDimensions(origWidth, origHeight, maxDimension)

	// JPEG has no alpha; composite onto white so transparent cut-outs stay readable.
	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return Image{}, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	log.Debug().
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Int("output_size", buf.Len()).
		Msg("Thumbnail generated")

	return Image{data: buf.Bytes(), mimeType: "image/jpeg"}, nil
}

// thumbnailDimensions scales (width, height) to fit maxDimension, keeping
// aspect ratio. Neither edge drops below one pixel.
func thumbnailDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width > height {
		newHeight := int(float64(height) * float64(maxDimension) / float64(width))
		return maxDimension, max(newHeight, 1)
	}

	newWidth := int(float64(width) * float64(maxDimension) / float64(height))
	return max(newWidth, 1), maxDimension
}
