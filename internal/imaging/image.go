// Package imaging holds the immutable image payload that flows through an
// editing session, plus the small amount of pixel work the server does
// itself: format sniffing, validation, and gallery thumbnails.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp"
)

// MaxUploadSize bounds a single uploaded photo.
const MaxUploadSize int64 = 25 * 1024 * 1024

// SupportedMIMETypes lists the image formats accepted for upload.
var SupportedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Image is one version of a product photo. Values are never mutated after
// construction; callers that need to change pixels produce a new Image.
type Image struct {
	data     []byte
	mimeType string
}

// New copies data into a new Image. The MIME type is taken as given; use
// Decode when the payload comes from an untrusted source.
func New(data []byte, mimeType string) Image {
	buf := make([]byte, len(data))
	copy(buf, data)
	return Image{data: buf, mimeType: mimeType}
}

// Decode validates raw bytes as a supported image and returns it with its
// sniffed MIME type. declaredType is used only when sniffing is inconclusive.
func Decode(data []byte, declaredType string) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty image payload")
	}
	if int64(len(data)) > MaxUploadSize {
		return Image{}, fmt.Errorf("image is %d bytes, limit is %d", len(data), MaxUploadSize)
	}

	mimeType := http.DetectContentType(data)
	if !SupportedMIMETypes[mimeType] {
		mimeType = strings.ToLower(strings.TrimSpace(declaredType))
	}
	if !SupportedMIMETypes[mimeType] {
		return Image{}, fmt.Errorf("unsupported image type %q", mimeType)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return Image{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	return New(data, mimeType), nil
}

// Bytes returns a copy of the encoded payload.
func (i Image) Bytes() []byte {
	buf := make([]byte, len(i.data))
	copy(buf, i.data)
	return buf
}

// MIMEType returns the payload's media type, e.g. "image/png".
func (i Image) MIMEType() string { return i.mimeType }

// Size returns the payload length in bytes.
func (i Image) Size() int { return len(i.data) }

// IsZero reports whether the Image carries no payload.
func (i Image) IsZero() bool { return len(i.data) == 0 }

// Equal reports whether two images carry the same bytes and type.
func (i Image) Equal(other Image) bool {
	return i.mimeType == other.mimeType && bytes.Equal(i.data, other.data)
}

// Extension returns a file extension for the MIME type, including the dot.
func (i Image) Extension() string {
	switch i.mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
