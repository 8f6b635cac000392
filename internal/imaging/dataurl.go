package imaging

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURL renders the image as a self-describing data URI:
// data:<mime>;base64,<payload>.
func (i Image) DataURL() string {
	return "data:" + i.mimeType + ";base64," + base64.StdEncoding.EncodeToString(i.data)
}

// ParseDataURL is the inverse of Image.DataURL. Only base64 payloads are
// accepted, since that is the only form the gallery ever writes.
func ParseDataURL(s string) (Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return Image{}, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, fmt.Errorf("data URL has no payload separator")
	}
	mimeType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return Image{}, fmt.Errorf("data URL is not base64 encoded")
	}
	if mimeType == "" {
		return Image{}, fmt.Errorf("data URL has no MIME type")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return Image{data: data, mimeType: mimeType}, nil
}
