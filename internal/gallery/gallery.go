// Package gallery persists saved products. The whole collection is the
// unit of persistence: every mutation re-encodes the full ordered list and
// hands it to a Backend as one opaque record.
package gallery

import (
	"context"
	"errors"

	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/listing"
)

var (
	// ErrNotFound is returned by FindByID for unknown ids.
	ErrNotFound = errors.New("gallery: product not found")

	// ErrPersistenceCorrupt marks a stored payload that could not be
	// decoded. Store.LoadAll recovers from it by starting empty.
	ErrPersistenceCorrupt = errors.New("gallery: stored payload is corrupt")
)

// DefaultRecordName is the name of the single durable record.
const DefaultRecordName = "productGallery"

// Product is one saved listing. Original is the photo as first uploaded
// and never changes; Current is the edited version at the time of saving.
type Product struct {
	ID       string
	Current  imaging.Image
	Original imaging.Image
	Insights listing.Insights
}

// Backend reads and writes the serialized gallery as a single blob.
type Backend interface {
	// Read returns the stored payload. ok is false when nothing has been
	// written yet.
	Read(ctx context.Context) (data []byte, ok bool, err error)

	// Write replaces the stored payload.
	Write(ctx context.Context, data []byte) error

	// Name identifies the backend in logs.
	Name() string
}
