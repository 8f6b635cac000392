package gallery

import (
	"encoding/json"
	"fmt"

	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/listing"
)

// record is the persisted form of a Product. Images are data URIs so the
// record is self-contained text.
type record struct {
	ID                   string           `json:"id"`
	ImageDataURL         string           `json:"imageDataUrl"`
	OriginalImageDataURL string           `json:"originalImageDataUrl"`
	Insights             listing.Insights `json:"insights"`
}

// Encode serializes products in order.
func Encode(products []Product) ([]byte, error) {
	records := make([]record, 0, len(products))
	for _, p := range products {
		ins := p.Insights.Clone()
		if ins.GroundingChunks == nil {
			ins.GroundingChunks = []listing.GroundingChunk{}
		}
		records = append(records, record{
			ID:                   p.ID,
			ImageDataURL:         p.Current.DataURL(),
			OriginalImageDataURL: p.Original.DataURL(),
			Insights:             ins,
		})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gallery: %w", err)
	}
	return data, nil
}

// Decode parses a payload written by Encode. Any structural problem is
// reported as ErrPersistenceCorrupt.
func Decode(data []byte) ([]Product, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceCorrupt, err)
	}

	products := make([]Product, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrPersistenceCorrupt, i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrPersistenceCorrupt, r.ID)
		}
		seen[r.ID] = true

		current, err := imaging.ParseDataURL(r.ImageDataURL)
		if err != nil {
			return nil, fmt.Errorf("%w: record %q image: %v", ErrPersistenceCorrupt, r.ID, err)
		}
		original, err := imaging.ParseDataURL(r.OriginalImageDataURL)
		if err != nil {
			return nil, fmt.Errorf("%w: record %q original image: %v", ErrPersistenceCorrupt, r.ID, err)
		}
		products = append(products, Product{
			ID:       r.ID,
			Current:  current,
			Original: original,
			Insights: r.Insights,
		})
	}
	return products, nil
}
