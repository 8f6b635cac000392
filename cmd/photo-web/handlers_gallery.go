package main

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/assets"
	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/listing"
)

type galleryItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type productDetail struct {
	ID                   string             `json:"id"`
	ImageDataURL         string             `json:"imageDataUrl"`
	OriginalImageDataURL string             `json:"originalImageDataUrl"`
	Insights             listing.Insights   `json:"insights"`
	Share                listing.ShareLinks `json:"share"`
}

// GET /api/presets
func (s *server) handlePresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, assets.BackgroundPresets)
}

// GET /api/gallery
//
// Lists saved products with small JPEG thumbnails instead of the full images.
func (s *server) handleGalleryList(w http.ResponseWriter, r *http.Request) {
	products := s.session.Gallery()
	items := make([]galleryItem, 0, len(products))
	for _, p := range products {
		item := galleryItem{
			ID:    p.ID,
			Title: listing.StripMarkdown(p.Insights.Title),
			Price: p.Insights.PricingGuidance.RecommendedPrice,
		}
		thumb, err := imaging.Thumbnail(p.Current, imaging.DefaultThumbnailMaxDimension)
		if err != nil {
			log.Warn().Err(err).Str("id", p.ID).Msg("Failed to generate thumbnail")
		} else {
			item.Thumbnail = thumb.DataURL()
		}
		items = append(items, item)
	}
	respondJSON(w, http.StatusOK, items)
}

// GET /api/gallery/{id}
func (s *server) handleGalleryGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.session.Product(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, productDetail{
		ID:                   p.ID,
		ImageDataURL:         p.Current.DataURL(),
		OriginalImageDataURL: p.Original.DataURL(),
		Insights:             p.Insights,
		Share:                listing.Links(p.Insights),
	})
}

// POST /api/gallery/{id}/select
func (s *server) handleGallerySelect(w http.ResponseWriter, r *http.Request) {
	s.respondAfter(w, s.session.SelectProduct(chi.URLParam(r, "id")))
}

// DELETE /api/gallery/{id}
func (s *server) handleGalleryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.session.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/gallery/{id}/export
func (s *server) handleGalleryExport(w http.ResponseWriter, r *http.Request) {
	p, err := s.session.Product(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	// Buffer so a failed export can still report an error status.
	var buf bytes.Buffer
	if err := gallery.ExportZip(&buf, p); err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "product-"+p.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Warn().Err(err).Str("id", p.ID).Msg("Failed to write export")
	}
}
