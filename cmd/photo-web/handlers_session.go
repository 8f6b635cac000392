package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/assets"
	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/listing"
)

// GET /api/session
func (s *server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// POST /api/session/upload
//
// Accepts multipart form data with an "image" file, or the raw image as the
// request body.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)

	var (
		data     []byte
		declared string
		err      error
	)
	if file, header, ferr := r.FormFile("image"); ferr == nil {
		defer file.Close()
		declared = header.Header.Get("Content-Type")
		data, err = io.ReadAll(file)
	} else {
		declared = r.Header.Get("Content-Type")
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		httpError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}

	img, err := imaging.Decode(data, declared)
	if err != nil {
		httpError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	if err := s.session.Upload(img); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, s.session.Snapshot())
}

// POST /api/session/pick
//
// Opens the native file dialog and uploads the chosen photo.
func (s *server) handlePick(w http.ResponseWriter, r *http.Request) {
	path, err := s.pick()
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			respondJSON(w, http.StatusOK, map[string]any{"canceled": true})
			return
		}
		log.Error().Err(err).Msg("File picker failed")
		httpError(w, http.StatusInternalServerError, "file picker failed")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		httpError(w, http.StatusNotFound, "file not found")
		return
	}
	if info.Size() > imaging.MaxUploadSize {
		httpError(w, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "cannot read file")
		return
	}
	img, err := imaging.Decode(data, "")
	if err != nil {
		httpError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	if err := s.session.Upload(img); err != nil {
		respondError(w, err)
		return
	}
	log.Info().Str("file", filepath.Base(path)).Msg("Photo picked from disk")
	respondJSON(w, http.StatusAccepted, s.session.Snapshot())
}

func zenityPicker() (string, error) {
	return zenity.SelectFile(
		zenity.Title("Select a product photo"),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"},
			},
		},
	)
}

// POST /api/session/edit
//
// Body: {"preset": "white"} or {"scene": "a beach at sunset"} or {} to
// stage the product on a neutral background.
func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Preset string `json:"preset"`
		Scene  string `json:"scene"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var prompt string
	switch {
	case req.Preset != "":
		preset, ok := assets.PresetByID(req.Preset)
		if !ok {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("unknown preset %q", req.Preset))
			return
		}
		prompt = assets.PresetInstruction(preset)
	case req.Scene != "":
		prompt = assets.CustomSceneInstruction(req.Scene)
	}

	if err := s.session.ApplyBackgroundEdit(r.Context(), prompt); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// POST /api/session/undo
func (s *server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.respondAfter(w, s.session.Undo())
}

// POST /api/session/redo
func (s *server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.respondAfter(w, s.session.Redo())
}

// POST /api/session/revert
func (s *server) handleRevert(w http.ResponseWriter, r *http.Request) {
	s.respondAfter(w, s.session.Revert())
}

// POST /api/session/refine
//
// Body: {"condition": "New"|"Used", "hint": "..."}
func (s *server) handleRefine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Condition string `json:"condition"`
		Hint      string `json:"hint"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cond := listing.DefaultCondition
	if req.Condition != "" {
		var err error
		if cond, err = listing.ParseCondition(req.Condition); err != nil {
			httpError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	issued, err := s.session.Refine(r.Context(), cond, req.Hint)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"issued":  issued,
		"session": s.session.Snapshot(),
	})
}

// POST /api/session/save
func (s *server) handleSave(w http.ResponseWriter, r *http.Request) {
	product, err := s.session.Save(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":      product.ID,
		"session": s.session.Snapshot(),
	})
}

// POST /api/session/gallery
func (s *server) handleShowGallery(w http.ResponseWriter, r *http.Request) {
	s.session.ShowGallery()
	respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// POST /api/session/resume
func (s *server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.respondAfter(w, s.session.ResumeEditing())
}

// POST /api/session/start-over
func (s *server) handleStartOver(w http.ResponseWriter, r *http.Request) {
	s.session.StartOver()
	respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// GET /api/session/image/current
func (s *server) handleCurrentImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.session.CurrentImage()
	if err != nil {
		respondError(w, err)
		return
	}
	serveImage(w, r, img, "current")
}

// GET /api/session/image/original
func (s *server) handleOriginalImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.session.OriginalImage()
	if err != nil {
		respondError(w, err)
		return
	}
	serveImage(w, r, img, "original")
}

// GET /api/session/share
func (s *server) handleShare(w http.ResponseWriter, r *http.Request) {
	links, err := s.session.ShareLinks()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, links)
}

func (s *server) respondAfter(w http.ResponseWriter, err error) {
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.session.Snapshot())
}

// serveImage writes raw image bytes. ?download=1 asks the browser to save
// the file instead of displaying it.
func serveImage(w http.ResponseWriter, r *http.Request, img imaging.Image, name string) {
	w.Header().Set("Content-Type", img.MIMEType())
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+img.Extension()))
	}
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(img.Bytes()))
}
