package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/session"
)

// filePicker opens a native dialog and returns the chosen path.
type filePicker func() (string, error)

type server struct {
	session *session.Controller
	pick    filePicker
	router  chi.Router
}

func newServer(sess *session.Controller, pick filePicker) *server {
	s := &server{session: sess, pick: pick, router: chi.NewRouter()}
	s.routes()
	return s
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) routes() {
	r := s.router
	r.Use(withLogging, withCORS)

	r.Get("/api/presets", s.handlePresets)

	r.Route("/api/session", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Post("/upload", s.handleUpload)
		r.Post("/pick", s.handlePick)
		r.Post("/edit", s.handleEdit)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Post("/revert", s.handleRevert)
		r.Post("/refine", s.handleRefine)
		r.Post("/save", s.handleSave)
		r.Post("/gallery", s.handleShowGallery)
		r.Post("/resume", s.handleResume)
		r.Post("/start-over", s.handleStartOver)
		r.Get("/image/current", s.handleCurrentImage)
		r.Get("/image/original", s.handleOriginalImage)
		r.Get("/share", s.handleShare)
	})

	r.Route("/api/gallery", func(r chi.Router) {
		r.Get("/", s.handleGalleryList)
		r.Get("/{id}", s.handleGalleryGet)
		r.Post("/{id}/select", s.handleGallerySelect)
		r.Delete("/{id}", s.handleGalleryDelete)
		r.Get("/{id}/export", s.handleGalleryExport)
	})
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only local front ends may call the API.
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
