package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/chat"
	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/history"
	"github.com/fpang/photo-to-profit/internal/listing"
	"github.com/fpang/photo-to-profit/internal/session"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrNoOp),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrStale),
		errors.Is(err, session.ErrNotEditing),
		errors.Is(err, listing.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, session.ErrNothingToSave),
		errors.Is(err, session.ErrNoImage),
		errors.Is(err, session.ErrNoListing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gallery.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrMalformedResponse),
		errors.Is(err, chat.ErrRemoteFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status statusFor picks. Remote failures
// surface the backend's own message.
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	var remote *chat.RemoteError
	if errors.As(err, &remote) {
		msg = remote.Message
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	httpError(w, status, msg)
}

// decodeJSON reads a JSON request body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
