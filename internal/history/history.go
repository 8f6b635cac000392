// Package history tracks the versions of a product photo produced during one
// editing session as a linear undo/redo stack.
//
// The stack never branches: appending while the cursor sits below the top
// discards everything above it first, so redo is only ever possible
// immediately after an undo.
package history

import (
	"errors"

	"github.com/fpang/photo-to-profit/internal/imaging"
)

var (
	// ErrNoOp is returned by Undo, Redo and Rewind when the cursor is
	// already at the relevant boundary. Callers usually render this as a
	// disabled control rather than an error.
	ErrNoOp = errors.New("history: nothing to do")

	// ErrEmpty is returned by Current before the first Seed.
	ErrEmpty = errors.New("history: empty")
)

// History is an ordered stack of image versions with a cursor. The zero
// value is an empty history. It is not safe for concurrent use; the session
// layer serialises access.
type History struct {
	versions []imaging.Image
	cursor   int
}

// New returns an empty history.
func New() *History {
	return &History{cursor: -1}
}

// Seed discards all prior versions and starts over with img at cursor 0.
func (h *History) Seed(img imaging.Image) {
	h.versions = []imaging.Image{img}
	h.cursor = 0
}

// Append truncates any versions above the cursor, pushes img, and moves the
// cursor to it. Appending to an empty history behaves like Seed.
func (h *History) Append(img imaging.Image) {
	if h.Len() == 0 {
		h.Seed(img)
		return
	}
	h.versions = append(h.versions[:h.cursor+1:h.cursor+1], img)
	h.cursor = len(h.versions) - 1
}

// Undo moves the cursor one version back.
func (h *History) Undo() error {
	if !h.CanUndo() {
		return ErrNoOp
	}
	h.cursor--
	return nil
}

// Redo moves the cursor one version forward.
func (h *History) Redo() error {
	if !h.CanRedo() {
		return ErrNoOp
	}
	h.cursor++
	return nil
}

// Rewind moves the cursor back to the seeded version without truncating, so
// the later versions stay reachable through Redo.
func (h *History) Rewind() error {
	if h.Len() == 0 || h.cursor == 0 {
		return ErrNoOp
	}
	h.cursor = 0
	return nil
}

// Current returns the version under the cursor.
func (h *History) Current() (imaging.Image, error) {
	if h.Len() == 0 {
		return imaging.Image{}, ErrEmpty
	}
	return h.versions[h.cursor], nil
}

// Original returns the version the history was seeded with.
func (h *History) Original() (imaging.Image, error) {
	if h.Len() == 0 {
		return imaging.Image{}, ErrEmpty
	}
	return h.versions[0], nil
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return h.Cursor() > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return h.Cursor() < h.Len()-1 }

// Len returns the number of versions held.
func (h *History) Len() int { return len(h.versions) }

// Cursor returns the index of the current version, or -1 when empty.
func (h *History) Cursor() int {
	if len(h.versions) == 0 {
		return -1
	}
	return h.cursor
}

// Clear returns the history to its empty state.
func (h *History) Clear() {
	h.versions = nil
	h.cursor = -1
}
