package session

import (
	"errors"

	"github.com/fpang/photo-to-profit/internal/listing"
)

// Snapshot is a read-only copy of session state for display.
type Snapshot struct {
	View      View             `json:"view"`
	HasImage  bool             `json:"hasImage"`
	Versions  int              `json:"versions"`
	Cursor    int              `json:"cursor"`
	CanUndo   bool             `json:"canUndo"`
	CanRedo   bool             `json:"canRedo"`
	Busy      bool             `json:"busy"`
	EditError string           `json:"editError,omitempty"`
	ProductID string           `json:"productId,omitempty"`
	Notice    string           `json:"notice,omitempty"`
	Listing   listing.Snapshot `json:"listing"`
	Saved     int              `json:"saved"`
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		View:      c.view,
		HasImage:  c.history.Len() > 0,
		Versions:  c.history.Len(),
		Cursor:    c.history.Cursor(),
		CanUndo:   c.history.CanUndo(),
		CanRedo:   c.history.CanRedo(),
		Busy:      c.busy,
		ProductID: c.productID,
	}
	if c.editErr != nil {
		snap.EditError = displayMessage(c.editErr)
	}
	if c.now().Before(c.noticeUntil) {
		snap.Notice = SavedNotice
	}
	c.mu.Unlock()

	snap.Listing = c.listing.Snapshot()
	snap.Saved = c.gallery.Len()
	return snap
}

// displayMessage is the text shown for err. Remote failures carry a message
// meant for users; their full error chain stays in the logs.
func displayMessage(err error) string {
	var shown interface{ UserMessage() string }
	if errors.As(err, &shown) {
		return shown.UserMessage()
	}
	return err.Error()
}
