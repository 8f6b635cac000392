// Package session orchestrates one editing session: the edit history of the
// current photo, its listing, and saving both into the gallery.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/history"
	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/listing"
)

var (
	// ErrBusy is returned when a background edit is requested while another
	// one is still running. Requests are rejected, never queued.
	ErrBusy = errors.New("an image edit is already in progress")

	// ErrNothingToSave is returned by Save when there is no image or the
	// listing is not ready.
	ErrNothingToSave = errors.New("nothing to save: an image and a finished listing are required")

	// ErrNoImage is returned by operations that need a current image.
	ErrNoImage = errors.New("no image loaded")

	// ErrNoListing is returned by share operations before a listing is ready.
	ErrNoListing = errors.New("no listing available")

	// ErrNotEditing is returned by image edits requested while the session
	// is not on the editing view.
	ErrNotEditing = errors.New("image edits are only available in the editor")

	// ErrStale is returned when an edit finished after the session moved on
	// to a different image. The result is dropped.
	ErrStale = errors.New("image changed while the edit was running")
)

// SavedNotice is the confirmation shown after a successful save.
const SavedNotice = "Product saved to gallery!"

// DefaultNoticeDuration is how long SavedNotice stays visible.
const DefaultNoticeDuration = 3 * time.Second

// View is the screen the session is on.
type View int

const (
	ViewStart View = iota
	ViewEditing
	ViewGallery
)

func (v View) String() string {
	switch v {
	case ViewStart:
		return "start"
	case ViewEditing:
		return "editing"
	case ViewGallery:
		return "gallery"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// MarshalText renders the view by name in JSON payloads.
func (v View) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText parses a view name written by MarshalText.
func (v *View) UnmarshalText(text []byte) error {
	for _, candidate := range []View{ViewStart, ViewEditing, ViewGallery} {
		if candidate.String() == string(text) {
			*v = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown view %q", text)
}

// Editor performs background edits on the remote image model.
type Editor interface {
	RemoveBackground(ctx context.Context, img imaging.Image) (imaging.Image, error)
	ReplaceBackground(ctx context.Context, img imaging.Image, scene string) (imaging.Image, error)
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock replaces time.Now, for notice expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator replaces the product id source.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// WithContext sets the context used for listing requests started in the
// background by Upload. Cancelling it abandons those requests.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.baseCtx = ctx }
}

// Controller is the top-level session state machine. All methods are safe
// for concurrent use; remote calls run without holding the state lock.
type Controller struct {
	editor  Editor
	listing *listing.Controller
	gallery *gallery.Store

	now            func() time.Time
	newID          func() string
	baseCtx        context.Context
	noticeDuration time.Duration

	// saveMu serialises Save so two concurrent first saves cannot mint
	// two ids for the same product.
	saveMu sync.Mutex

	mu          sync.Mutex
	view        View
	history     *history.History
	original    imaging.Image
	productID   string
	busy        bool
	editErr     error
	epoch       uint64 // bumped whenever the session switches image
	noticeUntil time.Time

	wg sync.WaitGroup
}

// New creates a session on the Start view.
func New(editor Editor, gen listing.Generator, store *gallery.Store, opts ...Option) *Controller {
	c := &Controller{
		editor:         editor,
		listing:        listing.NewController(gen),
		gallery:        store,
		now:            time.Now,
		newID:          uuid.NewString,
		baseCtx:        context.Background(),
		noticeDuration: DefaultNoticeDuration,
		history:        history.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload starts a new, unsaved product from img and begins generating its
// listing in the background.
func (c *Controller) Upload(img imaging.Image) error {
	if img.IsZero() {
		return ErrNoImage
	}

	c.mu.Lock()
	c.history.Seed(img)
	c.original = img
	c.productID = ""
	c.editErr = nil
	c.epoch++
	c.view = ViewEditing
	c.listing.Reset()
	// Taken under c.mu so a later Upload, SelectProduct or Refine always
	// supersedes this request, however late the goroutine starts.
	ticket := c.listing.BeginInitial()
	c.mu.Unlock()

	log.Info().
		Str("mime_type", img.MIMEType()).
		Int("bytes", img.Size()).
		Msg("New product image uploaded")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		// Failures land in the listing state; superseded results are dropped.
		_ = c.listing.Await(c.baseCtx, img, ticket)
	}()
	return nil
}

// SelectProduct opens a saved product for editing. The listing is restored
// from the saved record without a remote call, and later saves update the
// same gallery entry.
func (c *Controller) SelectProduct(id string) error {
	p, err := c.gallery.FindByID(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Seed(p.Current)
	c.original = p.Original
	c.productID = p.ID
	c.editErr = nil
	c.epoch++
	c.view = ViewEditing
	c.listing.Rehydrate(p.Insights)

	log.Info().Str("id", id).Msg("Saved product loaded for editing")
	return nil
}

// ShowGallery switches to the gallery view. The editing state is kept.
func (c *Controller) ShowGallery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = ViewGallery
}

// ResumeEditing returns to the editor with the state left behind.
func (c *Controller) ResumeEditing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.history.Len() == 0 {
		return ErrNoImage
	}
	c.view = ViewEditing
	return nil
}

// StartOver discards the session and returns to the Start view. Saved
// products are unaffected.
func (c *Controller) StartOver() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Clear()
	c.original = imaging.Image{}
	c.productID = ""
	c.editErr = nil
	c.epoch++
	c.view = ViewStart
	c.listing.Reset()
}

// ApplyBackgroundEdit edits the current image. An empty prompt stages the
// product on a neutral background; anything else is passed through as the
// scene instruction. On success the result is appended to the history.
func (c *Controller) ApplyBackgroundEdit(ctx context.Context, prompt string) error {
	c.mu.Lock()
	current, err := c.history.Current()
	if err != nil {
		c.mu.Unlock()
		return ErrNoImage
	}
	if c.view != ViewEditing {
		c.mu.Unlock()
		return ErrNotEditing
	}
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.editErr = nil
	epoch := c.epoch
	c.mu.Unlock()

	start := time.Now()
	prompt = strings.TrimSpace(prompt)
	var result imaging.Image
	if prompt == "" {
		result, err = c.editor.RemoveBackground(ctx, current)
	} else {
		result, err = c.editor.ReplaceBackground(ctx, current, prompt)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false

	if epoch != c.epoch {
		log.Debug().Msg("Discarding edit result for a replaced image")
		return ErrStale
	}
	if err == nil && result.IsZero() {
		err = errors.New("image model returned an empty image")
	}
	if err != nil {
		c.editErr = err
		log.Warn().Err(err).Dur("duration", time.Since(start)).Msg("Background edit failed")
		return err
	}

	c.history.Append(result)
	log.Info().
		Int("versions", c.history.Len()).
		Bool("staging", prompt == "").
		Dur("duration", time.Since(start)).
		Msg("Background edit applied")
	return nil
}

// Undo steps back one edit.
func (c *Controller) Undo() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Undo()
}

// Redo steps forward one edit.
func (c *Controller) Redo() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Redo()
}

// Revert moves back to the first version of the image. Later versions stay
// available to Redo until the next edit.
func (c *Controller) Revert() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Rewind()
}

// Refine regenerates the listing for the current image. It blocks until the
// call finishes; issued is false when the parameters match the listing
// already shown.
func (c *Controller) Refine(ctx context.Context, cond listing.Condition, hint string) (issued bool, err error) {
	c.mu.Lock()
	current, err := c.history.Current()
	if err != nil {
		c.mu.Unlock()
		return false, ErrNoImage
	}
	ticket, issued, err := c.listing.BeginRefine(cond, hint)
	c.mu.Unlock()
	if err != nil || !issued {
		return false, err
	}
	return true, c.listing.Await(ctx, current, ticket)
}

// Save writes the current image and listing to the gallery. The first save
// of a product mints its id; later saves update the same entry.
func (c *Controller) Save(ctx context.Context) (gallery.Product, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	current, err := c.history.Current()
	if err != nil {
		c.mu.Unlock()
		return gallery.Product{}, ErrNothingToSave
	}
	insights, ok := c.listing.Insights()
	if !ok {
		c.mu.Unlock()
		return gallery.Product{}, ErrNothingToSave
	}
	id := c.productID
	if id == "" {
		id = c.newID()
	}
	product := gallery.Product{
		ID:       id,
		Current:  current,
		Original: c.original,
		Insights: insights,
	}
	epoch := c.epoch
	c.mu.Unlock()

	if err := c.gallery.Upsert(ctx, product); err != nil {
		return gallery.Product{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Only remember the id if the session still shows the product saved.
	if epoch == c.epoch {
		c.productID = id
		c.noticeUntil = c.now().Add(c.noticeDuration)
	}
	return product, nil
}

// DeleteProduct removes a saved product. Deleting the product being edited
// forgets its id, so the next save creates a new entry.
func (c *Controller) DeleteProduct(ctx context.Context, id string) error {
	if err := c.gallery.Remove(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.productID == id {
		c.productID = ""
		log.Debug().Str("id", id).Msg("Deleted the loaded product, next save creates a new entry")
	}
	return nil
}

// Gallery returns the saved products in order.
func (c *Controller) Gallery() []gallery.Product {
	return c.gallery.List()
}

// Product looks up one saved product.
func (c *Controller) Product(id string) (gallery.Product, error) {
	return c.gallery.FindByID(id)
}

// CurrentImage returns the image at the history cursor.
func (c *Controller) CurrentImage() (imaging.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, err := c.history.Current()
	if err != nil {
		return imaging.Image{}, ErrNoImage
	}
	return img, nil
}

// OriginalImage returns the image as first uploaded, or as first saved for
// products loaded from the gallery.
func (c *Controller) OriginalImage() (imaging.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.original.IsZero() {
		return imaging.Image{}, ErrNoImage
	}
	return c.original, nil
}

// ShareText is the plain-text listing for the clipboard.
func (c *Controller) ShareText() (string, error) {
	ins, ok := c.listing.Insights()
	if !ok {
		return "", ErrNoListing
	}
	return listing.PlainText(ins), nil
}

// ShareLinks builds marketplace and social links for the current listing.
func (c *Controller) ShareLinks() (listing.ShareLinks, error) {
	ins, ok := c.listing.Insights()
	if !ok {
		return listing.ShareLinks{}, ErrNoListing
	}
	return listing.Links(ins), nil
}

// Wait blocks until background listing requests have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}
