package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fpang/photo-to-profit/internal/gallery"
	"github.com/fpang/photo-to-profit/internal/history"
	"github.com/fpang/photo-to-profit/internal/imaging"
	"github.com/fpang/photo-to-profit/internal/listing"
)

var (
	imageA = imaging.New([]byte("image-A"), "image/png")
	imageB = imaging.New([]byte("image-B"), "image/png")
)

// fakeEditor returns a new image per call. When gate is non-nil each call
// waits for a value on it.
type fakeEditor struct {
	mu      sync.Mutex
	calls   []string
	gate    chan struct{}
	started chan struct{}
	err     error
	result  imaging.Image
}

func (f *fakeEditor) RemoveBackground(ctx context.Context, img imaging.Image) (imaging.Image, error) {
	return f.do(ctx, "")
}

func (f *fakeEditor) ReplaceBackground(ctx context.Context, img imaging.Image, scene string) (imaging.Image, error) {
	return f.do(ctx, scene)
}

func (f *fakeEditor) do(ctx context.Context, scene string) (imaging.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, scene)
	n := len(f.calls)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return imaging.Image{}, f.err
	}
	if !f.result.IsZero() {
		return f.result, nil
	}
	return imaging.New([]byte(fmt.Sprintf("edit-%d", n)), "image/png"), nil
}

type fakeGenerator struct {
	calls atomic.Int32
	title string
	err   error
}

func (g *fakeGenerator) GenerateListing(ctx context.Context, img imaging.Image, req listing.Request) (*listing.Insights, error) {
	g.calls.Add(1)
	if g.err != nil {
		return nil, g.err
	}
	title := g.title
	if title == "" {
		title = "Widget"
	}
	return &listing.Insights{
		Title:           title,
		Description:     "**Great** widget\n- sturdy",
		PricingGuidance: listing.PricingGuidance{RecommendedPrice: "$20", PriceRationale: "recent sales"},
	}, nil
}

type harness struct {
	session *Controller
	store   *gallery.Store
	backend *gallery.MemoryBackend
	editor  *fakeEditor
	gen     *fakeGenerator
	now     time.Time
	ids     int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: gallery.NewMemoryBackend(nil),
		editor:  &fakeEditor{},
		gen:     &fakeGenerator{},
		now:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	store, err := gallery.Open(context.Background(), h.backend)
	if err != nil {
		t.Fatal(err)
	}
	h.store = store
	h.session = New(h.editor, h.gen, store,
		WithClock(func() time.Time { return h.now }),
		WithIDGenerator(func() string {
			h.ids++
			return fmt.Sprintf("id-%d", h.ids)
		}),
	)
	return h
}

// uploadReady uploads img and waits for the initial listing.
func (h *harness) uploadReady(t *testing.T, img imaging.Image) {
	t.Helper()
	if err := h.session.Upload(img); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	h.session.Wait()
	if phase := h.session.Snapshot().Listing.Phase; phase != listing.PhaseReady {
		t.Fatalf("listing phase = %v after upload, want ready", phase)
	}
}

func mustCurrent(t *testing.T, c *Controller) imaging.Image {
	t.Helper()
	img, err := c.CurrentImage()
	if err != nil {
		t.Fatalf("CurrentImage: %v", err)
	}
	return img
}

func TestEditUndoSaveScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.editor.result = imageB

	h.uploadReady(t, imageA)
	if snap := h.session.Snapshot(); snap.Listing.Insights.Title != "Widget" {
		t.Fatalf("title = %q", snap.Listing.Insights.Title)
	}

	if err := h.session.ApplyBackgroundEdit(ctx, "white background"); err != nil {
		t.Fatalf("ApplyBackgroundEdit: %v", err)
	}
	if !mustCurrent(t, h.session).Equal(imageB) {
		t.Error("current should be B after edit")
	}
	if !h.session.Snapshot().CanUndo {
		t.Error("CanUndo should be true after edit")
	}

	if err := h.session.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !mustCurrent(t, h.session).Equal(imageA) {
		t.Error("current should be A after undo")
	}

	if _, err := h.session.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	products := h.store.List()
	if len(products) != 1 {
		t.Fatalf("gallery has %d products, want 1", len(products))
	}
	if !products[0].Current.Equal(imageA) || !products[0].Original.Equal(imageA) {
		t.Error("saved product should have current=A and original=A")
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)

	first, err := h.session.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	data1, _, _ := h.backend.Read(ctx)
	second, err := h.session.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	data2, _, _ := h.backend.Read(ctx)

	if first.ID != second.ID {
		t.Errorf("ids differ: %s vs %s", first.ID, second.ID)
	}
	if h.store.Len() != 1 {
		t.Errorf("gallery size = %d, want 1", h.store.Len())
	}
	if string(data1) != string(data2) {
		t.Error("persisted record changed between identical saves")
	}
}

func TestSaveAfterEditUpdatesEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)

	saved, _ := h.session.Save(ctx)
	if err := h.session.ApplyBackgroundEdit(ctx, ""); err != nil {
		t.Fatal(err)
	}
	resaved, err := h.session.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if resaved.ID != saved.ID || h.store.Len() != 1 {
		t.Fatalf("second save created a new entry: %s vs %s, len %d", saved.ID, resaved.ID, h.store.Len())
	}
	p, _ := h.store.FindByID(saved.ID)
	if p.Current.Equal(imageA) || !p.Original.Equal(imageA) {
		t.Error("entry should hold the edited current image and the untouched original")
	}
}

func TestSelectProductThenSaveKeepsID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	err := h.store.Upsert(ctx, gallery.Product{
		ID:       "p1",
		Current:  imageB,
		Original: imageA,
		Insights: listing.Insights{Title: "Lamp", Description: "d", Condition: listing.ConditionNew, UserProvidedInfo: "brass"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := h.session.SelectProduct("p1"); err != nil {
		t.Fatalf("SelectProduct: %v", err)
	}
	snap := h.session.Snapshot()
	if snap.View != ViewEditing || snap.Listing.Phase != listing.PhaseReady || snap.ProductID != "p1" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if h.gen.calls.Load() != 0 {
		t.Error("selecting a saved product must not call the generator")
	}
	if orig, _ := h.session.OriginalImage(); !orig.Equal(imageA) {
		t.Error("original should come from the saved record")
	}

	// Stored refinement parameters are the dedup key.
	issued, err := h.session.Refine(ctx, listing.ConditionNew, "brass")
	if err != nil || issued {
		t.Errorf("Refine with stored params: issued=%v err=%v", issued, err)
	}

	if _, err := h.session.Save(ctx); err != nil {
		t.Fatal(err)
	}
	products := h.store.List()
	if len(products) != 1 || products[0].ID != "p1" {
		t.Errorf("gallery = %v, want exactly p1", products)
	}
}

func TestDeleteLoadedProductForgetsID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_ = h.store.Upsert(ctx, gallery.Product{ID: "p1", Current: imageA, Original: imageA, Insights: listing.Insights{Title: "t", Description: "d"}})

	if err := h.session.SelectProduct("p1"); err != nil {
		t.Fatal(err)
	}
	if err := h.session.DeleteProduct(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	saved, err := h.session.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if saved.ID == "p1" {
		t.Error("save after delete reused the deleted id")
	}
	if h.store.Len() != 1 {
		t.Errorf("gallery size = %d, want 1", h.store.Len())
	}
}

func TestDeleteOtherProductKeepsID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)
	saved, _ := h.session.Save(ctx)
	_ = h.store.Upsert(ctx, gallery.Product{ID: "other", Current: imageB, Original: imageB, Insights: listing.Insights{Title: "t", Description: "d"}})

	if err := h.session.DeleteProduct(ctx, "other"); err != nil {
		t.Fatal(err)
	}
	if h.session.Snapshot().ProductID != saved.ID {
		t.Error("deleting another product cleared the remembered id")
	}
}

func TestSaveRequiresImageAndReadyListing(t *testing.T) {
	ctx := context.Background()

	t.Run("no image", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.session.Save(ctx); !errors.Is(err, ErrNothingToSave) {
			t.Errorf("err = %v, want ErrNothingToSave", err)
		}
	})

	t.Run("listing failed", func(t *testing.T) {
		h := newHarness(t)
		h.gen.err = errors.New("quota")
		_ = h.session.Upload(imageA)
		h.session.Wait()
		if _, err := h.session.Save(ctx); !errors.Is(err, ErrNothingToSave) {
			t.Errorf("err = %v, want ErrNothingToSave", err)
		}
		if h.store.Len() != 0 {
			t.Error("nothing should be persisted")
		}
	})
}

func TestSaveFailureKeepsSessionUnsaved(t *testing.T) {
	h := newHarness(t)
	h.uploadReady(t, imageA)
	h.backend.WriteErr = errors.New("disk full")

	if _, err := h.session.Save(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	snap := h.session.Snapshot()
	if snap.ProductID != "" || snap.Notice != "" {
		t.Errorf("failed save left id=%q notice=%q", snap.ProductID, snap.Notice)
	}
}

func TestSavedNoticeExpires(t *testing.T) {
	h := newHarness(t)
	h.uploadReady(t, imageA)
	if _, err := h.session.Save(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := h.session.Snapshot().Notice; got != SavedNotice {
		t.Errorf("Notice = %q, want %q", got, SavedNotice)
	}
	h.now = h.now.Add(DefaultNoticeDuration)
	if got := h.session.Snapshot().Notice; got != "" {
		t.Errorf("Notice after expiry = %q", got)
	}
}

func TestUploadStartsNewProduct(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)
	first, _ := h.session.Save(ctx)

	h.uploadReady(t, imageB)
	snap := h.session.Snapshot()
	if snap.ProductID != "" || snap.Versions != 1 || snap.CanUndo {
		t.Errorf("upload did not reset session: %+v", snap)
	}
	second, _ := h.session.Save(ctx)
	if second.ID == first.ID || h.store.Len() != 2 {
		t.Errorf("second upload should save a new entry, got %s and %s", first.ID, second.ID)
	}
}

func TestApplyBackgroundEditBusy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)
	h.editor.gate = make(chan struct{})
	h.editor.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- h.session.ApplyBackgroundEdit(ctx, "marble") }()
	<-h.editor.started

	if !h.session.Snapshot().Busy {
		t.Error("snapshot should report busy while an edit runs")
	}
	if err := h.session.ApplyBackgroundEdit(ctx, "wood"); !errors.Is(err, ErrBusy) {
		t.Errorf("second edit err = %v, want ErrBusy", err)
	}

	close(h.editor.gate)
	if err := <-done; err != nil {
		t.Fatalf("first edit: %v", err)
	}
	if len(h.editor.calls) != 1 {
		t.Errorf("editor called %d times, want 1", len(h.editor.calls))
	}
	if snap := h.session.Snapshot(); snap.Busy || snap.Versions != 2 {
		t.Errorf("after edit: %+v", snap)
	}
}

func TestApplyBackgroundEditFailureLeavesHistory(t *testing.T) {
	h := newHarness(t)
	h.uploadReady(t, imageA)
	h.editor.err = errors.New("blocked")

	if err := h.session.ApplyBackgroundEdit(context.Background(), "beach"); err == nil {
		t.Fatal("expected error")
	}
	snap := h.session.Snapshot()
	if snap.Versions != 1 || snap.EditError == "" || snap.Busy {
		t.Errorf("after failed edit: %+v", snap)
	}
	if !mustCurrent(t, h.session).Equal(imageA) {
		t.Error("failed edit changed the current image")
	}
}

func TestApplyBackgroundEditRoutesStaging(t *testing.T) {
	h := newHarness(t)
	h.uploadReady(t, imageA)
	ctx := context.Background()

	_ = h.session.ApplyBackgroundEdit(ctx, "   ")
	_ = h.session.ApplyBackgroundEdit(ctx, "a beach")
	if len(h.editor.calls) != 2 || h.editor.calls[0] != "" || h.editor.calls[1] != "a beach" {
		t.Errorf("calls = %q", h.editor.calls)
	}
}

func TestApplyBackgroundEditStaleResultDropped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)
	h.editor.gate = make(chan struct{})
	h.editor.started = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() { done <- h.session.ApplyBackgroundEdit(ctx, "marble") }()
	<-h.editor.started

	if err := h.session.Upload(imageB); err != nil {
		t.Fatal(err)
	}
	close(h.editor.gate)
	if err := <-done; !errors.Is(err, ErrStale) {
		t.Errorf("err = %v, want ErrStale", err)
	}
	h.session.Wait()
	if snap := h.session.Snapshot(); snap.Versions != 1 || !mustCurrent(t, h.session).Equal(imageB) {
		t.Errorf("stale edit leaked into new session: %+v", snap)
	}
}

func TestApplyBackgroundEditWithoutImage(t *testing.T) {
	h := newHarness(t)
	if err := h.session.ApplyBackgroundEdit(context.Background(), "x"); !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
}

func TestUndoRedoRevert(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)

	if err := h.session.Undo(); !errors.Is(err, history.ErrNoOp) {
		t.Errorf("Undo at start = %v, want ErrNoOp", err)
	}
	_ = h.session.ApplyBackgroundEdit(ctx, "one")
	_ = h.session.ApplyBackgroundEdit(ctx, "two")

	if err := h.session.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if !mustCurrent(t, h.session).Equal(imageA) {
		t.Error("Revert should show the original")
	}
	if err := h.session.Redo(); err != nil {
		t.Fatalf("Redo after revert: %v", err)
	}
	snap := h.session.Snapshot()
	if snap.Cursor != 1 || snap.Versions != 3 {
		t.Errorf("cursor=%d versions=%d, want 1/3", snap.Cursor, snap.Versions)
	}
	if err := h.session.Revert(); err != nil {
		t.Fatal(err)
	}
	if err := h.session.Revert(); !errors.Is(err, history.ErrNoOp) {
		t.Errorf("second Revert = %v, want ErrNoOp", err)
	}
}

func TestRefineUsesCurrentImage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)

	var seen imaging.Image
	h.session.listing = listing.NewController(listing.GeneratorFunc(
		func(ctx context.Context, img imaging.Image, req listing.Request) (*listing.Insights, error) {
			seen = img
			return &listing.Insights{Title: "New " + string(req.Condition), Description: "d"}, nil
		}))
	h.editor.result = imageB
	_ = h.session.ApplyBackgroundEdit(ctx, "white")

	issued, err := h.session.Refine(ctx, listing.ConditionNew, "")
	if err != nil || !issued {
		t.Fatalf("Refine: issued=%v err=%v", issued, err)
	}
	if !seen.Equal(imageB) {
		t.Error("refine should describe the current image")
	}
	text, err := h.session.ShareText()
	if err != nil || text != "New New\n\nd" {
		t.Errorf("ShareText = %q, %v", text, err)
	}
}

func TestRefineWithoutImage(t *testing.T) {
	h := newHarness(t)
	if _, err := h.session.Refine(context.Background(), listing.ConditionNew, ""); !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
}

func TestViewNavigation(t *testing.T) {
	h := newHarness(t)
	if h.session.Snapshot().View != ViewStart {
		t.Fatal("new session should start on the start view")
	}
	if err := h.session.ResumeEditing(); !errors.Is(err, ErrNoImage) {
		t.Errorf("ResumeEditing with nothing loaded = %v", err)
	}

	h.uploadReady(t, imageA)
	h.session.ShowGallery()
	snap := h.session.Snapshot()
	if snap.View != ViewGallery || snap.Versions != 1 || snap.Listing.Phase != listing.PhaseReady {
		t.Errorf("gallery view should keep editing state: %+v", snap)
	}
	if err := h.session.ResumeEditing(); err != nil {
		t.Fatal(err)
	}
	if h.session.Snapshot().View != ViewEditing {
		t.Error("ResumeEditing should return to the editor")
	}

	h.session.StartOver()
	snap = h.session.Snapshot()
	if snap.View != ViewStart || snap.HasImage || snap.Listing.Phase != listing.PhaseIdle {
		t.Errorf("StartOver left state behind: %+v", snap)
	}
}

func TestShareRequiresListing(t *testing.T) {
	h := newHarness(t)
	if _, err := h.session.ShareText(); !errors.Is(err, ErrNoListing) {
		t.Errorf("ShareText err = %v", err)
	}
	if _, err := h.session.ShareLinks(); !errors.Is(err, ErrNoListing) {
		t.Errorf("ShareLinks err = %v", err)
	}
	h.uploadReady(t, imageA)
	links, err := h.session.ShareLinks()
	if err != nil || links.Text != "Widget\n\nGreat widget\nsturdy" {
		t.Errorf("ShareLinks = %+v, %v", links, err)
	}
}

func TestSelectUnknownProduct(t *testing.T) {
	h := newHarness(t)
	if err := h.session.SelectProduct("nope"); !errors.Is(err, gallery.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUploadRejectsEmptyImage(t *testing.T) {
	h := newHarness(t)
	if err := h.session.Upload(imaging.Image{}); !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
}

// echoGenerator titles each listing after the image bytes and condition.
// The initial request (default condition, no hint) waits for release.
type echoGenerator struct {
	release chan struct{}
}

func (g *echoGenerator) GenerateListing(ctx context.Context, img imaging.Image, req listing.Request) (*listing.Insights, error) {
	if req == (listing.Request{Condition: listing.DefaultCondition}) {
		<-g.release
	}
	return &listing.Insights{
		Title:       fmt.Sprintf("%s (%s)", img.Bytes(), req.Condition),
		Description: "d",
	}, nil
}

func newEchoHarness(t *testing.T) (*harness, *echoGenerator) {
	t.Helper()
	h := newHarness(t)
	gen := &echoGenerator{release: make(chan struct{})}
	h.session.listing = listing.NewController(gen)
	return h, gen
}

func listingTitle(t *testing.T, c *Controller) string {
	t.Helper()
	snap := c.Snapshot().Listing
	if snap.Phase != listing.PhaseReady || snap.Insights == nil {
		t.Fatalf("listing phase = %v, want ready", snap.Phase)
	}
	return snap.Insights.Title
}

func TestUploadOrdersListingRequestsAtCallTime(t *testing.T) {
	h, gen := newEchoHarness(t)

	if err := h.session.Upload(imageA); err != nil {
		t.Fatal(err)
	}
	first := h.session.Snapshot().Listing
	if first.Phase != listing.PhaseLoading {
		t.Errorf("phase right after Upload = %v, want loading", first.Phase)
	}
	if err := h.session.Upload(imageB); err != nil {
		t.Fatal(err)
	}
	second := h.session.Snapshot().Listing
	if second.Generation <= first.Generation {
		t.Errorf("second upload generation %d not after first %d", second.Generation, first.Generation)
	}

	close(gen.release)
	h.session.Wait()

	if !mustCurrent(t, h.session).Equal(imageB) {
		t.Fatal("current image should be the second upload")
	}
	if got := listingTitle(t, h.session); got != "image-B (Used)" {
		t.Errorf("listing title = %q, want the second upload's listing", got)
	}
}

func TestSelectProductSupersedesPendingUploadListing(t *testing.T) {
	h, gen := newEchoHarness(t)
	ctx := context.Background()
	saved := gallery.Product{
		ID:       "p1",
		Current:  imageB,
		Original: imageB,
		Insights: listing.Insights{Title: "Saved", Description: "stored"},
	}
	if err := h.store.Upsert(ctx, saved); err != nil {
		t.Fatal(err)
	}

	if err := h.session.Upload(imageA); err != nil {
		t.Fatal(err)
	}
	if err := h.session.SelectProduct("p1"); err != nil {
		t.Fatal(err)
	}
	close(gen.release)
	h.session.Wait()

	if got := listingTitle(t, h.session); got != "Saved" {
		t.Errorf("listing title = %q, want the saved listing", got)
	}
	product, err := h.session.Save(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if product.ID != "p1" || product.Insights.Title != "Saved" || !product.Current.Equal(imageB) {
		t.Errorf("saved product mixes sessions: %+v", product)
	}
}

func TestRefineSupersedesPendingInitialListing(t *testing.T) {
	h, gen := newEchoHarness(t)
	ctx := context.Background()

	if err := h.session.Upload(imageA); err != nil {
		t.Fatal(err)
	}
	issued, err := h.session.Refine(ctx, listing.ConditionNew, "")
	if err != nil || !issued {
		t.Fatalf("Refine: issued=%v err=%v", issued, err)
	}
	close(gen.release)
	h.session.Wait()

	if got := listingTitle(t, h.session); got != "image-A (New)" {
		t.Errorf("listing title = %q, want the refined listing", got)
	}
}

func TestApplyBackgroundEditRequiresEditingView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.uploadReady(t, imageA)

	h.session.ShowGallery()
	if err := h.session.ApplyBackgroundEdit(ctx, "marble"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("edit from gallery err = %v, want ErrNotEditing", err)
	}
	if len(h.editor.calls) != 0 {
		t.Errorf("editor called %d times from the gallery view", len(h.editor.calls))
	}

	if err := h.session.ResumeEditing(); err != nil {
		t.Fatal(err)
	}
	if err := h.session.ApplyBackgroundEdit(ctx, "marble"); err != nil {
		t.Fatalf("edit after resuming: %v", err)
	}
}

// displayedError carries separate display and diagnostic texts.
type displayedError struct{ shown, detail string }

func (e *displayedError) Error() string { return e.shown + ": " + e.detail }
func (e *displayedError) UserMessage() string { return e.shown }

func TestSnapshotShowsUserMessageForEditErrors(t *testing.T) {
	h := newHarness(t)
	h.uploadReady(t, imageA)
	h.editor.err = fmt.Errorf("edit: %w", &displayedError{shown: "Network error", detail: "dial tcp: secret detail"})

	if err := h.session.ApplyBackgroundEdit(context.Background(), "beach"); err == nil {
		t.Fatal("expected error")
	}
	if got := h.session.Snapshot().EditError; got != "Network error" {
		t.Errorf("EditError = %q, want the display message only", got)
	}
}
