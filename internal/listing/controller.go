package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fpang/photo-to-profit/internal/imaging"
)

// ErrSuperseded is returned to the caller of a request whose result was
// discarded because a later request, Reset, or Rehydrate happened first.
var ErrSuperseded = errors.New("listing: request superseded")

// Phase is the lifecycle state of the listing for the current image.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase by name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhaseLoading, PhaseReady, PhaseFailed} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// Generator produces a listing for an image. Implementations talk to the
// remote model; the controller never retries.
type Generator interface {
	GenerateListing(ctx context.Context, img imaging.Image, req Request) (*Insights, error)
}

// Snapshot is a point-in-time copy of controller state.
type Snapshot struct {
	Phase      Phase     `json:"phase"`
	Insights   *Insights `json:"insights,omitempty"`
	LastGood   *Insights `json:"lastGood,omitempty"`
	Error      string    `json:"error,omitempty"`
	Generation uint64    `json:"generation"`
}

// Controller owns the listing for the image being edited.
//
// Every request is tagged with a generation number taken when it is issued.
// A result is applied only if its generation is still the latest when it
// arrives; anything older is dropped, whatever order the calls complete in.
// The counter only ever increases, including across Reset.
type Controller struct {
	gen Generator

	mu         sync.Mutex
	phase      Phase
	current    *Insights // Ready value, kept as last-good after a failure
	lastErr    error
	generation uint64
	applied    *Request // params of the last successfully applied result
}

// NewController creates an idle controller backed by gen.
func NewController(gen Generator) *Controller {
	return &Controller{gen: gen}
}

// Ticket identifies one issued request. A ticket is taken synchronously by
// Begin* so callers can fix the request's place in the ordering before the
// remote call starts on another goroutine.
type Ticket struct {
	generation uint64
	req        Request
}

// Generation is the generation number assigned when the ticket was taken.
func (t Ticket) Generation() uint64 { return t.generation }

// RequestInitial fetches a listing for img with the default condition and no
// hint. It blocks until the call finishes. The returned error is the remote
// failure, ErrSuperseded, or nil.
func (c *Controller) RequestInitial(ctx context.Context, img imaging.Image) error {
	return c.Await(ctx, img, c.BeginInitial())
}

// BeginInitial marks an initial request as issued and returns its ticket.
// Any request begun earlier is superseded from this point on.
func (c *Controller) BeginInitial() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.begin(Request{Condition: DefaultCondition})
}

// Refine regenerates the listing for img with new parameters. When
// (condition, hint) equal the parameters of the last successfully applied
// result no call is made and issued is false. A failed attempt does not
// count as applied, so retrying the same parameters calls again.
func (c *Controller) Refine(ctx context.Context, img imaging.Image, cond Condition, hint string) (issued bool, err error) {
	t, issued, err := c.BeginRefine(cond, hint)
	if err != nil || !issued {
		return false, err
	}
	return true, c.Await(ctx, img, t)
}

// BeginRefine is the synchronous half of Refine. It validates the
// parameters, applies the dedup rule and, when a call is needed, returns
// the ticket to pass to Await.
func (c *Controller) BeginRefine(cond Condition, hint string) (Ticket, bool, error) {
	if cond != ConditionNew && cond != ConditionUsed {
		return Ticket{}, false, fmt.Errorf("listing: invalid condition %q", cond)
	}
	req := Request{Condition: cond, Hint: hint}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applied != nil && *c.applied == req {
		log.Debug().
			Str("condition", string(cond)).
			Int("hint_length", len(hint)).
			Msg("Refinement parameters unchanged, skipping listing call")
		return Ticket{}, false, nil
	}
	return c.begin(req), true, nil
}

// begin must be called with c.mu held.
func (c *Controller) begin(req Request) Ticket {
	c.generation++
	c.phase = PhaseLoading
	c.lastErr = nil
	return Ticket{generation: c.generation, req: req}
}

// Await runs the request identified by t against img and applies the result
// if t is still the latest ticket when the call returns.
func (c *Controller) Await(ctx context.Context, img imaging.Image, t Ticket) error {
	req := t.req
	issuedAt := t.generation

	log.Debug().
		Uint64("generation", issuedAt).
		Str("condition", string(req.Condition)).
		Int("hint_length", len(req.Hint)).
		Msg("Issuing listing request")

	result, err := c.gen.GenerateListing(ctx, img, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if issuedAt != c.generation {
		log.Debug().
			Uint64("generation", issuedAt).
			Uint64("latest", c.generation).
			Bool("failed", err != nil).
			Msg("Discarding superseded listing result")
		return ErrSuperseded
	}

	if err == nil && result == nil {
		err = errors.New("listing: generator returned no result")
	}
	if err != nil {
		c.phase = PhaseFailed
		c.lastErr = err
		log.Warn().Err(err).Uint64("generation", issuedAt).Msg("Listing request failed")
		return err
	}

	applied := result.Clone()
	applied.Condition = req.Condition
	applied.UserProvidedInfo = req.Hint
	c.current = &applied
	c.applied = &req
	c.phase = PhaseReady

	log.Info().
		Uint64("generation", issuedAt).
		Str("title", applied.Title).
		Int("sources", len(applied.GroundingChunks)).
		Msg("Listing applied")
	return nil
}

// Reset returns to Idle and forgets the current listing. In-flight requests
// are superseded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.phase = PhaseIdle
	c.current = nil
	c.lastErr = nil
	c.applied = nil
}

// Rehydrate installs a previously saved listing as Ready without calling
// the generator. In-flight requests are superseded.
func (c *Controller) Rehydrate(in Insights) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	restored := in.Clone()
	params := restored.Params()
	c.current = &restored
	c.applied = &params
	c.lastErr = nil
	c.phase = PhaseReady
}

// Insights returns the listing when the controller is Ready.
func (c *Controller) Insights() (Insights, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseReady || c.current == nil {
		return Insights{}, false
	}
	return c.current.Clone(), true
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the failure message when the controller is Failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseFailed {
		return nil
	}
	return c.lastErr
}

// Generation returns the number of the most recently issued request.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Snapshot copies the controller state for display.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Phase: c.phase, Generation: c.generation}
	if c.current != nil {
		good := c.current.Clone()
		snap.LastGood = &good
		if c.phase == PhaseReady {
			ready := c.current.Clone()
			snap.Insights = &ready
		}
	}
	if c.phase == PhaseFailed && c.lastErr != nil {
		// Remote failures expose a user-facing message; prefer it.
		var shown interface{ UserMessage() string }
		if errors.As(c.lastErr, &shown) {
			snap.Error = shown.UserMessage()
		} else {
			snap.Error = c.lastErr.Error()
		}
	}
	return snap
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, img imaging.Image, req Request) (*Insights, error)

// GenerateListing calls f.
func (f GeneratorFunc) GenerateListing(ctx context.Context, img imaging.Image, req Request) (*Insights, error) {
	return f(ctx, img, req)
}
