// Package rating manages the at-most-one-rating-per-user workflow for a
// single tea. A coordinator is created per viewed tea, checks the caller's
// prior rating, and allows exactly one submission attempt at a time. The
// remote authority remains the final gate against double-rating; the
// coordinator keeps the client from even trying.
package rating

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Kacegz/teactl/pkg/catalog"
)

// State is the coordinator's position in the rating workflow.
type State int

const (
	// StateUnknown means the prior-rating check has not resolved yet.
	StateUnknown State = iota
	// StateChecked means the prior-rating check resolved; submission is
	// possible only when no prior rating exists.
	StateChecked
	// StateSubmitting means a submission is in flight.
	StateSubmitting
	// StateSettled means a rating was submitted in this view's lifetime.
	// Terminal: no resubmission path exists.
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateChecked:
		return "checked"
	case StateSubmitting:
		return "submitting"
	case StateSettled:
		return "settled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInvalidScore rejects scores outside 1..5 before any network call.
	ErrInvalidScore = errors.New("score must be between 1 and 5")
	// ErrAlreadyRated rejects submission from a terminal state. No network
	// call is made.
	ErrAlreadyRated = errors.New("already rated")
	// ErrNotChecked rejects submission before the prior-rating check resolved.
	ErrNotChecked = errors.New("prior rating not yet checked")
	// ErrSubmitInFlight rejects a second submission while one is in flight.
	ErrSubmitInFlight = errors.New("submission already in flight")
)

// API is the slice of the remote authority the coordinator needs.
// *catalog.Client satisfies it.
type API interface {
	RatingStatus(ctx context.Context, id string) (catalog.RatingStatus, error)
	SubmitRating(ctx context.Context, id string, score int) error
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	State    State
	HasRated bool
	// Value is the known rating: the prior one after Check, or the
	// submitted one after Settled. 0 when none.
	Value int
}

// Coordinator runs the rating state machine for one tea.
type Coordinator struct {
	api     API
	teaID   string
	refresh func(context.Context)

	mu       sync.Mutex
	state    State
	hasRated bool
	value    int
}

// New creates a coordinator for one tea. refresh is invoked exactly once
// after a successful submission so the view can reload the aggregate
// average; it may be nil.
func New(api API, teaID string, refresh func(context.Context)) *Coordinator {
	return &Coordinator{
		api:     api,
		teaID:   teaID,
		refresh: refresh,
	}
}

// Check queries the caller's prior rating and moves to StateChecked.
//
// A failed query is treated as "no prior rating" so a submission attempt
// stays possible; the authority still rejects an actual double-rating.
// A canceled context discards the result: the view was torn down and its
// state must not be written.
func (c *Coordinator) Check(ctx context.Context) Status {
	status, err := c.api.RatingStatus(ctx, c.teaID)

	if ctx.Err() != nil {
		return c.Snapshot()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUnknown {
		// A submission already advanced the machine past the check.
		return c.statusLocked()
	}

	c.state = StateChecked
	if err == nil && status.HasRated() {
		c.hasRated = true
		c.value = status.Rating
	}
	return c.statusLocked()
}

// Submit issues the rating call with the chosen score.
//
// Permitted only from StateChecked with no prior rating; every other state
// rejects locally without a network call. On success the coordinator
// settles and triggers the aggregate refresh exactly once; on failure it
// reverts to StateChecked so the user may try again.
func (c *Coordinator) Submit(ctx context.Context, score int) error {
	if score < 1 || score > 5 {
		return ErrInvalidScore
	}

	c.mu.Lock()
	switch c.state {
	case StateUnknown:
		c.mu.Unlock()
		return ErrNotChecked
	case StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	case StateSettled:
		c.mu.Unlock()
		return ErrAlreadyRated
	}
	if c.hasRated {
		c.mu.Unlock()
		return ErrAlreadyRated
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	if err := c.api.SubmitRating(ctx, c.teaID, score); err != nil {
		c.mu.Lock()
		c.state = StateChecked
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.state = StateSettled
	c.hasRated = true
	c.value = score
	c.mu.Unlock()

	if c.refresh != nil {
		c.refresh(ctx)
	}
	return nil
}

// Snapshot returns the current status.
func (c *Coordinator) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *Coordinator) statusLocked() Status {
	return Status{
		State:    c.state,
		HasRated: c.hasRated,
		Value:    c.value,
	}
}
