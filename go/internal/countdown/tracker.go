package countdown

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/footy-auction/go/internal/models"
)

// Phase is where a snapshot consumer is in its countdown.
type Phase string

const (
	PhaseAwaitingFirstSnapshot Phase = "AWAITING_FIRST_SNAPSHOT"
	PhaseCountingDown          Phase = "COUNTING_DOWN"
	PhaseEndedDisplayed        Phase = "ENDED_DISPLAYED"
)

// Tracker is the client side of the countdown. It animates the remaining time
// locally from the last snapshot and only trusts the server for the anchor.
// A Tracker is not safe for concurrent use.
type Tracker struct {
	clock     clockwork.Clock
	phase     Phase
	snapshot  models.Snapshot
	fetchedAt time.Time
	seen      bool
}

// NewTracker creates a tracker awaiting its first snapshot.
func NewTracker(clock clockwork.Clock) *Tracker {
	return &Tracker{
		clock: clock,
		phase: PhaseAwaitingFirstSnapshot,
	}
}

// Observe feeds a freshly fetched snapshot and returns the resulting phase.
//
// A snapshot with a new version restarts the countdown, even after the end was
// displayed. A snapshot with the same version only re-anchors local time.
// A snapshot without a deadline keeps the tracker awaiting.
func (t *Tracker) Observe(snap models.Snapshot) Phase {
	versionChanged := !t.seen || snap.Version != t.snapshot.Version

	t.snapshot = snap
	t.fetchedAt = t.clock.Now()
	t.seen = true

	switch {
	case snap.Deadline == nil:
		t.phase = PhaseAwaitingFirstSnapshot
		return t.phase
	case versionChanged:
		t.phase = PhaseCountingDown
	case t.phase == PhaseAwaitingFirstSnapshot:
		t.phase = PhaseCountingDown
	}
	return t.Tick()
}

// Tick advances the phase using local elapsed time only.
func (t *Tracker) Tick() Phase {
	if t.phase == PhaseCountingDown && t.Remaining() <= 0 {
		t.phase = PhaseEndedDisplayed
	}
	return t.phase
}

// Remaining is the locally computed time left, zero once the deadline passed or
// when no deadline is known.
func (t *Tracker) Remaining() time.Duration {
	if !t.seen || t.snapshot.Deadline == nil {
		return 0
	}
	return t.snapshot.RemainingAt(t.clock.Since(t.fetchedAt))
}

// Phase returns the current phase without advancing it.
func (t *Tracker) Phase() Phase {
	return t.phase
}

// Version returns the version of the last observed snapshot, or -1.
func (t *Tracker) Version() int64 {
	if !t.seen {
		return -1
	}
	return t.snapshot.Version
}

// Snapshot returns the last observed snapshot.
func (t *Tracker) Snapshot() (models.Snapshot, bool) {
	return t.snapshot, t.seen
}
