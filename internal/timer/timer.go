// Package timer tracks a single running timer and turns it into a stored
// entry when it stops.
package timer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sadopc/timepie/internal/shared"
	"github.com/sadopc/timepie/internal/store"
)

// State is the timer state.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// EntryStore is the slice of the store a session needs.
type EntryStore interface {
	InsertEntry(ownerID, category string, seconds int64, color string) (*store.TimeEntry, error)
	ListEntries(ownerID string, f store.EntryFilter) ([]store.TimeEntry, error)
}

// Session is one owner's timer. It is not safe for concurrent use; the
// terminal UI drives it from its update loop and the server guards it with
// a lock.
type Session struct {
	store   EntryStore
	ownerID string
	clock   Clock

	state    State
	category string
	start    time.Time
	elapsed  int64
	gen      uint64
}

// New creates an idle session for ownerID. A nil clock uses time.Now.
func New(s EntryStore, ownerID string, clock Clock) *Session {
	if clock == nil {
		clock = time.Now
	}
	return &Session{store: s, ownerID: ownerID, clock: clock}
}

// Start moves the session to Running against category. It returns the poll
// generation that Tick must be called with.
func (s *Session) Start(category string) (uint64, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return 0, fmt.Errorf("%w: enter a category before starting the timer", shared.ErrValidation)
	}
	if s.state == Running {
		return 0, fmt.Errorf("%w: %s", shared.ErrTimerRunning, s.category)
	}

	s.state = Running
	s.category = category
	s.start = s.clock()
	s.elapsed = 0
	s.gen++
	return s.gen, nil
}

// Tick records the elapsed whole seconds at now. Ticks from a poll that was
// cancelled (an older generation) or that arrive while idle are dropped and
// reported as false.
func (s *Session) Tick(gen uint64, now time.Time) bool {
	if s.state != Running || gen != s.gen {
		return false
	}
	s.elapsed = elapsedSeconds(s.start, now)
	return true
}

// Stop cancels the poll, stores an entry with the elapsed seconds and a
// random colour, and returns it together with the owner's refreshed entry
// list. When the insert fails the session keeps running so the time is not
// lost.
func (s *Session) Stop(ctx context.Context) (*store.TimeEntry, []store.TimeEntry, error) {
	if s.state != Running {
		return nil, nil, shared.ErrTimerIdle
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.elapsed = elapsedSeconds(s.start, s.clock())
	entry, err := s.store.InsertEntry(s.ownerID, s.category, s.elapsed, RandomColor())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}

	s.state = Idle
	s.gen++

	entries, err := s.store.ListEntries(s.ownerID, store.EntryFilter{})
	if err != nil {
		return entry, nil, fmt.Errorf("%w: %w", shared.ErrStorage, err)
	}
	return entry, entries, nil
}

func (s *Session) State() State         { return s.state }
func (s *Session) Running() bool        { return s.state == Running }
func (s *Session) Category() string     { return s.category }
func (s *Session) StartedAt() time.Time { return s.start }
func (s *Session) Generation() uint64   { return s.gen }

// Elapsed returns the seconds recorded by the last poll.
func (s *Session) Elapsed() int64 {
	if s.state != Running {
		return 0
	}
	return s.elapsed
}

func elapsedSeconds(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// RandomColor returns a random "#RRGGBB" colour for a new entry. It is
// unrelated to the chart palette.
func RandomColor() string {
	return fmt.Sprintf("#%06X", rand.IntN(0x1000000))
}
