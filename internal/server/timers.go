package server

import (
	"context"
	"sync"
	"time"

	"github.com/sadopc/timepie/internal/chart"
	"github.com/sadopc/timepie/internal/store"
	"github.com/sadopc/timepie/internal/timer"
)

// Timers holds one timer session per owner. There is no poll loop on the
// server; elapsed time is read from the clock whenever a status is asked for.
type Timers struct {
	mu       sync.Mutex
	store    timer.EntryStore
	clock    timer.Clock
	sessions map[string]*timer.Session
}

func NewTimers(s timer.EntryStore, clock timer.Clock) *Timers {
	if clock == nil {
		clock = time.Now
	}
	return &Timers{store: s, clock: clock, sessions: make(map[string]*timer.Session)}
}

// TimerStatus is the API view of a session.
type TimerStatus struct {
	State          string     `json:"state"`
	Category       string     `json:"category,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	Elapsed        string     `json:"elapsed"`
}

// session returns ownerID's session, creating an idle one. Called with mu held.
func (t *Timers) session(ownerID string) *timer.Session {
	s, ok := t.sessions[ownerID]
	if !ok {
		s = timer.New(t.store, ownerID, t.clock)
		t.sessions[ownerID] = s
	}
	return s
}

func (t *Timers) status(s *timer.Session) TimerStatus {
	if s.Running() {
		s.Tick(s.Generation(), t.clock())
	}
	st := TimerStatus{
		State:          s.State().String(),
		ElapsedSeconds: s.Elapsed(),
		Elapsed:        chart.FormatTime(s.Elapsed()),
	}
	if s.Running() {
		started := s.StartedAt().UTC()
		st.Category = s.Category()
		st.StartedAt = &started
	}
	return st
}

// Status reports ownerID's timer.
func (t *Timers) Status(ownerID string) TimerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status(t.session(ownerID))
}

// Start starts ownerID's timer on category.
func (t *Timers) Start(ownerID, category string) (TimerStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.session(ownerID)
	if _, err := s.Start(category); err != nil {
		return TimerStatus{}, err
	}
	return t.status(s), nil
}

// Stop stops ownerID's timer and returns the saved entry. When saving fails
// the timer keeps running.
func (t *Timers) Stop(ctx context.Context, ownerID string) (*store.TimeEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, _, err := t.session(ownerID).Stop(ctx)
	if entry != nil {
		// The entry is saved; a failed list refresh does not matter here.
		return entry, nil
	}
	return nil, err
}
