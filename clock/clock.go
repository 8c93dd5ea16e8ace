// Package clock provides an injectable wall clock and id generator.
//
// The engine and every component that needs "now" or a fresh id take a
// Clock rather than calling time.Now/uuid.New directly, so tests can drive
// time forward deterministically and assert on generated ids (design note
// "Global clock / ids" — never read from module globals).
package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock is the injectable time + id source.
type Clock interface {
	Now() time.Time
	NewID() string
}

// System is the production Clock: wall-clock time, random UUIDs.
type System struct{}

// New returns the production Clock.
func New() Clock { return System{} }

func (System) Now() time.Time { return time.Now().UTC() }
func (System) NewID() string  { return uuid.NewString() }

// Fixed is a deterministic Clock for tests: Now() always returns the same
// instant unless advanced; NewID() replays a predetermined sequence of ids,
// falling back to a random UUID once exhausted.
type Fixed struct {
	t      time.Time
	ids    []string
	idNext int
}

// NewFixed builds a Fixed clock starting at t, optionally seeded with ids to
// hand out in order from NewID.
func NewFixed(t time.Time, ids ...string) *Fixed {
	return &Fixed{t: t, ids: ids}
}

func (f *Fixed) Now() time.Time { return f.t }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }

// Set pins the clock to t.
func (f *Fixed) Set(t time.Time) { f.t = t }

func (f *Fixed) NewID() string {
	if f.idNext < len(f.ids) {
		id := f.ids[f.idNext]
		f.idNext++
		return id
	}
	id := uuid.NewString()
	f.idNext++
	return id
}
