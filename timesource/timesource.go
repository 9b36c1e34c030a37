// Package timesource provides the clock readings the word clock displays.
// A source that cannot produce a trustworthy reading says so instead of
// guessing; the display then keeps showing the last good phrase.
package timesource

import (
	"fmt"
	"time"
)

// Source produces the current local time on demand.
type Source interface {
	// Now returns the current time, or an error if the source has no valid
	// reading right now.
	Now() (time.Time, error)
	// Name identifies the source in logs and on the status page.
	Name() string
}

// System reads the kernel clock.  It always has an answer; whether the
// answer is any good is what the NTP monitor keeps an eye on.
type System struct{}

func (System) Now() (time.Time, error) { return time.Now(), nil }

func (System) Name() string { return "system" }

// Fallback tries each source in order and returns the first valid reading.
type Fallback struct {
	Sources []Source

	last string
}

func (f *Fallback) Now() (time.Time, error) {
	for _, s := range f.Sources {
		t, err := s.Now()
		if err == nil {
			f.last = s.Name()
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no source has a valid reading")
}

// Name returns the name of the source that served the last reading.
func (f *Fallback) Name() string {
	if f.last == "" {
		return "none"
	}
	return f.last
}
