package timesource

import (
	"fmt"
	"testing"
	"time"
)

type fakeSource struct {
	name string
	t    time.Time
	err  error
}

func (f *fakeSource) Now() (time.Time, error) { return f.t, f.err }
func (f *fakeSource) Name() string            { return f.name }

func TestFallback(t *testing.T) {
	good := time.Date(2025, 11, 16, 14, 15, 0, 0, time.Local)
	broken := &fakeSource{name: "broken", err: fmt.Errorf("no reading")}
	working := &fakeSource{name: "working", t: good}

	f := &Fallback{Sources: []Source{broken, working}}
	if got, want := f.Name(), "none"; got != want {
		t.Errorf("name before first reading: got %q, want %q", got, want)
	}

	got, err := f.Now()
	if err != nil {
		t.Fatalf("fallback with working source: %v", err)
	}
	if !got.Equal(good) {
		t.Errorf("reading: got %v, want %v", got, good)
	}
	if got, want := f.Name(), "working"; got != want {
		t.Errorf("name: got %q, want %q", got, want)
	}

	f = &Fallback{Sources: []Source{broken}}
	if _, err := f.Now(); err == nil {
		t.Error("fallback with only broken sources: expected error")
	}
}

func TestGPSDStaleness(t *testing.T) {
	g := &GPSD{MaxAge: time.Minute}
	if _, err := g.Now(); err == nil {
		t.Error("expected error before any fix")
	}

	fix := time.Date(2025, 11, 16, 13, 15, 0, 0, time.UTC)
	g.update(fix)
	got, err := g.Now()
	if err != nil {
		t.Fatalf("fresh fix: %v", err)
	}
	// The reading extrapolates from receipt time, so it should be within a
	// test-runtime epsilon of the fix.
	if diff := got.Sub(fix.Local()); diff < 0 || diff > time.Second {
		t.Errorf("reading drifted %v from fix", diff)
	}

	g.seen = time.Now().Add(-2 * time.Minute)
	if _, err := g.Now(); err == nil {
		t.Error("expected error for stale fix")
	}
}

func TestSystem(t *testing.T) {
	s := System{}
	got, err := s.Now()
	if err != nil {
		t.Fatalf("system source: %v", err)
	}
	if d := time.Since(got); d < 0 || d > time.Second {
		t.Errorf("system reading is %v away from now", d)
	}
	if got, want := s.Name(), "system"; got != want {
		t.Errorf("name: got %q, want %q", got, want)
	}
}
