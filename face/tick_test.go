package face

import (
	"context"
	"testing"
	"time"
)

func TestTick(t *testing.T) {
	// A real minute is too long to wait for in a test.
	old := tickInterval
	tickInterval = time.Second
	defer func() { tickInterval = old }()

	ctx, c := context.WithCancel(context.Background())
	timeout := 1500 * time.Millisecond
	jitter := 100 * time.Millisecond

	tch := make(chan time.Time)
	errch := make(chan error)
	go func() {
		errch <- Tick(ctx, tch)
		close(errch)
		close(tch)
	}()

	// Check that ticks arrive and they're about an interval apart.
	var a, b time.Time
	select {
	case <-time.After(timeout):
		t.Fatal("timeout waiting for first tick")
	case err := <-errch:
		t.Fatalf("unexpected error waiting for first tick: %v", err)
	case a = <-tch:
		if delay := time.Since(a); delay > jitter {
			t.Errorf("delayed first tick: %s", delay)
		}
	}
	select {
	case <-time.After(timeout):
		t.Fatal("timeout waiting for second tick")
	case err := <-errch:
		t.Fatalf("unexpected error waiting for second tick: %v", err)
	case b = <-tch:
		if delay := time.Since(b); delay > jitter {
			t.Errorf("delayed second tick: %s", delay)
		}
	}
	if diff := b.Sub(a); diff > timeout {
		t.Errorf("too much delay between ticks: %s", diff)
	}

	// Check that cancellation aborts the ticker.
	c()
	select {
	case <-time.After(timeout):
		t.Fatal("timeout waiting for ticker to exit")
	case err := <-errch:
		if err == nil {
			t.Error("expected an error from the cancelled ticker")
		}
	}
}
