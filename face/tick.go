package face

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missedTicksCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "missed_ticks",
		Help: "count of ticks that were generated but never received by anything",
	})

	tickDelayMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tick_delay",
		Help:    "amount of time between the minute tick and when it is sent to the channel, in nanoseconds",
		Buckets: prometheus.ExponentialBuckets(1000, 10, 20),
	})
)

// tickInterval is a variable so the tests don't have to wait out a real
// minute.
var tickInterval = time.Minute

// Tick sends the current time to the provided channel at the exact instant
// that the minute changes; the displayed phrase can only change on a minute
// boundary.  An absent listener will not receive an outdated time; the tick
// will be skipped and the missedTicksCounter incremented.  Cancelling the
// context causes this to return immediately.
func Tick(ctx context.Context, ch chan time.Time) error {
	for {
		next := time.Now().Add(tickInterval).Truncate(tickInterval)

		// Wait until the next minute starts.
		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			return fmt.Errorf("waiting for next minute: %w", ctx.Err())
		}

		// Send the time to the channel.
		select {
		case <-time.After(tickInterval / 2):
			missedTicksCounter.Inc()
		case <-ctx.Done():
			return fmt.Errorf("waiting to send tick: %w", ctx.Err())
		case ch <- next:
			tickDelayMetric.Observe(float64(time.Since(next).Nanoseconds()))
		}
	}
}
