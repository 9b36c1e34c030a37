package face

import (
	"context"
	"fmt"
	"image"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/trace"

	"github.com/wiener-uhr/clock/history"
	"github.com/wiener-uhr/clock/status"
	"github.com/wiener-uhr/clock/telemetry"
	"github.com/wiener-uhr/clock/timesource"
	"github.com/wiener-uhr/clock/wienerzeit"
)

var (
	phraseChangesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phrase_changes",
		Help: "count of times the displayed phrase changed",
	})
	sourceErrorsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "time_source_errors",
		Help: "count of render cycles skipped because no time source had a valid reading",
	})
	displayErrorsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "display_errors",
		Help: "count of failed writes to the display",
	})
)

// Display is where rendered images go.
type Display interface {
	Display(img image.Image) error
}

// Clock wires the time source, the phrase conversion, and the display
// together.
type Clock struct {
	Source   timesource.Source
	Display  Display
	Renderer *Renderer
	History  *history.DB // optional

	last []string
}

// Run updates the display once immediately and then on every minute boundary
// until the context is cancelled.
func (c *Clock) Run(ctx context.Context) error {
	l := trace.NewEventLog("service", "face")
	defer l.Finish()

	c.step(l, time.Now())

	tickErrCh := make(chan error)
	tickCh := make(chan time.Time)
	go func() {
		err := Tick(ctx, tickCh)
		select {
		case tickErrCh <- err:
		case <-ctx.Done():
		}
		close(tickErrCh)
		close(tickCh)
	}()
	for {
		select {
		case t := <-tickCh:
			c.step(l, t)
		case err := <-tickErrCh:
			return fmt.Errorf("ticker: %w", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// step runs one render cycle.  If the time source has no valid reading we
// keep whatever the display is already showing.
func (c *Clock) step(l trace.EventLog, tick time.Time) {
	t, err := c.Source.Now()
	if err != nil {
		sourceErrorsCounter.Inc()
		l.Errorf("no valid time reading, keeping last phrase: %v", err)
		return
	}

	phrase, err := wienerzeit.Convert(t.Hour(), t.Minute())
	if err != nil {
		// The source handed us something outside 0..23/0..59.
		sourceErrorsCounter.Inc()
		l.Errorf("convert %v: %v", t, err)
		return
	}
	lines := wienerzeit.Lines(phrase)
	if reflect.DeepEqual(lines, c.last) {
		return
	}

	img := c.Renderer.Render(t, lines)
	if err := c.Display.Display(img); err != nil {
		displayErrorsCounter.Inc()
		l.Errorf("write display: %v", err)
		// Leave c.last alone so the next tick retries.
		return
	}
	c.last = lines
	phraseChangesCounter.Inc()

	text := strings.Join(lines, " ")
	l.Printf("%02d:%02d [%s]: %s", t.Hour(), t.Minute(), c.Source.Name(), text)
	log.Printf("display: %s", text)
	status.UpdateStatus(status.Status{
		Lines:      lines,
		Now:        t,
		SourceName: c.Source.Name(),
		Recent:     []status.PhraseChange{{When: t, Text: text}},
	})
	if c.History != nil {
		if err := c.History.RecordPhrase(t.Hour(), t.Minute(), text); err != nil {
			l.Errorf("record phrase: %v", err)
		}
	}
	if err := telemetry.Send(fmt.Sprintf("phrase,source=%s text=%q %v", c.Source.Name(), text, t.UnixNano())); err != nil {
		l.Errorf("send phrase to influx: %v", err)
	}
}
