package timesource

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stratoberry/go-gpsd"
	"golang.org/x/net/trace"
)

// GPSD is a Source fed by TPV reports from a gpsd daemon.  Between reports
// it extrapolates from the last fix; once the fix is older than MaxAge it
// reports an error instead.
type GPSD struct {
	MaxAge time.Duration

	mu   sync.Mutex
	fix  time.Time // time reported by the receiver
	seen time.Time // when we received it
}

func (g *GPSD) Now() (time.Time, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen.IsZero() {
		return time.Time{}, fmt.Errorf("no fix from gpsd yet")
	}
	maxAge := g.MaxAge
	if maxAge == 0 {
		maxAge = 5 * time.Minute
	}
	if age := time.Since(g.seen); age > maxAge {
		return time.Time{}, fmt.Errorf("last gpsd fix is %s old", age.Truncate(time.Second))
	}
	return g.fix.Add(time.Since(g.seen)).Local(), nil
}

func (g *GPSD) Name() string { return "gpsd" }

func (g *GPSD) update(fix time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fix = fix
	g.seen = time.Now()
}

// WatchGPSD feeds g from the gpsd daemon at addr, reconnecting forever.
func WatchGPSD(addr string, g *GPSD) {
	l := trace.NewEventLog("service", "gpsd")
	defer l.Finish()
	for {
		monitorGpsd(addr, g, l)
		time.Sleep(10 * time.Second)
	}
}

func monitorGpsd(addr string, g *GPSD, l trace.EventLog) {
	watchdog := make(chan struct{})
	l.Printf("dial %s", addr)
	gps, err := gpsd.Dial(addr)
	if err != nil {
		l.Errorf("dial gpsd: %v", err)
		return
	}
	gps.AddFilter("TPV", func(r interface{}) {
		select {
		case watchdog <- struct{}{}:
		default:
		}
		tpv := r.(*gpsd.TPVReport)
		if tpv.Mode < gpsd.Mode2D || tpv.Time.IsZero() {
			l.Printf("tpv report without a usable fix: mode %v", tpv.Mode)
			return
		}
		g.update(tpv.Time)
		l.Printf("fix: %v", tpv.Time)
	})
	log.Printf("starting gpsd watch loop")
	for {
		select {
		case <-gps.Watch():
			l.Errorf("gpsd watch stopped; restarting")
			return
		case <-time.After(time.Minute):
			l.Errorf("gpsd hasn't sent data for 1 minute; restarting")
			return
		case <-watchdog:
			continue
		}
	}
}
