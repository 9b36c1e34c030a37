// Package status serves a human-readable page about what the clock is doing
// right now, for checking on it from the couch.
package status

import (
	_ "embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"
)

// recentLimit caps the phrase-change log kept for the page.
const recentLimit = 12

var (
	statusMu sync.RWMutex
	status   Status

	//go:embed index.html.tmpl
	indexHTML string
	funcMap   = template.FuncMap{
		"clock":    formatClock,
		"duration": formatDuration,
		"ago":      formatAgo,
		"float1":   formatFloat1,
	}
	index = template.Must(template.New("index").Funcs(funcMap).Parse(indexHTML))
)

// PhraseChange is one entry in the what-was-displayed-when log.
type PhraseChange struct {
	When time.Time
	Text string
}

// Status is everything the page shows.  Zero-valued fields of an update are
// ignored, so each subsystem only fills in what it knows.
type Status struct {
	Lines      []string
	Now        time.Time
	SourceName string

	SyncServer string
	LastSync   time.Time
	SyncOffset time.Duration

	Temperature    float64 // °C
	Humidity       float64 // %RH
	HasEnvironment bool

	Recent []PhraseChange
}

// UpdateStatus merges the non-zero fields of newStatus into the page state.
// Recent entries are prepended and capped.
func UpdateStatus(newStatus Status) {
	statusMu.Lock()
	defer statusMu.Unlock()
	if len(newStatus.Lines) != 0 {
		status.Lines = newStatus.Lines
	}
	if !newStatus.Now.IsZero() {
		status.Now = newStatus.Now
	}
	if newStatus.SourceName != "" {
		status.SourceName = newStatus.SourceName
	}
	if newStatus.SyncServer != "" {
		status.SyncServer = newStatus.SyncServer
	}
	if !newStatus.LastSync.IsZero() {
		status.LastSync = newStatus.LastSync
		status.SyncOffset = newStatus.SyncOffset
	}
	if newStatus.HasEnvironment {
		status.HasEnvironment = true
		status.Temperature = newStatus.Temperature
		status.Humidity = newStatus.Humidity
	}
	if len(newStatus.Recent) != 0 {
		status.Recent = append(newStatus.Recent, status.Recent...)
		if len(status.Recent) > recentLimit {
			status.Recent = status.Recent[:recentLimit]
		}
	}
}

// ServeStatus renders the page.
func ServeStatus(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	statusMu.RLock()
	defer statusMu.RUnlock()
	if err := index.Execute(w, status); err != nil {
		log.Printf("execute template: %v", err)
	}
}

func formatClock(t time.Time) string { return t.Format("15:04:05") }

func formatDuration(d time.Duration) string { return d.String() }

func formatAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s ago", time.Since(t).Truncate(time.Second))
}

func formatFloat1(x float64) string { return fmt.Sprintf("%.1f", x) }
