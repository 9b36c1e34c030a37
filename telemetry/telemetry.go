// Package telemetry pushes "line protocol" rows to InfluxDB, for graphing
// clock drift and sync health over time.
//
// We write our own InfluxDB client because the official one requires more
// memory to compile than the SBC running the clock has.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/trace"
)

var (
	influxEventLog = trace.NewEventLog("destination", "influxdb")

	writeURL string
	token    string
)

// Configure sets the InfluxDB write endpoint and token.  Both empty disables
// pushing; Send then just logs the line to the event log.
func Configure(url, tok string) {
	writeURL = url
	token = tok
	if writeURL == "" || token == "" {
		log.Println("not sending to influxdb; $INFLUXDB_URL or $INFLUXDB_TOKEN not set")
		influxEventLog.Errorf("not sent; influxdb is not configured")
	}
}

// Send writes one line-protocol row to InfluxDB.  If unconfigured, the line
// is recorded in the event log and dropped.
func Send(body string) error {
	influxEventLog.Printf("%s", body)
	if writeURL == "" || token == "" {
		return nil
	}

	ctx, c := context.WithTimeout(context.Background(), 5*time.Second)
	defer c()
	req, err := http.NewRequestWithContext(ctx, "POST", writeURL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %v", err)
	}
	req.Header.Add("authorization", "Token "+token)
	req.Header.Add("content-type", "text/plain")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("make request: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(res.Body)
		influxEventLog.Errorf("unexpected status %v", res.StatusCode)
		return fmt.Errorf("make request: unexpected status %v (%s): (body: %s)", res.StatusCode, res.Status, body)
	}
	return nil
}
