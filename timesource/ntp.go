package timesource

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/facebookincubator/ntp/protocol/ntp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/trace"

	"github.com/wiener-uhr/clock/history"
	"github.com/wiener-uhr/clock/status"
	"github.com/wiener-uhr/clock/telemetry"
)

// clientSettings is the first packet byte for a client request: no leap
// warning, version 4, mode 3.
const clientSettings = 0x23

// ntpPort is a variable so that tests can point QueryNTP at a local server.
var ntpPort = "123"

var (
	ntpOffsetMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ntp_offset_ns",
		Help: "offset between the system clock and the NTP server at the last check, in nanoseconds",
	})
	ntpRTTMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ntp_rtt_ns",
		Help: "round trip time of the last NTP check, in nanoseconds",
	})
	ntpFailuresCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ntp_check_failures",
		Help: "count of NTP checks that did not produce a usable reply",
	})
)

// SyncResult is one successful NTP measurement.
type SyncResult struct {
	Server  string
	When    time.Time
	Offset  time.Duration
	RTT     time.Duration
	Stratum uint8
}

// QueryNTP asks server once for the time and returns how far off the system
// clock is.  It is a plain SNTP exchange; the heavy lifting of packet layout
// and timestamp conversion is the library's.
func QueryNTP(server string, timeout time.Duration) (SyncResult, error) {
	conn, err := net.DialTimeout("udp", net.JoinHostPort(server, ntpPort), timeout)
	if err != nil {
		return SyncResult{}, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return SyncResult{}, fmt.Errorf("set deadline: %w", err)
	}

	req := &ntp.Packet{Settings: clientSettings}
	t1 := time.Now()
	if err := binary.Write(conn, binary.BigEndian, req); err != nil {
		return SyncResult{}, fmt.Errorf("send request: %w", err)
	}
	resp := new(ntp.Packet)
	if err := binary.Read(conn, binary.BigEndian, resp); err != nil {
		return SyncResult{}, fmt.Errorf("read response: %w", err)
	}
	t4 := time.Now()
	if resp.Stratum == 0 {
		return SyncResult{}, fmt.Errorf("kiss-of-death from %s", server)
	}

	t2 := ntp.Unix(resp.RxTimeSec, resp.RxTimeFrac) // request arrived at server
	t3 := ntp.Unix(resp.TxTimeSec, resp.TxTimeFrac) // response left server
	return SyncResult{
		Server:  server,
		When:    t4,
		Offset:  (t2.Sub(t1) + t3.Sub(t4)) / 2,
		RTT:     t4.Sub(t1) - t3.Sub(t2),
		Stratum: resp.Stratum,
	}, nil
}

// NTPMonitor periodically measures the system clock against an NTP server
// and publishes the result.  It never steps the clock itself; timekeeping
// belongs to the OS.
type NTPMonitor struct {
	Server   string
	Interval time.Duration
	Timeout  time.Duration
	History  *history.DB // optional
}

// Watch runs checks until the context is cancelled.
func (m *NTPMonitor) Watch(ctx context.Context) {
	l := trace.NewEventLog("service", "ntp")
	defer l.Finish()

	interval := m.Interval
	if interval == 0 {
		interval = time.Hour
	}
	timeout := m.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	var wait bool
	for {
		if wait {
			select {
			case <-time.After(interval):
			case <-ctx.Done():
				return
			}
		} else {
			wait = true
		}
		res, err := QueryNTP(m.Server, timeout)
		if err != nil {
			ntpFailuresCounter.Inc()
			l.Errorf("check %s: %v", m.Server, err)
			continue
		}
		l.Printf("offset %v, rtt %v, stratum %d", res.Offset, res.RTT, res.Stratum)
		ntpOffsetMetric.Set(float64(res.Offset.Nanoseconds()))
		ntpRTTMetric.Set(float64(res.RTT.Nanoseconds()))
		status.UpdateStatus(status.Status{
			SyncServer: res.Server,
			LastSync:   res.When,
			SyncOffset: res.Offset,
		})
		if m.History != nil {
			if err := m.History.RecordSync(res.Server, res.Offset, res.RTT, res.Stratum); err != nil {
				l.Errorf("record sync: %v", err)
			}
		}
		line := fmt.Sprintf("ntp_sync,server=%s offset=%v,rtt=%v,stratum=%vu %v",
			res.Server, res.Offset.Nanoseconds(), res.RTT.Nanoseconds(), res.Stratum, res.When.UnixNano())
		if err := telemetry.Send(line); err != nil {
			l.Errorf("send sync to influx: %v", err)
		}
	}
}
