package timesource

import (
	"bytes"
	"encoding/binary"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/facebookincubator/ntp/protocol/ntp"
)

// serveFakeNTP answers exactly one SNTP request on a loopback port, stamping
// the reply with the local clock shifted by skew.  It returns the server
// address and points ntpPort at the ephemeral port for the duration of the
// test.
func serveFakeNTP(t *testing.T, skew time.Duration, stratum uint8) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { pc.Close() })

	oldPort := ntpPort
	ntpPort = strconv.Itoa(pc.LocalAddr().(*net.UDPAddr).Port)
	t.Cleanup(func() { ntpPort = oldPort })

	go func() {
		buf := make([]byte, 128)
		_, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		sec, frac := ntp.Time(time.Now().Add(skew))
		resp := &ntp.Packet{
			Settings:   0x24, // version 4, mode 4 (server)
			Stratum:    stratum,
			RxTimeSec:  sec,
			RxTimeFrac: frac,
			TxTimeSec:  sec,
			TxTimeFrac: frac,
		}
		var out bytes.Buffer
		if err := binary.Write(&out, binary.BigEndian, resp); err != nil {
			return
		}
		pc.WriteTo(out.Bytes(), addr)
	}()
	return "127.0.0.1"
}

func TestQueryNTP(t *testing.T) {
	server := serveFakeNTP(t, 0, 2)
	res, err := QueryNTP(server, time.Second)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Server != server {
		t.Errorf("server: got %q, want %q", res.Server, server)
	}
	if res.Stratum != 2 {
		t.Errorf("stratum: got %d, want 2", res.Stratum)
	}
	// Server and client share a clock here, so the measured offset is just
	// loopback noise.
	if res.Offset < -time.Second || res.Offset > time.Second {
		t.Errorf("offset %v from an in-sync server", res.Offset)
	}
	if res.RTT < 0 || res.RTT > time.Second {
		t.Errorf("implausible loopback rtt %v", res.RTT)
	}
	if time.Since(res.When) > time.Second {
		t.Errorf("measurement timestamp %v is stale", res.When)
	}
}

func TestQueryNTPMeasuresOffset(t *testing.T) {
	skew := time.Minute
	server := serveFakeNTP(t, skew, 2)
	res, err := QueryNTP(server, time.Second)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if diff := res.Offset - skew; diff < -time.Second || diff > time.Second {
		t.Errorf("offset: got %v, want about %v", res.Offset, skew)
	}
}

func TestQueryNTPKissOfDeath(t *testing.T) {
	server := serveFakeNTP(t, 0, 0)
	if _, err := QueryNTP(server, time.Second); err == nil {
		t.Error("expected error for a stratum 0 reply")
	}
}

func TestQueryNTPTimeout(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer pc.Close() // a server that never answers

	oldPort := ntpPort
	ntpPort = strconv.Itoa(pc.LocalAddr().(*net.UDPAddr).Port)
	defer func() { ntpPort = oldPort }()

	if _, err := QueryNTP("127.0.0.1", 50*time.Millisecond); err == nil {
		t.Error("expected error from an unresponsive server")
	}
}
