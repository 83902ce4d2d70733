// Package util provides logging and traffic statistics shared by the sender
// and receiver loops.
package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Counters
// ──────────────────────────────────────────────────────────────────────────────

// Stats holds the traffic counters of one streaming run. Counters are atomic
// so the reporter goroutine may read them while a loop writes.
type Stats struct {
	// Sender side
	FramesSent     atomic.Int64 // frames with at least one fragment handed to the transport
	FramesUnsent   atomic.Int64 // frames whose every fragment write failed
	FramesRejected atomic.Int64 // frames too large for the 16-bit fragment count
	FramesSkipped  atomic.Int64 // frames the encoder could not produce
	FragmentsSent  atomic.Int64
	SendErrors     atomic.Int64
	BytesSent      atomic.Int64

	// Receiver side
	FramesDelivered    atomic.Int64
	FramesExpired      atomic.Int64
	FramesCorrupted    atomic.Int64
	FramesUndecodable  atomic.Int64
	FragmentsReceived  atomic.Int64
	FragmentsDuplicate atomic.Int64
	FragmentsDropped   atomic.Int64 // malformed, invalid or late
	BytesRecv          atomic.Int64
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) AddSent(n int) { s.BytesSent.Add(int64(n)) }
func (s *Stats) AddRecv(n int) { s.BytesRecv.Add(int64(n)) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs s every interval. It
// stops when ctx is cancelled. A non-positive interval disables reporting.
func StartStatsReporter(ctx context.Context, s *Stats, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var prev snapshot
		for {
			select {
			case <-ticker.C:
				cur := s.snapshot()
				if cur != prev {
					pterm.DefaultLogger.Info(formatStats(cur.delta(prev), interval.Seconds()))
				}
				prev = cur

			case <-ctx.Done():
				return
			}
		}
	}()
}

type snapshot struct {
	sent, recv                  int64
	framesOut, framesIn         int64
	rejected, expired, sendErrs int64
}

func (s *Stats) snapshot() snapshot {
	return snapshot{
		sent:      s.BytesSent.Load(),
		recv:      s.BytesRecv.Load(),
		framesOut: s.FramesSent.Load(),
		framesIn:  s.FramesDelivered.Load(),
		rejected:  s.FramesRejected.Load(),
		expired:   s.FramesExpired.Load(),
		sendErrs:  s.SendErrors.Load(),
	}
}

func (a snapshot) delta(b snapshot) snapshot {
	return snapshot{
		sent:      a.sent - b.sent,
		recv:      a.recv - b.recv,
		framesOut: a.framesOut - b.framesOut,
		framesIn:  a.framesIn - b.framesIn,
		rejected:  a.rejected - b.rejected,
		expired:   a.expired - b.expired,
		sendErrs:  a.sendErrs - b.sendErrs,
	}
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats renders one reporting window as a single log line.
func formatStats(d snapshot, seconds float64) string {
	return fmt.Sprintf("Out: %s/s %5.1f fps | In: %s/s %5.1f fps | Lost: %d expired %d rejected %d send errors",
		formatBytes(float64(d.sent)/seconds),
		float64(d.framesOut)/seconds,
		formatBytes(float64(d.recv)/seconds),
		float64(d.framesIn)/seconds,
		d.expired,
		d.rejected,
		d.sendErrs,
	)
}
