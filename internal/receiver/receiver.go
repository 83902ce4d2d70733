package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/1ureka/framecast/internal/media"
	"github.com/1ureka/framecast/internal/protocol"
	"github.com/1ureka/framecast/internal/session"
	"github.com/1ureka/framecast/internal/transport"
	"github.com/1ureka/framecast/internal/util"
)

// Options tunes a Receiver.
type Options struct {
	FrameTimeout time.Duration // partial frames older than this are dropped
	ReadTimeout  time.Duration // bound of each blocking read; also the sweep tick
	// Producer, when set, receives the greeting again on every idle tick until
	// the first fragment arrives, in case the first greeting was lost.
	Producer net.Addr
	Stats    *util.Stats // optional; a private instance is used when nil
}

// Receiver runs the single consumer loop: bounded read, reassembly, aging
// sweep, decode and display. None of its state is shared with other
// goroutines.
type Receiver struct {
	conn        net.PacketConn
	reasm       *Reassembler
	decoder     media.Decoder
	display     media.Display
	readTimeout time.Duration
	producer    net.Addr
	stats       *util.Stats

	lastSweep   time.Time
	gotFragment bool
	now         func() time.Time

	readWarn   rate.Sometimes
	decodeWarn rate.Sometimes
}

// New creates a Receiver reading fragments from conn.
func New(conn net.PacketConn, dec media.Decoder, disp media.Display, opts Options) *Receiver {
	stats := opts.Stats
	if stats == nil {
		stats = util.NewStats()
	}
	return &Receiver{
		conn:        conn,
		reasm:       NewReassembler(opts.FrameTimeout),
		decoder:     dec,
		display:     disp,
		readTimeout: opts.ReadTimeout,
		producer:    opts.Producer,
		stats:       stats,
		now:         time.Now,
		readWarn:    rate.Sometimes{First: 3, Interval: 5 * time.Second},
		decodeWarn:  rate.Sometimes{First: 3, Interval: 5 * time.Second},
	}
}

// Run reads until ctx is cancelled (returns ctx.Err()) or the transport is
// closed underneath it (returns nil: a DataChannel closes when the sender
// finishes). Faults of a single datagram or frame never end the loop.
func (r *Receiver) Run(ctx context.Context) error {
	stop := transport.UnblockOnDone(ctx, r.conn)
	defer stop()

	buf := make([]byte, transport.MaxDatagramSize)
	r.lastSweep = r.now()

	for {
		// Re-arming the deadline would undo UnblockOnDone.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.conn.SetReadDeadline(transport.ReadDeadline(ctx, r.readTimeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		n, addr, err := r.conn.ReadFrom(buf)
		now := r.now()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case transport.IsTimeout(err):
				r.idle(now)
			case errors.Is(err, net.ErrClosed):
				util.LogInfo("transport closed, stream ended")
				return nil
			default:
				r.readWarn.Do(func() {
					util.LogWarning("receive error: %v", err)
				})
			}
			continue
		}

		r.handle(buf[:n], addr, now)

		// Keep the sweep cadence when traffic never lets a read time out.
		if now.Sub(r.lastSweep) >= r.readTimeout {
			r.sweep(now)
		}
	}
}

// idle runs on every read timeout: it is the sweep clock.
func (r *Receiver) idle(now time.Time) {
	r.sweep(now)

	if !r.gotFragment && r.producer != nil {
		if err := session.Announce(r.conn, r.producer); err != nil {
			util.LogDebug("re-announce failed: %v", err)
		}
	}
}

func (r *Receiver) sweep(now time.Time) {
	r.lastSweep = now
	for _, id := range r.reasm.Sweep(now) {
		r.stats.FramesExpired.Add(1)
		util.LogDebug("[frame %d] expired before completion", id)
	}
}

// handle decodes one datagram and feeds it to the reassembler.
func (r *Receiver) handle(data []byte, from net.Addr, now time.Time) {
	r.stats.AddRecv(len(data))

	frag, err := protocol.Decode(data)
	if err != nil {
		r.stats.FragmentsDropped.Add(1)
		util.LogTrace("dropping datagram from %s: %v", from, err)
		return
	}
	r.stats.FragmentsReceived.Add(1)

	if !r.gotFragment {
		r.gotFragment = true
		util.LogInfo("stream started from %s", from)
	}

	frame, err := r.reasm.Feed(frag, now)
	switch {
	case errors.Is(err, ErrDuplicateFragment):
		r.stats.FragmentsDuplicate.Add(1)
		util.LogTrace("%v", err)
	case errors.Is(err, ErrCorruptedFrame):
		r.stats.FramesCorrupted.Add(1)
		util.LogDebug("%v", err)
	case err != nil:
		r.stats.FragmentsDropped.Add(1)
		util.LogTrace("%v", err)
	case frame != nil:
		r.deliver(frag.FrameID, frame)
	}
}

// deliver decodes a completed frame and shows it.
func (r *Receiver) deliver(frameID uint32, frame []byte) {
	img, err := r.decoder.Decode(frame)
	if err != nil {
		r.stats.FramesUndecodable.Add(1)
		r.decodeWarn.Do(func() {
			util.LogWarning("[frame %d] dropped: %v", frameID, err)
		})
		return
	}

	r.stats.FramesDelivered.Add(1)
	r.display.Show(frameID, img)
}
