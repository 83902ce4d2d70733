package sender

import (
	"context"
	"errors"
	"image"
	"io"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/1ureka/framecast/internal/media"
	"github.com/1ureka/framecast/internal/protocol"
	"github.com/1ureka/framecast/internal/session"
	"github.com/1ureka/framecast/internal/util"
)

// Options tunes a Sender.
type Options struct {
	ChunkSize int           // maximum payload bytes per fragment
	Quality   int           // encoder quality, 1~100
	MaxWidth  int           // downscale wider frames; 0 disables
	Interval  time.Duration // target frame interval
	Stats     *util.Stats   // optional; a private instance is used when nil
}

// Sender owns the frame id counter and streams frames to one session peer.
// It is not safe for concurrent use: Run is the single producer loop.
type Sender struct {
	conn      net.PacketConn
	sess      *session.Session
	chunkSize int
	quality   int
	maxWidth  int
	pacer     *Pacer
	stats     *util.Stats

	frameID uint32

	sendWarn  rate.Sometimes
	frameWarn rate.Sometimes
}

// New creates a Sender writing to sess.Peer through conn.
func New(conn net.PacketConn, sess *session.Session, opts Options) *Sender {
	stats := opts.Stats
	if stats == nil {
		stats = util.NewStats()
	}
	return &Sender{
		conn:      conn,
		sess:      sess,
		chunkSize: opts.ChunkSize,
		quality:   opts.Quality,
		maxWidth:  opts.MaxWidth,
		pacer:     NewPacer(opts.Interval),
		stats:     stats,
		sendWarn:  rate.Sometimes{First: 3, Interval: time.Second},
		frameWarn: rate.Sometimes{First: 3, Interval: 5 * time.Second},
	}
}

// NextFrameID returns the id the next attempted frame will carry.
func (s *Sender) NextFrameID() uint32 { return s.frameID }

// SendFrame fragments payload and writes every fragment to the peer. The
// frame id advances whether the frame is sent or rejected, wrapping at 2^32.
// Per-fragment write failures are logged and do not stop the remaining
// fragments; the returned error is only ErrOversizedFrame (nothing written).
func (s *Sender) SendFrame(payload []byte) error {
	id := s.frameID
	s.frameID++

	frags, err := Split(id, payload, s.chunkSize)
	if err != nil {
		s.stats.FramesRejected.Add(1)
		util.LogWarning("[frame %d] rejected: %v", id, err)
		return err
	}

	sent := 0
	for _, f := range frags {
		data := protocol.Encode(f)
		n, err := s.conn.WriteTo(data, s.sess.Peer)
		if err != nil {
			s.stats.SendErrors.Add(1)
			s.sendWarn.Do(func() {
				util.LogWarning("[frame %d] send fragment %d/%d to %s failed: %v",
					id, f.Index+1, f.Count, s.sess.Peer, err)
			})
			continue
		}
		sent++
		s.stats.FragmentsSent.Add(1)
		s.stats.AddSent(n)
	}

	// An empty payload has no fragments and still counts as sent.
	if len(frags) > 0 && sent == 0 {
		s.stats.FramesUnsent.Add(1)
		return nil
	}
	s.stats.FramesSent.Add(1)
	util.LogTrace("[frame %d] sent %d bytes in %d fragments", id, len(payload), len(frags))
	return nil
}

// Run reads, scales, encodes, sends and paces frames until the source ends
// (returns nil) or ctx is cancelled (returns ctx.Err()). Faults of a single
// frame are logged and skipped.
func (s *Sender) Run(ctx context.Context, src media.Source, enc media.Encoder) error {
	util.LogInfo("streaming to %s every %v (chunk %d bytes)", s.sess, s.pacer.Interval(), s.chunkSize)

	for {
		s.pacer.Start()

		img, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			util.LogInfo("end of stream after %d frames", s.stats.FramesSent.Load())
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			s.skip("read", err)
		default:
			s.produce(img, enc)
		}

		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}
	}
}

// produce encodes one raw frame and hands it to SendFrame.
func (s *Sender) produce(img image.Image, enc media.Encoder) {
	payload, err := enc.Encode(media.FitWidth(img, s.maxWidth), s.quality)
	if err != nil {
		s.skip("encode", err)
		return
	}
	_ = s.SendFrame(payload)
}

func (s *Sender) skip(stage string, err error) {
	s.stats.FramesSkipped.Add(1)
	s.frameWarn.Do(func() {
		util.LogWarning("skipping frame: %s failed: %v", stage, err)
	})
}
