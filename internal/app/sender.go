package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/1ureka/framecast/internal/config"
	"github.com/1ureka/framecast/internal/media"
	"github.com/1ureka/framecast/internal/sender"
	"github.com/1ureka/framecast/internal/session"
	"github.com/1ureka/framecast/internal/util"
)

// RunSender orchestrates the producer lifecycle:
//  1. Bind the datagram transport (UDP, or WebRTC after signaling)
//  2. Wait for a receiver's greeting
//  3. Open the frame source
//  4. Stream until end of stream or shutdown
//
// A missing receiver, end of stream and an interrupt are clean exits.
func RunSender(ctx context.Context, cfg config.Config) error {
	conn, err := openSenderConn(ctx, cfg)
	if err != nil {
		if isInterrupt(err) {
			return nil
		}
		return err
	}
	defer conn.Close()

	stats := util.NewStats()
	util.StartStatsReporter(ctx, stats, cfg.StatsInterval)

	return stream(ctx, conn, cfg, stats)
}

// stream runs registration and the producer loop on an open conn.
func stream(ctx context.Context, conn net.PacketConn, cfg config.Config, stats *util.Stats) error {
	util.LogInfo("waiting up to %v for a receiver on %s", cfg.RegisterTimeout, conn.LocalAddr())

	sess, err := session.Await(ctx, conn, cfg.RegisterTimeout)
	switch {
	case errors.Is(err, session.ErrNoConsumer):
		util.LogWarning("no receiver registered within %v, nothing to stream", cfg.RegisterTimeout)
		return nil
	case isInterrupt(err):
		util.LogInfo("interrupted before a receiver registered")
		return nil
	case err != nil:
		return err
	}
	util.LogSuccess("receiver registered: %s", sess)

	src, err := media.OpenSource(cfg.Source, cfg.Frames, cfg.Loop)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	s := sender.New(conn, sess, sender.Options{
		ChunkSize: cfg.ChunkSize,
		Quality:   cfg.Quality,
		MaxWidth:  cfg.MaxWidth,
		Interval:  cfg.FrameInterval(src.FPS()),
		Stats:     stats,
	})

	if err := s.Run(ctx, src, media.JPEG{}); err != nil {
		if isInterrupt(err) {
			util.LogInfo("stream interrupted after %d frames", stats.FramesSent.Load())
			return nil
		}
		return err
	}
	return nil
}
