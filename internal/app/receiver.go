package app

import (
	"context"
	"fmt"
	"net"

	"github.com/1ureka/framecast/internal/config"
	"github.com/1ureka/framecast/internal/media"
	"github.com/1ureka/framecast/internal/receiver"
	"github.com/1ureka/framecast/internal/session"
	"github.com/1ureka/framecast/internal/util"
)

// RunReceiver orchestrates the consumer lifecycle:
//  1. Bind the datagram transport (UDP, or WebRTC after signaling)
//  2. Open the display sink
//  3. Announce to the producer
//  4. Reassemble and display frames until shutdown
func RunReceiver(ctx context.Context, cfg config.Config) error {
	conn, producer, err := openReceiverConn(ctx, cfg)
	if err != nil {
		if isInterrupt(err) {
			return nil
		}
		return err
	}
	defer conn.Close()

	disp, err := media.NewFileDisplay(cfg.Output, cfg.Quality)
	if err != nil {
		return fmt.Errorf("failed to open display: %w", err)
	}
	defer disp.Close()

	stats := util.NewStats()
	util.StartStatsReporter(ctx, stats, cfg.StatsInterval)

	return receive(ctx, conn, producer, disp, cfg, stats)
}

// receive announces to producer and runs the consumer loop on an open conn.
func receive(ctx context.Context, conn net.PacketConn, producer net.Addr, disp media.Display, cfg config.Config, stats *util.Stats) error {
	if err := session.Announce(conn, producer); err != nil {
		// Re-announced on every idle tick until the stream starts.
		util.LogWarning("%v", err)
	}
	util.LogInfo("listening on %s, announced to %s", conn.LocalAddr(), producer)

	r := receiver.New(conn, media.JPEG{}, disp, receiver.Options{
		FrameTimeout: cfg.FrameTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		Producer:     producer,
		Stats:        stats,
	})

	if err := r.Run(ctx); err != nil && !isInterrupt(err) {
		return err
	}
	util.LogInfo("receiver stopped after %d frames", stats.FramesDelivered.Load())
	return nil
}
