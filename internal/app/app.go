// Package app contains the top-level orchestration for the sender and
// receiver roles: open the datagram transport, register the session, run the
// stream loop and release everything on the way out.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/1ureka/framecast/internal/config"
	"github.com/1ureka/framecast/internal/signaling"
	"github.com/1ureka/framecast/internal/transport"
)

// openSenderConn returns the producer-side datagram socket for cfg.
func openSenderConn(ctx context.Context, cfg config.Config) (net.PacketConn, error) {
	switch cfg.Transport {
	case config.TransportWebRTC:
		dc, err := signaling.EstablishAsHost(ctx, cfg.Listen, cfg.PIN)
		if err != nil {
			return nil, fmt.Errorf("failed to establish DataChannel: %w", err)
		}
		return dc, nil
	default:
		return transport.ListenUDP(cfg.Listen)
	}
}

// openReceiverConn returns the consumer-side socket and the address the
// greeting is sent to.
func openReceiverConn(ctx context.Context, cfg config.Config) (net.PacketConn, net.Addr, error) {
	switch cfg.Transport {
	case config.TransportWebRTC:
		dc, err := signaling.EstablishAsClient(ctx, cfg.SignalingURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to establish DataChannel: %w", err)
		}
		return dc, dc.RemoteAddr(), nil
	default:
		producer, err := transport.ResolveUDP(cfg.Server)
		if err != nil {
			return nil, nil, err
		}
		conn, err := transport.ListenUDP(cfg.Listen)
		if err != nil {
			return nil, nil, err
		}
		return conn, producer, nil
	}
}

// isInterrupt reports whether err only says the run was cancelled.
func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled)
}
