// Package transport provides the datagram backends frames travel over. Every
// backend is exposed as a net.PacketConn so the sender, receiver and handshake
// never know which one they use:
//   - UDP, the default, bound with net.ListenPacket
//   - a WebRTC DataChannel configured unordered with zero retransmits, which
//     keeps the same best-effort semantics across NATs
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// MaxDatagramSize is the read buffer size used by both loops.
const MaxDatagramSize = 65536

// ListenUDP binds a UDP socket on addr (host:port, port 0 picks a free port).
func ListenUDP(addr string) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return conn, nil
}

// ResolveUDP resolves a host:port peer address.
func ResolveUDP(addr string) (net.Addr, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}
	return udpAddr, nil
}

// IsTimeout reports whether err is a read/write deadline expiry.
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// UnblockOnDone forces any read blocked on conn to return once ctx is done,
// by moving its read deadline to now. The returned function detaches the hook.
func UnblockOnDone(ctx context.Context, conn net.PacketConn) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
}

// ReadDeadline returns now+timeout, clamped to the context deadline if that
// comes first.
func ReadDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
