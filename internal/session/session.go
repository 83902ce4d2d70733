// Package session implements the one-shot registration handshake: the
// consumer announces itself with a greeting datagram and the producer records
// that peer as the only destination for the rest of the run.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/1ureka/framecast/internal/protocol"
	"github.com/1ureka/framecast/internal/transport"
	"github.com/1ureka/framecast/internal/util"
)

// ErrNoConsumer is returned by Await when no greeting arrived in time. It is
// not a failure: the run simply ends without streaming.
var ErrNoConsumer = errors.New("no consumer registered")

// Session is the registered peer. It is set once and read-only afterwards.
type Session struct {
	ID           string
	Peer         net.Addr
	RegisteredAt time.Time
}

// String renders the peer and a short form of the session id for logs.
func (s *Session) String() string {
	id := s.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s (%s)", s.Peer, id)
}

// Await blocks until a greeting arrives on conn, timeout elapses or ctx is
// cancelled. Datagrams that are not the greeting are ignored. Any greeting
// after the first is never read, so a second consumer cannot take over.
func Await(ctx context.Context, conn net.PacketConn, timeout time.Duration) (*Session, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer conn.SetReadDeadline(time.Time{})

	stop := transport.UnblockOnDone(waitCtx, conn)
	defer stop()

	buf := make([]byte, transport.MaxDatagramSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if waitCtx.Err() != nil {
			return nil, ErrNoConsumer
		}
		if err := conn.SetReadDeadline(transport.ReadDeadline(waitCtx, timeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}

		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if transport.IsTimeout(err) || waitCtx.Err() != nil {
				return nil, ErrNoConsumer
			}
			return nil, fmt.Errorf("failed to read greeting: %w", err)
		}

		if !protocol.IsGreeting(buf[:n]) {
			util.LogDebug("ignoring %d-byte datagram from %s while waiting for greeting", n, addr)
			continue
		}

		return &Session{
			ID:           uuid.NewString(),
			Peer:         addr,
			RegisteredAt: time.Now(),
		}, nil
	}
}

// Announce sends the greeting from conn to the producer.
func Announce(conn net.PacketConn, producer net.Addr) error {
	if _, err := conn.WriteTo(protocol.Greeting, producer); err != nil {
		return fmt.Errorf("failed to send greeting to %s: %w", producer, err)
	}
	return nil
}
