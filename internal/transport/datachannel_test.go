package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackPair returns a connected DataChannel pair closed at test end.
func loopbackPair(t *testing.T) (a, b *DataChannelConn) {
	t.Helper()
	a, b, err := NewLoopbackPair(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func readWithin(t *testing.T, c net.PacketConn, d time.Duration) ([]byte, net.Addr) {
	t.Helper()
	buf := make([]byte, MaxDatagramSize)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(d)))
	n, addr, err := c.ReadFrom(buf)
	require.NoError(t, err)
	return buf[:n], addr
}

func TestDataChannelCarriesDatagramsBothWays(t *testing.T) {
	a, b := loopbackPair(t)

	_, err := a.WriteTo([]byte("fragment"), nil)
	require.NoError(t, err)
	got, from := readWithin(t, b, 5*time.Second)
	assert.Equal(t, []byte("fragment"), got)
	assert.Equal(t, b.RemoteAddr(), from)
	assert.Equal(t, "webrtc", from.Network())

	_, err = b.WriteTo([]byte("HELLO"), from)
	require.NoError(t, err)
	got, _ = readWithin(t, a, 5*time.Second)
	assert.Equal(t, []byte("HELLO"), got)
}

func TestDataChannelReadDeadline(t *testing.T) {
	_, b := loopbackPair(t)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	_, _, err := b.ReadFrom(make([]byte, 16))
	assert.True(t, IsTimeout(err))
}

func TestDataChannelWriteBeforeReady(t *testing.T) {
	c, err := newLocalConn(context.Background())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.WriteTo([]byte("early"), nil)
	assert.ErrorIs(t, err, net.ErrClosed)
}

// TestDataChannelDropsAboveHighWater lowers the watermark so a burst of large
// messages must trip it instead of queueing without bound.
func TestDataChannelDropsAboveHighWater(t *testing.T) {
	a, _ := loopbackPair(t)
	a.highWater = 0

	msg := make([]byte, 60*1024)
	var full bool
	for i := 0; i < 200; i++ {
		_, err := a.WriteTo(msg, nil)
		if errors.Is(err, ErrBufferFull) {
			full = true
			break
		}
		require.NoError(t, err)
	}
	assert.True(t, full, "writes above the high-water mark must be dropped")
}

func TestDataChannelPeerCloseEndsReads(t *testing.T) {
	a, b := loopbackPair(t)

	require.NoError(t, a.Close())

	select {
	case <-b.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("peer close was not observed")
	}

	require.NoError(t, b.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := b.ReadFrom(make([]byte, 16))
	assert.ErrorIs(t, err, net.ErrClosed)
}
