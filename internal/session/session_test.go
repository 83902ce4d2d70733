package session

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ureka/framecast/internal/transport"
)

func TestAwaitRegistersGreetingPeer(t *testing.T) {
	producer, err := transport.ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer producer.Close()

	consumer, err := transport.ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer consumer.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = consumer.WriteTo([]byte("not a greeting"), producer.LocalAddr())
		_ = Announce(consumer, producer.LocalAddr())
	}()

	sess, err := Await(context.Background(), producer, 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, consumer.LocalAddr().String(), sess.Peer.String())
	assert.Len(t, sess.ID, 36)
	assert.False(t, sess.RegisteredAt.IsZero())
}

func TestAwaitTimeoutIsNoConsumer(t *testing.T) {
	producer, err := transport.ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer producer.Close()

	start := time.Now()
	sess, err := Await(context.Background(), producer, 50*time.Millisecond)

	assert.Nil(t, sess)
	assert.ErrorIs(t, err, ErrNoConsumer)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwaitCancelled(t *testing.T) {
	producer, err := transport.ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer producer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = Await(ctx, producer, 10*time.Second)
	assert.True(t, errors.Is(err, context.Canceled))
}

// TestAwaitCancelledUnderSteadyTraffic keeps non-greeting datagrams flowing
// so reads never time out, then cancels: Await must still return promptly.
func TestAwaitCancelledUnderSteadyTraffic(t *testing.T) {
	producer, err := transport.ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer producer.Close()

	noise, err := transport.ListenUDP("127.0.0.1:0")
	require.NoError(t, err)
	defer noise.Close()

	stopNoise := make(chan struct{})
	defer close(stopNoise)
	go func() {
		for {
			select {
			case <-stopNoise:
				return
			default:
			}
			_, _ = noise.WriteTo([]byte("noise"), producer.LocalAddr())
			time.Sleep(time.Millisecond)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err = Await(ctx, producer, 30*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSessionString(t *testing.T) {
	peer := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5006}

	testCases := []struct {
		name string
		id   string
		want string
	}{
		{"uuid", "0b7c7f8e-1111-2222-3333-444455556666", "127.0.0.1:5006 (0b7c7f8e)"},
		{"short id", "abc", "127.0.0.1:5006 (abc)"},
		{"empty id", "", "127.0.0.1:5006 ()"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Session{ID: tc.id, Peer: peer}
			assert.Equal(t, tc.want, s.String())
		})
	}
}

// TestAwaitOverDataChannel registers a consumer through the WebRTC backend:
// the greeting's source is the channel's single remote peer.
func TestAwaitOverDataChannel(t *testing.T) {
	producer, consumer, err := transport.NewLoopbackPair(context.Background())
	require.NoError(t, err)
	defer producer.Close()
	defer consumer.Close()

	require.NoError(t, Announce(consumer, consumer.RemoteAddr()))

	sess, err := Await(context.Background(), producer, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, producer.RemoteAddr(), sess.Peer)
}
