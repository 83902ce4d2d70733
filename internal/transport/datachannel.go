package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/framecast/internal/util"
)

const (
	highWaterMark = 1024 * 1024 // drop outgoing messages above this buffered amount
	inboxSize     = 1024        // inbound messages buffered before drops
)

// ErrBufferFull is returned by WriteTo when the DataChannel send buffer is
// above its high-water mark. The message is dropped; there is no flow control.
var ErrBufferFull = errors.New("datachannel send buffer full")

// DataChannelConn wraps a single PeerConnection + DataChannel pair and
// exposes it as a net.PacketConn. Every message is one datagram; the peer
// address is fixed to the remote end of the channel.
//
// Its lifecycle is governed by the DataChannel state and the context passed
// at construction time. The PeerConnection state is recorded but does not
// drive open/close decisions.
type DataChannelConn struct {
	pc *webrtc.PeerConnection
	dc *webrtc.DataChannel

	openSignal chan struct{}
	inbox      *datagramQueue
	local      peerAddr
	remote     peerAddr

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	pcState webrtc.PeerConnectionState

	highWater uint64
}

// NewDataChannelConn creates a DataChannelConn backed by a new PeerConnection
// and a pre-negotiated DataChannel. The caller performs signaling via the
// exposed methods (CreateOffer / CreateAnswer / …) and waits on Ready before
// reading or writing.
func NewDataChannelConn(ctx context.Context) (*DataChannelConn, error) {
	pc, err := newPeerConnection()
	if err != nil {
		return nil, err
	}
	return newDataChannelConn(ctx, pc)
}

func newDataChannelConn(ctx context.Context, pc *webrtc.PeerConnection) (*DataChannelConn, error) {
	dc, err := newDataChannel(pc)
	if err != nil {
		pc.Close()
		return nil, err
	}

	cCtx, cCancel := context.WithCancel(ctx)

	c := &DataChannelConn{
		pc:         pc,
		dc:         dc,
		openSignal: make(chan struct{}),
		inbox:      newDatagramQueue(inboxSize),
		local:      peerAddr("local"),
		remote:     peerAddr("remote"),
		ctx:        cCtx,
		cancel:     cCancel,
		pcState:    webrtc.PeerConnectionStateNew,
		highWater:  highWaterMark,
	}

	// DC open gate.
	var openOnce sync.Once
	dc.OnOpen(func() {
		openOnce.Do(func() { close(c.openSignal) })
	})

	// DC close → cancel context and unblock readers.
	dc.OnClose(func() {
		util.LogDebug("DataChannel closed")
		cCancel()
		c.inbox.close()
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if !c.inbox.push(msg.Data) {
			util.LogTrace("DataChannel inbox full, dropping %d bytes", len(msg.Data))
		}
	})

	// Record PC state (informational only).
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
		c.mu.Lock()
		c.pcState = state
		c.mu.Unlock()
	})

	return c, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Ready returns a channel that is closed when the DataChannel is open.
func (c *DataChannelConn) Ready() <-chan struct{} {
	return c.openSignal
}

// Done returns a channel that is closed when the DataChannel closes or the
// parent context is cancelled.
func (c *DataChannelConn) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close shuts down the DataChannel and PeerConnection.
func (c *DataChannelConn) Close() error {
	c.cancel()
	c.inbox.close()
	return errors.Join(c.dc.Close(), c.pc.Close())
}

// ConnectionState returns the last observed PeerConnection state.
func (c *DataChannelConn) ConnectionState() webrtc.PeerConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pcState
}

// ---------------------------------------------------------------------------
// Signaling
// ---------------------------------------------------------------------------

// CreateOffer generates an SDP offer.
func (c *DataChannelConn) CreateOffer() (webrtc.SessionDescription, error) {
	return c.pc.CreateOffer(nil)
}

// CreateAnswer generates an SDP answer.
func (c *DataChannelConn) CreateAnswer() (webrtc.SessionDescription, error) {
	return c.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP.
func (c *DataChannelConn) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return c.pc.SetLocalDescription(sdp)
}

// SetRemoteDescription applies the remote SDP.
func (c *DataChannelConn) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	return c.pc.SetRemoteDescription(sdp)
}

// OnICECandidate registers a callback invoked whenever a new local ICE
// candidate is gathered. A nil candidate signals the end of gathering.
func (c *DataChannelConn) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	c.pc.OnICECandidate(fn)
}

// AddICECandidate adds a remote ICE candidate received through signaling.
func (c *DataChannelConn) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(candidate)
}

// ---------------------------------------------------------------------------
// net.PacketConn
// ---------------------------------------------------------------------------

// ReadFrom blocks until a message arrives, the read deadline passes or the
// channel closes. The returned address is always the remote peer.
func (c *DataChannelConn) ReadFrom(p []byte) (int, net.Addr, error) {
	n, err := c.inbox.read(p)
	if err != nil {
		return 0, nil, err
	}
	return n, c.remote, nil
}

// WriteTo sends p as one message. addr is ignored: the channel has exactly
// one peer.
func (c *DataChannelConn) WriteTo(p []byte, _ net.Addr) (int, error) {
	select {
	case <-c.openSignal:
	default:
		return 0, net.ErrClosed
	}
	if c.dc.BufferedAmount() > c.highWater {
		return 0, ErrBufferFull
	}
	if err := c.dc.Send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *DataChannelConn) LocalAddr() net.Addr { return c.local }

// RemoteAddr returns the address reported for every inbound message.
func (c *DataChannelConn) RemoteAddr() net.Addr { return c.remote }

func (c *DataChannelConn) SetDeadline(t time.Time) error {
	return c.SetReadDeadline(t)
}

func (c *DataChannelConn) SetReadDeadline(t time.Time) error {
	c.inbox.setDeadline(t)
	return nil
}

// SetWriteDeadline is a no-op: WriteTo never blocks.
func (c *DataChannelConn) SetWriteDeadline(time.Time) error {
	return nil
}

var _ net.PacketConn = (*DataChannelConn)(nil)

// peerAddr names one end of a DataChannel.
type peerAddr string

func (a peerAddr) Network() string { return "webrtc" }
func (a peerAddr) String() string  { return "datachannel:" + string(a) }
