package transport

import (
	"context"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// NewLoopbackPair returns two connected DataChannelConns on this machine,
// negotiated in process without a signaling server. Each is the other's only
// peer. The pair behaves exactly like a signaled one, loss semantics included.
func NewLoopbackPair(ctx context.Context) (a, b *DataChannelConn, err error) {
	a, err = newLocalConn(ctx)
	if err != nil {
		return nil, nil, err
	}
	b, err = newLocalConn(ctx)
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	fail := func(err error) (*DataChannelConn, *DataChannelConn, error) {
		a.Close()
		b.Close()
		return nil, nil, err
	}

	if err := negotiate(ctx, a, b); err != nil {
		return fail(err)
	}

	for _, c := range []*DataChannelConn{a, b} {
		select {
		case <-c.Ready():
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}
	return a, b, nil
}

func newLocalConn(ctx context.Context) (*DataChannelConn, error) {
	pc, err := newLocalPeerConnection()
	if err != nil {
		return nil, err
	}
	return newDataChannelConn(ctx, pc)
}

// negotiate runs offer/answer between a and b with fully gathered
// descriptions, so no candidate trickling is needed.
func negotiate(ctx context.Context, a, b *DataChannelConn) error {
	offer, err := a.CreateOffer()
	if err != nil {
		return fmt.Errorf("CreateOffer: %w", err)
	}
	if err := setLocalAndGather(ctx, a, offer); err != nil {
		return err
	}
	if err := b.SetRemoteDescription(*a.pc.LocalDescription()); err != nil {
		return fmt.Errorf("SetRemoteDescription: %w", err)
	}

	answer, err := b.CreateAnswer()
	if err != nil {
		return fmt.Errorf("CreateAnswer: %w", err)
	}
	if err := setLocalAndGather(ctx, b, answer); err != nil {
		return err
	}
	if err := a.SetRemoteDescription(*b.pc.LocalDescription()); err != nil {
		return fmt.Errorf("SetRemoteDescription: %w", err)
	}
	return nil
}

func setLocalAndGather(ctx context.Context, c *DataChannelConn, sdp webrtc.SessionDescription) error {
	gathered := webrtc.GatheringCompletePromise(c.pc)
	if err := c.SetLocalDescription(sdp); err != nil {
		return fmt.Errorf("SetLocalDescription: %w", err)
	}
	select {
	case <-gathered:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
