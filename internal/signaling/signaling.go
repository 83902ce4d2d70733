// Package signaling runs the WebSocket phase that sets up the WebRTC
// datagram backend. All SDP/ICE details stay internal; callers receive a
// ready DataChannelConn and use it like any other net.PacketConn.
package signaling

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/1ureka/framecast/internal/transport"
	"github.com/1ureka/framecast/internal/util"
)

// pinLength is the size of a generated PIN.
const pinLength = 6

// EstablishAsHost executes the producer-side signaling flow:
//  1. Start a WS server on addr, generating a PIN when pin is empty
//  2. Print the address and PIN
//  3. Wait for the consumer to connect with that PIN
//  4. Send the SDP offer and trickle ICE candidates
//  5. Return once the DataChannel is open
//
// The WS server and connection are closed on return.
func EstablishAsHost(ctx context.Context, addr, pin string) (*transport.DataChannelConn, error) {
	if pin == "" {
		pin = generatePIN(pinLength)
	}

	srv := newServer(pin)
	bound, err := srv.start(addr)
	if err != nil {
		return nil, err
	}
	defer srv.close()

	pterm.DefaultBox.WithTitle("WebSocket Signaling").Println(
		fmt.Sprintf("Address : %s\nPath    : /ws?pin=%s\nPIN     : %s", bound, pin, pin),
	)
	util.LogInfo("waiting for receiver to connect...")

	wsConn, err := srv.waitForClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for receiver: %w", err)
	}
	defer wsConn.Close()
	util.LogDebug("receiver connected from %s", wsConn.RemoteAddr())

	dc, err := transport.NewDataChannelConn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create DataChannel: %w", err)
	}

	ex := newExchange(dc, wsConn)
	errCh := make(chan error, 1)
	go func() {
		errCh <- ex.watch() // exits when wsConn is closed (deferred above)
	}()

	if err := ex.sendOffer(); err != nil {
		dc.Close()
		return nil, fmt.Errorf("failed to send offer: %w", err)
	}

	return awaitReady(ctx, dc, errCh)
}

// EstablishAsClient executes the consumer-side signaling flow: connect to
// wsURL (which carries the PIN as a query parameter), answer the offer,
// exchange ICE candidates and return once the DataChannel is open.
func EstablishAsClient(ctx context.Context, wsURL string) (*transport.DataChannelConn, error) {
	util.LogInfo("connecting to sender at %s", wsURL)
	wsConn, err := connect(ctx, wsURL)
	if err != nil {
		return nil, err
	}
	defer wsConn.Close()

	dc, err := transport.NewDataChannelConn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create DataChannel: %w", err)
	}

	ex := newExchange(dc, wsConn)
	errCh := make(chan error, 1)
	go func() {
		errCh <- ex.watch()
	}()

	return awaitReady(ctx, dc, errCh)
}

func awaitReady(ctx context.Context, dc *transport.DataChannelConn, errCh <-chan error) (*transport.DataChannelConn, error) {
	select {
	case <-dc.Ready():
		util.LogSuccess("WebRTC DataChannel established, closing WS")
		return dc, nil

	case err := <-errCh:
		dc.Close()
		return nil, fmt.Errorf("signaling failed: %w", err)

	case <-ctx.Done():
		dc.Close()
		return nil, ctx.Err()
	}
}
