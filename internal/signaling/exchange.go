package signaling

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/1ureka/framecast/internal/transport"
	"github.com/1ureka/framecast/internal/util"
)

// exchange runs the SDP/ICE conversation for one DataChannelConn over one
// WebSocket. Writes are serialized; reads happen only in watch.
type exchange struct {
	dc   *transport.DataChannelConn
	conn *websocket.Conn
	mu   sync.Mutex

	// Owned by watch. Candidates may overtake the description they belong to.
	remoteSet bool
	pending   []webrtc.ICECandidateInit
}

func newExchange(dc *transport.DataChannelConn, conn *websocket.Conn) *exchange {
	e := &exchange{dc: dc, conn: conn}

	// Trickle ICE candidates as they are gathered.
	dc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		// Best-effort: the WS is closed once the channel is ready.
		if err := e.send(message{Type: msgTypeCandidate, Candidate: string(data)}); err != nil {
			util.LogDebug("failed to send ICE candidate: %v", err)
		}
	})

	return e
}

func (e *exchange) send(msg message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteJSON(msg)
}

// sendOffer creates an SDP offer, sets it as local description, and sends it.
func (e *exchange) sendOffer() error {
	offer, err := e.dc.CreateOffer()
	if err != nil {
		return fmt.Errorf("CreateOffer: %w", err)
	}
	if err := e.dc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("SetLocalDescription: %w", err)
	}
	return e.send(message{Type: msgTypeOffer, SDP: offer.SDP})
}

func (e *exchange) sendAnswer() error {
	answer, err := e.dc.CreateAnswer()
	if err != nil {
		return fmt.Errorf("CreateAnswer: %w", err)
	}
	if err := e.dc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("SetLocalDescription: %w", err)
	}
	return e.send(message{Type: msgTypeAnswer, SDP: answer.SDP})
}

// watch handles incoming signaling messages until the WebSocket fails or is
// closed. An offer is answered immediately.
func (e *exchange) watch() error {
	for {
		var msg message
		if err := e.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read WS message: %w", err)
		}

		switch msg.Type {
		case msgTypeOffer:
			if err := e.dc.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeOffer, SDP: msg.SDP,
			}); err != nil {
				return fmt.Errorf("SetRemoteDescription: %w", err)
			}
			if err := e.sendAnswer(); err != nil {
				return err
			}
			if err := e.flushCandidates(); err != nil {
				return err
			}

		case msgTypeAnswer:
			if err := e.dc.SetRemoteDescription(webrtc.SessionDescription{
				Type: webrtc.SDPTypeAnswer, SDP: msg.SDP,
			}); err != nil {
				return fmt.Errorf("SetRemoteDescription: %w", err)
			}
			if err := e.flushCandidates(); err != nil {
				return err
			}

		case msgTypeCandidate:
			var init webrtc.ICECandidateInit
			if err := json.Unmarshal([]byte(msg.Candidate), &init); err != nil {
				return fmt.Errorf("failed to parse ICE candidate: %w", err)
			}
			if !e.remoteSet {
				e.pending = append(e.pending, init)
				continue
			}
			if err := e.dc.AddICECandidate(init); err != nil {
				return fmt.Errorf("AddICECandidate: %w", err)
			}

		default:
			util.LogDebug("ignoring signaling message of type %q", msg.Type)
		}
	}
}

// flushCandidates marks the remote description as applied and adds every
// candidate that arrived before it.
func (e *exchange) flushCandidates() error {
	e.remoteSet = true
	for _, init := range e.pending {
		if err := e.dc.AddICECandidate(init); err != nil {
			return fmt.Errorf("AddICECandidate: %w", err)
		}
	}
	e.pending = nil
	return nil
}
