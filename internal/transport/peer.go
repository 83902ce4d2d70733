package transport

import (
	"github.com/pion/webrtc/v4"
)

// STUN servers for ICE candidate gathering. No TURN: only direct P2P paths
// are tried.
var stunServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// newAPI returns a webrtc API that also offers loopback host candidates, so
// two peers on one machine connect without leaving it.
func newAPI(networks ...webrtc.NetworkType) *webrtc.API {
	var se webrtc.SettingEngine
	se.SetIncludeLoopbackCandidate(true)
	if len(networks) > 0 {
		se.SetNetworkTypes(networks)
	}
	return webrtc.NewAPI(webrtc.WithSettingEngine(se))
}

// newPeerConnection creates a PeerConnection configured with Google STUN servers.
func newPeerConnection() (*webrtc.PeerConnection, error) {
	config := webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: stunServers},
		},
	}
	return newAPI().NewPeerConnection(config)
}

// newLocalPeerConnection creates a PeerConnection that gathers UDP host
// candidates only, for peers on the same machine.
func newLocalPeerConnection() (*webrtc.PeerConnection, error) {
	return newAPI(webrtc.NetworkTypeUDP4).NewPeerConnection(webrtc.Configuration{})
}

// newDataChannel creates a pre-negotiated DataChannel that is unordered and
// never retransmits, so a lost message is lost exactly as a UDP datagram
// would be. Negotiated mode (ID 0) lets both sides create the channel
// independently without relying on OnDataChannel.
func newDataChannel(pc *webrtc.PeerConnection) (*webrtc.DataChannel, error) {
	ordered := false
	negotiated := true
	maxRetransmits := uint16(0)
	id := uint16(0)

	return pc.CreateDataChannel("frames", &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
		Negotiated:     &negotiated,
		ID:             &id,
	})
}
