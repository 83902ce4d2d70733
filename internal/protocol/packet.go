// Package protocol defines the fragment wire format used to carry encoded
// video frames over a datagram transport.
package protocol

// HeaderSize is the fixed header size: FrameID(4) + Index(2) + Count(2).
const HeaderSize = 8

// MaxFragmentCount is the largest fragment count a frame may use. The value
// 0xFFFF is reserved to mean "too large, frame rejected" and is never sent.
const MaxFragmentCount = 0xFFFE

// Fragment is one datagram's worth of an encoded frame.
type Fragment struct {
	FrameID uint32 // Per-frame counter, wraps mod 2^32
	Index   uint16 // 0-based position within the frame
	Count   uint16 // Total fragments of the frame
	Payload []byte // Raw slice of the encoded frame
}

// FragmentCount returns ceil(payloadLen / chunkSize). The result may exceed
// MaxFragmentCount; callers must reject such frames before sending.
func FragmentCount(payloadLen, chunkSize int) int {
	if payloadLen <= 0 || chunkSize <= 0 {
		return 0
	}
	return (payloadLen + chunkSize - 1) / chunkSize
}
