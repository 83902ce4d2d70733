package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformedHeader is returned by Decode when a datagram is shorter than
// HeaderSize.
var ErrMalformedHeader = errors.New("malformed fragment header")

// Encode serializes a Fragment into a single datagram.
func Encode(f *Fragment) []byte {
	return EncodeFragment(f.FrameID, f.Index, f.Count, f.Payload)
}

// EncodeFragment writes the fixed header followed by payload. No length limit
// is enforced; the caller guarantees the result fits the transport.
func EncodeFragment(frameID uint32, index, count uint16, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], frameID)
	binary.BigEndian.PutUint16(buf[4:6], index)
	binary.BigEndian.PutUint16(buf[6:8], count)
	copy(buf[HeaderSize:], payload)
	return buf
}

// Decode parses a datagram into a Fragment. The payload is copied, so data
// may be a reused read buffer. Index and Count are not validated here.
func Decode(data []byte) (*Fragment, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes (need at least %d)", ErrMalformedHeader, len(data), HeaderSize)
	}
	f := &Fragment{
		FrameID: binary.BigEndian.Uint32(data[0:4]),
		Index:   binary.BigEndian.Uint16(data[4:6]),
		Count:   binary.BigEndian.Uint16(data[6:8]),
		Payload: make([]byte, len(data)-HeaderSize),
	}
	copy(f.Payload, data[HeaderSize:])
	return f, nil
}
