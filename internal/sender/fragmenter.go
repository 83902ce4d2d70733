// Package sender turns encoded frames into fragment datagrams, transmits them
// to the registered consumer and paces production to a target frame rate.
package sender

import (
	"errors"
	"fmt"

	"github.com/1ureka/framecast/internal/protocol"
)

// ErrOversizedFrame is returned when a frame needs more fragments than the
// 16-bit count field can carry at the configured chunk size.
var ErrOversizedFrame = errors.New("frame too large to fragment")

// Split slices payload into chunkSize pieces (the last may be shorter) and
// wraps each in a fragment of frameID. The pieces alias payload. An empty
// payload yields no fragments.
func Split(frameID uint32, payload []byte, chunkSize int) ([]*protocol.Fragment, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSize)
	}

	count := protocol.FragmentCount(len(payload), chunkSize)
	if count > protocol.MaxFragmentCount {
		return nil, fmt.Errorf("%w: %d bytes need %d fragments of %d bytes (max %d)",
			ErrOversizedFrame, len(payload), count, chunkSize, protocol.MaxFragmentCount)
	}

	frags := make([]*protocol.Fragment, count)
	for i := 0; i < count; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, len(payload))
		frags[i] = &protocol.Fragment{
			FrameID: frameID,
			Index:   uint16(i),
			Count:   uint16(count),
			Payload: payload[start:end],
		}
	}
	return frags, nil
}
