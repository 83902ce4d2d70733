// Package receiver reassembles fragment datagrams into complete frames and
// hands them to the decode/display collaborators.
package receiver

import (
	"errors"
	"fmt"
	"time"

	"github.com/1ureka/framecast/internal/protocol"
)

var (
	// ErrInvalidFragment marks a fragment whose index/count cannot belong to
	// any frame (count 0, index ≥ count) or does not fit the frame's
	// established count.
	ErrInvalidFragment = errors.New("invalid fragment")
	// ErrDuplicateFragment marks a fragment whose index is already stored.
	ErrDuplicateFragment = errors.New("duplicate fragment")
	// ErrRetiredFrame marks a fragment of a frame already delivered or expired.
	ErrRetiredFrame = errors.New("fragment of retired frame")
	// ErrCorruptedFrame marks a frame whose count was reached with an index
	// missing. The frame is discarded.
	ErrCorruptedFrame = errors.New("corrupted frame")
)

// retiredCapacity bounds how many finished frame ids are remembered.
const retiredCapacity = 1024

// partialFrame is the reassembly progress of one frame id.
type partialFrame struct {
	id         uint32
	expected   uint16
	parts      map[uint16][]byte
	received   int
	size       int
	lastUpdate time.Time
}

// Reassembler tracks partial frames by frame id. Each entry leaves the table
// exactly once, either delivered or expired. It is goroutine-local (owned by
// the receive loop) and needs no locking.
type Reassembler struct {
	timeout time.Duration
	frames  map[uint32]*partialFrame
	retired *retiredSet
}

// NewReassembler creates an empty reassembler whose partial frames expire
// after timeout without a new fragment.
func NewReassembler(timeout time.Duration) *Reassembler {
	return &Reassembler{
		timeout: timeout,
		frames:  make(map[uint32]*partialFrame),
		retired: newRetiredSet(retiredCapacity),
	}
}

// Feed stores one fragment received at now. It returns the complete frame
// bytes once the last missing fragment arrives, and nil otherwise. A non-nil
// error means the fragment was dropped without changing any entry, except for
// ErrCorruptedFrame where the frame's entry is discarded.
func (r *Reassembler) Feed(f *protocol.Fragment, now time.Time) ([]byte, error) {
	if f.Count == 0 || f.Index >= f.Count {
		return nil, fmt.Errorf("%w: frame %d index %d count %d", ErrInvalidFragment, f.FrameID, f.Index, f.Count)
	}
	if r.retired.contains(f.FrameID) {
		return nil, fmt.Errorf("%w: frame %d", ErrRetiredFrame, f.FrameID)
	}

	pf, ok := r.frames[f.FrameID]
	if !ok {
		pf = &partialFrame{
			id:       f.FrameID,
			expected: f.Count,
			parts:    make(map[uint16][]byte, f.Count),
		}
		r.frames[f.FrameID] = pf
	}

	if f.Index >= pf.expected {
		return nil, fmt.Errorf("%w: frame %d index %d outside count %d", ErrInvalidFragment, f.FrameID, f.Index, pf.expected)
	}
	if _, dup := pf.parts[f.Index]; dup {
		return nil, fmt.Errorf("%w: frame %d index %d", ErrDuplicateFragment, f.FrameID, f.Index)
	}

	pf.parts[f.Index] = f.Payload
	pf.received++
	pf.size += len(f.Payload)
	pf.lastUpdate = now

	if pf.received < int(pf.expected) {
		return nil, nil
	}

	r.retire(pf.id)
	return pf.join()
}

// join concatenates the parts in index order.
func (pf *partialFrame) join() ([]byte, error) {
	frame := make([]byte, 0, pf.size)
	for i := uint16(0); i < pf.expected; i++ {
		part, ok := pf.parts[i]
		if !ok {
			return nil, fmt.Errorf("%w: frame %d missing index %d", ErrCorruptedFrame, pf.id, i)
		}
		frame = append(frame, part...)
	}
	return frame, nil
}

// Sweep removes every partial frame whose last new fragment is older than
// the timeout at now, and returns the removed ids. Expired keys are collected
// before any entry is deleted.
func (r *Reassembler) Sweep(now time.Time) []uint32 {
	var expired []uint32
	for id, pf := range r.frames {
		if now.Sub(pf.lastUpdate) > r.timeout {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.retire(id)
	}
	return expired
}

// Progress reports how many fragments of frameID are stored and how many are
// expected. ok is false when no partial entry exists.
func (r *Reassembler) Progress(frameID uint32) (received, expected int, ok bool) {
	pf, ok := r.frames[frameID]
	if !ok {
		return 0, 0, false
	}
	return pf.received, int(pf.expected), true
}

// Len returns the number of live partial frames.
func (r *Reassembler) Len() int { return len(r.frames) }

func (r *Reassembler) retire(id uint32) {
	delete(r.frames, id)
	r.retired.add(id)
}
