// Package media holds the collaborators around the streaming core: where raw
// frames come from, how they are compressed and decompressed, and where
// completed frames are shown.
package media

import (
	"context"
	"errors"
	"image"
)

// ErrDecode is returned when a reassembled frame cannot be decoded.
var ErrDecode = errors.New("frame decode failed")

// ErrEncode is returned when a raw frame cannot be compressed.
var ErrEncode = errors.New("frame encode failed")

// Source produces raw frames. Next returns io.EOF at end of stream, which is
// a normal termination signal and not an error.
type Source interface {
	Next(ctx context.Context) (image.Image, error)
	// FPS reports the native frame rate; values <= 0 mean unknown.
	FPS() float64
	Close() error
}

// Encoder compresses one raw frame.
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
}

// Decoder decompresses one completed frame.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// Display shows decoded frames. It is fire-and-forget: failures stay inside
// the implementation.
type Display interface {
	Show(frameID uint32, img image.Image)
	Close() error
}
