package protocol

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeDecodeRoundTrip verifies that Decode inverts Encode for a range of
// payload sizes, including the empty payload.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		frag *Fragment
	}{
		{"empty payload", &Fragment{FrameID: 1, Index: 0, Count: 1, Payload: []byte{}}},
		{"small payload", &Fragment{FrameID: 0xDEADBEEF, Index: 2, Count: 3, Payload: []byte("jpeg bytes")}},
		{"chunk sized payload", &Fragment{FrameID: 42, Index: 0, Count: 1, Payload: make([]byte, 4096)}},
		{"boundary values", &Fragment{FrameID: 0xFFFFFFFF, Index: 0xFFFD, Count: MaxFragmentCount, Payload: []byte{0xFF}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := Encode(tc.frag)
			require.Len(t, encoded, HeaderSize+len(tc.frag.Payload))

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.frag.FrameID, decoded.FrameID)
			assert.Equal(t, tc.frag.Index, decoded.Index)
			assert.Equal(t, tc.frag.Count, decoded.Count)
			assert.Equal(t, tc.frag.Payload, decoded.Payload)
		})
	}
}

// TestEncodeFragmentLayout pins the big-endian header layout byte by byte.
func TestEncodeFragmentLayout(t *testing.T) {
	buf := EncodeFragment(0x01020304, 0x0506, 0x0708, []byte{0xAA, 0xBB})

	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0xAA, 0xBB}, buf)
	assert.Equal(t, uint32(0x01020304), binary.BigEndian.Uint32(buf[0:4]))
}

// TestDecodeTooShort verifies that anything shorter than HeaderSize fails with
// ErrMalformedHeader.
func TestDecodeTooShort(t *testing.T) {
	for size := 0; size < HeaderSize; size++ {
		t.Run(fmt.Sprintf("%d bytes", size), func(t *testing.T) {
			_, err := Decode(make([]byte, size))
			assert.ErrorIs(t, err, ErrMalformedHeader)
		})
	}
}

// TestDecodeExactHeaderSize verifies that a header-only datagram decodes with an
// empty payload and that a zero count is not rejected at this layer.
func TestDecodeExactHeaderSize(t *testing.T) {
	decoded, err := Decode(EncodeFragment(7, 3, 0, nil))
	require.NoError(t, err)

	assert.Equal(t, uint32(7), decoded.FrameID)
	assert.Equal(t, uint16(3), decoded.Index)
	assert.Equal(t, uint16(0), decoded.Count)
	assert.Empty(t, decoded.Payload)
}

// TestDecodePreservesPayload verifies that the decoded payload does not alias
// the input buffer, which the receiver reuses between reads.
func TestDecodePreservesPayload(t *testing.T) {
	encoded := EncodeFragment(10, 0, 1, []byte("original"))
	decoded, err := Decode(encoded)
	require.NoError(t, err)

	encoded[HeaderSize] = 0xFF
	assert.Equal(t, []byte("original"), decoded.Payload)
}

func TestFragmentCount(t *testing.T) {
	testCases := []struct {
		payload, chunk, want int
	}{
		{0, 4096, 0},
		{1, 4096, 1},
		{4096, 4096, 1},
		{4097, 4096, 2},
		{10000, 4096, 3},
		{65535, 1, 65535},
		{10, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d/%d", tc.payload, tc.chunk), func(t *testing.T) {
			assert.Equal(t, tc.want, FragmentCount(tc.payload, tc.chunk))
		})
	}
}

func TestIsGreeting(t *testing.T) {
	assert.True(t, IsGreeting([]byte("HELLO")))
	assert.True(t, IsGreeting([]byte("HELLO\n")))
	assert.False(t, IsGreeting([]byte("hello")))
	assert.False(t, IsGreeting(nil))
	assert.False(t, IsGreeting(EncodeFragment(1, 0, 1, []byte("HELLO"))))
}
