package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{0, " 0.0   B"},
		{99, "99.0   B"},
		{1536, " 1.5 KiB"},
		{100 * 1024, " 0.1 MiB"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			got := formatBytes(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got, 8)
		})
	}
}

func TestSnapshotDelta(t *testing.T) {
	s := NewStats()
	s.AddSent(1000)
	s.FramesSent.Add(2)
	first := s.snapshot()

	s.AddSent(500)
	s.FramesSent.Add(1)
	s.FramesExpired.Add(3)
	d := s.snapshot().delta(first)

	assert.Equal(t, int64(500), d.sent)
	assert.Equal(t, int64(1), d.framesOut)
	assert.Equal(t, int64(3), d.expired)
}

func TestFormatStats(t *testing.T) {
	line := formatStats(snapshot{sent: 2048, framesOut: 50, expired: 1}, 2)
	assert.Contains(t, line, " 1.0 KiB/s")
	assert.Contains(t, line, " 25.0 fps")
	assert.Contains(t, line, "1 expired")
}
