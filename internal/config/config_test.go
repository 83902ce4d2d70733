package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	for _, role := range []Role{RoleSender, RoleReceiver} {
		t.Run(string(role), func(t *testing.T) {
			cfg := Default(role)
			require.NoError(t, cfg.Validate())
			assert.Equal(t, 4096, cfg.ChunkSize)
			assert.Equal(t, 2*time.Second, cfg.FrameTimeout)
		})
	}
	assert.Equal(t, "0.0.0.0:5005", Default(RoleSender).Listen)
	assert.Equal(t, "0.0.0.0:5006", Default(RoleReceiver).Listen)
}

func TestValidateRejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown role", func(c *Config) { c.Role = "host" }},
		{"unknown transport", func(c *Config) { c.Transport = "tcp" }},
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }},
		{"chunk over datagram", func(c *Config) { c.ChunkSize = 70000 }},
		{"quality over 100", func(c *Config) { c.Quality = 101 }},
		{"negative quality", func(c *Config) { c.Quality = -1 }},
		{"negative width", func(c *Config) { c.MaxWidth = -1 }},
		{"zero frame timeout", func(c *Config) { c.FrameTimeout = 0 }},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"NaN fps", func(c *Config) { c.FPS = math.NaN() }},
		{"webrtc receiver without url", func(c *Config) {
			c.Role = RoleReceiver
			c.Transport = TransportWebRTC
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default(RoleSender)
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsQualityBounds(t *testing.T) {
	for _, q := range []int{0, 1, 100} {
		cfg := Default(RoleSender)
		cfg.Quality = q
		assert.NoError(t, cfg.Validate(), "quality %d", q)
	}
}

func TestFrameInterval(t *testing.T) {
	testCases := []struct {
		name      string
		fps       float64
		interval  time.Duration
		sourceFPS float64
		want      time.Duration
	}{
		{"source rate", 0, 0, 50, 20 * time.Millisecond},
		{"invalid source falls back to 25", 0, 0, 0, 40 * time.Millisecond},
		{"negative source falls back to 25", 0, 0, -1, 40 * time.Millisecond},
		{"NaN source falls back to 25", 0, 0, math.NaN(), 40 * time.Millisecond},
		{"fps override", 10, 0, 50, 100 * time.Millisecond},
		{"interval override wins", 10, 5 * time.Millisecond, 50, 5 * time.Millisecond},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default(RoleSender)
			cfg.FPS = tc.fps
			cfg.Interval = tc.interval
			assert.Equal(t, tc.want, cfg.FrameInterval(tc.sourceFPS))
		})
	}
}

func TestLoadOverridesBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framecast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
role: receiver
chunk: 1200
frame_timeout: 500ms
server: 10.0.0.2:5005
`), 0o644))

	cfg, err := Load(path, Default(RoleSender))
	require.NoError(t, err)

	assert.Equal(t, RoleReceiver, cfg.Role)
	assert.Equal(t, 1200, cfg.ChunkSize)
	assert.Equal(t, 500*time.Millisecond, cfg.FrameTimeout)
	assert.Equal(t, "10.0.0.2:5005", cfg.Server)
	assert.Equal(t, 80, cfg.Quality, "fields absent from the file keep base values")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), Default(RoleSender))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk: [1, 2"), 0o644))
	_, err = Load(path, Default(RoleSender))
	assert.Error(t, err)
}
