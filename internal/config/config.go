// Package config holds the runtime configuration shared by the CLI and the
// sender/receiver orchestration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Role represents which end of the stream this process runs.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// TransportKind selects the datagram backend.
type TransportKind string

const (
	TransportUDP    TransportKind = "udp"
	TransportWebRTC TransportKind = "webrtc"
)

// DefaultFPS is used when the source cannot report a usable frame rate.
const DefaultFPS = 25.0

// MaxChunkSize keeps header + chunk inside one UDP datagram.
const MaxChunkSize = 65507 - 8

// Config stores all parameters gathered from flags, prompts or a YAML file.
type Config struct {
	Role      Role          `yaml:"role"`
	Transport TransportKind `yaml:"transport"`

	// Sender: local bind address the greeting is awaited on.
	// Receiver: local bind address fragments are read from.
	Listen string `yaml:"listen"`
	// Receiver: producer address the greeting is sent to.
	Server string `yaml:"server"`

	// WebRTC backend only.
	SignalingURL string `yaml:"signaling_url"` // Receiver: ws(s)://host:port/ws
	PIN          string `yaml:"pin"`           // Sender: required PIN, generated when empty

	ChunkSize       int           `yaml:"chunk"`
	Quality         int           `yaml:"quality"` // 0~100; image/jpeg clamps below 1
	MaxWidth        int           `yaml:"max_width"`
	RegisterTimeout time.Duration `yaml:"register_timeout"`
	FrameTimeout    time.Duration `yaml:"frame_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	FPS             float64       `yaml:"fps"`      // overrides the source's rate when > 0
	Interval        time.Duration `yaml:"interval"` // overrides FPS when > 0

	Source string `yaml:"source"` // "pattern", an image directory or an image file
	Frames int    `yaml:"frames"` // pattern source frame limit, 0 = endless
	Loop   bool   `yaml:"loop"`   // restart file sources at end of stream
	Output string `yaml:"out"`    // receiver display file

	StatsInterval time.Duration `yaml:"stats_interval"`
	Debug         bool          `yaml:"debug"`
	Trace         bool          `yaml:"trace"`
}

// Default returns a Config populated with the defaults for role.
func Default(role Role) Config {
	cfg := Config{
		Role:            role,
		Transport:       TransportUDP,
		Server:          "127.0.0.1:5005",
		ChunkSize:       4096,
		Quality:         80,
		MaxWidth:        640,
		RegisterTimeout: 30 * time.Second,
		FrameTimeout:    2 * time.Second,
		ReadTimeout:     time.Second,
		Source:          "pattern",
		Output:          "latest.jpg",
		StatsInterval:   10 * time.Second,
	}
	if role == RoleReceiver {
		cfg.Listen = "0.0.0.0:5006"
	} else {
		cfg.Listen = "0.0.0.0:5005"
	}
	return cfg
}

// Load reads a YAML file over a copy of base. Fields absent from the file keep
// their base values.
func Load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise surface as protocol faults.
func (c Config) Validate() error {
	var errs []error

	switch c.Role {
	case RoleSender, RoleReceiver:
	default:
		errs = append(errs, fmt.Errorf("invalid role %q: must be 'sender' or 'receiver'", c.Role))
	}

	switch c.Transport {
	case TransportUDP:
		if c.Listen == "" {
			errs = append(errs, errors.New("missing listen address"))
		}
		if c.Role == RoleReceiver && c.Server == "" {
			errs = append(errs, errors.New("missing server address"))
		}
	case TransportWebRTC:
		if c.Role == RoleReceiver && c.SignalingURL == "" {
			errs = append(errs, errors.New("missing signaling URL for webrtc transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid transport %q: must be 'udp' or 'webrtc'", c.Transport))
	}

	if c.ChunkSize < 1 || c.ChunkSize > MaxChunkSize {
		errs = append(errs, fmt.Errorf("chunk size %d out of range 1~%d", c.ChunkSize, MaxChunkSize))
	}
	if c.Quality < 0 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality %d out of range 0~100", c.Quality))
	}
	if c.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("max width %d must not be negative", c.MaxWidth))
	}
	if c.RegisterTimeout <= 0 {
		errs = append(errs, errors.New("registration timeout must be positive"))
	}
	if c.FrameTimeout <= 0 {
		errs = append(errs, errors.New("frame timeout must be positive"))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, errors.New("read timeout must be positive"))
	}
	if c.FPS < 0 || math.IsNaN(c.FPS) {
		errs = append(errs, fmt.Errorf("fps %v must not be negative", c.FPS))
	}
	if c.Interval < 0 {
		errs = append(errs, errors.New("interval must not be negative"))
	}
	if c.Frames < 0 {
		errs = append(errs, errors.New("frame limit must not be negative"))
	}

	return errors.Join(errs...)
}

// FrameInterval resolves the pacing interval: an explicit Interval wins, then
// an explicit FPS, then the source's rate, then DefaultFPS.
func (c Config) FrameInterval(sourceFPS float64) time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}
	fps := c.FPS
	if !usableFPS(fps) {
		fps = sourceFPS
	}
	if !usableFPS(fps) {
		fps = DefaultFPS
	}
	return time.Duration(float64(time.Second) / fps)
}

func usableFPS(fps float64) bool {
	return fps > 0 && !math.IsNaN(fps) && !math.IsInf(fps, 0)
}
