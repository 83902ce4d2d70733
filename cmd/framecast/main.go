// Framecast: CLI entry point.
//
// This tool streams video frames from a sender to one registered receiver over
// a lossy datagram transport (UDP, or a WebRTC DataChannel set up through a
// WebSocket signaling phase). Frames larger than one datagram are fragmented
// and reassembled; incomplete frames are dropped after a timeout.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-role, -listen, -server, -source, -out, ...). A YAML file given with
// -config supplies defaults; explicit flags override it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/1ureka/framecast/internal/app"
	"github.com/1ureka/framecast/internal/config"
	"github.com/1ureka/framecast/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fs := flag.NewFlagSet("framecast", flag.ExitOnError)
	role := fs.String("role", "", "Role: sender or receiver (interactive when empty)")
	configPath := fs.String("config", "", "YAML config file; flags override its values")
	fs.String("transport", "udp", "Datagram transport: udp or webrtc")
	fs.String("listen", "", "Local bind address (default 0.0.0.0:5005 sender, 0.0.0.0:5006 receiver)")
	fs.String("server", "127.0.0.1:5005", "Sender address to announce to (receiver, udp)")
	fs.String("ws-url", "", "Sender signaling URL incl. PIN (receiver, webrtc), e.g. ws://host:5005/ws?pin=123456")
	fs.String("pin", "", "Signaling PIN (sender, webrtc); generated when empty")
	fs.Int("chunk", 4096, "Maximum payload bytes per fragment")
	fs.Int("quality", 80, "JPEG quality 0~100")
	fs.Int("max-width", 640, "Downscale wider frames to this width, 0 disables")
	fs.Duration("register-timeout", 30*time.Second, "How long the sender waits for a receiver")
	fs.Duration("frame-timeout", 2*time.Second, "Drop partial frames idle for this long")
	fs.Duration("read-timeout", time.Second, "Receiver read bound and sweep tick")
	fs.Float64("fps", 0, "Override the source frame rate")
	fs.Duration("interval", 0, "Override the frame interval (wins over -fps)")
	fs.String("source", "pattern", "Frame source: pattern, an image directory or an image file")
	fs.Int("frames", 0, "Stop the pattern source after this many frames, 0 = endless")
	fs.Bool("loop", false, "Restart file sources at end of stream")
	fs.String("out", "latest.jpg", "Receiver output file, rewritten on every frame")
	fs.Duration("stats", 10*time.Second, "Stats report interval, 0 disables")
	fs.Bool("debug", false, "Enable debug logging")
	fs.Bool("trace", false, "Enable trace logging (every dropped datagram)")
	_ = fs.Parse(os.Args[1:])

	pterm.Info.Println(fmt.Sprintf("Framecast v%s", version))
	pterm.Println()

	r := config.Role(*role)
	if r == "" {
		r = askRole()
	}

	cfg, err := buildConfig(fs, r, *configPath)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	if *role == "" {
		askMissing(&cfg)
	}

	util.ConfigureLogging(cfg.Debug, cfg.Trace)

	if err := cfg.Validate(); err != nil {
		util.LogError("invalid configuration:\n%v", err)
		os.Exit(1)
	}

	switch cfg.Role {
	case config.RoleSender:
		err = app.RunSender(ctx, cfg)
	case config.RoleReceiver:
		err = app.RunReceiver(ctx, cfg)
	}
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	util.LogInfo("framecast %s exited cleanly", cfg.Role)
}

// buildConfig layers role defaults, the optional YAML file and every flag the
// user set explicitly, in that order.
func buildConfig(fs *flag.FlagSet, role config.Role, path string) (config.Config, error) {
	cfg := config.Default(role)
	if path != "" {
		loaded, err := config.Load(path, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		cfg.Role = role
	}

	fs.Visit(func(f *flag.Flag) { applyFlag(&cfg, f) })

	if cfg.SignalingURL != "" {
		wsURL, err := normalizeWSURL(cfg.SignalingURL)
		if err != nil {
			return cfg, err
		}
		cfg.SignalingURL = wsURL
	}
	return cfg, nil
}

// applyFlag copies one explicitly set flag into cfg. Values are parsed by the
// flag package and range-checked later by Config.Validate.
func applyFlag(cfg *config.Config, f *flag.Flag) {
	getter, ok := f.Value.(flag.Getter)
	if !ok {
		return
	}
	v := getter.Get()

	switch f.Name {
	case "transport":
		cfg.Transport = config.TransportKind(v.(string))
	case "listen":
		cfg.Listen = v.(string)
	case "server":
		cfg.Server = v.(string)
	case "ws-url":
		cfg.SignalingURL = v.(string)
	case "pin":
		cfg.PIN = v.(string)
	case "chunk":
		cfg.ChunkSize = v.(int)
	case "quality":
		cfg.Quality = v.(int)
	case "max-width":
		cfg.MaxWidth = v.(int)
	case "register-timeout":
		cfg.RegisterTimeout = v.(time.Duration)
	case "frame-timeout":
		cfg.FrameTimeout = v.(time.Duration)
	case "read-timeout":
		cfg.ReadTimeout = v.(time.Duration)
	case "fps":
		cfg.FPS = v.(float64)
	case "interval":
		cfg.Interval = v.(time.Duration)
	case "source":
		cfg.Source = v.(string)
	case "frames":
		cfg.Frames = v.(int)
	case "loop":
		cfg.Loop = v.(bool)
	case "out":
		cfg.Output = v.(string)
	case "stats":
		cfg.StatsInterval = v.(time.Duration)
	case "debug":
		cfg.Debug = v.(bool)
	case "trace":
		cfg.Trace = v.(bool)
	}
}

// ---------------------------------------------------------------------------
// Interactive mode
// ---------------------------------------------------------------------------

func askRole() config.Role {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Sender   - Stream frames to a receiver", "Receiver - Display a sender's stream"}).
		WithDefaultText("Select your role").
		Show()
	pterm.Println()

	if strings.HasPrefix(role, "Receiver") {
		return config.RoleReceiver
	}
	return config.RoleSender
}

// askMissing prompts for the few values that have no sensible default when
// running interactively.
func askMissing(cfg *config.Config) {
	switch cfg.Role {
	case config.RoleSender:
		cfg.Source = askText("Frame source (pattern, image directory or file)", cfg.Source)
	case config.RoleReceiver:
		if cfg.Transport == config.TransportWebRTC {
			cfg.SignalingURL = askURL()
			return
		}
		cfg.Server = askText("Sender address (host:port)", cfg.Server)
	}
}

func askText(prompt, def string) string {
	raw, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText(prompt).
		WithDefaultValue(def).
		Show()
	pterm.Println()

	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return def
}

// askURL prompts the user for a valid WebSocket URL until one is entered.
func askURL() string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("Signaling URL (e.g. wss://host/ws?pin=123456)").
			Show()

		wsURL, err := normalizeWSURL(raw)
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}

// normalizeWSURL validates a raw WebSocket URL, defaulting the scheme to wss
// and the path to /ws. The query (PIN) is preserved.
func normalizeWSURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "wss://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	return u.String(), nil
}
