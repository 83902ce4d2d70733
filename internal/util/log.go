package util

import (
	"fmt"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
}

// ConfigureLogging selects the lowest level printed. trace wins over debug;
// trace shows every dropped datagram.
func ConfigureLogging(debug, trace bool) {
	switch {
	case trace:
		pterm.DefaultLogger.Level = pterm.LogLevelTrace
	case debug:
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	default:
		pterm.DefaultLogger.Level = pterm.LogLevelInfo
	}
}

// Leveled logging backed by pterm's default logger (stderr). The receive
// loop logs per datagram at trace level, so formatting is skipped for levels
// that would not print.

func LogTrace(format string, args ...any)   { logAt(pterm.LogLevelTrace, format, args...) }
func LogDebug(format string, args ...any)   { logAt(pterm.LogLevelDebug, format, args...) }
func LogInfo(format string, args ...any)    { logAt(pterm.LogLevelInfo, format, args...) }
func LogWarning(format string, args ...any) { logAt(pterm.LogLevelWarn, format, args...) }
func LogError(format string, args ...any)   { logAt(pterm.LogLevelError, format, args...) }

// LogSuccess marks a milestone (receiver registered, channel open) with
// pterm's success prefix. It is always printed.
func LogSuccess(format string, args ...any) {
	pterm.Success.Printfln(format, args...)
}

func logAt(level pterm.LogLevel, format string, args ...any) {
	l := &pterm.DefaultLogger
	if !l.CanPrint(level) {
		return
	}

	msg := fmt.Sprintf(format, args...)
	switch level {
	case pterm.LogLevelTrace:
		l.Trace(msg)
	case pterm.LogLevelDebug:
		l.Debug(msg)
	case pterm.LogLevelInfo:
		l.Info(msg)
	case pterm.LogLevelWarn:
		l.Warn(msg)
	default:
		l.Error(msg)
	}
}
