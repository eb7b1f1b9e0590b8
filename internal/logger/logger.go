// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service is stamped on every JSON line.
const Service = "spennies-bot"

// Log is the global logger instance.
var Log zerolog.Logger

var (
	outMu  sync.Mutex
	out    io.Writer = os.Stdout
	asJSON bool
)

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	rebuild()
}

func rebuild() {
	if asJSON {
		Log = zerolog.New(out).With().Timestamp().Str("service", Service).Logger()
		return
	}
	Log = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetLevel sets the global log level. Unknown names mean info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetJSON switches to JSON output (for production).
func SetJSON() {
	outMu.Lock()
	defer outMu.Unlock()
	asJSON = true
	rebuild()
}

// SetFormat selects "json" or console output. Anything else keeps console.
func SetFormat(format string) {
	outMu.Lock()
	defer outMu.Unlock()
	asJSON = strings.EqualFold(strings.TrimSpace(format), "json")
	rebuild()
}

// SetOutput redirects the global logger, keeping the current format.
// A nil writer restores stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
	rebuild()
}

// ForUser returns a child logger tagged with the hashed Telegram user id.
func ForUser(userID int64) zerolog.Logger {
	return Log.With().Str("user_hash", HashUserID(userID)).Logger()
}
