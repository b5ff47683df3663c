// Package utils holds process-wide helpers shared by every layer.
package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	chlog "github.com/charmbracelet/log"
)

// Logger is the application-wide structured logger.
var Logger *chlog.Logger

// LogLevelEnv names the environment variable read by InitLogger.
const LogLevelEnv = "INFRALENS_LOG_LEVEL"

// InitLogger initializes the global logger writing to stdout, with the level
// taken from INFRALENS_LOG_LEVEL (debug, info, warn, error; default info).
func InitLogger() {
	if Logger != nil {
		return
	}
	Logger = newLogger(os.Stdout)
	if err := SetLogLevel(os.Getenv(LogLevelEnv)); err != nil {
		Logger.Warn("invalid log level, using info", "env", LogLevelEnv, "err", err)
	}
}

// UseWriter replaces the global logger with one writing to w. Tests use it to
// silence or capture output.
func UseWriter(w io.Writer) {
	Logger = newLogger(w)
}

func newLogger(w io.Writer) *chlog.Logger {
	l := chlog.NewWithOptions(w, chlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
		Prefix:          "infralens",
	})
	l.SetLevel(chlog.InfoLevel)
	return l
}

// SetLogLevel changes the level at runtime. An empty level keeps info.
func SetLogLevel(level string) error {
	if Logger == nil {
		InitLogger()
	}
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		Logger.SetLevel(chlog.InfoLevel)
		return nil
	}
	lvl, err := chlog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	Logger.SetLevel(lvl)
	return nil
}
