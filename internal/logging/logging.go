// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures Setup.
type Options struct {
	// Out receives console output. Defaults to os.Stderr.
	Out io.Writer
	// LogFile additionally receives JSON lines when set.
	LogFile string
	// NoColor disables console colors.
	NoColor bool
}

// Level maps a -v count to a level: 0 warn, 1 info, 2 debug, 3+ trace.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Setup configures the global logger. The returned function closes the log
// file, if any.
func Setup(verbosity int, opts Options) (func() error, error) {
	zerolog.SetGlobalLevel(Level(verbosity))

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
	}}

	closer := func() error { return nil }
	var fileErr error
	if opts.LogFile != "" {
		f, err := openLogFile(opts.LogFile)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, f)
			closer = f.Close
		}
	}

	logger := zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if verbosity >= 2 {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", opts.LogFile).Msg("Logging to console only")
		return closer, fileErr
	}
	log.Debug().Int("verbosity", verbosity).Str("log_file", opts.LogFile).Msg("Logger initialized")
	return closer, nil
}

// DefaultLogFile returns $XDG_STATE_HOME/toshy-rules/toshy-rules.log.
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, "toshy-rules", "toshy-rules.log")
}

// For returns the global logger tagged with a component name.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
