// Package logging builds the operation log: every event goes to a plain-text
// file, warnings and errors are echoed to the console.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// TimeFormat is used for every line of the operation log.
const TimeFormat = "2006-01-02 15:04:05"

// New returns a logger writing to file and console. file receives info and
// above (debug too when verbose); console receives warnings and above, or
// everything when verbose. Either writer may be nil.
func New(file, console io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	consoleLevel := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
		consoleLevel = zerolog.DebugLevel
	}

	var writers []io.Writer
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        file,
			NoColor:    true,
			TimeFormat: TimeFormat,
		})
	}
	if console != nil {
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{
				Out:        console,
				TimeFormat: TimeFormat,
			}},
			Level: consoleLevel,
		})
	}
	if len(writers) == 0 {
		return zerolog.Nop()
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Open creates (or appends to) the log file at path and returns a logger
// writing to it and console. The caller closes the returned file.
func Open(path string, console io.Writer, verbose bool) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return New(f, console, verbose), f, nil
}
