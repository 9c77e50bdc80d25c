// Package logging builds the process logger every component receives.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger writing to the given file with rotation, or to stderr
// when no file is configured.
func New(file string, maxSizeMB, maxBackups int) *log.Logger {
	var out io.Writer = os.Stderr
	if file != "" {
		out = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		}
	}
	return log.New(out, "", log.LstdFlags|log.Lmicroseconds)
}

// Discard returns a logger that drops everything. Used by tests that do not
// care about log output.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
