package processor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LogFile is the name of the log written to the work directory when save_log is set
const LogFile string = "log.txt"

// ParseLevel returns the slog level named by s: "debug", "info", "warn" or "error"
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, errors.Errorf("Unknown log level %q", s)
	}

	return l, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger returns a text logger writing to stderr if printLog is set, and to 'file' if it is
// not empty. The returned Closer closes the file.
func NewLogger(level string, printLog bool, file string) (*slog.Logger, io.Closer, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if printLog {
		writers = append(writers, os.Stderr)
	}

	if file != "" {
		if err = os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, nil, errors.Wrapf(err, "Can't create directory for log file\n")
		}

		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "Can't open log file\n")
		}

		writers = append(writers, f)
		closer = f
	}

	logger := slog.New(slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: l,
	}))

	return logger, closer, nil
}
