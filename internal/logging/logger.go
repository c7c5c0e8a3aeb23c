// Package logging builds the structured JSON loggers used across hexkit.
package logging

import (
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RowanDark/hexkit/internal/hexify"
)

type Option func(*config) error

type config struct {
	writers []io.Writer
	closers []io.Closer
	level   zapcore.Level
}

func defaultConfig() *config {
	return &config{writers: []io.Writer{os.Stderr}, level: zapcore.InfoLevel}
}

func WithWriter(w io.Writer) Option {
	return func(cfg *config) error {
		if w == nil {
			return errors.New("writer cannot be nil")
		}
		cfg.writers = append(cfg.writers, w)
		return nil
	}
}

func WithFile(path string) Option {
	return func(cfg *config) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("file path cannot be empty")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		cfg.writers = append(cfg.writers, f)
		cfg.closers = append(cfg.closers, f)
		return nil
	}
}

// WithoutStderr drops the default stderr stream.
func WithoutStderr() Option {
	return func(cfg *config) error {
		filtered := cfg.writers[:0]
		for _, w := range cfg.writers {
			if w == os.Stderr {
				continue
			}
			filtered = append(filtered, w)
		}
		cfg.writers = filtered
		return nil
	}
}

// WithLevel sets the minimum level from its text form (debug, info, warn,
// error).
func WithLevel(level string) Option {
	return func(cfg *config) error {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		cfg.level = lvl
		return nil
	}
}

// Logger is a zap logger that owns the files it writes to.
type Logger struct {
	*zap.Logger
	closers []io.Closer
}

// New returns a JSON logger tagged with component.
func New(component string, opts ...Option) (*Logger, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			for _, closer := range cfg.closers {
				_ = closer.Close()
			}
			return nil, err
		}
	}
	if len(cfg.writers) == 0 {
		return nil, errors.New("no writers configured for logger")
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	syncers := make([]zapcore.WriteSyncer, 0, len(cfg.writers))
	for _, w := range cfg.writers {
		syncers = append(syncers, zapcore.AddSync(w))
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.NewMultiWriteSyncer(syncers...),
		cfg.level,
	)

	return &Logger{
		Logger:  zap.New(core).With(zap.String("component", component)),
		closers: cfg.closers,
	}, nil
}

func MustNew(component string, opts ...Option) *Logger {
	logger, err := New(component, opts...)
	if err != nil {
		panic(err)
	}
	return logger
}

// Close flushes buffered entries and closes any files opened by WithFile.
func (l *Logger) Close() error {
	if l == nil || l.Logger == nil {
		return nil
	}
	_ = l.Logger.Sync()
	var firstErr error
	for _, closer := range l.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}

// previewBytes bounds how much of a candidate reaches a log line.
const previewBytes = 32

// Candidate renders b for logging the way it would be written to an output
// file: plain when printable, as a $HEX[...] envelope otherwise. Only the
// first previewBytes bytes are kept.
func Candidate(key string, b []byte) zap.Field {
	return CandidateWith(hexify.DefaultPolicy(), key, b)
}

// CandidateWith is Candidate under an explicit policy.
func CandidateWith(p hexify.Policy, key string, b []byte) zap.Field {
	return zap.Object(key, candidate{policy: p, raw: b})
}

type candidate struct {
	policy hexify.Policy
	raw    []byte
}

func (c candidate) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	preview := c.raw
	truncated := len(preview) > previewBytes
	if truncated {
		preview = preview[:previewBytes]
	}
	// Decide on the full value so a separator past the preview still forces
	// an envelope.
	escaped := c.policy.Needs(c.raw)
	p := c.policy
	p.MaxFieldLen = previewBytes
	if escaped {
		enc.AddString("value", string(p.Escape(preview)))
	} else {
		enc.AddString("value", string(preview))
	}
	enc.AddInt("len", len(c.raw))
	enc.AddBool("escaped", escaped)
	if truncated {
		enc.AddBool("truncated", true)
	}
	return nil
}
