// Package logger configures the process-wide structured logger: slog
// with a line handler that keeps a fixed key order, fans out through an
// asynchronous buffered writer, and carries request metadata through
// context.
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Settings selects the output format and sinks. Zero value logs INFO
// and above as KV lines to stdout.
type Settings struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	Dir    string `yaml:"dir" envconfig:"LOG_DIR"`
	File   string `yaml:"file" envconfig:"LOG_FILE"`
}

var (
	initOnce   sync.Once
	shutdownMu sync.Mutex
	shutdowned bool

	logWriter  *asyncWriter
	logClosers []io.Closer

	levelVar slog.LevelVar

	// L is the base logger; component loggers derive from it.
	L *slog.Logger

	// TG logs Telegram transport events.
	TG *slog.Logger
	// Dialog logs orchestrator decisions.
	Dialog *slog.Logger
	// Session logs session store activity.
	Session *slog.Logger
	// Backend logs persistence-service client calls.
	Backend *slog.Logger
	// Rates logs rate-service client calls.
	Rates *slog.Logger
	// DB logs database events on the backend service side.
	DB *slog.Logger
	// MIG logs schema migration events.
	MIG *slog.Logger
	// HTTP logs inbound HTTP traffic of the collaborator services.
	HTTP *slog.Logger
)

func init() {
	// Safe defaults so packages can log before Init runs (tests, early
	// startup failures).
	wireComponents(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Init configures the global structured logger. It may be called only
// once; later calls are no-ops.
func Init(s Settings) error {
	var initErr error
	initOnce.Do(func() {
		levelVar.Set(parseLevel(s.Level))

		outputs, closers, err := buildOutputs(s)
		if err != nil {
			initErr = err
			return
		}
		logClosers = closers
		logWriter = newAsyncWriter(outputs, 64*1024)

		handler := newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   parseFormat(s.Format),
			keyOrder: append([]string(nil), defaultKeyOrder...),
		})

		base := slog.New(handler)
		slog.SetDefault(base)
		wireComponents(base)
	})
	return initErr
}

func wireComponents(base *slog.Logger) {
	L = base
	TG = base.With("component", "tg")
	Dialog = base.With("component", "dialog")
	Session = base.With("component", "session")
	Backend = base.With("component", "client.backend")
	Rates = base.With("component", "client.rates")
	DB = base.With("component", "db")
	MIG = base.With("component", "db.migrate")
	HTTP = base.With("component", "http")
}

// Shutdown flushes buffered output and closes opened sinks.
func Shutdown() error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if shutdowned {
		return nil
	}
	shutdowned = true

	var errs []error
	if logWriter != nil {
		if err := logWriter.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := logWriter.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range logClosers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseFormat(raw string) logFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return formatJSON
	default:
		return formatKV
	}
}

func buildOutputs(s Settings) ([]io.Writer, []io.Closer, error) {
	writers := []io.Writer{os.Stdout}
	var closers []io.Closer
	dir := strings.TrimSpace(s.Dir)
	file := strings.TrimSpace(s.File)
	if dir != "" && file != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Printf("logger: failed to create log dir %s: %v", dir, err)
		} else {
			path := filepath.Join(dir, file)
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				log.Printf("logger: failed to open log file %s: %v", path, err)
			} else {
				writers = append(writers, f)
				closers = append(closers, f)
			}
		}
	}
	return writers, closers, nil
}

// Background returns a fresh context for log calls made outside any
// request scope.
func Background() context.Context {
	return context.Background()
}

// Component derives a child logger tagged with the component name.
func Component(name string) *slog.Logger {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return L
	}
	return L.With("component", trimmed)
}

// LogEvent emits a record whose message is carried in the event attr so
// the handler can place it in the fixed key order.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = L
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}
