package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Log file names, one per level.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to per-level files and the console.
type Logger struct {
	infoLog    zerolog.Logger
	warningLog zerolog.Logger
	errorLog   zerolog.Logger
	logDir     string
	files      []*os.File
	mu         sync.Mutex
}

// Options configures a Logger. An empty Dir disables the log files.
type Options struct {
	Dir     string
	Level   string
	Console io.Writer
}

// New creates a Logger and ensures the log directory exists.
func New(opts Options) (*Logger, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	console := opts.Console
	if console == nil {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	console = zerolog.SyncWriter(console)

	l := &Logger{logDir: opts.Dir}
	writer := func(name string) (io.Writer, error) {
		if opts.Dir == "" {
			return console, nil
		}
		f, err := os.OpenFile(filepath.Join(opts.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
		}
		l.files = append(l.files, f)
		return zerolog.MultiLevelWriter(console, f), nil
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	info, err := writer(InfoFile)
	if err != nil {
		return nil, err
	}
	warning, err := writer(WarningFile)
	if err != nil {
		l.Close()
		return nil, err
	}
	errw, err := writer(ErrorFile)
	if err != nil {
		l.Close()
		return nil, err
	}

	l.infoLog = zerolog.New(info).Level(level).With().Timestamp().Logger()
	l.warningLog = zerolog.New(warning).Level(level).With().Timestamp().Logger()
	l.errorLog = zerolog.New(errw).Level(level).With().Timestamp().Logger()
	return l, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{
		infoLog:    zerolog.Nop(),
		warningLog: zerolog.Nop(),
		errorLog:   zerolog.Nop(),
	}
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Info().Msgf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warn().Msgf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Error().Msgf(format, v...)
}

// Event starts a structured info entry, e.g. l.Event("embed").Float64("psnr", p).Send().
func (l *Logger) Event(op string) *zerolog.Event {
	return l.infoLog.Info().Str("op", op)
}

// Dir returns the directory log files are written to.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	if l.logDir == "" {
		return nil
	}
	l.mu.Lock()
	err := os.Truncate(filepath.Join(l.logDir, fileName), 0)
	l.mu.Unlock()
	if err != nil {
		l.Error("Error truncating %s: %v", fileName, err)
		return err
	}
	l.Info("File %s has been cleared.", fileName)
	return nil
}

// Close releases the log files.
func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}
