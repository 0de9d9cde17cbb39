// Package logger wraps logrus with file rotation for trading session
// logs. The Trade and Status levels from the original file logger are
// kept as structured fields.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/quantlab/crypto-paper-bot/pkg/config"
)

// Logger wraps logrus with trading-specific helpers.
type Logger struct {
	*logrus.Logger
	symbol string
}

// New creates a logger from the logging configuration. Output may be
// stdout, a rotated file, or both.
func New(cfg config.LoggingConfig, symbol string) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	switch cfg.Output {
	case "file":
		l.SetOutput(fileWriter(cfg, symbol))
	case "both":
		l.SetOutput(io.MultiWriter(os.Stdout, fileWriter(cfg, symbol)))
	default:
		l.SetOutput(os.Stdout)
	}

	return &Logger{Logger: l, symbol: symbol}
}

func fileWriter(cfg config.LoggingConfig, symbol string) io.Writer {
	dir := cfg.Directory
	if dir == "" {
		dir = "logs"
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, symbol+".log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// Trade logs a trade execution with structured fields.
func (l *Logger) Trade(action string, fields map[string]interface{}) {
	l.WithFields(logrus.Fields(fields)).WithField("event", "trade").Info(action)
}

// Status logs a market status snapshot.
func (l *Logger) Status(message string, fields map[string]interface{}) {
	l.WithFields(logrus.Fields(fields)).WithField("event", "status").Info(message)
}

// Risk logs a risk event.
func (l *Logger) Risk(message string, fields map[string]interface{}) {
	l.WithFields(logrus.Fields(fields)).WithField("event", "risk").Warn(message)
}

// Component returns a logger entry tagged with a component name.
func (l *Logger) Component(name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Discard returns a logger that drops everything; used in tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}
