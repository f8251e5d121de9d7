package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Fields = logrus.Fields

type LogConfig struct {
	Level  string
	Format string
	Output string
	File   string
}

type Logger struct {
	*logrus.Logger
}

type Entry struct {
	*logrus.Entry
}

func New(cfg LogConfig) (*Logger, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if cfg.Format == "text" {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	switch cfg.Output {
	case "file":
		if cfg.File == "" {
			return nil, fmt.Errorf("log output is file but no file path configured")
		}
		base.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	case "stderr":
		base.SetOutput(os.Stderr)
	case "discard":
		base.SetOutput(io.Discard)
	default:
		base.SetOutput(os.Stdout)
	}

	return &Logger{Logger: base}, nil
}

// Info and friends accept a message followed by alternating key/value pairs,
// matching how the services log throughout the codebase.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.withKV(keysAndValues).Info(msg)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.withKV(keysAndValues).Warn(msg)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.withKV(keysAndValues).Error(msg)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.withKV(keysAndValues).Debug(msg)
}

func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(fields)}
}

func (l *Logger) WithError(err error) *Entry {
	return &Entry{Entry: l.Logger.WithError(err)}
}

func (l *Logger) withKV(keysAndValues []interface{}) *logrus.Entry {
	return l.Logger.WithFields(kvFields(keysAndValues))
}

// Entry carries the same kv-variadic helpers as Logger, so chained calls like
// WithError(err).Warn(msg, k, v) keep their pairs as structured fields instead
// of falling through to logrus's Sprint-style variadics.
func (e *Entry) Info(msg string, keysAndValues ...interface{}) {
	e.Entry.WithFields(kvFields(keysAndValues)).Info(msg)
}

func (e *Entry) Warn(msg string, keysAndValues ...interface{}) {
	e.Entry.WithFields(kvFields(keysAndValues)).Warn(msg)
}

func (e *Entry) Error(msg string, keysAndValues ...interface{}) {
	e.Entry.WithFields(kvFields(keysAndValues)).Error(msg)
}

func (e *Entry) Debug(msg string, keysAndValues ...interface{}) {
	e.Entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func kvFields(keysAndValues []interface{}) Fields {
	fields := Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

// LogService records one external-service operation with its duration and
// outcome. A nil err logs at info, otherwise at error.
func (l *Logger) LogService(service, operation string, duration time.Duration, fields map[string]interface{}, err error) {
	entry := l.Logger.WithFields(Fields{
		"service":     service,
		"operation":   operation,
		"duration_ms": duration.Milliseconds(),
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if err != nil {
		entry.WithError(err).Error("service operation failed")
		return
	}
	entry.Info("service operation completed")
}

// LogStage records one pipeline-stage event for a given user request.
func (l *Logger) LogStage(userID, stage, event string, duration time.Duration, err error) {
	entry := l.Logger.WithFields(Fields{
		"user_id":     userID,
		"stage":       stage,
		"event":       event,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("pipeline stage failed")
		return
	}
	entry.Info("pipeline stage event")
}
