// Package logger holds the process-wide logrus logger used by every
// component of the bot. Swallowed errors (store writes, failed sends,
// handler failures) are only observable here, so the logger is configured
// before anything else at startup.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var globalLogger *logrus.Logger

// Config controls the global logger output.
type Config struct {
	Level      string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}

// Init initializes the global logger. When File is set, output is rotated
// with lumberjack in addition to stdout.
func Init(config Config) error {
	globalLogger = logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	globalLogger.SetLevel(level)

	writers := []io.Writer{os.Stdout}
	if config.File != "" {
		if err := os.MkdirAll(filepath.Dir(config.File), 0755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
		})
	}
	globalLogger.SetOutput(io.MultiWriter(writers...))

	if level == logrus.DebugLevel {
		globalLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		globalLogger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05Z",
		})
	}

	return nil
}

// Get returns the global logger, initializing a plain one if Init was
// never called (tests mostly).
func Get() *logrus.Logger {
	if globalLogger == nil {
		globalLogger = logrus.New()
		globalLogger.SetLevel(logrus.InfoLevel)
		globalLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return globalLogger
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

func WithField(key string, value any) *logrus.Entry {
	return Get().WithField(key, value)
}

func WithError(err error) *logrus.Entry {
	return Get().WithError(err)
}

func Info(args ...any) { Get().Info(args...) }

func Infof(format string, args ...any) { Get().Infof(format, args...) }

func Warn(args ...any) { Get().Warn(args...) }

func Warnf(format string, args ...any) { Get().Warnf(format, args...) }

func Error(args ...any) { Get().Error(args...) }

func Errorf(format string, args ...any) { Get().Errorf(format, args...) }

func Fatalf(format string, args ...any) { Get().Fatalf(format, args...) }

func Debugf(format string, args ...any) { Get().Debugf(format, args...) }
