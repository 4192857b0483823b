// Package log proxies logging calls to a shared logrus logger. Call sites
// take a context.Context first argument even though this package no longer
// threads a per-request stream through it (there is no daemon boundary in
// snapview), so the call shape matches the rest of the ambient stack and a
// context can still carry request-scoped fields in the future.
package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

// SetLevel sets the standard logger's level.
func SetLevel(l logrus.Level) {
	setLevelLogger(logrus.StandardLogger(), l)
}

// GetLevel gets the standard logger's level.
func GetLevel() logrus.Level {
	return logrus.GetLevel()
}

func setLevelLogger(logger *logrus.Logger, l logrus.Level) {
	logger.SetLevel(l)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableLevelTruncation: true,
		DisableTimestamp:       true,
	})
}

// Debug logs a message at level Debug on the standard logger.
func Debug(ctx context.Context, args ...interface{}) {
	logrus.Debug(args...)
}

// Debugf logs a message at level Debug on the standard logger.
func Debugf(ctx context.Context, format string, args ...interface{}) {
	logrus.Debugf(format, args...)
}

// Info logs a message at level Info on the standard logger.
func Info(ctx context.Context, args ...interface{}) {
	logrus.Info(args...)
}

// Infof logs a message at level Info on the standard logger.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logrus.Infof(format, args...)
}

// Warning logs a message at level Warning on the standard logger.
func Warning(ctx context.Context, args ...interface{}) {
	logrus.Warning(args...)
}

// Warningf logs a message at level Warning on the standard logger.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logrus.Warningf(format, args...)
}

// Error logs a message at level Error on the standard logger.
func Error(ctx context.Context, args ...interface{}) {
	logrus.Error(args...)
}

// Errorf logs a message at level Error on the standard logger.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logrus.Errorf(format, args...)
}
