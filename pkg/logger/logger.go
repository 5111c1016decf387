// Package logger offers a thin, namespaced wrapper around logrus so the
// rest of the engine never imports logrus directly.
package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is an alias for the set of structured fields attached to a log
// entry.
type Fields = logrus.Fields

var (
	baseOnce sync.Once
	base     *logrus.Logger
)

func root() *logrus.Logger {
	baseOnce.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	})
	return base
}

// SetLevel configures the minimal level emitted by the root logger.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	root().SetLevel(lvl)
	return nil
}

// Logger is the interface the rest of the engine depends on, so call sites
// can be exercised with a recording fake in tests.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
}

// Entry wraps a logrus.Entry to satisfy Logger.
type Entry struct {
	entry *logrus.Entry
}

func (e *Entry) Debugf(format string, args ...interface{}) { e.entry.Debugf(format, args...) }
func (e *Entry) Infof(format string, args ...interface{})  { e.entry.Infof(format, args...) }
func (e *Entry) Warnf(format string, args ...interface{})  { e.entry.Warnf(format, args...) }
func (e *Entry) Errorf(format string, args ...interface{}) { e.entry.Errorf(format, args...) }

func (e *Entry) WithField(key string, value interface{}) Logger {
	return &Entry{entry: e.entry.WithField(key, value)}
}

// WithNamespace returns a Logger scoped to the given namespace, e.g.
// logger.WithNamespace("apps").
func WithNamespace(namespace string) Logger {
	return &Entry{entry: root().WithField("nspace", namespace)}
}

// WithFields returns a Logger pre-populated with the given fields.
func WithFields(fields Fields) Logger {
	return &Entry{entry: root().WithFields(fields)}
}
