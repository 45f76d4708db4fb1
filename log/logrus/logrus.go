// Package logrus adapts a *logrus.Entry to cachewrap.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/cachewrap"
)

type Logger struct{ E *logrus.Entry }

var _ cachewrap.Logger = Logger{}

// New returns an adapter tagging every entry with component=cachewrap.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "cachewrap")}
}

func (l Logger) Debug(msg string, f cachewrap.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f cachewrap.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f cachewrap.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f cachewrap.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
