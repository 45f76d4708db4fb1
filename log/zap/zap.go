// Package zap adapts a *zap.Logger to cachewrap.Logger.
package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachewrap"
)

type Logger struct{ L *zap.Logger }

var _ cachewrap.Logger = Logger{}

// New returns an adapter logging under the "cachewrap" name.
func New(l *zap.Logger) Logger { return Logger{L: l.Named("cachewrap")} }

func (z Logger) Debug(msg string, f cachewrap.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f cachewrap.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f cachewrap.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f cachewrap.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f cachewrap.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
