// Package sloghooks reports cachewrap lifecycle events to a *slog.Logger.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cachewrap"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	LoadMissEvery uint64
	BuiltEvery    uint64
	// Redact cache names in logs when set. Use HashName for a stable digest.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	loadMissCtr atomic.Uint64
	builtCtr    atomic.Uint64
}

var _ cachewrap.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

// HashName is a Redact func returning a SHA-256 prefix of the name.
func HashName(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:8])
}

func (h *Hooks) name(n string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(n)
	}
	return n
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) LoadMiss(cache string) {
	if h.l == nil || !sample(h.opts.LoadMissEvery, &h.loadMissCtr) {
		return
	}
	h.l.Debug("cachewrap.load_miss", "cache", h.name(cache))
}

func (h *Hooks) LoadRejected(cache string) {
	if h.l == nil {
		return
	}
	h.l.Info("cachewrap.load_rejected", "cache", h.name(cache))
}

func (h *Hooks) Built(cache string) {
	if h.l == nil || !sample(h.opts.BuiltEvery, &h.builtCtr) {
		return
	}
	h.l.Debug("cachewrap.built", "cache", h.name(cache))
}

func (h *Hooks) DependentMissing(cache, dependent string) {
	if h.l == nil {
		return
	}
	h.l.Debug("cachewrap.dependent_missing",
		"cache", h.name(cache),
		"dependent", h.name(dependent))
}

func (h *Hooks) StoreSelfHeal(cache, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachewrap.store_self_heal",
		"cache", h.name(cache),
		"reason", reason)
}

func (h *Hooks) FinalizeError(cache string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("cachewrap.finalize_error",
		"cache", h.name(cache),
		"err", err)
}
