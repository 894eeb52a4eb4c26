package tuner

import (
	"log/slog"
	"time"

	"github.com/aduadu321/wooting-aim/wooting"
)

// KeyWriter is the slice of the device session the writer drives.
type KeyWriter interface {
	WriteActuation(profile int, keys []wooting.KeySetting, save bool) error
	WriteRapidTrigger(profile int, keys []wooting.KeySetting, save bool) error
}

// Writer coalesces target changes and pushes them to the keyboard at a
// bounded rate. Every actuation write is immediately followed by the
// matching rapid-trigger write so the device never holds a mixed pair
// for longer than the two sequential reports.
type Writer struct {
	dev      KeyWriter
	profile  int
	interval time.Duration
	logger   *slog.Logger

	target  Targets
	current Targets
	dirty   bool

	lastWrite time.Time
	count     uint64
}

// NewWriter builds a writer around an open device session. initial is
// what the keyboard is assumed to hold right now.
func NewWriter(dev KeyWriter, profile int, interval time.Duration, initial Targets, logger *slog.Logger) *Writer {
	return &Writer{
		dev:      dev,
		profile:  profile,
		interval: interval,
		logger:   logger,
		target:   initial,
		current:  initial,
	}
}

// SetTarget records the desired depths; the writer goes dirty only on
// an actual change.
func (w *Writer) SetTarget(t Targets) {
	if t == w.target {
		return
	}
	w.target = t
	w.dirty = true
}

// Current returns the targets of the last AP/RT pair sent, whether or
// not the device accepted the writes.
func (w *Writer) Current() Targets { return w.current }

// Count returns the number of AP/RT write pairs issued.
func (w *Writer) Count() uint64 { return w.count }

// Flush pushes the pending target when one exists and the coalescing
// interval has elapsed. Errors are logged and swallowed: the policy
// re-emits on the next change, which is the retry mechanism.
func (w *Writer) Flush(now time.Time) {
	if !w.dirty {
		return
	}
	if !w.lastWrite.IsZero() && now.Sub(w.lastWrite) < w.interval {
		return
	}

	ap := make([]wooting.KeySetting, NumKeys)
	rt := make([]wooting.KeySetting, NumKeys)
	for i := 0; i < NumKeys; i++ {
		ap[i] = wooting.KeySetting{Pos: matrixByKey[i], MM: w.target[i].AP}
		rt[i] = wooting.KeySetting{Pos: matrixByKey[i], MM: w.target[i].RT}
	}

	if err := w.dev.WriteActuation(w.profile, ap, false); err != nil {
		w.logger.Warn("actuation write failed", "error", err)
	}
	if err := w.dev.WriteRapidTrigger(w.profile, rt, false); err != nil {
		w.logger.Warn("rapid-trigger write failed", "error", err)
	}

	w.current = w.target
	w.dirty = false
	w.lastWrite = now
	w.count++
}
