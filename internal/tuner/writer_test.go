package tuner_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aduadu321/wooting-aim/internal/tuner"
	"github.com/aduadu321/wooting-aim/wooting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writeCall struct {
	cmd     string
	profile int
	keys    []wooting.KeySetting
	save    bool
}

type fakeKeyWriter struct {
	calls []writeCall
	err   error
}

func (f *fakeKeyWriter) WriteActuation(profile int, keys []wooting.KeySetting, save bool) error {
	f.calls = append(f.calls, writeCall{"ap", profile, keys, save})
	return f.err
}

func (f *fakeKeyWriter) WriteRapidTrigger(profile int, keys []wooting.KeySetting, save bool) error {
	f.calls = append(f.calls, writeCall{"rt", profile, keys, save})
	return f.err
}

func testTargets(ap, rt float32) tuner.Targets {
	var t tuner.Targets
	for i := range t {
		t[i] = tuner.Depths{AP: ap, RT: rt}
	}
	return t
}

func newTestWriter(dev *fakeKeyWriter) *tuner.Writer {
	return tuner.NewWriter(dev, 0, 50*time.Millisecond, testTargets(1.2, 1.0), slog.New(slog.DiscardHandler))
}

func TestFlushPairsActuationWithRapidTrigger(t *testing.T) {
	dev := &fakeKeyWriter{}
	w := newTestWriter(dev)
	now := time.Unix(5000, 0)

	w.SetTarget(testTargets(0.4, 0.1))
	w.Flush(now)

	require.Len(t, dev.calls, 2)
	assert.Equal(t, "ap", dev.calls[0].cmd)
	assert.Equal(t, "rt", dev.calls[1].cmd)
	for _, c := range dev.calls {
		assert.Equal(t, 0, c.profile)
		assert.False(t, c.save, "real-time writes stay in RAM")
		require.Len(t, c.keys, tuner.NumKeys)
	}
	assert.Equal(t, float32(0.4), dev.calls[0].keys[0].MM)
	assert.Equal(t, float32(0.1), dev.calls[1].keys[0].MM)
	assert.Equal(t, wooting.KeyW, dev.calls[0].keys[tuner.KeyW].Pos)
	assert.Equal(t, wooting.KeyD, dev.calls[0].keys[tuner.KeyD].Pos)

	assert.Equal(t, uint64(1), w.Count())
	assert.Equal(t, testTargets(0.4, 0.1), w.Current())
}

func TestNoFlushWhenClean(t *testing.T) {
	dev := &fakeKeyWriter{}
	w := newTestWriter(dev)

	w.Flush(time.Unix(5000, 0))
	assert.Empty(t, dev.calls)

	// Setting the same target does not dirty the writer.
	w.SetTarget(testTargets(1.2, 1.0))
	w.Flush(time.Unix(5001, 0))
	assert.Empty(t, dev.calls)
}

func TestFlushCoalesces(t *testing.T) {
	dev := &fakeKeyWriter{}
	w := newTestWriter(dev)
	now := time.Unix(5000, 0)

	w.SetTarget(testTargets(0.4, 0.1))
	w.Flush(now)
	require.Len(t, dev.calls, 2)

	// A new target inside the interval is held back.
	w.SetTarget(testTargets(0.15, 0.1))
	w.Flush(now.Add(10 * time.Millisecond))
	w.Flush(now.Add(30 * time.Millisecond))
	assert.Len(t, dev.calls, 2)

	// It goes out once the interval elapses.
	w.Flush(now.Add(50 * time.Millisecond))
	assert.Len(t, dev.calls, 4)
	assert.Equal(t, uint64(2), w.Count())
}

func TestWriteSpacingInvariant(t *testing.T) {
	dev := &fakeKeyWriter{}
	w := newTestWriter(dev)
	start := time.Unix(5000, 0)

	var flushTimes []time.Time
	before := 0
	for i := 0; i < 1000; i++ {
		now := start.Add(time.Duration(i) * time.Millisecond)
		w.SetTarget(testTargets(0.2+float32(i%7)*0.1, 0.1))
		w.Flush(now)
		if len(dev.calls) != before {
			before = len(dev.calls)
			flushTimes = append(flushTimes, now)
		}
	}

	require.NotEmpty(t, flushTimes)
	for i := 1; i < len(flushTimes); i++ {
		gap := flushTimes[i].Sub(flushTimes[i-1])
		assert.GreaterOrEqual(t, gap, 50*time.Millisecond,
			"writes %d and %d too close", i-1, i)
	}
}

func TestFlushSwallowsDeviceErrors(t *testing.T) {
	dev := &fakeKeyWriter{err: errors.New("unplugged")}
	w := newTestWriter(dev)

	w.SetTarget(testTargets(0.4, 0.1))
	w.Flush(time.Unix(5000, 0))

	// Both writes were attempted and the writer moved on; the policy's
	// next change event is the retry mechanism.
	assert.Len(t, dev.calls, 2)
	assert.Equal(t, testTargets(0.4, 0.1), w.Current())
}
