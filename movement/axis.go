// Package movement classifies per-axis strafe intent from analog key
// depths and estimates in-game velocity with the discrete server-side
// movement model.
package movement

import "time"

// DeadZone is the depth below which a key counts as released.
const DeadZone = 0.01

// State is the per-axis movement classification. The positive direction
// is D on the horizontal axis and W on the vertical one. In the counter
// states both directions are held; the name is the newly-pressed one.
type State uint8

const (
	Idle State = iota
	StrafePos
	StrafeNeg
	CounterPos
	CounterNeg
)

var stateNames = [...]string{"I", "S+", "S-", "C+", "C-"}

func (s State) String() string { return stateNames[s] }

// IsCounter reports whether s is one of the counter-strafe states.
func (s State) IsCounter() bool { return s == CounterPos || s == CounterNeg }

// Jiggle-peek detection: two counter-strafes inside the window arm the
// mode, and it persists for the pre-arm duration after the last one.
const (
	jiggleWindow   = 300 * time.Millisecond
	jiggleMinCount = 2
	jigglePrearm   = 300 * time.Millisecond
	jiggleRingSize = 4
)

// AxisConfig tunes the predictive-release detector.
type AxisConfig struct {
	// PredictThreshold is the fraction of the strafe peak below which
	// the finger counts as lifting.
	PredictThreshold float32
	// PredictMinPeak is the minimum peak depth before prediction engages.
	PredictMinPeak float32
}

// Axis is the strafe/counter-strafe classifier for one movement axis.
type Axis struct {
	cfg AxisConfig

	State State
	Prev  State

	PosPeak float32
	NegPeak float32

	// Predictive is a single-tick signal that the held key is lifting
	// and the opposite key should be pre-armed.
	Predictive bool

	counterStart time.Time
	// CounterMS is the time spent in the current (or most recent)
	// counter-strafe, in milliseconds.
	CounterMS float64

	// Session statistics.
	CounterCount   uint64
	CounterTotalMS float64

	jiggleTimes [jiggleRingSize]time.Time
	jiggleIdx   int
	Jiggle      bool
	jiggleLast  time.Time
}

// NewAxis returns an idle axis with the given prediction tuning.
func NewAxis(cfg AxisConfig) *Axis {
	return &Axis{cfg: cfg}
}

// Update advances the state machine by one analog sample. A rising edge
// is a crossing of DeadZone between the previous and current sample.
func (ax *Axis) Update(now time.Time, pos, neg, prevPos, prevNeg float32) {
	ax.Prev = ax.State
	ax.Predictive = false

	posHeld := pos > DeadZone
	negHeld := neg > DeadZone
	posRise := posHeld && prevPos <= DeadZone
	negRise := negHeld && prevNeg <= DeadZone

	switch ax.State {
	case Idle:
		if posHeld && !negHeld {
			ax.State = StrafePos
			ax.PosPeak = pos
			ax.NegPeak = 0
		}
		if negHeld && !posHeld {
			ax.State = StrafeNeg
			ax.NegPeak = neg
			ax.PosPeak = 0
		}

	case StrafePos:
		if !posHeld && !negHeld {
			ax.State = Idle
			break
		}
		if pos > ax.PosPeak {
			ax.PosPeak = pos
		}
		if ax.PosPeak > ax.cfg.PredictMinPeak && pos < ax.PosPeak*ax.cfg.PredictThreshold {
			ax.Predictive = true
		}
		if negRise {
			ax.State = CounterNeg
			ax.counterStart = now
		}

	case StrafeNeg:
		if !posHeld && !negHeld {
			ax.State = Idle
			break
		}
		if neg > ax.NegPeak {
			ax.NegPeak = neg
		}
		if ax.NegPeak > ax.cfg.PredictMinPeak && neg < ax.NegPeak*ax.cfg.PredictThreshold {
			ax.Predictive = true
		}
		if posRise {
			ax.State = CounterPos
			ax.counterStart = now
		}

	case CounterPos, CounterNeg:
		ax.CounterMS = float64(now.Sub(ax.counterStart)) / float64(time.Millisecond)
		switch {
		case !posHeld && !negHeld:
			ax.State = Idle
		case posHeld && !negHeld:
			ax.State = StrafePos
			ax.PosPeak = pos
		case negHeld && !posHeld:
			ax.State = StrafeNeg
			ax.NegPeak = neg
		}
	}

	if ax.State != ax.Prev && ax.Prev.IsCounter() {
		ax.CounterCount++
		ax.CounterTotalMS += ax.CounterMS
	}

	if ax.State != ax.Prev && ax.State.IsCounter() {
		ax.jiggleTimes[ax.jiggleIdx%jiggleRingSize] = now
		ax.jiggleIdx++

		recent := 0
		for _, ts := range ax.jiggleTimes {
			if ts.IsZero() {
				continue
			}
			if now.Sub(ts) < jiggleWindow {
				recent++
			}
		}
		if recent >= jiggleMinCount {
			ax.Jiggle = true
			ax.jiggleLast = now
		}
	}

	if ax.Jiggle && now.Sub(ax.jiggleLast) > jigglePrearm {
		ax.Jiggle = false
	}
}

// Counter-strafe quality bands, in milliseconds.
const (
	perfectMin = 65
	perfectMax = 95
	goodMin    = 60
	goodMax    = 120
)

// Grade classifies a counter-strafe duration for display and logging.
func Grade(ms float64) string {
	switch {
	case ms >= perfectMin && ms <= perfectMax:
		return "PERF"
	case ms >= goodMin && ms <= goodMax:
		return "GOOD"
	case ms < goodMin:
		return "FAST"
	default:
		return "LATE"
	}
}
