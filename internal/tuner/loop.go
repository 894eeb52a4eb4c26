package tuner

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/aduadu321/wooting-aim/analog"
	"github.com/aduadu321/wooting-aim/gamestate"
	"github.com/aduadu321/wooting-aim/internal/config"
	"github.com/aduadu321/wooting-aim/internal/stats"
	"github.com/aduadu321/wooting-aim/movement"
)

const (
	velUpdateInterval = time.Millisecond
	displayInterval   = 500 * time.Millisecond
	watchInterval     = 5 * time.Second
)

// LoopConfig wires the control loop's collaborators. Writer is nil in
// read-only mode; Stats is nil when statistics are disabled.
type LoopConfig struct {
	Config config.Config
	Reader analog.Reader
	Writer *Writer
	Cache  *gamestate.Cache
	Stats  *stats.Log

	// WatchProcess, when non-empty, makes the loop exit once the named
	// process is no longer running.
	WatchProcess   string
	ProcessRunning func(name string) bool
}

// Loop is the high-frequency sampler that owns the axes, the velocity
// estimators and the policy, and drives the writer.
type Loop struct {
	lc      LoopConfig
	logger  *slog.Logger
	policy  *Policy
	display *display

	h *movement.Axis
	v *movement.Axis
}

// NewLoop builds a loop. The axes and estimators live for the process.
func NewLoop(lc LoopConfig, logger *slog.Logger) *Loop {
	axisCfg := movement.AxisConfig{
		PredictThreshold: lc.Config.PredictThreshold,
		PredictMinPeak:   lc.Config.PredictMinPeak,
	}
	return &Loop{
		lc:      lc,
		logger:  logger,
		policy:  NewPolicy(lc.Config),
		display: newDisplay(lc.Writer != nil, lc.Config.VelEnabled),
		h:       movement.NewAxis(axisCfg),
		v:       movement.NewAxis(axisCfg),
	}
}

// Run polls until ctx is cancelled or the watched process exits. Each
// iteration finishing ahead of the poll period yields the CPU
// cooperatively instead of sleeping a fixed quantum.
func (l *Loop) Run(ctx context.Context) error {
	cfg := l.lc.Config
	now := time.Now()

	velH := movement.NewEstimator(now, movement.DefaultMaxSpeed)
	velV := movement.NewEstimator(now, movement.DefaultMaxSpeed)

	var prevW, prevA, prevS, prevD float32
	velTimer := now
	displayTimer := now
	watchTimer := now

	var loops uint64
	var timeToAccurate float64

	var pollPeriod time.Duration
	if cfg.PollRateHz > 0 {
		pollPeriod = time.Duration(float64(time.Second) / cfg.PollRateHz)
	}

	for ctx.Err() == nil {
		loopStart := time.Now()

		w := l.lc.Reader.Depth(analog.UsageW)
		a := l.lc.Reader.Depth(analog.UsageA)
		s := l.lc.Reader.Depth(analog.UsageS)
		d := l.lc.Reader.Depth(analog.UsageD)
		crouching := l.lc.Reader.Depth(analog.UsageLCtrl) > movement.DeadZone

		l.h.Update(loopStart, d, a, prevD, prevA)
		l.v.Update(loopStart, w, s, prevW, prevS)

		snap := l.lc.Cache.Snapshot()
		maxSpeed := snap.WeaponSpeed
		if maxSpeed <= 0 {
			maxSpeed = movement.DefaultMaxSpeed
		}

		if cfg.VelEnabled && loopStart.Sub(velTimer) >= velUpdateInterval {
			velTimer = loopStart
			velH.Update(loopStart, d, a, maxSpeed)
			velV.Update(loopStart, w, s, maxSpeed)

			total := movement.TotalSpeed(velH.Vel, velV.Vel)
			countering := l.h.State.IsCounter() || l.v.State.IsCounter()
			timeToAccurate = movement.TimeToAccurate(total, float64(maxSpeed), countering)
		}

		l.noteTransition(l.h, "H", "D", "A", snap, loopStart)
		l.noteTransition(l.v, "V", "W", "S", snap, loopStart)

		if l.lc.Writer != nil {
			l.lc.Writer.SetTarget(l.policy.Targets(Input{
				H:         l.h,
				V:         l.v,
				VelH:      velH.Vel,
				VelV:      velV.Vel,
				Crouching: crouching,
				Game:      snap,
			}))
			l.lc.Writer.Flush(loopStart)
		}

		if l.lc.WatchProcess != "" && loopStart.Sub(watchTimer) >= watchInterval {
			watchTimer = loopStart
			if l.lc.ProcessRunning != nil && !l.lc.ProcessRunning(l.lc.WatchProcess) {
				l.logger.Info("game process gone, shutting down")
				return nil
			}
		}

		loops++
		if elapsed := loopStart.Sub(displayTimer); elapsed >= displayInterval {
			hz := float64(loops) / elapsed.Seconds()
			loops = 0
			displayTimer = loopStart
			l.display.render(frame{
				hz:             hz,
				a:              a,
				d:              d,
				h:              l.h,
				v:              l.v,
				crouching:      crouching,
				game:           snap,
				velH:           velH.Vel,
				velV:           velV.Vel,
				maxSpeed:       maxSpeed,
				timeToAccurate: timeToAccurate,
				writer:         l.lc.Writer,
			})
		}

		prevW, prevA, prevS, prevD = w, a, s, d

		if pollPeriod > 0 && time.Since(loopStart) < pollPeriod {
			runtime.Gosched()
		}
	}

	l.logSummary()
	return nil
}

// noteTransition logs axis state changes and records finished
// counter-strafes.
func (l *Loop) noteTransition(ax *movement.Axis, axisName, posDir, negDir string, snap gamestate.Snapshot, now time.Time) {
	if ax.State == ax.Prev {
		return
	}

	if ax.Prev.IsCounter() {
		dir := negDir
		if ax.Prev == movement.CounterPos {
			dir = posDir
		}
		l.logger.Debug("counter-strafe",
			"axis", axisName,
			"from", ax.Prev.String(),
			"to", ax.State.String(),
			"ms", ax.CounterMS,
			"grade", movement.Grade(ax.CounterMS))

		weapon := ""
		if snap.Connected {
			weapon = snap.WeaponName
		}
		l.lc.Stats.Record(now, axisName, dir, ax.CounterMS, weapon)
		return
	}

	l.logger.Debug("axis transition",
		"axis", axisName,
		"from", ax.Prev.String(),
		"to", ax.State.String())
}

func (l *Loop) logSummary() {
	if l.h.CounterCount > 0 {
		l.logger.Info("session summary",
			"axis", "H",
			"counter_strafes", l.h.CounterCount,
			"avg_ms", l.h.CounterTotalMS/float64(l.h.CounterCount))
	}
	if l.v.CounterCount > 0 {
		l.logger.Info("session summary",
			"axis", "V",
			"counter_strafes", l.v.CounterCount,
			"avg_ms", l.v.CounterTotalMS/float64(l.v.CounterCount))
	}
	if l.lc.Writer != nil {
		l.logger.Info("session summary", "hid_writes", l.lc.Writer.Count())
	}
}
