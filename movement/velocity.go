package movement

import (
	"math"
	"time"
)

// Server-side movement constants at 64 tick. Friction decays speed
// geometrically above StopSpeed and linearly below it; acceleration is
// capped per tick at Accelerate*dt*maxSpeed.
const (
	Friction   = 5.2
	Accelerate = 5.5
	StopSpeed  = 80.0

	// DefaultMaxSpeed applies when no weapon is known.
	DefaultMaxSpeed = 225.0

	// AccuracyFactor scales a weapon's max speed down to the velocity
	// below which shots are fully accurate.
	AccuracyFactor = 0.34

	tickRate = 64.0
	tickMS   = 1000.0 / tickRate
)

// Estimator integrates a signed scalar velocity for one movement axis.
// Input is binary: the game treats an actuated key as a full-speed
// command regardless of analog depth.
type Estimator struct {
	// Vel is the estimated velocity in units/second, positive toward
	// the axis' positive direction.
	Vel float32

	// MaxSpeed is the active weapon's speed ceiling.
	MaxSpeed float32

	lastUpdate time.Time
}

// NewEstimator returns an estimator at rest.
func NewEstimator(now time.Time, maxSpeed float32) *Estimator {
	return &Estimator{MaxSpeed: maxSpeed, lastUpdate: now}
}

// Update advances the model by the elapsed wall time. Updates with a
// non-positive or implausibly large dt only resynchronize the clock.
func (e *Estimator) Update(now time.Time, pos, neg, maxSpeed float32) {
	e.MaxSpeed = maxSpeed

	dt := float32(now.Sub(e.lastUpdate).Seconds())
	e.lastUpdate = now
	if dt <= 0 || dt > 0.1 {
		return
	}

	posKey := pos > DeadZone
	negKey := neg > DeadZone

	speed := float32(math.Abs(float64(e.Vel)))
	if speed > 0.001 {
		control := speed
		if control < StopSpeed {
			control = StopSpeed
		}
		drop := control * Friction * dt
		newSpeed := speed - drop
		if newSpeed < 0 {
			newSpeed = 0
		}
		e.Vel *= newSpeed / speed
	}

	var wish float32
	switch {
	case posKey && !negKey:
		wish = 1
	case negKey && !posKey:
		wish = -1
	}

	if wish != 0 {
		add := maxSpeed - e.Vel*wish
		if add > 0 {
			accel := Accelerate * dt * maxSpeed
			if accel > add {
				accel = add
			}
			e.Vel += accel * wish
		}
	}

	if e.Vel > maxSpeed {
		e.Vel = maxSpeed
	}
	if e.Vel < -maxSpeed {
		e.Vel = -maxSpeed
	}
	if math.Abs(float64(e.Vel)) < 0.5 {
		e.Vel = 0
	}
}

// TotalSpeed combines the two axis velocities into a planar speed.
func TotalSpeed(velH, velV float32) float64 {
	return math.Hypot(float64(velH), float64(velV))
}

// TimeToAccurate iterates the discrete model until the planar speed
// drops to the accuracy threshold and reports the projected time in
// milliseconds, capped at 100 ticks. When countering, the per-tick
// counter acceleration is assumed for the whole look-ahead; the
// estimate is used only for display.
func TimeToAccurate(totalSpeed, maxSpeed float64, countering bool) float64 {
	threshold := maxSpeed * AccuracyFactor
	if totalSpeed <= threshold {
		return 0
	}

	// Per-tick constants: geometric decay 1-Friction/64, linear decel
	// StopSpeed*Friction/64 below StopSpeed.
	const (
		decay       = 1 - Friction/tickRate
		linearDecel = StopSpeed * Friction / tickRate
	)
	accelPerTick := Accelerate / tickRate * maxSpeed

	v := totalSpeed
	ticks := 0
	for v > threshold && ticks < 100 {
		if v >= StopSpeed {
			v *= decay
		} else {
			v -= linearDecel
		}
		if countering {
			v -= accelPerTick
		}
		if v < 0 {
			v = 0
		}
		ticks++
	}
	return float64(ticks) * tickMS
}
