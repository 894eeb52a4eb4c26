// Package tuner turns movement classification into per-key depth
// targets and pushes them to the keyboard at a bounded rate.
package tuner

import (
	"github.com/aduadu321/wooting-aim/gamestate"
	"github.com/aduadu321/wooting-aim/internal/config"
	"github.com/aduadu321/wooting-aim/movement"
	"github.com/aduadu321/wooting-aim/wooting"
)

// Key indices for the per-key target arrays.
const (
	KeyW = iota
	KeyA
	KeyS
	KeyD
	NumKeys
)

// matrixByKey maps key indices to keyboard matrix positions.
var matrixByKey = [NumKeys]wooting.MatrixPos{
	KeyW: wooting.KeyW,
	KeyA: wooting.KeyA,
	KeyS: wooting.KeyS,
	KeyD: wooting.KeyD,
}

// MinAP is the hard actuation floor in millimetres. Below this, lateral
// stem wobble produces phantom triggers.
const MinAP = 0.15

// Depths is one key's AP/RT pair in millimetres.
type Depths struct {
	AP float32
	RT float32
}

// Targets holds the desired depths for all four movement keys.
type Targets [NumKeys]Depths

// Input is everything the policy consumes for one tick.
type Input struct {
	H *movement.Axis
	V *movement.Axis

	// VelH and VelV are the per-axis velocity estimates.
	VelH float32
	VelV float32

	Crouching bool
	Game      gamestate.Snapshot
}

// Policy maps the tick input onto per-key depth targets.
type Policy struct {
	cfg config.Config
}

// NewPolicy builds a policy over an immutable configuration.
func NewPolicy(cfg config.Config) *Policy {
	return &Policy{cfg: cfg}
}

// Normal returns the relaxed depths for all keys, used at startup and
// restored at shutdown.
func (p *Policy) Normal() Targets {
	var t Targets
	for i := range t {
		t[i] = Depths{AP: p.cfg.APNormal, RT: p.cfg.RTNormal}
	}
	return t
}

// baseAggro picks the aggressive AP/RT pair, preferring the per-weapon
// profile when the game reports one.
func (p *Policy) baseAggro(game gamestate.Snapshot) (float32, float32) {
	if game.Connected {
		w := p.cfg.Weapons[game.Category]
		return w.AP, w.RT
	}
	return p.cfg.APAggro, p.cfg.RTAggro
}

// VelScaleAP lowers the actuation point as velocity approaches the
// accuracy threshold: unchanged below half the threshold, then a linear
// slide to half the base, floored at MinAP.
func VelScaleAP(baseAP, velRatio float32) float32 {
	const (
		aggroZone   = 0.50
		minAPFactor = 0.5
	)
	if velRatio < aggroZone {
		return baseAP
	}
	t := (velRatio - aggroZone) / (1 - aggroZone)
	ap := baseAP * (1 - t*(1-minAPFactor))
	if ap < MinAP {
		ap = MinAP
	}
	return ap
}

// Counter-strafe phase windows in milliseconds: ultra-aggressive while
// the opposing key still fights residual velocity, then a linear relax.
const (
	phaseUltraMS = 80.0
	phaseDecayMS = 200.0
)

// PhaseDecayAP returns the actuation point for a counter-strafe in
// progress: MinAP through the ultra phase, the base once the decay
// window has passed, linear in between.
func PhaseDecayAP(baseAP float32, elapsedMS float64) float32 {
	if elapsedMS < phaseUltraMS {
		return MinAP
	}
	if elapsedMS > phaseDecayMS {
		return baseAP
	}
	t := float32((elapsedMS - phaseUltraMS) / (phaseDecayMS - phaseUltraMS))
	return MinAP + t*(baseAP-MinAP)
}

// Targets computes the per-key depth targets for one tick.
func (p *Policy) Targets(in Input) Targets {
	t := p.Normal()

	// Freezetime, round over, or a non-combat item held: stay relaxed
	// no matter what the axes are doing.
	if in.Game.Connected {
		if in.Game.RoundPhase == gamestate.PhaseFreezetime || in.Game.RoundPhase == gamestate.PhaseOver {
			return t
		}
		if in.Game.Category == gamestate.Other {
			return t
		}
	}

	baseAP, baseRT := p.baseAggro(in.Game)

	velAP := baseAP
	if p.cfg.VelEnabled && p.cfg.VelScaleEnabled {
		maxSpeed := in.Game.WeaponSpeed
		if maxSpeed <= 0 {
			maxSpeed = movement.DefaultMaxSpeed
		}
		threshold := maxSpeed * movement.AccuracyFactor
		ratio := float32(movement.TotalSpeed(in.VelH, in.VelV)) / threshold
		if ratio > 1 {
			ratio = 1
		}
		velAP = VelScaleAP(baseAP, ratio)
	}

	p.applyAxis(&t, in.H, KeyD, KeyA, velAP, baseRT)
	if p.cfg.WSAdaptive {
		p.applyAxis(&t, in.V, KeyW, KeyS, velAP, baseRT)
	}

	// Crouched movement is already near the accuracy threshold: tighten
	// RT for snappy re-fire but relax part of the AP gap.
	if in.Crouching {
		for i := range t {
			rt := t[i].RT * p.cfg.CrouchRTFactor
			if rt < baseRT {
				rt = baseRT
			}
			t[i].RT = rt
			if t[i].AP < p.cfg.APNormal {
				t[i].AP += (p.cfg.APNormal - t[i].AP) * 0.3
			}
		}
	}

	return t
}

// applyAxis applies the per-axis rule table onto the positive and
// negative key of one axis.
func (p *Policy) applyAxis(t *Targets, ax *movement.Axis, posKey, negKey int, velAP, baseRT float32) {
	jiggling := p.cfg.JiggleEnabled && ax.Jiggle

	switch ax.State {
	case movement.Idle:
		if jiggling {
			t[posKey] = Depths{AP: velAP, RT: baseRT}
			t[negKey] = Depths{AP: velAP, RT: baseRT}
		}

	case movement.StrafePos:
		t[posKey].RT = baseRT
		t[negKey].AP = velAP
		if ax.Predictive || jiggling {
			t[negKey].RT = baseRT
		}

	case movement.StrafeNeg:
		t[negKey].RT = baseRT
		t[posKey].AP = velAP
		if ax.Predictive || jiggling {
			t[posKey].RT = baseRT
		}

	case movement.CounterPos:
		ap := velAP
		if p.cfg.PhaseDecay {
			ap = PhaseDecayAP(velAP, ax.CounterMS)
		}
		t[posKey] = Depths{AP: ap, RT: baseRT}
		t[negKey].RT = baseRT

	case movement.CounterNeg:
		ap := velAP
		if p.cfg.PhaseDecay {
			ap = PhaseDecayAP(velAP, ax.CounterMS)
		}
		t[negKey] = Depths{AP: ap, RT: baseRT}
		t[posKey].RT = baseRT
	}
}
