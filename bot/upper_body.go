package bot

import (
	"fmt"

	"github.com/milk9111/shooter/animation"
)

// HitSignal is fired by an attack clip at its hit instant. Scoped to the
// combat machine's attack clips.
const HitSignal uint64 = 1

// attackIndexParam selects which attack clip the combat machine's Attack
// state plays.
const attackIndexParam = "AttackIndex"

// UpperBodyMachine drives the combat arm: aiming, attacking, screaming and
// dying, layered over locomotion.
type UpperBodyMachine struct {
	machine *animation.Machine

	attackClips []animation.ClipHandle
	dyingClip   animation.ClipHandle
	aimState    animation.StateHandle
	attackState animation.StateHandle

	canAim bool
}

// UpperBodyInput is the per-tick fact set pushed into the combat machine.
type UpperBodyInput struct {
	Attack      bool
	Walk        bool
	Scream      bool
	Dead        bool
	Aim         bool
	AttackIndex uint32
}

const (
	upperAttackToIdle  = "AttackToIdle"
	upperAttackToWalk  = "AttackToWalk"
	upperIdleToAttack  = "IdleToAttack"
	upperWalkToAttack  = "WalkToAttack"
	upperIdleToWalk    = "IdleToWalk"
	upperWalkToIdle    = "WalkToIdle"
	upperIdleToScream  = "IdleToScream"
	upperScreamToWalk  = "ScreamToWalk"
	upperScreamToIdle  = "ScreamToIdle"
	upperIdleToAim     = "IdleToAim"
	upperAimToIdle     = "AimToIdle"
	upperAimToWalk     = "AimToWalk"
	upperAttackToDying = "AttackToDying"
	upperWalkToDying   = "WalkToDying"
	upperIdleToDying   = "IdleToDying"
)

// NewUpperBodyMachine compiles the combat machine definition and wires the
// hit signals from the bot's attack list into their clips. The Aim state
// is optional; bots that can't use weapons ship combat machines without
// one.
func NewUpperBodyMachine(def animation.MachineDef, attacks []AttackDef) (*UpperBodyMachine, error) {
	machine, err := animation.Compile(def)
	if err != nil {
		return nil, err
	}

	u := &UpperBodyMachine{machine: machine}

	for _, atk := range attacks {
		h, ok := machine.ClipByName(atk.Clip)
		if !ok {
			return nil, fmt.Errorf("bot: combat machine %s has no attack clip %q", def.Name, atk.Clip)
		}
		clip := machine.Clip(h)
		clip.AddSignal(HitSignal, atk.HitTime)
		clip.SetLoop(false).SetEnabled(false)
		u.attackClips = append(u.attackClips, h)
	}

	dyingClip, ok := machine.ClipByName("dying")
	if !ok {
		return nil, fmt.Errorf("bot: combat machine %s has no dying clip", def.Name)
	}
	machine.Clip(dyingClip).SetLoop(false).SetEnabled(false)
	u.dyingClip = dyingClip

	attackState, ok := machine.StateByName("Attack")
	if !ok {
		return nil, fmt.Errorf("bot: combat machine %s has no Attack state", def.Name)
	}
	u.attackState = attackState

	if aimState, ok := machine.StateByName("Aim"); ok {
		u.aimState = aimState
		u.canAim = true
	}

	return u, nil
}

// Apply pushes the input facts as parameters and evaluates one pose.
func (u *UpperBodyMachine) Apply(tick uint64, dt float32, input UpperBodyInput) animation.Pose {
	m := u.machine.
		SetParameter(upperAttackToIdle, animation.Rule(!input.Attack)).
		SetParameter(upperAttackToWalk, animation.Rule(!input.Attack && input.Walk)).
		SetParameter(upperIdleToAttack, animation.Rule(input.Attack)).
		SetParameter(upperWalkToAttack, animation.Rule(input.Attack)).
		SetParameter(upperIdleToWalk, animation.Rule(input.Walk && !input.Attack && !input.Aim)).
		SetParameter(upperWalkToIdle, animation.Rule(!input.Walk)).
		SetParameter(upperIdleToScream, animation.Rule(input.Scream)).
		SetParameter(upperScreamToWalk, animation.Rule(!input.Scream)).
		SetParameter(upperScreamToIdle, animation.Rule(!input.Scream)).
		SetParameter(upperAttackToDying, animation.Rule(input.Dead)).
		SetParameter(upperWalkToDying, animation.Rule(input.Dead)).
		SetParameter(upperIdleToDying, animation.Rule(input.Dead)).
		SetParameter(attackIndexParam, animation.Index(input.AttackIndex))
	if u.canAim {
		m.SetParameter(upperIdleToAim, animation.Rule(input.Aim)).
			SetParameter(upperAimToIdle, animation.Rule(!input.Aim)).
			SetParameter(upperAimToWalk, animation.Rule(input.Walk && !input.Aim))
	}
	return m.Evaluate(tick, dt)
}

// IsAiming reports whether the Aim state is active.
func (u *UpperBodyMachine) IsAiming() bool {
	return u.canAim && u.machine.ActiveState() == u.aimState
}

// AttackCount returns how many attack clips the machine carries.
func (u *UpperBodyMachine) AttackCount() int { return len(u.attackClips) }

// AttackClip returns the attack clip at the given index.
func (u *UpperBodyMachine) AttackClip(i int) *animation.Clip {
	return u.machine.Clip(u.attackClips[i])
}

// DrainHitSignals returns hit signals from the attack clip at i.
func (u *UpperBodyMachine) DrainHitSignals(i int) []animation.Signal {
	return u.machine.DrainSignals(u.attackClips[i])
}

// DisableAttacks stops every attack clip; used once the bot dies.
func (u *UpperBodyMachine) DisableAttacks() {
	for _, h := range u.attackClips {
		u.machine.Clip(h).SetEnabled(false)
	}
}

// EnableDying starts dying playback.
func (u *UpperBodyMachine) EnableDying() {
	u.machine.Clip(u.dyingClip).SetEnabled(true)
}

// DyingEnded reports whether the dying clip has played through.
func (u *UpperBodyMachine) DyingEnded() bool {
	return u.machine.Clip(u.dyingClip).HasEnded()
}

// Machine exposes the underlying machine for snapshots.
func (u *UpperBodyMachine) Machine() *animation.Machine { return u.machine }
