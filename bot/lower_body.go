package bot

import (
	"fmt"

	"github.com/milk9111/shooter/animation"
)

// StepSignal is fired by the walk clip when a foot lands. Scoped to the
// locomotion machine's walk clip.
const StepSignal uint64 = 1

// LowerBodyMachine drives bot locomotion: Idle, Walk, Scream and Dying,
// with Rule-gated cross-fades between them.
type LowerBodyMachine struct {
	machine *animation.Machine

	walkClip  animation.ClipHandle
	dyingClip animation.ClipHandle
	walkState animation.StateHandle
}

// LowerBodyInput is the per-tick fact set pushed into the locomotion
// machine before evaluation.
type LowerBodyInput struct {
	Walk   bool
	Scream bool
	Dead   bool
}

const (
	lowerIdleToWalk   = "IdleToWalk"
	lowerWalkToIdle   = "WalkToIdle"
	lowerIdleToScream = "IdleToScream"
	lowerScreamToWalk = "ScreamToWalk"
	lowerScreamToIdle = "ScreamToIdle"
	lowerWalkToDying  = "WalkToDying"
	lowerIdleToDying  = "IdleToDying"
)

// NewLowerBodyMachine compiles the locomotion machine definition. The
// definition must provide "walk" and "dying" clips and a "Walk" state;
// anything missing is a content error.
func NewLowerBodyMachine(def animation.MachineDef) (*LowerBodyMachine, error) {
	machine, err := animation.Compile(def)
	if err != nil {
		return nil, err
	}
	walkClip, ok := machine.ClipByName("walk")
	if !ok {
		return nil, fmt.Errorf("bot: locomotion machine %s has no walk clip", def.Name)
	}
	dyingClip, ok := machine.ClipByName("dying")
	if !ok {
		return nil, fmt.Errorf("bot: locomotion machine %s has no dying clip", def.Name)
	}
	walkState, ok := machine.StateByName("Walk")
	if !ok {
		return nil, fmt.Errorf("bot: locomotion machine %s has no Walk state", def.Name)
	}
	machine.Clip(dyingClip).SetLoop(false).SetEnabled(false)
	return &LowerBodyMachine{
		machine:   machine,
		walkClip:  walkClip,
		dyingClip: dyingClip,
		walkState: walkState,
	}, nil
}

// Apply pushes the input facts as parameters and evaluates one pose.
func (l *LowerBodyMachine) Apply(tick uint64, dt float32, input LowerBodyInput) animation.Pose {
	return l.machine.
		SetParameter(lowerIdleToWalk, animation.Rule(input.Walk)).
		SetParameter(lowerWalkToIdle, animation.Rule(!input.Walk)).
		SetParameter(lowerIdleToScream, animation.Rule(input.Scream)).
		SetParameter(lowerScreamToWalk, animation.Rule(!input.Scream)).
		SetParameter(lowerScreamToIdle, animation.Rule(!input.Scream)).
		SetParameter(lowerWalkToDying, animation.Rule(input.Dead)).
		SetParameter(lowerIdleToDying, animation.Rule(input.Dead)).
		Evaluate(tick, dt)
}

// IsWalking reports whether the Walk state is active or being blended in.
func (l *LowerBodyMachine) IsWalking() bool {
	return l.machine.IsStateActive(l.walkState)
}

// SetWalkSpeed scales walk playback so footsteps match movement speed.
func (l *LowerBodyMachine) SetWalkSpeed(speed float32) {
	l.machine.Clip(l.walkClip).SetSpeed(speed)
}

// DrainStepSignals returns the footstep signals crossed since last drain.
func (l *LowerBodyMachine) DrainStepSignals() []animation.Signal {
	return l.machine.DrainSignals(l.walkClip)
}

// DyingEnded reports whether the dying clip has played through; the actor
// can be removed once it has.
func (l *LowerBodyMachine) DyingEnded() bool {
	return l.machine.Clip(l.dyingClip).HasEnded()
}

// EnableDying starts dying playback.
func (l *LowerBodyMachine) EnableDying() {
	l.machine.Clip(l.dyingClip).SetEnabled(true)
}

// Machine exposes the underlying machine for snapshots.
func (l *LowerBodyMachine) Machine() *animation.Machine { return l.machine }
