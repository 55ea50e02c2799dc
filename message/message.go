// Package message defines the typed command/notification bus between this
// core and the rest of the game. AI and animation code never calls other
// subsystems directly: it enqueues commands drained once per tick, and
// consumes notifications pushed by the host. This keeps the core free of
// compile-time dependencies on rendering, audio and physics.
package message

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/weapon"
)

// Command is a gameplay request emitted by the core.
type Command interface{ isCommand() }

// ShootWeapon requests a ranged shot from the actor's held weapon.
type ShootWeapon struct {
	Actor  arena.Handle
	Weapon weapon.Kind
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// ApplyDamage requests damage to an actor. Who is the attacker, if any.
type ApplyDamage struct {
	Actor  arena.Handle
	Who    arena.Handle
	Amount float32
}

// PlaySound requests a positional one-shot sound.
type PlaySound struct {
	Path     string
	Position mgl32.Vec3
}

// DropItems requests that an actor's stack be spilled into the level.
type DropItems struct {
	Actor arena.Handle
	Kind  item.Kind
	Count int
}

// SpawnProjectile requests a projectile from the host engine.
type SpawnProjectile struct {
	Shooter  arena.Handle
	Position mgl32.Vec3
	Dir      mgl32.Vec3
	Speed    float32
}

func (ShootWeapon) isCommand()     {}
func (ApplyDamage) isCommand()     {}
func (PlaySound) isCommand()       {}
func (DropItems) isCommand()       {}
func (SpawnProjectile) isCommand() {}

// Queue is a FIFO command queue drained once per tick by the host.
type Queue struct {
	items []Command
}

// Push appends a command.
func (q *Queue) Push(cmd Command) {
	if cmd == nil {
		return
	}
	q.items = append(q.items, cmd)
}

// Drain returns all queued commands and clears the queue.
func (q *Queue) Drain() []Command {
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued commands.
func (q *Queue) Len() int { return len(q.items) }

// Notification is an event pushed into the core by the host.
type Notification interface{ isNotification() }

// ActorDamaged reports applied damage.
type ActorDamaged struct {
	Actor  arena.Handle
	Who    arena.Handle
	Amount float32
}

// ActorRemoved reports that an actor left the simulation. Anything holding
// a target reference to it must clear that reference on the next tick.
type ActorRemoved struct {
	Actor arena.Handle
}

func (ActorDamaged) isNotification() {}
func (ActorRemoved) isNotification() {}
