package player

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/message"
	"github.com/milk9111/shooter/scene"
	"github.com/milk9111/shooter/weapon"
)

const dt = 1.0 / 60

func groundedScene() *scene.StaticScene {
	sc := scene.NewStaticScene()
	sc.AddBox(mgl32.Vec3{-20, -1, -20}, mgl32.Vec3{20, 0, 20})
	sc.AddCapsule(1, mgl32.Vec3{0, 0.5, 0}, 0.5)
	return sc
}

func newPlayer() *Player {
	return New(arena.Handle{Index: 0, Gen: 1}, mgl32.Vec3{0, 0.5, 0}, 100, 1)
}

func frame(tick uint64, sc scene.Scene, q *message.Queue) Frame {
	return Frame{
		Now:      float64(tick) * dt,
		Dt:       dt,
		Tick:     tick,
		Scene:    sc,
		Commands: q,
	}
}

func TestPlayerMovementVelocity(t *testing.T) {
	p := newPlayer()
	sc := groundedScene()
	var q message.Queue

	p.Update(frame(1, sc, &q), InputIntent{MoveX: 1})
	if got := p.Character().Velocity.X(); got != walkSpeed {
		t.Fatalf("walk velocity = %v, want %v", got, float32(walkSpeed))
	}
	if p.Character().LookDir != (mgl32.Vec3{1, 0, 0}) {
		t.Fatalf("look dir did not follow movement: %v", p.Character().LookDir)
	}

	p.Update(frame(2, sc, &q), InputIntent{MoveX: 1, Run: true})
	if got := p.Character().Velocity.X(); got != runSpeed {
		t.Fatalf("run velocity = %v, want %v", got, float32(runSpeed))
	}

	p.Update(frame(3, sc, &q), InputIntent{})
	if got := p.Character().Velocity.X(); got != 0 {
		t.Fatalf("velocity after stop = %v, want 0", got)
	}
}

func TestPlayerJumpImpulseOnSignal(t *testing.T) {
	p := newPlayer()
	sc := groundedScene()
	var q message.Queue

	// The impulse lands when the jump clip crosses its lift-off signal,
	// not on the tick the key went down.
	p.Update(frame(1, sc, &q), InputIntent{Jump: true})
	if got := p.Character().Velocity.Y(); got != 0 {
		t.Fatalf("impulse applied on keypress, velocity = %v", got)
	}

	for tick := uint64(2); tick <= 10; tick++ {
		p.Update(frame(tick, sc, &q), InputIntent{})
	}
	if got := p.Character().Velocity.Y(); got != jumpImpulse {
		t.Fatalf("jump impulse = %v, want %v", got, float32(jumpImpulse))
	}
}

func TestPlayerShootCooldownAndAmmo(t *testing.T) {
	p := newPlayer()
	sc := groundedScene()
	var q message.Queue

	p.Character().AddWeapon(weapon.Glock, p.Handle())
	p.Character().Inventory.Add(item.Ammo, 2)

	shots := func() int {
		n := 0
		for _, cmd := range q.Drain() {
			if _, ok := cmd.(message.ShootWeapon); ok {
				n++
			}
		}
		return n
	}

	p.Update(frame(1, sc, &q), InputIntent{Shoot: true})
	if got := shots(); got != 1 {
		t.Fatalf("first trigger pull fired %d shots, want 1", got)
	}

	// Still inside the cooldown.
	p.Update(frame(2, sc, &q), InputIntent{Shoot: true})
	if got := shots(); got != 0 {
		t.Fatalf("shot fired inside cooldown")
	}

	// Past the cooldown, the last round goes out.
	p.Update(Frame{Now: 1.0, Dt: dt, Tick: 3, Scene: sc, Commands: &q}, InputIntent{Shoot: true})
	if got := shots(); got != 1 {
		t.Fatalf("shot after cooldown fired %d, want 1", got)
	}
	if got := p.Character().Inventory.Count(item.Ammo); got != 0 {
		t.Fatalf("ammo left = %d, want 0", got)
	}

	// Dry trigger: no ammo, no command.
	p.Update(Frame{Now: 2.0, Dt: dt, Tick: 4, Scene: sc, Commands: &q}, InputIntent{Shoot: true})
	if got := shots(); got != 0 {
		t.Fatalf("dry trigger still fired")
	}
}

func TestPlayerIdleFootstepsDoNotAccumulate(t *testing.T) {
	p := newPlayer()
	sc := groundedScene()
	var q message.Queue

	// Both gait clips keep looping while the player stands still; their
	// signal queues must not bank up and flush on the first moving tick.
	for tick := uint64(1); tick <= 600; tick++ {
		p.Update(frame(tick, sc, &q), InputIntent{})
	}
	q.Drain()

	p.Update(frame(601, sc, &q), InputIntent{MoveX: 1})
	steps := 0
	for _, cmd := range q.Drain() {
		if _, ok := cmd.(message.PlaySound); ok {
			steps++
		}
	}
	if steps > 1 {
		t.Fatalf("first moving tick flushed %d footsteps, want at most 1", steps)
	}

	// Sustained walking still produces footsteps.
	for tick := uint64(602); tick <= 721; tick++ {
		p.Update(frame(tick, sc, &q), InputIntent{MoveX: 1})
	}
	steps = 0
	for _, cmd := range q.Drain() {
		if _, ok := cmd.(message.PlaySound); ok {
			steps++
		}
	}
	if steps == 0 {
		t.Fatalf("walking produced no footsteps")
	}
}

func TestPlayerHitReactionOnDamage(t *testing.T) {
	p := newPlayer()
	sc := groundedScene()
	var q message.Queue

	p.Character().Damage(25)
	for tick := uint64(1); tick <= 10; tick++ {
		p.Update(frame(tick, sc, &q), InputIntent{})
	}
	if got := p.LowerBody().ActiveStateName(); got != "HitReaction" {
		t.Fatalf("lower body after hit in state %q, want HitReaction", got)
	}
	if got := p.UpperBody().ActiveStateName(); got != "HitReaction" {
		t.Fatalf("upper body after hit in state %q, want HitReaction", got)
	}

	// The window expires and both layers recover.
	for tick := uint64(11); tick <= 90; tick++ {
		p.Update(frame(tick, sc, &q), InputIntent{})
	}
	if got := p.LowerBody().ActiveStateName(); got != "Idle" {
		t.Fatalf("lower body did not recover, state %q", got)
	}
	if got := p.UpperBody().ActiveStateName(); got != "Idle" {
		t.Fatalf("upper body did not recover, state %q", got)
	}
}

func TestPlayerAimStateFollowsWeapon(t *testing.T) {
	p := newPlayer()
	sc := groundedScene()
	var q message.Queue

	// Aiming without a weapon does nothing.
	for tick := uint64(1); tick <= 30; tick++ {
		p.Update(frame(tick, sc, &q), InputIntent{Aim: true})
	}
	if got := p.UpperBody().ActiveStateName(); got != "Idle" {
		t.Fatalf("unarmed aim reached state %q", got)
	}

	p.Character().AddWeapon(weapon.AK47, p.Handle())
	for tick := uint64(31); tick <= 60; tick++ {
		p.Update(frame(tick, sc, &q), InputIntent{Aim: true})
	}
	if got := p.UpperBody().ActiveStateName(); got != "Aim" {
		t.Fatalf("armed aim stuck in state %q", got)
	}
}
