// Package player implements the player actor. Unlike bots, whose machines
// come from YAML definitions, the player's machines are built in code: the
// clip set is fixed and the blend structure (weighted walk/run mix,
// per-weapon aim selection) is tied directly to input handling.
package player

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/shooter/animation"
	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/character"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/message"
	"github.com/milk9111/shooter/scene"
	"github.com/milk9111/shooter/weapon"
)

const (
	// StepSignal fires when a foot lands in the walk or run clip.
	StepSignal uint64 = 1
	// JumpSignal fires at the instant the jump clip leaves the ground; the
	// vertical impulse is applied then, not when the key is pressed.
	JumpSignal uint64 = 2
	// GrabSignal fires when the weapon-switch clip reaches the grab
	// instant.
	GrabSignal uint64 = 3
)

const (
	walkSpeed   = 3.5
	runSpeed    = 6.0
	jumpImpulse = 5.5

	// hitReactionTime is how long a hit keeps both body layers in their
	// reaction pose.
	hitReactionTime = 0.35

	footstepSound = "data/sounds/footstep.ogg"
)

// InputIntent is one tick's worth of player input, already mapped from
// raw devices by the host.
type InputIntent struct {
	MoveX float32
	MoveZ float32
	Run   bool
	Jump  bool
	Aim   bool
	Shoot bool
}

// Frame is the per-tick input handed to the player by the level.
type Frame struct {
	Now      float64
	Dt       float32
	Tick     uint64
	Scene    scene.Scene
	Commands *message.Queue
}

// Player is the player actor.
type Player struct {
	self      arena.Handle
	character character.Character

	lowerBody *animation.Machine
	upperBody *animation.Machine

	walkClip    animation.ClipHandle
	runClip     animation.ClipHandle
	jumpClip    animation.ClipHandle
	landClip    animation.ClipHandle
	hitClip     animation.ClipHandle
	armsHitClip animation.ClipHandle

	jumping   bool
	stunTimer float64
}

// New builds the player at a position with its machines fully constructed.
func New(self arena.Handle, position mgl32.Vec3, health float32, collider uint64) *Player {
	p := &Player{
		self:      self,
		character: character.New(position, health, collider),
	}
	p.buildLowerBody()
	p.buildUpperBody()
	return p
}

// buildLowerBody wires Idle, a weighted walk/run mix, Jump, Land and a
// hit reaction.
func (p *Player) buildLowerBody() {
	m := animation.NewMachine("player_lower")

	idle := m.AddClip(animation.NewClip("idle", 1.5).SetLoop(true))
	walk := m.AddClip(animation.NewClip("walk", 1.0).
		SetLoop(true).
		AddSignal(StepSignal, 0.3).
		AddSignal(StepSignal, 0.8))
	run := m.AddClip(animation.NewClip("run", 0.7).
		SetLoop(true).
		AddSignal(StepSignal, 0.2).
		AddSignal(StepSignal, 0.55))
	jump := m.AddClip(animation.NewClip("jump", 0.6).
		AddSignal(JumpSignal, 0.1).
		SetEnabled(false))
	land := m.AddClip(animation.NewClip("land", 0.35).SetEnabled(false))
	hit := m.AddClip(animation.NewClip("hit_reaction", 0.4).SetEnabled(false))

	p.walkClip = walk
	p.runClip = run
	p.jumpClip = jump
	p.landClip = land
	p.hitClip = hit

	idleState := m.AddState("Idle", m.AddPlayClip(idle))
	moveState := m.AddState("Move", m.AddWeightedBlend(
		animation.WeightedInput{Weight: "WalkWeight", Node: m.AddPlayClip(walk)},
		animation.WeightedInput{Weight: "RunWeight", Node: m.AddPlayClip(run)},
	))
	jumpState := m.AddState("Jump", m.AddPlayClip(jump))
	landState := m.AddState("Land", m.AddPlayClip(land))
	hitState := m.AddState("HitReaction", m.AddPlayClip(hit))

	// Hit reactions are scanned first so a stun wins over movement on
	// the same tick.
	m.AddTransition("IdleToHit", idleState, hitState, 0.1, "ShouldBeStunned")
	m.AddTransition("MoveToHit", moveState, hitState, 0.1, "ShouldBeStunned")
	m.AddTransition("HitToIdle", hitState, idleState, 0.15, "StunEnded")
	m.AddTransition("IdleToMove", idleState, moveState, 0.2, "IdleToMove")
	m.AddTransition("MoveToIdle", moveState, idleState, 0.2, "MoveToIdle")
	m.AddTransition("IdleToJump", idleState, jumpState, 0.1, "ToJump")
	m.AddTransition("MoveToJump", moveState, jumpState, 0.1, "ToJump")
	m.AddTransition("JumpToLand", jumpState, landState, 0.1, "HasGroundContact")
	m.AddTransition("LandToIdle", landState, idleState, 0.15, "LandToIdle")
	m.SetEntryState(idleState)

	p.lowerBody = m
}

// buildUpperBody wires arm idle against an indexed per-weapon aim blend,
// selected by the held weapon's kind.
func (p *Player) buildUpperBody() {
	m := animation.NewMachine("player_upper")

	idle := m.AddClip(animation.NewClip("arms_idle", 2.0).SetLoop(true))

	kinds := []weapon.Kind{weapon.Glock, weapon.AK47, weapon.M4, weapon.PlasmaRifle, weapon.RailGun}
	aims := make([]animation.IndexedChild, 0, len(kinds))
	for _, k := range kinds {
		clip := m.AddClip(animation.NewClip("aim_"+k.String(), 1.0).SetLoop(true))
		aims = append(aims, animation.IndexedChild{BlendTime: 0.25, Node: m.AddPlayClip(clip)})
	}

	hit := m.AddClip(animation.NewClip("arms_hit_reaction", 0.4).SetEnabled(false))
	p.armsHitClip = hit

	idleState := m.AddState("Idle", m.AddPlayClip(idle))
	aimState := m.AddState("Aim", m.AddIndexedBlend("weapon_kind", aims...))
	hitState := m.AddState("HitReaction", m.AddPlayClip(hit))

	m.AddTransition("IdleToHit", idleState, hitState, 0.1, "ShouldBeStunned")
	m.AddTransition("AimToHit", aimState, hitState, 0.1, "ShouldBeStunned")
	m.AddTransition("HitToIdle", hitState, idleState, 0.15, "StunEnded")
	m.AddTransition("IdleToAim", idleState, aimState, 0.2, "IdleToAim")
	m.AddTransition("AimToIdle", aimState, idleState, 0.2, "AimToIdle")
	m.SetEntryState(idleState)

	p.upperBody = m
}

// Character returns the player's shared actor core.
func (p *Player) Character() *character.Character { return &p.character }

// Handle returns the player's arena handle.
func (p *Player) Handle() arena.Handle { return p.self }

// LowerBody exposes the locomotion machine for snapshots.
func (p *Player) LowerBody() *animation.Machine { return p.lowerBody }

// UpperBody exposes the arms machine for snapshots.
func (p *Player) UpperBody() *animation.Machine { return p.upperBody }

// StunTime exposes the remaining hit-reaction window for snapshots.
func (p *Player) StunTime() float64 { return p.stunTimer }

// RestoreStunTime rewinds the hit-reaction window from a snapshot.
func (p *Player) RestoreStunTime(t float64) { p.stunTimer = t }

// Update runs one simulation tick of movement, shooting and animation.
func (p *Player) Update(frame Frame, intent InputIntent) {
	dead := p.character.IsDead()
	grounded := frame.Scene.GroundContact(p.character.Collider)

	// A hit knocks both layers into their reaction pose for a short
	// window.
	if p.character.RecentDamage() > 0 && !dead {
		p.stunTimer = hitReactionTime
		p.lowerBody.Clip(p.hitClip).Rewind().SetEnabled(true)
		p.upperBody.Clip(p.armsHitClip).Rewind().SetEnabled(true)
	}
	stunned := p.stunTimer > 0 && !dead
	p.stunTimer -= float64(frame.Dt)
	if !stunned {
		p.lowerBody.Clip(p.hitClip).SetEnabled(false)
		p.upperBody.Clip(p.armsHitClip).SetEnabled(false)
	}

	move := mgl32.Vec3{intent.MoveX, 0, intent.MoveZ}
	walking := !dead && move.Len() > 1e-3
	speed := float32(walkSpeed)
	if intent.Run {
		speed = runSpeed
	}
	if walking {
		move = move.Normalize()
		p.character.LookDir = move
		p.character.Velocity[0] = move.X() * speed
		p.character.Velocity[2] = move.Z() * speed
	} else {
		p.character.Velocity[0] = 0
		p.character.Velocity[2] = 0
	}

	if intent.Jump && grounded && !p.jumping && !dead {
		p.jumping = true
		p.lowerBody.Clip(p.jumpClip).Rewind().SetEnabled(true)
	}

	if intent.Shoot && !dead {
		p.tryShoot(frame)
	}

	jumpClip := p.lowerBody.Clip(p.jumpClip)
	landClip := p.lowerBody.Clip(p.landClip)
	if p.jumping && jumpClip.HasEnded() && grounded {
		p.jumping = false
		jumpClip.SetEnabled(false)
		landClip.Rewind().SetEnabled(true)
	}

	runWeight := float32(0)
	if intent.Run {
		runWeight = 1
	}
	weaponKind := uint32(0)
	aiming := false
	if held := p.character.CurrentWeapon(); held != nil {
		weaponKind = uint32(held.Kind)
		aiming = intent.Aim && !dead
	}

	// The ground rule keeps the jump-clip guard: the probe alone would
	// fire the land transition before lift-off.
	p.lowerBody.
		SetParameter("ShouldBeStunned", animation.Rule(stunned)).
		SetParameter("StunEnded", animation.Rule(!stunned)).
		SetParameter("IdleToMove", animation.Rule(walking)).
		SetParameter("MoveToIdle", animation.Rule(!walking)).
		SetParameter("ToJump", animation.Rule(p.jumping)).
		SetParameter("HasGroundContact", animation.Rule(grounded && jumpClip.HasEnded())).
		SetParameter("LandToIdle", animation.Rule(landClip.HasEnded())).
		SetParameter("WalkWeight", animation.Weight(1-runWeight)).
		SetParameter("RunWeight", animation.Weight(runWeight)).
		Evaluate(frame.Tick, frame.Dt)

	p.upperBody.
		SetParameter("ShouldBeStunned", animation.Rule(stunned)).
		SetParameter("StunEnded", animation.Rule(!stunned)).
		SetParameter("IdleToAim", animation.Rule(aiming)).
		SetParameter("AimToIdle", animation.Rule(!aiming)).
		SetParameter("weapon_kind", animation.Index(weaponKind)).
		Evaluate(frame.Tick, frame.Dt)

	// The jump impulse lands when the clip says so, not when the key went
	// down.
	for _, sig := range p.lowerBody.DrainSignals(p.jumpClip) {
		if sig.ID == JumpSignal {
			p.character.Velocity[1] = jumpImpulse
		}
	}

	// Clips advance machine-wide regardless of the active state, so both
	// gait clips are drained every tick; pending queues would otherwise
	// bank signals while idle and flush them as one burst later.
	walkSteps := p.lowerBody.DrainSignals(p.walkClip)
	runSteps := p.lowerBody.DrainSignals(p.runClip)
	if walking && grounded {
		steps := walkSteps
		if intent.Run {
			steps = runSteps
		}
		for range steps {
			frame.Commands.Push(message.PlaySound{Path: footstepSound, Position: p.character.Position})
		}
	}

	p.character.CommitHealth()
}

func (p *Player) tryShoot(frame Frame) {
	held := p.character.CurrentWeapon()
	if held == nil || !held.CanShoot(frame.Now) {
		return
	}
	def := held.Definition()
	if p.character.Inventory.TryExtractExact(item.Ammo, def.AmmoPerShot) == 0 {
		return
	}
	held.Shot(frame.Now)
	origin := p.character.Position.Add(mgl32.Vec3{0, 0.8, 0})
	frame.Commands.Push(message.ShootWeapon{
		Actor:  p.self,
		Weapon: held.Kind,
		Origin: origin,
		Dir:    p.character.LookDir,
	})
}
