// Package bot implements enemy actors: layered animation machines for
// locomotion and combat, target selection, navmesh movement and a
// behavior-tree decision loop. Bots never touch other subsystems
// directly; everything outward goes through the command queue.
package bot

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/character"
	"github.com/milk9111/shooter/message"
	"github.com/milk9111/shooter/nav"
	"github.com/milk9111/shooter/scene"
)

// speedSmoothing eases actual movement speed toward the walk speed so
// starts and stops don't snap.
const speedSmoothing = 0.1

// Frame is the per-tick input handed to every bot by the level.
type Frame struct {
	Now      float64
	Dt       float32
	Tick     uint64
	Navmesh  *nav.Navmesh
	Scene    scene.Scene
	Targets  []TargetDescriptor
	POIs     []mgl32.Vec3
	Commands *message.Queue
}

// Bot is one enemy actor.
type Bot struct {
	self       arena.Handle
	kind       Kind
	definition Definition
	character  character.Character

	lowerBody *LowerBodyMachine
	upperBody *UpperBodyMachine
	follower  *nav.PathFollower
	tree      bt.Node
	script    *scriptRuntime
	rng       *rand.Rand
	log       *logrus.Entry

	ctx tickContext

	target    Target
	hasTarget bool

	poi            mgl32.Vec3
	hasPOI         bool
	lastPOIRefresh float64

	restorationTime float64
	threatenTimeout float64
	screamTimer     float64

	meleeActive  bool
	meleeIndex   int
	droppedItems bool

	moveDir   mgl32.Vec3
	moveSpeed float32
}

// New builds a bot of the given kind at a position. Machine definitions
// and the optional script are resolved through the source; any content
// error fails construction. The bot has no arena handle yet; Bind is
// called when it joins the live actor set.
func New(kind Kind, defs Definitions, source MachineSource,
	position mgl32.Vec3, collider uint64, seed int64, log *logrus.Logger) (*Bot, error) {

	def := defs.Get(kind)

	locomotionDef, err := source.MachineDef(def.Locomotion)
	if err != nil {
		return nil, fmt.Errorf("bot: %s: %w", kind, err)
	}
	lower, err := NewLowerBodyMachine(locomotionDef)
	if err != nil {
		return nil, err
	}

	combatDef, err := source.MachineDef(def.Combat)
	if err != nil {
		return nil, fmt.Errorf("bot: %s: %w", kind, err)
	}
	upper, err := NewUpperBodyMachine(combatDef, def.Attacks)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		kind:       kind,
		definition: def,
		character:  character.New(position, def.Health, collider),
		lowerBody:  lower,
		upperBody:  upper,
		follower:   nav.NewPathFollower(),
		rng:        rand.New(rand.NewSource(seed)),
		log:        log.WithField("bot", kind.String()),
	}

	if def.Script != "" {
		src, err := source.Script(def.Script)
		if err != nil {
			return nil, fmt.Errorf("bot: %s: %w", kind, err)
		}
		b.script, err = newScriptRuntime(src)
		if err != nil {
			return nil, fmt.Errorf("bot: %s: %w", kind, err)
		}
	}

	b.tree = newTree(b)
	return b, nil
}

// Bind assigns the bot its arena handle when it joins the live actor set.
// Construction happens off the simulation tick, before any handle exists.
func (b *Bot) Bind(self arena.Handle) { b.self = self }

// Character returns the bot's shared actor core.
func (b *Bot) Character() *character.Character { return &b.character }

// Kind returns the bot's species.
func (b *Bot) Kind() Kind { return b.kind }

// Handle returns the bot's own arena handle.
func (b *Bot) Handle() arena.Handle { return b.self }

// Target returns the current quarry, if any.
func (b *Bot) Target() (Target, bool) { return b.target, b.hasTarget }

// Update runs one simulation tick: stun check, the decision tree, speed
// smoothing, the optional script hook, and both animation machines.
func (b *Bot) Update(frame Frame) error {
	b.ctx = tickContext{
		now:      frame.Now,
		dt:       frame.Dt,
		navmesh:  frame.Navmesh,
		scene:    frame.Scene,
		targets:  frame.Targets,
		pois:     frame.POIs,
		commands: frame.Commands,
	}

	// A heavy hit interrupts whatever the bot was doing for a while.
	if hit := b.character.RecentDamage(); hit >= b.definition.StunDamageThreshold && !b.character.IsDead() {
		b.restorationTime = float64(b.definition.RestorationTime)
		b.cancelMelee()
		if len(b.definition.PainSounds) > 0 {
			b.ctx.commands.Push(message.PlaySound{
				Path:     b.definition.PainSounds[b.rng.Intn(len(b.definition.PainSounds))],
				Position: b.character.Position,
			})
		}
	}

	if _, err := b.tree.Tick(); err != nil {
		return fmt.Errorf("bot: %s: behavior tick: %w", b.kind, err)
	}

	dt := float64(frame.Dt)
	b.restorationTime -= dt
	b.threatenTimeout -= dt
	b.screamTimer -= dt

	speedFactor := float32(1)
	if b.script != nil {
		out, err := b.script.run(b.scriptFacts())
		if err != nil {
			b.log.WithError(err).Warn("script hook failed")
		} else {
			speedFactor = float32(out.speedFactor)
			if out.threaten {
				b.threatenTimeout = 0
			}
		}
	}

	targetSpeed := float32(0)
	if b.ctx.moving {
		targetSpeed = b.definition.WalkSpeed * speedFactor
		b.moveDir = b.ctx.moveDir
	}
	b.moveSpeed += (targetSpeed - b.moveSpeed) * speedSmoothing
	b.character.Velocity[0] = b.moveDir.X() * b.moveSpeed
	b.character.Velocity[2] = b.moveDir.Z() * b.moveSpeed

	if b.definition.WalkSpeed > 0 {
		b.lowerBody.SetWalkSpeed(b.moveSpeed / b.definition.WalkSpeed)
	}
	for range b.lowerBody.DrainStepSignals() {
		b.ctx.commands.Push(message.PlaySound{Path: footstepSound, Position: b.character.Position})
	}

	dead := b.character.IsDead()
	b.lowerBody.Apply(frame.Tick, frame.Dt, LowerBodyInput{
		Walk:   b.ctx.moving && !dead,
		Scream: b.ctx.screaming,
		Dead:   dead,
	})
	b.upperBody.Apply(frame.Tick, frame.Dt, UpperBodyInput{
		Attack:      b.ctx.attacking,
		Walk:        b.ctx.moving && !dead,
		Scream:      b.ctx.screaming,
		Dead:        dead,
		Aim:         b.ctx.aiming,
		AttackIndex: b.ctx.attackIndex,
	})

	b.character.CommitHealth()
	return nil
}

func (b *Bot) scriptFacts() scriptFacts {
	facts := scriptFacts{
		Health:          float64(b.character.Health),
		HasTarget:       b.hasTarget,
		RestorationTime: b.restorationTime,
		Moving:          b.ctx.moving,
	}
	if b.hasTarget {
		facts.TargetDistance = float64(b.target.Position.Sub(b.character.Position).Len())
	}
	return facts
}

func (b *Bot) cancelMelee() {
	if !b.meleeActive {
		return
	}
	b.upperBody.AttackClip(b.meleeIndex).SetEnabled(false)
	b.meleeActive = false
}

// OnActorRemoved clears the target if it was the removed actor. Targets
// are only ever dropped through this notification, never by polling.
func (b *Bot) OnActorRemoved(h arena.Handle) {
	if b.hasTarget && b.target.Handle == h {
		b.hasTarget = false
		b.target = Target{}
	}
}

// CanBeRemoved reports whether the bot has died and finished its death
// animation on both layers.
func (b *Bot) CanBeRemoved() bool {
	return b.character.IsDead() && b.lowerBody.DyingEnded() && b.upperBody.DyingEnded()
}

// LowerBody exposes the locomotion machine for snapshots.
func (b *Bot) LowerBody() *LowerBodyMachine { return b.lowerBody }

// UpperBody exposes the combat machine for snapshots.
func (b *Bot) UpperBody() *UpperBodyMachine { return b.upperBody }

// Follower exposes the path follower for snapshots.
func (b *Bot) Follower() *nav.PathFollower { return b.follower }

// Memento is the serializable slice of a bot's mutable state.
type Memento struct {
	Position        [3]float32 `yaml:"position"`
	Velocity        [3]float32 `yaml:"velocity"`
	LookDir         [3]float32 `yaml:"look_dir"`
	Health          float32    `yaml:"health"`
	TargetIndex     uint32     `yaml:"target_index"`
	TargetGen       uint32     `yaml:"target_gen"`
	HasTarget       bool       `yaml:"has_target"`
	RestorationTime float64    `yaml:"restoration_time"`
	ThreatenTimeout float64    `yaml:"threaten_timeout"`
	MoveSpeed       float32    `yaml:"move_speed"`
	PathCursor      int        `yaml:"path_cursor"`
	DroppedItems    bool       `yaml:"dropped_items"`
}

// Snapshot captures the bot's mutable state.
func (b *Bot) Snapshot() Memento {
	return Memento{
		Position:        b.character.Position,
		Velocity:        b.character.Velocity,
		LookDir:         b.character.LookDir,
		Health:          b.character.Health,
		TargetIndex:     b.target.Handle.Index,
		TargetGen:       b.target.Handle.Gen,
		HasTarget:       b.hasTarget,
		RestorationTime: b.restorationTime,
		ThreatenTimeout: b.threatenTimeout,
		MoveSpeed:       b.moveSpeed,
		PathCursor:      b.follower.Cursor(),
		DroppedItems:    b.droppedItems,
	}
}

// RestoreSnapshot rewinds the bot's mutable state from a memento.
func (b *Bot) RestoreSnapshot(m Memento) {
	b.character.Position = m.Position
	b.character.Velocity = m.Velocity
	b.character.LookDir = m.LookDir
	b.character.Health = m.Health
	b.character.CommitHealth()
	b.target = Target{Handle: arena.Handle{Index: m.TargetIndex, Gen: m.TargetGen}}
	b.hasTarget = m.HasTarget
	b.restorationTime = m.RestorationTime
	b.threatenTimeout = m.ThreatenTimeout
	b.moveSpeed = m.MoveSpeed
	b.follower.RestoreCursor(m.PathCursor)
	b.droppedItems = m.DroppedItems
}
