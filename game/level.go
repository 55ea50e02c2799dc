// Package game ties the actors, items, navmesh and scene together into a
// fixed-timestep level simulation.
package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/bot"
	"github.com/milk9111/shooter/character"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/message"
	"github.com/milk9111/shooter/nav"
	"github.com/milk9111/shooter/player"
	"github.com/milk9111/shooter/scene"
)

// TickRate is the fixed simulation step, in seconds.
const TickRate = 1.0 / 60.0

// actorBodyRadius is the capsule radius registered for every actor.
const actorBodyRadius = 0.5

// pickupRadius is how close an actor must get to collect an item.
const pickupRadius = 1.0

// gravity pulls airborne actors down, applied per tick.
const gravity = 9.8

// Scene extends the read contract with the body bookkeeping a level does
// as actors move and die.
type Scene interface {
	scene.Scene
	AddCapsule(owner uint64, center mgl32.Vec3, radius float32)
	MoveCapsule(owner uint64, center mgl32.Vec3)
	RemoveCapsule(owner uint64)
}

// Level is one running simulation.
type Level struct {
	log     *logrus.Logger
	actors  arena.Arena[Actor]
	items   []item.Item
	navmesh *nav.Navmesh
	scene   Scene

	defs   bot.Definitions
	source bot.MachineSource

	commands message.Queue
	inbox    []message.Notification

	// staged receives bots whose machines finished asynchronous
	// construction; they join the live set at the start of the next tick.
	staged chan *bot.Bot

	clock        float64
	tick         uint64
	nextCollider uint64
	nextSeed     int64

	playerHandle arena.Handle
	playerIntent player.InputIntent
}

// NewLevel creates a level over the given scene and navmesh.
func NewLevel(log *logrus.Logger, sc Scene, navmesh *nav.Navmesh, defs bot.Definitions, source bot.MachineSource) *Level {
	return &Level{
		log:          log,
		navmesh:      navmesh,
		scene:        sc,
		defs:         defs,
		source:       source,
		staged:       make(chan *bot.Bot, 16),
		nextCollider: 1,
		nextSeed:     1,
	}
}

// Clock returns the simulation clock, in seconds.
func (l *Level) Clock() float64 { return l.clock }

// Tick returns the current tick serial.
func (l *Level) Tick() uint64 { return l.tick }

// Actors exposes the live actor set.
func (l *Level) Actors() *arena.Arena[Actor] { return &l.actors }

// Scene returns the scene collaborator.
func (l *Level) Scene() Scene { return l.scene }

// Items returns the level's items, collected ones included.
func (l *Level) Items() []item.Item { return l.items }

// AddItem places a pickup in the level.
func (l *Level) AddItem(kind item.Kind, position mgl32.Vec3) {
	l.items = append(l.items, item.Item{Kind: kind, Position: position})
}

// AddPlayer inserts the player actor. A level holds at most one.
func (l *Level) AddPlayer(position mgl32.Vec3, health float32) arena.Handle {
	if l.playerHandle.IsSome() {
		panic("game: level already has a player")
	}
	collider := l.allocCollider()
	h := l.actors.Insert(Actor{})
	p := player.New(h, position, health, collider)
	*l.actors.Get(h) = Actor{Player: p}
	l.scene.AddCapsule(collider, position, actorBodyRadius)
	l.playerHandle = h
	return h
}

// SetPlayerIntent records the input applied on the next tick.
func (l *Level) SetPlayerIntent(intent player.InputIntent) { l.playerIntent = intent }

// SpawnBot builds a bot's machines off the simulation tick and stages it
// for insertion. The bot never appears in the live set half-built.
func (l *Level) SpawnBot(kind bot.Kind, position mgl32.Vec3) {
	collider := l.allocCollider()
	seed := l.nextSeed
	l.nextSeed++
	go func() {
		b, err := bot.New(kind, l.defs, l.source, position, collider, seed, l.log)
		if err != nil {
			l.log.WithError(err).WithField("kind", kind.String()).Error("bot construction failed")
			return
		}
		l.staged <- b
	}()
}

// RestoreBot inserts a bot built synchronously. Live spawns go through
// SpawnBot; only snapshot loading uses this, where the caller must finish
// restoring the bot's state before the next tick anyway.
func (l *Level) RestoreBot(kind bot.Kind, position mgl32.Vec3) (*bot.Bot, arena.Handle, error) {
	collider := l.allocCollider()
	seed := l.nextSeed
	l.nextSeed++
	b, err := bot.New(kind, l.defs, l.source, position, collider, seed, l.log)
	if err != nil {
		return nil, arena.None, err
	}
	h := l.actors.Insert(Actor{Bot: b})
	b.Bind(h)
	l.scene.AddCapsule(collider, position, actorBodyRadius)
	return b, h, nil
}

// RestoreClock rewinds the simulation clock when loading a snapshot.
func (l *Level) RestoreClock(clock float64, tick uint64) {
	l.clock = clock
	l.tick = tick
}

// Player returns the player actor, or nil before AddPlayer.
func (l *Level) Player() *player.Player {
	if a := l.actors.Get(l.playerHandle); a != nil {
		return a.Player
	}
	return nil
}

// Notify delivers a host notification, consumed at the next tick.
func (l *Level) Notify(n message.Notification) {
	if n != nil {
		l.inbox = append(l.inbox, n)
	}
}

// DrainCommands returns the commands the host must act on this tick.
// Damage and item-drop commands never appear here; the level resolves
// those itself.
func (l *Level) DrainCommands() []message.Command {
	return l.commands.Drain()
}

// Update advances the simulation by one fixed step.
func (l *Level) Update() error {
	l.tick++
	l.clock += TickRate
	dt := float32(TickRate)

	l.admitStagedBots()
	l.processNotifications()

	targets := l.describeTargets()
	pois := l.collectPOIs()

	var firstErr error
	l.actors.ForEach(func(h arena.Handle, a *Actor) {
		switch {
		case a.Bot != nil:
			err := a.Bot.Update(bot.Frame{
				Now:      l.clock,
				Dt:       dt,
				Tick:     l.tick,
				Navmesh:  l.navmesh,
				Scene:    l.scene,
				Targets:  targets,
				POIs:     pois,
				Commands: &l.commands,
			})
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case a.Player != nil:
			a.Player.Update(player.Frame{
				Now:      l.clock,
				Dt:       dt,
				Tick:     l.tick,
				Scene:    l.scene,
				Commands: &l.commands,
			}, l.playerIntent)
		}
	})

	l.integrate(dt)
	l.collectItems()
	l.routeCommands()
	l.removeFinishedBots()

	return firstErr
}

// admitStagedBots drains asynchronously constructed bots into the live
// set.
func (l *Level) admitStagedBots() {
	for {
		select {
		case b := <-l.staged:
			h := l.actors.Insert(Actor{Bot: b})
			b.Bind(h)
			c := b.Character()
			l.scene.AddCapsule(c.Collider, c.Position, actorBodyRadius)
			l.log.WithFields(logrus.Fields{
				"kind":   b.Kind().String(),
				"handle": fmt.Sprintf("%d:%d", h.Index, h.Gen),
			}).Debug("bot joined")
		default:
			return
		}
	}
}

func (l *Level) processNotifications() {
	inbox := l.inbox
	l.inbox = nil
	for _, n := range inbox {
		switch n := n.(type) {
		case message.ActorDamaged:
			if a := l.actors.Get(n.Actor); a != nil {
				if c := a.Character(); c != nil {
					c.Damage(n.Amount)
				}
			}
		case message.ActorRemoved:
			l.actors.ForEach(func(_ arena.Handle, a *Actor) {
				if a.Bot != nil {
					a.Bot.OnActorRemoved(n.Actor)
				}
			})
		}
	}
}

func (l *Level) describeTargets() []bot.TargetDescriptor {
	out := make([]bot.TargetDescriptor, 0, l.actors.Len())
	l.actors.ForEach(func(h arena.Handle, a *Actor) {
		c := a.Character()
		if c == nil {
			return
		}
		desc := bot.TargetDescriptor{
			Handle:   h,
			Position: c.Position,
			Health:   c.Health,
			Collider: c.Collider,
			IsPlayer: a.Player != nil,
		}
		if a.Bot != nil {
			desc.Kind = a.Bot.Kind()
		}
		out = append(out, desc)
	})
	return out
}

func (l *Level) collectPOIs() []mgl32.Vec3 {
	var out []mgl32.Vec3
	for i := range l.items {
		if !l.items[i].Collected {
			out = append(out, l.items[i].Position)
		}
	}
	return out
}

// integrate applies velocity and gravity and pushes body positions to the
// scene.
func (l *Level) integrate(dt float32) {
	l.actors.ForEach(func(_ arena.Handle, a *Actor) {
		c := a.Character()
		if c == nil {
			return
		}
		if l.scene.GroundContact(c.Collider) {
			if c.Velocity[1] < 0 {
				c.Velocity[1] = 0
			}
		} else {
			c.Velocity[1] -= gravity * dt
		}
		c.Position = c.Position.Add(c.Velocity.Mul(dt))
		l.scene.MoveCapsule(c.Collider, c.Position)
	})
}

// collectItems hands nearby uncollected items to living actors.
func (l *Level) collectItems() {
	l.actors.ForEach(func(h arena.Handle, a *Actor) {
		c := a.Character()
		if c == nil || c.IsDead() {
			return
		}
		for i := range l.items {
			it := &l.items[i]
			if it.Collected || it.Position.Sub(c.Position).Len() > pickupRadius {
				continue
			}
			it.Collected = true
			l.applyPickup(h, c, it.Kind)
		}
	})
}

func (l *Level) applyPickup(h arena.Handle, c *character.Character, kind item.Kind) {
	if wk, ok := kind.AssociatedWeapon(); ok {
		c.AddWeapon(wk, h)
		c.Inventory.Add(item.Ammo, 20)
		return
	}
	switch kind {
	case item.Medkit:
		c.Health += 40
	case item.Medpack:
		c.Health += 20
	case item.Ammo:
		c.Inventory.Add(item.Ammo, 24)
	default:
		c.Inventory.Add(kind, 1)
	}
}

// routeCommands resolves damage and drops internally and leaves the rest
// for the host.
func (l *Level) routeCommands() {
	var passthrough []message.Command
	for _, cmd := range l.commands.Drain() {
		switch cmd := cmd.(type) {
		case message.ApplyDamage:
			if a := l.actors.Get(cmd.Actor); a != nil {
				if c := a.Character(); c != nil {
					c.Damage(cmd.Amount)
				}
			}
		case message.DropItems:
			if a := l.actors.Get(cmd.Actor); a != nil {
				if c := a.Character(); c != nil {
					for i := 0; i < cmd.Count; i++ {
						l.AddItem(cmd.Kind, c.Position)
					}
				}
			}
		default:
			passthrough = append(passthrough, cmd)
		}
	}
	for _, cmd := range passthrough {
		l.commands.Push(cmd)
	}
}

// removeFinishedBots retires bots that have died and played their death
// animation out, notifying everything that might hold a target reference.
func (l *Level) removeFinishedBots() {
	l.actors.ForEach(func(h arena.Handle, a *Actor) {
		if a.Bot == nil || !a.Bot.CanBeRemoved() {
			return
		}
		c := a.Bot.Character()
		l.scene.RemoveCapsule(c.Collider)
		l.actors.Remove(h)
		l.Notify(message.ActorRemoved{Actor: h})
		l.log.WithField("kind", a.Bot.Kind().String()).Debug("bot removed")
	})
}

func (l *Level) allocCollider() uint64 {
	id := l.nextCollider
	l.nextCollider++
	return id
}
