package bot

import (
	"github.com/go-gl/mathgl/mgl32"
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/message"
	"github.com/milk9111/shooter/nav"
	"github.com/milk9111/shooter/scene"
)

const (
	// poiRefreshInterval bounds how often an idle bot re-picks its point of
	// interest, in simulation seconds.
	poiRefreshInterval = 1.25

	// screamDuration is how long the threaten display holds the bot in
	// place.
	screamDuration = 1.5

	// threatenMin/Max bound the random pause between threaten displays.
	threatenMin = 20.0
	threatenMax = 60.0

	footstepSound = "data/sounds/footstep.ogg"
)

// tickContext carries one tick's inputs into the behavior tree and
// collects the animation facts the leaves decide on. The level fills the
// input half before Update; the machines consume the output half after the
// tree has run.
type tickContext struct {
	now      float64
	dt       float32
	navmesh  *nav.Navmesh
	scene    scene.Scene
	targets  []TargetDescriptor
	pois     []mgl32.Vec3
	commands *message.Queue

	moving      bool
	attacking   bool
	aiming      bool
	screaming   bool
	attackIndex uint32
	moveDir     mgl32.Vec3
}

// newTree builds the combat decision tree. Branch order is priority order:
// dying wins over fighting, fighting over wandering. Within the fight
// branch, an armed bot keeps shooting distance while a disarmed or dry one
// closes to melee.
func newTree(b *Bot) bt.Node {
	return bt.New(
		bt.Selector,
		bt.New(
			bt.Sequence,
			bt.New(b.isDead),
			bt.New(b.stayDead),
		),
		bt.New(
			bt.Sequence,
			bt.New(b.findTarget),
			bt.New(b.aimAtTarget),
			bt.New(
				bt.Selector,
				bt.New(
					bt.Sequence,
					bt.New(b.needsThreaten),
					bt.New(b.threaten),
				),
				bt.New(
					bt.Sequence,
					bt.New(b.canShoot),
					bt.New(b.moveToTarget(b.definition.ShootDistance)),
					bt.New(b.shoot),
				),
				bt.New(
					bt.Sequence,
					bt.New(b.moveToTarget(b.definition.CloseCombatDistance)),
					bt.New(b.canMelee),
					bt.New(b.melee),
				),
			),
		),
		bt.New(b.moveToPOI),
	)
}

func (b *Bot) isDead(children []bt.Node) (bt.Status, error) {
	if b.character.IsDead() {
		return bt.Success, nil
	}
	return bt.Failure, nil
}

// stayDead spills the inventory once, shuts the attack clips down and
// plays the death animation out.
func (b *Bot) stayDead(children []bt.Node) (bt.Status, error) {
	if !b.droppedItems {
		b.droppedItems = true
		for _, entry := range b.character.Inventory.Items() {
			if entry.Amount > 0 {
				b.ctx.commands.Push(message.DropItems{
					Actor: b.self,
					Kind:  entry.Kind,
					Count: entry.Amount,
				})
			}
		}
		b.upperBody.DisableAttacks()
		b.lowerBody.EnableDying()
		b.upperBody.EnableDying()
	}
	b.hasTarget = false
	return bt.Success, nil
}

// findTarget keeps the current target while it stays valid and picks the
// nearest hostile otherwise. No target fails the fight branch and drops
// through to wandering.
func (b *Bot) findTarget(children []bt.Node) (bt.Status, error) {
	if b.hasTarget {
		for _, desc := range b.ctx.targets {
			if desc.Handle == b.target.Handle && desc.Health > 0 {
				b.target.Position = desc.Position
				return bt.Success, nil
			}
		}
		b.hasTarget = false
	}
	target, ok := selectTarget(
		b.self, b.character.Position, b.character.LookDir, b.character.Collider,
		b.kind, b.definition.Hostility, b.ctx.scene, b.ctx.targets,
	)
	if !ok {
		return bt.Failure, nil
	}
	b.target = target
	b.hasTarget = true
	return bt.Success, nil
}

// aimAtTarget turns the bot toward its target on the ground plane.
func (b *Bot) aimAtTarget(children []bt.Node) (bt.Status, error) {
	dir := b.target.Position.Sub(b.character.Position)
	dir[1] = 0
	if dir.Len() > 1e-4 {
		b.character.LookDir = dir.Normalize()
	}
	if b.definition.CanUseWeapons && b.character.CurrentWeapon() != nil {
		b.ctx.aiming = true
	}
	return bt.Success, nil
}

func (b *Bot) needsThreaten(children []bt.Node) (bt.Status, error) {
	if b.screamTimer > 0 || b.threatenTimeout <= 0 {
		return bt.Success, nil
	}
	return bt.Failure, nil
}

// threaten holds the bot in a scream display, then arms a long random
// cooldown so the display stays rare.
func (b *Bot) threaten(children []bt.Node) (bt.Status, error) {
	if b.screamTimer <= 0 {
		b.screamTimer = screamDuration
		b.threatenTimeout = threatenMin + b.rng.Float64()*(threatenMax-threatenMin)
		if len(b.definition.ScreamSounds) > 0 {
			b.ctx.commands.Push(message.PlaySound{
				Path:     b.definition.ScreamSounds[b.rng.Intn(len(b.definition.ScreamSounds))],
				Position: b.character.Position,
			})
		}
	}
	b.ctx.screaming = true
	if b.screamTimer > 0 {
		return bt.Running, nil
	}
	return bt.Success, nil
}

// canShoot gates the ranged branch: the bot must be able to hold weapons,
// actually hold one, and not be reeling from a hit.
func (b *Bot) canShoot(children []bt.Node) (bt.Status, error) {
	if !b.definition.CanUseWeapons || b.character.CurrentWeapon() == nil {
		return bt.Failure, nil
	}
	if b.restorationTime > 0 {
		return bt.Failure, nil
	}
	return bt.Success, nil
}

// moveToTarget walks the navmesh toward the current target until within
// minDistance. Running while walking, Success on arrival.
func (b *Bot) moveToTarget(minDistance float32) bt.Tick {
	return func(children []bt.Node) (bt.Status, error) {
		delta := b.target.Position.Sub(b.character.Position)
		delta[1] = 0
		if delta.Len() <= minDistance {
			return bt.Success, nil
		}
		b.follower.RebuildIfDue(b.character.Position, b.target.Position, b.ctx.navmesh, b.ctx.now)
		point, ok := b.follower.AdvanceCursor(b.character.Position)
		if !ok {
			return bt.Running, nil
		}
		b.steerToward(point)
		return bt.Running, nil
	}
}

// shoot fires the held weapon at the target. Running rides out the shot
// cooldown; an empty inventory fails so the melee branch takes over.
func (b *Bot) shoot(children []bt.Node) (bt.Status, error) {
	held := b.character.CurrentWeapon()
	if held == nil {
		return bt.Failure, nil
	}
	if !held.CanShoot(b.ctx.now) {
		return bt.Running, nil
	}
	def := held.Definition()
	if b.character.Inventory.TryExtractExact(item.Ammo, def.AmmoPerShot) == 0 {
		return bt.Failure, nil
	}
	held.Shot(b.ctx.now)
	origin := b.character.Position.Add(mgl32.Vec3{0, eyeHeight, 0})
	dir := b.target.Position.Sub(origin)
	if dir.Len() > 1e-4 {
		dir = dir.Normalize()
	}
	b.ctx.commands.Push(message.ShootWeapon{
		Actor:  b.self,
		Weapon: held.Kind,
		Origin: origin,
		Dir:    dir,
	})
	return bt.Success, nil
}

func (b *Bot) canMelee(children []bt.Node) (bt.Status, error) {
	if b.restorationTime > 0 {
		return bt.Failure, nil
	}
	return bt.Success, nil
}

// melee runs one randomly chosen attack animation and lands its damage on
// the clip's hit signal, not when the swing starts. The signal was queued
// by the previous tick's machine evaluation.
func (b *Bot) melee(children []bt.Node) (bt.Status, error) {
	if !b.meleeActive {
		b.meleeActive = true
		b.meleeIndex = b.rng.Intn(b.upperBody.AttackCount())
		atk := b.definition.Attacks[b.meleeIndex]
		b.upperBody.AttackClip(b.meleeIndex).Rewind().SetSpeed(atk.Speed).SetEnabled(true)
		if len(b.definition.AttackSounds) > 0 {
			b.ctx.commands.Push(message.PlaySound{
				Path:     b.definition.AttackSounds[b.rng.Intn(len(b.definition.AttackSounds))],
				Position: b.character.Position,
			})
		}
	}

	b.ctx.attacking = true
	b.ctx.attackIndex = uint32(b.meleeIndex)

	for _, sig := range b.upperBody.DrainHitSignals(b.meleeIndex) {
		if sig.ID != HitSignal || !b.hasTarget {
			continue
		}
		if b.target.Position.Sub(b.character.Position).Len() > b.definition.CloseCombatDistance+meleeReach {
			continue
		}
		b.ctx.commands.Push(message.ApplyDamage{
			Actor:  b.target.Handle,
			Who:    b.self,
			Amount: b.definition.Attacks[b.meleeIndex].Damage,
		})
	}

	if b.upperBody.AttackClip(b.meleeIndex).HasEnded() {
		b.upperBody.AttackClip(b.meleeIndex).SetEnabled(false)
		b.meleeActive = false
		return bt.Success, nil
	}
	return bt.Running, nil
}

// meleeReach is the slack beyond close-combat distance within which a hit
// still lands; the target may back off mid-swing.
const meleeReach = 0.75

// moveToPOI wanders toward a point of interest, re-picked at a bounded
// cadence from the level's uncollected items (or the navmesh when the
// level is bare).
func (b *Bot) moveToPOI(children []bt.Node) (bt.Status, error) {
	if !b.hasPOI || b.ctx.now-b.lastPOIRefresh >= poiRefreshInterval {
		b.lastPOIRefresh = b.ctx.now
		if poi, ok := b.pickPOI(); ok {
			b.poi = poi
			b.hasPOI = true
		}
	}
	if !b.hasPOI {
		return bt.Running, nil
	}
	delta := b.poi.Sub(b.character.Position)
	delta[1] = 0
	if delta.Len() <= nav.DefaultArrivalRadius {
		b.hasPOI = false
		return bt.Running, nil
	}
	b.follower.RebuildIfDue(b.character.Position, b.poi, b.ctx.navmesh, b.ctx.now)
	if point, ok := b.follower.AdvanceCursor(b.character.Position); ok {
		b.steerToward(point)
	}
	return bt.Running, nil
}

func (b *Bot) pickPOI() (mgl32.Vec3, bool) {
	if n := len(b.ctx.pois); n > 0 {
		return b.ctx.pois[b.rng.Intn(n)], true
	}
	if b.ctx.navmesh != nil {
		if v, ok := b.ctx.navmesh.RandomVertex(b.rng); ok {
			return v, true
		}
	}
	return mgl32.Vec3{}, false
}

// steerToward records the walk direction for this tick; Update turns it
// into velocity with speed smoothing applied.
func (b *Bot) steerToward(point mgl32.Vec3) {
	dir := point.Sub(b.character.Position)
	dir[1] = 0
	if dir.Len() <= 1e-4 {
		return
	}
	dir = dir.Normalize()
	b.ctx.moveDir = dir
	b.ctx.moving = true
	b.character.LookDir = dir
}
