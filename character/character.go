// Package character holds the capability set shared by every actor kind.
// Bots and players embed Character and diverge only in update logic.
package character

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/weapon"
)

// Character is the health/position/inventory/weapons core shared by bots
// and the player.
type Character struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	// LookDir is the facing direction, unit length on the XZ plane.
	LookDir mgl32.Vec3

	Health     float32
	lastHealth float32

	Inventory item.Inventory
	Weapons   []weapon.Weapon
	Current   int

	// Collider identifies this actor's body to the scene collaborator.
	Collider uint64
}

// New creates a character at a position with full health.
func New(position mgl32.Vec3, health float32, collider uint64) Character {
	return Character{
		Position:   position,
		LookDir:    mgl32.Vec3{0, 0, 1},
		Health:     health,
		lastHealth: health,
		Current:    -1,
		Collider:   collider,
	}
}

// IsDead reports whether health has run out.
func (c *Character) IsDead() bool { return c.Health <= 0 }

// Damage applies damage; health floors at zero.
func (c *Character) Damage(amount float32) {
	c.Health -= amount
	if c.Health < 0 {
		c.Health = 0
	}
}

// RecentDamage returns how much health was lost since the last call to
// CommitHealth. The combat loop uses this delta to force hit reactions.
func (c *Character) RecentDamage() float32 {
	if d := c.lastHealth - c.Health; d > 0 {
		return d
	}
	return 0
}

// CommitHealth marks the current health as seen; called once per tick
// after the damage delta has been consumed.
func (c *Character) CommitHealth() { c.lastHealth = c.Health }

// AddWeapon appends a weapon and selects it if nothing is held.
func (c *Character) AddWeapon(kind weapon.Kind, owner arena.Handle) {
	c.Weapons = append(c.Weapons, weapon.New(kind, owner))
	if c.Current < 0 {
		c.Current = len(c.Weapons) - 1
	}
}

// CurrentWeapon returns the held weapon, or nil when unarmed.
func (c *Character) CurrentWeapon() *weapon.Weapon {
	if c.Current < 0 || c.Current >= len(c.Weapons) {
		return nil
	}
	return &c.Weapons[c.Current]
}
