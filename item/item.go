// Package item holds pickup kinds and level items. Uncollected items
// double as points of interest for bots with nothing to fight.
package item

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/shooter/weapon"
)

// Kind enumerates pickup kinds.
type Kind uint32

const (
	Medkit Kind = iota
	Medpack
	Ammo
	GlockItem
	AK47Item
	M4Item
	PlasmaRifleItem
	RailGunItem
)

// AssociatedWeapon returns the weapon granted by picking this item up, if
// any.
func (k Kind) AssociatedWeapon() (weapon.Kind, bool) {
	switch k {
	case GlockItem:
		return weapon.Glock, true
	case AK47Item:
		return weapon.AK47, true
	case M4Item:
		return weapon.M4, true
	case PlasmaRifleItem:
		return weapon.PlasmaRifle, true
	case RailGunItem:
		return weapon.RailGun, true
	default:
		return 0, false
	}
}

// Item is one pickup placed in the level.
type Item struct {
	Kind      Kind
	Position  mgl32.Vec3
	Collected bool
}

// Entry is an inventory stack.
type Entry struct {
	Kind   Kind
	Amount int
}

// Inventory is the item stacks carried by an actor.
type Inventory struct {
	entries []Entry
}

// NewInventory creates an inventory from initial stacks.
func NewInventory(entries ...Entry) Inventory {
	return Inventory{entries: entries}
}

// Items returns the current stacks. Callers must not mutate them.
func (inv *Inventory) Items() []Entry { return inv.entries }

// Count returns how many items of the kind are carried.
func (inv *Inventory) Count(kind Kind) int {
	for _, e := range inv.entries {
		if e.Kind == kind {
			return e.Amount
		}
	}
	return 0
}

// Add stores count items of the kind.
func (inv *Inventory) Add(kind Kind, count int) {
	if count <= 0 {
		return
	}
	for i := range inv.entries {
		if inv.entries[i].Kind == kind {
			inv.entries[i].Amount += count
			return
		}
	}
	inv.entries = append(inv.entries, Entry{Kind: kind, Amount: count})
}

// TryExtractExact removes exactly count items of the kind, or nothing.
// Returns how many were removed (count or zero).
func (inv *Inventory) TryExtractExact(kind Kind, count int) int {
	for i := range inv.entries {
		e := &inv.entries[i]
		if e.Kind == kind && e.Amount >= count {
			e.Amount -= count
			return count
		}
	}
	return 0
}

// HasWeaponItem reports whether any carried stack grants a weapon.
func (inv *Inventory) HasWeaponItem() bool {
	for _, e := range inv.entries {
		if _, ok := e.Kind.AssociatedWeapon(); ok && e.Amount > 0 {
			return true
		}
	}
	return false
}
