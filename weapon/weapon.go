// Package weapon holds weapon kinds, their static definitions and shot
// cooldown tracking. Projectile flight and hit resolution live with the
// host engine; this package only decides whether a shot may be requested.
package weapon

import (
	"fmt"

	"github.com/milk9111/shooter/arena"
)

// Kind enumerates the weapon roster.
type Kind uint32

const (
	Glock Kind = iota
	AK47
	M4
	PlasmaRifle
	RailGun
)

func (k Kind) String() string {
	switch k {
	case Glock:
		return "glock"
	case AK47:
		return "ak47"
	case M4:
		return "m4"
	case PlasmaRifle:
		return "plasma_rifle"
	case RailGun:
		return "rail_gun"
	default:
		return fmt.Sprintf("weapon(%d)", uint32(k))
	}
}

// Definition is the static tuning of one weapon kind.
type Definition struct {
	ShootInterval float64
	AmmoPerShot   int
	Damage        float32
}

var definitions = map[Kind]Definition{
	Glock:       {ShootInterval: 0.5, AmmoPerShot: 1, Damage: 15},
	AK47:        {ShootInterval: 0.15, AmmoPerShot: 1, Damage: 17},
	M4:          {ShootInterval: 0.12, AmmoPerShot: 1, Damage: 15},
	PlasmaRifle: {ShootInterval: 0.25, AmmoPerShot: 1, Damage: 20},
	RailGun:     {ShootInterval: 1.5, AmmoPerShot: 4, Damage: 60},
}

// GetDefinition looks up the static definition for a kind. Unknown kinds
// are a content bug and panic at load time.
func GetDefinition(kind Kind) Definition {
	def, ok := definitions[kind]
	if !ok {
		panic(fmt.Sprintf("weapon: no definition for kind %d", uint32(kind)))
	}
	return def
}

// Weapon is one weapon instance held by an actor.
type Weapon struct {
	Kind  Kind
	Owner arena.Handle

	lastShot float64
	hasShot  bool
}

// New creates a weapon of the given kind.
func New(kind Kind, owner arena.Handle) Weapon {
	GetDefinition(kind)
	return Weapon{Kind: kind, Owner: owner}
}

// Definition returns the weapon's static tuning.
func (w *Weapon) Definition() Definition { return GetDefinition(w.Kind) }

// CanShoot reports whether the shot cooldown has elapsed at the given
// simulation time.
func (w *Weapon) CanShoot(now float64) bool {
	return !w.hasShot || now-w.lastShot >= GetDefinition(w.Kind).ShootInterval
}

// Shot records a fired shot at the given simulation time.
func (w *Weapon) Shot(now float64) {
	w.lastShot = now
	w.hasShot = true
}

// LastShot returns the time of the previous shot for snapshots.
func (w *Weapon) LastShot() (float64, bool) { return w.lastShot, w.hasShot }

// RestoreLastShot rewinds cooldown state when loading a snapshot.
func (w *Weapon) RestoreLastShot(at float64, has bool) {
	w.lastShot = at
	w.hasShot = has
}
