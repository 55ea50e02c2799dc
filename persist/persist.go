// Package persist saves and loads level state as versioned YAML. Machine
// state is stored by state/transition/clip name, and actor cross-references
// are remapped to the freshly issued handles on load; nothing serialized
// depends on raw indices that could shift between runs.
package persist

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/shooter/animation"
	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/bot"
	"github.com/milk9111/shooter/character"
	"github.com/milk9111/shooter/game"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/weapon"
)

// Version is the snapshot format version. Load rejects anything else.
const Version = 1

// Snapshot is a complete serializable level state.
type Snapshot struct {
	Version int     `yaml:"version"`
	Clock   float64 `yaml:"clock"`
	Tick    uint64  `yaml:"tick"`

	Player *PlayerState `yaml:"player,omitempty"`
	Bots   []BotState   `yaml:"bots"`
	Items  []ItemState  `yaml:"items"`
}

// HandleRef stores an arena handle for remapping on load.
type HandleRef struct {
	Index uint32 `yaml:"index"`
	Gen   uint32 `yaml:"gen"`
}

// WeaponState is one weapon's cooldown state.
type WeaponState struct {
	Kind     uint32  `yaml:"kind"`
	LastShot float64 `yaml:"last_shot"`
	HasShot  bool    `yaml:"has_shot"`
}

// InventoryState is one inventory stack.
type InventoryState struct {
	Kind   uint32 `yaml:"kind"`
	Amount int    `yaml:"amount"`
}

// PlayerState is the player's serializable slice.
type PlayerState struct {
	Handle    HandleRef              `yaml:"handle"`
	Position  [3]float32             `yaml:"position"`
	LookDir   [3]float32             `yaml:"look_dir"`
	Health    float32                `yaml:"health"`
	Stun      float64                `yaml:"stun"`
	Current   int                    `yaml:"current_weapon"`
	Weapons   []WeaponState          `yaml:"weapons"`
	Inventory []InventoryState       `yaml:"inventory"`
	LowerBody animation.MachineState `yaml:"lower_body"`
	UpperBody animation.MachineState `yaml:"upper_body"`
}

// BotState is one bot's serializable slice.
type BotState struct {
	Handle    HandleRef              `yaml:"handle"`
	Kind      string                 `yaml:"kind"`
	Memento   bot.Memento            `yaml:"memento"`
	Weapons   []WeaponState          `yaml:"weapons"`
	Inventory []InventoryState       `yaml:"inventory"`
	LowerBody animation.MachineState `yaml:"lower_body"`
	UpperBody animation.MachineState `yaml:"upper_body"`
}

// ItemState is one level pickup.
type ItemState struct {
	Kind      uint32     `yaml:"kind"`
	Position  [3]float32 `yaml:"position"`
	Collected bool       `yaml:"collected"`
}

// Capture snapshots a level.
func Capture(l *game.Level) *Snapshot {
	s := &Snapshot{
		Version: Version,
		Clock:   l.Clock(),
		Tick:    l.Tick(),
	}

	for _, it := range l.Items() {
		s.Items = append(s.Items, ItemState{
			Kind:      uint32(it.Kind),
			Position:  it.Position,
			Collected: it.Collected,
		})
	}

	l.Actors().ForEach(func(h arena.Handle, a *game.Actor) {
		switch {
		case a.Bot != nil:
			b := a.Bot
			c := b.Character()
			s.Bots = append(s.Bots, BotState{
				Handle:    HandleRef{Index: h.Index, Gen: h.Gen},
				Kind:      b.Kind().String(),
				Memento:   b.Snapshot(),
				Weapons:   captureWeapons(c.Weapons),
				Inventory: captureInventory(c.Inventory.Items()),
				LowerBody: b.LowerBody().Machine().Snapshot(),
				UpperBody: b.UpperBody().Machine().Snapshot(),
			})
		case a.Player != nil:
			p := a.Player
			c := p.Character()
			s.Player = &PlayerState{
				Handle:    HandleRef{Index: h.Index, Gen: h.Gen},
				Position:  c.Position,
				LookDir:   c.LookDir,
				Health:    c.Health,
				Stun:      p.StunTime(),
				Current:   c.Current,
				Weapons:   captureWeapons(c.Weapons),
				Inventory: captureInventory(c.Inventory.Items()),
				LowerBody: p.LowerBody().Snapshot(),
				UpperBody: p.UpperBody().Snapshot(),
			}
		}
	})

	return s
}

// Marshal encodes a snapshot to YAML.
func Marshal(s *Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("persist: marshal snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and version-checks a snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("persist: unmarshal snapshot: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("persist: unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// Restore rebuilds actors and items into a freshly created level. The
// level must carry the same definitions the snapshot was taken against;
// names that no longer resolve are an error, never silently dropped.
func Restore(s *Snapshot, l *game.Level) error {
	l.RestoreClock(s.Clock, s.Tick)

	for _, it := range s.Items {
		l.AddItem(item.Kind(it.Kind), it.Position)
		items := l.Items()
		items[len(items)-1].Collected = it.Collected
	}

	// Old handle -> new handle, for target remapping below.
	remap := make(map[HandleRef]arena.Handle)

	if s.Player != nil {
		p := l.Player()
		if p == nil {
			l.AddPlayer(s.Player.Position, s.Player.Health)
			p = l.Player()
		}
		c := p.Character()
		c.Position = s.Player.Position
		c.LookDir = s.Player.LookDir
		c.Health = s.Player.Health
		c.CommitHealth()
		p.RestoreStunTime(s.Player.Stun)
		restoreWeapons(c, p.Handle(), s.Player.Weapons)
		c.Current = s.Player.Current
		restoreInventory(c, s.Player.Inventory)
		if err := p.LowerBody().Restore(s.Player.LowerBody); err != nil {
			return err
		}
		if err := p.UpperBody().Restore(s.Player.UpperBody); err != nil {
			return err
		}
		remap[s.Player.Handle] = p.Handle()
	}

	restored := make([]*bot.Bot, 0, len(s.Bots))
	for _, bs := range s.Bots {
		kind, err := bot.ParseKind(bs.Kind)
		if err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		b, h, err := l.RestoreBot(kind, bs.Memento.Position)
		if err != nil {
			return fmt.Errorf("persist: restore bot %s: %w", bs.Kind, err)
		}
		remap[bs.Handle] = h

		c := b.Character()
		restoreWeapons(c, h, bs.Weapons)
		restoreInventory(c, bs.Inventory)
		if err := b.LowerBody().Machine().Restore(bs.LowerBody); err != nil {
			return err
		}
		if err := b.UpperBody().Machine().Restore(bs.UpperBody); err != nil {
			return err
		}
		restored = append(restored, b)
	}

	// Remap saved target references onto the new handles; a target that
	// didn't survive the snapshot is cleared, matching removal semantics.
	for i, bs := range s.Bots {
		m := bs.Memento
		if m.HasTarget {
			if nh, ok := remap[HandleRef{Index: m.TargetIndex, Gen: m.TargetGen}]; ok {
				m.TargetIndex = nh.Index
				m.TargetGen = nh.Gen
			} else {
				m.HasTarget = false
				m.TargetIndex = 0
				m.TargetGen = 0
			}
		}
		restored[i].RestoreSnapshot(m)
	}

	return nil
}

func captureWeapons(weapons []weapon.Weapon) []WeaponState {
	out := make([]WeaponState, 0, len(weapons))
	for i := range weapons {
		last, has := weapons[i].LastShot()
		out = append(out, WeaponState{
			Kind:     uint32(weapons[i].Kind),
			LastShot: last,
			HasShot:  has,
		})
	}
	return out
}

func captureInventory(entries []item.Entry) []InventoryState {
	out := make([]InventoryState, 0, len(entries))
	for _, e := range entries {
		out = append(out, InventoryState{Kind: uint32(e.Kind), Amount: e.Amount})
	}
	return out
}

func restoreWeapons(c *character.Character, owner arena.Handle, states []WeaponState) {
	c.Weapons = c.Weapons[:0]
	c.Current = -1
	for _, ws := range states {
		c.AddWeapon(weapon.Kind(ws.Kind), owner)
		c.Weapons[len(c.Weapons)-1].RestoreLastShot(ws.LastShot, ws.HasShot)
	}
}

func restoreInventory(c *character.Character, states []InventoryState) {
	c.Inventory = item.NewInventory()
	for _, is := range states {
		c.Inventory.Add(item.Kind(is.Kind), is.Amount)
	}
}
