package persist_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/bot"
	"github.com/milk9111/shooter/defs"
	"github.com/milk9111/shooter/game"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/nav"
	"github.com/milk9111/shooter/persist"
	"github.com/milk9111/shooter/scene"
	"github.com/milk9111/shooter/weapon"
)

func newLevel(t *testing.T) *game.Level {
	t.Helper()
	botDefs, err := defs.LoadBotDefinitions()
	if err != nil {
		t.Fatalf("loading bot definitions: %v", err)
	}

	sc := scene.NewStaticScene()
	sc.AddBox(mgl32.Vec3{-20, -1, -20}, mgl32.Vec3{20, 0, 20})

	var vertices []mgl32.Vec3
	var edges [][2]int32
	for i := 0; i < 21; i++ {
		vertices = append(vertices, mgl32.Vec3{0, 0, float32(i - 10)})
		if i > 0 {
			edges = append(edges, [2]int32{int32(i - 1), int32(i)})
		}
	}
	nm := nav.NewNavmesh(vertices, edges)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return game.NewLevel(log, sc, nm, botDefs, defs.Source{})
}

func collectBots(l *game.Level) []*bot.Bot {
	var out []*bot.Bot
	l.Actors().ForEach(func(_ arena.Handle, a *game.Actor) {
		if a.Bot != nil {
			out = append(out, a.Bot)
		}
	})
	return out
}

func TestSnapshotRoundTrip(t *testing.T) {
	l1 := newLevel(t)

	h := l1.AddPlayer(mgl32.Vec3{0, 0.5, 8}, 100)
	p1 := l1.Player()
	p1.Character().AddWeapon(weapon.Glock, h)
	p1.Character().Inventory.Add(item.Ammo, 30)
	p1.Character().CurrentWeapon().Shot(0.5)

	if _, _, err := l1.RestoreBot(bot.Parasite, mgl32.Vec3{0, 0.5, 0}); err != nil {
		t.Fatalf("restore bot: %v", err)
	}
	if _, _, err := l1.RestoreBot(bot.Mutant, mgl32.Vec3{0, 0.5, 3}); err != nil {
		t.Fatalf("restore bot: %v", err)
	}
	l1.AddItem(item.Medkit, mgl32.Vec3{5, 0.5, 5})

	for i := 0; i < 60; i++ {
		if err := l1.Update(); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	snap := persist.Capture(l1)
	data, err := persist.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := persist.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	l2 := newLevel(t)
	if err := persist.Restore(decoded, l2); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if l2.Clock() != l1.Clock() || l2.Tick() != l1.Tick() {
		t.Fatalf("clock/tick = %v/%v, want %v/%v", l2.Clock(), l2.Tick(), l1.Clock(), l1.Tick())
	}
	if l2.Actors().Len() != l1.Actors().Len() {
		t.Fatalf("actor count = %d, want %d", l2.Actors().Len(), l1.Actors().Len())
	}

	p2 := l2.Player()
	if p2 == nil {
		t.Fatalf("player did not survive the round trip")
	}
	if p2.Character().Health != p1.Character().Health {
		t.Fatalf("player health = %v, want %v", p2.Character().Health, p1.Character().Health)
	}
	if p2.Character().Position != p1.Character().Position {
		t.Fatalf("player position = %v, want %v", p2.Character().Position, p1.Character().Position)
	}
	if got := p2.Character().Inventory.Count(item.Ammo); got != p1.Character().Inventory.Count(item.Ammo) {
		t.Fatalf("player ammo = %d, want %d", got, p1.Character().Inventory.Count(item.Ammo))
	}
	held := p2.Character().CurrentWeapon()
	if held == nil || held.Kind != weapon.Glock {
		t.Fatalf("player weapon did not survive: %+v", held)
	}
	if last, has := held.LastShot(); !has || last != 0.5 {
		t.Fatalf("weapon cooldown = (%v, %v), want (0.5, true)", last, has)
	}
	if got, want := p2.LowerBody().ActiveStateName(), p1.LowerBody().ActiveStateName(); got != want {
		t.Fatalf("player lower-body state = %q, want %q", got, want)
	}

	// Bots come back in capture order with their machine states intact, and
	// stored target references resolve to live actors in the new arena.
	bots2 := collectBots(l2)
	if len(bots2) != len(decoded.Bots) {
		t.Fatalf("restored %d bots, want %d", len(bots2), len(decoded.Bots))
	}
	for i, bs := range decoded.Bots {
		b := bots2[i]
		if b.Kind().String() != bs.Kind {
			t.Fatalf("bot %d kind = %s, want %s", i, b.Kind(), bs.Kind)
		}
		if b.Character().Health != bs.Memento.Health {
			t.Fatalf("bot %d health = %v, want %v", i, b.Character().Health, bs.Memento.Health)
		}
		if target, ok := b.Target(); ok {
			if l2.Actors().Get(target.Handle) == nil {
				t.Fatalf("bot %d target was not remapped to a live actor", i)
			}
		}
	}

	items := l2.Items()
	if len(items) != 1 || items[0].Kind != item.Medkit {
		t.Fatalf("items did not survive the round trip: %+v", items)
	}
}

func TestSnapshotClearsUnresolvableTarget(t *testing.T) {
	l1 := newLevel(t)
	l1.AddPlayer(mgl32.Vec3{0, 0.5, 3}, 100)
	b1, _, err := l1.RestoreBot(bot.Parasite, mgl32.Vec3{0, 0.5, 0})
	if err != nil {
		t.Fatalf("restore bot: %v", err)
	}

	for i := 0; i < 10; i++ {
		if err := l1.Update(); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if _, ok := b1.Target(); !ok {
		t.Fatalf("bot never acquired the player")
	}

	snap := persist.Capture(l1)
	if len(snap.Bots) != 1 || !snap.Bots[0].Memento.HasTarget {
		t.Fatalf("snapshot lost the bot's target: %+v", snap.Bots)
	}

	// Drop the player from the snapshot; on load the dangling reference
	// must clear rather than point at whatever reuses the slot.
	snap.Player = nil

	l2 := newLevel(t)
	if err := persist.Restore(snap, l2); err != nil {
		t.Fatalf("restore: %v", err)
	}
	bots2 := collectBots(l2)
	if len(bots2) != 1 {
		t.Fatalf("restored %d bots, want 1", len(bots2))
	}
	if _, ok := bots2[0].Target(); ok {
		t.Fatalf("unresolvable target survived the restore")
	}
}

func TestSnapshotVersionMismatch(t *testing.T) {
	snap := &persist.Snapshot{Version: persist.Version + 1}
	data, err := persist.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := persist.Unmarshal(data); err == nil {
		t.Fatalf("expected a version error")
	}
}
