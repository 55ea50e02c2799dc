// Command simview runs the simulation headless: a small arena level, a
// handful of bots and a scripted player, stepped at the fixed tick rate.
// State can be streamed to websocket subscribers for inspection, and
// definition edits under defs/ are picked up while it runs.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/bot"
	"github.com/milk9111/shooter/defs"
	"github.com/milk9111/shooter/game"
	"github.com/milk9111/shooter/item"
	"github.com/milk9111/shooter/message"
	"github.com/milk9111/shooter/nav"
	"github.com/milk9111/shooter/persist"
	"github.com/milk9111/shooter/scene"
	"github.com/milk9111/shooter/weapon"
)

func main() {
	addr := flag.String("addr", ":8080", "websocket listen address; empty disables streaming")
	ticks := flag.Int("ticks", 0, "number of ticks to run; 0 runs until interrupted")
	loadPath := flag.String("load", "", "snapshot file to load")
	savePath := flag.String("save", "", "snapshot file to write on exit")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	botDefs, err := defs.LoadBotDefinitions()
	if err != nil {
		log.WithError(err).Fatal("loading bot definitions")
	}

	sc := buildScene()
	level := game.NewLevel(log, sc, buildNavmesh(), botDefs, defs.Source{})

	if *loadPath != "" {
		data, err := os.ReadFile(*loadPath)
		if err != nil {
			log.WithError(err).Fatal("reading snapshot")
		}
		snap, err := persist.Unmarshal(data)
		if err != nil {
			log.WithError(err).Fatal("decoding snapshot")
		}
		if err := persist.Restore(snap, level); err != nil {
			log.WithError(err).Fatal("restoring snapshot")
		}
		log.WithField("tick", level.Tick()).Info("snapshot restored")
	} else {
		populate(level)
	}

	hub := newHub(log)
	if *addr != "" {
		go serve(log, hub, *addr)
	}

	if w, err := defs.NewWatcher("defs"); err == nil {
		defer w.Close()
		go func() {
			for name := range w.Changed {
				log.WithField("definition", name).Info("definition reloaded; applies to newly spawned bots")
			}
		}()
	}

	runLoop(log, level, hub, *ticks)

	if *savePath != "" {
		data, err := persist.Marshal(persist.Capture(level))
		if err != nil {
			log.WithError(err).Fatal("encoding snapshot")
		}
		if err := os.WriteFile(*savePath, data, 0o644); err != nil {
			log.WithError(err).Fatal("writing snapshot")
		}
		log.WithField("path", *savePath).Info("snapshot saved")
	}
}

func buildScene() *scene.StaticScene {
	sc := scene.NewStaticScene()
	sc.AddBox(mgl32.Vec3{-20, -1, -20}, mgl32.Vec3{20, 0, 20})   // floor
	sc.AddBox(mgl32.Vec3{-20, 0, -20.5}, mgl32.Vec3{20, 4, -20}) // walls
	sc.AddBox(mgl32.Vec3{-20, 0, 20}, mgl32.Vec3{20, 4, 20.5})
	sc.AddBox(mgl32.Vec3{-20.5, 0, -20}, mgl32.Vec3{-20, 4, 20})
	sc.AddBox(mgl32.Vec3{20, 0, -20}, mgl32.Vec3{20.5, 4, 20})
	sc.AddBox(mgl32.Vec3{-2, 0, -6}, mgl32.Vec3{2, 3, -5}) // interior cover
	return sc
}

// buildNavmesh lays a 4-connected grid over the walkable floor.
func buildNavmesh() *nav.Navmesh {
	const (
		half    = 18
		spacing = 2
	)
	side := half*2/spacing + 1
	vertices := make([]mgl32.Vec3, 0, side*side)
	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			vertices = append(vertices, mgl32.Vec3{
				float32(-half + x*spacing), 0, float32(-half + z*spacing),
			})
		}
	}
	var edges [][2]int32
	for z := 0; z < side; z++ {
		for x := 0; x < side; x++ {
			i := int32(z*side + x)
			if x+1 < side {
				edges = append(edges, [2]int32{i, i + 1})
			}
			if z+1 < side {
				edges = append(edges, [2]int32{i, i + int32(side)})
			}
		}
	}
	return nav.NewNavmesh(vertices, edges)
}

func populate(level *game.Level) {
	h := level.AddPlayer(mgl32.Vec3{0, 0.5, 10}, 150)
	if p := level.Player(); p != nil {
		p.Character().AddWeapon(weapon.Glock, h)
		p.Character().Inventory.Add(item.Ammo, 60)
	}

	level.SpawnBot(bot.Mutant, mgl32.Vec3{-10, 0.5, -10})
	level.SpawnBot(bot.Parasite, mgl32.Vec3{10, 0.5, -12})
	level.SpawnBot(bot.Zombie, mgl32.Vec3{0, 0.5, -14})

	level.AddItem(item.Medkit, mgl32.Vec3{6, 0.5, 4})
	level.AddItem(item.Ammo, mgl32.Vec3{-6, 0.5, 4})
	level.AddItem(item.AK47Item, mgl32.Vec3{0, 0.5, -2})
}

func runLoop(log *logrus.Logger, level *game.Level, hub *hub, maxTicks int) {
	tickInterval := float64(time.Second) * game.TickRate
	ticker := time.NewTicker(time.Duration(tickInterval))
	defer ticker.Stop()

	for range ticker.C {
		if err := level.Update(); err != nil {
			log.WithError(err).Error("tick failed")
		}

		for _, cmd := range level.DrainCommands() {
			switch cmd := cmd.(type) {
			case message.ShootWeapon:
				resolveShot(level, cmd)
				log.WithField("weapon", cmd.Weapon.String()).Debug("shot fired")
			case message.PlaySound:
				log.WithField("path", cmd.Path).Debug("sound")
			case message.SpawnProjectile:
				log.Debug("projectile spawned")
			}
		}

		if level.Tick()%6 == 0 {
			hub.broadcast(snapshotJSON(level))
		}
		if maxTicks > 0 && level.Tick() >= uint64(maxTicks) {
			return
		}
	}
}

// resolveShot plays the host engine's part: a hitscan ray against the
// scene, damaging the first actor body it reaches.
func resolveShot(level *game.Level, cmd message.ShootWeapon) {
	def := weapon.GetDefinition(cmd.Weapon)
	shooterCollider := uint64(0)
	if shooter := level.Actors().Get(cmd.Actor); shooter != nil && shooter.Character() != nil {
		shooterCollider = shooter.Character().Collider
	}
	for _, hit := range level.Scene().CastRay(cmd.Origin, cmd.Dir, 100) {
		if hit.Shape != scene.ShapeCapsule {
			return // wall soaked the shot
		}
		if hit.Owner == shooterCollider {
			continue
		}
		if target, ok := actorByCollider(level, hit.Owner); ok {
			level.Notify(message.ActorDamaged{Actor: target, Who: cmd.Actor, Amount: def.Damage})
		}
		return
	}
}

func actorByCollider(level *game.Level, collider uint64) (arena.Handle, bool) {
	var found arena.Handle
	ok := false
	level.Actors().ForEach(func(h arena.Handle, a *game.Actor) {
		if c := a.Character(); c != nil && c.Collider == collider {
			found = h
			ok = true
		}
	})
	return found, ok
}

type wireActor struct {
	Kind     string     `json:"kind"`
	Position [3]float32 `json:"position"`
	Health   float32    `json:"health"`
}

type wireState struct {
	Tick   uint64      `json:"tick"`
	Clock  float64     `json:"clock"`
	Actors []wireActor `json:"actors"`
}

func snapshotJSON(level *game.Level) []byte {
	state := wireState{Tick: level.Tick(), Clock: level.Clock()}
	level.Actors().ForEach(func(_ arena.Handle, a *game.Actor) {
		c := a.Character()
		if c == nil {
			return
		}
		kind := "player"
		if a.Bot != nil {
			kind = a.Bot.Kind().String()
		}
		state.Actors = append(state.Actors, wireActor{
			Kind:     kind,
			Position: c.Position,
			Health:   c.Health,
		})
	})
	data, _ := json.Marshal(state)
	return data
}

type hub struct {
	log  *logrus.Logger
	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

func newHub(log *logrus.Logger) *hub {
	return &hub{log: log, subs: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.subs[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.subs, conn)
			_ = conn.Close()
		}
	}
}

func serve(log *logrus.Logger, h *hub, addr string) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		h.add(conn)
	})
	log.WithField("addr", addr).Info("streaming state")
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.WithError(err).Error("http server stopped")
	}
}
