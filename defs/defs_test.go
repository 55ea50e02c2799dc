package defs

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/shooter/animation"
	"github.com/milk9111/shooter/bot"
)

func TestLoadBotDefinitions(t *testing.T) {
	botDefs, err := LoadBotDefinitions()
	if err != nil {
		t.Fatalf("LoadBotDefinitions failed: %v", err)
	}
	for _, kind := range []bot.Kind{bot.Mutant, bot.Parasite, bot.Zombie} {
		def := botDefs.Get(kind)
		if def.Health <= 0 || len(def.Attacks) == 0 {
			t.Fatalf("%s definition incomplete: %+v", kind, def)
		}
	}
}

// Every machine referenced from bots.yaml must load and compile; a broken
// reference here means bot construction fails at spawn time.
func TestEmbeddedMachinesCompile(t *testing.T) {
	botDefs, err := LoadBotDefinitions()
	if err != nil {
		t.Fatalf("LoadBotDefinitions failed: %v", err)
	}

	seen := map[string]bool{}
	for name, def := range botDefs.Kinds {
		for _, machine := range []string{def.Locomotion, def.Combat} {
			if seen[machine] {
				continue
			}
			seen[machine] = true
			t.Run(machine, func(t *testing.T) {
				machineDef, err := Source{}.MachineDef(machine)
				if err != nil {
					t.Fatalf("%s references unloadable machine %s: %v", name, machine, err)
				}
				if _, err := animation.Compile(machineDef); err != nil {
					t.Fatalf("machine %s does not compile: %v", machine, err)
				}
			})
		}
	}
}

func TestMachinesSatisfyBotLayers(t *testing.T) {
	botDefs, err := LoadBotDefinitions()
	if err != nil {
		t.Fatalf("LoadBotDefinitions failed: %v", err)
	}
	for name, def := range botDefs.Kinds {
		kind, err := bot.ParseKind(name)
		if err != nil {
			t.Fatalf("bad kind name %q: %v", name, err)
		}

		locomotion, err := Source{}.MachineDef(def.Locomotion)
		if err != nil {
			t.Fatalf("%s locomotion: %v", kind, err)
		}
		if _, err := bot.NewLowerBodyMachine(locomotion); err != nil {
			t.Fatalf("%s locomotion machine rejected: %v", kind, err)
		}

		combat, err := Source{}.MachineDef(def.Combat)
		if err != nil {
			t.Fatalf("%s combat: %v", kind, err)
		}
		if _, err := bot.NewUpperBodyMachine(combat, def.Attacks); err != nil {
			t.Fatalf("%s combat machine rejected: %v", kind, err)
		}
	}
}

func TestLocomotionStepSignalTiming(t *testing.T) {
	def, err := Source{}.MachineDef("bot_locomotion")
	if err != nil {
		t.Fatalf("MachineDef failed: %v", err)
	}
	for _, c := range def.Clips {
		if c.Name != "walk" {
			continue
		}
		if len(c.Signals) != 2 || c.Signals[0].Time != 0.3 || c.Signals[1].Time != 0.6 {
			t.Fatalf("walk step signals = %+v, want times 0.3 and 0.6", c.Signals)
		}
		return
	}
	t.Fatalf("bot_locomotion has no walk clip")
}

func TestMachineDefCacheInvalidation(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "defs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "defs", "crawler_locomotion.yaml")
	write := func(duration float32) {
		data := fmt.Sprintf(
			"name: crawler_locomotion\nentry: Idle\nclips:\n  - name: idle\n    duration: %v\n    loop: true\nnodes:\n  - name: play_idle\n    kind: play\n    clip: idle\nstates:\n  - name: Idle\n    node: play_idle\n",
			duration)
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("write definition: %v", err)
		}
	}

	write(1.0)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	def, err := Source{}.MachineDef("crawler_locomotion")
	if err != nil {
		t.Fatalf("MachineDef failed: %v", err)
	}
	if def.Clips[0].Duration != 1.0 {
		t.Fatalf("initial duration = %v, want 1.0", def.Clips[0].Duration)
	}

	// An edit alone is not visible; the parse is cached.
	write(2.5)
	def, err = Source{}.MachineDef("crawler_locomotion")
	if err != nil {
		t.Fatalf("MachineDef after edit failed: %v", err)
	}
	if def.Clips[0].Duration != 1.0 {
		t.Fatalf("cached duration = %v, want 1.0", def.Clips[0].Duration)
	}

	Invalidate("crawler_locomotion")
	def, err = Source{}.MachineDef("crawler_locomotion")
	if err != nil {
		t.Fatalf("MachineDef after invalidate failed: %v", err)
	}
	if def.Clips[0].Duration != 2.5 {
		t.Fatalf("reloaded duration = %v, want 2.5", def.Clips[0].Duration)
	}
}

func TestLoadScript(t *testing.T) {
	src, err := LoadScript("mutant")
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	if len(src) == 0 {
		t.Fatalf("mutant script is empty")
	}
	// Name variants resolve to the same embedded file.
	same, err := LoadScript("scripts/mutant.tengo")
	if err != nil {
		t.Fatalf("LoadScript with full path failed: %v", err)
	}
	if string(same) != string(src) {
		t.Fatalf("path variants loaded different scripts")
	}
}
