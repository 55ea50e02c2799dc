// Package defs embeds and loads the authored content definitions: bot
// tuning, machine definitions and behavior scripts. Files on disk under
// defs/ shadow the embedded copies so content can be edited without
// rebuilding.
package defs

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/shooter/animation"
	"github.com/milk9111/shooter/bot"
)

//go:embed *.yaml
var DefsFS embed.FS

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// Load reads a definition file, preferring the on-disk copy.
func Load(name string) ([]byte, error) {
	clean := cleanPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return DefsFS.ReadFile(clean)
}

// LoadScript reads a behavior script by name.
func LoadScript(name string) ([]byte, error) {
	return ScriptsFS.ReadFile(cleanScriptPath(name))
}

// ModTime reports the on-disk modification time of a definition, if the
// file exists outside the embedded copy.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPath(cleanPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// LoadSpec unmarshals a YAML definition file into T.
func LoadSpec[T any](name string) (T, error) {
	var out T
	data, err := Load(name)
	if err != nil {
		return out, fmt.Errorf("defs: load %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("defs: unmarshal %s: %w", name, err)
	}
	return out, nil
}

// LoadBotDefinitions loads and validates the bot tuning set.
func LoadBotDefinitions() (bot.Definitions, error) {
	data, err := Load("bots.yaml")
	if err != nil {
		return bot.Definitions{}, fmt.Errorf("defs: load bots.yaml: %w", err)
	}
	return bot.ParseDefinitions(data)
}

// machineCache holds parsed machine definitions so repeated bot spawns
// don't re-read and re-parse the same files. The watcher evicts entries
// when their on-disk copies change.
var machineCache = struct {
	sync.Mutex
	defs map[string]animation.MachineDef
}{defs: map[string]animation.MachineDef{}}

// Invalidate drops the cached parse of a definition so the next load
// re-reads it from disk. Unknown names are a no-op.
func Invalidate(name string) {
	machineCache.Lock()
	delete(machineCache.defs, name)
	machineCache.Unlock()
}

// Source resolves machine definitions and scripts for bot construction.
type Source struct{}

// MachineDef loads and parses the machine definition with the given name.
func (Source) MachineDef(name string) (animation.MachineDef, error) {
	machineCache.Lock()
	cached, ok := machineCache.defs[name]
	machineCache.Unlock()
	if ok {
		return cached, nil
	}

	data, err := Load(name + ".yaml")
	if err != nil {
		return animation.MachineDef{}, fmt.Errorf("defs: machine %s: %w", name, err)
	}
	def, err := animation.ParseMachineDef(data)
	if err != nil {
		return animation.MachineDef{}, err
	}

	machineCache.Lock()
	machineCache.defs[name] = def
	machineCache.Unlock()
	return def, nil
}

// Script loads the behavior script with the given name.
func (Source) Script(name string) ([]byte, error) {
	return LoadScript(name)
}

func cleanPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	return strings.TrimPrefix(s, "defs/")
}

func cleanScriptPath(path string) string {
	s := cleanPath(path)
	if !strings.HasPrefix(s, "scripts/") {
		s = "scripts/" + s
	}
	if !strings.HasSuffix(s, ".tengo") {
		s += ".tengo"
	}
	return s
}

func diskPath(clean string) string {
	return filepath.Join("defs", filepath.FromSlash(clean))
}
