package bot

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/shooter/animation"
)

// Kind enumerates bot species.
type Kind uint32

const (
	Mutant Kind = iota
	Parasite
	Zombie
)

func (k Kind) String() string {
	switch k {
	case Mutant:
		return "mutant"
	case Parasite:
		return "parasite"
	case Zombie:
		return "zombie"
	default:
		return fmt.Sprintf("bot(%d)", uint32(k))
	}
}

// ParseKind resolves a kind name from definitions.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "mutant":
		return Mutant, nil
	case "parasite":
		return Parasite, nil
	case "zombie":
		return Zombie, nil
	default:
		return 0, fmt.Errorf("bot: unknown kind %q", name)
	}
}

// Hostility controls which actors a bot will pick as targets.
type Hostility uint32

const (
	HostileToEveryone Hostility = iota
	HostileToOtherSpecies
	HostileToPlayer
)

// UnmarshalYAML accepts the hostility names used in bots.yaml.
func (h *Hostility) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "everyone":
		*h = HostileToEveryone
	case "other_species":
		*h = HostileToOtherSpecies
	case "player":
		*h = HostileToPlayer
	default:
		return fmt.Errorf("bot: unknown hostility %q", s)
	}
	return nil
}

// AttackDef tunes one melee attack animation: which combat-machine clip it
// plays, when inside the clip the hit lands, and what it costs the victim.
type AttackDef struct {
	Clip    string  `yaml:"clip"`
	HitTime float32 `yaml:"hit_time"`
	Damage  float32 `yaml:"damage"`
	Speed   float32 `yaml:"speed"`
}

// Definition is the static tuning of one bot kind, loaded from YAML at
// startup.
type Definition struct {
	Health              float32   `yaml:"health"`
	WalkSpeed           float32   `yaml:"walk_speed"`
	CanUseWeapons       bool      `yaml:"can_use_weapons"`
	CloseCombatDistance float32   `yaml:"close_combat_distance"`
	ShootDistance       float32   `yaml:"shoot_distance"`
	Hostility           Hostility `yaml:"hostility"`

	// StunDamageThreshold is the health drop within one tick that forces a
	// hit reaction; RestorationTime is how long the reaction suppresses
	// attacks.
	StunDamageThreshold float32 `yaml:"stun_damage_threshold"`
	RestorationTime     float32 `yaml:"restoration_time"`

	Attacks []AttackDef `yaml:"attacks"`

	PainSounds   []string `yaml:"pain_sounds"`
	ScreamSounds []string `yaml:"scream_sounds"`
	AttackSounds []string `yaml:"attack_sounds"`

	// Locomotion and Combat name the machine definition files for this
	// kind. Script optionally names a tengo behavior hook.
	Locomotion string `yaml:"locomotion"`
	Combat     string `yaml:"combat"`
	Script     string `yaml:"script"`
}

// Definitions maps kind names to their tuning.
type Definitions struct {
	Kinds map[string]Definition `yaml:"kinds"`
}

// ParseDefinitions unmarshals bots.yaml and validates every kind name and
// attack list. A malformed definition set must abort content loading.
func ParseDefinitions(data []byte) (Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return Definitions{}, fmt.Errorf("bot: unmarshal definitions: %w", err)
	}
	for name, def := range defs.Kinds {
		if _, err := ParseKind(name); err != nil {
			return Definitions{}, err
		}
		if def.Health <= 0 {
			return Definitions{}, fmt.Errorf("bot: %s: non-positive health", name)
		}
		if len(def.Attacks) == 0 {
			return Definitions{}, fmt.Errorf("bot: %s: no attack animations", name)
		}
		if def.Locomotion == "" || def.Combat == "" {
			return Definitions{}, fmt.Errorf("bot: %s: missing machine definition reference", name)
		}
	}
	return defs, nil
}

// Get returns the definition for a kind; missing kinds are a content bug.
func (d Definitions) Get(kind Kind) Definition {
	def, ok := d.Kinds[kind.String()]
	if !ok {
		panic(fmt.Sprintf("bot: no definition for kind %s", kind))
	}
	return def
}

// MachineSource resolves machine definition files referenced by bot
// definitions. The defs package provides the embedded implementation.
type MachineSource interface {
	MachineDef(name string) (animation.MachineDef, error)
	Script(name string) ([]byte, error)
}
