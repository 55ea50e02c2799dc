package animation

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MachineDef is the YAML shape of a machine definition. Definitions are
// authored content; compiling one validates every cross-reference and
// fails fast on dangling names so a malformed machine never reaches the
// live simulation.
type MachineDef struct {
	Name        string          `yaml:"name"`
	Entry       string          `yaml:"entry"`
	Clips       []ClipDef       `yaml:"clips"`
	Nodes       []NodeDef       `yaml:"nodes"`
	States      []StateDef      `yaml:"states"`
	Transitions []TransitionDef `yaml:"transitions"`
}

type ClipDef struct {
	Name     string      `yaml:"name"`
	Duration float32     `yaml:"duration"`
	Loop     bool        `yaml:"loop"`
	Speed    float32     `yaml:"speed"`
	Enabled  *bool       `yaml:"enabled"`
	Signals  []SignalDef `yaml:"signals"`
}

type SignalDef struct {
	Time float32 `yaml:"time"`
	ID   uint64  `yaml:"id"`
}

// NodeDef describes one pose node. Kind is "play", "blend_weighted" or
// "blend_index"; children must be declared before the nodes referencing
// them.
type NodeDef struct {
	Name      string            `yaml:"name"`
	Kind      string            `yaml:"kind"`
	Clip      string            `yaml:"clip"`
	Inputs    []WeightedDef     `yaml:"inputs"`
	Parameter string            `yaml:"parameter"`
	Children  []IndexedChildDef `yaml:"children"`
}

type WeightedDef struct {
	Weight string `yaml:"weight"`
	Node   string `yaml:"node"`
}

type IndexedChildDef struct {
	BlendTime float32 `yaml:"blend_time"`
	Node      string  `yaml:"node"`
}

type StateDef struct {
	Name string `yaml:"name"`
	Node string `yaml:"node"`
}

type TransitionDef struct {
	Name     string  `yaml:"name"`
	From     string  `yaml:"from"`
	To       string  `yaml:"to"`
	Duration float32 `yaml:"duration"`
	Rule     string  `yaml:"rule"`
}

// ParseMachineDef unmarshals a YAML machine definition.
func ParseMachineDef(data []byte) (MachineDef, error) {
	var def MachineDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return MachineDef{}, fmt.Errorf("animation: unmarshal machine def: %w", err)
	}
	return def, nil
}

// Compile builds a machine from its definition. Any dangling clip, node or
// state reference is an error.
func Compile(def MachineDef) (*Machine, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("animation: machine def missing name")
	}
	if def.Entry == "" {
		return nil, fmt.Errorf("animation: %s: missing entry state", def.Name)
	}

	m := NewMachine(def.Name)

	clips := make(map[string]ClipHandle, len(def.Clips))
	for _, cd := range def.Clips {
		if cd.Name == "" {
			return nil, fmt.Errorf("animation: %s: clip with empty name", def.Name)
		}
		if _, dup := clips[cd.Name]; dup {
			return nil, fmt.Errorf("animation: %s: duplicate clip %q", def.Name, cd.Name)
		}
		c := NewClip(cd.Name, cd.Duration).SetLoop(cd.Loop)
		if cd.Speed != 0 {
			c.SetSpeed(cd.Speed)
		}
		if cd.Enabled != nil {
			c.SetEnabled(*cd.Enabled)
		}
		for _, sd := range cd.Signals {
			c.AddSignal(sd.ID, sd.Time)
		}
		clips[cd.Name] = m.AddClip(c)
	}

	nodes := make(map[string]NodeHandle, len(def.Nodes))
	for _, nd := range def.Nodes {
		if _, dup := nodes[nd.Name]; dup {
			return nil, fmt.Errorf("animation: %s: duplicate node %q", def.Name, nd.Name)
		}
		switch nd.Kind {
		case "play":
			clip, ok := clips[nd.Clip]
			if !ok {
				return nil, fmt.Errorf("animation: %s: node %q references unknown clip %q", def.Name, nd.Name, nd.Clip)
			}
			nodes[nd.Name] = m.AddPlayClip(clip)
		case "blend_weighted":
			if len(nd.Inputs) == 0 {
				return nil, fmt.Errorf("animation: %s: node %q has no inputs", def.Name, nd.Name)
			}
			inputs := make([]WeightedInput, len(nd.Inputs))
			for i, in := range nd.Inputs {
				child, ok := nodes[in.Node]
				if !ok {
					return nil, fmt.Errorf("animation: %s: node %q references unknown node %q", def.Name, nd.Name, in.Node)
				}
				inputs[i] = WeightedInput{Weight: in.Weight, Node: child}
			}
			nodes[nd.Name] = m.AddWeightedBlend(inputs...)
		case "blend_index":
			if len(nd.Children) == 0 {
				return nil, fmt.Errorf("animation: %s: node %q has no children", def.Name, nd.Name)
			}
			children := make([]IndexedChild, len(nd.Children))
			for i, ch := range nd.Children {
				child, ok := nodes[ch.Node]
				if !ok {
					return nil, fmt.Errorf("animation: %s: node %q references unknown node %q", def.Name, nd.Name, ch.Node)
				}
				children[i] = IndexedChild{BlendTime: ch.BlendTime, Node: child}
			}
			nodes[nd.Name] = m.AddIndexedBlend(nd.Parameter, children...)
		default:
			return nil, fmt.Errorf("animation: %s: node %q has unknown kind %q", def.Name, nd.Name, nd.Kind)
		}
	}

	states := make(map[string]StateHandle, len(def.States))
	for _, sd := range def.States {
		node, ok := nodes[sd.Node]
		if !ok {
			return nil, fmt.Errorf("animation: %s: state %q references unknown node %q", def.Name, sd.Name, sd.Node)
		}
		if _, dup := states[sd.Name]; dup {
			return nil, fmt.Errorf("animation: %s: duplicate state %q", def.Name, sd.Name)
		}
		states[sd.Name] = m.AddState(sd.Name, node)
	}

	for _, td := range def.Transitions {
		from, ok := states[td.From]
		if !ok {
			return nil, fmt.Errorf("animation: %s: transition %q references unknown state %q", def.Name, td.Name, td.From)
		}
		to, ok := states[td.To]
		if !ok {
			return nil, fmt.Errorf("animation: %s: transition %q references unknown state %q", def.Name, td.Name, td.To)
		}
		if td.Rule == "" {
			return nil, fmt.Errorf("animation: %s: transition %q missing rule parameter", def.Name, td.Name)
		}
		m.AddTransition(td.Name, from, to, td.Duration, td.Rule)
	}

	entry, ok := states[def.Entry]
	if !ok {
		return nil, fmt.Errorf("animation: %s: unknown entry state %q", def.Name, def.Entry)
	}
	m.SetEntryState(entry)

	return m, nil
}

// MustCompile is Compile for authored content loaded at startup, where a
// broken definition is a developer bug and must abort loading.
func MustCompile(def MachineDef) *Machine {
	m, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return m
}
