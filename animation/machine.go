package animation

import "fmt"

type parameterKind uint8

const (
	paramRule parameterKind = iota
	paramWeight
	paramIndex
)

// Parameter is a named condition value pushed by gameplay code and read by
// the machine during evaluation. Rule gates transitions, Weight feeds
// weighted blends, Index selects indexed blend children.
type Parameter struct {
	kind   parameterKind
	rule   bool
	weight float32
	index  uint32
}

// Rule creates a boolean transition-gate parameter.
func Rule(v bool) Parameter { return Parameter{kind: paramRule, rule: v} }

// Weight creates a blend weight parameter, clamped to [0, 1].
func Weight(v float32) Parameter { return Parameter{kind: paramWeight, weight: clamp01(v)} }

// Index creates an indexed-blend selector parameter.
func Index(v uint32) Parameter { return Parameter{kind: paramIndex, index: v} }

// StateHandle indexes a state owned by one machine.
type StateHandle int

// TransitionHandle indexes a transition owned by one machine.
type TransitionHandle int

// State names the pose node emitted while the state is active.
type State struct {
	Name string
	Node NodeHandle
}

// Transition is a timed cross-fade between two states, taken when its rule
// parameter resolves true.
type Transition struct {
	Name     string
	From     StateHandle
	To       StateHandle
	Duration float32
	Rule     string
}

// Machine is a blend state machine producing one pose per simulation tick.
// It exclusively owns its clips, pose nodes, states and transitions; build
// it once at actor construction and drive it with SetParameter + Evaluate.
type Machine struct {
	name        string
	clips       []*Clip
	nodes       []poseNode
	states      []State
	transitions []Transition
	params      map[string]Parameter

	entry   StateHandle
	current StateHandle

	activeTransition TransitionHandle
	elapsed          float32
	inTransition     bool

	lastTick  uint64
	hasTicked bool
	lastPose  Pose
}

// NewMachine creates an empty machine. Add clips, nodes, states and
// transitions, then SetEntryState before the first Evaluate.
func NewMachine(name string) *Machine {
	return &Machine{
		name:   name,
		params: make(map[string]Parameter),
		entry:  -1,
	}
}

func (m *Machine) Name() string { return m.name }

// AddClip takes ownership of the clip and returns its handle.
func (m *Machine) AddClip(c *Clip) ClipHandle {
	if c == nil {
		panic("animation: " + m.name + ": nil clip")
	}
	m.clips = append(m.clips, c)
	return ClipHandle(len(m.clips) - 1)
}

// Clip resolves a handle back to its clip.
func (m *Machine) Clip(h ClipHandle) *Clip {
	if h < 0 || int(h) >= len(m.clips) {
		panic(fmt.Sprintf("animation: %s: invalid clip handle %d", m.name, h))
	}
	return m.clips[h]
}

// ClipByName finds a clip handle by clip name.
func (m *Machine) ClipByName(name string) (ClipHandle, bool) {
	for i, c := range m.clips {
		if c.name == name {
			return ClipHandle(i), true
		}
	}
	return -1, false
}

// AddPlayClip adds a leaf node playing the given clip.
func (m *Machine) AddPlayClip(clip ClipHandle) NodeHandle {
	m.Clip(clip)
	m.nodes = append(m.nodes, &playClip{clip: clip})
	return NodeHandle(len(m.nodes) - 1)
}

// AddWeightedBlend adds a node mixing its inputs by weight parameters.
func (m *Machine) AddWeightedBlend(inputs ...WeightedInput) NodeHandle {
	for _, in := range inputs {
		m.checkNode(in.Node)
	}
	m.nodes = append(m.nodes, &weightedBlend{inputs: inputs})
	return NodeHandle(len(m.nodes) - 1)
}

// AddIndexedBlend adds a node selecting one child by an index parameter.
func (m *Machine) AddIndexedBlend(param string, children ...IndexedChild) NodeHandle {
	if len(children) == 0 {
		panic("animation: " + m.name + ": indexed blend needs at least one child")
	}
	for _, ch := range children {
		m.checkNode(ch.Node)
	}
	m.nodes = append(m.nodes, &indexedBlend{param: param, children: children})
	return NodeHandle(len(m.nodes) - 1)
}

// AddState adds a named state emitting the given node's pose.
func (m *Machine) AddState(name string, node NodeHandle) StateHandle {
	m.checkNode(node)
	m.states = append(m.states, State{Name: name, Node: node})
	return StateHandle(len(m.states) - 1)
}

// AddTransition adds a timed transition gated by the named rule parameter.
// Transitions are scanned in insertion order.
func (m *Machine) AddTransition(name string, from, to StateHandle, duration float32, rule string) TransitionHandle {
	m.checkState(from)
	m.checkState(to)
	m.transitions = append(m.transitions, Transition{
		Name:     name,
		From:     from,
		To:       to,
		Duration: duration,
		Rule:     rule,
	})
	return TransitionHandle(len(m.transitions) - 1)
}

// SetEntryState sets the state the machine starts in.
func (m *Machine) SetEntryState(s StateHandle) {
	m.checkState(s)
	m.entry = s
	m.current = s
}

// SetParameter writes a named parameter. Unknown names are accepted;
// parameters a machine never reads are simply ignored.
func (m *Machine) SetParameter(name string, p Parameter) *Machine {
	m.params[name] = p
	return m
}

// ActiveState returns the current state handle.
func (m *Machine) ActiveState() StateHandle { return m.current }

// ActiveStateName returns the current state's name.
func (m *Machine) ActiveStateName() string { return m.states[m.current].Name }

// InTransition reports whether a cross-fade is in flight, along with its
// destination state.
func (m *Machine) InTransition() (StateHandle, bool) {
	if !m.inTransition {
		return -1, false
	}
	return m.transitions[m.activeTransition].To, true
}

// IsStateActive reports whether the given state is active or is the
// destination of the in-flight transition.
func (m *Machine) IsStateActive(s StateHandle) bool {
	if m.current == s {
		return true
	}
	dest, ok := m.InTransition()
	return ok && dest == s
}

// StateByName finds a state handle by name.
func (m *Machine) StateByName(name string) (StateHandle, bool) {
	for i, s := range m.states {
		if s.Name == name {
			return StateHandle(i), true
		}
	}
	return -1, false
}

// Evaluate advances the machine by dt and returns the blended pose. The
// tick serial guards against double-advancing: a second call with the same
// serial returns the cached pose without mutating playback time.
func (m *Machine) Evaluate(tick uint64, dt float32) Pose {
	if m.entry < 0 {
		panic("animation: " + m.name + ": no entry state")
	}
	if m.hasTicked && tick == m.lastTick {
		return m.lastPose
	}
	m.lastTick = tick
	m.hasTicked = true

	for _, c := range m.clips {
		c.advance(dt)
	}

	if !m.inTransition {
		for i := range m.transitions {
			tr := &m.transitions[i]
			if tr.From == m.current && m.ruleValue(tr.Rule) {
				m.activeTransition = TransitionHandle(i)
				m.elapsed = 0
				m.inTransition = true
				break
			}
		}
	} else {
		m.elapsed += dt
	}

	var pose Pose
	if m.inTransition {
		tr := &m.transitions[m.activeTransition]
		t := float32(1)
		if tr.Duration > 0 {
			t = clamp01(m.elapsed / tr.Duration)
		}
		from := m.evalNode(m.states[tr.From].Node, tick, dt)
		to := m.evalNode(m.states[tr.To].Node, tick, dt)
		pose = BlendPoses(from, to, t)
		if t >= 1 {
			m.current = tr.To
			m.inTransition = false
		}
	} else {
		pose = m.evalNode(m.states[m.current].Node, tick, dt)
	}

	m.lastPose = pose
	return pose
}

// DrainSignals drains the pending signals of the given clip.
func (m *Machine) DrainSignals(h ClipHandle) []Signal {
	return m.Clip(h).DrainSignals()
}

func (m *Machine) evalNode(h NodeHandle, tick uint64, dt float32) Pose {
	return m.nodes[h].evaluate(m, tick, dt)
}

func (m *Machine) ruleValue(name string) bool {
	p, ok := m.params[name]
	return ok && p.kind == paramRule && p.rule
}

func (m *Machine) weightValue(name string) float32 {
	p, ok := m.params[name]
	if !ok || p.kind != paramWeight {
		return 0
	}
	return p.weight
}

func (m *Machine) indexValue(name string) uint32 {
	p, ok := m.params[name]
	if !ok || p.kind != paramIndex {
		return 0
	}
	return p.index
}

func (m *Machine) checkNode(h NodeHandle) {
	if h < 0 || int(h) >= len(m.nodes) {
		panic(fmt.Sprintf("animation: %s: invalid node handle %d", m.name, h))
	}
}

func (m *Machine) checkState(h StateHandle) {
	if h < 0 || int(h) >= len(m.states) {
		panic(fmt.Sprintf("animation: %s: invalid state handle %d", m.name, h))
	}
}
