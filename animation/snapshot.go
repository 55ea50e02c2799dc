package animation

import "fmt"

// ClipState is the serializable playback state of one clip.
type ClipState struct {
	Name    string  `yaml:"name"`
	Time    float32 `yaml:"time"`
	Speed   float32 `yaml:"speed"`
	Enabled bool    `yaml:"enabled"`
}

// MachineState is the serializable runtime state of a machine. States and
// transitions are referenced by name so a snapshot survives definition
// reordering between save and load.
type MachineState struct {
	State      string      `yaml:"state"`
	Transition string      `yaml:"transition,omitempty"`
	Elapsed    float32     `yaml:"elapsed,omitempty"`
	Clips      []ClipState `yaml:"clips"`
}

// Snapshot captures the machine's runtime state.
func (m *Machine) Snapshot() MachineState {
	s := MachineState{
		State: m.states[m.current].Name,
		Clips: make([]ClipState, len(m.clips)),
	}
	if m.inTransition {
		s.Transition = m.transitions[m.activeTransition].Name
		s.Elapsed = m.elapsed
	}
	for i, c := range m.clips {
		s.Clips[i] = ClipState{
			Name:    c.name,
			Time:    c.time,
			Speed:   c.speed,
			Enabled: c.enabled,
		}
	}
	return s
}

// Restore rebuilds runtime state from a snapshot against this machine's
// freshly constructed definitions, resolving everything by name. Unknown
// names are an error: the snapshot belongs to a different definition
// version.
func (m *Machine) Restore(s MachineState) error {
	state, ok := m.StateByName(s.State)
	if !ok {
		return fmt.Errorf("animation: %s: snapshot references unknown state %q", m.name, s.State)
	}
	m.current = state
	m.inTransition = false
	if s.Transition != "" {
		found := false
		for i := range m.transitions {
			if m.transitions[i].Name == s.Transition {
				m.activeTransition = TransitionHandle(i)
				m.elapsed = s.Elapsed
				m.inTransition = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("animation: %s: snapshot references unknown transition %q", m.name, s.Transition)
		}
	}
	for _, cs := range s.Clips {
		h, ok := m.ClipByName(cs.Name)
		if !ok {
			return fmt.Errorf("animation: %s: snapshot references unknown clip %q", m.name, cs.Name)
		}
		c := m.clips[h]
		c.SetSpeed(cs.Speed)
		c.SetEnabled(cs.Enabled)
		c.SetTime(cs.Time)
	}
	m.hasTicked = false
	m.lastPose = nil
	return nil
}
