package animation

import "testing"

// idleWalkMachine builds the minimal two-state machine used across tests.
func idleWalkMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine("test")
	idle := m.AddClip(NewClip("idle", 1).SetLoop(true))
	walk := m.AddClip(NewClip("walk", 1).SetLoop(true))
	idleState := m.AddState("Idle", m.AddPlayClip(idle))
	walkState := m.AddState("Walk", m.AddPlayClip(walk))
	m.AddTransition("IdleToWalk", idleState, walkState, 0.5, "IdleToWalk")
	m.AddTransition("WalkToIdle", walkState, idleState, 0.5, "WalkToIdle")
	m.SetEntryState(idleState)
	return m
}

func TestMachineIdleToWalk(t *testing.T) {
	m := idleWalkMachine(t)

	if got := m.ActiveStateName(); got != "Idle" {
		t.Fatalf("entry state = %q, want Idle", got)
	}

	m.SetParameter("IdleToWalk", Rule(true))
	tick := uint64(1)
	m.Evaluate(tick, 0.1)
	if _, ok := m.InTransition(); !ok {
		t.Fatalf("expected transition in flight after rule went true")
	}

	for i := 0; i < 10; i++ {
		tick++
		m.Evaluate(tick, 0.1)
	}
	if got := m.ActiveStateName(); got != "Walk" {
		t.Fatalf("active state = %q, want Walk", got)
	}
	if _, ok := m.InTransition(); ok {
		t.Fatalf("transition still active after blend completed")
	}
}

func TestMachineUnsetRuleDefaultsFalse(t *testing.T) {
	m := idleWalkMachine(t)
	for tick := uint64(1); tick < 20; tick++ {
		m.Evaluate(tick, 0.1)
	}
	if got := m.ActiveStateName(); got != "Idle" {
		t.Fatalf("machine left Idle with no parameter set, got %q", got)
	}
}

func TestMachineUnknownParameterIgnored(t *testing.T) {
	m := idleWalkMachine(t)
	m.SetParameter("NoSuchRule", Rule(true))
	m.Evaluate(1, 0.1)
	if got := m.ActiveStateName(); got != "Idle" {
		t.Fatalf("unknown parameter moved the machine to %q", got)
	}
}

func TestMachineFirstWriterWins(t *testing.T) {
	m := NewMachine("test")
	idle := m.AddClip(NewClip("idle", 1).SetLoop(true))
	walk := m.AddClip(NewClip("walk", 1).SetLoop(true))
	run := m.AddClip(NewClip("run", 1).SetLoop(true))
	idleState := m.AddState("Idle", m.AddPlayClip(idle))
	walkState := m.AddState("Walk", m.AddPlayClip(walk))
	runState := m.AddState("Run", m.AddPlayClip(run))
	m.AddTransition("IdleToWalk", idleState, walkState, 1.0, "IdleToWalk")
	m.AddTransition("IdleToRun", idleState, runState, 1.0, "IdleToRun")
	m.SetEntryState(idleState)

	// Both rules true; the first transition in insertion order wins and
	// the second is ignored until the first resolves.
	m.SetParameter("IdleToWalk", Rule(true)).SetParameter("IdleToRun", Rule(true))
	m.Evaluate(1, 0.1)
	dest, ok := m.InTransition()
	if !ok || dest != walkState {
		t.Fatalf("in-flight transition dest = %v (ok=%v), want Walk", dest, ok)
	}
	m.Evaluate(2, 0.1)
	dest, _ = m.InTransition()
	if dest != walkState {
		t.Fatalf("second evaluate switched transitions mid-flight")
	}
}

func TestMachineDoubleEvaluateGuard(t *testing.T) {
	m := idleWalkMachine(t)
	m.SetParameter("IdleToWalk", Rule(true))

	// Two calls with the same tick serial must only advance once. Without
	// the guard the duplicate call would push elapsed to 0.5 by tick 2 and
	// commit early.
	m.Evaluate(1, 0.25)
	m.Evaluate(1, 0.25)
	m.Evaluate(2, 0.25)
	if got := m.ActiveStateName(); got != "Idle" {
		t.Fatalf("duplicate evaluate advanced the transition, state %q", got)
	}
	m.Evaluate(3, 0.25)
	if got := m.ActiveStateName(); got != "Walk" {
		t.Fatalf("transition should have committed, active state %q", got)
	}
}

func TestMachineDeterministicStateSequence(t *testing.T) {
	run := func() []string {
		m := idleWalkMachine(t)
		var seq []string
		tick := uint64(0)
		step := func(dt float32) {
			tick++
			m.Evaluate(tick, dt)
			seq = append(seq, m.ActiveStateName())
		}
		m.SetParameter("IdleToWalk", Rule(true))
		for i := 0; i < 8; i++ {
			step(0.1)
		}
		m.SetParameter("IdleToWalk", Rule(false)).SetParameter("WalkToIdle", Rule(true))
		for i := 0; i < 8; i++ {
			step(0.1)
		}
		return seq
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("sequence lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("state sequences diverge at step %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestMachineSnapshotRestore(t *testing.T) {
	m := idleWalkMachine(t)
	m.SetParameter("IdleToWalk", Rule(true))
	m.Evaluate(1, 0.2)

	snap := m.Snapshot()
	if snap.Transition != "IdleToWalk" {
		t.Fatalf("snapshot transition = %q, want IdleToWalk", snap.Transition)
	}

	fresh := idleWalkMachine(t)
	if err := fresh.Restore(snap); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	dest, ok := fresh.InTransition()
	if !ok {
		t.Fatalf("restored machine lost its in-flight transition")
	}
	if name := fresh.states[dest].Name; name != "Walk" {
		t.Fatalf("restored transition dest = %q, want Walk", name)
	}

	snap.State = "NoSuchState"
	if err := idleWalkMachine(t).Restore(snap); err == nil {
		t.Fatalf("restore accepted a snapshot referencing an unknown state")
	}
}
