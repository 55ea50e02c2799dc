package animation

import "testing"

func TestClipSignalExactlyOnce(t *testing.T) {
	// A combat clip with a hit marker near the end: a large step past the
	// marker followed by another step must report it once, not twice.
	c := NewClip("attack", 1.0).AddSignal(7, 0.9)

	c.advance(0.95)
	first := c.DrainSignals()
	if len(first) != 1 || first[0].ID != 7 {
		t.Fatalf("first drain = %v, want one signal id 7", first)
	}

	c.advance(0.1)
	if second := c.DrainSignals(); len(second) != 0 {
		t.Fatalf("signal reported twice: %v", second)
	}
}

func TestClipLargeStepQueuesAllInOrder(t *testing.T) {
	c := NewClip("walk", 1.0).
		AddSignal(1, 0.2).
		AddSignal(2, 0.5).
		AddSignal(3, 0.8)

	// One step skips every marker; all must queue, in timestamp order.
	c.advance(0.95)
	got := c.DrainSignals()
	if len(got) != 3 {
		t.Fatalf("expected 3 signals, got %d", len(got))
	}
	for i, want := range []uint64{1, 2, 3} {
		if got[i].ID != want {
			t.Fatalf("signal %d = id %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestClipLoopWrapFiresSignals(t *testing.T) {
	c := NewClip("walk", 1.0).SetLoop(true).AddSignal(1, 0.5)

	// 2.2 seconds of a 1-second loop crosses the marker twice fully and
	// once after the final wrap.
	c.advance(2.2)
	if got := len(c.DrainSignals()); got != 2 {
		t.Fatalf("loop wrap queued %d signals, want 2", got)
	}
	c.advance(0.4)
	if got := len(c.DrainSignals()); got != 1 {
		t.Fatalf("post-wrap step queued %d signals, want 1", got)
	}
}

func TestClipDisabledDoesNotAdvance(t *testing.T) {
	c := NewClip("dying", 1.0).SetEnabled(false).AddSignal(1, 0.5)
	c.advance(2.0)
	if c.Time() != 0 {
		t.Fatalf("disabled clip advanced to %v", c.Time())
	}
	if got := c.DrainSignals(); len(got) != 0 {
		t.Fatalf("disabled clip queued signals: %v", got)
	}
}

func TestClipRewindDiscardsPending(t *testing.T) {
	c := NewClip("attack", 1.0).AddSignal(1, 0.3)
	c.advance(0.5)
	c.Rewind()
	if got := c.DrainSignals(); len(got) != 0 {
		t.Fatalf("rewind kept pending signals: %v", got)
	}
	if c.Time() != 0 {
		t.Fatalf("rewind left time at %v", c.Time())
	}
}

func TestClipHasEnded(t *testing.T) {
	c := NewClip("dying", 1.0)
	c.advance(0.5)
	if c.HasEnded() {
		t.Fatalf("clip ended halfway through")
	}
	c.advance(1.0)
	if !c.HasEnded() {
		t.Fatalf("clip did not end after playing through")
	}

	looping := NewClip("walk", 1.0).SetLoop(true)
	looping.advance(5)
	if looping.HasEnded() {
		t.Fatalf("looping clip reported ended")
	}
}

func TestClipSetTimeDoesNotFireSignals(t *testing.T) {
	c := NewClip("attack", 1.0).AddSignal(1, 0.3)
	c.SetTime(0.8)
	if got := c.DrainSignals(); len(got) != 0 {
		t.Fatalf("SetTime fired signals: %v", got)
	}
}
