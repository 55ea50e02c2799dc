package nav

import "github.com/go-gl/mathgl/mgl32"

const (
	// DefaultRebuildInterval bounds how often a follower repeats the path
	// search, in simulation seconds. Rebuilding on every goal change would
	// thrash when a target jitters.
	DefaultRebuildInterval = 1.0

	// DefaultArrivalRadius is how close the agent must get to a path point
	// before the cursor advances.
	DefaultArrivalRadius = 1.0

	// nearestVertexRange limits how far from the mesh an endpoint may be.
	nearestVertexRange = 10.0
)

// PathFollower steers an agent along navmesh paths toward a goal. Paths
// are rebuilt wholesale at a bounded cadence measured on the simulation
// clock; a failed rebuild keeps the previous path.
type PathFollower struct {
	path   []mgl32.Vec3
	cursor int

	interval    float64
	arrival     float32
	lastRebuild float64
	hasRebuilt  bool
}

// NewPathFollower creates a follower with the default cadence and arrival
// radius.
func NewPathFollower() *PathFollower {
	return &PathFollower{
		interval: DefaultRebuildInterval,
		arrival:  DefaultArrivalRadius,
	}
}

// SetRebuildInterval overrides the rebuild cadence, in seconds.
func (f *PathFollower) SetRebuildInterval(seconds float64) { f.interval = seconds }

// Path returns the current path points. Callers must not mutate them.
func (f *PathFollower) Path() []mgl32.Vec3 { return f.path }

// Cursor returns the index of the current steering point.
func (f *PathFollower) Cursor() int { return f.cursor }

// RestoreCursor sets the cursor when loading a snapshot.
func (f *PathFollower) RestoreCursor(cursor int) {
	if cursor < 0 {
		cursor = 0
	}
	f.cursor = cursor
}

// RebuildIfDue recomputes the path from position to goal when the rebuild
// interval has elapsed. Missing endpoints or an unreachable goal silently
// keep the previous path; pathing is best-effort AI behavior, not
// correctness-critical state.
func (f *PathFollower) RebuildIfDue(position, goal mgl32.Vec3, nm *Navmesh, now float64) {
	if nm == nil {
		return
	}
	if f.hasRebuilt && now-f.lastRebuild < f.interval {
		return
	}
	f.lastRebuild = now
	f.hasRebuilt = true

	from, ok := nm.NearestVertex(position, nearestVertexRange)
	if !ok {
		return
	}
	to, ok := nm.NearestVertex(goal, nearestVertexRange)
	if !ok {
		return
	}
	path, err := nm.BuildPath(from, to)
	if err != nil {
		return
	}
	f.path = path
	f.cursor = 0
}

// AdvanceCursor returns the current steering target, moving the cursor
// forward once the agent is within the arrival radius. The cursor stops at
// the last point. Returns false when there is no path.
func (f *PathFollower) AdvanceCursor(position mgl32.Vec3) (mgl32.Vec3, bool) {
	if len(f.path) == 0 {
		return mgl32.Vec3{}, false
	}
	if f.cursor >= len(f.path) {
		f.cursor = len(f.path) - 1
	}
	target := f.path[f.cursor]
	if target.Sub(position).Len() <= f.arrival && f.cursor < len(f.path)-1 {
		f.cursor++
		target = f.path[f.cursor]
	}
	return target, true
}
