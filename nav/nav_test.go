package nav

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// lineMesh builds a straight strip of vertices spaced one unit apart.
func lineMesh(n int) *Navmesh {
	vertices := make([]mgl32.Vec3, n)
	var edges [][2]int32
	for i := 0; i < n; i++ {
		vertices[i] = mgl32.Vec3{float32(i), 0, 0}
		if i > 0 {
			edges = append(edges, [2]int32{int32(i - 1), int32(i)})
		}
	}
	return NewNavmesh(vertices, edges)
}

func TestBuildPathStartToGoalOrder(t *testing.T) {
	nm := lineMesh(5)
	path, err := nm.BuildPath(0, 4)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(path) != 5 {
		t.Fatalf("path length = %d, want 5", len(path))
	}
	if path[0].X() != 0 || path[4].X() != 4 {
		t.Fatalf("path not in start-to-goal order: %v", path)
	}
}

func TestBuildPathPrefersShortRoute(t *testing.T) {
	// A diamond: 0 -> 1 -> 3 is shorter than 0 -> 2 -> 3.
	vertices := []mgl32.Vec3{
		{0, 0, 0},
		{1, 0, 1},
		{1, 0, 5},
		{2, 0, 0},
	}
	edges := [][2]int32{{0, 1}, {1, 3}, {0, 2}, {2, 3}}
	nm := NewNavmesh(vertices, edges)

	path, err := nm.BuildPath(0, 3)
	if err != nil {
		t.Fatalf("BuildPath failed: %v", err)
	}
	if len(path) != 3 || path[1] != vertices[1] {
		t.Fatalf("path took the long way: %v", path)
	}
}

func TestBuildPathNoRoute(t *testing.T) {
	vertices := []mgl32.Vec3{{0, 0, 0}, {10, 0, 0}}
	nm := NewNavmesh(vertices, nil)
	if _, err := nm.BuildPath(0, 1); err == nil {
		t.Fatalf("expected error for disconnected vertices")
	}
}

func TestNearestVertexRange(t *testing.T) {
	nm := lineMesh(3)
	if _, ok := nm.NearestVertex(mgl32.Vec3{1.2, 0, 0}, 1); !ok {
		t.Fatalf("vertex within range not found")
	}
	if _, ok := nm.NearestVertex(mgl32.Vec3{0, 50, 0}, 1); ok {
		t.Fatalf("found a vertex far outside range")
	}
}

func TestFollowerRebuildCadence(t *testing.T) {
	nm := lineMesh(10)
	f := NewPathFollower()

	f.RebuildIfDue(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{9, 0, 0}, nm, 0)
	firstLen := len(f.Path())
	if firstLen == 0 {
		t.Fatalf("first rebuild produced no path")
	}

	// A second call inside the interval must not search again, even with a
	// different goal.
	f.RebuildIfDue(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 0}, nm, 0.5)
	if len(f.Path()) != firstLen {
		t.Fatalf("rebuild ran inside the cadence interval")
	}

	f.RebuildIfDue(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 0}, nm, 1.5)
	if len(f.Path()) == firstLen {
		t.Fatalf("rebuild did not run after the interval elapsed")
	}
}

func TestFollowerKeepsPathOnFailure(t *testing.T) {
	nm := lineMesh(10)
	f := NewPathFollower()

	f.RebuildIfDue(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{9, 0, 0}, nm, 0)
	want := len(f.Path())

	// Goal far off the mesh: rebuild silently keeps the old path.
	f.RebuildIfDue(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{500, 0, 0}, nm, 2)
	if len(f.Path()) != want {
		t.Fatalf("failed rebuild discarded the previous path")
	}
}

func TestFollowerCursorAdvance(t *testing.T) {
	nm := lineMesh(4)
	f := NewPathFollower()
	f.RebuildIfDue(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 0}, nm, 0)

	target, ok := f.AdvanceCursor(mgl32.Vec3{0, 0, 0})
	if !ok {
		t.Fatalf("no steering target with a valid path")
	}
	// Standing on the first point advances to the second.
	if target.X() != 1 {
		t.Fatalf("steering target = %v, want x=1", target)
	}

	// At the end the cursor stops on the last point.
	for i := 0; i < 10; i++ {
		target, _ = f.AdvanceCursor(mgl32.Vec3{3, 0, 0})
	}
	if target.X() != 3 {
		t.Fatalf("cursor overran the last point: %v", target)
	}
}
