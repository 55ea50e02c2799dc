package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCastRayOrdersHits(t *testing.T) {
	s := NewStaticScene()
	s.AddBox(mgl32.Vec3{5, -1, -1}, mgl32.Vec3{6, 1, 1})
	s.AddCapsule(1, mgl32.Vec3{2, 0, 0}, 0.5)

	hits := s.CastRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 10)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Shape != ShapeCapsule || hits[1].Shape != ShapeBox {
		t.Fatalf("hits out of distance order: %+v", hits)
	}
	if hits[0].Owner != 1 {
		t.Fatalf("capsule hit lost its owner: %+v", hits[0])
	}
}

func TestCastRayRespectsMaxLen(t *testing.T) {
	s := NewStaticScene()
	s.AddBox(mgl32.Vec3{5, -1, -1}, mgl32.Vec3{6, 1, 1})
	if hits := s.CastRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 3); len(hits) != 0 {
		t.Fatalf("hit geometry beyond max length: %+v", hits)
	}
}

func TestGroundContact(t *testing.T) {
	s := NewStaticScene()
	s.AddBox(mgl32.Vec3{-10, -1, -10}, mgl32.Vec3{10, 0, 10})
	s.AddCapsule(1, mgl32.Vec3{0, 0.5, 0}, 0.5)
	s.AddCapsule(2, mgl32.Vec3{0, 5, 0}, 0.5)

	if !s.GroundContact(1) {
		t.Fatalf("grounded body reports airborne")
	}
	if s.GroundContact(2) {
		t.Fatalf("airborne body reports grounded")
	}
}

func TestMoveAndRemoveCapsule(t *testing.T) {
	s := NewStaticScene()
	s.AddCapsule(1, mgl32.Vec3{2, 0, 0}, 0.5)

	s.MoveCapsule(1, mgl32.Vec3{8, 0, 0})
	hits := s.CastRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 10)
	if len(hits) != 1 || hits[0].Distance < 7 {
		t.Fatalf("capsule did not move: %+v", hits)
	}

	s.RemoveCapsule(1)
	if hits := s.CastRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, 10); len(hits) != 0 {
		t.Fatalf("removed capsule still hit: %+v", hits)
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	f := NewPerspectiveFrustum(
		mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(90), 1, 0.1, 50,
	)

	cases := []struct {
		name  string
		point mgl32.Vec3
		want  bool
	}{
		{"dead_ahead", mgl32.Vec3{0, 0, -10}, true},
		{"behind", mgl32.Vec3{0, 0, 10}, false},
		{"past_far_plane", mgl32.Vec3{0, 0, -100}, false},
		{"inside_edge", mgl32.Vec3{5, 0, -10}, true},
		{"outside_edge", mgl32.Vec3{20, 0, -10}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := f.ContainsPoint(c.point); got != c.want {
				t.Fatalf("ContainsPoint(%v) = %v, want %v", c.point, got, c.want)
			}
		})
	}
}
