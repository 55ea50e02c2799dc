package scene

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// StaticScene is a minimal Scene over axis-aligned boxes (level geometry)
// and spheres (actor bodies). Tests and the headless runner use it; a real
// engine supplies its own implementation behind the same interface.
type StaticScene struct {
	boxes   []box
	spheres []sphere
}

type box struct {
	min, max mgl32.Vec3
	owner    uint64
}

type sphere struct {
	center mgl32.Vec3
	radius float32
	shape  ColliderShape
	owner  uint64
}

// NewStaticScene creates an empty scene.
func NewStaticScene() *StaticScene {
	return &StaticScene{}
}

// AddBox adds opaque level geometry.
func (s *StaticScene) AddBox(min, max mgl32.Vec3) {
	s.boxes = append(s.boxes, box{min: min, max: max})
}

// AddCapsule registers an actor body, approximated as a sphere for ray
// queries. Occlusion tests skip capsule hits.
func (s *StaticScene) AddCapsule(owner uint64, center mgl32.Vec3, radius float32) {
	s.spheres = append(s.spheres, sphere{center: center, radius: radius, shape: ShapeCapsule, owner: owner})
}

// MoveCapsule updates a registered actor body position.
func (s *StaticScene) MoveCapsule(owner uint64, center mgl32.Vec3) {
	for i := range s.spheres {
		if s.spheres[i].owner == owner {
			s.spheres[i].center = center
			return
		}
	}
}

// RemoveCapsule drops a registered actor body.
func (s *StaticScene) RemoveCapsule(owner uint64) {
	for i := range s.spheres {
		if s.spheres[i].owner == owner {
			s.spheres = append(s.spheres[:i], s.spheres[i+1:]...)
			return
		}
	}
}

// CastRay returns every intersection within maxLen, nearest first.
func (s *StaticScene) CastRay(origin, dir mgl32.Vec3, maxLen float32) []RayHit {
	if dir.Len() == 0 || maxLen <= 0 {
		return nil
	}
	d := dir.Normalize()
	var hits []RayHit
	for i := range s.boxes {
		if t, n, ok := rayBox(origin, d, s.boxes[i].min, s.boxes[i].max); ok && t <= maxLen {
			hits = append(hits, RayHit{Distance: t, Shape: ShapeBox, Owner: s.boxes[i].owner, Normal: n})
		}
	}
	for i := range s.spheres {
		sp := &s.spheres[i]
		if t, ok := raySphere(origin, d, sp.center, sp.radius); ok && t <= maxLen {
			n := origin.Add(d.Mul(t)).Sub(sp.center)
			if n.Len() > 0 {
				n = n.Normalize()
			}
			hits = append(hits, RayHit{Distance: t, Shape: sp.shape, Owner: sp.owner, Normal: n})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// GroundContact casts a short ray down from the actor body and reports
// whether it reaches level geometry.
func (s *StaticScene) GroundContact(owner uint64) bool {
	for i := range s.spheres {
		sp := &s.spheres[i]
		if sp.owner != owner {
			continue
		}
		probe := sp.radius + 0.2
		for _, hit := range s.CastRay(sp.center, mgl32.Vec3{0, -1, 0}, probe) {
			if hit.Shape != ShapeCapsule {
				return true
			}
		}
		return false
	}
	return false
}

func raySphere(origin, dir, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.LenSqr() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

func rayBox(origin, dir, min, max mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	tMin := float32(0)
	tMax := float32(math.Inf(1))
	axis := 0
	sign := float32(1)
	for i := 0; i < 3; i++ {
		if mgl32.Abs(dir[i]) < 1e-8 {
			if origin[i] < min[i] || origin[i] > max[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (min[i] - origin[i]) * inv
		t2 := (max[i] - origin[i]) * inv
		s := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tMin {
			tMin = t1
			axis = i
			sign = s
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, mgl32.Vec3{}, false
		}
	}
	var normal mgl32.Vec3
	normal[axis] = sign
	return tMin, normal, true
}
