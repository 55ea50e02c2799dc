// Package scene defines the narrow contracts this core uses to talk to
// the host engine's physics/scene subsystem, plus a small static-collider
// implementation for tests and headless runs. The AI and animation code
// never depends on a concrete engine.
package scene

import "github.com/go-gl/mathgl/mgl32"

// ColliderShape tags what kind of collider a ray hit. Occlusion tests
// treat capsules (actor bodies) as transparent and everything else as
// opaque.
type ColliderShape uint8

const (
	ShapeMesh ColliderShape = iota
	ShapeBox
	ShapeSphere
	ShapeCapsule
)

// RayHit is one intersection along a cast ray.
type RayHit struct {
	Distance float32
	Shape    ColliderShape
	Owner    uint64
	Normal   mgl32.Vec3
}

// Raycaster casts rays against scene geometry. Hits are returned in
// ascending distance order.
type Raycaster interface {
	CastRay(origin, dir mgl32.Vec3, maxLen float32) []RayHit
}

// Scene is the physics collaborator surface consumed by this core.
type Scene interface {
	Raycaster

	// GroundContact reports whether the collider owned by the given actor
	// currently rests on walkable geometry.
	GroundContact(owner uint64) bool
}
