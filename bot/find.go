package bot

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/milk9111/shooter/arena"
	"github.com/milk9111/shooter/scene"
)

// pointBlankRange is how close an actor can get before a bot notices it
// regardless of view direction.
const pointBlankRange = 1.6

// eyeHeight offsets visibility rays and frusta off the ground.
const eyeHeight float32 = 0.8

// TargetDescriptor is one tick's view of a potential target, assembled by
// the level before the bots run.
type TargetDescriptor struct {
	Handle   arena.Handle
	Position mgl32.Vec3
	Health   float32
	Collider uint64

	IsPlayer bool
	Kind     Kind
}

// Target is a bot's current quarry. Position is refreshed every tick the
// target stays valid.
type Target struct {
	Handle   arena.Handle
	Position mgl32.Vec3
}

// hostileTo reports whether a bot with the given hostility and kind will
// attack the described actor.
func hostileTo(hostility Hostility, kind Kind, desc TargetDescriptor) bool {
	switch hostility {
	case HostileToEveryone:
		return true
	case HostileToOtherSpecies:
		return desc.IsPlayer || desc.Kind != kind
	case HostileToPlayer:
		return desc.IsPlayer
	default:
		return false
	}
}

// visible reports whether a bot at position looking along lookDir can see
// the point. Either the point falls inside the view frustum or it sits at
// point-blank range behind the bot's back.
func visible(position, lookDir, point mgl32.Vec3) bool {
	if point.Sub(position).Len() <= pointBlankRange {
		return true
	}
	eye := position.Add(mgl32.Vec3{0, eyeHeight, 0})
	frustum := scene.NewPerspectiveFrustum(
		eye, eye.Add(lookDir), mgl32.Vec3{0, 1, 0},
		mgl32.DegToRad(90), 16.0/9.0, 0.1, 20.0,
	)
	return frustum.ContainsPoint(point)
}

// occluded reports whether level geometry blocks the line from the bot's
// eyes to the point. Capsule hits are actor bodies and don't block sight;
// the bot's own collider and the candidate's are skipped by owner as well.
func occluded(rc scene.Raycaster, position, point mgl32.Vec3, selfCollider, targetCollider uint64) bool {
	eye := position.Add(mgl32.Vec3{0, eyeHeight, 0})
	delta := point.Sub(eye)
	dist := delta.Len()
	if dist < 1e-4 {
		return false
	}
	for _, hit := range rc.CastRay(eye, delta.Mul(1/dist), dist) {
		if hit.Shape == scene.ShapeCapsule {
			continue
		}
		if hit.Owner == selfCollider || hit.Owner == targetCollider {
			continue
		}
		return true
	}
	return false
}

// selectTarget picks the nearest hostile, visible, unoccluded actor among
// the candidates, or false when nothing qualifies. Equidistant candidates
// resolve by iteration order.
func selectTarget(self arena.Handle, position, lookDir mgl32.Vec3, selfCollider uint64,
	kind Kind, hostility Hostility, rc scene.Raycaster, candidates []TargetDescriptor) (Target, bool) {

	best := Target{}
	bestDist := float32(math.MaxFloat32)
	found := false
	for _, desc := range candidates {
		if desc.Handle == self || desc.Health <= 0 {
			continue
		}
		if !hostileTo(hostility, kind, desc) {
			continue
		}
		if !visible(position, lookDir, desc.Position) {
			continue
		}
		if occluded(rc, position, desc.Position, selfCollider, desc.Collider) {
			continue
		}
		if d := desc.Position.Sub(position).LenSqr(); d < bestDist {
			bestDist = d
			best = Target{Handle: desc.Handle, Position: desc.Position}
			found = true
		}
	}
	return best, found
}
