package animation

import "github.com/go-gl/mathgl/mgl32"

// BoneTransform is the local transform a pose assigns to one bone.
type BoneTransform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func identityTransform() BoneTransform {
	return BoneTransform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Pose maps bone names to local transforms. It is the single output of a
// machine evaluation tick.
type Pose map[string]BoneTransform

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func lerpTransform(a, b BoneTransform, t float32) BoneTransform {
	return BoneTransform{
		Position: lerpVec3(a.Position, b.Position, t),
		Rotation: mgl32.QuatSlerp(a.Rotation, b.Rotation, t),
		Scale:    lerpVec3(a.Scale, b.Scale, t),
	}
}

// BlendPoses interpolates bone-by-bone between two poses. Bones present on
// only one side blend against that side's transform unchanged.
func BlendPoses(from, to Pose, t float32) Pose {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	out := make(Pose, len(from)+len(to))
	for bone, a := range from {
		if b, ok := to[bone]; ok {
			out[bone] = lerpTransform(a, b, t)
		} else {
			out[bone] = a
		}
	}
	for bone, b := range to {
		if _, ok := from[bone]; !ok {
			out[bone] = b
		}
	}
	return out
}

// blendWeighted mixes any number of poses by normalized weights. Rotations
// accumulate via successive slerp against the running weight sum.
func blendWeighted(poses []Pose, weights []float32) Pose {
	var total float32
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return nil
	}
	var out Pose
	var accum float32
	for i, p := range poses {
		w := weights[i]
		if w <= 0 || p == nil {
			continue
		}
		accum += w
		if out == nil {
			out = make(Pose, len(p))
			for bone, tr := range p {
				out[bone] = tr
			}
			continue
		}
		t := w / accum
		for bone, tr := range p {
			if prev, ok := out[bone]; ok {
				out[bone] = lerpTransform(prev, tr, t)
			} else {
				out[bone] = tr
			}
		}
	}
	return out
}
