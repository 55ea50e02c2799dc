package scene

import "github.com/go-gl/mathgl/mgl32"

// Frustum is six clip planes extracted from a view-projection matrix,
// used by bots to decide what they can see.
type Frustum struct {
	planes [6]mgl32.Vec4
}

// NewFrustum extracts planes from a view-projection matrix
// (Gribb-Hartmann).
func NewFrustum(viewProjection mgl32.Mat4) Frustum {
	m := viewProjection
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{m.At(i, 0), m.At(i, 1), m.At(i, 2), m.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	return Frustum{planes: [6]mgl32.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}}
}

// NewPerspectiveFrustum builds the frustum of a perspective camera placed
// at eye looking toward center.
func NewPerspectiveFrustum(eye, center, up mgl32.Vec3, fovY, aspect, near, far float32) Frustum {
	proj := mgl32.Perspective(fovY, aspect, near, far)
	view := mgl32.LookAtV(eye, center, up)
	return NewFrustum(proj.Mul4(view))
}

// ContainsPoint reports whether p lies inside or on the frustum.
func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for _, plane := range f.planes {
		if plane.X()*p.X()+plane.Y()*p.Y()+plane.Z()*p.Z()+plane.W() < 0 {
			return false
		}
	}
	return true
}
