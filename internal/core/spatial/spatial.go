// Package spatial holds the transform value types shared by players, parts and controllers.
package spatial

// Vec3 is a float64 3D vector used for positions, scales and velocities.
type Vec3 struct {
	X, Y, Z float64
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

var (
	Zero     = Vec3{}
	One      = Vec3{X: 1, Y: 1, Z: 1}
	Identity = Quat{W: 1}
)

func V3Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func V3Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func V3Scale(v Vec3, s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Transform is the full kinematic state of one body segment.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
	Velocity Vec3
	Angular  Vec3
}

// DefaultTransform is a resting transform at the origin.
func DefaultTransform() Transform {
	return Transform{Rotation: Identity, Scale: One}
}
