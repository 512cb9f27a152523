package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

// Mat4 is a 4x4 matrix stored row-major (Data[row*4+col]) and applied
// to row vectors, so v.Transform(a.Mul(b)) applies a before b.
// Typically used to represent object transformations and projections.
type Mat4 struct {
	Data [16]float32
}

// Sphere is a center plus radius bounding volume. Used for cascade
// culling volumes and light range tests.
type Sphere struct {
	Center Vec3
	Radius float32
}

// Rect is a normalized rectangle (x, y, width, height in [0,1]).
type Rect struct {
	X, Y, W, H float32
}

// Extents3D represents the extents of a 3d object (an AABB).
type Extents3D struct {
	Min Vec3
	Max Vec3
}
