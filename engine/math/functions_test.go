package math

import (
	"testing"
)

func nearEqual(a, b float32) bool {
	return Abs(a-b) <= 1e-4
}

func TestVec3Operations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	if got := a.Dot(b); !nearEqual(got, 12) {
		t.Errorf("Dot = %f, want 12", got)
	}
	cross := NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0))
	if !nearEqual(cross.Z, 1) || !nearEqual(cross.X, 0) {
		t.Errorf("Cross = %+v, want +Z", cross)
	}
	if got := NewVec3(3, 4, 0).Length(); !nearEqual(got, 5) {
		t.Errorf("Length = %f, want 5", got)
	}
	n := NewVec3(0, 0, 9).Normalized()
	if !nearEqual(n.Z, 1) {
		t.Errorf("Normalized = %+v", n)
	}
	if got := NewVec3(1, 1, 1).Distance(NewVec3(1, 1, 5)); !nearEqual(got, 4) {
		t.Errorf("Distance = %f, want 4", got)
	}
}

func TestMat4TranslationTransform(t *testing.T) {
	m := NewMat4Translation(NewVec3(10, -2, 5))
	p := NewVec3(1, 1, 1).Transform(m)
	if !nearEqual(p.X, 11) || !nearEqual(p.Y, -1) || !nearEqual(p.Z, 6) {
		t.Errorf("transformed point = %+v", p)
	}
}

func TestMat4MulAppliesLeftFirst(t *testing.T) {
	scale := NewMat4Scale(NewVec3(2, 2, 2))
	translate := NewMat4Translation(NewVec3(1, 0, 0))

	// scale then translate: (1,0,0) -> (2,0,0) -> (3,0,0)
	p := NewVec3(1, 0, 0).Transform(scale.Mul(translate))
	if !nearEqual(p.X, 3) {
		t.Errorf("scale-then-translate x = %f, want 3", p.X)
	}

	// translate then scale: (1,0,0) -> (2,0,0) -> (4,0,0)
	p = NewVec3(1, 0, 0).Transform(translate.Mul(scale))
	if !nearEqual(p.X, 4) {
		t.Errorf("translate-then-scale x = %f, want 4", p.X)
	}
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := NewMat4EulerXYZ(0.3, -1.1, 0.7).Mul(NewMat4Translation(NewVec3(4, -2, 9)))
	identity := m.Mul(m.Inverse())
	want := NewMat4Identity()
	for i := 0; i < 16; i++ {
		if !nearEqual(identity.Data[i], want.Data[i]) {
			t.Fatalf("Data[%d] = %f after inverse round trip", i, identity.Data[i])
		}
	}
}

func TestMat4LookAtDepth(t *testing.T) {
	eye := NewVec3(0, 0, 10)
	target := NewVec3Zero()
	view := NewMat4LookAt(eye, target, NewVec3Up())

	// the target sits straight ahead, 10 units along the view axis
	p := target.Transform(view)
	if !nearEqual(p.X, 0) || !nearEqual(p.Y, 0) || !nearEqual(p.Z, -10) {
		t.Errorf("target in view space = %+v, want (0, 0, -10)", p)
	}
}

func TestMat4OrthographicMapsCorners(t *testing.T) {
	m := NewMat4Orthographic(-10, 10, -10, 10, 0, 20)
	p := NewVec3(10, 10, -20).Transform(m)
	if !nearEqual(p.X, 1) || !nearEqual(p.Y, 1) {
		t.Errorf("far corner maps to %+v, want x=y=1", p)
	}
}

func TestExtents3D(t *testing.T) {
	a := Extents3D{Min: NewVec3(-1, -1, -1), Max: NewVec3(1, 1, 1)}
	b := Extents3D{Min: NewVec3(0, 0, 0), Max: NewVec3(5, 2, 1)}

	u := a.Union(b)
	if !nearEqual(u.Min.X, -1) || !nearEqual(u.Max.X, 5) {
		t.Errorf("union = %+v", u)
	}
	c := a.Center()
	if !nearEqual(c.X, 0) || !nearEqual(c.Y, 0) {
		t.Errorf("center = %+v", c)
	}

	if !a.IntersectsSphere(Sphere{Center: NewVec3(2, 0, 0), Radius: 1.5}) {
		t.Error("sphere overlapping the box face must intersect")
	}
	if a.IntersectsSphere(Sphere{Center: NewVec3(10, 0, 0), Radius: 1}) {
		t.Error("distant sphere must not intersect")
	}
}

func TestRectIsDefaultViewport(t *testing.T) {
	if !(Rect{X: 0, Y: 0, W: 1, H: 1}).IsDefaultViewport() {
		t.Error("the unit rect is the default viewport")
	}
	if (Rect{X: 0, Y: 0, W: 0.5, H: 1}).IsDefaultViewport() {
		t.Error("a half-width rect is not the default viewport")
	}
}

func TestClampAndMin(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp = %d, want 3", got)
	}
	if got := Clamp(-1.0, 0.0, 3.0); got != 0.0 {
		t.Errorf("Clamp = %f, want 0", got)
	}
	if got := Min(7, 4); got != 4 {
		t.Errorf("Min = %d, want 4", got)
	}
}
