package systems

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// shadowSofteningRadius is the texel footprint of the percentage-closer
// filter kernel the lit shader samples with. The normal-offset bias pushes
// receivers by this many texels so the widened kernel never self-shadows.
const shadowSofteningRadius float32 = 3.65

// ShadowSliceData describes one rendered tile of the shadow atlas: where it
// lives, the light matrices used to render into it, and the combined
// world-to-atlas transform the lit pass samples with.
type ShadowSliceData struct {
	OffsetX         uint32
	OffsetY         uint32
	Resolution      uint32
	ViewMatrix      math.Mat4
	ProjMatrix      math.Mat4
	ShadowTransform math.Mat4
	SplitSphere     math.Sphere
}

// CascadeSplitRange returns the near and far view distances covered by one
// cascade band. Ratios position the interior split planes as fractions of
// the shadow distance; the last band always reaches the shadow distance.
func CascadeSplitRange(cascadeIndex, cascadeCount int, ratios math.Vec3, nearClip, shadowDistance float32) (float32, float32) {
	edges := [metadata.MaxShadowCascades + 1]float32{nearClip}
	switch cascadeCount {
	case 2:
		edges[1] = ratios.X * shadowDistance
		edges[2] = shadowDistance
	case 4:
		edges[1] = ratios.X * shadowDistance
		edges[2] = ratios.Y * shadowDistance
		edges[3] = ratios.Z * shadowDistance
		edges[4] = shadowDistance
	default:
		edges[1] = shadowDistance
	}
	near := edges[cascadeIndex]
	if near < nearClip {
		near = nearClip
	}
	return near, edges[cascadeIndex+1]
}

// ComputeCascadeSplitSphere bounds the camera frustum slice between two view
// distances with the smallest enclosing sphere. A sphere, unlike the slice's
// eight corners, keeps the shadow projection size stable under camera
// rotation, which is what makes texel snapping effective.
func ComputeCascadeSplitSphere(position, forward math.Vec3, fovRadians, aspect, sliceNear, sliceFar float32) math.Sphere {
	k := math.Sqrt(1.0+aspect*aspect) * math.Tan(fovRadians*0.5)
	k2 := k * k
	fn := sliceFar - sliceNear
	fp := sliceFar + sliceNear

	if k2 >= fn/fp {
		// the far plane corners dominate; centre the sphere there
		return math.Sphere{
			Center: position.Add(forward.MulScalar(sliceFar)),
			Radius: sliceFar * k,
		}
	}
	center := position.Add(forward.MulScalar(0.5 * fp * (1.0 + k2)))
	radius := 0.5 * math.Sqrt(fn*fn+2.0*k2*(sliceFar*sliceFar+sliceNear*sliceNear)+fp*fp*k2*k2)
	return math.Sphere{Center: center, Radius: radius}
}

// ComputeDirectionalCascade builds the light view and orthographic
// projection that render one cascade. The view is snapped to shadowmap
// texel increments so the rasterized silhouette does not shimmer as the
// camera translates.
func ComputeDirectionalCascade(light *metadata.Light, sphere math.Sphere, tileResolution uint32, nearPlaneOffset float32) (math.Mat4, math.Mat4) {
	dir := light.Direction.Normalized()
	up := math.Vec3{Y: 1.0}
	if math.Abs(dir.Dot(up)) > 0.999 {
		up = math.Vec3{Z: 1.0}
	}

	eye := sphere.Center.Sub(dir.MulScalar(sphere.Radius + nearPlaneOffset))
	view := math.NewMat4LookAt(eye, sphere.Center, up)

	// snap the light-space centre to whole texels
	texelSize := (2.0 * sphere.Radius) / float32(tileResolution)
	lsCenter := sphere.Center.Transform(view)
	snap := math.Vec3{
		X: math.Floor(lsCenter.X/texelSize)*texelSize - lsCenter.X,
		Y: math.Floor(lsCenter.Y/texelSize)*texelSize - lsCenter.Y,
	}
	view = view.Mul(math.NewMat4Translation(snap))

	r := sphere.Radius
	proj := math.NewMat4Orthographic(-r, r, -r, r, 0.0, 2.0*r+nearPlaneOffset)
	return view, proj
}

// ComputeSpotShadow builds the light matrices for a spot light's single
// shadow tile. The perspective cone matches the light's outer angle and
// reaches to its range.
func ComputeSpotShadow(light *metadata.Light, nearPlaneOffset float32) (math.Mat4, math.Mat4) {
	dir := light.Direction.Normalized()
	up := math.Vec3{Y: 1.0}
	if math.Abs(dir.Dot(up)) > 0.999 {
		up = math.Vec3{Z: 1.0}
	}
	near := nearPlaneOffset
	if near < 0.1 {
		near = 0.1
	}
	view := math.NewMat4LookAt(light.Position, light.Position.Add(dir), up)
	proj := math.NewMat4Perspective(math.DegToRad(light.SpotAngle), 1.0, near, light.Range)
	return view, proj
}

// ApplyReversedZ flips the depth output of a projection matrix for
// platforms that store 1.0 at the near plane. Only the column feeding
// clip-space z changes; x, y and w pass through untouched.
func ApplyReversedZ(proj math.Mat4) math.Mat4 {
	proj.Data[2] = -proj.Data[2]
	proj.Data[6] = -proj.Data[6]
	proj.Data[10] = -proj.Data[10]
	proj.Data[14] = -proj.Data[14]
	return proj
}

// ComputeCasterBias packs the depth and normal-offset bias applied while
// rasterizing shadow casters. Directional lights scale the user depth bias
// by the projection's depth range so a single setting behaves the same
// across cascade sizes; the normal bias grows with the world-space texel
// footprint and the filter kernel radius.
func ComputeCasterBias(light *metadata.Light, proj math.Mat4, sphereRadius float32, tileResolution uint32, reversedZ bool) math.Vec4 {
	sign := float32(1.0)
	if reversedZ {
		sign = -1.0
	}
	switch light.LightType {
	case metadata.LIGHT_TYPE_DIRECTIONAL:
		depthBias := light.ShadowBias * proj.Data[10] * sign
		texelSize := (2.0 * sphereRadius) / float32(tileResolution)
		normalBias := -light.ShadowNormalBias * texelSize * shadowSofteningRadius
		return math.NewVec4(depthBias, normalBias, 0.0, 0.0)
	case metadata.LIGHT_TYPE_SPOT:
		return math.NewVec4(light.ShadowBias*sign, 0.0, 0.0, 0.0)
	default:
		return math.NewVec4(0.0, 0.0, 0.0, 0.0)
	}
}

// NoOpShadowMatrix is stored past the last cascade so the shader's cascade
// selection can index one slot out of range without branching. The matrix
// collapses every position to a depth that always resolves to lit.
func NoOpShadowMatrix(reversedZ bool) math.Mat4 {
	out := math.NewMat4Zero()
	if reversedZ {
		out.Data[10] = 1.0
	}
	return out
}
