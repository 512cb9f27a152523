package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// CullResults is one camera's view of the scene for one frame.
type CullResults struct {
	VisibleLights    []metadata.VisibleLight
	VisibleRenderers []*metadata.Renderable
	// MaxShadowDistance is the effective shadow reach for this camera,
	// already clamped to its far plane.
	MaxShadowDistance float32
}

// Culler answers the pipeline's two visibility questions. The scene
// representation behind it is not the pipeline's concern.
type Culler interface {
	// GetVisibility culls the scene against the camera frustum.
	// Scene-preview cameras additionally receive editor gizmo geometry.
	GetVisibility(camera *components.Camera, maxShadowDistance float32) (*CullResults, error)
	// GetShadowCasterBounds bounds every shadow caster that can touch
	// the given cascade culling sphere, visible on screen or not.
	// Returns core.ErrNoCasterBounds when nothing casts into the sphere.
	GetShadowCasterBounds(cullingSphere math.Sphere) (math.Extents3D, error)
}

// SceneCuller is a plane-test culler over a flat scene list.
type SceneCuller struct {
	lights      []*metadata.Light
	renderables []*metadata.Renderable
}

func NewSceneCuller() *SceneCuller {
	return &SceneCuller{}
}

func (sc *SceneCuller) AddLight(light *metadata.Light) {
	sc.lights = append(sc.lights, light)
}

func (sc *SceneCuller) AddRenderable(renderable *metadata.Renderable) {
	sc.renderables = append(sc.renderables, renderable)
}

// frustumPlanes extracts the six clip planes from a view-projection
// matrix (Gribb/Hartmann). Plane normals point inward.
func frustumPlanes(viewProjection math.Mat4) [6]math.Vec4 {
	d := viewProjection.Data
	column := func(c int) math.Vec4 {
		return math.NewVec4(d[c], d[4+c], d[8+c], d[12+c])
	}
	c0, c1, c2, c3 := column(0), column(1), column(2), column(3)

	planes := [6]math.Vec4{
		c3.Add(c0), // left
		c3.Sub(c0), // right
		c3.Add(c1), // bottom
		c3.Sub(c1), // top
		c3.Add(c2), // near
		c3.Sub(c2), // far
	}
	for i := range planes {
		n := math.Vec3{X: planes[i].X, Y: planes[i].Y, Z: planes[i].Z}
		length := n.Length()
		if length > math.Epsilon {
			planes[i] = planes[i].MulScalar(1.0 / length)
		}
	}
	return planes
}

// boundsInFrustum tests an AABB with the most-positive-vertex trick: if
// the corner furthest along a plane normal is behind that plane, the
// whole box is out.
func boundsInFrustum(planes [6]math.Vec4, bounds math.Extents3D) bool {
	for _, p := range planes {
		positive := bounds.Min
		if p.X >= 0 {
			positive.X = bounds.Max.X
		}
		if p.Y >= 0 {
			positive.Y = bounds.Max.Y
		}
		if p.Z >= 0 {
			positive.Z = bounds.Max.Z
		}
		if p.X*positive.X+p.Y*positive.Y+p.Z*positive.Z+p.W < 0 {
			return false
		}
	}
	return true
}

func sphereInFrustum(planes [6]math.Vec4, center math.Vec3, radius float32) bool {
	for _, p := range planes {
		if p.X*center.X+p.Y*center.Y+p.Z*center.Z+p.W < -radius {
			return false
		}
	}
	return true
}

func (sc *SceneCuller) GetVisibility(camera *components.Camera, maxShadowDistance float32) (*CullResults, error) {
	if camera.NearClip <= 0 || camera.FarClip <= camera.NearClip || camera.Aspect <= 0 {
		return nil, fmt.Errorf("func GetVisibility - camera '%s' has a degenerate frustum: %w", camera.Name, core.ErrCullingFailed)
	}

	planes := frustumPlanes(camera.GetView().Mul(camera.GetProjection()))
	includeGizmos := camera.Kind == components.CAMERA_KIND_SCENE_PREVIEW

	results := &CullResults{
		MaxShadowDistance: math.Min(maxShadowDistance, camera.FarClip),
	}
	for _, r := range sc.renderables {
		if r.EditorGizmo && !includeGizmos {
			continue
		}
		if boundsInFrustum(planes, r.Bounds) {
			results.VisibleRenderers = append(results.VisibleRenderers, r)
		}
	}
	for _, l := range sc.lights {
		visible := l.LightType == metadata.LIGHT_TYPE_DIRECTIONAL ||
			sphereInFrustum(planes, l.Position, l.Range)
		if visible {
			results.VisibleLights = append(results.VisibleLights, metadata.VisibleLight{
				Light: l,
				Index: len(results.VisibleLights),
			})
		}
	}
	return results, nil
}

func (sc *SceneCuller) GetShadowCasterBounds(cullingSphere math.Sphere) (math.Extents3D, error) {
	var bounds math.Extents3D
	found := false
	for _, r := range sc.renderables {
		if !r.CastsShadows || r.EditorGizmo {
			continue
		}
		if !r.Bounds.IntersectsSphere(cullingSphere) {
			continue
		}
		if !found {
			bounds = r.Bounds
			found = true
			continue
		}
		bounds = bounds.Union(r.Bounds)
	}
	if !found {
		return math.Extents3D{}, core.ErrNoCasterBounds
	}
	return bounds, nil
}
