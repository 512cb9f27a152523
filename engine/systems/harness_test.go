package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type blitCall struct {
	src      metadata.TargetID
	dst      metadata.TargetID
	material string
}

// recordingBackend captures every command the pipeline records so tests
// can assert on ordering, resource lifetimes and uploaded constants.
type recordingBackend struct {
	vectors      map[metadata.ConstantID]math.Vec4
	vectorArrays map[metadata.ConstantID][]math.Vec4
	matrices     map[metadata.ConstantID]math.Mat4
	matrixArrays map[metadata.ConstantID][]math.Mat4
	textures     map[metadata.ConstantID]metadata.TargetID
	keywords     map[string]bool

	live         map[metadata.TargetID]bool
	acquires     map[metadata.TargetID]int
	releases     map[metadata.TargetID]int
	releaseCalls map[metadata.TargetID]int
	// dirtyAcquire flips when a camera target is acquired while another
	// camera's temporaries are still live
	dirtyAcquire bool

	draws       []metadata.DrawSettings
	cameraProps []metadata.CameraProperties
	blits       []blitCall
	viewports   []metadata.Viewport
	clears      int
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		vectors:      make(map[metadata.ConstantID]math.Vec4),
		vectorArrays: make(map[metadata.ConstantID][]math.Vec4),
		matrices:     make(map[metadata.ConstantID]math.Mat4),
		matrixArrays: make(map[metadata.ConstantID][]math.Mat4),
		textures:     make(map[metadata.ConstantID]metadata.TargetID),
		keywords:     make(map[string]bool),
		live:         make(map[metadata.TargetID]bool),
		acquires:     make(map[metadata.TargetID]int),
		releases:     make(map[metadata.TargetID]int),
		releaseCalls: make(map[metadata.TargetID]int),
	}
}

func (rb *recordingBackend) GetTemporaryTexture(id metadata.TargetID, desc metadata.TextureDescriptor) {
	if id == metadata.TARGET_CAMERA_COLOR && len(rb.live) > 0 {
		rb.dirtyAcquire = true
	}
	rb.live[id] = true
	rb.acquires[id]++
}

func (rb *recordingBackend) ReleaseTemporaryTexture(id metadata.TargetID) {
	rb.releaseCalls[id]++
	if rb.live[id] {
		delete(rb.live, id)
		rb.releases[id]++
	}
}

func (rb *recordingBackend) SetupCameraProperties(props metadata.CameraProperties) {
	rb.cameraProps = append(rb.cameraProps, props)
}

func (rb *recordingBackend) SetRenderTarget(colour, depth metadata.TargetID) {}

func (rb *recordingBackend) Clear(flags metadata.ClearFlag, colour math.Vec4, depth float32) {
	rb.clears++
}

func (rb *recordingBackend) SetViewport(viewport metadata.Viewport) {
	rb.viewports = append(rb.viewports, viewport)
}

func (rb *recordingBackend) DrawRenderers(settings metadata.DrawSettings) {
	rb.draws = append(rb.draws, settings)
}

func (rb *recordingBackend) Blit(src, dst metadata.TargetID, material string) {
	rb.blits = append(rb.blits, blitCall{src: src, dst: dst, material: material})
}

func (rb *recordingBackend) SetGlobalVector(id metadata.ConstantID, value math.Vec4) {
	rb.vectors[id] = value
}

func (rb *recordingBackend) SetGlobalVectorArray(id metadata.ConstantID, values []math.Vec4) {
	rb.vectorArrays[id] = append([]math.Vec4(nil), values...)
}

func (rb *recordingBackend) SetGlobalMatrix(id metadata.ConstantID, value math.Mat4) {
	rb.matrices[id] = value
}

func (rb *recordingBackend) SetGlobalMatrixArray(id metadata.ConstantID, values []math.Mat4) {
	rb.matrixArrays[id] = append([]math.Mat4(nil), values...)
}

func (rb *recordingBackend) SetGlobalTexture(id metadata.ConstantID, target metadata.TargetID) {
	rb.textures[id] = target
}

func (rb *recordingBackend) SetKeyword(keyword string, enabled bool) {
	rb.keywords[keyword] = enabled
}

func (rb *recordingBackend) passNames() []string {
	names := make([]string, 0, len(rb.draws))
	for _, d := range rb.draws {
		names = append(names, d.PassName)
	}
	return names
}

// fakeCuller hands back canned visibility and caster bounds.
type fakeCuller struct {
	lights []metadata.VisibleLight
	bounds math.Extents3D
	// cascades with casters before the bounds query starts failing;
	// negative means unlimited
	casterBudget int
	failFor      map[string]bool

	visibilityOrder []string
	boundsQueries   int
}

func newFakeCuller(lights ...*metadata.Light) *fakeCuller {
	fc := &fakeCuller{
		bounds: math.Extents3D{
			Min: math.NewVec3(-50, -50, -50),
			Max: math.NewVec3(50, 50, 50),
		},
		casterBudget: -1,
		failFor:      make(map[string]bool),
	}
	for i, l := range lights {
		fc.lights = append(fc.lights, metadata.VisibleLight{Light: l, Index: i})
	}
	return fc
}

func (fc *fakeCuller) GetVisibility(camera *components.Camera, maxShadowDistance float32) (*CullResults, error) {
	fc.visibilityOrder = append(fc.visibilityOrder, camera.Name)
	if fc.failFor[camera.Name] {
		return nil, fmt.Errorf("func GetVisibility - scene backend rejected camera '%s': %w", camera.Name, core.ErrCullingFailed)
	}
	return &CullResults{
		VisibleLights:     fc.lights,
		MaxShadowDistance: math.Min(maxShadowDistance, camera.FarClip),
	}, nil
}

func (fc *fakeCuller) GetShadowCasterBounds(cullingSphere math.Sphere) (math.Extents3D, error) {
	fc.boundsQueries++
	if fc.casterBudget >= 0 && fc.boundsQueries > fc.casterBudget {
		return math.Extents3D{}, core.ErrNoCasterBounds
	}
	return fc.bounds, nil
}

func directionalLight(intensity float32, shadows metadata.ShadowQuality) *metadata.Light {
	return &metadata.Light{
		LightType:        metadata.LIGHT_TYPE_DIRECTIONAL,
		Direction:        math.NewVec3(0.3, -0.8, 0.5).Normalized(),
		Colour:           math.NewVec4(1, 1, 1, 1),
		Intensity:        intensity,
		Shadows:          shadows,
		ShadowStrength:   0.9,
		ShadowBias:       1.0,
		ShadowNormalBias: 1.0,
	}
}

func defaultShadowSettings() metadata.ShadowSettings {
	return metadata.ShadowSettings{
		Enabled:           true,
		AtlasWidth:        2048,
		AtlasHeight:       2048,
		CascadeCount:      4,
		SplitRatios:       metadata.SplitRatiosForCascadeCount(4),
		MaxShadowDistance: 100.0,
		NearPlaneOffset:   2.0,
		ScreenSpace:       false,
		DepthBias:         1.0,
		NormalBias:        1.0,
		SoftShadows:       true,
		ShadowmapFormat:   metadata.TEXTURE_FORMAT_SHADOWMAP,
		ScreenSpaceFormat: metadata.TEXTURE_FORMAT_R8,
	}
}

func defaultCaps() metadata.PlatformCaps {
	return metadata.PlatformCaps{
		ReversedZ:          true,
		StereoSupported:    false,
		MSAABackbuffer:     false,
		FastTextureCopy:    true,
		DepthCopyShader:    true,
		ScreenSpaceShadows: true,
		MaxSampleCount:     8,
		MaxCascades:        metadata.MaxShadowCascades,
	}
}
