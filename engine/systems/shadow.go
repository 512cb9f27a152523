package systems

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// MainLightShadowSystem renders the frame's main light into the shadow
// atlas and publishes the sampling constants. Its per-frame buffers have
// fixed capacity and are overwritten every frame; the system allocates
// nothing per frame.
type MainLightShadowSystem struct {
	settings  metadata.ShadowSettings
	caps      metadata.PlatformCaps
	constants *metadata.ShaderConstants
	culler    Culler

	slices [metadata.MaxShadowCascades]ShadowSliceData
	// one slot past the last cascade carries the terminal no-op matrix
	shadowMatrices [metadata.MaxShadowCascades + 1]math.Mat4
	splitSpheres   [metadata.MaxShadowCascades]math.Vec4
	sliceCount     int
	tileResolution uint32
	lastLight      *metadata.Light
	lastState      ShadowFrameState
	atlasAcquired  bool
	atlasDebugName string
}

func NewMainLightShadowSystem(settings metadata.ShadowSettings, caps metadata.PlatformCaps, constants *metadata.ShaderConstants, culler Culler) *MainLightShadowSystem {
	return &MainLightShadowSystem{
		settings:       settings,
		caps:           caps,
		constants:      constants,
		culler:         culler,
		atlasDebugName: fmt.Sprintf("shadow-atlas-%s", uuid.New().String()),
	}
}

// UpdateSettings swaps in the shadow block of a reloaded pipeline asset.
// Takes effect from the next frame.
func (mls *MainLightShadowSystem) UpdateSettings(settings metadata.ShadowSettings) {
	mls.settings = settings
}

// RenderShadows records the shadow atlas pass for the camera's main light
// and reports what it produced. Any degenerate condition degrades the
// frame to unshadowed rendering rather than failing it.
func (mls *MainLightShadowSystem) RenderShadows(backend renderer.Backend, camera *components.Camera, cull *CullResults, lightData *metadata.LightData) ShadowFrameState {
	mls.sliceCount = 0
	mls.lastLight = nil
	mls.lastState = ShadowFrameState{}

	if !mls.settings.Enabled || lightData.MainLightIndex == metadata.NoMainLight {
		return mls.lastState
	}
	light := cull.VisibleLights[lightData.MainLightIndex].Light
	if light.Shadows == metadata.SHADOW_QUALITY_NONE {
		return mls.lastState
	}
	if !light.LightType.SupportsShadows() {
		core.LogWarn("func RenderShadows - %s lights cannot cast shadows; skipping: %v", light.LightType, core.ErrUnsupportedShadowCaster)
		return mls.lastState
	}

	cascadeCount := mls.settings.CascadeCount
	if light.LightType == metadata.LIGHT_TYPE_SPOT {
		cascadeCount = 1
	}
	tileResolution, err := PlanTileResolution(mls.settings.AtlasWidth, mls.settings.AtlasHeight, cascadeCount)
	if err != nil {
		core.LogWarn("func RenderShadows - %v; rendering without shadows", err)
		return mls.lastState
	}
	mls.tileResolution = tileResolution

	if !mls.computeSlices(camera, light, cascadeCount, cull.MaxShadowDistance) {
		return mls.lastState
	}

	mls.recordAtlasPass(backend, light)

	quality := metadata.SHADOW_QUALITY_HARD
	if mls.settings.SoftShadows && light.Shadows == metadata.SHADOW_QUALITY_SOFT {
		quality = metadata.SHADOW_QUALITY_SOFT
	}
	lightData.MainLightShadows = quality

	mls.lastLight = light
	mls.lastState = ShadowFrameState{
		Rendered:    true,
		ScreenSpace: mls.settings.ScreenSpace,
		Quality:     quality,
	}
	return mls.lastState
}

// computeSlices fills the per-cascade scratch. Cascades are computed in
// order and the loop stops at the first one without caster geometry;
// later cascades cover strictly farther scenery, so their matrices would
// sample nothing either.
func (mls *MainLightShadowSystem) computeSlices(camera *components.Camera, light *metadata.Light, cascadeCount int, shadowDistance float32) bool {
	for i := 0; i < cascadeCount; i++ {
		var view, proj math.Mat4
		var sphere math.Sphere

		if light.LightType == metadata.LIGHT_TYPE_DIRECTIONAL {
			near, far := CascadeSplitRange(i, cascadeCount, mls.settings.SplitRatios, camera.NearClip, shadowDistance)
			sphere = ComputeCascadeSplitSphere(camera.Position, camera.Forward(), camera.FOV, camera.Aspect, near, far)
		} else {
			sphere = math.Sphere{Center: light.Position, Radius: light.Range}
		}

		if _, err := mls.culler.GetShadowCasterBounds(sphere); err != nil {
			if errors.Is(err, core.ErrNoCasterBounds) {
				core.LogDebug("cascade %d has no shadow casters; stopping at %d slices", i, mls.sliceCount)
				break
			}
			core.LogWarn("func computeSlices - caster bounds query failed: %v", err)
			break
		}

		if light.LightType == metadata.LIGHT_TYPE_DIRECTIONAL {
			view, proj = ComputeDirectionalCascade(light, sphere, mls.tileResolution, mls.settings.NearPlaneOffset)
		} else {
			view, proj = ComputeSpotShadow(light, mls.settings.NearPlaneOffset)
		}
		if mls.caps.ReversedZ {
			proj = ApplyReversedZ(proj)
		}

		x, y, tileTransform, err := PlanTileTransform(i, mls.tileResolution, mls.settings.AtlasWidth, mls.settings.AtlasHeight)
		if err != nil {
			core.LogError("func computeSlices - %v", err)
			break
		}

		mls.slices[i] = ShadowSliceData{
			OffsetX:         x,
			OffsetY:         y,
			Resolution:      mls.tileResolution,
			ViewMatrix:      view,
			ProjMatrix:      proj,
			ShadowTransform: view.Mul(proj).Mul(tileTransform),
			SplitSphere:     sphere,
		}
		mls.splitSpheres[i] = math.NewVec4FromVec3(sphere.Center, sphere.Radius)
		mls.sliceCount = i + 1
	}
	return mls.sliceCount > 0
}

// recordAtlasPass acquires the atlas and records one depth-only draw per
// slice into its tile.
func (mls *MainLightShadowSystem) recordAtlasPass(backend renderer.Backend, light *metadata.Light) {
	backend.GetTemporaryTexture(metadata.TARGET_SHADOWMAP, metadata.TextureDescriptor{
		Width:       mls.settings.AtlasWidth,
		Height:      mls.settings.AtlasHeight,
		Format:      mls.settings.ShadowmapFormat,
		SampleCount: 1,
		DebugName:   mls.atlasDebugName,
	})
	mls.atlasAcquired = true

	backend.SetRenderTarget(metadata.TARGET_NONE, metadata.TARGET_SHADOWMAP)
	clearDepth := float32(1.0)
	if mls.caps.ReversedZ {
		clearDepth = 0.0
	}
	backend.Clear(metadata.CLEAR_DEPTH_FLAG, math.NewVec4(0, 0, 0, 0), clearDepth)

	for i := 0; i < mls.sliceCount; i++ {
		slice := &mls.slices[i]
		backend.SetViewport(metadata.Viewport{
			X:      float32(slice.OffsetX),
			Y:      float32(slice.OffsetY),
			Width:  float32(slice.Resolution),
			Height: float32(slice.Resolution),
		})
		backend.SetGlobalVector(mls.constants.ShadowBias,
			ComputeCasterBias(light, slice.ProjMatrix, slice.SplitSphere.Radius, slice.Resolution, mls.caps.ReversedZ))
		backend.SetupCameraProperties(metadata.CameraProperties{
			View:       slice.ViewMatrix,
			Projection: slice.ProjMatrix,
			Eye:        metadata.STEREO_EYE_MONO,
		})
		backend.DrawRenderers(metadata.DrawSettings{
			Queue:    metadata.RENDER_QUEUE_OPAQUE,
			Sort:     metadata.SORT_FLAGS_FRONT_TO_BACK,
			PassName: metadata.PASS_SHADOW_CASTER,
		})
	}
}

// SetupShadowConstants publishes the sampling surface for the slices the
// last RenderShadows produced. Unrendered cascade slots get identity
// matrices and the slot past the last cascade gets the terminal no-op
// matrix, so shader-side cascade selection never reads garbage.
func (mls *MainLightShadowSystem) SetupShadowConstants(backend renderer.Backend) {
	if mls.sliceCount == 0 || mls.lastLight == nil {
		return
	}

	for i := 0; i < metadata.MaxShadowCascades; i++ {
		if i < mls.sliceCount {
			mls.shadowMatrices[i] = mls.slices[i].ShadowTransform
		} else {
			mls.shadowMatrices[i] = math.NewMat4Identity()
		}
	}
	mls.shadowMatrices[metadata.MaxShadowCascades] = NoOpShadowMatrix(mls.caps.ReversedZ)

	spheres := make([]math.Vec4, metadata.MaxShadowCascades)
	radiiSq := math.NewVec4(0, 0, 0, 0)
	for i := 0; i < mls.sliceCount; i++ {
		spheres[i] = mls.splitSpheres[i]
		r := mls.splitSpheres[i].W
		switch i {
		case 0:
			radiiSq.X = r * r
		case 1:
			radiiSq.Y = r * r
		case 2:
			radiiSq.Z = r * r
		case 3:
			radiiSq.W = r * r
		}
	}

	atlasW := float32(mls.settings.AtlasWidth)
	atlasH := float32(mls.settings.AtlasHeight)
	halfTexelX := 0.5 / atlasW
	halfTexelY := 0.5 / atlasH

	backend.SetGlobalMatrixArray(mls.constants.WorldToShadow, mls.shadowMatrices[:])
	backend.SetGlobalVector(mls.constants.ShadowData, math.NewVec4(mls.lastLight.ShadowStrength, 0, 0, 0))
	backend.SetGlobalVectorArray(mls.constants.DirShadowSplitSpheres, spheres)
	backend.SetGlobalVector(mls.constants.DirShadowSplitSphereRadii, radiiSq)
	backend.SetGlobalVector(mls.constants.ShadowOffset0, math.NewVec4(-halfTexelX, -halfTexelY, 0, 0))
	backend.SetGlobalVector(mls.constants.ShadowOffset1, math.NewVec4(halfTexelX, -halfTexelY, 0, 0))
	backend.SetGlobalVector(mls.constants.ShadowOffset2, math.NewVec4(-halfTexelX, halfTexelY, 0, 0))
	backend.SetGlobalVector(mls.constants.ShadowOffset3, math.NewVec4(halfTexelX, halfTexelY, 0, 0))
	backend.SetGlobalVector(mls.constants.ShadowmapSize, math.NewVec4(1.0/atlasW, 1.0/atlasH, atlasW, atlasH))
	backend.SetGlobalTexture(mls.constants.ShadowmapTexture, metadata.TARGET_SHADOWMAP)
}

// SliceCount reports how many atlas tiles the last RenderShadows filled.
func (mls *MainLightShadowSystem) SliceCount() int {
	return mls.sliceCount
}

// ReleaseTargets returns the shadow atlas to the backend. Safe to call
// when nothing was acquired, and safe to call twice.
func (mls *MainLightShadowSystem) ReleaseTargets(backend renderer.Backend) {
	if !mls.atlasAcquired {
		return
	}
	backend.ReleaseTemporaryTexture(metadata.TARGET_SHADOWMAP)
	mls.atlasAcquired = false
}
