package systems

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// ForwardRenderer sequences one frame of forward rendering across every
// active camera: culling, light setup, shadows, frame configuration,
// depth, opaques, transparents and final resolve, all recorded against
// the draw backend.
type ForwardRenderer struct {
	backend   renderer.Backend
	culler    Culler
	constants *metadata.ShaderConstants
	caps      metadata.PlatformCaps
	shadows   *MainLightShadowSystem

	quality        metadata.QualitySettings
	shadowSettings metadata.ShadowSettings

	width  uint32
	height uint32

	debugMode metadata.RendererDebugViewMode

	// temporaries acquired for the camera currently rendering
	acquired []metadata.TargetID
	frameID  string
}

func NewForwardRenderer(backend renderer.Backend, culler Culler, asset *assets.PipelineAsset, caps metadata.PlatformCaps, width, height uint32) (*ForwardRenderer, error) {
	if backend == nil || culler == nil {
		return nil, fmt.Errorf("func NewForwardRenderer - backend and culler are required")
	}
	if asset == nil {
		asset = assets.DefaultPipelineAsset()
	}
	fr := &ForwardRenderer{
		backend:   backend,
		culler:    culler,
		constants: metadata.NewShaderConstants(),
		caps:      caps,
		width:     width,
		height:    height,
		acquired:  make([]metadata.TargetID, 0, 8),
		frameID:   uuid.New().String(),
	}
	fr.applySettings(asset)
	fr.shadows = NewMainLightShadowSystem(fr.shadowSettings, caps, fr.constants, culler)

	core.LogInfo("forward renderer ready: %dx%d, %d cascades, reversed-z=%t",
		width, height, fr.shadowSettings.CascadeCount, caps.ReversedZ)
	return fr, nil
}

func (fr *ForwardRenderer) applySettings(asset *assets.PipelineAsset) {
	fr.shadowSettings = asset.ResolveShadowSettings(fr.caps)
	fr.quality = asset.ResolveQualitySettings(fr.caps)
}

// ApplyAsset re-resolves a hot-reloaded pipeline asset. Takes effect at
// the next frame boundary.
func (fr *ForwardRenderer) ApplyAsset(asset *assets.PipelineAsset) {
	if asset == nil {
		return
	}
	fr.applySettings(asset)
	fr.shadows.UpdateSettings(fr.shadowSettings)
	core.LogInfo("pipeline asset applied: shadows=%t atlas=%dx%d msaa=%d scale=%.2f",
		fr.shadowSettings.Enabled, fr.shadowSettings.AtlasWidth, fr.shadowSettings.AtlasHeight,
		fr.quality.MSAASamples, fr.quality.RenderScale)
}

// Resize tracks the backbuffer size used for intermediate targets.
func (fr *ForwardRenderer) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	fr.width = width
	fr.height = height
}

// SetDebugViewMode switches the debug visualization uploaded to shaders.
func (fr *ForwardRenderer) SetDebugViewMode(mode metadata.RendererDebugViewMode) {
	fr.debugMode = mode
}

// Constants exposes the property handle registry, mainly for the frame
// loop owner to bind its own globals.
func (fr *ForwardRenderer) Constants() *metadata.ShaderConstants {
	return fr.constants
}

// RenderFrame renders every camera for one frame, ordered by camera
// depth. Cameras at equal depth keep their submission order. A camera
// that fails to cull is skipped with its output untouched; the remaining
// cameras still render.
func (fr *ForwardRenderer) RenderFrame(cameras []*components.Camera) {
	if len(cameras) == 0 {
		return
	}
	ordered := make([]*components.Camera, len(cameras))
	copy(ordered, cameras)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Depth < ordered[j].Depth
	})

	for _, camera := range ordered {
		fr.renderCamera(camera)
	}
}

// renderCamera is the per-camera recovery boundary: every temporary the
// camera acquires is released on every exit path, so the next camera
// starts from a clean resource state.
func (fr *ForwardRenderer) renderCamera(camera *components.Camera) {
	defer fr.releaseTemporaries()

	cull, err := fr.culler.GetVisibility(camera, fr.shadowSettings.MaxShadowDistance)
	if err != nil {
		core.LogWarn("func renderCamera - culling camera '%s' failed, skipping it: %v", camera.Name, err)
		return
	}

	lightData := SetupLights(cull.VisibleLights)

	shadowState := ShadowFrameState{}
	if fr.shadowSettings.Enabled {
		shadowState = fr.shadows.RenderShadows(fr.backend, camera, cull, &lightData)
	}

	cfg, singleColourCopy := ResolveFrameConfiguration(camera, fr.quality, fr.caps, shadowState)
	colourTarget, depthTarget := fr.setupIntermediateResources(cfg, camera)

	fr.backend.SetupCameraProperties(metadata.CameraProperties{
		View:       camera.GetView(),
		Projection: fr.cameraProjection(camera),
		Eye:        fr.eyeFor(cfg),
	})

	if cfg.Has(metadata.FRAME_CONFIGURATION_DEPTH_PRE_PASS) {
		fr.depthPrePass()
	}

	if shadowState.Rendered && shadowState.ScreenSpace {
		fr.collectScreenSpaceShadows()
	}

	fr.setupShaderConstants(cull, lightData, shadowState)

	fr.beginForwardRendering(cfg, camera, colourTarget, depthTarget)
	fr.backend.DrawRenderers(metadata.DrawSettings{
		Queue:    metadata.RENDER_QUEUE_OPAQUE,
		Sort:     metadata.SORT_FLAGS_FRONT_TO_BACK,
		PassName: metadata.PASS_FORWARD_LIT,
	})
	fr.afterOpaque(cfg, singleColourCopy, colourTarget, depthTarget)
	fr.backend.DrawRenderers(metadata.DrawSettings{
		Queue:    metadata.RENDER_QUEUE_TRANSPARENT,
		Sort:     metadata.SORT_FLAGS_BACK_TO_FRONT,
		PassName: metadata.PASS_FORWARD_LIT,
	})
	fr.afterTransparent(cfg, colourTarget)
	fr.endForwardRendering(cfg, camera, colourTarget)
}

func (fr *ForwardRenderer) cameraProjection(camera *components.Camera) math.Mat4 {
	proj := camera.GetProjection()
	if fr.caps.ReversedZ {
		proj = ApplyReversedZ(proj)
	}
	return proj
}

func (fr *ForwardRenderer) eyeFor(cfg metadata.FrameRenderingConfiguration) metadata.StereoEye {
	if cfg.Has(metadata.FRAME_CONFIGURATION_STEREO) {
		return metadata.STEREO_EYE_BOTH
	}
	return metadata.STEREO_EYE_MONO
}

// scaledSize applies the render scale to the backbuffer size for
// intermediate targets.
func (fr *ForwardRenderer) scaledSize() (uint32, uint32) {
	scale := fr.quality.RenderScale
	if scale <= 0 || scale > 1.0 {
		scale = 1.0
	}
	w := uint32(float32(fr.width) * scale)
	h := uint32(float32(fr.height) * scale)
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return w, h
}

// acquire requests a temporary target and remembers it for release at
// the camera boundary.
func (fr *ForwardRenderer) acquire(id metadata.TargetID, desc metadata.TextureDescriptor) {
	fr.backend.GetTemporaryTexture(id, desc)
	fr.acquired = append(fr.acquired, id)
}

func (fr *ForwardRenderer) releaseTemporaries() {
	for _, id := range fr.acquired {
		fr.backend.ReleaseTemporaryTexture(id)
	}
	fr.acquired = fr.acquired[:0]
	fr.shadows.ReleaseTargets(fr.backend)
}

// setupIntermediateResources acquires the camera colour/depth targets the
// resolved configuration calls for, and returns the targets the forward
// passes render into.
func (fr *ForwardRenderer) setupIntermediateResources(cfg metadata.FrameRenderingConfiguration, camera *components.Camera) (metadata.TargetID, metadata.TargetID) {
	colourTarget := metadata.TARGET_BACKBUFFER
	depthTarget := metadata.TARGET_NONE

	if camera.TargetTexture != nil {
		// offscreen cameras render straight into their own texture,
		// with a matching depth attachment alongside
		colourTarget = metadata.TARGET_CAMERA_COLOR
		fr.acquire(metadata.TARGET_CAMERA_COLOR, *camera.TargetTexture)
		depthTarget = metadata.TARGET_CAMERA_DEPTH
		fr.acquire(metadata.TARGET_CAMERA_DEPTH, metadata.TextureDescriptor{
			Width:       camera.TargetTexture.Width,
			Height:      camera.TargetTexture.Height,
			Format:      metadata.TEXTURE_FORMAT_DEPTH32F,
			SampleCount: camera.TargetTexture.SampleCount,
			DebugName:   fmt.Sprintf("camera-depth-%s", fr.frameID),
		})
	} else if cfg.Has(metadata.FRAME_CONFIGURATION_INTERMEDIATE_TEXTURE) {
		w, h := fr.scaledSize()
		format := metadata.TEXTURE_FORMAT_RGBA8
		if camera.HDR {
			format = metadata.TEXTURE_FORMAT_RGBA16F
		}
		samples := uint32(1)
		if cfg.Has(metadata.FRAME_CONFIGURATION_MSAA) {
			samples = fr.quality.MSAASamples
		}
		colourTarget = metadata.TARGET_CAMERA_COLOR
		fr.acquire(metadata.TARGET_CAMERA_COLOR, metadata.TextureDescriptor{
			Width: w, Height: h, Format: format, SampleCount: samples,
			DebugName: fmt.Sprintf("camera-colour-%s", fr.frameID),
		})
		depthTarget = metadata.TARGET_CAMERA_DEPTH
		fr.acquire(metadata.TARGET_CAMERA_DEPTH, metadata.TextureDescriptor{
			Width: w, Height: h, Format: metadata.TEXTURE_FORMAT_DEPTH32F, SampleCount: samples,
			DebugName: fmt.Sprintf("camera-depth-%s", fr.frameID),
		})
	}

	if cfg.Has(metadata.FRAME_CONFIGURATION_DEPTH_PRE_PASS) || cfg.Has(metadata.FRAME_CONFIGURATION_DEPTH_COPY) {
		w, h := fr.scaledSize()
		fr.acquire(metadata.TARGET_DEPTH_TEXTURE, metadata.TextureDescriptor{
			Width: w, Height: h, Format: metadata.TEXTURE_FORMAT_DEPTH32F, SampleCount: 1,
			DebugName: fmt.Sprintf("depth-texture-%s", fr.frameID),
		})
	}
	return colourTarget, depthTarget
}

// depthPrePass populates the depth texture before the opaque pass needs
// to read it.
func (fr *ForwardRenderer) depthPrePass() {
	fr.backend.SetRenderTarget(metadata.TARGET_NONE, metadata.TARGET_DEPTH_TEXTURE)
	fr.backend.Clear(metadata.CLEAR_DEPTH_FLAG, math.NewVec4(0, 0, 0, 0), fr.clearDepth())
	fr.backend.DrawRenderers(metadata.DrawSettings{
		Queue:    metadata.RENDER_QUEUE_OPAQUE,
		Sort:     metadata.SORT_FLAGS_FRONT_TO_BACK,
		PassName: metadata.PASS_DEPTH_ONLY,
	})
	fr.backend.SetGlobalTexture(fr.constants.CameraDepthTexture, metadata.TARGET_DEPTH_TEXTURE)
}

// collectScreenSpaceShadows resolves the shadow atlas against scene depth
// into a full-screen shadow mask sampled by the lit pass.
func (fr *ForwardRenderer) collectScreenSpaceShadows() {
	w, h := fr.scaledSize()
	fr.acquire(metadata.TARGET_SCREENSPACE_SHADOWMAP, metadata.TextureDescriptor{
		Width: w, Height: h, Format: fr.shadowSettings.ScreenSpaceFormat, SampleCount: 1,
		DebugName: fmt.Sprintf("screenspace-shadows-%s", fr.frameID),
	})
	fr.shadows.SetupShadowConstants(fr.backend)
	fr.backend.Blit(metadata.TARGET_DEPTH_TEXTURE, metadata.TARGET_SCREENSPACE_SHADOWMAP, metadata.PASS_SCREEN_SPACE_SHADOWS)
	fr.backend.SetGlobalTexture(fr.constants.ScreenSpaceShadowmapTexture, metadata.TARGET_SCREENSPACE_SHADOWMAP)
}

// setupShaderConstants publishes the per-frame global shader surface.
func (fr *ForwardRenderer) setupShaderConstants(cull *CullResults, lightData metadata.LightData, shadowState ShadowFrameState) {
	SetupLightConstants(fr.backend, fr.constants, cull.VisibleLights, lightData)
	if shadowState.Rendered && !shadowState.ScreenSpace {
		// the screen-space collect pass already published the sampling
		// surface before resolving its mask
		fr.shadows.SetupShadowConstants(fr.backend)
	}
	fr.backend.SetKeyword("_MAIN_LIGHT_SHADOWS", shadowState.Rendered)
	fr.backend.SetKeyword("_MAIN_LIGHT_SHADOWS_SCREEN", shadowState.Rendered && shadowState.ScreenSpace)
	fr.backend.SetKeyword("_SHADOWS_SOFT", shadowState.Quality == metadata.SHADOW_QUALITY_SOFT)
	fr.backend.SetGlobalVector(fr.constants.DebugViewMode, math.NewVec4(float32(fr.debugMode), 0, 0, 0))
}

func (fr *ForwardRenderer) clearDepth() float32 {
	if fr.caps.ReversedZ {
		return 0.0
	}
	return 1.0
}

// beginForwardRendering binds the camera targets and clears them.
func (fr *ForwardRenderer) beginForwardRendering(cfg metadata.FrameRenderingConfiguration, camera *components.Camera, colourTarget, depthTarget metadata.TargetID) {
	fr.backend.SetRenderTarget(colourTarget, depthTarget)
	fr.backend.Clear(metadata.CLEAR_COLOUR_FLAG|metadata.CLEAR_DEPTH_FLAG, math.NewVec4(0, 0, 0, 1), fr.clearDepth())

	if colourTarget == metadata.TARGET_BACKBUFFER {
		fr.backend.SetViewport(fr.viewportFor(camera, cfg))
		return
	}
	w, h := fr.scaledSize()
	fr.backend.SetViewport(metadata.Viewport{Width: float32(w), Height: float32(h)})
}

// viewportFor maps the camera's normalized rect to backbuffer pixels.
func (fr *ForwardRenderer) viewportFor(camera *components.Camera, cfg metadata.FrameRenderingConfiguration) metadata.Viewport {
	if cfg.Has(metadata.FRAME_CONFIGURATION_DEFAULT_VIEWPORT) {
		return metadata.Viewport{Width: float32(fr.width), Height: float32(fr.height)}
	}
	return metadata.Viewport{
		X:      camera.ViewportRect.X * float32(fr.width),
		Y:      camera.ViewportRect.Y * float32(fr.height),
		Width:  camera.ViewportRect.W * float32(fr.width),
		Height: camera.ViewportRect.H * float32(fr.height),
	}
}

// afterOpaque runs the work scheduled between the opaque and transparent
// passes: the depth copy and any before-transparent post processing.
func (fr *ForwardRenderer) afterOpaque(cfg metadata.FrameRenderingConfiguration, singleColourCopy bool, colourTarget, depthTarget metadata.TargetID) {
	if cfg.Has(metadata.FRAME_CONFIGURATION_DEPTH_COPY) {
		fr.backend.Blit(depthTarget, metadata.TARGET_DEPTH_TEXTURE, metadata.PASS_COPY_DEPTH)
		fr.backend.SetGlobalTexture(fr.constants.CameraDepthTexture, metadata.TARGET_DEPTH_TEXTURE)
	}

	if !cfg.Has(metadata.FRAME_CONFIGURATION_BEFORE_TRANSPARENT_POST_PROCESS) {
		return
	}
	w, h := fr.scaledSize()
	fr.acquire(metadata.TARGET_OPAQUE_COLOR, metadata.TextureDescriptor{
		Width: w, Height: h, Format: metadata.TEXTURE_FORMAT_RGBA8, SampleCount: 1,
		DebugName: fmt.Sprintf("opaque-colour-%s", fr.frameID),
	})
	// the effect collaborator reads the opaque copy and writes back into
	// the camera target; a single opaque effect uses the copy directly as
	// its scratch buffer instead of ping-ponging
	fr.backend.Blit(colourTarget, metadata.TARGET_OPAQUE_COLOR, metadata.PASS_BLIT)
	fr.backend.Blit(metadata.TARGET_OPAQUE_COLOR, colourTarget, metadata.PASS_BLIT)
	if !singleColourCopy {
		fr.backend.Blit(colourTarget, metadata.TARGET_OPAQUE_COLOR, metadata.PASS_BLIT)
		fr.backend.Blit(metadata.TARGET_OPAQUE_COLOR, colourTarget, metadata.PASS_BLIT)
	}
	fr.backend.SetRenderTarget(colourTarget, depthTarget)
}

// afterTransparent runs the full post-processing stack on the finished
// camera image.
func (fr *ForwardRenderer) afterTransparent(cfg metadata.FrameRenderingConfiguration, colourTarget metadata.TargetID) {
	if !cfg.Has(metadata.FRAME_CONFIGURATION_POST_PROCESS) {
		return
	}
	fr.backend.Blit(colourTarget, colourTarget, metadata.PASS_BLIT)
}

// endForwardRendering resolves intermediate rendering to the camera's
// final destination.
func (fr *ForwardRenderer) endForwardRendering(cfg metadata.FrameRenderingConfiguration, camera *components.Camera, colourTarget metadata.TargetID) {
	if colourTarget == metadata.TARGET_BACKBUFFER || camera.TargetTexture != nil {
		return
	}
	fr.backend.SetRenderTarget(metadata.TARGET_BACKBUFFER, metadata.TARGET_NONE)
	fr.backend.SetViewport(fr.viewportFor(camera, cfg))
	fr.backend.Blit(colourTarget, metadata.TARGET_BACKBUFFER, metadata.PASS_BLIT)
}
