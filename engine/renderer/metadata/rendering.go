package metadata

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// FrameRenderingConfiguration is an immutable bitset of stage-inclusion
// flags resolved once per camera per frame. Downstream passes read it
// but never write it.
type FrameRenderingConfiguration uint32

const (
	FRAME_CONFIGURATION_NONE                              FrameRenderingConfiguration = 0
	FRAME_CONFIGURATION_STEREO                            FrameRenderingConfiguration = 1 << 0
	FRAME_CONFIGURATION_MSAA                              FrameRenderingConfiguration = 1 << 1
	FRAME_CONFIGURATION_BEFORE_TRANSPARENT_POST_PROCESS   FrameRenderingConfiguration = 1 << 2
	FRAME_CONFIGURATION_POST_PROCESS                      FrameRenderingConfiguration = 1 << 3
	FRAME_CONFIGURATION_DEPTH_PRE_PASS                    FrameRenderingConfiguration = 1 << 4
	FRAME_CONFIGURATION_DEPTH_COPY                        FrameRenderingConfiguration = 1 << 5
	FRAME_CONFIGURATION_DEFAULT_VIEWPORT                  FrameRenderingConfiguration = 1 << 6
	FRAME_CONFIGURATION_INTERMEDIATE_TEXTURE              FrameRenderingConfiguration = 1 << 7
)

// Has reports whether every bit of flag is set.
func (c FrameRenderingConfiguration) Has(flag FrameRenderingConfiguration) bool {
	return c&flag == flag
}

// TargetID is the stable identifier of a process-wide named temporary
// render target. Targets for camera N+1 may alias the same identifiers
// as camera N, so acquisition must not begin before the previous
// camera's release.
type TargetID int32

const (
	// TARGET_NONE marks an unused attachment slot (e.g. the colour
	// slot of a depth-only pass).
	TARGET_NONE TargetID = -1
	// TARGET_BACKBUFFER is the swapchain backbuffer; it is never
	// acquired or released through the temporary texture interface.
	TARGET_BACKBUFFER TargetID = 0
	// TARGET_SHADOWMAP holds the shadow atlas depth render.
	TARGET_SHADOWMAP TargetID = 1
	// TARGET_SCREENSPACE_SHADOWMAP holds pre-resolved screen-space
	// shadow test results.
	TARGET_SCREENSPACE_SHADOWMAP TargetID = 2
	// TARGET_CAMERA_COLOR is the intermediate color target.
	TARGET_CAMERA_COLOR TargetID = 3
	// TARGET_CAMERA_DEPTH is the intermediate depth target.
	TARGET_CAMERA_DEPTH TargetID = 4
	// TARGET_DEPTH_TEXTURE is the sampleable depth texture produced by
	// the depth prepass or the depth copy.
	TARGET_DEPTH_TEXTURE TargetID = 5
	// TARGET_OPAQUE_COLOR is the single work buffer reused by an
	// opaque-only post-process effect.
	TARGET_OPAQUE_COLOR TargetID = 6
)

// TextureFormat is the pixel format of a temporary render target.
type TextureFormat uint32

const (
	TEXTURE_FORMAT_RGBA8         TextureFormat = 0
	TEXTURE_FORMAT_RGBA16F       TextureFormat = 1
	TEXTURE_FORMAT_DEPTH16       TextureFormat = 2
	TEXTURE_FORMAT_DEPTH32F      TextureFormat = 3
	TEXTURE_FORMAT_SHADOWMAP     TextureFormat = 4
	TEXTURE_FORMAT_R8            TextureFormat = 5
)

// TextureDescriptor describes a temporary render target allocation.
type TextureDescriptor struct {
	Width       uint32
	Height      uint32
	Format      TextureFormat
	SampleCount uint32
	// DebugName labels the allocation in captures. Not part of the
	// resource identity.
	DebugName string
}

// ClearFlag selects which buffer aspects a clear touches. Flags can be
// combined.
type ClearFlag uint32

const (
	CLEAR_NONE_FLAG   ClearFlag = 0x0
	CLEAR_COLOUR_FLAG ClearFlag = 0x1
	CLEAR_DEPTH_FLAG  ClearFlag = 0x2
)

// RenderQueue partitions renderers by material transparency.
type RenderQueue uint32

const (
	RENDER_QUEUE_OPAQUE      RenderQueue = 0
	RENDER_QUEUE_TRANSPARENT RenderQueue = 1
)

// SortFlags orders draws within a queue.
type SortFlags uint32

const (
	SORT_FLAGS_NONE          SortFlags = 0
	SORT_FLAGS_FRONT_TO_BACK SortFlags = 1
	SORT_FLAGS_BACK_TO_FRONT SortFlags = 2
)

// Shader pass names consumed by DrawRenderers.
const (
	PASS_DEPTH_ONLY           = "DepthOnly"
	PASS_SHADOW_CASTER        = "ShadowCaster"
	PASS_FORWARD_LIT          = "ForwardLit"
	PASS_SCREEN_SPACE_SHADOWS = "ScreenSpaceShadows"
	PASS_COPY_DEPTH           = "CopyDepth"
	PASS_BLIT                 = "Blit"
)

// DrawSettings selects and orders the renderers a draw stage submits.
type DrawSettings struct {
	Queue    RenderQueue
	Sort     SortFlags
	PassName string
	// OverrideMaterial replaces every renderer's material when set
	// (e.g. the depth prepass).
	OverrideMaterial string
}

// RendererDebugViewMode selects a debug visualization.
type RendererDebugViewMode uint32

const (
	RENDERER_VIEW_MODE_DEFAULT  RendererDebugViewMode = 0
	RENDERER_VIEW_MODE_CASCADES RendererDebugViewMode = 1
)

// PlatformCaps is the immutable device capability set queried once at
// pipeline construction.
type PlatformCaps struct {
	// ReversedZ is true when the depth convention maps near to 1 and
	// far to 0.
	ReversedZ bool
	// StereoSupported is true when device-level stereo rendering is
	// active.
	StereoSupported bool
	// MSAABackbuffer is true when the platform supports multisampling
	// directly on the backbuffer.
	MSAABackbuffer bool
	// FastTextureCopy is true when the platform has a dedicated
	// depth-copy path cheaper than a re-render.
	FastTextureCopy bool
	// DepthCopyShader is true when the depth-copy blit shader is
	// available.
	DepthCopyShader bool
	// ScreenSpaceShadows is false on constrained devices that must
	// sample the shadow atlas directly.
	ScreenSpaceShadows bool
	// MaxSampleCount is the highest supported MSAA sample count.
	MaxSampleCount uint32
	// MaxCascades is the cascade count ceiling; constrained devices
	// force 1.
	MaxCascades int
}

// StereoEye identifies the eye target of camera property setup.
type StereoEye uint32

const (
	STEREO_EYE_MONO StereoEye = 0
	STEREO_EYE_BOTH StereoEye = 1
)

// Viewport is an absolute pixel viewport within a render target.
type Viewport struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// CameraProperties is the per-camera state handed to the draw backend
// before any camera pass executes.
type CameraProperties struct {
	View       math.Mat4
	Projection math.Mat4
	Eye        StereoEye
}
