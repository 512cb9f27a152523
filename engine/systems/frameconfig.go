package systems

import (
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// ShadowFrameState reports what the shadow pass produced this frame; the
// configuration resolver and forward pass sequencing depend on it.
type ShadowFrameState struct {
	Rendered    bool
	ScreenSpace bool
	Quality     metadata.ShadowQuality
}

// ResolveFrameConfiguration decides, from this frame's camera, quality
// settings, platform capabilities and shadow state, which rendering paths
// the forward pass takes. It is a pure function of its inputs and issues no
// rendering commands. The second result reports whether before-transparent
// post processing can reuse a single colour copy instead of ping-ponging
// two buffers.
func ResolveFrameConfiguration(camera *components.Camera, quality metadata.QualitySettings, caps metadata.PlatformCaps, shadows ShadowFrameState) (metadata.FrameRenderingConfiguration, bool) {
	cfg := metadata.FRAME_CONFIGURATION_NONE

	stereo := caps.StereoSupported && camera.TargetsBothEyes && camera.Kind != components.CAMERA_KIND_SCENE_PREVIEW
	if stereo {
		cfg |= metadata.FRAME_CONFIGURATION_STEREO
	}

	// rendering off-screen, scaled, or in HDR cannot go straight to the
	// backbuffer
	intermediate := camera.TargetTexture != nil ||
		camera.Kind == components.CAMERA_KIND_SCENE_PREVIEW ||
		quality.RenderScale < 1.0 ||
		camera.HDR

	postProcess := camera.PostProcess != nil && camera.PostProcess.Enabled && !stereo

	needsDepth := quality.RequiresDepthTexture && !stereo
	if postProcess || camera.Kind == components.CAMERA_KIND_SCENE_PREVIEW {
		needsDepth = true
	}

	msaa := camera.AllowMSAA && quality.MSAASamples > 1 &&
		(camera.TargetTexture == nil || camera.TargetTexture.SampleCount > 1)

	requiresColourCopy := false
	if postProcess {
		cfg |= metadata.FRAME_CONFIGURATION_POST_PROCESS
		if camera.PostProcess.OpaqueEffects > 0 {
			cfg |= metadata.FRAME_CONFIGURATION_BEFORE_TRANSPARENT_POST_PROCESS
			if camera.PostProcess.OpaqueEffects == 1 {
				requiresColourCopy = true
			}
		}
	}

	// shadows decide the depth requirement outright: the screen-space
	// collect pass resolves against a depth texture, while atlas sampling
	// needs none
	if shadows.Rendered {
		needsDepth = shadows.ScreenSpace
		if !msaa {
			intermediate = true
		}
	}

	if msaa {
		cfg |= metadata.FRAME_CONFIGURATION_MSAA
		if !caps.MSAABackbuffer {
			intermediate = true
		}
	}

	if needsDepth {
		// copying depth out of the opaque pass only works when nothing
		// forced an early depth population and the platform can do the
		// copy cheaply
		if !msaa && !shadows.Rendered && caps.FastTextureCopy && caps.DepthCopyShader {
			cfg |= metadata.FRAME_CONFIGURATION_DEPTH_COPY
			// the copy reads the camera depth attachment, which only
			// exists when rendering through an intermediate target
			intermediate = true
		} else {
			cfg |= metadata.FRAME_CONFIGURATION_DEPTH_PRE_PASS
		}
	}

	if camera.ViewportRect.IsDefaultViewport() {
		cfg |= metadata.FRAME_CONFIGURATION_DEFAULT_VIEWPORT
	} else {
		intermediate = true
	}

	if intermediate {
		cfg |= metadata.FRAME_CONFIGURATION_INTERMEDIATE_TEXTURE
	}
	return cfg, requiresColourCopy
}
