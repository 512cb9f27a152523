package metadata

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// LightType is a closed tagged variant over the kinds of light source
// the pipeline understands. Shadow computation switches over it once;
// anything other than directional or spot is an unsupported shadow
// caster.
type LightType uint32

const (
	LIGHT_TYPE_DIRECTIONAL LightType = 0
	LIGHT_TYPE_SPOT        LightType = 1
	LIGHT_TYPE_POINT       LightType = 2
)

func (lt LightType) String() string {
	switch lt {
	case LIGHT_TYPE_DIRECTIONAL:
		return "directional"
	case LIGHT_TYPE_SPOT:
		return "spot"
	case LIGHT_TYPE_POINT:
		return "point"
	}
	return "unknown"
}

// SupportsShadows reports whether the pipeline has a shadow map path
// for this light type.
func (lt LightType) SupportsShadows() bool {
	return lt == LIGHT_TYPE_DIRECTIONAL || lt == LIGHT_TYPE_SPOT
}

// ShadowQuality is the shadow sampling mode selected for a light. The
// shadow system writes the frame's effective quality into LightData as
// an output of whether it actually rendered a shadow map.
type ShadowQuality uint32

const (
	SHADOW_QUALITY_NONE ShadowQuality = 0
	SHADOW_QUALITY_HARD ShadowQuality = 1
	SHADOW_QUALITY_SOFT ShadowQuality = 2
)

// Light describes a scene light as the culling system hands it to the
// pipeline.
type Light struct {
	LightType LightType
	Position  math.Vec3
	// Direction the light travels, normalized. For spot lights this is
	// the cone axis.
	Direction math.Vec3
	Colour    math.Vec4
	Intensity float32
	// Range is the attenuation distance for spot and point lights.
	Range float32
	// SpotAngle is the full outer cone angle in degrees.
	SpotAngle float32
	// Shadows requested on this light. The frame's effective mode may
	// degrade to none.
	Shadows        ShadowQuality
	ShadowStrength float32
	ShadowBias     float32
	// ShadowNormalBias scales the per-texel normal-offset bias.
	// Directional lights only.
	ShadowNormalBias float32
}

// VisibleLight is one entry of the culling result's ordered light
// sequence.
type VisibleLight struct {
	Light *Light
	// Index into the frame's visible light sequence.
	Index int
}

// NoMainLight marks the absence of a shadow-casting main light for the
// frame.
const NoMainLight = -1

// LightData summarizes the per-frame light selection consumed by the
// shader-constant setup stage.
type LightData struct {
	// MainLightIndex is the index into the visible light sequence of
	// the light selected for full shadow treatment, or NoMainLight.
	MainLightIndex int
	// AdditionalLightsCount is the number of visible lights shaded
	// beyond the main light.
	AdditionalLightsCount int
	// MainLightShadows is the sampling mode the shadow system actually
	// achieved this frame.
	MainLightShadows ShadowQuality
}
