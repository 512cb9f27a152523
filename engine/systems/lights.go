package systems

import (
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// MaxAdditionalLights caps how many per-object lights the lit shader loops
// over beyond the main light.
const MaxAdditionalLights = 4

// SetupLights elects the frame's main light and counts the rest. The main
// light is the brightest shadow-requesting directional light; with no such
// light, the brightest directional; with no directional light at all the
// frame has no main light and every visible light is additional.
func SetupLights(visibleLights []metadata.VisibleLight) metadata.LightData {
	data := metadata.LightData{
		MainLightIndex:   metadata.NoMainLight,
		MainLightShadows: metadata.SHADOW_QUALITY_NONE,
	}

	bestIntensity := float32(-1.0)
	bestCastsShadows := false
	for i, vl := range visibleLights {
		if vl.Light.LightType != metadata.LIGHT_TYPE_DIRECTIONAL {
			continue
		}
		casts := vl.Light.Shadows != metadata.SHADOW_QUALITY_NONE
		if casts != bestCastsShadows {
			if !casts {
				continue
			}
			// first shadow-requesting candidate beats any non-caster
			bestCastsShadows = true
			bestIntensity = vl.Light.Intensity
			data.MainLightIndex = i
			continue
		}
		if vl.Light.Intensity > bestIntensity {
			bestIntensity = vl.Light.Intensity
			data.MainLightIndex = i
		}
	}

	additional := len(visibleLights)
	if data.MainLightIndex != metadata.NoMainLight {
		additional--
	}
	data.AdditionalLightsCount = math.Min(additional, MaxAdditionalLights)

	core.LogDebug("light setup: main light %d, %d additional", data.MainLightIndex, data.AdditionalLightsCount)
	return data
}

// SetupLightConstants uploads the elected main light and the additional
// light count to the global shader surface.
func SetupLightConstants(backend renderer.Backend, constants *metadata.ShaderConstants, visibleLights []metadata.VisibleLight, data metadata.LightData) {
	position := math.NewVec4(0.0, 0.0, 1.0, 0.0)
	colour := math.NewVec4(0.0, 0.0, 0.0, 0.0)
	if data.MainLightIndex != metadata.NoMainLight {
		light := visibleLights[data.MainLightIndex].Light
		// directional lights pack direction-to-light with w=0
		toLight := light.Direction.MulScalar(-1.0).Normalized()
		position = math.NewVec4FromVec3(toLight, 0.0)
		colour = math.NewVec4(
			light.Colour.X*light.Intensity,
			light.Colour.Y*light.Intensity,
			light.Colour.Z*light.Intensity,
			1.0,
		)
	}
	backend.SetGlobalVector(constants.MainLightPosition, position)
	backend.SetGlobalVector(constants.MainLightColor, colour)
	backend.SetGlobalVector(constants.AdditionalLightsCount, math.NewVec4(float32(data.AdditionalLightsCount), 0.0, 0.0, 0.0))
}
