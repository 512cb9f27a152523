package metadata

// ConstantID is the integer handle of a string-named shader property.
type ConstantID int32

const InvalidConstantID ConstantID = -1

// ShaderConstants binds shader property names to integer handles once
// at pipeline initialization. The struct is immutable afterwards and is
// passed by reference to every stage, so no stage carries hidden global
// state for property resolution.
type ShaderConstants struct {
	names map[string]ConstantID

	// Shadow surface. Shaders consume these bit-exact.
	WorldToShadow             ConstantID // matrix array, 4 cascades + 1 terminal no-op entry
	ShadowData                ConstantID // (shadowStrength, 0, 0, 0)
	DirShadowSplitSpheres     ConstantID // vector array of 4 culling spheres
	DirShadowSplitSphereRadii ConstantID // squared radii
	ShadowOffset0             ConstantID
	ShadowOffset1             ConstantID
	ShadowOffset2             ConstantID
	ShadowOffset3             ConstantID
	ShadowmapSize             ConstantID // (1/w, 1/h, w, h)
	ShadowBias                ConstantID // (depthBias, normalBias, 0, 0)

	// Texture bindings.
	ShadowmapTexture            ConstantID
	ScreenSpaceShadowmapTexture ConstantID
	CameraDepthTexture          ConstantID

	// Light surface.
	MainLightPosition     ConstantID
	MainLightColor        ConstantID
	AdditionalLightsCount ConstantID

	// Debug surface.
	DebugViewMode ConstantID
}

// NewShaderConstants resolves every property name the pipeline sets.
func NewShaderConstants() *ShaderConstants {
	sc := &ShaderConstants{
		names: make(map[string]ConstantID),
	}
	sc.WorldToShadow = sc.propertyToID("_WorldToShadow")
	sc.ShadowData = sc.propertyToID("_ShadowData")
	sc.DirShadowSplitSpheres = sc.propertyToID("_DirShadowSplitSpheres")
	sc.DirShadowSplitSphereRadii = sc.propertyToID("_DirShadowSplitSphereRadii")
	sc.ShadowOffset0 = sc.propertyToID("_ShadowOffset0")
	sc.ShadowOffset1 = sc.propertyToID("_ShadowOffset1")
	sc.ShadowOffset2 = sc.propertyToID("_ShadowOffset2")
	sc.ShadowOffset3 = sc.propertyToID("_ShadowOffset3")
	sc.ShadowmapSize = sc.propertyToID("_ShadowmapSize")
	sc.ShadowBias = sc.propertyToID("_ShadowBias")
	sc.ShadowmapTexture = sc.propertyToID("_ShadowmapTexture")
	sc.ScreenSpaceShadowmapTexture = sc.propertyToID("_ScreenSpaceShadowmapTexture")
	sc.CameraDepthTexture = sc.propertyToID("_CameraDepthTexture")
	sc.MainLightPosition = sc.propertyToID("_MainLightPosition")
	sc.MainLightColor = sc.propertyToID("_MainLightColor")
	sc.AdditionalLightsCount = sc.propertyToID("_AdditionalLightsCount")
	sc.DebugViewMode = sc.propertyToID("_DebugViewMode")
	return sc
}

// propertyToID interns a property name, assigning handles in
// registration order.
func (sc *ShaderConstants) propertyToID(name string) ConstantID {
	if id, ok := sc.names[name]; ok {
		return id
	}
	id := ConstantID(len(sc.names))
	sc.names[name] = id
	return id
}

// PropertyID returns the handle previously bound to name, or
// InvalidConstantID.
func (sc *ShaderConstants) PropertyID(name string) ConstantID {
	if id, ok := sc.names[name]; ok {
		return id
	}
	return InvalidConstantID
}
