package metadata

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// MaxShadowCascades is the cascade ceiling for a directional light. A
// spot light always uses exactly one slice.
const MaxShadowCascades = 4

// ShadowSettings is the per-pipeline shadow configuration, resolved
// once from the immutable pipeline asset and the platform capability
// query. It does not change during the asset's lifetime except on an
// explicit settings reload.
type ShadowSettings struct {
	Enabled     bool
	AtlasWidth  uint32
	AtlasHeight uint32
	// CascadeCount is 1, 2 or 4.
	CascadeCount int
	// SplitRatios covers up to 4 splits with 3 components; each ratio
	// partitions MaxShadowDistance.
	SplitRatios       math.Vec3
	MaxShadowDistance float32
	NearPlaneOffset   float32
	// ScreenSpace selects pre-resolved full-screen shadow compositing
	// over direct atlas sampling. Forced off on constrained devices.
	ScreenSpace bool
	DepthBias   float32
	NormalBias  float32
	// SoftShadows enables the PCF sampling mode when a light requests
	// soft shadows.
	SoftShadows bool

	ShadowmapFormat    TextureFormat
	ScreenSpaceFormat  TextureFormat
}

// QualitySettings is the per-pipeline quality configuration read by
// the frame configuration resolver.
type QualitySettings struct {
	// MSAASamples > 1 enables multisampling where the camera allows
	// it.
	MSAASamples uint32
	// RenderScale below 1.0 renders to a scaled intermediate texture.
	RenderScale float32
	HDR         bool
	// RequiresDepthTexture is the asset-level depth texture demand
	// (e.g. soft particles).
	RequiresDepthTexture bool
}

// Fixed split-ratio presets per cascade count. The ratios partition
// the maximum shadow distance; unused components are zero.
var (
	cascadeSplits1 = math.Vec3{X: 1.0, Y: 0, Z: 0}
	cascadeSplits2 = math.Vec3{X: 0.25, Y: 0, Z: 0}
	cascadeSplits4 = math.Vec3{X: 0.067, Y: 0.2, Z: 0.467}
)

// SplitRatiosForCascadeCount returns the fixed preset for a cascade
// count. Unknown counts fall back to a single cascade.
func SplitRatiosForCascadeCount(count int) math.Vec3 {
	switch count {
	case 2:
		return cascadeSplits2
	case 4:
		return cascadeSplits4
	default:
		return cascadeSplits1
	}
}
