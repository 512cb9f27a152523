package assets

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// PipelineAsset is the render pipeline configuration document. It is
// read once at pipeline construction and is immutable afterwards; an
// explicit reload through the asset watcher replaces the whole value.
type PipelineAsset struct {
	Shadows ShadowConfig  `toml:"shadows"`
	Quality QualityConfig `toml:"quality"`
}

type ShadowConfig struct {
	Enabled         bool    `toml:"enabled"`
	AtlasWidth      uint32  `toml:"atlas_width"`
	AtlasHeight     uint32  `toml:"atlas_height"`
	CascadeCount    int     `toml:"cascade_count"`
	MaxDistance     float32 `toml:"max_distance"`
	NearPlaneOffset float32 `toml:"near_plane_offset"`
	ScreenSpace     bool    `toml:"screen_space"`
	DepthBias       float32 `toml:"depth_bias"`
	NormalBias      float32 `toml:"normal_bias"`
	Soft            bool    `toml:"soft"`
}

type QualityConfig struct {
	MSAASamples          uint32  `toml:"msaa_samples"`
	RenderScale          float32 `toml:"render_scale"`
	HDR                  bool    `toml:"hdr"`
	RequiresDepthTexture bool    `toml:"requires_depth_texture"`
}

// DefaultPipelineAsset returns the configuration used when no asset
// file is provided.
func DefaultPipelineAsset() *PipelineAsset {
	return &PipelineAsset{
		Shadows: ShadowConfig{
			Enabled:         true,
			AtlasWidth:      2048,
			AtlasHeight:     2048,
			CascadeCount:    4,
			MaxDistance:     50.0,
			NearPlaneOffset: 2.0,
			ScreenSpace:     true,
			DepthBias:       1.0,
			NormalBias:      1.0,
			Soft:            true,
		},
		Quality: QualityConfig{
			MSAASamples:          1,
			RenderScale:          1.0,
			HDR:                  false,
			RequiresDepthTexture: false,
		},
	}
}

// LoadPipelineAsset parses and validates the pipeline asset file.
func LoadPipelineAsset(path string) (*PipelineAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadPipelineAsset - reading '%s': %w", path, err)
	}
	asset := DefaultPipelineAsset()
	if err := toml.Unmarshal(data, asset); err != nil {
		return nil, fmt.Errorf("LoadPipelineAsset - parsing '%s': %w", path, err)
	}
	if err := asset.Validate(); err != nil {
		return nil, fmt.Errorf("LoadPipelineAsset - validating '%s': %w", path, err)
	}
	return asset, nil
}

// Validate normalizes out-of-range values where a safe substitute
// exists and rejects the rest.
func (a *PipelineAsset) Validate() error {
	s := &a.Shadows
	if s.AtlasWidth == 0 || s.AtlasHeight == 0 {
		return fmt.Errorf("shadow atlas dimensions must be non-zero (got %dx%d)", s.AtlasWidth, s.AtlasHeight)
	}
	if s.AtlasWidth&(s.AtlasWidth-1) != 0 || s.AtlasHeight&(s.AtlasHeight-1) != 0 {
		return fmt.Errorf("shadow atlas dimensions must be powers of two (got %dx%d)", s.AtlasWidth, s.AtlasHeight)
	}
	switch s.CascadeCount {
	case 1, 2, 4:
	default:
		core.LogWarn("cascade count %d is not 1, 2 or 4; falling back to 1", s.CascadeCount)
		s.CascadeCount = 1
	}
	if s.MaxDistance <= 0 {
		return fmt.Errorf("max shadow distance must be positive (got %f)", s.MaxDistance)
	}
	q := &a.Quality
	if q.MSAASamples == 0 {
		q.MSAASamples = 1
	}
	if q.RenderScale <= 0 || q.RenderScale > 1.0 {
		core.LogWarn("render scale %f out of (0,1]; clamping", q.RenderScale)
		q.RenderScale = math.Clamp(q.RenderScale, 0.1, 1.0)
	}
	return nil
}

// ResolveShadowSettings builds the frame-facing shadow settings from
// the asset and the device capability query. Constrained devices force
// direct atlas sampling and a single cascade.
func (a *PipelineAsset) ResolveShadowSettings(caps metadata.PlatformCaps) metadata.ShadowSettings {
	s := a.Shadows
	cascades := s.CascadeCount
	if caps.MaxCascades > 0 && cascades > caps.MaxCascades {
		core.LogDebug("platform caps cascade count at %d (asset requested %d)", caps.MaxCascades, cascades)
		cascades = caps.MaxCascades
	}
	screenSpace := s.ScreenSpace && caps.ScreenSpaceShadows

	return metadata.ShadowSettings{
		Enabled:           s.Enabled,
		AtlasWidth:        s.AtlasWidth,
		AtlasHeight:       s.AtlasHeight,
		CascadeCount:      cascades,
		SplitRatios:       metadata.SplitRatiosForCascadeCount(cascades),
		MaxShadowDistance: s.MaxDistance,
		NearPlaneOffset:   s.NearPlaneOffset,
		ScreenSpace:       screenSpace,
		DepthBias:         s.DepthBias,
		NormalBias:        s.NormalBias,
		SoftShadows:       s.Soft,
		ShadowmapFormat:   metadata.TEXTURE_FORMAT_SHADOWMAP,
		ScreenSpaceFormat: metadata.TEXTURE_FORMAT_R8,
	}
}

// ResolveQualitySettings builds the frame-facing quality settings,
// clamping the sample count to what the device supports.
func (a *PipelineAsset) ResolveQualitySettings(caps metadata.PlatformCaps) metadata.QualitySettings {
	samples := a.Quality.MSAASamples
	if caps.MaxSampleCount > 0 && samples > caps.MaxSampleCount {
		core.LogDebug("platform caps MSAA at %d samples (asset requested %d)", caps.MaxSampleCount, samples)
		samples = caps.MaxSampleCount
	}
	return metadata.QualitySettings{
		MSAASamples:          samples,
		RenderScale:          a.Quality.RenderScale,
		HDR:                  a.Quality.HDR,
		RequiresDepthTexture: a.Quality.RequiresDepthTexture,
	}
}
