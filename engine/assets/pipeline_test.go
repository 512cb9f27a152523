package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

func writeAsset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPipelineAsset(t *testing.T) {
	path := writeAsset(t, `
[shadows]
enabled = true
atlas_width = 4096
atlas_height = 4096
cascade_count = 2
max_distance = 150.0
screen_space = false
soft = false

[quality]
msaa_samples = 4
render_scale = 0.8
hdr = true
`)
	asset, err := LoadPipelineAsset(path)
	if err != nil {
		t.Fatalf("LoadPipelineAsset returned %v", err)
	}
	if asset.Shadows.AtlasWidth != 4096 || asset.Shadows.CascadeCount != 2 {
		t.Errorf("shadows = %+v", asset.Shadows)
	}
	if asset.Shadows.ScreenSpace {
		t.Error("screen_space = false must override the default")
	}
	if asset.Quality.MSAASamples != 4 || !asset.Quality.HDR {
		t.Errorf("quality = %+v", asset.Quality)
	}
	// unspecified keys keep their defaults
	if asset.Shadows.NearPlaneOffset != DefaultPipelineAsset().Shadows.NearPlaneOffset {
		t.Error("unspecified near_plane_offset must keep the default")
	}
}

func TestLoadPipelineAssetRejectsBadAtlas(t *testing.T) {
	path := writeAsset(t, `
[shadows]
atlas_width = 1000
atlas_height = 2048
`)
	if _, err := LoadPipelineAsset(path); err == nil {
		t.Fatal("a non-power-of-two atlas must fail validation")
	}
}

func TestValidateNormalizesCascadeCount(t *testing.T) {
	asset := DefaultPipelineAsset()
	asset.Shadows.CascadeCount = 3
	if err := asset.Validate(); err != nil {
		t.Fatalf("Validate returned %v", err)
	}
	if asset.Shadows.CascadeCount != 1 {
		t.Errorf("cascade count = %d, want the fallback 1", asset.Shadows.CascadeCount)
	}
}

func TestValidateClampsRenderScale(t *testing.T) {
	asset := DefaultPipelineAsset()
	asset.Quality.RenderScale = 2.5
	if err := asset.Validate(); err != nil {
		t.Fatalf("Validate returned %v", err)
	}
	if asset.Quality.RenderScale != 1.0 {
		t.Errorf("render scale = %f, want 1.0", asset.Quality.RenderScale)
	}
}

func TestResolveShadowSettingsHonoursCaps(t *testing.T) {
	asset := DefaultPipelineAsset()
	asset.Shadows.CascadeCount = 4
	asset.Shadows.ScreenSpace = true

	constrained := metadata.PlatformCaps{
		MaxCascades:        1,
		ScreenSpaceShadows: false,
		MaxSampleCount:     1,
	}
	settings := asset.ResolveShadowSettings(constrained)
	if settings.CascadeCount != 1 {
		t.Errorf("cascade count = %d, want the caps ceiling 1", settings.CascadeCount)
	}
	if settings.ScreenSpace {
		t.Error("screen-space shadows must be forced off by caps")
	}
	if settings.SplitRatios != metadata.SplitRatiosForCascadeCount(1) {
		t.Error("split ratios must follow the effective cascade count")
	}
}

func TestResolveQualitySettingsClampsSamples(t *testing.T) {
	asset := DefaultPipelineAsset()
	asset.Quality.MSAASamples = 8

	quality := asset.ResolveQualitySettings(metadata.PlatformCaps{MaxSampleCount: 4})
	if quality.MSAASamples != 4 {
		t.Errorf("samples = %d, want the caps ceiling 4", quality.MSAASamples)
	}
}
