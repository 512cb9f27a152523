package systems

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

func newShadowFixture(settings metadata.ShadowSettings, lights ...*metadata.Light) (*MainLightShadowSystem, *recordingBackend, *fakeCuller, *metadata.ShaderConstants) {
	backend := newRecordingBackend()
	culler := newFakeCuller(lights...)
	constants := metadata.NewShaderConstants()
	system := NewMainLightShadowSystem(settings, defaultCaps(), constants, culler)
	return system, backend, culler, constants
}

func TestRenderShadowsFourCascades(t *testing.T) {
	light := directionalLight(1.0, metadata.SHADOW_QUALITY_SOFT)
	system, backend, culler, constants := newShadowFixture(defaultShadowSettings(), light)

	camera := components.NewCamera("main")
	cull, _ := culler.GetVisibility(camera, 100.0)
	lightData := SetupLights(cull.VisibleLights)

	state := system.RenderShadows(backend, camera, cull, &lightData)
	if !state.Rendered {
		t.Fatal("expected shadows to render")
	}
	if state.Quality != metadata.SHADOW_QUALITY_SOFT {
		t.Errorf("quality = %v, want soft", state.Quality)
	}
	if lightData.MainLightShadows != metadata.SHADOW_QUALITY_SOFT {
		t.Error("the achieved quality must be written back to the light data")
	}
	if system.SliceCount() != 4 {
		t.Fatalf("slice count = %d, want 4", system.SliceCount())
	}

	// one shadow caster draw per tile, each into its own viewport
	casterDraws := 0
	for _, d := range backend.draws {
		if d.PassName == metadata.PASS_SHADOW_CASTER {
			casterDraws++
		}
	}
	if casterDraws != 4 {
		t.Errorf("shadow caster draws = %d, want 4", casterDraws)
	}
	wantViewports := [4][2]float32{{0, 0}, {1024, 0}, {0, 1024}, {1024, 1024}}
	for i, want := range wantViewports {
		vp := backend.viewports[i]
		if vp.X != want[0] || vp.Y != want[1] || vp.Width != 1024 || vp.Height != 1024 {
			t.Errorf("viewport %d = %+v, want origin (%f, %f) at 1024x1024", i, vp, want[0], want[1])
		}
	}
	if backend.acquires[metadata.TARGET_SHADOWMAP] != 1 {
		t.Error("the shadow atlas must be acquired exactly once")
	}

	system.SetupShadowConstants(backend)
	matrices := backend.matrixArrays[constants.WorldToShadow]
	if len(matrices) != metadata.MaxShadowCascades+1 {
		t.Fatalf("world-to-shadow entries = %d, want %d", len(matrices), metadata.MaxShadowCascades+1)
	}
	terminal := NoOpShadowMatrix(true)
	if matrices[metadata.MaxShadowCascades] != terminal {
		t.Error("the entry past the last cascade must be the terminal no-op matrix")
	}

	size := backend.vectors[constants.ShadowmapSize]
	assertNear(t, "inverse atlas width", size.X, 1.0/2048.0)
	assertNear(t, "atlas width", size.Z, 2048)

	data := backend.vectors[constants.ShadowData]
	assertNear(t, "shadow strength", data.X, 0.9)

	offset := backend.vectors[constants.ShadowOffset0]
	assertNear(t, "half texel offset x", offset.X, -0.5/2048.0)
	assertNear(t, "half texel offset y", offset.Y, -0.5/2048.0)
	if backend.textures[constants.ShadowmapTexture] != metadata.TARGET_SHADOWMAP {
		t.Error("the atlas must be bound for sampling")
	}
}

func TestRenderShadowsSingleCascadePadsUnusedSlots(t *testing.T) {
	settings := defaultShadowSettings()
	settings.CascadeCount = 1
	settings.SplitRatios = metadata.SplitRatiosForCascadeCount(1)
	light := directionalLight(1.0, metadata.SHADOW_QUALITY_HARD)
	system, backend, culler, constants := newShadowFixture(settings, light)

	camera := components.NewCamera("main")
	cull, _ := culler.GetVisibility(camera, 100.0)
	lightData := SetupLights(cull.VisibleLights)

	state := system.RenderShadows(backend, camera, cull, &lightData)
	if !state.Rendered || state.Quality != metadata.SHADOW_QUALITY_HARD {
		t.Fatalf("state = %+v, want hard shadows", state)
	}

	system.SetupShadowConstants(backend)
	matrices := backend.matrixArrays[constants.WorldToShadow]
	identity := math.NewMat4Identity()
	for i := 1; i < metadata.MaxShadowCascades; i++ {
		if matrices[i] != identity {
			t.Errorf("unused cascade slot %d must hold the identity matrix", i)
		}
	}
	if matrices[0] == identity {
		t.Error("the rendered cascade must not be the identity matrix")
	}
	if matrices[metadata.MaxShadowCascades] != NoOpShadowMatrix(true) {
		t.Error("terminal slot must hold the no-op matrix")
	}
}

func TestRenderShadowsStopsAtFirstEmptyCascade(t *testing.T) {
	light := directionalLight(1.0, metadata.SHADOW_QUALITY_HARD)
	system, backend, culler, _ := newShadowFixture(defaultShadowSettings(), light)
	culler.casterBudget = 2

	camera := components.NewCamera("main")
	cull, _ := culler.GetVisibility(camera, 100.0)
	lightData := SetupLights(cull.VisibleLights)

	state := system.RenderShadows(backend, camera, cull, &lightData)
	if !state.Rendered {
		t.Fatal("two populated cascades are enough to render")
	}
	if system.SliceCount() != 2 {
		t.Errorf("slice count = %d, want 2", system.SliceCount())
	}
	// the third query failed, so no fourth is ever made
	if culler.boundsQueries != 3 {
		t.Errorf("caster bounds queries = %d, want 3", culler.boundsQueries)
	}
}

func TestRenderShadowsDegradesWithoutCasters(t *testing.T) {
	light := directionalLight(1.0, metadata.SHADOW_QUALITY_HARD)
	system, backend, culler, _ := newShadowFixture(defaultShadowSettings(), light)
	culler.casterBudget = 0

	camera := components.NewCamera("main")
	cull, _ := culler.GetVisibility(camera, 100.0)
	lightData := SetupLights(cull.VisibleLights)

	state := system.RenderShadows(backend, camera, cull, &lightData)
	if state.Rendered {
		t.Fatal("no casters must degrade to an unshadowed frame")
	}
	if lightData.MainLightShadows != metadata.SHADOW_QUALITY_NONE {
		t.Error("light data must stay unshadowed")
	}
	if backend.acquires[metadata.TARGET_SHADOWMAP] != 0 {
		t.Error("the atlas must not be acquired when nothing renders")
	}
}

func TestRenderShadowsSkipsUnsupportedCaster(t *testing.T) {
	point := &metadata.Light{LightType: metadata.LIGHT_TYPE_POINT, Intensity: 5.0, Shadows: metadata.SHADOW_QUALITY_HARD}
	system, backend, culler, _ := newShadowFixture(defaultShadowSettings(), point)

	camera := components.NewCamera("main")
	cull, _ := culler.GetVisibility(camera, 100.0)
	// force the point light in as main; light election would normally
	// never pick it
	lightData := metadata.LightData{MainLightIndex: 0}

	state := system.RenderShadows(backend, camera, cull, &lightData)
	if state.Rendered {
		t.Fatal("point lights have no shadow path and must be skipped")
	}
	if len(backend.draws) != 0 {
		t.Error("no draws may be recorded for an unsupported caster")
	}
}

func TestRenderShadowsSpotLightUsesOneTile(t *testing.T) {
	spot := &metadata.Light{
		LightType:  metadata.LIGHT_TYPE_SPOT,
		Position:   math.NewVec3(0, 5, 0),
		Direction:  math.NewVec3(0, -1, 0),
		Intensity:  3.0,
		Range:      30.0,
		SpotAngle:  45.0,
		Shadows:    metadata.SHADOW_QUALITY_HARD,
		ShadowBias: 1.0,
	}
	system, backend, culler, _ := newShadowFixture(defaultShadowSettings(), spot)

	camera := components.NewCamera("main")
	cull, _ := culler.GetVisibility(camera, 100.0)
	lightData := metadata.LightData{MainLightIndex: 0}

	state := system.RenderShadows(backend, camera, cull, &lightData)
	if !state.Rendered {
		t.Fatal("expected the spot light to render a shadow tile")
	}
	if system.SliceCount() != 1 {
		t.Errorf("slice count = %d, want 1", system.SliceCount())
	}
	// a single tile owns the whole atlas
	vp := backend.viewports[0]
	if vp.Width != 2048 || vp.Height != 2048 {
		t.Errorf("spot tile viewport = %+v, want the full atlas", vp)
	}
}

func TestReleaseTargetsIsIdempotent(t *testing.T) {
	light := directionalLight(1.0, metadata.SHADOW_QUALITY_HARD)
	system, backend, culler, _ := newShadowFixture(defaultShadowSettings(), light)

	camera := components.NewCamera("main")
	cull, _ := culler.GetVisibility(camera, 100.0)
	lightData := SetupLights(cull.VisibleLights)
	system.RenderShadows(backend, camera, cull, &lightData)

	system.ReleaseTargets(backend)
	system.ReleaseTargets(backend)

	if backend.releases[metadata.TARGET_SHADOWMAP] != 1 {
		t.Errorf("effective releases = %d, want exactly 1", backend.releases[metadata.TARGET_SHADOWMAP])
	}
	if backend.releaseCalls[metadata.TARGET_SHADOWMAP] != 1 {
		t.Errorf("release calls = %d, want 1 (the second ReleaseTargets is a no-op)", backend.releaseCalls[metadata.TARGET_SHADOWMAP])
	}
}
