package testbed

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/platform"
	"github.com/spaghettifunk/prism/engine/renderer/command"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/systems"
)

const (
	startWidth  uint32 = 1280
	startHeight uint32 = 720
)

// Demo drives the render pipeline against a small static scene: a sun,
// a spot light and a handful of boxes over a ground plane. Recorded
// command buffers are decoded and counted in place of a live graphics
// context.
type Demo struct {
	platform *platform.Platform
	watcher  *assets.AssetWatcher
	buffer   *command.Buffer
	culler   *systems.SceneCuller
	renderer *systems.ForwardRenderer

	cameras []*components.Camera
	sun     *metadata.Light
	clock   *core.Clock

	width    uint32
	height   uint32
	elapsed  float64
	running  bool
}

func NewDemo() *Demo {
	return &Demo{
		width:  startWidth,
		height: startHeight,
		clock:  core.NewClock(),
	}
}

// Initialize brings up the window, queries device capabilities, loads
// the pipeline asset (watching it for edits when a path is given) and
// builds the demo scene.
func (d *Demo) Initialize(assetPath string) error {
	core.EventInitialize()
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	p, err := platform.New()
	if err != nil {
		return err
	}
	d.platform = p
	if err := d.platform.Startup("Prism Testbed", 100, 100, d.width, d.height); err != nil {
		return fmt.Errorf("func Initialize - platform startup failed: %w", err)
	}

	caps, err := platform.QueryCapabilities("Prism Testbed")
	if err != nil {
		core.LogWarn("device capability query failed (%s); using conservative defaults", err)
		caps = metadata.PlatformCaps{
			ReversedZ:      true,
			MaxSampleCount: 1,
			MaxCascades:    1,
		}
	}

	asset := assets.DefaultPipelineAsset()
	if assetPath != "" {
		watcher, err := assets.NewAssetWatcher(assetPath)
		if err != nil {
			return fmt.Errorf("func Initialize - asset '%s': %w", assetPath, err)
		}
		d.watcher = watcher
		asset = watcher.Current()
	}

	d.buildScene()

	d.buffer = command.GetBuffer()
	d.renderer, err = systems.NewForwardRenderer(d.buffer, d.culler, asset, caps, d.width, d.height)
	if err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_RESIZED, d, onResized)
	core.EventRegister(core.EVENT_CODE_PIPELINE_ASSET_RELOADED, d, onAssetReloaded)
	core.EventRegister(core.EVENT_CODE_SET_RENDER_MODE, d, onRenderMode)
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, d, onQuit)

	d.running = true
	return nil
}

func (d *Demo) buildScene() {
	d.culler = systems.NewSceneCuller()

	// ground plane
	d.culler.AddRenderable(&metadata.Renderable{
		ID:           uuid.New().String(),
		Bounds:       math.Extents3D{Min: math.NewVec3(-100, -1, -100), Max: math.NewVec3(100, 0, 100)},
		Queue:        metadata.RENDER_QUEUE_OPAQUE,
		CastsShadows: false,
	})
	// a line of boxes marching away from the camera, one per cascade band
	for i := 0; i < 6; i++ {
		z := -5.0 - float32(i)*12.0
		d.culler.AddRenderable(&metadata.Renderable{
			ID:           uuid.New().String(),
			Bounds:       math.Extents3D{Min: math.NewVec3(-1, 0, z-1), Max: math.NewVec3(1, 2, z+1)},
			Queue:        metadata.RENDER_QUEUE_OPAQUE,
			CastsShadows: true,
		})
	}
	// one transparent pane
	d.culler.AddRenderable(&metadata.Renderable{
		ID:     uuid.New().String(),
		Bounds: math.Extents3D{Min: math.NewVec3(-3, 0, -9), Max: math.NewVec3(-2, 2, -8)},
		Queue:  metadata.RENDER_QUEUE_TRANSPARENT,
	})

	d.sun = &metadata.Light{
		LightType:        metadata.LIGHT_TYPE_DIRECTIONAL,
		Direction:        math.NewVec3(0.4, -0.8, 0.2).Normalized(),
		Colour:           math.NewVec4(1.0, 0.96, 0.84, 1.0),
		Intensity:        1.2,
		Shadows:          metadata.SHADOW_QUALITY_SOFT,
		ShadowStrength:   0.85,
		ShadowBias:       1.0,
		ShadowNormalBias: 1.0,
	}
	d.culler.AddLight(d.sun)
	d.culler.AddLight(&metadata.Light{
		LightType: metadata.LIGHT_TYPE_SPOT,
		Position:  math.NewVec3(4, 6, -10),
		Direction: math.NewVec3(-0.3, -1, 0).Normalized(),
		Colour:    math.NewVec4(0.9, 0.3, 0.2, 1.0),
		Intensity: 3.0,
		Range:     25.0,
		SpotAngle: 50.0,
	})

	camera := components.NewCamera("main")
	camera.SetPosition(math.NewVec3(0, 3, 8))
	camera.Aspect = float32(d.width) / float32(d.height)
	camera.HDR = true

	// top-down overlay in the upper-right corner, rendered after main
	overlay := components.NewCamera("overlay")
	overlay.Depth = 10
	overlay.SetPosition(math.NewVec3(0, 60, -30))
	overlay.SetEulerRotation(math.NewVec3(math.DegToRad(-90), 0, 0))
	overlay.ViewportRect = math.Rect{X: 0.75, Y: 0.75, W: 0.25, H: 0.25}
	overlay.AllowMSAA = false

	d.cameras = append(d.cameras, camera, overlay)
}

// Run is the frame loop. Each frame records the full pipeline into the
// command buffer, then decodes it where a graphics context would
// consume it.
func (d *Demo) Run() error {
	d.clock.Start()
	lastTime := float64(0)
	frames := 0

	for d.running && d.platform.PumpMessages() {
		d.clock.Update()
		now := d.clock.Elapsed()
		delta := (now - lastTime) / 1e9
		lastTime = now
		d.elapsed += delta

		// slow sun orbit so cascade contents change over time
		angle := float32(d.elapsed * 0.1)
		d.sun.Direction = math.NewVec3(math.Sin(angle)*0.5, -0.8, math.Cos(angle)*0.5).Normalized()

		d.buffer.Reset()
		d.renderer.RenderFrame(d.cameras)
		commands := d.buffer.Decode()

		core.MetricsUpdate(delta)
		frames++
		if frames%300 == 0 {
			fps, frameTime := core.MetricsFrame()
			core.LogInfo("%.0f fps, %.2f ms, %d commands/frame", fps, frameTime, len(commands))
		}
	}
	return nil
}

func (d *Demo) Shutdown() error {
	d.running = false
	core.EventUnregister(core.EVENT_CODE_RESIZED, d)
	core.EventUnregister(core.EVENT_CODE_PIPELINE_ASSET_RELOADED, d)
	core.EventUnregister(core.EVENT_CODE_SET_RENDER_MODE, d)
	core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, d)
	if d.watcher != nil {
		if err := d.watcher.Close(); err != nil {
			core.LogWarn("closing asset watcher: %s", err)
		}
	}
	if d.buffer != nil {
		command.ReturnBuffer(d.buffer)
		d.buffer = nil
	}
	if d.platform != nil {
		return d.platform.Shutdown()
	}
	return nil
}

func onResized(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	d := listenerInst.(*Demo)
	resize, ok := data.Data.(*core.ResizeEvent)
	if !ok {
		return false
	}
	d.width = resize.Width
	d.height = resize.Height
	d.renderer.Resize(resize.Width, resize.Height)
	for _, c := range d.cameras {
		c.Aspect = float32(resize.Width) / float32(resize.Height)
	}
	return false
}

func onAssetReloaded(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	d := listenerInst.(*Demo)
	if d.watcher != nil {
		d.renderer.ApplyAsset(d.watcher.Current())
	}
	return false
}

func onRenderMode(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	d := listenerInst.(*Demo)
	if mode, ok := data.Data.(metadata.RendererDebugViewMode); ok {
		d.renderer.SetDebugViewMode(mode)
	}
	return false
}

func onQuit(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	listenerInst.(*Demo).running = false
	return true
}
