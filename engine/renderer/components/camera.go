package components

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// CameraKind separates game cameras from editor scene-preview cameras.
// Preview cameras never render stereo and always get a depth texture.
type CameraKind uint32

const (
	CAMERA_KIND_GAME          CameraKind = 0
	CAMERA_KIND_SCENE_PREVIEW CameraKind = 1
)

// PostProcessStack summarizes the effect stack attached to a camera.
// The pipeline only reads stage-inclusion facts from it; effect
// internals are outside the pipeline.
type PostProcessStack struct {
	Enabled bool
	// OpaqueEffects is the number of effects that run before the
	// transparent pass.
	OpaqueEffects int
}

// Camera drives one rendered view per frame. Ideally these are created
// and managed by the render loop owner; the pipeline never mutates
// them.
type Camera struct {
	Name string
	// Depth orders cameras within a frame; lower renders first.
	// Overlay cameras use a higher depth than their base camera.
	Depth int32

	// Position of this camera. Do not set directly, use SetPosition so
	// the view matrix is recalculated when needed.
	Position math.Vec3
	// Euler angles (pitch, yaw, roll). Use SetEulerRotation.
	EulerRotation math.Vec3
	// Internal flag used to determine when the view matrix needs to be rebuilt.
	IsDirty    bool
	ViewMatrix math.Mat4

	FOV      float32
	Aspect   float32
	NearClip float32
	FarClip  float32

	// ViewportRect is the normalized target sub-rectangle this camera
	// renders into.
	ViewportRect math.Rect

	Kind CameraKind
	HDR  bool
	// AllowMSAA gates asset-level multisampling for this camera.
	AllowMSAA bool
	// TargetsBothEyes is read only when device stereo is active.
	TargetsBothEyes bool
	// TargetTexture is the offscreen target, or nil for the
	// backbuffer.
	TargetTexture *metadata.TextureDescriptor
	PostProcess   *PostProcessStack
}

func NewCamera(name string) *Camera {
	camera := &Camera{Name: name}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = math.NewVec3Zero()
	c.Position = math.NewVec3Zero()
	c.IsDirty = false
	c.ViewMatrix = math.NewMat4Identity()
	c.FOV = math.DegToRad(60.0)
	c.Aspect = 16.0 / 9.0
	c.NearClip = 0.1
	c.FarClip = 1000.0
	c.ViewportRect = math.Rect{X: 0, Y: 0, W: 1, H: 1}
	c.Kind = CAMERA_KIND_GAME
	c.HDR = false
	c.AllowMSAA = true
	c.TargetsBothEyes = true
	c.TargetTexture = nil
	c.PostProcess = nil
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) SetEulerRotation(rotation math.Vec3) {
	c.EulerRotation = rotation
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		rotation := math.NewMat4EulerXYZ(c.EulerRotation.X, c.EulerRotation.Y, c.EulerRotation.Z)
		translation := math.NewMat4Translation(c.Position)

		c.ViewMatrix = rotation.Mul(translation)
		c.ViewMatrix = c.ViewMatrix.Inverse()

		c.IsDirty = false
	}
	return c.ViewMatrix
}

// GetProjection builds the camera's perspective projection from its
// current lens settings.
func (c *Camera) GetProjection() math.Mat4 {
	return math.NewMat4Perspective(c.FOV, c.Aspect, c.NearClip, c.FarClip)
}

func (c *Camera) Forward() math.Vec3 {
	view := c.GetView()
	return view.Forward()
}

func (c *Camera) Backward() math.Vec3 {
	view := c.GetView()
	return view.Backward()
}

func (c *Camera) Left() math.Vec3 {
	view := c.GetView()
	return view.Left()
}

func (c *Camera) Right() math.Vec3 {
	view := c.GetView()
	return view.Right()
}

func (c *Camera) MoveForward(amount float32) {
	direction := c.Forward()
	direction = direction.MulScalar(amount)
	c.Position = c.Position.Add(direction)
	c.IsDirty = true
}

func (c *Camera) MoveUp(amount float32) {
	direction := math.NewVec3Up()
	direction = direction.MulScalar(amount)
	c.Position = c.Position.Add(direction)
	c.IsDirty = true
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation.Y += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation.X += amount

	// Clamp to avoid Gimbal lock.
	limit := float32(1.55334306) // 89 degrees, or equivalent to deg_to_rad(89.0f);
	c.EulerRotation.X = math.Clamp(c.EulerRotation.X, -limit, limit)

	c.IsDirty = true
}
