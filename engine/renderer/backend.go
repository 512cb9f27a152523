package renderer

import (
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Backend is the draw/resource collaborator the pipeline records
// commands against. Implementations consume the commands later in a
// graphics context of their own; the pipeline never waits on them.
//
// Temporary textures are process-wide named resources keyed by
// metadata.TargetID. Two cameras may alias the same identifiers, which
// is why the orchestrator releases one camera's temporaries before the
// next camera acquires any.
type Backend interface {
	// GetTemporaryTexture allocates (or reuses) the named temporary
	// render target.
	GetTemporaryTexture(id metadata.TargetID, desc metadata.TextureDescriptor)
	// ReleaseTemporaryTexture releases the named temporary render
	// target. Releasing an identifier that was never acquired is a
	// no-op.
	ReleaseTemporaryTexture(id metadata.TargetID)

	// SetupCameraProperties hands per-camera view/projection state to
	// the backend before any of the camera's passes execute.
	SetupCameraProperties(props metadata.CameraProperties)

	SetRenderTarget(colour, depth metadata.TargetID)
	Clear(flags metadata.ClearFlag, colour math.Vec4, depth float32)
	SetViewport(viewport metadata.Viewport)

	// DrawRenderers submits the filtered, sorted renderer set for the
	// named shader pass.
	DrawRenderers(settings metadata.DrawSettings)
	// Blit copies src into dst through the named material's shader.
	Blit(src, dst metadata.TargetID, material string)

	SetGlobalVector(id metadata.ConstantID, value math.Vec4)
	SetGlobalVectorArray(id metadata.ConstantID, values []math.Vec4)
	SetGlobalMatrix(id metadata.ConstantID, value math.Mat4)
	SetGlobalMatrixArray(id metadata.ConstantID, values []math.Mat4)
	SetGlobalTexture(id metadata.ConstantID, target metadata.TargetID)

	// SetKeyword toggles a global shader compilation keyword.
	SetKeyword(keyword string, enabled bool)
}
