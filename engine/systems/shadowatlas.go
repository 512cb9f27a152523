package systems

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// PlanTileResolution picks the per-tile resolution for a shadow atlas that
// must hold tileCount square depth tiles. It starts from the largest square
// that fits the atlas and halves until the grid holds every tile. The result
// stays power-of-two as long as the atlas dimensions are.
func PlanTileResolution(atlasWidth, atlasHeight uint32, tileCount int) (uint32, error) {
	if tileCount <= 0 {
		core.LogError("func PlanTileResolution - tile count must be positive, got %d", tileCount)
		return 0, core.ErrInvalidCascadeIndex
	}
	minDim := atlasWidth
	if atlasHeight < minDim {
		minDim = atlasHeight
	}
	// the halving loop gives up once tiles would shrink past one texel
	steps := 0
	for d := minDim; d > 1; d >>= 1 {
		steps++
	}
	if tileCount > steps {
		return 0, fmt.Errorf("func PlanTileResolution - atlas %dx%d cannot hold %d tiles: %w",
			atlasWidth, atlasHeight, tileCount, core.ErrAtlasTooSmall)
	}
	resolution := minDim
	for int((atlasWidth/resolution)*(atlasHeight/resolution)) < tileCount {
		resolution >>= 1
	}
	return resolution, nil
}

// PlanTileViewport returns the atlas-space origin of a cascade tile. Tiles
// are packed two per row, left to right, top to bottom.
func PlanTileViewport(cascadeIndex int, tileResolution uint32) (uint32, uint32) {
	x := uint32(cascadeIndex%2) * tileResolution
	y := uint32(cascadeIndex/2) * tileResolution
	return x, y
}

// PlanTileTransform returns the tile origin together with the matrix that
// remaps clip-space [-1,1] coordinates into the tile's normalized sub-rect
// of the atlas. The remap to [0,1] and the tile scale/bias are pre-composed
// so callers append a single matrix to the light view-projection.
func PlanTileTransform(cascadeIndex int, tileResolution, atlasWidth, atlasHeight uint32) (uint32, uint32, math.Mat4, error) {
	if cascadeIndex < 0 || cascadeIndex >= metadata.MaxShadowCascades {
		core.LogError("func PlanTileTransform - cascade index %d out of range", cascadeIndex)
		return 0, 0, math.NewMat4Identity(), core.ErrInvalidCascadeIndex
	}
	x, y := PlanTileViewport(cascadeIndex, tileResolution)

	// [-1,1] -> [0,1] on all three axes
	remap := math.NewMat4Scale(math.Vec3{X: 0.5, Y: 0.5, Z: 0.5})
	remap = remap.Mul(math.NewMat4Translation(math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}))

	// [0,1] -> tile sub-rect of the atlas
	sx := float32(tileResolution) / float32(atlasWidth)
	sy := float32(tileResolution) / float32(atlasHeight)
	tile := math.NewMat4Scale(math.Vec3{X: sx, Y: sy, Z: 1.0})
	tile = tile.Mul(math.NewMat4Translation(math.Vec3{
		X: float32(x) / float32(atlasWidth),
		Y: float32(y) / float32(atlasHeight),
	}))

	return x, y, remap.Mul(tile), nil
}
