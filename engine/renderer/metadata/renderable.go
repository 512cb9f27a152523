package metadata

import (
	"github.com/spaghettifunk/prism/engine/math"
)

// Renderable is one drawable object as the culling system sees it: an ID
// for debug attribution, world-space bounds, and the facts the pipeline
// sorts and filters on.
type Renderable struct {
	ID     string
	Bounds math.Extents3D
	Queue  RenderQueue
	// CastsShadows excludes the object from shadow atlas passes when
	// false; it still receives shadows.
	CastsShadows bool
	// EditorGizmo marks editor-only geometry that is culled out of game
	// cameras entirely.
	EditorGizmo bool
}
