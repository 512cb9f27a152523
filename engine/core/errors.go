package core

import (
	"errors"
)

var (
	// ErrCullingFailed is returned when a camera yields no valid culling
	// parameters. The camera is skipped for the frame.
	ErrCullingFailed = errors.New("culling parameters could not be derived for camera")
	// ErrNoCasterBounds is returned when no shadow caster intersects a
	// cascade's culling volume. The cascade render is skipped.
	ErrNoCasterBounds = errors.New("no shadow caster bounds for cascade")
	// ErrAtlasTooSmall is returned when the shadow atlas cannot fit the
	// requested tile count at any resolution.
	ErrAtlasTooSmall = errors.New("shadow atlas too small for requested tile count")
	// ErrUnsupportedShadowCaster is returned for light types that have no
	// shadow map path (e.g. point lights).
	ErrUnsupportedShadowCaster = errors.New("light type does not support shadow maps")
	// ErrInvalidCascadeIndex indicates a cascade index at or beyond the
	// configured cascade count. This is a configuration mismatch, not a
	// runtime condition.
	ErrInvalidCascadeIndex = errors.New("cascade index out of range")
	ErrUnknown             = errors.New("unknown")
)
