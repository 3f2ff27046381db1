package physics

import (
	"errors"

	"rigid3d/internal/shape"
)

var (
	// ErrInvalidArgument mirrors the shape package sentinel so callers can
	// match either with errors.Is.
	ErrInvalidArgument = shape.ErrInvalidArgument

	// ErrUnsupported reports an operation a variant cannot perform, such
	// as applying a force to a mesh-backed collider.
	ErrUnsupported = shape.ErrUnsupported

	// ErrDestroyed reports a call on a destroyed object. Only IsDestroyed
	// remains legal after Destroy.
	ErrDestroyed = errors.New("object destroyed")

	// ErrCrossWorld reports mixing objects owned by different worlds.
	ErrCrossWorld = errors.New("objects belong to different worlds")

	// ErrUnknownTag reports a tag that was not declared when the world was
	// created.
	ErrUnknownTag = errors.New("unknown tag")
)
