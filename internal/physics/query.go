package physics

import (
	"fmt"
	"strings"

	"cogentcore.org/core/math32"

	"rigid3d/internal/collide"
	"rigid3d/internal/shape"
)

// Queries inspect the world without mutating it. A filter expression is a
// space-separated list of tags; a leading ~ excludes a tag. "player ~debris"
// matches colliders tagged player and everything untagged, but never debris.
// The empty string matches everything.

// tagFilter is a compiled filter expression.
type tagFilter struct {
	include    uint32
	exclude    uint32
	hasInclude bool
}

func (w *World) parseFilter(expr string) (tagFilter, error) {
	var f tagFilter
	for _, tok := range strings.Fields(expr) {
		name, excl := tok, false
		if strings.HasPrefix(tok, "~") {
			name, excl = tok[1:], true
		}
		idx := w.tagIndex(name)
		if idx < 0 {
			return f, fmt.Errorf("filter tag %q: %w", name, ErrUnknownTag)
		}
		if excl {
			f.exclude |= 1 << uint(idx)
		} else {
			f.include |= 1 << uint(idx)
			f.hasInclude = true
		}
	}
	return f, nil
}

// matches applies the filter; untagged colliders pass unless the filter
// lists explicit includes.
func (f tagFilter) matches(c *Collider) bool {
	if c.tag < 0 {
		return !f.hasInclude
	}
	bit := uint32(1) << uint(c.tag)
	if f.exclude&bit != 0 {
		return false
	}
	if f.hasInclude && f.include&bit == 0 {
		return false
	}
	return true
}

// RaycastHit describes one shape intersection along a ray.
type RaycastHit struct {
	Collider *Collider
	Shape    shape.Shape
	Point    math32.Vector3
	Normal   math32.Vector3
	Fraction float32
}

// Raycast calls cb for every shape the segment from start to end intersects,
// in no particular order. Returning false from cb stops the cast.
func (w *World) Raycast(start, end math32.Vector3, filter string, cb func(RaycastHit) bool) error {
	if err := w.alive(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("raycast needs a callback: %w", ErrInvalidArgument)
	}
	f, err := w.parseFilter(filter)
	if err != nil {
		return err
	}
	bb := math32.B3Empty()
	bb.ExpandByPoint(start)
	bb.ExpandByPoint(end)

	w.grid.ForEachInBox(bb, func(id uint64) bool {
		c, ok := w.byID[id]
		if !ok || !f.matches(c) {
			return true
		}
		for _, s := range c.shapes {
			hit, ok := s.Raycast(c.pose, start, end)
			if !ok {
				continue
			}
			if !cb(RaycastHit{Collider: c, Shape: s, Point: hit.Point, Normal: hit.Normal, Fraction: hit.Fraction}) {
				return false
			}
		}
		return true
	})
	return nil
}

// RaycastClosest returns the nearest intersection along the segment, if any.
func (w *World) RaycastClosest(start, end math32.Vector3, filter string) (RaycastHit, bool, error) {
	var best RaycastHit
	best.Fraction = math32.Inf(1)
	found := false
	err := w.Raycast(start, end, filter, func(h RaycastHit) bool {
		if h.Fraction < best.Fraction {
			best = h
			found = true
		}
		return true
	})
	if err != nil || !found {
		return RaycastHit{}, false, err
	}
	return best, true, nil
}

// OverlapShape calls cb for every shape overlapping the given shape placed
// at pose. Returning false from cb stops the query.
func (w *World) OverlapShape(s shape.Shape, pose shape.Pose, filter string, cb func(*Collider, shape.Shape) bool) error {
	if err := w.alive(); err != nil {
		return err
	}
	if s == nil || cb == nil {
		return fmt.Errorf("overlap needs a shape and a callback: %w", ErrInvalidArgument)
	}
	f, err := w.parseFilter(filter)
	if err != nil {
		return err
	}
	bb := s.AABB(pose)
	w.grid.ForEachInBox(bb, func(id uint64) bool {
		c, ok := w.byID[id]
		if !ok || !f.matches(c) {
			return true
		}
		for _, other := range c.shapes {
			if _, hit := collide.Shapes(s, pose, other, c.pose); hit {
				if !cb(c, other) {
					return false
				}
			}
		}
		return true
	})
	return nil
}

// ShapecastHit describes the first contact of a swept shape.
type ShapecastHit struct {
	Collider *Collider
	Shape    shape.Shape
	Fraction float32
}

const (
	shapecastSteps   = 16
	shapecastRefines = 8
)

// Shapecast sweeps a shape from pose toward target and returns the first
// colliding placement. The sweep samples the path and refines the impact
// fraction by bisection, so very thin obstacles can be missed when the
// travel per sample exceeds their size.
func (w *World) Shapecast(s shape.Shape, pose shape.Pose, target math32.Vector3, filter string) (ShapecastHit, bool, error) {
	if err := w.alive(); err != nil {
		return ShapecastHit{}, false, err
	}
	if s == nil {
		return ShapecastHit{}, false, fmt.Errorf("shapecast needs a shape: %w", ErrInvalidArgument)
	}
	f, err := w.parseFilter(filter)
	if err != nil {
		return ShapecastHit{}, false, err
	}

	delta := target.Sub(pose.Pos)
	at := func(t float32) shape.Pose {
		return shape.Pose{Pos: pose.Pos.Add(delta.MulScalar(t)), Rot: pose.Rot}
	}
	probe := func(t float32) (*Collider, shape.Shape, bool) {
		p := at(t)
		bb := s.AABB(p)
		var hitC *Collider
		var hitS shape.Shape
		w.grid.ForEachInBox(bb, func(id uint64) bool {
			c, ok := w.byID[id]
			if !ok || !f.matches(c) {
				return true
			}
			for _, other := range c.shapes {
				if _, hit := collide.Shapes(s, p, other, c.pose); hit {
					hitC, hitS = c, other
					return false
				}
			}
			return true
		})
		return hitC, hitS, hitC != nil
	}

	lo := float32(0)
	var hitAt float32 = -1
	var hitC *Collider
	var hitS shape.Shape
	for i := 0; i <= shapecastSteps; i++ {
		t := float32(i) / shapecastSteps
		if c, sh, hit := probe(t); hit {
			hitAt, hitC, hitS = t, c, sh
			break
		}
		lo = t
	}
	if hitAt < 0 {
		return ShapecastHit{}, false, nil
	}
	hi := hitAt
	for i := 0; i < shapecastRefines; i++ {
		mid := (lo + hi) / 2
		if c, sh, hit := probe(mid); hit {
			hi, hitC, hitS = mid, c, sh
		} else {
			lo = mid
		}
	}
	return ShapecastHit{Collider: hitC, Shape: hitS, Fraction: hi}, true, nil
}

// QueryBox calls cb for every collider whose bounding box overlaps an
// axis-aligned box. This is a broad-phase query; it never inspects exact
// shape geometry. Returning false from cb stops it.
func (w *World) QueryBox(center, size math32.Vector3, filter string, cb func(*Collider) bool) error {
	if err := w.alive(); err != nil {
		return err
	}
	if cb == nil {
		return fmt.Errorf("query needs a callback: %w", ErrInvalidArgument)
	}
	f, err := w.parseFilter(filter)
	if err != nil {
		return err
	}
	half := size.MulScalar(0.5)
	bb := math32.Box3{Min: center.Sub(half), Max: center.Add(half)}
	w.grid.ForEachInBox(bb, func(id uint64) bool {
		c, ok := w.byID[id]
		if !ok || !f.matches(c) {
			return true
		}
		if !bb.IntersectsBox(c.AABB()) {
			return true
		}
		return cb(c)
	})
	return nil
}

// QuerySphere calls cb for every collider whose bounding box overlaps a
// sphere. Like QueryBox this works on bounding boxes only.
func (w *World) QuerySphere(center math32.Vector3, radius float32, filter string, cb func(*Collider) bool) error {
	r := math32.Vec3(radius, radius, radius)
	return w.QueryBox(center, r.MulScalar(2), filter, cb)
}
