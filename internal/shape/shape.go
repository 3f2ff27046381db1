// Package shape provides the geometric primitives used by the physics core:
// boxes, spheres, capsules, cylinders, convex hulls, triangle meshes and
// heightfield terrain. Shapes are immutable geometry plus a local offset pose
// and a density; everything derived (volume, mass, inertia, AABB) is computed
// on demand.
package shape

import (
	"errors"

	"cogentcore.org/core/math32"
)

var (
	// ErrInvalidArgument reports malformed construction input such as
	// non-positive dimensions or degenerate point lists.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupported reports an operation a shape variant cannot perform,
	// such as asking a mesh for its mass.
	ErrUnsupported = errors.New("unsupported operation")
)

// Pose is a rigid transform: a position plus an orientation.
type Pose struct {
	Pos math32.Vector3
	Rot math32.Quat
}

// Identity returns the identity pose.
func Identity() Pose {
	p := Pose{}
	p.Rot.SetIdentity()
	return p
}

// Transform maps a local-space point into the pose's space.
func (p Pose) Transform(v math32.Vector3) math32.Vector3 {
	return v.MulQuat(p.Rot).Add(p.Pos)
}

// TransformDir rotates a direction without translating it.
func (p Pose) TransformDir(v math32.Vector3) math32.Vector3 {
	return v.MulQuat(p.Rot)
}

// InvTransform maps a world-space point into the pose's local space.
func (p Pose) InvTransform(v math32.Vector3) math32.Vector3 {
	return v.Sub(p.Pos).MulQuat(p.Rot.Inverse())
}

// InvTransformDir rotates a world direction into local space.
func (p Pose) InvTransformDir(v math32.Vector3) math32.Vector3 {
	return v.MulQuat(p.Rot.Inverse())
}

// Mul composes two poses: the result applies child first, then p.
func (p Pose) Mul(child Pose) Pose {
	return Pose{
		Pos: p.Transform(child.Pos),
		Rot: p.Rot.Mul(child.Rot),
	}
}

// MassData holds the mass properties of a shape at its given density.
// Inertia is the diagonal of the body-frame inertia tensor; InertiaRot rotates
// that frame into the shape's local frame (identity for primitives, the
// principal-axis rotation for convex hulls).
type MassData struct {
	Mass       float32
	Center     math32.Vector3
	Inertia    math32.Vector3
	InertiaRot math32.Quat
}

// Hit is a single raycast intersection.
type Hit struct {
	Point    math32.Vector3
	Normal   math32.Vector3
	Fraction float32 // 0..1 along the cast segment
}

// Shape is the closed set of geometric variants. All geometry queries take the
// owning collider's world pose; pass Identity() for a detached shape.
type Shape interface {
	// Offset returns the shape's local offset pose relative to its owner.
	Offset() Pose

	// SetOffset replaces the local offset pose.
	SetOffset(p Pose)

	// Density returns the shape's density.
	Density() float32

	// SetDensity sets the density and notifies the owner, if any.
	SetDensity(d float32) error

	// Volume returns the enclosed volume. Zero for meshes and terrain.
	Volume() float32

	// MassData computes mass, center of mass and inertia from the geometry
	// and density. Meshes and terrain return ErrUnsupported.
	MassData() (MassData, error)

	// AABB returns the tight world-space bounding box of the shape placed
	// under owner * offset.
	AABB(owner Pose) math32.Box3

	// ContainsPoint reports whether the world-space point is inside the
	// shape placed under owner * offset.
	ContainsPoint(owner Pose, p math32.Vector3) bool

	// Raycast intersects the segment from start to end with the shape
	// placed under owner * offset.
	Raycast(owner Pose, start, end math32.Vector3) (Hit, bool)

	// Support returns the local-space point of the shape farthest along
	// dir, ignoring the offset pose. Used by GJK; meshes and terrain are
	// not convex and panic if asked.
	Support(dir math32.Vector3) math32.Vector3
}

// Owner receives change notifications from attached shapes so it can keep
// derived mass properties current.
type Owner interface {
	ShapeChanged()
}

// Base carries the state shared by every shape variant.
type Base struct {
	offset  Pose
	density float32
	owner   Owner
}

func newBase(density float32) Base {
	return Base{offset: Identity(), density: density}
}

func (b *Base) Offset() Pose { return b.offset }

func (b *Base) SetOffset(p Pose) {
	if p.Rot.IsNil() {
		p.Rot.SetIdentity()
	}
	b.offset = p
	b.notify()
}

func (b *Base) Density() float32 { return b.density }

func (b *Base) SetDensity(d float32) error {
	if d <= 0 || math32.IsNaN(d) {
		return ErrInvalidArgument
	}
	b.density = d
	b.notify()
	return nil
}

// SetOwner attaches or detaches the shape's owner. Called by the physics
// package only.
func (b *Base) SetOwner(o Owner) { b.owner = o }

// Attached reports whether the shape currently belongs to a collider.
func (b *Base) Attached() bool { return b.owner != nil }

func (b *Base) notify() {
	if b.owner != nil {
		b.owner.ShapeChanged()
	}
}

// world composes the owner pose with the local offset.
func (b *Base) world(owner Pose) Pose {
	return owner.Mul(b.offset)
}

// boxFromCorners returns the world AABB of the 8 corners of a local box with
// the given half extents under the pose.
func boxFromCorners(p Pose, half math32.Vector3) math32.Box3 {
	bb := math32.B3Empty()
	for i := 0; i < 8; i++ {
		c := math32.Vec3(
			half.X*sign(i&1 == 0),
			half.Y*sign(i&2 == 0),
			half.Z*sign(i&4 == 0),
		)
		bb.ExpandByPoint(p.Transform(c))
	}
	return bb
}

func sign(pos bool) float32 {
	if pos {
		return 1
	}
	return -1
}

// segmentParam returns the parameter along a->b closest to p, clamped to [0,1].
func segmentParam(a, b, p math32.Vector3) float32 {
	ab := b.Sub(a)
	denom := ab.LengthSquared()
	if denom == 0 {
		return 0
	}
	return clamp(p.Sub(a).Dot(ab)/denom, 0, 1)
}

func clamp(x, lo, hi float32) float32 {
	return math32.Min(math32.Max(x, lo), hi)
}
