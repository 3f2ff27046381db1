package physics

import (
	"cogentcore.org/core/math32"

	"rigid3d/internal/collide"
	"rigid3d/internal/shape"
)

// Contact is one touching shape pair for the current step. Callbacks receive
// it mutable: friction, restitution and the response surface can be adjusted
// before the solver runs, and EnableResponse(false) turns the contact into a
// detection-only event for this step.
type Contact struct {
	a, b        *Collider
	shapeA      shape.Shape
	shapeB      shape.Shape
	manifold    collide.Manifold
	friction    float32
	restitution float32
	surfaceVel  math32.Vector3
	respond     bool

	points []contactPoint
}

// contactPoint carries per-point solver state. Normal and tangent impulses
// accumulate across solver iterations so clamping stays correct.
type contactPoint struct {
	point      math32.Vector3
	depth      float32
	rA, rB     math32.Vector3
	normalMass float32
	bias       float32
	restBias   float32
	normalImp  float32
	tangentImp [2]float32
	tangents   [2]math32.Vector3
	tanMass    [2]float32
}

// ColliderA returns the first collider of the pair.
func (ct *Contact) ColliderA() *Collider { return ct.a }

// ColliderB returns the second collider of the pair.
func (ct *Contact) ColliderB() *Collider { return ct.b }

// ShapeA returns the touching shape owned by ColliderA.
func (ct *Contact) ShapeA() shape.Shape { return ct.shapeA }

// ShapeB returns the touching shape owned by ColliderB.
func (ct *Contact) ShapeB() shape.Shape { return ct.shapeB }

// Normal returns the contact normal pointing from A toward B.
func (ct *Contact) Normal() math32.Vector3 { return ct.manifold.Normal }

// Depth returns the deepest penetration across the contact points.
func (ct *Contact) Depth() float32 { return ct.manifold.Depth }

// Points returns the world-space contact points.
func (ct *Contact) Points() []math32.Vector3 {
	pts := make([]math32.Vector3, len(ct.manifold.Points))
	copy(pts, ct.manifold.Points)
	return pts
}

// Friction returns the friction coefficient used by the solver.
func (ct *Contact) Friction() float32 { return ct.friction }

// SetFriction overrides friction for this step.
func (ct *Contact) SetFriction(f float32) { ct.friction = math32.Max(f, 0) }

// Restitution returns the restitution used by the solver.
func (ct *Contact) Restitution() float32 { return ct.restitution }

// SetRestitution overrides restitution for this step.
func (ct *Contact) SetRestitution(r float32) { ct.restitution = math32.Max(r, 0) }

// SurfaceVelocity returns the conveyor-style tangential surface velocity.
func (ct *Contact) SurfaceVelocity() math32.Vector3 { return ct.surfaceVel }

// SetSurfaceVelocity makes the contact surface behave like a conveyor moving
// with the given world-space velocity.
func (ct *Contact) SetSurfaceVelocity(v math32.Vector3) { ct.surfaceVel = v }

// ResponseEnabled reports whether the solver will resolve this contact.
func (ct *Contact) ResponseEnabled() bool { return ct.respond }

// EnableResponse toggles collision response for this step only; detection
// callbacks still fire either way.
func (ct *Contact) EnableResponse(on bool) { ct.respond = on }

// pairKey identifies an unordered collider pair across steps.
type pairKey struct {
	lo, hi uint64
}

func makePairKey(a, b *Collider) pairKey {
	if a.id < b.id {
		return pairKey{a.id, b.id}
	}
	return pairKey{b.id, a.id}
}

// pairState tracks which step a pair was last seen touching, driving the
// enter and exit callbacks.
type pairState struct {
	a, b     *Collider
	lastSeen uint64
}
