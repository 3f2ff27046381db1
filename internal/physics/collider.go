package physics

import (
	"fmt"

	"cogentcore.org/core/math32"

	"rigid3d/internal/shape"
)

// Collider is a rigid body owned by a World. It owns an ordered set of
// shapes and carries non-owning back-references to the joints attached to it.
//
// Outside of construction, pose and velocity setters stage their values;
// World.Update applies staged state at the start of the next step so that a
// step always sees a consistent snapshot. Impulses are the exception: they
// change velocity immediately, independent of dt.
type Collider struct {
	world *World
	id    uint64
	tag   int // index into world tags, -1 for none

	pose     shape.Pose
	prevPose shape.Pose
	linVel   math32.Vector3
	angVel   math32.Vector3
	staged   stagedState

	force  math32.Vector3
	torque math32.Vector3

	mass        float32
	invMass     float32
	localCenter math32.Vector3
	inertia     math32.Vector3
	invInertia  math32.Vector3
	inertiaRot  math32.Quat
	autoMass    bool

	linearDamping  float32
	angularDamping float32
	gravityScale   float32
	friction       float32
	restitution    float32

	kinematic    bool
	sensor       bool
	continuous   bool
	sleepAllowed bool
	awake        bool
	enabled      bool
	static       bool // carries mesh/terrain geometry

	dofPos [3]bool
	dofRot [3]bool

	sleepTime float32

	shapes    []shape.Shape
	joints    []Joint
	destroyed bool
}

type stagedState struct {
	hasPose   bool
	pose      shape.Pose
	hasLinVel bool
	linVel    math32.Vector3
	hasAngVel bool
	angVel    math32.Vector3
}

func newCollider(w *World, pos math32.Vector3) *Collider {
	w.nextID++
	c := &Collider{
		world:        w,
		id:           w.nextID,
		tag:          -1,
		pose:         shape.Pose{Pos: pos, Rot: identQuat()},
		mass:         1,
		invMass:      1,
		inertia:      math32.Vec3(1, 1, 1),
		invInertia:   math32.Vec3(1, 1, 1),
		inertiaRot:   identQuat(),
		gravityScale: 1,
		friction:     0.2,
		restitution:  0,
		autoMass:     true,
		sleepAllowed: true,
		awake:        true,
		enabled:      true,
		dofPos:       [3]bool{true, true, true},
		dofRot:       [3]bool{true, true, true},
	}
	c.prevPose = c.pose
	return c
}

func identQuat() math32.Quat {
	var q math32.Quat
	q.SetIdentity()
	return q
}

// IsDestroyed reports whether Destroy has been called. Always safe.
func (c *Collider) IsDestroyed() bool { return c.destroyed }

func (c *Collider) alive() error {
	if c.destroyed {
		return fmt.Errorf("collider: %w", ErrDestroyed)
	}
	return nil
}

// Destroy removes the collider from its world, destroying its owned shapes
// and every joint referencing it. Destroying twice is a reported no-op.
func (c *Collider) Destroy() error {
	if c.destroyed {
		return fmt.Errorf("collider already destroyed: %w", ErrDestroyed)
	}
	c.world.removeCollider(c)
	return nil
}

// World returns the owning world.
func (c *Collider) World() *World { return c.world }

//////// shapes

// AddShape attaches a shape. A shape may belong to at most one collider;
// attaching an owned shape is an error. Mesh and terrain shapes force the
// collider static.
func (c *Collider) AddShape(s shape.Shape) error {
	if err := c.alive(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("add shape: %w", ErrInvalidArgument)
	}
	type attachable interface {
		Attached() bool
		SetOwner(shape.Owner)
	}
	at, ok := s.(attachable)
	if !ok || at.Attached() {
		return fmt.Errorf("shape already owned: %w", ErrInvalidArgument)
	}
	switch s.(type) {
	case *shape.Mesh, *shape.Terrain:
		c.static = true
		c.linVel.SetZero()
		c.angVel.SetZero()
	}
	at.SetOwner(c)
	c.shapes = append(c.shapes, s)
	c.ShapeChanged()
	c.world.refreshBroadphase(c)
	return nil
}

// RemoveShape detaches a shape without destroying it; the shape stays usable
// for queries.
func (c *Collider) RemoveShape(s shape.Shape) error {
	if err := c.alive(); err != nil {
		return err
	}
	for i, owned := range c.shapes {
		if owned == s {
			c.shapes = append(c.shapes[:i], c.shapes[i+1:]...)
			if at, ok := s.(interface{ SetOwner(shape.Owner) }); ok {
				at.SetOwner(nil)
			}
			c.static = c.hasConcaveShape()
			c.ShapeChanged()
			c.world.refreshBroadphase(c)
			return nil
		}
	}
	return fmt.Errorf("shape not owned by collider: %w", ErrInvalidArgument)
}

// Shapes returns the owned shapes in attachment order.
func (c *Collider) Shapes() []shape.Shape {
	return append([]shape.Shape(nil), c.shapes...)
}

// Joints returns the joints attached to this collider.
func (c *Collider) Joints() []Joint {
	return append([]Joint(nil), c.joints...)
}

func (c *Collider) hasConcaveShape() bool {
	for _, s := range c.shapes {
		switch s.(type) {
		case *shape.Mesh, *shape.Terrain:
			return true
		}
	}
	return false
}

// ShapeChanged implements shape.Owner: geometry, offset or density of an
// owned shape changed, so recompute mass when automatic mass is on.
func (c *Collider) ShapeChanged() {
	if c.autoMass {
		c.recomputeMass()
	}
}

func (c *Collider) recomputeMass() {
	var mds []shape.MassData
	for _, s := range c.shapes {
		md, err := s.MassData()
		if err != nil {
			continue // massless variants contribute nothing
		}
		mds = append(mds, md)
	}
	md := shape.CombineMassData(mds)
	if md.Mass <= 0 {
		// shapeless or massless collider keeps unit mass so impulses
		// stay finite
		md = shape.MassData{
			Mass:       1,
			Inertia:    math32.Vec3(1, 1, 1),
			InertiaRot: identQuat(),
		}
	}
	c.applyMassData(md)
}

func (c *Collider) applyMassData(md shape.MassData) {
	c.mass = md.Mass
	c.localCenter = md.Center
	c.inertia = md.Inertia
	c.inertiaRot = md.InertiaRot
	if c.static || c.kinematic {
		c.invMass = 0
		c.invInertia.SetZero()
		return
	}
	c.invMass = 1 / md.Mass
	c.invInertia = math32.Vec3(
		safeInv(md.Inertia.X),
		safeInv(md.Inertia.Y),
		safeInv(md.Inertia.Z),
	)
}

func safeInv(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return 1 / v
}

//////// mass properties

// Mass returns the collider's mass. Static colliders report zero.
func (c *Collider) Mass() float32 {
	if c.static {
		return 0
	}
	return c.mass
}

// SetMass overrides the mass and switches automatic mass off.
func (c *Collider) SetMass(m float32) error {
	if err := c.alive(); err != nil {
		return err
	}
	if m <= 0 || math32.IsNaN(m) {
		return fmt.Errorf("mass must be positive: %w", ErrInvalidArgument)
	}
	if c.static {
		return fmt.Errorf("static collider has no mass: %w", ErrUnsupported)
	}
	c.autoMass = false
	md := shape.MassData{Mass: m, Center: c.localCenter, Inertia: c.inertia, InertiaRot: c.inertiaRot}
	c.applyMassData(md)
	return nil
}

// CenterOfMass returns the local-space center of mass.
func (c *Collider) CenterOfMass() math32.Vector3 { return c.localCenter }

// Inertia returns the diagonal inertia and the rotation taking the diagonal
// frame into collider space.
func (c *Collider) Inertia() (math32.Vector3, math32.Quat) {
	return c.inertia, c.inertiaRot
}

// AutomaticMass reports whether mass tracks the owned shapes.
func (c *Collider) AutomaticMass() bool { return c.autoMass }

// SetAutomaticMass toggles automatic mass; enabling recomputes immediately.
func (c *Collider) SetAutomaticMass(on bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	c.autoMass = on
	if on {
		c.recomputeMass()
	}
	return nil
}

//////// pose and velocity

// Position returns the world position as of the last step.
func (c *Collider) Position() math32.Vector3 { return c.pose.Pos }

// Orientation returns the world orientation as of the last step.
func (c *Collider) Orientation() math32.Quat { return c.pose.Rot }

// Pose returns position and orientation together.
func (c *Collider) Pose() shape.Pose { return c.pose }

// SetPosition stages a new world position, applied at the next update.
func (c *Collider) SetPosition(p math32.Vector3) error {
	if err := c.alive(); err != nil {
		return err
	}
	if !c.staged.hasPose {
		c.staged.pose = c.pose
	}
	c.staged.pose.Pos = p
	c.staged.hasPose = true
	c.SetAwake(true)
	return nil
}

// SetOrientation stages a new world orientation, applied at the next update.
func (c *Collider) SetOrientation(q math32.Quat) error {
	if err := c.alive(); err != nil {
		return err
	}
	q.Normalize()
	if !c.staged.hasPose {
		c.staged.pose = c.pose
	}
	c.staged.pose.Rot = q
	c.staged.hasPose = true
	c.SetAwake(true)
	return nil
}

// LinearVelocity returns the linear velocity.
func (c *Collider) LinearVelocity() math32.Vector3 { return c.linVel }

// AngularVelocity returns the angular velocity in radians per second.
func (c *Collider) AngularVelocity() math32.Vector3 { return c.angVel }

// SetLinearVelocity stages a linear velocity, applied at the next update.
func (c *Collider) SetLinearVelocity(v math32.Vector3) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.static {
		return fmt.Errorf("static collider cannot move: %w", ErrUnsupported)
	}
	c.staged.linVel = v
	c.staged.hasLinVel = true
	c.SetAwake(true)
	return nil
}

// SetAngularVelocity stages an angular velocity, applied at the next update.
func (c *Collider) SetAngularVelocity(v math32.Vector3) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.static {
		return fmt.Errorf("static collider cannot move: %w", ErrUnsupported)
	}
	c.staged.angVel = v
	c.staged.hasAngVel = true
	c.SetAwake(true)
	return nil
}

// applyStaged consumes staged mutations at the start of a step.
func (c *Collider) applyStaged() {
	if c.staged.hasPose {
		c.pose = c.staged.pose
		c.prevPose = c.pose
	}
	if c.staged.hasLinVel {
		c.linVel = c.staged.linVel
	}
	if c.staged.hasAngVel {
		c.angVel = c.staged.angVel
	}
	c.staged = stagedState{}
}

// worldCenter returns the center of mass in world space.
func (c *Collider) worldCenter() math32.Vector3 {
	return c.pose.Transform(c.localCenter)
}

//////// forces

// ApplyForce accumulates a world-space force at the center of mass for the
// next step.
func (c *Collider) ApplyForce(f math32.Vector3) error {
	return c.ApplyForceAt(f, c.worldCenter())
}

// ApplyForceAt accumulates a world-space force applied at a world point,
// adding the induced torque.
func (c *Collider) ApplyForceAt(f, at math32.Vector3) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.static {
		return fmt.Errorf("cannot apply force to static collider: %w", ErrUnsupported)
	}
	if c.kinematic {
		return nil // kinematic bodies ignore forces
	}
	c.force.SetAdd(f)
	c.torque.SetAdd(at.Sub(c.worldCenter()).Cross(f))
	c.SetAwake(true)
	return nil
}

// ApplyTorque accumulates a world-space torque for the next step.
func (c *Collider) ApplyTorque(t math32.Vector3) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.static {
		return fmt.Errorf("cannot apply torque to static collider: %w", ErrUnsupported)
	}
	if c.kinematic {
		return nil
	}
	c.torque.SetAdd(t)
	c.SetAwake(true)
	return nil
}

// ApplyLinearImpulse changes velocity immediately, independent of dt.
func (c *Collider) ApplyLinearImpulse(imp math32.Vector3) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.static {
		return fmt.Errorf("cannot apply impulse to static collider: %w", ErrUnsupported)
	}
	if c.kinematic {
		return nil
	}
	c.linVel.SetAdd(imp.MulScalar(c.invMass))
	c.SetAwake(true)
	return nil
}

// ApplyAngularImpulse changes angular velocity immediately.
func (c *Collider) ApplyAngularImpulse(imp math32.Vector3) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.static {
		return fmt.Errorf("cannot apply impulse to static collider: %w", ErrUnsupported)
	}
	if c.kinematic {
		return nil
	}
	c.angVel.SetAdd(c.invInertiaMul(imp))
	c.SetAwake(true)
	return nil
}

// invInertiaMul applies the world-space inverse inertia tensor to a vector.
func (c *Collider) invInertiaMul(v math32.Vector3) math32.Vector3 {
	q := c.pose.Rot.Mul(c.inertiaRot)
	local := v.MulQuat(q.Inverse())
	scaled := local.Mul(c.invInertia)
	return scaled.MulQuat(q)
}

//////// flags

// Kinematic reports whether the collider is kinematic.
func (c *Collider) Kinematic() bool { return c.kinematic }

// SetKinematic makes the body immune to forces, gravity and collision
// response while still movable through explicit velocity.
func (c *Collider) SetKinematic(on bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.static {
		return fmt.Errorf("mesh and terrain colliders stay static: %w", ErrUnsupported)
	}
	c.kinematic = on
	if c.autoMass {
		c.recomputeMass()
	} else {
		c.applyMassData(shape.MassData{Mass: c.mass, Center: c.localCenter, Inertia: c.inertia, InertiaRot: c.inertiaRot})
	}
	return nil
}

// Sensor reports whether the collider is a sensor.
func (c *Collider) Sensor() bool { return c.sensor }

// SetSensor disables collision response without disabling detection:
// enter/exit/contact callbacks keep firing.
func (c *Collider) SetSensor(on bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	c.sensor = on
	return nil
}

// Continuous reports whether swept collision detection is on.
func (c *Collider) Continuous() bool { return c.continuous }

// SetContinuous enables swept collision detection so fast motion cannot
// tunnel through thin obstacles.
func (c *Collider) SetContinuous(on bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	c.continuous = on
	return nil
}

// Enabled reports whether the collider participates in simulation.
func (c *Collider) Enabled() bool { return c.enabled }

// SetEnabled removes the collider from simulation and from the broad phase
// without destroying it.
func (c *Collider) SetEnabled(on bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.enabled == on {
		return nil
	}
	c.enabled = on
	if on {
		c.world.refreshBroadphase(c)
	} else {
		c.world.grid.Remove(c.id)
	}
	return nil
}

// SleepingAllowed reports whether this collider may sleep.
func (c *Collider) SleepingAllowed() bool { return c.sleepAllowed }

// SetSleepingAllowed controls whether this collider may sleep; disabling it
// wakes the collider.
func (c *Collider) SetSleepingAllowed(on bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	c.sleepAllowed = on
	if !on {
		c.SetAwake(true)
	}
	return nil
}

// IsAwake reports whether the collider is awake.
func (c *Collider) IsAwake() bool { return c.awake }

// SetAwake wakes or sleeps the collider. Waking propagates through the
// island so stacked bodies respond together.
func (c *Collider) SetAwake(on bool) {
	if c.destroyed {
		return
	}
	if on {
		if !c.awake {
			c.awake = true
			c.sleepTime = 0
			if c.world != nil {
				c.world.wakeConnected(c)
			}
		}
		c.sleepTime = 0
		return
	}
	c.awake = false
	c.sleepTime = 0
	c.linVel.SetZero()
	c.angVel.SetZero()
}

//////// material and damping

// Friction returns the default friction coefficient.
func (c *Collider) Friction() float32 { return c.friction }

// SetFriction sets the default friction used when this collider's contacts
// are created.
func (c *Collider) SetFriction(f float32) error {
	if err := c.alive(); err != nil {
		return err
	}
	if f < 0 {
		return fmt.Errorf("friction cannot be negative: %w", ErrInvalidArgument)
	}
	c.friction = f
	return nil
}

// Restitution returns the default restitution.
func (c *Collider) Restitution() float32 { return c.restitution }

// SetRestitution sets the default bounce used for new contacts.
func (c *Collider) SetRestitution(r float32) error {
	if err := c.alive(); err != nil {
		return err
	}
	if r < 0 {
		return fmt.Errorf("restitution cannot be negative: %w", ErrInvalidArgument)
	}
	c.restitution = r
	return nil
}

// LinearDamping returns the per-body linear damping.
func (c *Collider) LinearDamping() float32 { return c.linearDamping }

// SetLinearDamping sets the per-body linear damping.
func (c *Collider) SetLinearDamping(d float32) error {
	if err := c.alive(); err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("damping cannot be negative: %w", ErrInvalidArgument)
	}
	c.linearDamping = d
	return nil
}

// AngularDamping returns the per-body angular damping.
func (c *Collider) AngularDamping() float32 { return c.angularDamping }

// SetAngularDamping sets the per-body angular damping.
func (c *Collider) SetAngularDamping(d float32) error {
	if err := c.alive(); err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("damping cannot be negative: %w", ErrInvalidArgument)
	}
	c.angularDamping = d
	return nil
}

// GravityScale returns the per-body gravity multiplier.
func (c *Collider) GravityScale() float32 { return c.gravityScale }

// SetGravityScale sets the per-body gravity multiplier.
func (c *Collider) SetGravityScale(s float32) error {
	if err := c.alive(); err != nil {
		return err
	}
	c.gravityScale = s
	return nil
}

//////// tags and degrees of freedom

// Tag returns the collider's tag, or "" when untagged.
func (c *Collider) Tag() string {
	if c.tag < 0 {
		return ""
	}
	return c.world.cfg.Tags[c.tag]
}

// SetTag assigns a tag declared in the world's tag list; "" clears it.
func (c *Collider) SetTag(tag string) error {
	if err := c.alive(); err != nil {
		return err
	}
	if tag == "" {
		c.tag = -1
		return nil
	}
	idx := c.world.tagIndex(tag)
	if idx < 0 {
		return fmt.Errorf("tag %q: %w", tag, ErrUnknownTag)
	}
	c.tag = idx
	return nil
}

// SetDegreesOfFreedom restricts motion to the named axes: each argument is a
// string over {x, y, z} ("" locks every axis) selecting active translation
// and rotation axes.
func (c *Collider) SetDegreesOfFreedom(translation, rotation string) error {
	if err := c.alive(); err != nil {
		return err
	}
	pos, err := parseAxes(translation)
	if err != nil {
		return err
	}
	rot, err := parseAxes(rotation)
	if err != nil {
		return err
	}
	c.dofPos = pos
	c.dofRot = rot
	return nil
}

// DegreesOfFreedom returns the active translation and rotation axes.
func (c *Collider) DegreesOfFreedom() (translation, rotation string) {
	return axesString(c.dofPos), axesString(c.dofRot)
}

func parseAxes(s string) ([3]bool, error) {
	var axes [3]bool
	for _, r := range s {
		switch r {
		case 'x':
			axes[0] = true
		case 'y':
			axes[1] = true
		case 'z':
			axes[2] = true
		default:
			return axes, fmt.Errorf("axis %q: %w", string(r), ErrInvalidArgument)
		}
	}
	return axes, nil
}

func axesString(axes [3]bool) string {
	s := ""
	for i, name := range []string{"x", "y", "z"} {
		if axes[i] {
			s += name
		}
	}
	return s
}

// maskDOF zeroes velocity components on locked axes.
func (c *Collider) maskDOF() {
	if !c.dofPos[0] {
		c.linVel.X = 0
	}
	if !c.dofPos[1] {
		c.linVel.Y = 0
	}
	if !c.dofPos[2] {
		c.linVel.Z = 0
	}
	if !c.dofRot[0] {
		c.angVel.X = 0
	}
	if !c.dofRot[1] {
		c.angVel.Y = 0
	}
	if !c.dofRot[2] {
		c.angVel.Z = 0
	}
}

//////// geometry

// AABB returns the union of the owned shapes' world bounding boxes.
func (c *Collider) AABB() math32.Box3 {
	bb := math32.B3Empty()
	for _, s := range c.shapes {
		bb.ExpandByBox(s.AABB(c.pose))
	}
	if bb.IsEmpty() {
		bb.ExpandByPoint(c.pose.Pos)
	}
	return bb
}

// InterpolatedPose blends the previous and current step poses; alpha 0 is
// the previous pose, 1 the current.
func (c *Collider) InterpolatedPose(alpha float32) shape.Pose {
	q := c.prevPose.Rot
	q.Slerp(c.pose.Rot, alpha)
	return shape.Pose{
		Pos: c.prevPose.Pos.Lerp(c.pose.Pos, alpha),
		Rot: q,
	}
}

// dynamic reports whether the solver should move this collider.
func (c *Collider) dynamic() bool {
	return !c.static && !c.kinematic && c.enabled && !c.destroyed
}

// mover reports whether this collider can initiate contact activity: an
// awake dynamic body, or a kinematic body that is actually moving. Static
// geometry never wakes anything.
func (c *Collider) mover() bool {
	if !c.awake || c.static || !c.enabled || c.destroyed {
		return false
	}
	if c.kinematic {
		return c.linVel.LengthSquared() > 0 || c.angVel.LengthSquared() > 0
	}
	return true
}
