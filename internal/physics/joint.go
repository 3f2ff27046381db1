package physics

import (
	"fmt"

	"cogentcore.org/core/math32"

	"rigid3d/internal/shape"
)

// Joint constrains the relative motion of two colliders. The first collider
// may be nil, anchoring the joint to the world. Joints solve before contacts,
// in descending priority order.
type Joint interface {
	// Colliders returns the joined pair; the first may be nil.
	Colliders() (*Collider, *Collider)
	// Anchors returns the current world-space anchor points on each side.
	Anchors() (math32.Vector3, math32.Vector3)
	// Enabled reports whether the joint participates in solving.
	Enabled() bool
	// SetEnabled toggles the joint without destroying it.
	SetEnabled(on bool) error
	// Priority orders joint solving; higher priorities solve last and
	// therefore win when joints conflict.
	Priority() int
	// SetPriority sets the solve priority.
	SetPriority(p int) error
	// Force returns the magnitude of the linear force the joint applied
	// during the last step.
	Force() float32
	// Torque returns the magnitude of the angular force the joint applied
	// during the last step.
	Torque() float32
	// IsDestroyed reports whether Destroy has been called.
	IsDestroyed() bool
	// Destroy detaches the joint from both colliders and the world.
	Destroy() error

	base() *jointBase
	prepare(dt float32)
	solveVelocity(dt float32)
	solvePosition()
}

type jointBase struct {
	world     *World
	a, b      *Collider // a nil means world anchor
	anchorA   math32.Vector3
	anchorB   math32.Vector3 // local to each side; world space when a is nil
	enabled   bool
	priority  int
	destroyed bool

	linImp math32.Vector3
	angImp math32.Vector3
	lastDt float32
}

func (j *jointBase) base() *jointBase { return j }

func (j *jointBase) Colliders() (*Collider, *Collider) { return j.a, j.b }

func (j *jointBase) Enabled() bool { return j.enabled }

func (j *jointBase) SetEnabled(on bool) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.enabled = on
	return nil
}

func (j *jointBase) Priority() int { return j.priority }

func (j *jointBase) SetPriority(p int) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.priority = p
	j.world.jointsDirty = true
	return nil
}

func (j *jointBase) Force() float32 {
	if j.lastDt <= 0 {
		return 0
	}
	return j.linImp.Length() / j.lastDt
}

func (j *jointBase) Torque() float32 {
	if j.lastDt <= 0 {
		return 0
	}
	return j.angImp.Length() / j.lastDt
}

func (j *jointBase) IsDestroyed() bool { return j.destroyed }

func (j *jointBase) alive() error {
	if j.destroyed {
		return fmt.Errorf("joint: %w", ErrDestroyed)
	}
	return nil
}

// poseA returns the anchor frame on the A side; the identity pose when the
// joint is anchored to the world.
func (j *jointBase) poseA() shape.Pose {
	if j.a == nil {
		return shape.Identity()
	}
	return j.a.pose
}

// Anchors returns the world-space anchor points.
func (j *jointBase) Anchors() (math32.Vector3, math32.Vector3) {
	return j.poseA().Transform(j.anchorA), j.b.pose.Transform(j.anchorB)
}

// wake wakes both sides; a sleeping body must respond when its joint moves.
func (j *jointBase) wake() {
	if j.a != nil {
		j.a.SetAwake(true)
	}
	j.b.SetAwake(true)
}

//////// shared constraint math

// mat3 is a row-major 3x3 matrix used for constraint effective masses.
type mat3 [3][3]float32

func mat3Diag(v float32) mat3 {
	return mat3{{v, 0, 0}, {0, v, 0}, {0, 0, v}}
}

func (m mat3) add(o mat3) mat3 {
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			m[i][k] += o[i][k]
		}
	}
	return m
}

func (m mat3) mulVec(v math32.Vector3) math32.Vector3 {
	return math32.Vec3(
		m[0][0]*v.X+m[0][1]*v.Y+m[0][2]*v.Z,
		m[1][0]*v.X+m[1][1]*v.Y+m[1][2]*v.Z,
		m[2][0]*v.X+m[2][1]*v.Y+m[2][2]*v.Z,
	)
}

// solve computes m⁻¹ b, returning the zero vector for singular m.
func (m mat3) solve(b math32.Vector3) math32.Vector3 {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if math32.Abs(det) < 1e-12 {
		return math32.Vector3{}
	}
	inv := 1 / det
	return math32.Vec3(
		inv*(b.X*(m[1][1]*m[2][2]-m[1][2]*m[2][1])-m[0][1]*(b.Y*m[2][2]-m[1][2]*b.Z)+m[0][2]*(b.Y*m[2][1]-m[1][1]*b.Z)),
		inv*(m[0][0]*(b.Y*m[2][2]-m[1][2]*b.Z)-b.X*(m[1][0]*m[2][2]-m[1][2]*m[2][0])+m[0][2]*(m[1][0]*b.Z-b.Y*m[2][0])),
		inv*(m[0][0]*(m[1][1]*b.Z-b.Y*m[2][1])-m[0][1]*(m[1][0]*b.Z-b.Y*m[2][0])+b.X*(m[1][0]*m[2][1]-m[1][1]*m[2][0])),
	)
}

// skewSquared returns -[r]× M [r]× for the world inverse inertia M of c,
// the angular contribution of anchor offset r to a point constraint mass.
func skewSquared(c *Collider, r math32.Vector3) mat3 {
	iw := invInertiaWorld(c)
	// columns of [r]×
	rx := mat3{
		{0, -r.Z, r.Y},
		{r.Z, 0, -r.X},
		{-r.Y, r.X, 0},
	}
	var tmp, out mat3
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			var s float32
			for n := 0; n < 3; n++ {
				s += iw[i][n] * rx[n][k]
			}
			tmp[i][k] = s
		}
	}
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			var s float32
			for n := 0; n < 3; n++ {
				s += rx[i][n] * tmp[n][k]
			}
			out[i][k] = -s
		}
	}
	return out
}

// invInertiaWorld returns the world-space inverse inertia tensor of c as a
// full matrix, or zero for an immovable side.
func invInertiaWorld(c *Collider) mat3 {
	if c == nil || !c.dynamic() {
		return mat3{}
	}
	q := c.pose.Rot.Mul(c.inertiaRot)
	var cols [3]math32.Vector3
	cols[0] = math32.Vec3(1, 0, 0).MulQuat(q)
	cols[1] = math32.Vec3(0, 1, 0).MulQuat(q)
	cols[2] = math32.Vec3(0, 0, 1).MulQuat(q)
	d := [3]float32{c.invInertia.X, c.invInertia.Y, c.invInertia.Z}
	comp := func(v math32.Vector3, i int) float32 {
		switch i {
		case 0:
			return v.X
		case 1:
			return v.Y
		}
		return v.Z
	}
	var m mat3
	// R D Rᵀ with D diagonal: Σₖ dₖ colₖ colₖᵀ
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			var s float32
			for n := 0; n < 3; n++ {
				s += d[n] * comp(cols[n], i) * comp(cols[n], k)
			}
			m[i][k] = s
		}
	}
	return m
}

func bodyInvMass(c *Collider) float32 {
	if c == nil || !c.dynamic() {
		return 0
	}
	return c.invMass
}

func bodyVelAt(c *Collider, at math32.Vector3) math32.Vector3 {
	if c == nil {
		return math32.Vector3{}
	}
	return c.linVel.Add(c.angVel.Cross(at.Sub(c.worldCenter())))
}

func bodyApplyImpulse(c *Collider, imp, at math32.Vector3) {
	if c == nil || !c.dynamic() {
		return
	}
	c.linVel.SetAdd(imp.MulScalar(c.invMass))
	c.angVel.SetAdd(c.invInertiaMul(at.Sub(c.worldCenter()).Cross(imp)))
}

func bodyApplyAngImpulse(c *Collider, imp math32.Vector3) {
	if c == nil || !c.dynamic() {
		return
	}
	c.angVel.SetAdd(c.invInertiaMul(imp))
}

// pointConstraint pins a local anchor on each body to the same world point.
// Shared by the ball, cone, hinge and weld joints.
type pointConstraint struct {
	rA, rB math32.Vector3 // world offsets from each center of mass
	mass   mat3
	bias   math32.Vector3
}

func (pc *pointConstraint) prepare(j *jointBase, dt float32) {
	wa, wb := j.Anchors()
	if j.a != nil {
		pc.rA = wa.Sub(j.a.worldCenter())
	} else {
		pc.rA = math32.Vector3{}
	}
	pc.rB = wb.Sub(j.b.worldCenter())
	k := mat3Diag(bodyInvMass(j.a) + bodyInvMass(j.b))
	if j.a != nil {
		k = k.add(skewSquared(j.a, pc.rA))
	}
	k = k.add(skewSquared(j.b, pc.rB))
	pc.mass = k
	// Baumgarte stabilization on the position error
	c := wb.Sub(wa)
	pc.bias = c.MulScalar(jointBeta / dt)
}

const jointBeta = 0.2

func (pc *pointConstraint) solve(j *jointBase) {
	wa, wb := j.Anchors()
	cdot := bodyVelAt(j.b, wb).Sub(bodyVelAt(j.a, wa))
	imp := pc.mass.solve(cdot.Add(pc.bias).Negate())
	bodyApplyImpulse(j.b, imp, wb)
	bodyApplyImpulse(j.a, imp.Negate(), wa)
	j.linImp.SetAdd(imp)
}

// MotorMode selects how a hinge or slider motor drives its axis.
type MotorMode int

const (
	// MotorOff disables the motor.
	MotorOff MotorMode = iota
	// MotorVelocity drives toward a target speed.
	MotorVelocity
	// MotorPosition drives toward a target angle or offset.
	MotorPosition
)

// jointSpring turns a hard scalar constraint into a damped spring. Zero
// frequency keeps the constraint hard.
type jointSpring struct {
	frequency float32 // Hz
	damping   float32 // damping ratio, 1 is critical
}

func (s jointSpring) validate() error {
	if s.frequency < 0 || s.damping < 0 {
		return fmt.Errorf("spring frequency and damping cannot be negative: %w", ErrInvalidArgument)
	}
	return nil
}

// coeffs returns the constraint mass, bias and softening term for a scalar
// constraint with the given inverse effective mass and position error, using
// the standard stiff-spring discretization.
func (s jointSpring) coeffs(invEff, err, dt float32) (mass, bias, gamma float32) {
	if invEff <= 0 {
		return 0, 0, 0
	}
	if s.frequency <= 0 {
		return 1 / invEff, jointBeta / dt * err, 0
	}
	m := 1 / invEff
	omega := 2 * math32.Pi * s.frequency
	k := m * omega * omega
	c := 2 * m * s.damping * omega
	gamma = dt * (c + dt*k)
	if gamma > 0 {
		gamma = 1 / gamma
	}
	bias = err * dt * k * gamma
	return 1 / (invEff + gamma), bias, gamma
}

func wrapAngle(a float32) float32 {
	for a > math32.Pi {
		a -= 2 * math32.Pi
	}
	for a <= -math32.Pi {
		a += 2 * math32.Pi
	}
	return a
}

// angularAxis solves a scalar angular constraint about a world axis.
type angularAxis struct {
	axis  math32.Vector3
	mass  float32
	bias  float32
	gamma float32
	imp   float32
}

func (aa *angularAxis) prepare(j *jointBase, axis math32.Vector3, err, dt float32) {
	aa.prepareSpring(j, axis, err, jointSpring{}, dt)
}

func (aa *angularAxis) prepareSpring(j *jointBase, axis math32.Vector3, err float32, s jointSpring, dt float32) {
	aa.axis = axis
	aa.imp = 0
	k := invInertiaWorld(j.a).mulVec(axis).Dot(axis) + invInertiaWorld(j.b).mulVec(axis).Dot(axis)
	aa.mass, aa.bias, aa.gamma = s.coeffs(k, err, dt)
}

func (aa *angularAxis) solve(j *jointBase) {
	var wa math32.Vector3
	if j.a != nil {
		wa = j.a.angVel
	}
	cdot := j.b.angVel.Sub(wa).Dot(aa.axis)
	lambda := -aa.mass * (cdot + aa.bias + aa.gamma*aa.imp)
	aa.imp += lambda
	imp := aa.axis.MulScalar(lambda)
	bodyApplyAngImpulse(j.b, imp)
	bodyApplyAngImpulse(j.a, imp.Negate())
	j.angImp.SetAdd(imp)
}

//////// world-side joint registration

func (w *World) newJointBase(a, b *Collider, worldAnchorA, worldAnchorB math32.Vector3) (*jointBase, error) {
	if b == nil {
		return nil, fmt.Errorf("second collider is required: %w", ErrInvalidArgument)
	}
	if b.destroyed || (a != nil && a.destroyed) {
		return nil, fmt.Errorf("joint collider: %w", ErrDestroyed)
	}
	if b.world != w || (a != nil && a.world != w) {
		return nil, fmt.Errorf("joint colliders: %w", ErrCrossWorld)
	}
	if a == b {
		return nil, fmt.Errorf("joint needs two distinct colliders: %w", ErrInvalidArgument)
	}
	j := &jointBase{
		world:   w,
		a:       a,
		b:       b,
		enabled: true,
	}
	j.anchorA = worldAnchorA
	if a != nil {
		j.anchorA = a.pose.InvTransform(worldAnchorA)
	}
	j.anchorB = b.pose.InvTransform(worldAnchorB)
	return j, nil
}

func (w *World) attachJoint(j Joint) {
	jb := j.base()
	w.joints = append(w.joints, j)
	w.jointsDirty = true
	if jb.a != nil {
		jb.a.joints = append(jb.a.joints, j)
	}
	jb.b.joints = append(jb.b.joints, j)
	jb.wake()
}

func (j *jointBase) destroyImpl(self Joint) error {
	if j.destroyed {
		return fmt.Errorf("joint already destroyed: %w", ErrDestroyed)
	}
	j.destroyed = true
	j.wake()
	if j.a != nil {
		j.a.joints = removeJoint(j.a.joints, self)
	}
	if j.b != nil {
		j.b.joints = removeJoint(j.b.joints, self)
	}
	j.world.joints = removeJoint(j.world.joints, self)
	return nil
}

func removeJoint(js []Joint, j Joint) []Joint {
	for i, cur := range js {
		if cur == j {
			return append(js[:i], js[i+1:]...)
		}
	}
	return js
}
