package physics

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// HingeJoint allows rotation about a single axis through an anchor point,
// with optional angle limits and a motor that drives either a target speed
// or a target angle.
type HingeJoint struct {
	jointBase
	localAxisA math32.Vector3
	localAxisB math32.Vector3
	rel0       math32.Quat

	lower, upper float32
	hasLimits    bool
	limitSpring  jointSpring

	mode        MotorMode
	motorSpeed  float32
	motorTarget float32
	maxTorque   float32
	motorSpring jointSpring

	pc         pointConstraint
	perp       [2]angularAxis
	limit      angularAxis
	limitOn    bool
	axisW      math32.Vector3
	motorImp   float32
	motorMass  float32
	motorBias  float32
	motorGamma float32
}

// NewHingeJoint creates a hinge at a world-space anchor rotating about a
// world-space axis.
func (w *World) NewHingeJoint(a, b *Collider, anchor, axis math32.Vector3) (*HingeJoint, error) {
	if axis.Length() < 1e-6 {
		return nil, fmt.Errorf("hinge axis cannot be zero: %w", ErrInvalidArgument)
	}
	jb, err := w.newJointBase(a, b, anchor, anchor)
	if err != nil {
		return nil, err
	}
	axis = axis.Normal()
	j := &HingeJoint{
		jointBase:  *jb,
		localAxisB: jb.b.pose.InvTransformDir(axis),
		lower:      -math32.Pi,
		upper:      math32.Pi,
	}
	j.localAxisA = axis
	if a != nil {
		j.localAxisA = a.pose.InvTransformDir(axis)
	}
	qa := jb.poseA().Rot
	inv := qa.Inverse()
	j.rel0 = inv.Mul(jb.b.pose.Rot)
	w.attachJoint(j)
	return j, nil
}

func (j *HingeJoint) Destroy() error { return j.destroyImpl(j) }

// Axis returns the hinge axis in world space.
func (j *HingeJoint) Axis() math32.Vector3 {
	return j.poseA().TransformDir(j.localAxisA)
}

// Angle returns the rotation about the axis relative to the creation pose,
// in radians.
func (j *HingeJoint) Angle() float32 {
	qa := j.poseA().Rot
	inv := qa.Inverse()
	rel := inv.Mul(j.b.pose.Rot)
	rinv := j.rel0.Inverse()
	delta := rinv.Mul(rel)
	// twist about the hinge axis
	s := math32.Vec3(delta.X, delta.Y, delta.Z).Dot(j.localAxisA)
	return 2 * math32.Atan2(s, delta.W)
}

// Limits returns the lower and upper angle limits in radians.
func (j *HingeJoint) Limits() (lower, upper float32) { return j.lower, j.upper }

// SetLimits restricts the hinge angle. The full range is [-pi, pi].
func (j *HingeJoint) SetLimits(lower, upper float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	if lower > upper || lower < -math32.Pi || upper > math32.Pi {
		return fmt.Errorf("hinge limits need -pi <= lower <= upper <= pi: %w", ErrInvalidArgument)
	}
	j.lower, j.upper = lower, upper
	j.hasLimits = lower > -math32.Pi || upper < math32.Pi
	j.wake()
	return nil
}

// SetSpring softens the angle limits. With a positive frequency the limits
// behave as a damped spring instead of a hard stop.
func (j *HingeJoint) SetSpring(frequency, damping float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	s := jointSpring{frequency: frequency, damping: damping}
	if err := s.validate(); err != nil {
		return err
	}
	j.limitSpring = s
	j.wake()
	return nil
}

// MotorEnabled reports whether the motor is on.
func (j *HingeJoint) MotorEnabled() bool { return j.mode != MotorOff }

// SetMotorEnabled toggles the motor; enabling selects velocity mode.
func (j *HingeJoint) SetMotorEnabled(on bool) error {
	if on {
		return j.SetMotorMode(MotorVelocity)
	}
	return j.SetMotorMode(MotorOff)
}

// MotorMode returns the current motor mode.
func (j *HingeJoint) MotorMode() MotorMode { return j.mode }

// SetMotorMode selects between the velocity and position motor.
func (j *HingeJoint) SetMotorMode(m MotorMode) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.mode = m
	j.wake()
	return nil
}

// MotorTarget returns the target angle of the position motor in radians.
func (j *HingeJoint) MotorTarget() float32 { return j.motorTarget }

// SetMotorTarget sets the angle the position motor drives toward.
func (j *HingeJoint) SetMotorTarget(angle float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.motorTarget = angle
	j.wake()
	return nil
}

// SetMotorSpring tunes the spring the position motor drives with. Zero
// frequency snaps to the target as hard as the torque budget allows.
func (j *HingeJoint) SetMotorSpring(frequency, damping float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	s := jointSpring{frequency: frequency, damping: damping}
	if err := s.validate(); err != nil {
		return err
	}
	j.motorSpring = s
	j.wake()
	return nil
}

// MotorSpeed returns the target angular speed in radians per second.
func (j *HingeJoint) MotorSpeed() float32 { return j.motorSpeed }

// SetMotorSpeed sets the target angular speed about the axis.
func (j *HingeJoint) SetMotorSpeed(speed float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.motorSpeed = speed
	j.wake()
	return nil
}

// MaxMotorTorque returns the torque budget of the motor.
func (j *HingeJoint) MaxMotorTorque() float32 { return j.maxTorque }

// SetMaxMotorTorque caps the torque the motor may apply.
func (j *HingeJoint) SetMaxMotorTorque(t float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	if t < 0 {
		return fmt.Errorf("motor torque cannot be negative: %w", ErrInvalidArgument)
	}
	j.maxTorque = t
	return nil
}

// MotorTorque returns the torque the motor applied during the last step.
func (j *HingeJoint) MotorTorque() float32 {
	if j.lastDt <= 0 {
		return 0
	}
	return math32.Abs(j.motorImp) / j.lastDt
}

func (j *HingeJoint) prepare(dt float32) {
	j.linImp = math32.Vector3{}
	j.angImp = math32.Vector3{}
	j.lastDt = dt
	j.motorImp = 0

	j.pc.prepare(&j.jointBase, dt)

	a1 := j.Axis()
	b1 := j.b.pose.TransformDir(j.localAxisB)
	j.axisW = a1
	u1 := anyOrthonormal(a1)
	u2 := a1.Cross(u1)
	misalign := a1.Cross(b1)
	j.perp[0].prepare(&j.jointBase, u1, misalign.Dot(u1), dt)
	j.perp[1].prepare(&j.jointBase, u2, misalign.Dot(u2), dt)

	angle := j.Angle()
	j.limitOn = false
	if j.hasLimits {
		if angle < j.lower {
			j.limit.prepareSpring(&j.jointBase, a1, angle-j.lower, j.limitSpring, dt)
			j.limitOn = true
		} else if angle > j.upper {
			j.limit.prepareSpring(&j.jointBase, a1, angle-j.upper, j.limitSpring, dt)
			j.limitOn = true
		}
	}

	j.motorMass, j.motorBias, j.motorGamma = 0, 0, 0
	k := invInertiaWorld(j.a).mulVec(a1).Dot(a1) + invInertiaWorld(j.b).mulVec(a1).Dot(a1)
	switch j.mode {
	case MotorVelocity:
		if k > 0 {
			j.motorMass = 1 / k
		}
	case MotorPosition:
		j.motorMass, j.motorBias, j.motorGamma = j.motorSpring.coeffs(k, wrapAngle(angle-j.motorTarget), dt)
	}
}

func (j *HingeJoint) solveVelocity(dt float32) {
	if j.mode != MotorOff && j.maxTorque > 0 {
		var va math32.Vector3
		if j.a != nil {
			va = j.a.angVel
		}
		rel := j.b.angVel.Sub(va).Dot(j.axisW)
		var lambda float32
		if j.mode == MotorVelocity {
			lambda = -j.motorMass * (rel - j.motorSpeed)
		} else {
			lambda = -j.motorMass * (rel + j.motorBias + j.motorGamma*j.motorImp)
		}
		old := j.motorImp
		budget := j.maxTorque * dt
		j.motorImp = clampf(old+lambda, -budget, budget)
		lambda = j.motorImp - old
		imp := j.axisW.MulScalar(lambda)
		bodyApplyAngImpulse(j.b, imp)
		bodyApplyAngImpulse(j.a, imp.Negate())
	}
	if j.limitOn {
		j.limit.solve(&j.jointBase)
	}
	j.perp[0].solve(&j.jointBase)
	j.perp[1].solve(&j.jointBase)
	j.pc.solve(&j.jointBase)
}

func (j *HingeJoint) solvePosition() {}

// anyOrthonormal returns a unit vector perpendicular to n.
func anyOrthonormal(n math32.Vector3) math32.Vector3 {
	ref := math32.Vec3(1, 0, 0)
	if math32.Abs(n.X) > 0.9 {
		ref = math32.Vec3(0, 1, 0)
	}
	return n.Cross(ref).Normal()
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
