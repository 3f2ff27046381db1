package physics

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// SliderJoint locks relative rotation and restricts relative translation to
// a single axis, with optional travel limits and a motor that drives either
// a target speed or a target offset. Hard travel limits are enforced
// positionally: the pose is clamped after integration so the translation
// never leaves the limit range. Limits with a spring attached are soft and
// may overshoot.
type SliderJoint struct {
	jointBase
	localAxisA math32.Vector3
	ang        weldAngular

	lower, upper float32
	hasLimits    bool
	limitSpring  jointSpring

	mode        MotorMode
	motorSpeed  float32
	motorTarget float32
	maxForce    float32
	motorSpring jointSpring

	axisW      math32.Vector3
	perpAxes   [2]linearAxis
	limitAxis  linearAxis
	limitOn    bool
	motorImp   float32
	motorMass  float32
	motorBias  float32
	motorGamma float32
}

// NewSliderJoint creates a slider between two colliders along a world-space
// axis. The anchor is taken at the second collider's position.
func (w *World) NewSliderJoint(a, b *Collider, axis math32.Vector3) (*SliderJoint, error) {
	if axis.Length() < 1e-6 {
		return nil, fmt.Errorf("slider axis cannot be zero: %w", ErrInvalidArgument)
	}
	if b == nil {
		return nil, fmt.Errorf("second collider is required: %w", ErrInvalidArgument)
	}
	anchor := b.pose.Pos
	jb, err := w.newJointBase(a, b, anchor, anchor)
	if err != nil {
		return nil, err
	}
	axis = axis.Normal()
	j := &SliderJoint{
		jointBase: *jb,
		lower:     math32.Inf(-1),
		upper:     math32.Inf(1),
	}
	j.localAxisA = axis
	if a != nil {
		j.localAxisA = a.pose.InvTransformDir(axis)
	}
	j.ang.init(jb)
	w.attachJoint(j)
	return j, nil
}

func (j *SliderJoint) Destroy() error { return j.destroyImpl(j) }

// Axis returns the slide axis in world space.
func (j *SliderJoint) Axis() math32.Vector3 {
	return j.poseA().TransformDir(j.localAxisA)
}

// Position returns the translation along the axis relative to the creation
// pose.
func (j *SliderJoint) Position() float32 {
	wa, wb := j.Anchors()
	return wb.Sub(wa).Dot(j.Axis())
}

// Limits returns the lower and upper travel limits.
func (j *SliderJoint) Limits() (lower, upper float32) { return j.lower, j.upper }

// SetLimits restricts the travel range along the axis.
func (j *SliderJoint) SetLimits(lower, upper float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	if lower > upper {
		return fmt.Errorf("slider limits need lower <= upper: %w", ErrInvalidArgument)
	}
	j.lower, j.upper = lower, upper
	j.hasLimits = true
	j.wake()
	return nil
}

// SetSpring softens the travel limits. With a positive frequency the limits
// behave as a damped spring instead of a hard stop.
func (j *SliderJoint) SetSpring(frequency, damping float32) error {
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
func (j *SliderJoint) MotorEnabled() bool { return j.mode != MotorOff }

// SetMotorEnabled toggles the motor; enabling selects velocity mode.
func (j *SliderJoint) SetMotorEnabled(on bool) error {
	if on {
		return j.SetMotorMode(MotorVelocity)
	}
	return j.SetMotorMode(MotorOff)
}

// MotorMode returns the current motor mode.
func (j *SliderJoint) MotorMode() MotorMode { return j.mode }

// SetMotorMode selects between the velocity and position motor.
func (j *SliderJoint) SetMotorMode(m MotorMode) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.mode = m
	j.wake()
	return nil
}

// MotorTarget returns the target translation of the position motor.
func (j *SliderJoint) MotorTarget() float32 { return j.motorTarget }

// SetMotorTarget sets the translation the position motor drives toward.
func (j *SliderJoint) SetMotorTarget(t float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.motorTarget = t
	j.wake()
	return nil
}

// SetMotorSpring tunes the spring the position motor drives with. Zero
// frequency snaps to the target as hard as the force budget allows.
func (j *SliderJoint) SetMotorSpring(frequency, damping float32) error {
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

// MotorSpeed returns the target speed along the axis.
func (j *SliderJoint) MotorSpeed() float32 { return j.motorSpeed }

// SetMotorSpeed sets the target speed along the axis.
func (j *SliderJoint) SetMotorSpeed(speed float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	j.motorSpeed = speed
	j.wake()
	return nil
}

// MaxMotorForce returns the force budget of the motor.
func (j *SliderJoint) MaxMotorForce() float32 { return j.maxForce }

// SetMaxMotorForce caps the force the motor may apply.
func (j *SliderJoint) SetMaxMotorForce(f float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	if f < 0 {
		return fmt.Errorf("motor force cannot be negative: %w", ErrInvalidArgument)
	}
	j.maxForce = f
	return nil
}

func (j *SliderJoint) prepare(dt float32) {
	j.linImp = math32.Vector3{}
	j.angImp = math32.Vector3{}
	j.lastDt = dt
	j.motorImp = 0

	j.ang.prepare(&j.jointBase, dt)

	axis := j.Axis()
	j.axisW = axis
	wa, wb := j.Anchors()
	d := wb.Sub(wa)
	u1 := anyOrthonormal(axis)
	u2 := axis.Cross(u1)
	j.perpAxes[0].prepare(&j.jointBase, u1, d.Dot(u1), dt)
	j.perpAxes[1].prepare(&j.jointBase, u2, d.Dot(u2), dt)

	t := d.Dot(axis)
	j.limitOn = false
	if j.hasLimits {
		if t < j.lower {
			j.limitAxis.prepareSpring(&j.jointBase, axis, t-j.lower, j.limitSpring, dt)
			j.limitOn = true
		} else if t > j.upper {
			j.limitAxis.prepareSpring(&j.jointBase, axis, t-j.upper, j.limitSpring, dt)
			j.limitOn = true
		}
	}

	j.motorMass, j.motorBias, j.motorGamma = 0, 0, 0
	k := bodyInvMass(j.a) + bodyInvMass(j.b)
	switch j.mode {
	case MotorVelocity:
		if k > 0 {
			j.motorMass = 1 / k
		}
	case MotorPosition:
		j.motorMass, j.motorBias, j.motorGamma = j.motorSpring.coeffs(k, t-j.motorTarget, dt)
	}
}

func (j *SliderJoint) solveVelocity(dt float32) {
	if j.mode != MotorOff && j.maxForce > 0 {
		var va math32.Vector3
		if j.a != nil {
			va = j.a.linVel
		}
		rel := j.b.linVel.Sub(va).Dot(j.axisW)
		var lambda float32
		if j.mode == MotorVelocity {
			lambda = -j.motorMass * (rel - j.motorSpeed)
		} else {
			lambda = -j.motorMass * (rel + j.motorBias + j.motorGamma*j.motorImp)
		}
		old := j.motorImp
		budget := j.maxForce * dt
		j.motorImp = clampf(old+lambda, -budget, budget)
		lambda = j.motorImp - old
		imp := j.axisW.MulScalar(lambda)
		if j.b.dynamic() {
			j.b.linVel.SetAdd(imp.MulScalar(j.b.invMass))
		}
		if j.a != nil && j.a.dynamic() {
			j.a.linVel.SetAdd(imp.MulScalar(-j.a.invMass))
		}
	}
	j.ang.solve(&j.jointBase)
	if j.limitOn {
		j.limitAxis.solve(&j.jointBase)
	}
	j.perpAxes[0].solve(&j.jointBase)
	j.perpAxes[1].solve(&j.jointBase)
}

// solvePosition clamps the translation into the limit range after
// integration so the limits hold exactly.
func (j *SliderJoint) solvePosition() {
	if !j.hasLimits || j.limitSpring.frequency > 0 {
		return
	}
	axis := j.Axis()
	wa, wb := j.Anchors()
	t := wb.Sub(wa).Dot(axis)
	var over float32
	if t < j.lower {
		over = t - j.lower
	} else if t > j.upper {
		over = t - j.upper
	} else {
		return
	}
	corr := axis.MulScalar(over)
	switch {
	case j.b.dynamic() && (j.a == nil || !j.a.dynamic()):
		j.b.pose.Pos.SetSub(corr)
	case j.a != nil && j.a.dynamic() && !j.b.dynamic():
		j.a.pose.Pos.SetAdd(corr)
	case j.b.dynamic():
		ma, mb := j.a.invMass, j.b.invMass
		sum := ma + mb
		j.b.pose.Pos.SetSub(corr.MulScalar(mb / sum))
		j.a.pose.Pos.SetAdd(corr.MulScalar(ma / sum))
	}
}

// linearAxis solves a scalar translation constraint along a world axis,
// used to cancel off-axis slide and enforce travel limits.
type linearAxis struct {
	axis  math32.Vector3
	mass  float32
	bias  float32
	gamma float32
	imp   float32
}

func (la *linearAxis) prepare(j *jointBase, axis math32.Vector3, err, dt float32) {
	la.prepareSpring(j, axis, err, jointSpring{}, dt)
}

func (la *linearAxis) prepareSpring(j *jointBase, axis math32.Vector3, err float32, s jointSpring, dt float32) {
	la.axis = axis
	la.imp = 0
	wa, wb := j.Anchors()
	k := bodyInvMass(j.a) + bodyInvMass(j.b)
	if j.a != nil {
		ra := wa.Sub(j.a.worldCenter()).Cross(axis)
		k += invInertiaWorld(j.a).mulVec(ra).Dot(ra)
	}
	rb := wb.Sub(j.b.worldCenter()).Cross(axis)
	k += invInertiaWorld(j.b).mulVec(rb).Dot(rb)
	la.mass, la.bias, la.gamma = s.coeffs(k, err, dt)
}

func (la *linearAxis) solve(j *jointBase) {
	wa, wb := j.Anchors()
	cdot := bodyVelAt(j.b, wb).Sub(bodyVelAt(j.a, wa)).Dot(la.axis)
	lambda := -la.mass * (cdot + la.bias + la.gamma*la.imp)
	la.imp += lambda
	imp := la.axis.MulScalar(lambda)
	bodyApplyImpulse(j.b, imp, wb)
	bodyApplyImpulse(j.a, imp.Negate(), wa)
	j.linImp.SetAdd(imp)
}
