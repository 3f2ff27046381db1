package physics

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// ConeJoint pins a point on each collider together and keeps the second
// collider's axis within a cone around the first collider's axis.
type ConeJoint struct {
	jointBase
	localAxisA math32.Vector3
	localAxisB math32.Vector3
	limitAngle float32
	spring     jointSpring

	pc      pointConstraint
	limit   angularAxis
	limitOn bool
}

// NewConeJoint creates a cone joint at a world-space anchor with a
// world-space cone axis. The default cone half-angle is pi.
func (w *World) NewConeJoint(a, b *Collider, anchor, axis math32.Vector3) (*ConeJoint, error) {
	if axis.Length() < 1e-6 {
		return nil, fmt.Errorf("cone axis cannot be zero: %w", ErrInvalidArgument)
	}
	jb, err := w.newJointBase(a, b, anchor, anchor)
	if err != nil {
		return nil, err
	}
	axis = axis.Normal()
	j := &ConeJoint{
		jointBase:  *jb,
		localAxisB: jb.b.pose.InvTransformDir(axis),
		limitAngle: math32.Pi,
	}
	j.localAxisA = axis
	if a != nil {
		j.localAxisA = a.pose.InvTransformDir(axis)
	}
	w.attachJoint(j)
	return j, nil
}

func (j *ConeJoint) Destroy() error { return j.destroyImpl(j) }

// Axis returns the cone axis in world space.
func (j *ConeJoint) Axis() math32.Vector3 {
	return j.poseA().TransformDir(j.localAxisA)
}

// Limit returns the cone half-angle in radians.
func (j *ConeJoint) Limit() float32 { return j.limitAngle }

// SetLimit sets the cone half-angle, in (0, pi].
func (j *ConeJoint) SetLimit(angle float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	if angle <= 0 || angle > math32.Pi {
		return fmt.Errorf("cone limit needs 0 < angle <= pi: %w", ErrInvalidArgument)
	}
	j.limitAngle = angle
	j.wake()
	return nil
}

// SetSpring softens the cone limit. With a positive frequency the swing is
// pulled back toward the cone as a damped spring instead of a hard stop.
func (j *ConeJoint) SetSpring(frequency, damping float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	s := jointSpring{frequency: frequency, damping: damping}
	if err := s.validate(); err != nil {
		return err
	}
	j.spring = s
	j.wake()
	return nil
}

func (j *ConeJoint) prepare(dt float32) {
	j.linImp = math32.Vector3{}
	j.angImp = math32.Vector3{}
	j.lastDt = dt
	j.pc.prepare(&j.jointBase, dt)

	j.limitOn = false
	a1 := j.Axis()
	b1 := j.b.pose.TransformDir(j.localAxisB)
	cos := clampf(a1.Dot(b1), -1, 1)
	angle := math32.Acos(cos)
	if angle <= j.limitAngle {
		return
	}
	u := a1.Cross(b1)
	if u.Length() < 1e-6 {
		u = anyOrthonormal(a1)
	} else {
		u = u.Normal()
	}
	// rotating b about -u reduces the cone angle
	j.limit.prepareSpring(&j.jointBase, u, angle-j.limitAngle, j.spring, dt)
	j.limitOn = true
}

func (j *ConeJoint) solveVelocity(dt float32) {
	if j.limitOn {
		j.limit.solve(&j.jointBase)
	}
	j.pc.solve(&j.jointBase)
}

func (j *ConeJoint) solvePosition() {}
