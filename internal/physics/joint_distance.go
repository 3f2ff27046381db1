package physics

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// DistanceJoint keeps the distance between two anchor points within a
// range. With min equal to max it behaves as a rigid rod; with a spring
// attached the limits become a soft tether.
type DistanceJoint struct {
	jointBase
	minDist float32
	maxDist float32
	spring  jointSpring

	axis   math32.Vector3
	mass   float32
	bias   float32
	gamma  float32
	imp    float32
	active bool
}

// NewDistanceJoint creates a distance joint between two world-space anchor
// points. Both limits default to the initial separation.
func (w *World) NewDistanceJoint(a, b *Collider, anchorA, anchorB math32.Vector3) (*DistanceJoint, error) {
	jb, err := w.newJointBase(a, b, anchorA, anchorB)
	if err != nil {
		return nil, err
	}
	d := anchorB.DistanceTo(anchorA)
	j := &DistanceJoint{jointBase: *jb, minDist: d, maxDist: d}
	w.attachJoint(j)
	return j, nil
}

func (j *DistanceJoint) Destroy() error { return j.destroyImpl(j) }

// Distance returns the current separation of the anchors.
func (j *DistanceJoint) Distance() float32 {
	wa, wb := j.Anchors()
	return wb.DistanceTo(wa)
}

// Limits returns the minimum and maximum allowed separation.
func (j *DistanceJoint) Limits() (min, max float32) { return j.minDist, j.maxDist }

// SetLimits sets the allowed separation range.
func (j *DistanceJoint) SetLimits(min, max float32) error {
	if err := j.alive(); err != nil {
		return err
	}
	if min < 0 || max < min {
		return fmt.Errorf("distance limits need 0 <= min <= max: %w", ErrInvalidArgument)
	}
	j.minDist, j.maxDist = min, max
	j.wake()
	return nil
}

// SetSpring softens the distance limits. With a positive frequency the joint
// pulls back toward the range as a damped spring instead of a hard rod.
func (j *DistanceJoint) SetSpring(frequency, damping float32) error {
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

func (j *DistanceJoint) prepare(dt float32) {
	j.linImp = math32.Vector3{}
	j.angImp = math32.Vector3{}
	j.lastDt = dt
	j.active = false

	wa, wb := j.Anchors()
	delta := wb.Sub(wa)
	dist := delta.Length()
	if dist > 1e-6 {
		j.axis = delta.DivScalar(dist)
	} else {
		j.axis = math32.Vec3(0, 1, 0)
	}

	var c float32
	switch {
	case dist < j.minDist:
		c = dist - j.minDist
	case dist > j.maxDist:
		c = dist - j.maxDist
	default:
		return
	}
	j.active = true
	j.imp = 0

	var rA, rB math32.Vector3
	if j.a != nil {
		rA = wa.Sub(j.a.worldCenter())
	}
	rB = wb.Sub(j.b.worldCenter())
	k := bodyInvMass(j.a) + bodyInvMass(j.b)
	if j.a != nil {
		ra := rA.Cross(j.axis)
		k += invInertiaWorld(j.a).mulVec(ra).Dot(ra)
	}
	rb := rB.Cross(j.axis)
	k += invInertiaWorld(j.b).mulVec(rb).Dot(rb)
	j.mass, j.bias, j.gamma = j.spring.coeffs(k, c, dt)
}

func (j *DistanceJoint) solveVelocity(dt float32) {
	if !j.active {
		return
	}
	wa, wb := j.Anchors()
	cdot := bodyVelAt(j.b, wb).Sub(bodyVelAt(j.a, wa)).Dot(j.axis)
	lambda := -j.mass * (cdot + j.bias + j.gamma*j.imp)
	j.imp += lambda
	imp := j.axis.MulScalar(lambda)
	bodyApplyImpulse(j.b, imp, wb)
	bodyApplyImpulse(j.a, imp.Negate(), wa)
	j.linImp.SetAdd(imp)
}

func (j *DistanceJoint) solvePosition() {}
