package physics

import "cogentcore.org/core/math32"

// BallJoint pins a point on each collider together while leaving all
// rotation free.
type BallJoint struct {
	jointBase
	pc pointConstraint
}

// NewBallJoint creates a ball-and-socket joint at a world-space anchor.
// Passing nil for a anchors the joint to the world.
func (w *World) NewBallJoint(a, b *Collider, anchor math32.Vector3) (*BallJoint, error) {
	jb, err := w.newJointBase(a, b, anchor, anchor)
	if err != nil {
		return nil, err
	}
	j := &BallJoint{jointBase: *jb}
	w.attachJoint(j)
	return j, nil
}

func (j *BallJoint) Destroy() error { return j.destroyImpl(j) }

func (j *BallJoint) prepare(dt float32) {
	j.linImp = math32.Vector3{}
	j.angImp = math32.Vector3{}
	j.lastDt = dt
	j.pc.prepare(&j.jointBase, dt)
}

func (j *BallJoint) solveVelocity(dt float32) {
	j.pc.solve(&j.jointBase)
}

func (j *BallJoint) solvePosition() {}
