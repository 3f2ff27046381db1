package physics

import "cogentcore.org/core/math32"

// WeldJoint locks two colliders together completely, preserving their
// relative pose at creation time.
type WeldJoint struct {
	jointBase
	pc  pointConstraint
	ang weldAngular
}

// NewWeldJoint welds two colliders at a shared world-space anchor.
func (w *World) NewWeldJoint(a, b *Collider, anchor math32.Vector3) (*WeldJoint, error) {
	jb, err := w.newJointBase(a, b, anchor, anchor)
	if err != nil {
		return nil, err
	}
	j := &WeldJoint{jointBase: *jb}
	j.ang.init(jb)
	w.attachJoint(j)
	return j, nil
}

func (j *WeldJoint) Destroy() error { return j.destroyImpl(j) }

func (j *WeldJoint) prepare(dt float32) {
	j.linImp = math32.Vector3{}
	j.angImp = math32.Vector3{}
	j.lastDt = dt
	j.pc.prepare(&j.jointBase, dt)
	j.ang.prepare(&j.jointBase, dt)
}

func (j *WeldJoint) solveVelocity(dt float32) {
	j.ang.solve(&j.jointBase)
	j.pc.solve(&j.jointBase)
}

func (j *WeldJoint) solvePosition() {}

// weldAngular locks the relative orientation of a pair to the orientation it
// had when the joint was created. Shared by the weld and slider joints.
type weldAngular struct {
	rel0 math32.Quat // initial qA⁻¹ qB
	mass mat3
	bias math32.Vector3
}

func (wa *weldAngular) init(j *jointBase) {
	qa := j.poseA().Rot
	inv := qa.Inverse()
	wa.rel0 = inv.Mul(j.b.pose.Rot)
}

func (wa *weldAngular) prepare(j *jointBase, dt float32) {
	wa.mass = invInertiaWorld(j.a).add(invInertiaWorld(j.b))
	// rotation vector from the drift of qA⁻¹ qB away from its initial value
	qa := j.poseA().Rot
	inv := qa.Inverse()
	rel := inv.Mul(j.b.pose.Rot)
	rinv := wa.rel0.Inverse()
	delta := rinv.Mul(rel)
	errA := rotationVector(delta)
	world := j.poseA().TransformDir(errA)
	wa.bias = world.MulScalar(jointBeta / dt)
}

func (wa *weldAngular) solve(j *jointBase) {
	var va math32.Vector3
	if j.a != nil {
		va = j.a.angVel
	}
	cdot := j.b.angVel.Sub(va)
	imp := wa.mass.solve(cdot.Add(wa.bias).Negate())
	bodyApplyAngImpulse(j.b, imp)
	bodyApplyAngImpulse(j.a, imp.Negate())
	j.angImp.SetAdd(imp)
}

// rotationVector converts a unit quaternion to its axis-angle vector.
func rotationVector(q math32.Quat) math32.Vector3 {
	v := math32.Vec3(q.X, q.Y, q.Z)
	s := v.Length()
	if s < 1e-9 {
		return math32.Vector3{}
	}
	angle := 2 * math32.Atan2(s, q.W)
	if angle > math32.Pi {
		angle -= 2 * math32.Pi
	}
	return v.DivScalar(s).MulScalar(angle)
}
