package physics

import "cogentcore.org/core/math32"

// angMotionMax caps the rotation integrated in a single step so a huge
// angular velocity cannot flip a body through obstacles.
const angMotionMax = math32.Pi / 2

// integrateForces applies gravity, accumulated forces and damping to the
// velocities of awake dynamic colliders.
func (w *World) integrateForces(dt float32) {
	g := w.cfg.gravity()
	for _, c := range w.colliders {
		if !c.dynamic() || !c.awake {
			continue
		}
		acc := g.MulScalar(c.gravityScale).Add(c.force.MulScalar(c.invMass))
		c.linVel.SetAdd(acc.MulScalar(dt))
		c.angVel.SetAdd(c.invInertiaMul(c.torque).MulScalar(dt))

		lin := w.cfg.LinearDamping + c.linearDamping
		ang := w.cfg.AngularDamping + c.angularDamping
		c.linVel = c.linVel.MulScalar(1 / (1 + dt*lin))
		c.angVel = c.angVel.MulScalar(1 / (1 + dt*ang))

		eps := w.cfg.VelocitySteadyEpsilon
		if c.linVel.LengthSquared() < eps*eps {
			c.linVel = math32.Vector3{}
		}
		if c.angVel.LengthSquared() < eps*eps {
			c.angVel = math32.Vector3{}
		}
		c.maskDOF()
	}
}

// prepareContact fills per-point solver state for one contact.
func (w *World) prepareContact(ct *Contact, dt float32) {
	a, b := ct.a, ct.b
	n := ct.manifold.Normal
	biasRate := w.cfg.Tightness / math32.Max(w.cfg.ResponseTime, dt)

	ct.points = ct.points[:0]
	for _, p := range ct.manifold.Points {
		cp := contactPoint{point: p, depth: ct.manifold.Depth}
		cp.rA = p.Sub(a.worldCenter())
		cp.rB = p.Sub(b.worldCenter())

		k := bodyInvMass(a) + bodyInvMass(b)
		ra := cp.rA.Cross(n)
		rb := cp.rB.Cross(n)
		k += invInertiaWorld(a).mulVec(ra).Dot(ra)
		k += invInertiaWorld(b).mulVec(rb).Dot(rb)
		if k > 0 {
			cp.normalMass = 1 / k
		}

		pen := cp.depth - w.cfg.PenetrationSlop
		if pen > 0 {
			cp.bias = biasRate * pen
		}

		// bounce only above the threshold speed, so stacks settle
		rv := bodyVelAt(b, p).Sub(bodyVelAt(a, p)).Dot(n)
		if -rv > w.cfg.RestitutionThreshold {
			cp.restBias = -ct.restitution * rv
		}

		cp.tangents[0] = anyOrthonormal(n)
		cp.tangents[1] = n.Cross(cp.tangents[0])
		for i, t := range cp.tangents {
			kt := bodyInvMass(a) + bodyInvMass(b)
			rat := cp.rA.Cross(t)
			rbt := cp.rB.Cross(t)
			kt += invInertiaWorld(a).mulVec(rat).Dot(rat)
			kt += invInertiaWorld(b).mulVec(rbt).Dot(rbt)
			if kt > 0 {
				cp.tanMass[i] = 1 / kt
			}
		}
		ct.points = append(ct.points, cp)
	}
}

// solveContact runs one sequential-impulse iteration over the contact's
// points: normal impulses first, then friction clamped to the Coulomb cone.
func solveContact(ct *Contact) {
	a, b := ct.a, ct.b
	n := ct.manifold.Normal
	for i := range ct.points {
		cp := &ct.points[i]

		rv := bodyVelAt(b, cp.point).Sub(bodyVelAt(a, cp.point))
		vn := rv.Dot(n)
		lambda := -cp.normalMass * (vn - cp.bias - cp.restBias)
		old := cp.normalImp
		cp.normalImp = math32.Max(old+lambda, 0)
		lambda = cp.normalImp - old
		imp := n.MulScalar(lambda)
		bodyApplyImpulse(b, imp, cp.point)
		bodyApplyImpulse(a, imp.Negate(), cp.point)

		maxFriction := ct.friction * cp.normalImp
		for k, t := range cp.tangents {
			rv = bodyVelAt(b, cp.point).Sub(bodyVelAt(a, cp.point))
			vt := rv.Sub(ct.surfaceVel).Dot(t)
			lt := -cp.tanMass[k] * vt
			oldT := cp.tangentImp[k]
			cp.tangentImp[k] = clampf(oldT+lt, -maxFriction, maxFriction)
			lt = cp.tangentImp[k] - oldT
			ti := t.MulScalar(lt)
			bodyApplyImpulse(b, ti, cp.point)
			bodyApplyImpulse(a, ti.Negate(), cp.point)
		}
	}
}

// integratePositions advances poses from velocities. Translation moves the
// center of mass; rotation happens about it, so off-center mass behaves.
func (w *World) integratePositions(dt float32) {
	for _, c := range w.colliders {
		moving := c.dynamic() || (c.kinematic && c.enabled && !c.destroyed)
		if !moving || !c.awake {
			continue
		}
		c.maskDOF()
		center := c.worldCenter().Add(c.linVel.MulScalar(dt))

		speed := c.angVel.Length()
		if speed > 1e-9 {
			angle := math32.Min(speed*dt, angMotionMax)
			var dq math32.Quat
			dq.SetFromAxisAngle(c.angVel.DivScalar(speed), angle)
			c.pose.Rot = dq.Mul(c.pose.Rot)
			c.pose.Rot.Normalize()
		}
		c.pose.Pos = center.Sub(c.localCenter.MulQuat(c.pose.Rot))
	}
}

// sweepContinuous clamps the motion of continuous colliders so they cannot
// pass through geometry in one step. The sweep is a ray from the previous
// center of mass through the new one, shortened by the collider's bounding
// radius.
func (w *World) sweepContinuous() {
	for _, c := range w.colliders {
		if !c.continuous || !c.dynamic() || !c.awake || c.sensor {
			continue
		}
		from := c.prevPose.Transform(c.localCenter)
		to := c.worldCenter()
		delta := to.Sub(from)
		dist := delta.Length()
		radius := boundingRadius(c)
		if dist <= radius {
			continue
		}
		dir := delta.DivScalar(dist)

		best := float32(1)
		w.grid.ForEachInBox(sweepBox(from, to, radius), func(id uint64) bool {
			other, ok := w.byID[id]
			if !ok || other == c || other.sensor || !w.shouldCollide(c, other) {
				return true
			}
			for _, s := range other.shapes {
				if hit, ok := s.Raycast(other.pose, from, to); ok && hit.Fraction < best {
					best = hit.Fraction
				}
			}
			return true
		})
		if best >= 1 {
			continue
		}
		// stop the center one bounding radius before the hit point
		allowed := math32.Max(best*dist-radius, 0)
		clamped := from.Add(dir.MulScalar(allowed))
		c.pose.Pos.SetAdd(clamped.Sub(to))
	}
}

func boundingRadius(c *Collider) float32 {
	bb := c.AABB()
	return bb.Size().Length() * 0.5
}

func sweepBox(from, to math32.Vector3, radius float32) math32.Box3 {
	bb := math32.B3Empty()
	bb.ExpandByPoint(from)
	bb.ExpandByPoint(to)
	r := math32.Vec3(radius, radius, radius)
	bb.Min.SetSub(r)
	bb.Max.SetAdd(r)
	return bb
}

// snapshotPoses records the pre-step poses used for interpolation.
func (w *World) snapshotPoses() {
	for _, c := range w.colliders {
		c.prevPose = c.pose
	}
}

// clearForces zeroes the per-step force and torque accumulators.
func (w *World) clearForces() {
	for _, c := range w.colliders {
		c.force = math32.Vector3{}
		c.torque = math32.Vector3{}
	}
}
