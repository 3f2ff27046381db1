// Package collide implements the narrow phase: exact intersection tests
// between pairs of placed shapes producing contact manifolds. Primitive pairs
// use analytic tests; general convex pairs run GJK followed by EPA; meshes and
// terrain are tested per candidate triangle.
package collide

import (
	"cogentcore.org/core/math32"

	"rigid3d/internal/shape"
)

// Manifold describes one overlapping region between two shapes: a unit normal
// pointing from shape A toward shape B, the overlap depth along it, and up to
// four world-space contact points.
type Manifold struct {
	Normal math32.Vector3
	Depth  float32
	Points []math32.Vector3
}

// maxManifoldPoints bounds how many contact points a manifold carries.
const maxManifoldPoints = 4

// Shapes computes the contact manifold between shape a under pose pa and
// shape b under pose pb. The poses are the owning colliders' world poses; the
// shapes' local offsets are composed in here.
func Shapes(a shape.Shape, pa shape.Pose, b shape.Shape, pb shape.Pose) (Manifold, bool) {
	wa := pa.Mul(a.Offset())
	wb := pb.Mul(b.Offset())

	// concave shapes always take the B slot
	if isConcave(a) {
		if isConcave(b) {
			return Manifold{}, false // two static meshes never collide
		}
		m, ok := convexVsTriangles(b, wb, a, wa)
		if ok {
			m.Normal = m.Normal.Negate()
		}
		return m, ok
	}
	if isConcave(b) {
		return convexVsTriangles(a, wa, b, wb)
	}

	// analytic fast paths
	if sa, ok := a.(*shape.Sphere); ok {
		switch o := b.(type) {
		case *shape.Sphere:
			return sphereSphere(sa, wa, o, wb)
		case *shape.Box:
			return sphereBox(sa, wa, o, wb)
		}
	}
	if ba, ok := a.(*shape.Box); ok {
		if sb, ok := b.(*shape.Sphere); ok {
			m, hit := sphereBox(sb, wb, ba, wa)
			if hit {
				m.Normal = m.Normal.Negate()
			}
			return m, hit
		}
	}

	return convexConvex(a, wa, b, wb)
}

func isConcave(s shape.Shape) bool {
	switch s.(type) {
	case *shape.Mesh, *shape.Terrain:
		return true
	}
	return false
}

// sphereSphere is the analytic sphere pair test.
func sphereSphere(a *shape.Sphere, wa shape.Pose, b *shape.Sphere, wb shape.Pose) (Manifold, bool) {
	d := wb.Pos.Sub(wa.Pos)
	r := a.Radius + b.Radius
	distSq := d.LengthSquared()
	if distSq >= r*r {
		return Manifold{}, false
	}
	dist := math32.Sqrt(distSq)
	m := Manifold{}
	if dist < 1e-7 {
		// concentric: pick an arbitrary separation axis
		m.Normal = math32.Vec3(0, 1, 0)
		m.Depth = r
		m.Points = []math32.Vector3{wa.Pos}
	} else {
		m.Normal = d.DivScalar(dist)
		m.Depth = r - dist
		m.Points = []math32.Vector3{wa.Pos.Add(m.Normal.MulScalar(a.Radius - m.Depth/2))}
	}
	return m, true
}

// sphereBox tests a sphere against an oriented box via the closest point on
// the box to the sphere center. The normal points from the sphere toward the
// box.
func sphereBox(s *shape.Sphere, ws shape.Pose, b *shape.Box, wb shape.Pose) (Manifold, bool) {
	half := b.Size.MulScalar(0.5)
	local := wb.InvTransform(ws.Pos)
	closest := math32.Vec3(
		clamp(local.X, -half.X, half.X),
		clamp(local.Y, -half.Y, half.Y),
		clamp(local.Z, -half.Z, half.Z),
	)
	delta := local.Sub(closest)
	distSq := delta.LengthSquared()
	if distSq >= s.Radius*s.Radius {
		return Manifold{}, false
	}
	if distSq < 1e-12 {
		// center inside the box: push out through the nearest face
		axis, sign, depth := 0, float32(1), half.X-math32.Abs(local.X)
		if d := half.Y - math32.Abs(local.Y); d < depth {
			axis, depth = 1, d
		}
		if d := half.Z - math32.Abs(local.Z); d < depth {
			axis, depth = 2, d
		}
		n := math32.Vector3{}
		switch axis {
		case 0:
			sign = signOf(local.X)
			n.X = sign
		case 1:
			sign = signOf(local.Y)
			n.Y = sign
		case 2:
			sign = signOf(local.Z)
			n.Z = sign
		}
		wn := wb.TransformDir(n).Negate()
		return Manifold{
			Normal: wn,
			Depth:  depth + s.Radius,
			Points: []math32.Vector3{wb.Transform(closest)},
		}, true
	}
	dist := math32.Sqrt(distSq)
	point := wb.Transform(closest)
	return Manifold{
		Normal: point.Sub(ws.Pos).DivScalar(dist),
		Depth:  s.Radius - dist,
		Points: []math32.Vector3{point},
	}, true
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func signOf(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// convexConvex runs GJK and, on overlap, EPA to extract the manifold.
func convexConvex(a shape.Shape, wa shape.Pose, b shape.Shape, wb shape.Pose) (Manifold, bool) {
	sa := placedShape{s: a, pose: wa}
	sb := placedShape{s: b, pose: wb}
	simplex, hit := gjk(sa, sb)
	if !hit {
		return Manifold{}, false
	}
	normal, depth, ok := epa(sa, sb, simplex)
	if !ok {
		return Manifold{}, false
	}
	return Manifold{
		Normal: normal,
		Depth:  depth,
		Points: manifoldPoints(sa, sb, normal, depth),
	}, true
}

// convexVsTriangles tests a convex shape against every candidate triangle of
// a mesh or terrain, merging the per-triangle manifolds whose normals agree
// with the deepest one.
func convexVsTriangles(a shape.Shape, wa shape.Pose, concave shape.Shape, wc shape.Pose) (Manifold, bool) {
	// candidate triangles come from the convex AABB in the concave local frame
	local := localBox(aabbUnder(a, wa), wc)

	var manifolds []Manifold

	visit := func(t shape.Triangle) {
		tri := &triangleSupport{
			a: wc.Transform(t.V0),
			b: wc.Transform(t.V1),
			c: wc.Transform(t.V2),
		}
		sa := placedShape{s: a, pose: wa}
		simplex, hit := gjk(sa, tri)
		if !hit {
			return
		}
		normal, depth, ok := epa(sa, tri, simplex)
		if !ok {
			return
		}
		// reject back-facing results so edges between triangles don't
		// produce sideways normals
		wn := wc.TransformDir(t.Normal)
		if normal.Dot(wn) > -0.1 {
			return
		}
		manifolds = append(manifolds, Manifold{
			Normal: normal,
			Depth:  depth,
			Points: manifoldPoints(sa, tri, normal, depth),
		})
	}

	switch c := concave.(type) {
	case *shape.Mesh:
		c.TrianglesInBox(local, visit)
	case *shape.Terrain:
		c.TrianglesInBox(local, visit)
	}
	if len(manifolds) == 0 {
		return Manifold{}, false
	}

	// deepest manifold wins; compatible ones contribute their points
	bestIdx := 0
	for i, m := range manifolds {
		if m.Depth > manifolds[bestIdx].Depth {
			bestIdx = i
		}
	}
	merged := manifolds[bestIdx]
	merged.Points = append([]math32.Vector3(nil), merged.Points...)
	for i, m := range manifolds {
		if i == bestIdx || m.Normal.Dot(merged.Normal) < 0.98 {
			continue
		}
		for _, p := range m.Points {
			if len(merged.Points) >= maxManifoldPoints {
				break
			}
			if !nearAny(merged.Points, p) {
				merged.Points = append(merged.Points, p)
			}
		}
	}
	return merged, true
}

func nearAny(pts []math32.Vector3, p math32.Vector3) bool {
	for _, q := range pts {
		if q.DistanceToSquared(p) < 1e-4 {
			return true
		}
	}
	return false
}

// aabbUnder returns the world AABB of s placed directly under pose w (which
// already includes the shape offset).
func aabbUnder(s shape.Shape, w shape.Pose) math32.Box3 {
	// strip the offset since w includes it already
	off := s.Offset()
	inv := shape.Pose{
		Pos: off.Pos.Negate().MulQuat(off.Rot.Inverse()),
		Rot: off.Rot.Inverse(),
	}
	return s.AABB(w.Mul(inv))
}

// localBox conservatively maps a world box into the pose's local frame.
func localBox(world math32.Box3, p shape.Pose) math32.Box3 {
	bb := math32.B3Empty()
	for i := 0; i < 8; i++ {
		c := math32.Vec3(
			pick(i&1 == 0, world.Min.X, world.Max.X),
			pick(i&2 == 0, world.Min.Y, world.Max.Y),
			pick(i&4 == 0, world.Min.Z, world.Max.Z),
		)
		bb.ExpandByPoint(p.InvTransform(c))
	}
	return bb
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}

// manifoldPoints samples contact points by perturbing the support direction
// around the normal on both shapes, then keeps the witness set with the
// smaller lateral spread. That set belongs to the incident feature: a box
// resting on a large floor contributes its own face corners, not the
// floor's.
func manifoldPoints(a, b supportable, normal math32.Vector3, depth float32) []math32.Vector3 {
	t1 := anyPerpendicular(normal)
	t2 := normal.Cross(t1)

	ptsA := make([]math32.Vector3, 0, maxManifoldPoints)
	ptsB := make([]math32.Vector3, 0, maxManifoldPoints)
	add := func(dir math32.Vector3) {
		pa := a.Support(dir)
		pb := b.Support(dir.Negate())
		if !nearAny(ptsA, pa) && len(ptsA) < maxManifoldPoints {
			ptsA = append(ptsA, pa)
		}
		if !nearAny(ptsB, pb) && len(ptsB) < maxManifoldPoints {
			ptsB = append(ptsB, pb)
		}
	}

	const tilt = 0.02
	add(normal)
	add(normal.Add(t1.MulScalar(tilt)).Normal())
	add(normal.Sub(t1.MulScalar(tilt)).Normal())
	add(normal.Add(t2.MulScalar(tilt)).Normal())
	add(normal.Sub(t2.MulScalar(tilt)).Normal())

	if lateralSpread(ptsA, normal) <= lateralSpread(ptsB, normal) {
		return ptsA
	}
	return ptsB
}

// lateralSpread measures how far apart a witness set is perpendicular to
// the contact normal.
func lateralSpread(pts []math32.Vector3, normal math32.Vector3) float32 {
	var worst float32
	for i := 0; i < len(pts); i++ {
		for k := i + 1; k < len(pts); k++ {
			d := pts[k].Sub(pts[i])
			lat := d.Sub(normal.MulScalar(d.Dot(normal)))
			worst = math32.Max(worst, lat.LengthSquared())
		}
	}
	return worst
}

// anyPerpendicular returns an arbitrary unit vector orthogonal to v.
func anyPerpendicular(v math32.Vector3) math32.Vector3 {
	if math32.Abs(v.Y) > 0.9 {
		return v.Cross(math32.Vec3(1, 0, 0)).Normal()
	}
	return v.Cross(math32.Vec3(0, 1, 0)).Normal()
}
