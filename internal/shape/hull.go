package shape

import "cogentcore.org/core/math32"

// hullFace is one triangle of a convex hull, with an outward plane.
type hullFace struct {
	A, B, C int
	Normal  math32.Vector3
	Dist    float32 // plane offset: dot(Normal, v) == Dist for v on the face
}

const hullEpsilon = 1e-5

// buildHull computes the convex hull of a point cloud by incremental
// insertion: start from an extreme tetrahedron, then for every point outside
// the current hull remove the faces it can see and stitch new faces around
// the horizon. Returns ErrInvalidArgument for fewer than 4 points or a
// degenerate (collinear/coplanar) cloud.
func buildHull(points []math32.Vector3) ([]hullFace, error) {
	if len(points) < 4 {
		return nil, ErrInvalidArgument
	}

	i0, i1, i2, i3, ok := extremeTetrahedron(points)
	if !ok {
		return nil, ErrInvalidArgument
	}

	// orient the initial tetrahedron so all faces point away from its center
	center := points[i0].Add(points[i1]).Add(points[i2]).Add(points[i3]).MulScalar(0.25)
	faces := make([]hullFace, 0, 4*len(points))
	for _, tri := range [][3]int{{i0, i1, i2}, {i0, i1, i3}, {i0, i2, i3}, {i1, i2, i3}} {
		faces = append(faces, makeFace(points, tri[0], tri[1], tri[2], center))
	}

	for i := range points {
		if i == i0 || i == i1 || i == i2 || i == i3 {
			continue
		}
		faces = insertHullPoint(points, faces, i)
	}
	return faces, nil
}

func makeFace(points []math32.Vector3, a, b, c int, inside math32.Vector3) hullFace {
	n := points[b].Sub(points[a]).Cross(points[c].Sub(points[a]))
	if n.LengthSquared() > 0 {
		n = n.Normal()
	}
	if n.Dot(inside.Sub(points[a])) > 0 {
		b, c = c, b
		n = n.Negate()
	}
	return hullFace{A: a, B: b, C: c, Normal: n, Dist: n.Dot(points[a])}
}

// insertHullPoint expands the hull with points[idx] if it lies outside.
func insertHullPoint(points []math32.Vector3, faces []hullFace, idx int) []hullFace {
	p := points[idx]

	visible := make([]bool, len(faces))
	any := false
	for i, f := range faces {
		if f.Normal.Dot(p)-f.Dist > hullEpsilon {
			visible[i] = true
			any = true
		}
	}
	if !any {
		return faces
	}

	// horizon edges appear exactly once among the visible faces
	type edge struct{ a, b int }
	count := map[edge]int{}
	addEdge := func(a, b int) {
		if a > b {
			count[edge{b, a}]++
		} else {
			count[edge{a, b}]++
		}
	}
	for i, f := range faces {
		if visible[i] {
			addEdge(f.A, f.B)
			addEdge(f.B, f.C)
			addEdge(f.C, f.A)
		}
	}

	var kept, gone []hullFace
	var interior math32.Vector3
	for i, f := range faces {
		if visible[i] {
			gone = append(gone, f)
		} else {
			kept = append(kept, f)
			interior = interior.Add(points[f.A])
		}
	}
	if len(kept) > 0 {
		interior = interior.DivScalar(float32(len(kept)))
	}

	for _, f := range gone {
		for _, e := range [][2]int{{f.A, f.B}, {f.B, f.C}, {f.C, f.A}} {
			a, b := e[0], e[1]
			key := edge{a, b}
			if a > b {
				key = edge{b, a}
			}
			if count[key] == 1 {
				kept = append(kept, makeFace(points, a, b, idx, interior))
			}
		}
	}
	return kept
}

// extremeTetrahedron picks four points spanning a non-degenerate volume.
func extremeTetrahedron(points []math32.Vector3) (int, int, int, int, bool) {
	// most separated pair along X, falling back to max pairwise from that
	i0, i1 := 0, 0
	for i, p := range points {
		if p.X < points[i0].X {
			i0 = i
		}
		if p.X > points[i1].X {
			i1 = i
		}
	}
	if i0 == i1 {
		i1 = (i0 + 1) % len(points)
	}

	// farthest from the line i0-i1
	i2, best := -1, float32(hullEpsilon)
	dir := points[i1].Sub(points[i0])
	for i, p := range points {
		d := dir.Cross(p.Sub(points[i0])).Length()
		if d > best {
			best = d
			i2 = i
		}
	}
	if i2 < 0 {
		return 0, 0, 0, 0, false
	}

	// farthest from the plane i0-i1-i2
	n := dir.Cross(points[i2].Sub(points[i0]))
	if n.LengthSquared() == 0 {
		return 0, 0, 0, 0, false
	}
	n = n.Normal()
	i3, best := -1, float32(hullEpsilon)
	for i, p := range points {
		d := math32.Abs(n.Dot(p.Sub(points[i0])))
		if d > best {
			best = d
			i3 = i
		}
	}
	if i3 < 0 {
		return 0, 0, 0, 0, false
	}
	return i0, i1, i2, i3, true
}

// hullMassData integrates mass, center of mass and inertia over the hull
// faces (Eberly's polyhedral mass properties), then diagonalizes the inertia
// tensor to a principal frame.
func hullMassData(points []math32.Vector3, faces []hullFace, density float32) MassData {
	const (
		k0 = 1.0 / 6.0
		k1 = 1.0 / 24.0
		k2 = 1.0 / 60.0
		k3 = 1.0 / 120.0
	)
	var intg [10]float32

	sub := func(w0, w1, w2 float32) (f1, f2, f3, g0, g1, g2 float32) {
		t0 := w0 + w1
		f1 = t0 + w2
		t1 := w0 * w0
		t2 := t1 + w1*t0
		f2 = t2 + w2*f1
		f3 = w0*t1 + w1*t2 + w2*f2
		g0 = f2 + w0*(f1+w0)
		g1 = f2 + w1*(f1+w1)
		g2 = f2 + w2*(f1+w2)
		return
	}

	for _, f := range faces {
		p0, p1, p2 := points[f.A], points[f.B], points[f.C]
		d := p1.Sub(p0).Cross(p2.Sub(p0)) // non-normalized

		f1x, f2x, f3x, g0x, g1x, g2x := sub(p0.X, p1.X, p2.X)
		_, f2y, f3y, g0y, g1y, g2y := sub(p0.Y, p1.Y, p2.Y)
		_, f2z, f3z, g0z, g1z, g2z := sub(p0.Z, p1.Z, p2.Z)

		intg[0] += d.X * f1x
		intg[1] += d.X * f2x
		intg[2] += d.Y * f2y
		intg[3] += d.Z * f2z
		intg[4] += d.X * f3x
		intg[5] += d.Y * f3y
		intg[6] += d.Z * f3z
		intg[7] += d.X * (p0.Y*g0x + p1.Y*g1x + p2.Y*g2x)
		intg[8] += d.Y * (p0.Z*g0y + p1.Z*g1y + p2.Z*g2y)
		intg[9] += d.Z * (p0.X*g0z + p1.X*g1z + p2.X*g2z)
	}
	intg[0] *= k0
	for i := 1; i < 4; i++ {
		intg[i] *= k1
	}
	for i := 4; i < 7; i++ {
		intg[i] *= k2
	}
	for i := 7; i < 10; i++ {
		intg[i] *= k3
	}

	vol := intg[0]
	if vol <= 0 {
		return MassData{}
	}
	cm := math32.Vec3(intg[1], intg[2], intg[3]).DivScalar(vol)
	mass := density * vol

	// inertia about the center of mass (still density-scaled below)
	ixx := intg[5] + intg[6] - vol*(cm.Y*cm.Y+cm.Z*cm.Z)
	iyy := intg[4] + intg[6] - vol*(cm.X*cm.X+cm.Z*cm.Z)
	izz := intg[4] + intg[5] - vol*(cm.X*cm.X+cm.Y*cm.Y)
	ixy := -(intg[7] - vol*cm.X*cm.Y)
	iyz := -(intg[8] - vol*cm.Y*cm.Z)
	ixz := -(intg[9] - vol*cm.X*cm.Z)

	diag, rot := DiagonalizeInertia(
		ixx*density, iyy*density, izz*density,
		ixy*density, iyz*density, ixz*density,
	)
	return MassData{Mass: mass, Center: cm, Inertia: diag, InertiaRot: rot}
}

// DiagonalizeInertia finds the principal moments and axes of a symmetric
// inertia tensor via cyclic Jacobi rotations.
func DiagonalizeInertia(xx, yy, zz, xy, yz, xz float32) (math32.Vector3, math32.Quat) {
	var a [3][3]float32
	a[0][0], a[1][1], a[2][2] = xx, yy, zz
	a[0][1], a[1][0] = xy, xy
	a[1][2], a[2][1] = yz, yz
	a[0][2], a[2][0] = xz, xz

	var v [3][3]float32
	v[0][0], v[1][1], v[2][2] = 1, 1, 1

	for sweep := 0; sweep < 16; sweep++ {
		off := math32.Abs(a[0][1]) + math32.Abs(a[1][2]) + math32.Abs(a[0][2])
		if off < 1e-9 {
			break
		}
		for p := 0; p < 2; p++ {
			for q := p + 1; q < 3; q++ {
				if math32.Abs(a[p][q]) < 1e-12 {
					continue
				}
				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := math32.Sign(theta) / (math32.Abs(theta) + math32.Sqrt(theta*theta+1))
				if theta == 0 {
					t = 1
				}
				c := 1 / math32.Sqrt(t*t+1)
				s := t * c
				for k := 0; k < 3; k++ {
					akp, akq := a[k][p], a[k][q]
					a[k][p] = c*akp - s*akq
					a[k][q] = s*akp + c*akq
				}
				for k := 0; k < 3; k++ {
					apk, aqk := a[p][k], a[q][k]
					a[p][k] = c*apk - s*aqk
					a[q][k] = s*apk + c*aqk
				}
				for k := 0; k < 3; k++ {
					vkp, vkq := v[k][p], v[k][q]
					v[k][p] = c*vkp - s*vkq
					v[k][q] = s*vkp + c*vkq
				}
			}
		}
	}

	// columns of v are the principal axes; make sure it is a proper rotation
	c0 := math32.Vec3(v[0][0], v[1][0], v[2][0])
	c1 := math32.Vec3(v[0][1], v[1][1], v[2][1])
	c2 := math32.Vec3(v[0][2], v[1][2], v[2][2])
	if c0.Cross(c1).Dot(c2) < 0 {
		c2 = c2.Negate()
	}

	return math32.Vec3(a[0][0], a[1][1], a[2][2]), quatFromColumns(c0, c1, c2)
}

// quatFromColumns converts a rotation matrix given by its columns into a
// normalized quaternion.
func quatFromColumns(c0, c1, c2 math32.Vector3) math32.Quat {
	m00, m01, m02 := c0.X, c1.X, c2.X
	m10, m11, m12 := c0.Y, c1.Y, c2.Y
	m20, m21, m22 := c0.Z, c1.Z, c2.Z

	var q math32.Quat
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math32.Sqrt(trace+1)
		q.Set((m21-m12)*s, (m02-m20)*s, (m10-m01)*s, 0.25/s)
	case m00 > m11 && m00 > m22:
		s := 2 * math32.Sqrt(1+m00-m11-m22)
		q.Set(0.25*s, (m01+m10)/s, (m02+m20)/s, (m21-m12)/s)
	case m11 > m22:
		s := 2 * math32.Sqrt(1+m11-m00-m22)
		q.Set((m01+m10)/s, 0.25*s, (m12+m21)/s, (m02-m20)/s)
	default:
		s := 2 * math32.Sqrt(1+m22-m00-m11)
		q.Set((m02+m20)/s, (m12+m21)/s, 0.25*s, (m10-m01)/s)
	}
	q.Normalize()
	return q
}
