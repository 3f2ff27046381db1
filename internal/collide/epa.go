package collide

import "cogentcore.org/core/math32"

// EPA constants, tuned for float32 geometry at unit scale.
const (
	epaMaxIterations = 48
	epaTolerance     = 1e-4
)

// polyFace is one face of the expanding polytope with its outward plane.
type polyFace struct {
	a, b, c int
	normal  math32.Vector3
	dist    float32
}

// epa expands the GJK simplex into the polytope face of the Minkowski
// difference closest to the origin. The returned normal is the direction to
// translate shape B to resolve the overlap (it points from A toward B) and
// depth is the penetration along it.
func epa(sa, sb supportable, simplex []math32.Vector3) (math32.Vector3, float32, bool) {
	verts, faces, ok := initPolytope(sa, sb, simplex)
	if !ok {
		return math32.Vector3{}, 0, false
	}

	for i := 0; i < epaMaxIterations; i++ {
		ci := closestFace(faces)
		if ci < 0 {
			return math32.Vector3{}, 0, false
		}
		face := faces[ci]

		p := minkowskiSupport(sa, sb, face.normal)
		d := p.Dot(face.normal)
		if d-face.dist < epaTolerance {
			return face.normal, d, true
		}

		verts = append(verts, p)
		faces, ok = expandPolytope(verts, faces, len(verts)-1)
		if !ok {
			return face.normal, face.dist, true
		}
	}

	// did not converge; report the best estimate rather than dropping the
	// contact, a slightly off normal beats tunneling
	ci := closestFace(faces)
	if ci < 0 {
		return math32.Vector3{}, 0, false
	}
	return faces[ci].normal, faces[ci].dist, true
}

// initPolytope turns the GJK simplex into a tetrahedron, probing the
// coordinate axes when GJK terminated with fewer than four points.
func initPolytope(sa, sb supportable, simplex []math32.Vector3) ([]math32.Vector3, []polyFace, bool) {
	verts := append([]math32.Vector3(nil), simplex...)

	axes := []math32.Vector3{
		math32.Vec3(1, 0, 0), math32.Vec3(-1, 0, 0),
		math32.Vec3(0, 1, 0), math32.Vec3(0, -1, 0),
		math32.Vec3(0, 0, 1), math32.Vec3(0, 0, -1),
	}
	for _, ax := range axes {
		if len(verts) >= 4 && !degenerate(verts) {
			break
		}
		p := minkowskiSupport(sa, sb, ax)
		if !containsVert(verts, p) {
			verts = append(verts, p)
			if len(verts) > 4 && degenerate(verts[:4]) {
				// keep searching with the extra point swapped in
				verts[3], verts[len(verts)-1] = verts[len(verts)-1], verts[3]
				verts = verts[:4]
			}
		}
	}
	if len(verts) < 4 || degenerate(verts[:4]) {
		return nil, nil, false
	}
	verts = verts[:4]

	center := verts[0].Add(verts[1]).Add(verts[2]).Add(verts[3]).MulScalar(0.25)
	var faces []polyFace
	for _, tri := range [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 2, 3}, {1, 2, 3}} {
		f, ok := makePolyFace(verts, tri[0], tri[1], tri[2], center)
		if !ok {
			return nil, nil, false
		}
		faces = append(faces, f)
	}
	return verts, faces, true
}

func degenerate(v []math32.Vector3) bool {
	if len(v) < 4 {
		return true
	}
	vol := v[1].Sub(v[0]).Cross(v[2].Sub(v[0])).Dot(v[3].Sub(v[0]))
	return math32.Abs(vol) < 1e-10
}

func containsVert(verts []math32.Vector3, p math32.Vector3) bool {
	for _, v := range verts {
		if v.DistanceToSquared(p) < 1e-12 {
			return true
		}
	}
	return false
}

// makePolyFace builds a face whose normal points away from the interior
// point.
func makePolyFace(verts []math32.Vector3, a, b, c int, interior math32.Vector3) (polyFace, bool) {
	n := verts[b].Sub(verts[a]).Cross(verts[c].Sub(verts[a]))
	if n.LengthSquared() < 1e-14 {
		return polyFace{}, false
	}
	n = n.Normal()
	if n.Dot(interior.Sub(verts[a])) > 0 {
		b, c = c, b
		n = n.Negate()
	}
	return polyFace{a: a, b: b, c: c, normal: n, dist: n.Dot(verts[a])}, true
}

func closestFace(faces []polyFace) int {
	best := -1
	bestDist := math32.Infinity
	for i, f := range faces {
		if f.dist < bestDist {
			bestDist = f.dist
			best = i
		}
	}
	return best
}

// expandPolytope removes the faces visible from the new vertex and stitches
// fresh faces around the resulting horizon.
func expandPolytope(verts []math32.Vector3, faces []polyFace, vi int) ([]polyFace, bool) {
	p := verts[vi]

	type edge struct{ a, b int }
	edgeCount := map[edge]int{}
	key := func(a, b int) edge {
		if a > b {
			return edge{b, a}
		}
		return edge{a, b}
	}

	var kept, gone []polyFace
	for _, f := range faces {
		if f.normal.Dot(p)-f.dist > 1e-7 {
			gone = append(gone, f)
			edgeCount[key(f.a, f.b)]++
			edgeCount[key(f.b, f.c)]++
			edgeCount[key(f.c, f.a)]++
		} else {
			kept = append(kept, f)
		}
	}
	if len(gone) == 0 {
		return faces, false
	}

	var interior math32.Vector3
	for _, f := range kept {
		interior = interior.Add(verts[f.a])
	}
	if len(kept) > 0 {
		interior = interior.DivScalar(float32(len(kept)))
	}

	for _, f := range gone {
		for _, e := range [][2]int{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
			if edgeCount[key(e[0], e[1])] != 1 {
				continue
			}
			nf, ok := makePolyFace(verts, e[0], e[1], vi, interior)
			if !ok {
				continue
			}
			kept = append(kept, nf)
		}
	}
	if len(kept) < 4 {
		return faces, false
	}
	return kept, true
}
