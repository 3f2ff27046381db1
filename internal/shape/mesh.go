package shape

import "cogentcore.org/core/math32"

// Triangle is a single mesh triangle with its precomputed normal.
type Triangle struct {
	V0, V1, V2 math32.Vector3
	Normal     math32.Vector3
}

// bvhNode is a node in the mesh's bounding volume hierarchy.
type bvhNode struct {
	Bounds    math32.Box3
	Left      *bvhNode
	Right     *bvhNode
	Triangles []int // indices into the triangle array (leaf nodes only)
}

// Mesh is static triangle geometry. It has no volume and no mass, and a
// collider carrying one can never be moved by the solver.
type Mesh struct {
	Base
	Triangles []Triangle

	root *bvhNode
}

// NewMesh builds a mesh shape from a vertex buffer and a triangle index
// buffer (three indices per triangle).
func NewMesh(vertices []math32.Vector3, indices []int) (*Mesh, error) {
	if len(vertices) < 3 || len(indices) < 3 || len(indices)%3 != 0 {
		return nil, ErrInvalidArgument
	}
	tris := make([]Triangle, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= len(vertices) || i1 >= len(vertices) || i2 >= len(vertices) {
			return nil, ErrInvalidArgument
		}
		tris = append(tris, makeTriangle(vertices[i0], vertices[i1], vertices[i2]))
	}
	m := &Mesh{Base: newBase(1), Triangles: tris}
	m.root = buildBVH(tris)
	return m, nil
}

func makeTriangle(v0, v1, v2 math32.Vector3) Triangle {
	n := v1.Sub(v0).Cross(v2.Sub(v0))
	if n.LengthSquared() > 0 {
		n = n.Normal()
	}
	return Triangle{V0: v0, V1: v1, V2: v2, Normal: n}
}

func (m *Mesh) Volume() float32 { return 0 }

func (m *Mesh) MassData() (MassData, error) {
	return MassData{}, ErrUnsupported
}

func (m *Mesh) AABB(owner Pose) math32.Box3 {
	w := m.world(owner)
	bb := math32.B3Empty()
	for _, t := range m.Triangles {
		bb.ExpandByPoint(w.Transform(t.V0))
		bb.ExpandByPoint(w.Transform(t.V1))
		bb.ExpandByPoint(w.Transform(t.V2))
	}
	return bb
}

// ContainsPoint is always false: a mesh is hollow surface geometry.
func (m *Mesh) ContainsPoint(owner Pose, p math32.Vector3) bool { return false }

func (m *Mesh) Raycast(owner Pose, start, end math32.Vector3) (Hit, bool) {
	w := m.world(owner)
	ls := w.InvTransform(start)
	le := w.InvTransform(end)

	best := Hit{Fraction: 2}
	found := false
	seg := math32.B3Empty()
	seg.ExpandByPoint(ls)
	seg.ExpandByPoint(le)

	m.walk(m.root, seg, func(i int) {
		if hit, ok := raycastTriangle(m.Triangles[i], ls, le); ok && hit.Fraction < best.Fraction {
			best = hit
			found = true
		}
	})
	if !found {
		return Hit{}, false
	}
	best.Point = w.Transform(best.Point)
	best.Normal = w.TransformDir(best.Normal)
	return best, true
}

// Support panics: meshes are not convex and never enter GJK.
func (m *Mesh) Support(dir math32.Vector3) math32.Vector3 {
	panic("mesh shapes have no support mapping")
}

// TrianglesInBox visits every triangle whose bounds overlap the given box, in
// the mesh's local space.
func (m *Mesh) TrianglesInBox(local math32.Box3, fn func(Triangle)) {
	m.walk(m.root, local, func(i int) { fn(m.Triangles[i]) })
}

func (m *Mesh) walk(n *bvhNode, box math32.Box3, fn func(int)) {
	if n == nil || !n.Bounds.IntersectsBox(box) {
		return
	}
	if n.Left == nil && n.Right == nil {
		for _, i := range n.Triangles {
			fn(i)
		}
		return
	}
	m.walk(n.Left, box, fn)
	m.walk(n.Right, box, fn)
}

// buildBVH constructs a median-split hierarchy over the triangle list.
func buildBVH(tris []Triangle) *bvhNode {
	if len(tris) == 0 {
		return nil
	}
	indices := make([]int, len(tris))
	for i := range indices {
		indices[i] = i
	}
	return buildBVHNode(tris, indices, 0)
}

func buildBVHNode(tris []Triangle, indices []int, depth int) *bvhNode {
	node := &bvhNode{Bounds: triangleBounds(tris, indices)}

	if len(indices) <= 4 || depth > 20 {
		node.Triangles = indices
		return node
	}

	// split on the longest axis at the mean centroid
	size := node.Bounds.Size()
	axis := 0
	if size.Y > size.X {
		axis = 1
	}
	if size.Z > axisValue(size, axis) {
		axis = 2
	}
	mid := partitionTriangles(tris, indices, axis)
	if mid == 0 || mid == len(indices) {
		node.Triangles = indices
		return node
	}

	node.Left = buildBVHNode(tris, indices[:mid], depth+1)
	node.Right = buildBVHNode(tris, indices[mid:], depth+1)
	return node
}

func triangleBounds(tris []Triangle, indices []int) math32.Box3 {
	bb := math32.B3Empty()
	for _, idx := range indices {
		t := &tris[idx]
		bb.ExpandByPoint(t.V0)
		bb.ExpandByPoint(t.V1)
		bb.ExpandByPoint(t.V2)
	}
	return bb
}

func partitionTriangles(tris []Triangle, indices []int, axis int) int {
	center := float32(0)
	for _, idx := range indices {
		center += axisValue(centroid(&tris[idx]), axis)
	}
	center /= float32(len(indices))

	left, right := 0, len(indices)-1
	for left <= right {
		if axisValue(centroid(&tris[indices[left]]), axis) < center {
			left++
		} else {
			indices[left], indices[right] = indices[right], indices[left]
			right--
		}
	}
	return left
}

func centroid(t *Triangle) math32.Vector3 {
	return t.V0.Add(t.V1).Add(t.V2).MulScalar(1.0 / 3.0)
}

func axisValue(v math32.Vector3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// raycastTriangle is the Moller-Trumbore segment/triangle test.
func raycastTriangle(t Triangle, start, end math32.Vector3) (Hit, bool) {
	d := end.Sub(start)
	e1 := t.V1.Sub(t.V0)
	e2 := t.V2.Sub(t.V0)
	p := d.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < 1e-9 {
		return Hit{}, false
	}
	inv := 1 / det
	s := start.Sub(t.V0)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return Hit{}, false
	}
	q := s.Cross(e1)
	v := d.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return Hit{}, false
	}
	frac := e2.Dot(q) * inv
	if frac < 0 || frac > 1 {
		return Hit{}, false
	}
	n := t.Normal
	if n.Dot(d) > 0 {
		n = n.Negate()
	}
	return Hit{Point: start.Add(d.MulScalar(frac)), Normal: n, Fraction: frac}, true
}
