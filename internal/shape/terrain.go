package shape

import "cogentcore.org/core/math32"

// Terrain is a square heightfield centered on the local origin. Samples is an
// N*N row-major grid of heights (rows advance along +Z); Scale is the world
// length of one side. Like Mesh it is massless and immovable.
type Terrain struct {
	Base
	Samples []float32
	N       int
	Scale   float32

	minH, maxH float32
}

// NewTerrain creates a heightfield from an n*n grid of height samples
// covering a scale*scale square.
func NewTerrain(samples []float32, n int, scale float32) (*Terrain, error) {
	if n < 2 || scale <= 0 || len(samples) != n*n {
		return nil, ErrInvalidArgument
	}
	t := &Terrain{
		Base:    newBase(1),
		Samples: append([]float32(nil), samples...),
		N:       n,
		Scale:   scale,
		minH:    samples[0],
		maxH:    samples[0],
	}
	for _, h := range samples {
		t.minH = math32.Min(t.minH, h)
		t.maxH = math32.Max(t.maxH, h)
	}
	return t, nil
}

func (t *Terrain) Volume() float32 { return 0 }

func (t *Terrain) MassData() (MassData, error) {
	return MassData{}, ErrUnsupported
}

// cellSize is the local edge length of one grid cell.
func (t *Terrain) cellSize() float32 { return t.Scale / float32(t.N-1) }

// vertex returns the local-space position of grid sample (i, j).
func (t *Terrain) vertex(i, j int) math32.Vector3 {
	cs := t.cellSize()
	return math32.Vec3(
		-t.Scale/2+float32(i)*cs,
		t.Samples[j*t.N+i],
		-t.Scale/2+float32(j)*cs,
	)
}

func (t *Terrain) AABB(owner Pose) math32.Box3 {
	half := t.Scale / 2
	local := math32.Box3{
		Min: math32.Vec3(-half, t.minH, -half),
		Max: math32.Vec3(half, t.maxH, half),
	}
	w := t.world(owner)
	return local.MulQuat(w.Rot).Translate(w.Pos)
}

// Height samples the interpolated local height at local x, z. Returns false
// outside the field.
func (t *Terrain) Height(x, z float32) (float32, bool) {
	half := t.Scale / 2
	if x < -half || x > half || z < -half || z > half {
		return 0, false
	}
	cs := t.cellSize()
	fx := (x + half) / cs
	fz := (z + half) / cs
	i := int(math32.Min(fx, float32(t.N-2)))
	j := int(math32.Min(fz, float32(t.N-2)))
	u := fx - float32(i)
	v := fz - float32(j)

	h00 := t.Samples[j*t.N+i]
	h10 := t.Samples[j*t.N+i+1]
	h01 := t.Samples[(j+1)*t.N+i]
	h11 := t.Samples[(j+1)*t.N+i+1]
	top := h00 + (h10-h00)*u
	bot := h01 + (h11-h01)*u
	return top + (bot-top)*v, true
}

// ContainsPoint reports whether the point lies under the terrain surface.
func (t *Terrain) ContainsPoint(owner Pose, p math32.Vector3) bool {
	l := t.world(owner).InvTransform(p)
	h, ok := t.Height(l.X, l.Z)
	return ok && l.Y <= h
}

func (t *Terrain) Raycast(owner Pose, start, end math32.Vector3) (Hit, bool) {
	w := t.world(owner)
	ls := w.InvTransform(start)
	le := w.InvTransform(end)

	best := Hit{Fraction: 2}
	found := false
	seg := math32.B3Empty()
	seg.ExpandByPoint(ls)
	seg.ExpandByPoint(le)

	t.TrianglesInBox(seg, func(tri Triangle) {
		if hit, ok := raycastTriangle(tri, ls, le); ok && hit.Fraction < best.Fraction {
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

// Support panics: terrain is not convex and never enters GJK.
func (t *Terrain) Support(dir math32.Vector3) math32.Vector3 {
	panic("terrain shapes have no support mapping")
}

// TrianglesInBox visits the two triangles of every grid cell overlapping the
// local-space box.
func (t *Terrain) TrianglesInBox(local math32.Box3, fn func(Triangle)) {
	if local.Max.Y < t.minH || local.Min.Y > t.maxH {
		return
	}
	half := t.Scale / 2
	cs := t.cellSize()
	i0 := int(math32.Floor((local.Min.X + half) / cs))
	i1 := int(math32.Ceil((local.Max.X + half) / cs))
	j0 := int(math32.Floor((local.Min.Z + half) / cs))
	j1 := int(math32.Ceil((local.Max.Z + half) / cs))
	i0 = max(i0, 0)
	j0 = max(j0, 0)
	i1 = min(i1, t.N-2)
	j1 = min(j1, t.N-2)

	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			v00 := t.vertex(i, j)
			v10 := t.vertex(i+1, j)
			v01 := t.vertex(i, j+1)
			v11 := t.vertex(i+1, j+1)
			fn(makeTriangle(v00, v11, v10))
			fn(makeTriangle(v00, v01, v11))
		}
	}
}
