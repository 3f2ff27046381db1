package shape

import "cogentcore.org/core/math32"

// Box is a solid rectangular cuboid given by its full extents.
type Box struct {
	Base
	Size math32.Vector3
}

// NewBox creates a box with the given full width, height and depth.
func NewBox(size math32.Vector3, density float32) (*Box, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, ErrInvalidArgument
	}
	if density <= 0 {
		return nil, ErrInvalidArgument
	}
	return &Box{Base: newBase(density), Size: size}, nil
}

func (b *Box) half() math32.Vector3 { return b.Size.MulScalar(0.5) }

func (b *Box) Volume() float32 {
	return b.Size.X * b.Size.Y * b.Size.Z
}

func (b *Box) MassData() (MassData, error) {
	m := b.density * b.Volume()
	s := b.Size
	md := MassData{
		Mass:   m,
		Center: b.offset.Pos,
		Inertia: math32.Vec3(
			m/12*(s.Y*s.Y+s.Z*s.Z),
			m/12*(s.X*s.X+s.Z*s.Z),
			m/12*(s.X*s.X+s.Y*s.Y),
		),
		InertiaRot: b.offset.Rot,
	}
	return md, nil
}

func (b *Box) AABB(owner Pose) math32.Box3 {
	return boxFromCorners(b.world(owner), b.half())
}

func (b *Box) ContainsPoint(owner Pose, p math32.Vector3) bool {
	l := b.world(owner).InvTransform(p).Abs()
	h := b.half()
	return l.X <= h.X && l.Y <= h.Y && l.Z <= h.Z
}

func (b *Box) Raycast(owner Pose, start, end math32.Vector3) (Hit, bool) {
	w := b.world(owner)
	ls := w.InvTransform(start)
	le := w.InvTransform(end)
	hit, ok := raycastLocalBox(b.half(), ls, le)
	if !ok {
		return Hit{}, false
	}
	hit.Point = w.Transform(hit.Point)
	hit.Normal = w.TransformDir(hit.Normal)
	return hit, true
}

func (b *Box) Support(dir math32.Vector3) math32.Vector3 {
	h := b.half()
	return math32.Vec3(
		math32.Copysign(h.X, dir.X),
		math32.Copysign(h.Y, dir.Y),
		math32.Copysign(h.Z, dir.Z),
	)
}

// raycastLocalBox is a slab test of a segment against an origin-centered box.
func raycastLocalBox(half, start, end math32.Vector3) (Hit, bool) {
	d := end.Sub(start)
	tmin := float32(0)
	tmax := float32(1)
	axis := -1
	flip := float32(1)

	mins := [3]float32{-half.X, -half.Y, -half.Z}
	maxs := [3]float32{half.X, half.Y, half.Z}
	s := [3]float32{start.X, start.Y, start.Z}
	dv := [3]float32{d.X, d.Y, d.Z}

	for i := 0; i < 3; i++ {
		if math32.Abs(dv[i]) < 1e-9 {
			if s[i] < mins[i] || s[i] > maxs[i] {
				return Hit{}, false
			}
			continue
		}
		inv := 1 / dv[i]
		t1 := (mins[i] - s[i]) * inv
		t2 := (maxs[i] - s[i]) * inv
		f := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			f = 1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
			flip = f
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return Hit{}, false
		}
	}
	if axis < 0 {
		// started inside: report the entry point as the start itself
		n := start
		if n.LengthSquared() > 0 {
			n = n.Normal()
		} else {
			n = math32.Vec3(0, 1, 0)
		}
		return Hit{Point: start, Normal: n, Fraction: 0}, true
	}
	n := math32.Vector3{}
	switch axis {
	case 0:
		n.X = flip
	case 1:
		n.Y = flip
	case 2:
		n.Z = flip
	}
	return Hit{
		Point:    start.Add(d.MulScalar(tmin)),
		Normal:   n,
		Fraction: tmin,
	}, true
}
