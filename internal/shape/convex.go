package shape

import "cogentcore.org/core/math32"

// Convex is the convex hull of a point cloud. The hull faces and mass
// properties are computed once at construction; Points keeps the full input
// cloud (support queries scan it directly).
type Convex struct {
	Base
	Points []math32.Vector3

	faces []hullFace
	mass  MassData
}

// NewConvex builds a convex hull shape from at least four non-coplanar points.
func NewConvex(points []math32.Vector3, density float32) (*Convex, error) {
	if density <= 0 {
		return nil, ErrInvalidArgument
	}
	faces, err := buildHull(points)
	if err != nil {
		return nil, err
	}
	c := &Convex{
		Base:   newBase(density),
		Points: append([]math32.Vector3(nil), points...),
		faces:  faces,
	}
	c.mass = hullMassData(c.Points, faces, 1)
	if c.mass.Mass <= 0 {
		return nil, ErrInvalidArgument
	}
	return c, nil
}

func (c *Convex) Volume() float32 {
	// hullMassData ran with unit density, so Mass is the volume
	return c.mass.Mass
}

func (c *Convex) MassData() (MassData, error) {
	md := c.mass
	md.Mass *= c.density
	md.Inertia = md.Inertia.MulScalar(c.density)
	// express in the shape's offset frame
	md.Center = c.offset.Transform(md.Center)
	md.InertiaRot = c.offset.Rot.Mul(md.InertiaRot)
	return md, nil
}

func (c *Convex) AABB(owner Pose) math32.Box3 {
	w := c.world(owner)
	bb := math32.B3Empty()
	for _, p := range c.Points {
		bb.ExpandByPoint(w.Transform(p))
	}
	return bb
}

func (c *Convex) ContainsPoint(owner Pose, p math32.Vector3) bool {
	l := c.world(owner).InvTransform(p)
	for _, f := range c.faces {
		if f.Normal.Dot(l)-f.Dist > hullEpsilon {
			return false
		}
	}
	return true
}

// Raycast clips the segment against the hull's face planes (Cyrus-Beck).
func (c *Convex) Raycast(owner Pose, start, end math32.Vector3) (Hit, bool) {
	w := c.world(owner)
	ls := w.InvTransform(start)
	d := w.InvTransform(end).Sub(ls)

	tmin, tmax := float32(0), float32(1)
	var entry math32.Vector3
	entered := false
	for _, f := range c.faces {
		dist := f.Normal.Dot(ls) - f.Dist
		denom := f.Normal.Dot(d)
		if math32.Abs(denom) < 1e-9 {
			if dist > 0 {
				return Hit{}, false
			}
			continue
		}
		t := -dist / denom
		if denom < 0 {
			if t > tmin {
				tmin = t
				entry = f.Normal
				entered = true
			}
		} else if t < tmax {
			tmax = t
		}
		if tmin > tmax {
			return Hit{}, false
		}
	}
	if !entered {
		// started inside
		return Hit{Point: start, Normal: math32.Vec3(0, 1, 0), Fraction: 0}, true
	}
	return Hit{
		Point:    w.Transform(ls.Add(d.MulScalar(tmin))),
		Normal:   w.TransformDir(entry),
		Fraction: tmin,
	}, true
}

func (c *Convex) Support(dir math32.Vector3) math32.Vector3 {
	best := c.Points[0]
	bestDot := dir.Dot(best)
	for _, p := range c.Points[1:] {
		if d := dir.Dot(p); d > bestDot {
			bestDot = d
			best = p
		}
	}
	return best
}
