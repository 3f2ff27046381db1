package shape

import "cogentcore.org/core/math32"

// Cylinder is a solid cylinder with its axis along local Y.
type Cylinder struct {
	Base
	Radius float32
	Length float32
}

// NewCylinder creates a cylinder with the given radius and length.
func NewCylinder(radius, length, density float32) (*Cylinder, error) {
	if radius <= 0 || length <= 0 || density <= 0 {
		return nil, ErrInvalidArgument
	}
	return &Cylinder{Base: newBase(density), Radius: radius, Length: length}, nil
}

func (c *Cylinder) Volume() float32 {
	return math32.Pi * c.Radius * c.Radius * c.Length
}

func (c *Cylinder) MassData() (MassData, error) {
	m := c.density * c.Volume()
	r, l := c.Radius, c.Length
	perp := m * (3*r*r + l*l) / 12
	return MassData{
		Mass:       m,
		Center:     c.offset.Pos,
		Inertia:    math32.Vec3(perp, m*r*r/2, perp),
		InertiaRot: c.offset.Rot,
	}, nil
}

func (c *Cylinder) AABB(owner Pose) math32.Box3 {
	// conservative: treat as a box of matching extents
	return boxFromCorners(c.world(owner), math32.Vec3(c.Radius, c.Length/2, c.Radius))
}

func (c *Cylinder) ContainsPoint(owner Pose, p math32.Vector3) bool {
	l := c.world(owner).InvTransform(p)
	return math32.Abs(l.Y) <= c.Length/2 && l.X*l.X+l.Z*l.Z <= c.Radius*c.Radius
}

func (c *Cylinder) Raycast(owner Pose, start, end math32.Vector3) (Hit, bool) {
	w := c.world(owner)
	ls := w.InvTransform(start)
	le := w.InvTransform(end)
	d := le.Sub(ls)
	h := c.Length / 2

	best := Hit{Fraction: 2}
	found := false

	// side surface
	a := d.X*d.X + d.Z*d.Z
	if a > 1e-12 {
		b := ls.X*d.X + ls.Z*d.Z
		cc := ls.X*ls.X + ls.Z*ls.Z - c.Radius*c.Radius
		disc := b*b - a*cc
		if disc >= 0 {
			t := (-b - math32.Sqrt(disc)) / a
			if t >= 0 && t <= 1 {
				p := ls.Add(d.MulScalar(t))
				if math32.Abs(p.Y) <= h {
					best = Hit{Point: p, Normal: math32.Vec3(p.X, 0, p.Z).Normal(), Fraction: t}
					found = true
				}
			}
		}
	}

	// end discs
	if math32.Abs(d.Y) > 1e-12 {
		for _, cy := range []float32{-h, h} {
			t := (cy - ls.Y) / d.Y
			if t < 0 || t > 1 || t >= best.Fraction {
				continue
			}
			p := ls.Add(d.MulScalar(t))
			if p.X*p.X+p.Z*p.Z <= c.Radius*c.Radius {
				best = Hit{Point: p, Normal: math32.Vec3(0, math32.Sign(cy), 0), Fraction: t}
				found = true
			}
		}
	}
	if !found {
		return Hit{}, false
	}
	best.Point = w.Transform(best.Point)
	best.Normal = w.TransformDir(best.Normal)
	return best, true
}

func (c *Cylinder) Support(dir math32.Vector3) math32.Vector3 {
	y := math32.Copysign(c.Length/2, dir.Y)
	r := math32.Sqrt(dir.X*dir.X + dir.Z*dir.Z)
	if r < 1e-9 {
		return math32.Vec3(0, y, 0)
	}
	s := c.Radius / r
	return math32.Vec3(dir.X*s, y, dir.Z*s)
}
