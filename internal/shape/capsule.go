package shape

import "cogentcore.org/core/math32"

// Capsule is a cylinder with hemispherical caps. The axis runs along local Y;
// Length is the distance between the cap centers, so the total height is
// Length + 2*Radius.
type Capsule struct {
	Base
	Radius float32
	Length float32
}

// NewCapsule creates a capsule with the given radius and inner length.
func NewCapsule(radius, length, density float32) (*Capsule, error) {
	if radius <= 0 || length <= 0 || density <= 0 {
		return nil, ErrInvalidArgument
	}
	return &Capsule{Base: newBase(density), Radius: radius, Length: length}, nil
}

func (c *Capsule) Volume() float32 {
	r := c.Radius
	return math32.Pi*r*r*c.Length + 4.0/3.0*math32.Pi*r*r*r
}

func (c *Capsule) MassData() (MassData, error) {
	r, l := c.Radius, c.Length
	mcy := c.density * math32.Pi * r * r * l
	mhs := c.density * 2.0 / 3.0 * math32.Pi * r * r * r // one hemisphere

	// hemisphere about its own center of mass, then shifted to the capsule
	// center (cm sits 3r/8 above the flat face)
	hcm := 83.0 / 320.0 * mhs * r * r
	d := l/2 + 3.0/8.0*r
	perp := mcy*(l*l/12+r*r/4) + 2*(hcm+mhs*d*d)
	axial := mcy*r*r/2 + 2*(2.0/5.0*mhs*r*r)

	return MassData{
		Mass:       mcy + 2*mhs,
		Center:     c.offset.Pos,
		Inertia:    math32.Vec3(perp, axial, perp),
		InertiaRot: c.offset.Rot,
	}, nil
}

// endpoints returns the cap centers in the space of the given pose.
func (c *Capsule) endpoints(w Pose) (math32.Vector3, math32.Vector3) {
	h := w.TransformDir(math32.Vec3(0, c.Length/2, 0))
	return w.Pos.Sub(h), w.Pos.Add(h)
}

func (c *Capsule) AABB(owner Pose) math32.Box3 {
	a, b := c.endpoints(c.world(owner))
	r := math32.Vec3(c.Radius, c.Radius, c.Radius)
	bb := math32.B3Empty()
	bb.ExpandByPoint(a.Sub(r))
	bb.ExpandByPoint(a.Add(r))
	bb.ExpandByPoint(b.Sub(r))
	bb.ExpandByPoint(b.Add(r))
	return bb
}

func (c *Capsule) ContainsPoint(owner Pose, p math32.Vector3) bool {
	a, b := c.endpoints(c.world(owner))
	t := segmentParam(a, b, p)
	closest := a.Add(b.Sub(a).MulScalar(t))
	return closest.DistanceToSquared(p) <= c.Radius*c.Radius
}

func (c *Capsule) Raycast(owner Pose, start, end math32.Vector3) (Hit, bool) {
	w := c.world(owner)
	ls := w.InvTransform(start)
	le := w.InvTransform(end)
	h := c.Length / 2

	best := Hit{Fraction: 2}
	found := false

	// side surface: x^2 + z^2 = r^2 within |y| <= h
	d := le.Sub(ls)
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

	// cap spheres
	for _, cy := range []float32{-h, h} {
		if hit, ok := raycastSphere(math32.Vec3(0, cy, 0), c.Radius, ls, le); ok && hit.Fraction < best.Fraction {
			best = hit
			found = true
		}
	}
	if !found {
		return Hit{}, false
	}
	best.Point = w.Transform(best.Point)
	best.Normal = w.TransformDir(best.Normal)
	return best, true
}

func (c *Capsule) Support(dir math32.Vector3) math32.Vector3 {
	p := math32.Vec3(0, math32.Copysign(c.Length/2, dir.Y), 0)
	if dir.LengthSquared() > 0 {
		p = p.Add(dir.Normal().MulScalar(c.Radius))
	}
	return p
}
