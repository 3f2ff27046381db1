package shape

import "cogentcore.org/core/math32"

// Sphere is a solid ball.
type Sphere struct {
	Base
	Radius float32
}

// NewSphere creates a sphere with the given radius.
func NewSphere(radius, density float32) (*Sphere, error) {
	if radius <= 0 || density <= 0 {
		return nil, ErrInvalidArgument
	}
	return &Sphere{Base: newBase(density), Radius: radius}, nil
}

func (s *Sphere) Volume() float32 {
	r := s.Radius
	return 4.0 / 3.0 * math32.Pi * r * r * r
}

func (s *Sphere) MassData() (MassData, error) {
	m := s.density * s.Volume()
	i := 2.0 / 5.0 * m * s.Radius * s.Radius
	return MassData{
		Mass:       m,
		Center:     s.offset.Pos,
		Inertia:    math32.Vec3(i, i, i),
		InertiaRot: s.offset.Rot,
	}, nil
}

func (s *Sphere) AABB(owner Pose) math32.Box3 {
	c := s.world(owner).Pos
	r := math32.Vec3(s.Radius, s.Radius, s.Radius)
	return math32.Box3{Min: c.Sub(r), Max: c.Add(r)}
}

func (s *Sphere) ContainsPoint(owner Pose, p math32.Vector3) bool {
	return s.world(owner).Pos.DistanceToSquared(p) <= s.Radius*s.Radius
}

func (s *Sphere) Raycast(owner Pose, start, end math32.Vector3) (Hit, bool) {
	return raycastSphere(s.world(owner).Pos, s.Radius, start, end)
}

func (s *Sphere) Support(dir math32.Vector3) math32.Vector3 {
	if dir.LengthSquared() == 0 {
		return math32.Vec3(s.Radius, 0, 0)
	}
	return dir.Normal().MulScalar(s.Radius)
}

// raycastSphere intersects a segment with a sphere at center c.
func raycastSphere(c math32.Vector3, r float32, start, end math32.Vector3) (Hit, bool) {
	d := end.Sub(start)
	m := start.Sub(c)
	a := d.LengthSquared()
	if a == 0 {
		return Hit{}, false
	}
	b := m.Dot(d)
	cc := m.LengthSquared() - r*r
	if cc <= 0 {
		// start inside
		n := m
		if n.LengthSquared() > 0 {
			n = n.Normal()
		} else {
			n = math32.Vec3(0, 1, 0)
		}
		return Hit{Point: start, Normal: n, Fraction: 0}, true
	}
	disc := b*b - a*cc
	if disc < 0 {
		return Hit{}, false
	}
	t := (-b - math32.Sqrt(disc)) / a
	if t < 0 || t > 1 {
		return Hit{}, false
	}
	pt := start.Add(d.MulScalar(t))
	return Hit{Point: pt, Normal: pt.Sub(c).Normal(), Fraction: t}, true
}
