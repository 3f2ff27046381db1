package collide

import (
	"cogentcore.org/core/math32"

	"rigid3d/internal/shape"
)

// supportable is anything with a world-space support mapping.
type supportable interface {
	Support(dir math32.Vector3) math32.Vector3
}

// placedShape adapts a shape's local support mapping to world space.
type placedShape struct {
	s    shape.Shape
	pose shape.Pose
}

func (p placedShape) Support(dir math32.Vector3) math32.Vector3 {
	return p.pose.Transform(p.s.Support(p.pose.InvTransformDir(dir)))
}

// triangleSupport treats a world-space triangle as a (flat) convex shape.
type triangleSupport struct {
	a, b, c math32.Vector3
}

func (t *triangleSupport) Support(dir math32.Vector3) math32.Vector3 {
	best := t.a
	bestDot := dir.Dot(t.a)
	if d := dir.Dot(t.b); d > bestDot {
		bestDot, best = d, t.b
	}
	if d := dir.Dot(t.c); d > bestDot {
		best = t.c
	}
	return best
}

// minkowskiSupport returns the support of the Minkowski difference A-B.
func minkowskiSupport(a, b supportable, dir math32.Vector3) math32.Vector3 {
	return a.Support(dir).Sub(b.Support(dir.Negate()))
}

const gjkMaxIterations = 64

// gjk runs the Gilbert-Johnson-Keerthi overlap test. On overlap it returns a
// simplex (up to four Minkowski-space points) enclosing the origin, suitable
// for seeding EPA.
func gjk(a, b supportable) ([]math32.Vector3, bool) {
	dir := math32.Vec3(1, 0, 0)
	s := minkowskiSupport(a, b, dir)
	simplex := []math32.Vector3{s}
	dir = s.Negate()

	for i := 0; i < gjkMaxIterations; i++ {
		if dir.LengthSquared() < 1e-12 {
			// origin lies on the simplex: treat as touching
			return simplex, true
		}
		p := minkowskiSupport(a, b, dir)
		if p.Dot(dir) < 0 {
			return nil, false
		}
		simplex = append(simplex, p)
		var contains bool
		simplex, dir, contains = nearestSimplex(simplex)
		if contains {
			return simplex, true
		}
	}
	return nil, false
}

// nearestSimplex reduces the simplex to the feature nearest the origin and
// returns the next search direction. The newest point is always last.
func nearestSimplex(s []math32.Vector3) ([]math32.Vector3, math32.Vector3, bool) {
	switch len(s) {
	case 2:
		return simplexLine(s)
	case 3:
		return simplexTriangle(s)
	default:
		return simplexTetrahedron(s)
	}
}

func simplexLine(s []math32.Vector3) ([]math32.Vector3, math32.Vector3, bool) {
	a := s[1] // newest
	b := s[0]
	ab := b.Sub(a)
	ao := a.Negate()
	if ab.Dot(ao) > 0 {
		return s, ab.Cross(ao).Cross(ab), false
	}
	return []math32.Vector3{a}, ao, false
}

func simplexTriangle(s []math32.Vector3) ([]math32.Vector3, math32.Vector3, bool) {
	a := s[2] // newest
	b := s[1]
	c := s[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Negate()
	abc := ab.Cross(ac)

	if abc.Cross(ac).Dot(ao) > 0 {
		if ac.Dot(ao) > 0 {
			return []math32.Vector3{c, a}, ac.Cross(ao).Cross(ac), false
		}
		return simplexLine([]math32.Vector3{b, a})
	}
	if ab.Cross(abc).Dot(ao) > 0 {
		return simplexLine([]math32.Vector3{b, a})
	}
	if abc.Dot(ao) > 0 {
		return []math32.Vector3{c, b, a}, abc, false
	}
	return []math32.Vector3{b, c, a}, abc.Negate(), false
}

func simplexTetrahedron(s []math32.Vector3) ([]math32.Vector3, math32.Vector3, bool) {
	a := s[3] // newest
	b := s[2]
	c := s[1]
	d := s[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Negate()

	abc := ab.Cross(ac)
	acd := ac.Cross(ad)
	adb := ad.Cross(ab)

	if abc.Dot(ao) > 0 {
		return simplexTriangle([]math32.Vector3{c, b, a})
	}
	if acd.Dot(ao) > 0 {
		return simplexTriangle([]math32.Vector3{d, c, a})
	}
	if adb.Dot(ao) > 0 {
		return simplexTriangle([]math32.Vector3{b, d, a})
	}
	return s, math32.Vector3{}, true
}
