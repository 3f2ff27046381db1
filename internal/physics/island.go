package physics

import "cogentcore.org/core/math32"

// Islands group dynamic colliders connected through contacts and joints.
// Sleep is decided per island so one restless body keeps its whole stack
// awake, and waking any member wakes the rest.

type islandSet struct {
	parent map[*Collider]*Collider
}

func newIslandSet() *islandSet {
	return &islandSet{parent: map[*Collider]*Collider{}}
}

func (s *islandSet) find(c *Collider) *Collider {
	p, ok := s.parent[c]
	if !ok {
		s.parent[c] = c
		return c
	}
	if p == c {
		return c
	}
	root := s.find(p)
	s.parent[c] = root
	return root
}

// union links two colliders into one island. Static and kinematic bodies do
// not transmit islandship; a stack resting on the ground stays one island
// per side of the ground, not one global island.
func (s *islandSet) union(a, b *Collider) {
	if a == nil || b == nil || !a.dynamic() || !b.dynamic() {
		return
	}
	ra, rb := s.find(a), s.find(b)
	if ra != rb {
		s.parent[ra] = rb
	}
}

// updateSleep advances sleep timers per island and puts islands below the
// velocity thresholds for long enough to sleep.
func (w *World) updateSleep(islands *islandSet, dt float32) {
	if !w.cfg.AllowSleep {
		return
	}
	linSq := w.cfg.SleepLinearVelocity * w.cfg.SleepLinearVelocity
	angSq := w.cfg.SleepAngularVelocity * w.cfg.SleepAngularVelocity

	// minimum sleep time per island root; infinity marks a restless island
	minTime := map[*Collider]float32{}
	for _, c := range w.colliders {
		if !c.dynamic() || !c.awake {
			continue
		}
		if !c.sleepAllowed ||
			c.linVel.LengthSquared() > linSq ||
			c.angVel.LengthSquared() > angSq {
			c.sleepTime = 0
		} else {
			c.sleepTime += dt
		}
		root := islands.find(c)
		cur, ok := minTime[root]
		if !ok || c.sleepTime < cur {
			minTime[root] = c.sleepTime
		}
	}
	for _, c := range w.colliders {
		if !c.dynamic() || !c.awake {
			continue
		}
		if minTime[islands.find(c)] >= w.cfg.SleepDuration {
			c.awake = false
			c.sleepTime = 0
			c.linVel = math32.Vector3{}
			c.angVel = math32.Vector3{}
		}
	}
}

// wakeConnected wakes every collider reachable from c through current
// contacts and joints.
func (w *World) wakeConnected(c *Collider) {
	queue := []*Collider{c}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, j := range cur.joints {
			a, b := j.Colliders()
			for _, other := range []*Collider{a, b} {
				if other != nil && other != cur && !other.awake && other.dynamic() {
					other.awake = true
					other.sleepTime = 0
					queue = append(queue, other)
				}
			}
		}
		for _, ps := range w.pairs {
			var other *Collider
			switch cur {
			case ps.a:
				other = ps.b
			case ps.b:
				other = ps.a
			default:
				continue
			}
			if !other.awake && other.dynamic() {
				other.awake = true
				other.sleepTime = 0
				queue = append(queue, other)
			}
		}
	}
}
