// Package physics simulates rigid bodies in 3D: colliders built from
// shapes, joints between them, an impulse solver with sleeping, and
// world queries with tag filtering.
package physics

import (
	"fmt"
	"sort"

	"cogentcore.org/core/math32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rigid3d/internal/broadphase"
	"rigid3d/internal/collide"
	"rigid3d/internal/shape"
)

// Callbacks hooks collision events. All callbacks fire during Update, on
// the calling goroutine. The Contact callback receives a mutable contact
// before the solver runs.
type Callbacks struct {
	// Filter vetoes a pair for this step; nil accepts every pair.
	Filter func(a, b *Collider) bool
	// Enter fires when two colliders start touching. The contact is the
	// first touching shape pair and is mutable until the solver runs.
	Enter func(a, b *Collider, c *Contact)
	// Exit fires when two colliders stop touching.
	Exit func(a, b *Collider)
	// Contact fires for every touching shape pair, every step, while either
	// body is a mover. Pairs inside a sleeping island keep their touching
	// state but stop firing until something wakes them.
	Contact func(c *Contact)
}

// World owns colliders and joints and advances the simulation. Worlds are
// fully independent; colliders and joints never cross worlds. A World is
// not safe for concurrent use, but distinct worlds may step in parallel.
type World struct {
	id  uuid.UUID
	log *zap.Logger
	cfg Config

	nextID    uint64
	step      uint64
	colliders []*Collider
	byID      map[uint64]*Collider
	joints    []Joint

	// jointsDirty forces a priority re-sort before the next solve
	jointsDirty bool

	grid    *broadphase.Grid
	tagMask [MaxTags]uint32
	pairs   map[pairKey]*pairState

	callbacks Callbacks
	contacts  []*Contact // reused between steps
	destroyed bool
}

// Option configures a World at creation.
type Option func(*World)

// WithLogger attaches a structured logger; the default discards logs.
func WithLogger(log *zap.Logger) Option {
	return func(w *World) {
		if log != nil {
			w.log = log
		}
	}
}

// NewWorld creates a world from a validated config.
func NewWorld(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	w := &World{
		id:    uuid.New(),
		log:   zap.NewNop(),
		cfg:   cfg,
		byID:  map[uint64]*Collider{},
		grid:  broadphase.NewGrid(cfg.BroadphaseCellSize),
		pairs: map[pairKey]*pairState{},
	}
	// all declared tags collide with each other until disabled
	for i := range w.tagMask {
		w.tagMask[i] = ^uint32(0)
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log.Debug("world created",
		zap.String("id", w.id.String()),
		zap.Strings("tags", cfg.Tags))
	return w, nil
}

// ID returns the world's unique identifier.
func (w *World) ID() uuid.UUID { return w.id }

// Config returns a copy of the world's configuration.
func (w *World) Config() Config { return w.cfg }

// IsDestroyed reports whether Destroy has been called.
func (w *World) IsDestroyed() bool { return w.destroyed }

// Destroy tears the world down, destroying every collider and joint it
// owns. Using the world afterwards reports ErrDestroyed.
func (w *World) Destroy() error {
	if w.destroyed {
		return fmt.Errorf("world already destroyed: %w", ErrDestroyed)
	}
	for len(w.colliders) > 0 {
		w.removeCollider(w.colliders[len(w.colliders)-1])
	}
	for len(w.joints) > 0 {
		w.joints[len(w.joints)-1].Destroy()
	}
	w.destroyed = true
	w.log.Debug("world destroyed", zap.String("id", w.id.String()))
	return nil
}

func (w *World) alive() error {
	if w.destroyed {
		return fmt.Errorf("world: %w", ErrDestroyed)
	}
	return nil
}

// Gravity returns the world gravity.
func (w *World) Gravity() math32.Vector3 { return w.cfg.gravity() }

// SetGravity changes the world gravity and wakes every dynamic collider.
func (w *World) SetGravity(g math32.Vector3) error {
	if err := w.alive(); err != nil {
		return err
	}
	w.cfg.Gravity = [3]float32{g.X, g.Y, g.Z}
	for _, c := range w.colliders {
		if c.dynamic() {
			c.SetAwake(true)
		}
	}
	return nil
}

// SetCallbacks installs the collision callbacks, replacing any previous set.
func (w *World) SetCallbacks(cb Callbacks) error {
	if err := w.alive(); err != nil {
		return err
	}
	w.callbacks = cb
	return nil
}

// ColliderCount returns the number of live colliders.
func (w *World) ColliderCount() int { return len(w.colliders) }

// JointCount returns the number of live joints.
func (w *World) JointCount() int { return len(w.joints) }

// Colliders returns the live colliders in creation order.
func (w *World) Colliders() []*Collider {
	return append([]*Collider(nil), w.colliders...)
}

//////// collider factories

// NewCollider creates a shapeless collider at a world position. Attach
// shapes with AddShape.
func (w *World) NewCollider(pos math32.Vector3) (*Collider, error) {
	if err := w.alive(); err != nil {
		return nil, err
	}
	c := newCollider(w, pos)
	w.colliders = append(w.colliders, c)
	w.byID[c.id] = c
	return c, nil
}

// NewBoxCollider creates a collider with a box shape of the given full
// extents.
func (w *World) NewBoxCollider(pos, size math32.Vector3) (*Collider, error) {
	s, err := shape.NewBox(size, 1)
	if err != nil {
		return nil, err
	}
	return w.newShapedCollider(pos, s)
}

// NewSphereCollider creates a collider with a sphere shape.
func (w *World) NewSphereCollider(pos math32.Vector3, radius float32) (*Collider, error) {
	s, err := shape.NewSphere(radius, 1)
	if err != nil {
		return nil, err
	}
	return w.newShapedCollider(pos, s)
}

// NewCapsuleCollider creates a collider with a capsule shape aligned to its
// local Y axis.
func (w *World) NewCapsuleCollider(pos math32.Vector3, radius, length float32) (*Collider, error) {
	s, err := shape.NewCapsule(radius, length, 1)
	if err != nil {
		return nil, err
	}
	return w.newShapedCollider(pos, s)
}

// NewCylinderCollider creates a collider with a cylinder shape aligned to
// its local Y axis.
func (w *World) NewCylinderCollider(pos math32.Vector3, radius, length float32) (*Collider, error) {
	s, err := shape.NewCylinder(radius, length, 1)
	if err != nil {
		return nil, err
	}
	return w.newShapedCollider(pos, s)
}

// NewConvexCollider creates a collider with the convex hull of a point
// cloud.
func (w *World) NewConvexCollider(pos math32.Vector3, points []math32.Vector3) (*Collider, error) {
	s, err := shape.NewConvex(points, 1)
	if err != nil {
		return nil, err
	}
	return w.newShapedCollider(pos, s)
}

// NewMeshCollider creates a static collider from a triangle mesh.
func (w *World) NewMeshCollider(pos math32.Vector3, vertices []math32.Vector3, indices []int) (*Collider, error) {
	s, err := shape.NewMesh(vertices, indices)
	if err != nil {
		return nil, err
	}
	return w.newShapedCollider(pos, s)
}

// NewTerrainCollider creates a static collider from a square heightfield.
func (w *World) NewTerrainCollider(pos math32.Vector3, samples []float32, n int, scale float32) (*Collider, error) {
	s, err := shape.NewTerrain(samples, n, scale)
	if err != nil {
		return nil, err
	}
	return w.newShapedCollider(pos, s)
}

func (w *World) newShapedCollider(pos math32.Vector3, s shape.Shape) (*Collider, error) {
	c, err := w.NewCollider(pos)
	if err != nil {
		return nil, err
	}
	if err := c.AddShape(s); err != nil {
		w.removeCollider(c)
		return nil, err
	}
	return c, nil
}

// removeCollider destroys a collider: joints referencing it cascade, its
// shapes detach, and stale pair state is dropped.
func (w *World) removeCollider(c *Collider) {
	for len(c.joints) > 0 {
		c.joints[len(c.joints)-1].Destroy()
	}
	for _, s := range c.shapes {
		if at, ok := s.(interface{ SetOwner(shape.Owner) }); ok {
			at.SetOwner(nil)
		}
	}
	c.shapes = nil
	w.grid.Remove(c.id)
	delete(w.byID, c.id)
	for key, ps := range w.pairs {
		if ps.a == c || ps.b == c {
			delete(w.pairs, key)
		}
	}
	for i, cur := range w.colliders {
		if cur == c {
			w.colliders = append(w.colliders[:i], w.colliders[i+1:]...)
			break
		}
	}
	c.destroyed = true
}

func (w *World) refreshBroadphase(c *Collider) {
	if c.destroyed || !c.enabled || len(c.shapes) == 0 {
		w.grid.Remove(c.id)
		return
	}
	w.grid.Update(c.id, c.AABB())
}

//////// tags

func (w *World) tagIndex(tag string) int {
	for i, t := range w.cfg.Tags {
		if t == tag {
			return i
		}
	}
	return -1
}

func (w *World) tagPair(a, b string) (int, int, error) {
	ia := w.tagIndex(a)
	if ia < 0 {
		return 0, 0, fmt.Errorf("tag %q: %w", a, ErrUnknownTag)
	}
	ib := w.tagIndex(b)
	if ib < 0 {
		return 0, 0, fmt.Errorf("tag %q: %w", b, ErrUnknownTag)
	}
	return ia, ib, nil
}

// DisableCollisionBetween stops colliders with these two tags from
// colliding. Order does not matter.
func (w *World) DisableCollisionBetween(a, b string) error {
	if err := w.alive(); err != nil {
		return err
	}
	ia, ib, err := w.tagPair(a, b)
	if err != nil {
		return err
	}
	w.tagMask[ia] &^= 1 << uint(ib)
	w.tagMask[ib] &^= 1 << uint(ia)
	return nil
}

// EnableCollisionBetween re-enables collision between two tags.
func (w *World) EnableCollisionBetween(a, b string) error {
	if err := w.alive(); err != nil {
		return err
	}
	ia, ib, err := w.tagPair(a, b)
	if err != nil {
		return err
	}
	w.tagMask[ia] |= 1 << uint(ib)
	w.tagMask[ib] |= 1 << uint(ia)
	return nil
}

// IsCollisionEnabledBetween reports whether two tags collide.
func (w *World) IsCollisionEnabledBetween(a, b string) (bool, error) {
	ia, ib, err := w.tagPair(a, b)
	if err != nil {
		return false, err
	}
	return w.tagMask[ia]&(1<<uint(ib)) != 0, nil
}

// shouldCollide applies the static pair rules: enabled, tag matrix, at
// least one dynamic side, no kinematic-kinematic pairs and no joined pairs.
func (w *World) shouldCollide(a, b *Collider) bool {
	if !a.enabled || !b.enabled || a.destroyed || b.destroyed {
		return false
	}
	if !a.dynamic() && !b.dynamic() {
		return false
	}
	if a.kinematic && b.kinematic {
		return false
	}
	if a.tag >= 0 && b.tag >= 0 && w.tagMask[a.tag]&(1<<uint(b.tag)) == 0 {
		return false
	}
	for _, j := range a.joints {
		ja, jb := j.Colliders()
		if ja == b || jb == b {
			return false
		}
	}
	return true
}

//////// stepping

// Update advances the simulation by dt seconds. Staged pose and velocity
// changes apply first, then forces integrate, contacts and joints solve,
// poses integrate, and sleep state updates. dt is clamped to MaxStep.
func (w *World) Update(dt float32) error {
	if err := w.alive(); err != nil {
		return err
	}
	if dt <= 0 || math32.IsNaN(dt) {
		return fmt.Errorf("update dt must be positive: %w", ErrInvalidArgument)
	}
	dt = math32.Min(dt, w.cfg.MaxStep)

	w.snapshotPoses()
	for _, c := range w.colliders {
		if c.staged.hasPose || c.staged.hasLinVel || c.staged.hasAngVel {
			c.applyStaged()
			w.refreshBroadphase(c)
		}
	}
	for _, c := range w.colliders {
		if c.mover() {
			w.refreshBroadphase(c)
		}
	}

	islands := newIslandSet()
	w.collideStep(islands)
	for _, j := range w.joints {
		a, b := j.Colliders()
		islands.union(a, b)
	}

	w.integrateForces(dt)

	w.sortJoints()
	active := w.contacts[:0]
	for _, ct := range w.contacts {
		if !ct.respond || ct.a.sensor || ct.b.sensor {
			continue
		}
		if !ct.a.mover() && !ct.b.mover() {
			continue
		}
		w.prepareContact(ct, dt)
		active = append(active, ct)
	}
	for _, j := range w.joints {
		if j.Enabled() {
			j.prepare(dt)
		}
	}
	for i := 0; i < w.cfg.StepCount; i++ {
		for _, j := range w.joints {
			if j.Enabled() {
				j.solveVelocity(dt)
			}
		}
		for _, ct := range active {
			solveContact(ct)
		}
	}

	w.integratePositions(dt)
	for _, j := range w.joints {
		if j.Enabled() {
			j.solvePosition()
		}
	}
	w.sweepContinuous()
	w.updateSleep(islands, dt)
	w.clearForces()
	w.step++
	return nil
}

// Interpolate visits every collider with its pose blended between the
// previous and current step; alpha 0 yields the pre-step pose, 1 the current
// pose. Renderers running between fixed steps use this to smooth motion.
// Returning false from visit stops the walk.
func (w *World) Interpolate(alpha float32, visit func(c *Collider, pose shape.Pose) bool) error {
	if err := w.alive(); err != nil {
		return err
	}
	if visit == nil {
		return fmt.Errorf("interpolate visitor is required: %w", ErrInvalidArgument)
	}
	alpha = clampf(alpha, 0, 1)
	for _, c := range w.colliders {
		if !visit(c, c.InterpolatedPose(alpha)) {
			return nil
		}
	}
	return nil
}

// sortJoints orders joints so higher priorities solve last and win.
func (w *World) sortJoints() {
	if !w.jointsDirty {
		return
	}
	sort.SliceStable(w.joints, func(i, k int) bool {
		return w.joints[i].Priority() < w.joints[k].Priority()
	})
	w.jointsDirty = false
}

// collideStep runs broad and narrow phase, fires the collision callbacks
// and links touching pairs into islands.
func (w *World) collideStep(islands *islandSet) {
	w.contacts = w.contacts[:0]

	w.grid.Pairs(func(ida, idb uint64) {
		a, ok := w.byID[ida]
		if !ok {
			return
		}
		b, ok := w.byID[idb]
		if !ok {
			return
		}
		if !w.shouldCollide(a, b) {
			return
		}
		if !a.mover() && !b.mover() {
			// keep the pair alive without re-running narrow phase
			if ps, ok := w.pairs[makePairKey(a, b)]; ok {
				ps.lastSeen = w.step
			}
			return
		}
		if w.callbacks.Filter != nil && !w.callbacks.Filter(a, b) {
			return
		}

		var first *Contact
		for _, sa := range a.shapes {
			for _, sb := range b.shapes {
				m, ok := collide.Shapes(sa, a.pose, sb, b.pose)
				if !ok {
					continue
				}
				ct := &Contact{
					a: a, b: b,
					shapeA:      sa,
					shapeB:      sb,
					manifold:    m,
					friction:    math32.Sqrt(a.friction * b.friction),
					restitution: math32.Max(a.restitution, b.restitution),
					respond:     true,
				}
				w.contacts = append(w.contacts, ct)
				islands.union(a, b)
				if first == nil {
					first = ct
				}
				if w.callbacks.Contact != nil {
					w.callbacks.Contact(ct)
				}
			}
		}
		if first == nil {
			return
		}

		// impacts wake sleeping bodies
		if !a.awake && a.dynamic() {
			a.SetAwake(true)
		}
		if !b.awake && b.dynamic() {
			b.SetAwake(true)
		}

		key := makePairKey(a, b)
		ps, seen := w.pairs[key]
		if !seen {
			w.pairs[key] = &pairState{a: a, b: b, lastSeen: w.step}
			if w.callbacks.Enter != nil {
				w.callbacks.Enter(a, b, first)
			}
		} else {
			ps.lastSeen = w.step
		}
	})

	for key, ps := range w.pairs {
		if ps.lastSeen != w.step {
			delete(w.pairs, key)
			if w.callbacks.Exit != nil && !ps.a.destroyed && !ps.b.destroyed {
				w.callbacks.Exit(ps.a, ps.b)
			}
		}
	}
}
