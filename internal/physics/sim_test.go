package physics

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stepDt = 1.0 / 60

func stepN(t *testing.T, w *World, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, w.Update(stepDt))
	}
}

// newGround adds a large kinematic slab whose top face sits at y=0.
func newGround(t *testing.T, w *World) *Collider {
	t.Helper()
	g, err := w.NewBoxCollider(math32.Vec3(0, -0.5, 0), math32.Vec3(40, 1, 40))
	require.NoError(t, err)
	require.NoError(t, g.SetKinematic(true))
	return g
}

func TestBoxSettlesOnGround(t *testing.T) {
	w, err := NewWorld(testConfig())
	require.NoError(t, err)
	defer w.Destroy()

	newGround(t, w)
	box, err := w.NewBoxCollider(math32.Vec3(0, 3, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, err)

	stepN(t, w, 300)

	// resting on the slab with its bottom face at y=0
	assert.InDelta(t, 0.5, box.Position().Y, 0.06)
	assert.InDelta(t, 0, box.Position().X, 0.05)
	assert.InDelta(t, 0, box.Position().Z, 0.05)
	assert.False(t, box.IsAwake(), "a settled box should sleep")
	assert.InDelta(t, 0, box.LinearVelocity().Length(), 1e-5)

	// sleeping bodies do not drift
	before := box.Position()
	stepN(t, w, 120)
	assert.False(t, box.IsAwake())
	assert.InDelta(t, 0, box.Position().DistanceTo(before), 1e-5)
}

func TestSleeperWakesOnImpulse(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	newGround(t, w)
	box, _ := w.NewBoxCollider(math32.Vec3(0, 1, 0), math32.Vec3(1, 1, 1))
	stepN(t, w, 300)
	require.False(t, box.IsAwake())

	require.NoError(t, box.ApplyLinearImpulse(math32.Vec3(0, 4, 0)))
	assert.True(t, box.IsAwake())
	stepN(t, w, 5)
	assert.Greater(t, box.Position().Y, float32(0.55))
}

func TestSleeperWakesOnContact(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	newGround(t, w)
	resting, _ := w.NewBoxCollider(math32.Vec3(0, 0.5, 0), math32.Vec3(1, 1, 1))
	stepN(t, w, 300)
	require.False(t, resting.IsAwake())

	// drop a second box onto the sleeper
	faller, _ := w.NewBoxCollider(math32.Vec3(0, 4, 0), math32.Vec3(1, 1, 1))
	woke := false
	for i := 0; i < 120 && !woke; i++ {
		require.NoError(t, w.Update(stepDt))
		woke = resting.IsAwake()
	}
	assert.True(t, woke, "impact should wake the resting box")
	_ = faller
}

func TestSetAwakeIdempotent(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	box, _ := w.NewBoxCollider(math32.Vec3(0, 1, 0), math32.Vec3(1, 1, 1))
	box.SetAwake(true)
	box.SetAwake(true)
	assert.True(t, box.IsAwake())

	require.NoError(t, box.ApplyLinearImpulse(math32.Vec3(1, 0, 0)))
	box.SetAwake(false)
	box.SetAwake(false)
	assert.False(t, box.IsAwake())
	assert.InDelta(t, 0, box.LinearVelocity().Length(), 1e-6, "sleeping clears velocity")
}

func TestSleepDisallowedKeepsAwake(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	newGround(t, w)
	box, _ := w.NewBoxCollider(math32.Vec3(0, 1, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, box.SetSleepingAllowed(false))
	stepN(t, w, 300)
	assert.True(t, box.IsAwake())
	assert.InDelta(t, 0.5, box.Position().Y, 0.06)
}

func TestRestitutionBounce(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	newGround(t, w)
	ball, _ := w.NewSphereCollider(math32.Vec3(0, 4, 0), 0.5)
	require.NoError(t, ball.SetRestitution(0.8))

	lowest := float32(4)
	peakAfterBounce := float32(0)
	bounced := false
	for i := 0; i < 300; i++ {
		require.NoError(t, w.Update(stepDt))
		y := ball.Position().Y
		if y < lowest {
			lowest = y
		}
		if ball.LinearVelocity().Y > 0.5 {
			bounced = true
		}
		if bounced && y > peakAfterBounce {
			peakAfterBounce = y
		}
	}
	assert.True(t, bounced, "a bouncy ball should rebound")
	assert.Greater(t, peakAfterBounce, float32(1.0))
	assert.Less(t, peakAfterBounce, float32(4.0), "bounce must lose energy")
}

func TestEnterExitCallbacks(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	var enters, exits int
	require.NoError(t, w.SetCallbacks(Callbacks{
		Enter: func(a, b *Collider, c *Contact) {
			enters++
			require.NotNil(t, c, "enter must carry the touching contact")
			assert.NotEmpty(t, c.Points())
		},
		Exit: func(a, b *Collider) { exits++ },
	}))

	newGround(t, w)
	box, _ := w.NewBoxCollider(math32.Vec3(0, 2, 0), math32.Vec3(1, 1, 1))

	stepN(t, w, 120)
	assert.Equal(t, 1, enters, "one touch event for the landing")
	assert.Equal(t, 0, exits)

	require.NoError(t, box.ApplyLinearImpulse(math32.Vec3(0, 8, 0)))
	stepN(t, w, 20)
	assert.Equal(t, 1, exits, "leaving the ground reports an exit")
}

func TestFilterCallbackVetoesPair(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	require.NoError(t, w.SetCallbacks(Callbacks{
		Filter: func(a, b *Collider) bool { return false },
	}))

	newGround(t, w)
	box, _ := w.NewBoxCollider(math32.Vec3(0, 2, 0), math32.Vec3(1, 1, 1))
	stepN(t, w, 120)
	assert.Less(t, box.Position().Y, float32(-1.0), "vetoed pairs fall through")
}

func TestContactCallbackDisablesResponse(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	touched := false
	require.NoError(t, w.SetCallbacks(Callbacks{
		Contact: func(c *Contact) {
			touched = true
			c.EnableResponse(false)
		},
	}))

	newGround(t, w)
	box, _ := w.NewBoxCollider(math32.Vec3(0, 2, 0), math32.Vec3(1, 1, 1))
	stepN(t, w, 120)
	assert.True(t, touched)
	assert.Less(t, box.Position().Y, float32(-1.0), "no response means no support")
}

func TestContactCallbackPausesWhileAsleep(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	contacts := 0
	require.NoError(t, w.SetCallbacks(Callbacks{
		Contact: func(c *Contact) { contacts++ },
	}))

	newGround(t, w)
	box, _ := w.NewBoxCollider(math32.Vec3(0, 2, 0), math32.Vec3(1, 1, 1))
	stepN(t, w, 300)
	require.False(t, box.IsAwake())

	before := contacts
	stepN(t, w, 60)
	assert.Equal(t, before, contacts, "sleeping pairs do not re-run narrow phase")

	require.NoError(t, box.ApplyLinearImpulse(math32.Vec3(0, 2, 0)))
	stepN(t, w, 60)
	assert.Greater(t, contacts, before, "waking resumes contact callbacks")
}

func TestContactCallbackOverridesRestitution(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	require.NoError(t, w.SetCallbacks(Callbacks{
		Contact: func(c *Contact) { c.SetRestitution(0.8) },
	}))

	newGround(t, w)
	ball, _ := w.NewSphereCollider(math32.Vec3(0, 4, 0), 0.5)
	require.NoError(t, ball.SetRestitution(0))

	peakAfterBounce := float32(0)
	bounced := false
	for i := 0; i < 300; i++ {
		require.NoError(t, w.Update(stepDt))
		y := ball.Position().Y
		if ball.LinearVelocity().Y > 0.5 {
			bounced = true
		}
		if bounced && y > peakAfterBounce {
			peakAfterBounce = y
		}
	}
	assert.True(t, bounced, "callback restitution must reach the solver")
	assert.Greater(t, peakAfterBounce, float32(1.0))
}

func TestKinematicRamHitsRestingBody(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	target, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	ram, _ := w.NewBoxCollider(math32.Vec3(-5, 0, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, ram.SetKinematic(true))
	require.NoError(t, ram.SetLinearVelocity(math32.Vec3(8, 0, 0)))

	enters := 0
	require.NoError(t, w.SetCallbacks(Callbacks{
		Enter: func(a, b *Collider, c *Contact) { enters++ },
	}))

	stepN(t, w, 60)
	assert.Greater(t, enters, 0, "a moving kinematic body must register contacts")
	assert.Greater(t, target.Position().X, float32(1.0), "the target gets shoved ahead of the ram")
}

func TestSensorReportsButDoesNotCollide(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	var entered bool
	require.NoError(t, w.SetCallbacks(Callbacks{
		Enter: func(a, b *Collider, c *Contact) { entered = true },
	}))

	zone := newGround(t, w)
	require.NoError(t, zone.SetSensor(true))
	box, _ := w.NewBoxCollider(math32.Vec3(0, 2, 0), math32.Vec3(1, 1, 1))

	stepN(t, w, 120)
	assert.True(t, entered, "sensor overlap still reports enter")
	assert.Less(t, box.Position().Y, float32(-1.0), "sensors apply no impulses")
}

func TestTagFilteringScenario(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	newGround(t, w)
	require.NoError(t, w.DisableCollisionBetween("player", "debris"))

	player, _ := w.NewBoxCollider(math32.Vec3(0, 0.5, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, player.SetTag("player"))
	require.NoError(t, player.SetKinematic(true))

	// debris dropped straight onto the player passes through it
	debris, _ := w.NewSphereCollider(math32.Vec3(0, 3, 0), 0.3)
	require.NoError(t, debris.SetTag("debris"))

	// an enemy dropped next to it still lands on the player-sized step
	enemy, _ := w.NewSphereCollider(math32.Vec3(0.1, 3, 0.1), 0.3)
	require.NoError(t, enemy.SetTag("enemy"))

	stepN(t, w, 240)
	assert.InDelta(t, 0.3, debris.Position().Y, 0.06, "debris fell through the player to the ground")
	assert.Greater(t, enemy.Position().Y, float32(1.0), "enemy rests on top of the player box")
}

func TestDisabledColliderIgnored(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	newGround(t, w)
	box, _ := w.NewBoxCollider(math32.Vec3(0, 2, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, box.SetEnabled(false))
	pos := box.Position()

	stepN(t, w, 60)
	assert.InDelta(t, 0, box.Position().DistanceTo(pos), 1e-5, "disabled bodies do not simulate")

	require.NoError(t, box.SetEnabled(true))
	stepN(t, w, 180)
	assert.InDelta(t, 0.5, box.Position().Y, 0.06)
}

func TestKinematicPlatformMoves(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	plat, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(4, 0.5, 4))
	require.NoError(t, plat.SetKinematic(true))
	require.NoError(t, plat.SetLinearVelocity(math32.Vec3(1, 0, 0)))

	stepN(t, w, 60)
	// kinematic bodies follow their velocity and ignore gravity
	assert.InDelta(t, 1.0, plat.Position().X, 0.01)
	assert.InDelta(t, 0.0, plat.Position().Y, 1e-4)
}

func TestContinuousStopsFastBody(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	wall, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(0.2, 8, 8))
	require.NoError(t, wall.SetKinematic(true))

	bullet, _ := w.NewBoxCollider(math32.Vec3(-8.5, 0, 0), math32.Vec3(0.5, 0.5, 0.5))
	require.NoError(t, bullet.SetContinuous(true))
	require.NoError(t, bullet.SetLinearVelocity(math32.Vec3(240, 0, 0)))

	stepN(t, w, 10)
	assert.Less(t, bullet.Position().X, float32(0.0), "swept body must not tunnel through the wall")
	assert.Greater(t, bullet.Position().X, float32(-8.0))
}

func TestFastBodyTunnelsWithoutSweep(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	wall, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(0.2, 8, 8))
	require.NoError(t, wall.SetKinematic(true))

	bullet, _ := w.NewBoxCollider(math32.Vec3(-8.5, 0, 0), math32.Vec3(0.5, 0.5, 0.5))
	require.NoError(t, bullet.SetLinearVelocity(math32.Vec3(240, 0, 0)))

	stepN(t, w, 10)
	assert.Greater(t, bullet.Position().X, float32(1.0), "discrete stepping skips a thin wall at this speed")
}

func TestGravityScale(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	normal, _ := w.NewBoxCollider(math32.Vec3(0, 10, 0), math32.Vec3(1, 1, 1))
	floater, _ := w.NewBoxCollider(math32.Vec3(5, 10, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, floater.SetGravityScale(0))

	stepN(t, w, 60)
	assert.Less(t, normal.Position().Y, float32(6.0))
	assert.InDelta(t, 10.0, floater.Position().Y, 1e-3)
}

func TestStackedBoxesSettle(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	newGround(t, w)
	var boxes []*Collider
	for i := 0; i < 3; i++ {
		b, err := w.NewBoxCollider(math32.Vec3(0, 0.5+float32(i)*1.05, 0), math32.Vec3(1, 1, 1))
		require.NoError(t, err)
		boxes = append(boxes, b)
	}

	stepN(t, w, 420)
	for i, b := range boxes {
		assert.InDelta(t, 0.5+float32(i), b.Position().Y, 0.12, "box %d", i)
	}
}

func TestMeshColliderIsStatic(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	// a single large triangle acting as the floor
	verts := []math32.Vector3{
		math32.Vec3(-20, 0, -20),
		math32.Vec3(20, 0, -20),
		math32.Vec3(0, 0, 20),
	}
	floor, err := w.NewMeshCollider(math32.Vec3(0, 0, 0), verts, []int{0, 1, 2})
	require.NoError(t, err)
	assert.ErrorIs(t, floor.SetKinematic(true), ErrUnsupported)
	assert.ErrorIs(t, floor.SetLinearVelocity(math32.Vec3(1, 0, 0)), ErrUnsupported)
	assert.ErrorIs(t, floor.SetAngularVelocity(math32.Vec3(0, 1, 0)), ErrUnsupported)
	assert.ErrorIs(t, floor.ApplyForce(math32.Vec3(0, 100, 0)), ErrUnsupported)
	assert.InDelta(t, 0, floor.Mass(), 1e-6)

	ball, _ := w.NewSphereCollider(math32.Vec3(0, 3, 0), 0.5)
	stepN(t, w, 240)
	assert.InDelta(t, 0.5, ball.Position().Y, 0.08, "sphere rests on the triangle")
}
