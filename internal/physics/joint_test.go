package physics

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBallJointPendulum(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	bob, _ := w.NewBoxCollider(math32.Vec3(1, 0, 0), math32.Vec3(0.4, 0.4, 0.4))
	require.NoError(t, bob.SetSleepingAllowed(false))
	j, err := w.NewBallJoint(nil, bob, math32.Vec3(0, 0, 0))
	require.NoError(t, err)

	for i := 0; i < 180; i++ {
		require.NoError(t, w.Update(stepDt))
		wa, wb := j.Anchors()
		assert.InDelta(t, 0, wa.DistanceTo(wb), 0.08, "step %d: anchors drifted apart", i)
	}
	// the bob stays on the unit sphere around the pivot
	_, wb := j.Anchors()
	assert.InDelta(t, 0, wb.Length(), 0.08)
	assert.InDelta(t, 1.0, bob.Position().Length(), 0.1)
}

func TestDistanceJointRod(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	a, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(0.5, 0.5, 0.5))
	b, _ := w.NewBoxCollider(math32.Vec3(2, 0, 0), math32.Vec3(0.5, 0.5, 0.5))
	require.NoError(t, a.SetSleepingAllowed(false))
	require.NoError(t, b.SetSleepingAllowed(false))

	j, err := w.NewDistanceJoint(a, b, a.Position(), b.Position())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, j.Distance(), 1e-4)

	require.NoError(t, b.ApplyLinearImpulse(math32.Vec3(0, 3, 0)))
	for i := 0; i < 180; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.InDelta(t, 2.0, j.Distance(), 0.15, "rod length must hold while tumbling")
}

func TestDistanceJointLimits(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	post, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, post.SetKinematic(true))
	ball, _ := w.NewSphereCollider(math32.Vec3(5, 0, 0), 0.5)
	require.NoError(t, ball.SetSleepingAllowed(false))

	j, err := w.NewDistanceJoint(post, ball, post.Position(), ball.Position())
	require.NoError(t, err)
	require.NoError(t, j.SetLimits(1, 3))
	assert.ErrorIs(t, j.SetLimits(3, 1), ErrInvalidArgument)
	assert.ErrorIs(t, j.SetLimits(-1, 3), ErrInvalidArgument)

	// starts past the upper limit, gets reeled in
	for i := 0; i < 240; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.LessOrEqual(t, j.Distance(), float32(3.15))
	assert.GreaterOrEqual(t, j.Distance(), float32(0.9))
}

func TestSliderLimitContainment(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	block, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	j, err := w.NewSliderJoint(nil, block, math32.Vec3(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, j.SetLimits(-1, 1))

	for i := 0; i < 180; i++ {
		require.NoError(t, block.ApplyForce(math32.Vec3(80, 0, 0)))
		require.NoError(t, w.Update(stepDt))
		assert.LessOrEqual(t, j.Position(), float32(1.001), "step %d: slid past the upper limit", i)
	}
	assert.LessOrEqual(t, block.Position().X, float32(1.001))
	assert.InDelta(t, 1.0, j.Position(), 0.05, "constant push should pin it at the limit")

	// the off-axis degrees of freedom stay locked
	assert.InDelta(t, 0, block.Position().Y, 1e-2)
	assert.InDelta(t, 0, block.Position().Z, 1e-2)
}

func TestSliderMotor(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	block, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, block.SetSleepingAllowed(false))
	j, err := w.NewSliderJoint(nil, block, math32.Vec3(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, j.SetMotorEnabled(true))
	require.NoError(t, j.SetMotorSpeed(2))
	require.NoError(t, j.SetMaxMotorForce(100))

	for i := 0; i < 60; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.InDelta(t, 2.0, j.Position(), 0.15, "motor drives at its target speed")
}

func TestHingeMotorAndAngle(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	wheel, _ := w.NewCylinderCollider(math32.Vec3(0, 0, 0), 1, 0.2)
	require.NoError(t, wheel.SetSleepingAllowed(false))
	j, err := w.NewHingeJoint(nil, wheel, math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))
	require.NoError(t, err)
	require.NoError(t, j.SetMotorEnabled(true))
	require.NoError(t, j.SetMotorSpeed(2))
	require.NoError(t, j.SetMaxMotorTorque(50))

	for i := 0; i < 60; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.InDelta(t, 2.0, j.Angle(), 0.2)
	assert.Greater(t, j.MotorTorque(), float32(0))
}

func TestHingeLimits(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	// a horizontal arm hinged at the origin about z, pulled down by gravity
	arm, _ := w.NewBoxCollider(math32.Vec3(1, 0, 0), math32.Vec3(2, 0.2, 0.2))
	require.NoError(t, arm.SetSleepingAllowed(false))
	j, err := w.NewHingeJoint(nil, arm, math32.Vec3(0, 0, 0), math32.Vec3(0, 0, 1))
	require.NoError(t, err)
	require.NoError(t, j.SetLimits(-0.5, 0.5))
	assert.ErrorIs(t, j.SetLimits(0.5, -0.5), ErrInvalidArgument)

	for i := 0; i < 240; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.GreaterOrEqual(t, j.Angle(), float32(-0.65), "gravity swings it to the lower limit, not past")
	assert.LessOrEqual(t, j.Angle(), float32(0.1))
}

func TestWeldJointHolds(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	frame, _ := w.NewBoxCollider(math32.Vec3(0, 2, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, frame.SetKinematic(true))
	part, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(0.5, 0.5, 0.5))
	require.NoError(t, part.SetSleepingAllowed(false))

	_, err := w.NewWeldJoint(frame, part, math32.Vec3(0, 1, 0))
	require.NoError(t, err)

	for i := 0; i < 240; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.InDelta(t, 0, part.Position().Length(), 0.1, "welded part hangs rigidly under gravity")

	// relative orientation stays fixed as well
	rel := part.Orientation()
	assert.InDelta(t, 1.0, math32.Abs(rel.W), 0.02)
}

func TestConeJointLimitsTilt(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	body, _ := w.NewBoxCollider(math32.Vec3(0, -1, 0), math32.Vec3(0.5, 1, 0.5))
	require.NoError(t, body.SetSleepingAllowed(false))
	j, err := w.NewConeJoint(nil, body, math32.Vec3(0, 0, 0), math32.Vec3(0, -1, 0))
	require.NoError(t, err)
	require.NoError(t, j.SetLimit(0.3))
	assert.ErrorIs(t, j.SetLimit(0), ErrInvalidArgument)
	assert.ErrorIs(t, j.SetLimit(4), ErrInvalidArgument)

	require.NoError(t, body.ApplyAngularImpulse(math32.Vec3(2, 0, 0)))
	maxTilt := float32(0)
	for i := 0; i < 180; i++ {
		require.NoError(t, w.Update(stepDt))
		axis := math32.Vec3(0, -1, 0).MulQuat(body.Orientation())
		tilt := math32.Acos(clampf(axis.Dot(math32.Vec3(0, -1, 0)), -1, 1))
		if tilt > maxTilt {
			maxTilt = tilt
		}
	}
	assert.Less(t, maxTilt, float32(0.5), "tilt stays near the cone limit")
	assert.Greater(t, maxTilt, float32(0.1), "the impulse did tilt the body")
}

func TestJointDestroyDetaches(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	a, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	b, _ := w.NewBoxCollider(math32.Vec3(2, 0, 0), math32.Vec3(1, 1, 1))
	j, _ := w.NewBallJoint(a, b, math32.Vec3(1, 0, 0))
	require.Len(t, a.Joints(), 1)
	require.Equal(t, 1, w.JointCount())

	require.NoError(t, j.Destroy())
	assert.True(t, j.IsDestroyed())
	assert.Empty(t, a.Joints())
	assert.Empty(t, b.Joints())
	assert.Equal(t, 0, w.JointCount())

	assert.ErrorIs(t, j.Destroy(), ErrDestroyed)
	assert.ErrorIs(t, j.SetEnabled(true), ErrDestroyed)
}

func TestJointRequiresBodies(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	a, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	_, err := w.NewBallJoint(a, nil, math32.Vec3(0, 0, 0))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = w.NewBallJoint(a, a, math32.Vec3(0, 0, 0))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDisabledJointDoesNotConstrain(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	a, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	b, _ := w.NewBoxCollider(math32.Vec3(2, 0, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, b.SetSleepingAllowed(false))
	j, _ := w.NewDistanceJoint(a, b, a.Position(), b.Position())
	require.NoError(t, j.SetEnabled(false))

	require.NoError(t, b.ApplyLinearImpulse(math32.Vec3(4, 0, 0)))
	for i := 0; i < 60; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.Greater(t, j.Distance(), float32(4.0), "disabled joint lets the bodies separate")
}

func TestJointForceReadout(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	bob, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, bob.SetSleepingAllowed(false))
	j, _ := w.NewBallJoint(nil, bob, math32.Vec3(0, 0, 0))

	for i := 0; i < 120; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	// holding a unit mass against gravity
	assert.InDelta(t, 9.81, j.Force(), 1.0)
	assert.InDelta(t, 0, bob.Position().Length(), 0.02)
}

func TestJointPriority(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	a, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	b, _ := w.NewBoxCollider(math32.Vec3(2, 0, 0), math32.Vec3(1, 1, 1))
	c, _ := w.NewBoxCollider(math32.Vec3(4, 0, 0), math32.Vec3(1, 1, 1))

	j1, _ := w.NewBallJoint(a, b, math32.Vec3(1, 0, 0))
	j2, _ := w.NewBallJoint(b, c, math32.Vec3(3, 0, 0))
	require.NoError(t, j2.SetPriority(5))
	assert.Equal(t, 0, j1.Priority())
	assert.Equal(t, 5, j2.Priority())
	require.NoError(t, w.Update(stepDt))
}

func TestDistanceJointSpringStretches(t *testing.T) {
	w, _ := NewWorld(testConfig())
	defer w.Destroy()

	bob, _ := w.NewBoxCollider(math32.Vec3(0, 3, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, bob.SetSleepingAllowed(false))
	j, err := w.NewDistanceJoint(nil, bob, math32.Vec3(0, 5, 0), bob.Position())
	require.NoError(t, err)
	assert.ErrorIs(t, j.SetSpring(-1, 0), ErrInvalidArgument)
	require.NoError(t, j.SetSpring(1, 1))

	for i := 0; i < 300; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	// a 1 Hz spring under gravity stretches by g/omega^2 past the rest length
	stretch := 9.81 / (4 * math32.Pi * math32.Pi)
	assert.InDelta(t, 2.0+stretch, j.Distance(), 0.12)
	assert.Greater(t, j.Distance(), float32(2.05), "spring must give under load")
}

func TestHingePositionMotor(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	wheel, _ := w.NewCylinderCollider(math32.Vec3(0, 0, 0), 1, 0.2)
	require.NoError(t, wheel.SetSleepingAllowed(false))
	j, err := w.NewHingeJoint(nil, wheel, math32.Vec3(0, 0, 0), math32.Vec3(0, 1, 0))
	require.NoError(t, err)

	require.NoError(t, j.SetMotorMode(MotorPosition))
	assert.True(t, j.MotorEnabled())
	assert.Equal(t, MotorPosition, j.MotorMode())
	require.NoError(t, j.SetMotorTarget(1.0))
	require.NoError(t, j.SetMotorSpring(2, 1))
	require.NoError(t, j.SetMaxMotorTorque(50))

	for i := 0; i < 240; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.InDelta(t, 1.0, j.Angle(), 0.1, "position motor holds the target angle")
}

func TestSliderPositionMotor(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	block, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, block.SetSleepingAllowed(false))
	j, err := w.NewSliderJoint(nil, block, math32.Vec3(1, 0, 0))
	require.NoError(t, err)

	require.NoError(t, j.SetMotorMode(MotorPosition))
	require.NoError(t, j.SetMotorTarget(1.5))
	require.NoError(t, j.SetMotorSpring(2, 1))
	require.NoError(t, j.SetMaxMotorForce(100))

	for i := 0; i < 240; i++ {
		require.NoError(t, w.Update(stepDt))
	}
	assert.InDelta(t, 1.5, j.Position(), 0.1, "position motor holds the target offset")
	assert.InDelta(t, 1.5, block.Position().X, 0.1)
}

func TestSliderSoftLimitOvershoots(t *testing.T) {
	w, _ := NewWorld(noGravityConfig())
	defer w.Destroy()

	block, _ := w.NewBoxCollider(math32.Vec3(0, 0, 0), math32.Vec3(1, 1, 1))
	require.NoError(t, block.SetSleepingAllowed(false))
	j, err := w.NewSliderJoint(nil, block, math32.Vec3(1, 0, 0))
	require.NoError(t, err)
	require.NoError(t, j.SetLimits(-1, 1))
	require.NoError(t, j.SetSpring(1, 1))
	assert.ErrorIs(t, j.SetSpring(0, -1), ErrInvalidArgument)

	// a constant push compresses the 1 Hz limit spring by F/k past the stop
	for i := 0; i < 300; i++ {
		require.NoError(t, block.ApplyForce(math32.Vec3(40, 0, 0)))
		require.NoError(t, w.Update(stepDt))
	}
	give := 40 / (4 * math32.Pi * math32.Pi)
	assert.Greater(t, j.Position(), float32(1.05), "soft limit should give under load")
	assert.InDelta(t, 1.0+give, j.Position(), 0.15)
}
