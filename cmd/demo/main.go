// Interactive viewer: boxes and spheres dropping onto a ground plane, with
// sleeping bodies drawn dimmed. Click to fling a fresh box at the pile.
package main

import (
	"math/rand"

	"cogentcore.org/core/math32"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"rigid3d/internal/physics"
)

type body struct {
	collider *physics.Collider
	size     math32.Vector3 // zero Y marks a sphere of radius X
	sphere   bool
	color    rl.Color
}

func main() {
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	world, err := physics.NewWorld(physics.DefaultConfig(), physics.WithLogger(log))
	if err != nil {
		log.Fatal("world", zap.Error(err))
	}
	defer world.Destroy()

	ground, err := world.NewBoxCollider(math32.Vec3(0, -0.5, 0), math32.Vec3(40, 1, 40))
	if err != nil {
		log.Fatal("ground", zap.Error(err))
	}
	ground.SetKinematic(true)
	ground.SetFriction(0.6)

	var bodies []body
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 60; i++ {
		pos := math32.Vec3(rng.Float32()*10-5, 4+float32(i)*0.8, rng.Float32()*10-5)
		var b body
		if i%3 == 0 {
			r := 0.3 + rng.Float32()*0.4
			c, err := world.NewSphereCollider(pos, r)
			if err != nil {
				log.Fatal("sphere", zap.Error(err))
			}
			c.SetRestitution(0.4)
			b = body{collider: c, size: math32.Vec3(r, 0, 0), sphere: true, color: rl.SkyBlue}
		} else {
			s := math32.Vec3(0.5+rng.Float32(), 0.5+rng.Float32(), 0.5+rng.Float32())
			c, err := world.NewBoxCollider(pos, s)
			if err != nil {
				log.Fatal("box", zap.Error(err))
			}
			c.SetFriction(0.5)
			b = body{collider: c, size: s, color: rl.Beige}
		}
		bodies = append(bodies, b)
	}

	rl.InitWindow(1280, 720, "rigid3d demo")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	camera := rl.Camera3D{
		Position:   rl.Vector3{X: 18, Y: 14, Z: 18},
		Target:     rl.Vector3{Y: 2},
		Up:         rl.Vector3{Y: 1},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}

	for !rl.WindowShouldClose() {
		dt := rl.GetFrameTime()
		if dt > 0 {
			if err := world.Update(dt); err != nil {
				log.Error("update", zap.Error(err))
			}
		}

		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
			pos := math32.Vec3(camera.Position.X, camera.Position.Y, camera.Position.Z)
			c, err := world.NewBoxCollider(pos, math32.Vec3(0.8, 0.8, 0.8))
			if err == nil {
				dir := math32.Vec3(-pos.X, 2-pos.Y, -pos.Z).Normal()
				c.SetContinuous(true)
				c.ApplyLinearImpulse(dir.MulScalar(25))
				bodies = append(bodies, body{collider: c, size: math32.Vec3(0.8, 0.8, 0.8), color: rl.Orange})
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(20, 20, 30, 255))
		rl.BeginMode3D(camera)

		rl.DrawPlane(rl.Vector3{}, rl.Vector2{X: 40, Y: 40}, rl.DarkGray)
		rl.DrawGrid(40, 1)

		for _, b := range bodies {
			if b.collider.IsDestroyed() {
				continue
			}
			pos := b.collider.Position()
			at := rl.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z}
			color := b.color
			if !b.collider.IsAwake() {
				color = rl.Fade(color, 0.4)
			}
			if b.sphere {
				rl.DrawSphere(at, b.size.X, color)
			} else {
				// axis-aligned draw; orientation is ignored for simplicity
				rl.DrawCubeV(at, rl.Vector3{X: b.size.X, Y: b.size.Y, Z: b.size.Z}, color)
				rl.DrawCubeWiresV(at, rl.Vector3{X: b.size.X, Y: b.size.Y, Z: b.size.Z}, rl.Black)
			}
		}

		rl.EndMode3D()
		rl.DrawFPS(10, 10)
		rl.DrawText("click: throw a box", 10, 36, 18, rl.RayWhite)
		rl.EndDrawing()
	}
}
