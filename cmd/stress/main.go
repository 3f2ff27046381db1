// Stress test comparing spatial-hash vs naive broad-phase and timing full
// world steps at various body counts.
package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"cogentcore.org/core/math32"
	"golang.org/x/sync/errgroup"

	"rigid3d/internal/broadphase"
	"rigid3d/internal/physics"
)

func main() {
	testCounts := []int{100, 500, 1000, 2000, 5000}

	fmt.Println("broad-phase: spatial hash vs naive O(n^2)")
	for _, count := range testCounts {
		testBroadPhase(count)
	}

	fmt.Println()
	fmt.Println("full step: falling boxes on a ground plane")
	for _, count := range []int{100, 250, 500, 1000} {
		testWorldStep(count)
	}

	fmt.Println()
	fmt.Println("parallel: independent worlds stepping concurrently")
	testParallelWorlds(runtime.NumCPU(), 250)
}

// testParallelWorlds steps one world per goroutine. Worlds share nothing, so
// this should scale close to linearly with cores.
func testParallelWorlds(workers, bodies int) {
	serial := timeWorldRun(bodies)

	start := time.Now()
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			timeWorldRun(bodies)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
	parallel := time.Since(start)

	fmt.Printf("%d worlds x %d bodies: serial baseline %v each, %v wall for all (%.1fx)\n",
		workers, bodies, serial.Round(time.Millisecond), parallel.Round(time.Millisecond),
		float64(serial)*float64(workers)/float64(parallel))
}

func timeWorldRun(bodies int) time.Duration {
	world, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		panic(err)
	}
	defer world.Destroy()

	ground, err := world.NewBoxCollider(math32.Vec3(0, -0.5, 0), math32.Vec3(200, 1, 200))
	if err != nil {
		panic(err)
	}
	ground.SetKinematic(true)

	rng := rand.New(rand.NewSource(99))
	side := float32(bodies) / 25
	for i := 0; i < bodies; i++ {
		pos := math32.Vec3(
			rng.Float32()*side-side/2,
			2+rng.Float32()*20,
			rng.Float32()*side-side/2,
		)
		if _, err := world.NewBoxCollider(pos, math32.Vec3(1, 1, 1)); err != nil {
			panic(err)
		}
	}

	start := time.Now()
	for i := 0; i < 60; i++ {
		if err := world.Update(1.0 / 60.0); err != nil {
			panic(err)
		}
	}
	return time.Since(start)
}

func testBroadPhase(count int) {
	rng := rand.New(rand.NewSource(42)) // consistent results

	// spawn in a cube, size scales with count to keep density reasonable
	spawnSize := float32(50.0) + float32(count)/100.0
	boxes := make([]math32.Box3, count)
	for i := range boxes {
		center := math32.Vec3(
			rng.Float32()*spawnSize-spawnSize/2,
			rng.Float32()*spawnSize-spawnSize/2,
			rng.Float32()*spawnSize-spawnSize/2,
		)
		r := 0.5 + rng.Float32()*0.5
		half := math32.Vec3(r, r, r)
		boxes[i] = math32.Box3{Min: center.Sub(half), Max: center.Add(half)}
	}

	grid := broadphase.NewGrid(broadphase.DefaultCellSize)
	for i, bb := range boxes {
		grid.Update(uint64(i+1), bb)
	}

	const iterations = 10

	gridStart := time.Now()
	var gridPairs int
	for i := 0; i < iterations; i++ {
		gridPairs = 0
		grid.Pairs(func(a, b uint64) {
			gridPairs++
		})
	}
	gridTime := time.Since(gridStart) / iterations

	naiveStart := time.Now()
	var naivePairs int
	for iter := 0; iter < iterations; iter++ {
		naivePairs = 0
		for i := 0; i < len(boxes); i++ {
			for j := i + 1; j < len(boxes); j++ {
				if boxes[i].IntersectsBox(boxes[j]) {
					naivePairs++
				}
			}
		}
	}
	naiveTime := time.Since(naiveStart) / iterations

	speedup := float64(naiveTime) / float64(gridTime)
	fmt.Printf("%5d objects: grid %8v (%4d pairs) | naive %10v (%4d pairs) | %.1fx speedup\n",
		count, gridTime.Round(time.Microsecond), gridPairs,
		naiveTime.Round(time.Microsecond), naivePairs, speedup)
}

func testWorldStep(count int) {
	world, err := physics.NewWorld(physics.DefaultConfig())
	if err != nil {
		panic(err)
	}
	defer world.Destroy()

	ground, err := world.NewBoxCollider(math32.Vec3(0, -0.5, 0), math32.Vec3(200, 1, 200))
	if err != nil {
		panic(err)
	}
	ground.SetKinematic(true)

	rng := rand.New(rand.NewSource(7))
	side := float32(count) / 25
	for i := 0; i < count; i++ {
		pos := math32.Vec3(
			rng.Float32()*side-side/2,
			2+rng.Float32()*20,
			rng.Float32()*side-side/2,
		)
		if _, err := world.NewBoxCollider(pos, math32.Vec3(1, 1, 1)); err != nil {
			panic(err)
		}
	}

	const steps = 120
	start := time.Now()
	for i := 0; i < steps; i++ {
		if err := world.Update(1.0 / 60.0); err != nil {
			panic(err)
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("%5d bodies: %8v/step (%v total for %d steps)\n",
		count, (elapsed / steps).Round(time.Microsecond), elapsed.Round(time.Millisecond), steps)
}
