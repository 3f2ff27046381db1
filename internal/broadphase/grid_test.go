package broadphase

import (
	"math/rand"
	"testing"

	"cogentcore.org/core/math32"
)

func boxAt(center math32.Vector3, half float32) math32.Box3 {
	h := math32.Vec3(half, half, half)
	return math32.Box3{Min: center.Sub(h), Max: center.Add(h)}
}

func TestPairsMatchNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := NewGrid(DefaultCellSize)

	boxes := map[uint64]math32.Box3{}
	for id := uint64(1); id <= 200; id++ {
		c := math32.Vec3(
			rng.Float32()*60-30,
			rng.Float32()*60-30,
			rng.Float32()*60-30,
		)
		bb := boxAt(c, 0.5+rng.Float32()*2)
		boxes[id] = bb
		g.Update(id, bb)
	}

	type pair struct{ a, b uint64 }
	want := map[pair]bool{}
	for a, ba := range boxes {
		for b, bbx := range boxes {
			if a < b && ba.IntersectsBox(bbx) {
				want[pair{a, b}] = true
			}
		}
	}

	got := map[pair]bool{}
	g.Pairs(func(a, b uint64) {
		if a > b {
			a, b = b, a
		}
		p := pair{a, b}
		if got[p] {
			t.Errorf("pair (%d,%d) reported twice", a, b)
		}
		got[p] = true
	})

	if len(got) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(got), len(want))
	}
	for p := range want {
		if !got[p] {
			t.Errorf("missing pair (%d,%d)", p.a, p.b)
		}
	}
}

func TestUpdateMovesEntry(t *testing.T) {
	g := NewGrid(2)
	g.Update(1, boxAt(math32.Vec3(0, 0, 0), 1))
	g.Update(2, boxAt(math32.Vec3(0.5, 0, 0), 1))

	count := 0
	g.Pairs(func(a, b uint64) { count++ })
	if count != 1 {
		t.Fatalf("expected 1 pair, got %d", count)
	}

	g.Update(2, boxAt(math32.Vec3(50, 0, 0), 1))
	count = 0
	g.Pairs(func(a, b uint64) { count++ })
	if count != 0 {
		t.Errorf("moved entry still pairs: %d", count)
	}

	if bb, ok := g.Box(2); !ok || bb.Min.X < 40 {
		t.Errorf("Box(2) = %v, %v after move", bb, ok)
	}
}

func TestRemove(t *testing.T) {
	g := NewGrid(0) // zero picks the default cell size
	g.Update(7, boxAt(math32.Vec3(1, 1, 1), 1))
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}
	g.Remove(7)
	if g.Len() != 0 {
		t.Errorf("Len = %d after remove, want 0", g.Len())
	}
	if _, ok := g.Box(7); ok {
		t.Error("Box must miss after remove")
	}
	g.Remove(7) // removing twice is a no-op
}

func TestForEachInBox(t *testing.T) {
	g := NewGrid(4)
	g.Update(1, boxAt(math32.Vec3(0, 0, 0), 1))
	g.Update(2, boxAt(math32.Vec3(3, 0, 0), 1))
	g.Update(3, boxAt(math32.Vec3(100, 0, 0), 1))

	seen := map[uint64]int{}
	g.ForEachInBox(boxAt(math32.Vec3(0, 0, 0), 5), func(id uint64) bool {
		seen[id]++
		return true
	})
	if seen[1] != 1 || seen[2] != 1 {
		t.Errorf("nearby entries seen %v, want each once", seen)
	}
	if seen[3] != 0 {
		t.Error("distant entry must not be visited")
	}

	// early stop
	visits := 0
	g.ForEachInBox(boxAt(math32.Vec3(0, 0, 0), 5), func(id uint64) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Errorf("early stop visited %d entries, want 1", visits)
	}
}

func TestPairsWithLargeIDs(t *testing.T) {
	g := NewGrid(DefaultCellSize)

	// ids chosen so that 32-bit key packing would alias (1, 1<<32+5)
	// with (2, 5)
	ids := []uint64{1, 2, 5, 1<<32 + 5}
	for _, id := range ids {
		g.Update(id, boxAt(math32.Vec3(0, 0, 0), 1))
	}

	count := 0
	g.Pairs(func(a, b uint64) { count++ })
	if want := len(ids) * (len(ids) - 1) / 2; count != want {
		t.Errorf("got %d pairs, want %d", count, want)
	}
}
