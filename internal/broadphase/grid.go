// Package broadphase maintains a uniform spatial hash grid over world-space
// AABBs and produces candidate collision pairs. It knows nothing about shapes
// or bodies, only ids and boxes; the physics world decides what the ids mean.
package broadphase

import (
	"encoding/binary"

	"cogentcore.org/core/math32"
	"github.com/cespare/xxhash/v2"
)

// DefaultCellSize suits scenes whose typical body is about a meter across.
const DefaultCellSize = 4.0

type entry struct {
	id    uint64
	box   math32.Box3
	cells []uint64
}

// Grid is a spatial hash over AABBs. Entries are rehashed into every cell
// their box overlaps; pair generation walks cells and deduplicates.
type Grid struct {
	cellSize float32
	cells    map[uint64][]uint64 // cell key -> entry ids
	entries  map[uint64]*entry
}

// NewGrid creates an empty grid with the given cell size; pass 0 for the
// default.
func NewGrid(cellSize float32) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[uint64][]uint64),
		entries:  make(map[uint64]*entry),
	}
}

// cellKey hashes integer cell coordinates into a map key.
func cellKey(ix, iy, iz int32) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(ix))
	binary.LittleEndian.PutUint32(buf[4:], uint32(iy))
	binary.LittleEndian.PutUint32(buf[8:], uint32(iz))
	return xxhash.Sum64(buf[:])
}

func (g *Grid) cellRange(box math32.Box3) (lo, hi [3]int32) {
	inv := 1 / g.cellSize
	lo[0] = int32(math32.Floor(box.Min.X * inv))
	lo[1] = int32(math32.Floor(box.Min.Y * inv))
	lo[2] = int32(math32.Floor(box.Min.Z * inv))
	hi[0] = int32(math32.Floor(box.Max.X * inv))
	hi[1] = int32(math32.Floor(box.Max.Y * inv))
	hi[2] = int32(math32.Floor(box.Max.Z * inv))
	return
}

// Update inserts or moves an entry.
func (g *Grid) Update(id uint64, box math32.Box3) {
	g.Remove(id)

	e := &entry{id: id, box: box}
	lo, hi := g.cellRange(box)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				k := cellKey(x, y, z)
				g.cells[k] = append(g.cells[k], id)
				e.cells = append(e.cells, k)
			}
		}
	}
	g.entries[id] = e
}

// Remove deletes an entry; unknown ids are ignored.
func (g *Grid) Remove(id uint64) {
	e, ok := g.entries[id]
	if !ok {
		return
	}
	for _, k := range e.cells {
		ids := g.cells[k]
		for i, v := range ids {
			if v == id {
				ids[i] = ids[len(ids)-1]
				ids = ids[:len(ids)-1]
				break
			}
		}
		if len(ids) == 0 {
			delete(g.cells, k)
		} else {
			g.cells[k] = ids
		}
	}
	delete(g.entries, id)
}

// Box returns the stored AABB for an entry.
func (g *Grid) Box(id uint64) (math32.Box3, bool) {
	e, ok := g.entries[id]
	if !ok {
		return math32.Box3{}, false
	}
	return e.box, true
}

// Len returns the number of entries.
func (g *Grid) Len() int { return len(g.entries) }

// ForEachInBox visits every entry whose AABB overlaps the query box. Return
// false from the visitor to stop early.
func (g *Grid) ForEachInBox(box math32.Box3, fn func(id uint64) bool) {
	seen := make(map[uint64]struct{})
	lo, hi := g.cellRange(box)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				for _, id := range g.cells[cellKey(x, y, z)] {
					if _, dup := seen[id]; dup {
						continue
					}
					seen[id] = struct{}{}
					if e := g.entries[id]; e != nil && e.box.IntersectsBox(box) {
						if !fn(id) {
							return
						}
					}
				}
			}
		}
	}
}

// Pairs visits every unordered pair of entries with overlapping AABBs exactly
// once, lower id first.
func (g *Grid) Pairs(fn func(a, b uint64)) {
	seen := make(map[[2]uint64]struct{})
	for _, ids := range g.cells {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				pk := [2]uint64{a, b}
				if _, dup := seen[pk]; dup {
					continue
				}
				seen[pk] = struct{}{}
				ea, eb := g.entries[a], g.entries[b]
				if ea != nil && eb != nil && ea.box.IntersectsBox(eb.box) {
					fn(a, b)
				}
			}
		}
	}
}
