package service

import (
	"math"
	"sort"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
)

type cellKey struct{ x, y int }

// spatialGrid buckets entity indices into square cells so neighbor queries
// only touch the 3x3 block around a point. Results come back in index
// order, which keeps pair processing identical to a plain nested loop.
type spatialGrid struct {
	cell  float64
	cells map[cellKey][]int
}

func newSpatialGrid(cell float64, entities []*domain.Entity) *spatialGrid {
	g := &spatialGrid{cell: cell, cells: make(map[cellKey][]int, len(entities))}
	for i, e := range entities {
		k := g.key(e.Position)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *spatialGrid) key(p domain.Vec2) cellKey {
	return cellKey{int(math.Floor(p.X / g.cell)), int(math.Floor(p.Y / g.cell))}
}

// around returns every index in the 3x3 block around p, ascending.
func (g *spatialGrid) around(p domain.Vec2) []int {
	k := g.key(p)
	var out []int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			out = append(out, g.cells[cellKey{k.x + dx, k.y + dy}]...)
		}
	}
	sort.Ints(out)
	return out
}

// neighbors returns the indices after self in the 3x3 block around p, so each
// unordered pair is visited once.
func (g *spatialGrid) neighbors(p domain.Vec2, self int) []int {
	all := g.around(p)
	i := sort.SearchInts(all, self+1)
	return all[i:]
}
