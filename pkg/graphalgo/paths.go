package graphalgo

import (
	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
)

// PathSet holds the node sequence of the shortest path between every pair of
// nodes. A pair's path starts at the source and ends at the destination; it
// is a single node on the diagonal and empty when there is no path.
type PathSet struct {
	n     int
	paths [][]int
}

// Path returns the stops from i to j. The slice is shared; don't modify it.
func (ps *PathSet) Path(i, j int) []int {
	return ps.paths[i*ps.n+j]
}

func (ps *PathSet) Len(i, j int) int {
	return len(ps.paths[i*ps.n+j])
}

// ReconstructAllPaths follows a FloydWarshall next-hop table for every pair.
func ReconstructAllPaths(nexts *da.Matrix[int]) *PathSet {
	n := nexts.Rows()
	ps := &PathSet{n: n, paths: make([][]int, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ps.paths[i*n+j] = reconstructPath(nexts, i, j)
		}
	}
	return ps
}

// PathLengths counts the nodes on every shortest path without storing the
// paths themselves.
func PathLengths(nexts *da.Matrix[int]) *da.Matrix[int] {
	n := nexts.Rows()
	lens := da.NewMatrix[int](n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if nexts.Get(i, j) == pkg.EMPTY_STOP {
				continue
			}
			cur, l := i, 1
			for cur != j && l <= n {
				cur = nexts.Get(cur, j)
				if cur == pkg.EMPTY_STOP {
					l = 0
					break
				}
				l++
			}
			if l > n {
				l = 0
			}
			lens.Set(i, j, l)
		}
	}
	return lens
}

func reconstructPath(nexts *da.Matrix[int], i, j int) []int {
	if nexts.Get(i, j) == pkg.EMPTY_STOP {
		return nil
	}
	n := nexts.Rows()
	path := []int{i}
	cur := i
	for cur != j {
		cur = nexts.Get(cur, j)
		if cur == pkg.EMPTY_STOP || len(path) >= n {
			// broken next-hop chain
			return nil
		}
		path = append(path, cur)
	}
	return path
}

// AggregateEdgeFeatures collects, for every (src, dst) pair, the value of
// edgeFeature on each hop of the shortest path from src to dst.
func AggregateEdgeFeatures(nexts *da.Matrix[int], edgeFeature *da.Matrix[int]) *da.Matrix[[]int] {
	n := nexts.Rows()
	out := da.NewMatrix[[]int](n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			path := reconstructPath(nexts, i, j)
			if len(path) < 2 {
				continue
			}
			feats := make([]int, 0, len(path)-1)
			for h := 0; h+1 < len(path); h++ {
				feats = append(feats, edgeFeature.Get(path[h], path[h+1]))
			}
			out.Set(i, j, feats)
		}
	}
	return out
}
