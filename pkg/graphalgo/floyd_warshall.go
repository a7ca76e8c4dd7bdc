package graphalgo

import (
	"context"
	"math"
	"runtime"

	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

/*
FloydWarshall. all-pairs shortest paths over a dense travel time matrix.

+Inf means there is no edge between two nodes. the diagonal is forced to 0.
next-hop table: nexts[i][j] is the node that follows i on a shortest path from i to j,
nexts[i][i] = i, and nexts[i][j] = EMPTY_STOP when j is unreachable from i.

loop order is fixed (k -> i -> j) and only strict improvements relax an entry, so
among equally long paths the one with the fewest hops found first is kept: a direct
edge is never replaced by an equally long path through another node.
*/
func FloydWarshall(dist mat.Matrix) (*da.Matrix[int], *mat.Dense) {
	n, _ := dist.Dims()
	d := mat.NewDense(n, n, nil)
	d.Copy(dist)
	nexts := da.NewFilledMatrix(n, n, pkg.EMPTY_STOP)

	data := d.RawMatrix().Data
	next := nexts.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				data[i*n+j] = 0
				next[i*n+j] = i
			} else if !math.IsInf(data[i*n+j], 1) {
				next[i*n+j] = j
			}
		}
	}

	var (
		k, i, j      int
		baseK, baseI int
		ik, kj, cand float64
	)
	for k = 0; k < n; k++ {
		baseK = k * n
		for i = 0; i < n; i++ {
			ik = data[i*n+k]
			if math.IsInf(ik, 1) {
				continue
			}
			baseI = i * n
			for j = 0; j < n; j++ {
				kj = data[baseK+j]
				if math.IsInf(kj, 1) {
					continue
				}
				cand = ik + kj
				if cand < data[baseI+j] {
					data[baseI+j] = cand
					next[baseI+j] = next[baseI+k]
				}
			}
		}
	}

	return nexts, d
}

// BatchFloydWarshall runs FloydWarshall on every matrix of a batch, spreading
// the scenarios over GOMAXPROCS goroutines. Results keep the input order.
func BatchFloydWarshall(ctx context.Context, dists []mat.Matrix) ([]*da.Matrix[int], []*mat.Dense, error) {
	nexts := make([]*da.Matrix[int], len(dists))
	shortest := make([]*mat.Dense, len(dists))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for bi := range dists {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nexts[bi], shortest[bi] = FloydWarshall(dists[bi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return nexts, shortest, nil
}
