package routegen

import (
	"math"

	"github.com/lintang-b-s/routegen/pkg/concurrent"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/util"
	"go.uber.org/zap"
)

var inf = math.Inf(1)

// RefreshOptions change how the valid terminals mask follows new routes.
type RefreshOptions struct {
	// OnlyRoutesWithDemandAreValid admits terminal pairs that lead, with at
	// most two transfers, to or from a node with demand.
	OnlyRoutesWithDemandAreValid bool
	// InvalidDirectlyConnected forbids terminal pairs that some route already
	// connects without transfer.
	InvalidDirectlyConnected bool
}

/*
refresh. merges routes[bi] into the route network of every scenario and recomputes
everything derived from it:

 1. the direct ride times of the new routes are merged into routeMat by element-wise
    min, so routeMat never gets worse.
 2. directlyConnected marks every pair with a finite direct ride.
 3. the valid terminals mask is relaxed / tightened as opts says, and made symmetric
    for symmetric routes.
 4. Floyd-Warshall over routeMat gives the transit next-hops and times. a shortest
    path over h route-network nodes makes max(h-2, 0) transfers, each one costing
    transferTime.
*/
func (bs *BatchState) refresh(routes [][][]int, opts RefreshOptions) {
	concurrent.ForEachIndex(bs.numWorkers, bs.BatchSize(), func(bi int) {
		bs.refreshScenario(bi, routes[bi], opts)
	})
}

func (bs *BatchState) refreshScenario(bi int, routes [][]int, opts RefreshOptions) {
	if len(routes) > 0 {
		newRouteMat, _ := graphalgo.RouteEdgeMatrix(routes, bs.driveTimes[bi], bs.meanStopTime[bi],
			bs.symmetricRoutes)
		da.MinInPlace(bs.routeMat[bi], newRouteMat)
	}
	bs.directlyConnected[bi] = da.FiniteMask(bs.routeMat[bi])

	valid := bs.validTermsMat[bi]
	if opts.OnlyRoutesWithDemandAreValid {
		isDemand := da.NewMatrix[bool](bs.maxNodes, bs.maxNodes)
		for i := 0; i < bs.maxNodes; i++ {
			for j := 0; j < bs.maxNodes; j++ {
				isDemand.Set(i, j, bs.demand[bi].At(i, j) > 0)
			}
		}
		connectedT := bs.nodesAreConnected(bi, 2).Transpose()
		// upstream of a demand destination, downstream of a demand source
		upstream := da.BoolMatMul(isDemand, connectedT)
		downstream := da.BoolMatMul(connectedT, isDemand)
		validData := valid.Data()
		for k := range validData {
			if upstream.Data()[k] || downstream.Data()[k] {
				validData[k] = true
			}
		}
	}
	if opts.InvalidDirectlyConnected {
		for k, dc := range bs.directlyConnected[bi].Data() {
			if dc {
				valid.Data()[k] = false
			}
		}
	}
	if bs.symmetricRoutes {
		da.And(valid, valid.Transpose())
	}

	nexts, transit := graphalgo.FloydWarshall(bs.routeMat[bi])
	hasPath := da.FiniteMask(transit)
	pathLens := graphalgo.PathLengths(nexts)
	nTransfers := da.NewMatrix[int](bs.maxNodes, bs.maxNodes)
	for i := 0; i < bs.maxNodes; i++ {
		for j := 0; j < bs.maxNodes; j++ {
			if !hasPath.Get(i, j) {
				continue
			}
			nt := max(pathLens.Get(i, j)-2, 0)
			nTransfers.Set(i, j, nt)
			transit.Set(i, j, transit.At(i, j)+float64(nt)*bs.transferTime[bi])
		}
	}

	bs.routeNexts[bi] = nexts
	bs.transitTimes[bi] = transit
	bs.hasPath[bi] = hasPath
	bs.nTransfers[bi] = nTransfers
}

// AddNewRoutes adds finished routes to every scenario. batchRoutes has one
// entry per scenario; routes may be padded with EMPTY_STOP. Routes with
// fewer than 2 stops are logged and skipped.
func (bs *BatchState) AddNewRoutes(batchRoutes [][][]int, opts RefreshOptions) error {
	if len(batchRoutes) != bs.BatchSize() {
		return util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput,
			"got routes for %d scenarios, batch has %d", len(batchRoutes), bs.BatchSize())
	}

	accepted := make([][][]int, len(batchRoutes))
	for bi, routes := range batchRoutes {
		n := bs.scenarios[bi].NumberOfNodes()
		accepted[bi] = make([][]int, 0, len(routes))
		for ri, route := range routes {
			stops := graphalgo.StripPadding(route)
			if len(stops) < 2 {
				bs.log.Warn("invalid route!", zap.Int("scenario", bi), zap.Int("route", ri),
					zap.Ints("stops", stops))
				continue
			}
			for _, s := range stops {
				if s < 0 || s >= n {
					return util.WrapErrorf(ErrInvalidRoute, util.ErrBadParamInput,
						"scenario %d route %d: stop %d, scenario has %d nodes", bi, ri, s, n)
				}
			}
			accepted[bi] = append(accepted[bi], append([]int(nil), stops...))
		}
	}

	newTimes := bs.GetTotalRouteTime(accepted)
	for bi := range accepted {
		bs.finishedRoutes[bi] = append(bs.finishedRoutes[bi], accepted[bi]...)
		bs.finishedRouteTime[bi] += newTimes[bi]
	}
	bs.refresh(accepted, opts)
	return nil
}

// ReplaceRoutes drops every route of the batch, then adds batchRoutes.
func (bs *BatchState) ReplaceRoutes(batchRoutes [][][]int, opts RefreshOptions) error {
	if len(batchRoutes) != bs.BatchSize() {
		return util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput,
			"got routes for %d scenarios, batch has %d", len(batchRoutes), bs.BatchSize())
	}
	bs.ClearRoutes()
	return bs.AddNewRoutes(batchRoutes, opts)
}

func (bs *BatchState) ClearRoutes() {
	for bi := range bs.scenarios {
		bs.resetDerived(bi)
	}
}

// ResetDones clears the scenarios whose planning is complete, leaving the
// others untouched.
func (bs *BatchState) ResetDones() {
	for bi, done := range bs.IsDone() {
		if done {
			bs.resetDerived(bi)
		}
	}
}
