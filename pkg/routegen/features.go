package routegen

import (
	"maps"
	"math"
	"slices"

	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/lintang-b-s/routegen/pkg/util"
	"gonum.org/v1/gonum/mat"
)

func (bs *BatchState) BatchSize() int {
	return len(bs.scenarios)
}

// MaxNodes is the node count every per-scenario matrix is padded to.
func (bs *BatchState) MaxNodes() int {
	return bs.maxNodes
}

func (bs *BatchState) GetScenario(bi int) *scenario.Scenario {
	return bs.scenarios[bi]
}

func (bs *BatchState) GetSymmetricRoutes() bool {
	return bs.symmetricRoutes
}

// Routes returns copies of the finished routes of every scenario, plus the
// current route if it has at least 2 stops.
func (bs *BatchState) Routes() [][][]int {
	routes := bs.FinishedRoutes()
	for bi, current := range bs.currentRoutes {
		stops := graphalgo.StripPadding(current)
		if len(stops) > 1 {
			routes[bi] = append(routes[bi], slices.Clone(stops))
		}
	}
	return routes
}

func (bs *BatchState) FinishedRoutes() [][][]int {
	routes := make([][][]int, bs.BatchSize())
	for bi, fr := range bs.finishedRoutes {
		routes[bi] = copyRoutes(fr)
	}
	return routes
}

// CurrentRoutes returns copies of the routes being built, padded with
// EMPTY_STOP to MaxNodes.
func (bs *BatchState) CurrentRoutes() [][]int {
	return copyRoutes(bs.currentRoutes)
}

func (bs *BatchState) CurrentRouteNStops() []int {
	n := make([]int, bs.BatchSize())
	for bi, route := range bs.currentRoutes {
		n[bi] = graphalgo.RouteLen(route)
	}
	return n
}

func (bs *BatchState) HasCurrentRoute() []bool {
	has := make([]bool, bs.BatchSize())
	for bi, n := range bs.CurrentRouteNStops() {
		has[bi] = n > 0
	}
	return has
}

// CurrentRouteTimesFromStart is, per scenario, the one-way time from the
// first stop of the current route to each of its stops. Past the last stop
// the value stays at the route's total.
func (bs *BatchState) CurrentRouteTimesFromStart() [][]float64 {
	out := make([][]float64, bs.BatchSize())
	for bi, t := range bs.currentRouteTimesFromStart {
		out[bi] = slices.Clone(t)
	}
	return out
}

func (bs *BatchState) CurrentRouteTime() []float64 {
	return slices.Clone(bs.currentRouteTime)
}

func (bs *BatchState) NFinishedRoutes() []int {
	n := make([]int, bs.BatchSize())
	for bi, fr := range bs.finishedRoutes {
		n[bi] = len(fr)
	}
	return n
}

func (bs *BatchState) NRoutesToPlan() []int {
	return slices.Clone(bs.nRoutesToPlan)
}

// NRoutesLeftToPlan never goes below 0, even when more routes were added
// than planned.
func (bs *BatchState) NRoutesLeftToPlan() []int {
	left := make([]int, bs.BatchSize())
	for bi, n := range bs.NFinishedRoutes() {
		left[bi] = max(bs.nRoutesToPlan[bi]-n, 0)
	}
	return left
}

func (bs *BatchState) IsDone() []bool {
	done := make([]bool, bs.BatchSize())
	for bi, left := range bs.NRoutesLeftToPlan() {
		done[bi] = left == 0
	}
	return done
}

// TotalRouteTime is the running time of the finished routes plus the current
// route, in seconds.
func (bs *BatchState) TotalRouteTime() []float64 {
	t := make([]float64, bs.BatchSize())
	for bi := range t {
		t[bi] = bs.finishedRouteTime[bi] + bs.currentRouteTime[bi]
	}
	return t
}

// GetTotalRouteTime returns the running time of batchRoutes[bi] over the
// streets of scenario bi. With symmetric routes every route is also driven
// back.
func (bs *BatchState) GetTotalRouteTime(batchRoutes [][][]int) []float64 {
	times := make([]float64, len(batchRoutes))
	for bi, routes := range batchRoutes {
		for _, route := range routes {
			times[bi] += graphalgo.RouteTime(route, bs.driveTimes[bi], bs.meanStopTime[bi])
			if bs.symmetricRoutes {
				times[bi] += graphalgo.ReverseRouteTime(route, bs.driveTimes[bi], bs.meanStopTime[bi])
			}
		}
	}
	return times
}

func (bs *BatchState) MinRouteLen() []int {
	return slices.Clone(bs.minRouteLen)
}

func (bs *BatchState) MaxRouteLen() []int {
	return slices.Clone(bs.maxRouteLen)
}

func (bs *BatchState) MeanStopTime() []float64 {
	return slices.Clone(bs.meanStopTime)
}

func (bs *BatchState) TransferTime() []float64 {
	return slices.Clone(bs.transferTime)
}

// The matrix getters below return the state's own matrices. Callers must
// not modify them.

func (bs *BatchState) GetDriveTimes(bi int) *mat.Dense {
	return bs.driveTimes[bi]
}

func (bs *BatchState) GetDemand(bi int) *mat.Dense {
	return bs.demand[bi]
}

func (bs *BatchState) GetRouteMat(bi int) *mat.Dense {
	return bs.routeMat[bi]
}

func (bs *BatchState) GetTransitTimes(bi int) *mat.Dense {
	return bs.transitTimes[bi]
}

func (bs *BatchState) GetRouteNexts(bi int) *da.Matrix[int] {
	return bs.routeNexts[bi]
}

func (bs *BatchState) GetNTransfers(bi int) *da.Matrix[int] {
	return bs.nTransfers[bi]
}

func (bs *BatchState) GetHasPath(bi int) *da.Matrix[bool] {
	return bs.hasPath[bi]
}

func (bs *BatchState) GetDirectlyConnected(bi int) *da.Matrix[bool] {
	return bs.directlyConnected[bi]
}

func (bs *BatchState) GetValidTermsMat(bi int) *da.Matrix[bool] {
	return bs.validTermsMat[bi]
}

// Diameters returns the longest street drive time of every scenario.
func (bs *BatchState) Diameters() []float64 {
	d := make([]float64, bs.BatchSize())
	for bi, sc := range bs.scenarios {
		d[bi] = sc.GetDiameter()
	}
	return d
}

// ShortestPathSequences returns the street shortest paths of every scenario,
// computing them on first use.
func (bs *BatchState) ShortestPathSequences() []*graphalgo.PathSet {
	if !bs.pathSeqsComputed {
		bs.pathSeqs = make([]*graphalgo.PathSet, bs.BatchSize())
		for bi := range bs.scenarios {
			bs.pathSeqs[bi] = graphalgo.ReconstructAllPaths(bs.nexts[bi])
		}
		bs.pathSeqsComputed = true
	}
	return bs.pathSeqs
}

// NodesAreConnected returns, per scenario, the pairs of nodes connected by
// routes with at most nTransfers transfers.
func (bs *BatchState) NodesAreConnected(nTransfers int) []*da.Matrix[bool] {
	out := make([]*da.Matrix[bool], bs.BatchSize())
	for bi := range out {
		out[bi] = bs.nodesAreConnected(bi, nTransfers)
	}
	return out
}

func (bs *BatchState) nodesAreConnected(bi, nTransfers int) *da.Matrix[bool] {
	connected := bs.directlyConnected[bi].Clone()
	for i := 0; i < nTransfers; i++ {
		connected = da.BoolMatMul(connected, bs.directlyConnected[bi])
	}
	return connected
}

// NDemandEdges counts the node pairs with demand. With symmetric routes a
// pair and its reverse count once.
func (bs *BatchState) NDemandEdges() []float64 {
	n := make([]float64, bs.BatchSize())
	for bi := range n {
		r, c := bs.demand[bi].Dims()
		count := 0
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if bs.demand[bi].At(i, j) > 0 {
					count++
				}
			}
		}
		n[bi] = float64(count)
		if bs.symmetricRoutes {
			n[bi] = math.Ceil(n[bi] / 2)
		}
	}
	return n
}

// NDisconnectedDemandEdges counts the node pairs with demand but no path
// over the routes. With symmetric routes a pair and its reverse count once.
func (bs *BatchState) NDisconnectedDemandEdges() []float64 {
	n := make([]float64, bs.BatchSize())
	for bi := range n {
		count := 0
		for i := 0; i < bs.maxNodes; i++ {
			for j := 0; j < bs.maxNodes; j++ {
				if !bs.hasPath[bi].Get(i, j) && bs.demand[bi].At(i, j) > 0 {
					count++
				}
			}
		}
		n[bi] = float64(count)
		if bs.symmetricRoutes {
			n[bi] /= 2
		}
	}
	return n
}

// NodeCoveredMask reports, per scenario, the nodes some route rides to or
// from. With directed routes a node must be left and reached by routes.
func (bs *BatchState) NodeCoveredMask() [][]bool {
	out := make([][]bool, bs.BatchSize())
	for bi, dc := range bs.directlyConnected {
		covered := make([]bool, bs.maxNodes)
		for v := 0; v < bs.maxNodes; v++ {
			reached := da.AnyOffDiagonalInCol(dc, v)
			if bs.symmetricRoutes {
				covered[v] = reached
			} else {
				covered[v] = reached && da.AnyOffDiagonalInRow(dc, v)
			}
		}
		out[bi] = covered
	}
	return out
}

// CostWeightKeys returns the cost weight names in the order used by
// CostWeightsMatrix and GlobalStateFeatures.
func (bs *BatchState) CostWeightKeys() []string {
	return slices.Sorted(maps.Keys(bs.costWeights))
}

// CostWeights returns a copy of the per-scenario cost weights.
func (bs *BatchState) CostWeights() map[string][]float64 {
	out := make(map[string][]float64, len(bs.costWeights))
	for key, w := range bs.costWeights {
		out[key] = slices.Clone(w)
	}
	return out
}

// CostWeightsMatrix has one row per scenario and one column per cost weight,
// ordered by CostWeightKeys. It is nil when there are no weights.
func (bs *BatchState) CostWeightsMatrix() *mat.Dense {
	keys := bs.CostWeightKeys()
	if len(keys) == 0 {
		return nil
	}
	m := mat.NewDense(bs.BatchSize(), len(keys), nil)
	for k, key := range keys {
		m.SetCol(k, bs.costWeights[key])
	}
	return m
}

// NRoutesFeatures is log(1+x) of the finished and the remaining route count.
func (bs *BatchState) NRoutesFeatures() *mat.Dense {
	finished, left := bs.NFinishedRoutes(), bs.NRoutesLeftToPlan()
	m := mat.NewDense(bs.BatchSize(), 2, nil)
	for bi := range finished {
		m.Set(bi, 0, math.Log1p(float64(finished[bi])))
		m.Set(bi, 1, math.Log1p(float64(left[bi])))
	}
	return m
}

// NumGlobalFeatures is the width of GlobalStateFeatures.
func (bs *BatchState) NumGlobalFeatures() int {
	return len(bs.costWeights) + 9
}

/*
GlobalStateFeatures. one row per scenario:

	cost weights (sorted by name)
	total route time / (routes to plan * diameter)
	log(1+finished routes), log(1+routes left)
	finished / (finished+left), left / (finished+left)
	log(1+disconnected demand pairs), disconnected / demand pairs
	stops on the current route
	mean transit time of served demand / diameter

ratios with a zero denominator are 0, and a zero diameter is treated as 1.
*/
func (bs *BatchState) GlobalStateFeatures() *mat.Dense {
	keys := bs.CostWeightKeys()
	feats := mat.NewDense(bs.BatchSize(), bs.NumGlobalFeatures(), nil)

	routeTimes := bs.TotalRouteTime()
	finished, left := bs.NFinishedRoutes(), bs.NRoutesLeftToPlan()
	disconnected := bs.NDisconnectedDemandEdges()
	demandEdges := bs.NDemandEdges()
	nStops := bs.CurrentRouteNStops()

	for bi, sc := range bs.scenarios {
		row := make([]float64, 0, bs.NumGlobalFeatures())
		for _, key := range keys {
			row = append(row, bs.costWeights[key][bi])
		}

		diameter := sc.GetDiameter()
		if diameter == 0 {
			diameter = 1
		}
		row = append(row, ratio(routeTimes[bi], float64(bs.nRoutesToPlan[bi])*diameter))

		so, lf := float64(finished[bi]), float64(left[bi])
		row = append(row, math.Log1p(so), math.Log1p(lf), ratio(so, so+lf), ratio(lf, so+lf))
		row = append(row, math.Log1p(disconnected[bi]), ratio(disconnected[bi], demandEdges[bi]))
		row = append(row, float64(nStops[bi]))

		served := 0.0
		demandTime := 0.0
		for i := 0; i < bs.maxNodes; i++ {
			for j := 0; j < bs.maxNodes; j++ {
				if !bs.hasPath[bi].Get(i, j) {
					continue
				}
				d := bs.demand[bi].At(i, j)
				served += d
				demandTime += d * bs.transitTimes[bi].At(i, j)
			}
		}
		meanDemandTime := demandTime / (served + pkg.EPSILON)
		row = append(row, meanDemandTime/diameter)

		feats.SetRow(bi, row)
	}
	return feats
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Summary is a short per-scenario description used in logs.
func (bs *BatchState) Summary(bi int) map[string]float64 {
	return map[string]float64{
		"n_finished_routes":   float64(len(bs.finishedRoutes[bi])),
		"n_routes_to_plan":    float64(bs.nRoutesToPlan[bi]),
		"total_route_time_mn": util.RoundFloat(util.SecondsToMinutes(bs.TotalRouteTime()[bi]), 2),
	}
}
