package costfunction

import (
	"errors"

	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/routegen"
	"github.com/lintang-b-s/routegen/pkg/util"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrRouteHasLoop = errors.New("some routes have loops")
	ErrInvalidCost  = errors.New("invalid cost was computed")
	ErrNegativeCost = errors.New("cost is negative")
	ErrZeroCost     = errors.New("cost is zero but there is demand")
)

const (
	METRIC_COST         = "cost"
	METRIC_ATT          = "ATT"
	METRIC_RTT          = "RTT"
	METRIC_D0           = "$d_0$"
	METRIC_D1           = "$d_1$"
	METRIC_D2           = "$d_2$"
	METRIC_DUN          = "$d_{un}$"
	METRIC_DISCONNECTED = "# disconnected node pairs"
	METRIC_STOPS_OOB    = "# stops out of bounds"
)

// metricNames is the order of GetMetricsTable columns.
var metricNames = []string{
	METRIC_COST, METRIC_ATT, METRIC_RTT, METRIC_D0, METRIC_D1, METRIC_D2, METRIC_DUN,
	METRIC_DISCONNECTED, METRIC_STOPS_OOB,
}

// MetricNames returns the names of the reported metrics, in table order.
func MetricNames() []string {
	return append([]string(nil), metricNames...)
}

// CostOptions tune a single evaluation.
type CostOptions struct {
	// ConstraintWeight overrides the module's constraint violation weight.
	ConstraintWeight *float64
	// NoNorm skips normalising the time costs by the scenario diameter.
	NoNorm bool
	// ReturnPerRouteRiders fills CostHelperOutput.PerRouteRiders.
	ReturnPerRouteRiders bool
}

type CostModule interface {
	routegen.CostConfig
	Cost(state *routegen.BatchState, opts CostOptions) (*CostHelperOutput, error)
	GetMetricNames() []string
}

// baseCostModule holds the settings every cost module shares.
type baseCostModule struct {
	meanStopTime        float64
	avgTransferWaitTime float64
	symmetricRoutes     bool
	minRouteLen         int
	maxRouteLen         int
	hasMaxRouteLen      bool
}

func newBaseCostModule(cfg util.PlanningConfig) baseCostModule {
	return baseCostModule{
		meanStopTime:        cfg.MeanStopTimeS,
		avgTransferWaitTime: cfg.AvgTransferWaitTimeS,
		symmetricRoutes:     cfg.SymmetricRoutes,
		minRouteLen:         cfg.MinRouteLen,
		maxRouteLen:         cfg.MaxRouteLen,
		hasMaxRouteLen:      cfg.MaxRouteLen > 0,
	}
}

func (c *baseCostModule) GetSymmetricRoutes() bool {
	return c.symmetricRoutes
}

func (c *baseCostModule) GetMeanStopTime() float64 {
	return c.meanStopTime
}

func (c *baseCostModule) GetAvgTransferWaitTime() float64 {
	return c.avgTransferWaitTime
}

func (c *baseCostModule) GetMinRouteLen() int {
	return c.minRouteLen
}

func (c *baseCostModule) GetMaxRouteLen() (int, bool) {
	return c.maxRouteLen, c.hasMaxRouteLen
}

func (c *baseCostModule) GetMetricNames() []string {
	return MetricNames()
}

// CostHelperOutput holds the route and demand statistics of one evaluation,
// one entry per scenario. Times are in seconds.
type CostHelperOutput struct {
	TotalDemandTime []float64
	TotalRouteTime  []float64
	// demand riding with 0, 1 and 2 transfers, and with more or no path at all
	TripsAtTransfers         [][pkg.N_TRANSFER_BUCKETS]float64
	TotalDemand              []float64
	UnservedDemand           []float64
	TotalTransfers           []float64
	TripTimes                []*mat.Dense // transit times, 0 where there is no path
	NDisconnectedDemandEdges []float64
	NStopsOOB                []float64
	BatchRoutes              [][][]int
	PerRouteRiders           [][]float64 // nil unless asked for
	Cost                     []float64   // nil until a cost module fills it
}

func (c *CostHelperOutput) BatchSize() int {
	return len(c.TotalDemand)
}

// MeanDemandTime is the average transit time of a trip, in seconds.
func (c *CostHelperOutput) MeanDemandTime() []float64 {
	mean := make([]float64, c.BatchSize())
	for bi := range mean {
		mean[bi] = c.TotalDemandTime[bi] / (c.TotalDemand[bi] + pkg.EPSILON)
	}
	return mean
}

// GetMetrics returns the reported metrics of every scenario. Times are in
// minutes and trip shares in percent.
func (c *CostHelperOutput) GetMetrics() []map[string]float64 {
	out := make([]map[string]float64, c.BatchSize())
	for bi, row := range c.metricRows() {
		m := make(map[string]float64, len(metricNames))
		for k, name := range metricNames {
			m[name] = row[k]
		}
		out[bi] = m
	}
	return out
}

// GetMetricsTable has one row per scenario and one column per metric, in
// GetMetricNames order.
func (c *CostHelperOutput) GetMetricsTable() *mat.Dense {
	table := mat.NewDense(c.BatchSize(), len(metricNames), nil)
	for bi, row := range c.metricRows() {
		table.SetRow(bi, row)
	}
	return table
}

func (c *CostHelperOutput) metricRows() [][]float64 {
	meanTimes := c.MeanDemandTime()
	rows := make([][]float64, c.BatchSize())
	for bi := range rows {
		cost := 0.0
		if c.Cost != nil {
			cost = c.Cost[bi]
		}
		var pct [pkg.N_TRANSFER_BUCKETS]float64
		if c.TotalDemand[bi] > 0 {
			for k, d := range c.TripsAtTransfers[bi] {
				pct[k] = d / c.TotalDemand[bi] * 100
			}
		}
		rows[bi] = []float64{
			cost,
			util.SecondsToMinutes(meanTimes[bi]),
			util.SecondsToMinutes(c.TotalRouteTime[bi]),
			pct[0], pct[1], pct[2], pct[3],
			c.NDisconnectedDemandEdges[bi],
			c.NStopsOOB[bi],
		}
	}
	return rows
}

/*
costHelper. collects the statistics both cost modules are built on.

stops out of bounds: every started route shorter than minRouteLen counts its
missing stops, every route longer than maxRouteLen its extra stops, and every
route not started yet counts minRouteLen stops.

returns ErrRouteHasLoop if a route visits a stop twice.
*/
func (c *baseCostModule) costHelper(state *routegen.BatchState,
	returnPerRouteRiders bool) (*CostHelperOutput, error) {
	b := state.BatchSize()
	m := state.MaxNodes()
	batchRoutes := graphalgo.PadRoutes(state.Routes())

	out := &CostHelperOutput{
		TotalDemandTime:          make([]float64, b),
		TotalRouteTime:           state.TotalRouteTime(),
		TripsAtTransfers:         make([][pkg.N_TRANSFER_BUCKETS]float64, b),
		TotalDemand:              make([]float64, b),
		UnservedDemand:           make([]float64, b),
		TotalTransfers:           make([]float64, b),
		TripTimes:                make([]*mat.Dense, b),
		NDisconnectedDemandEdges: state.NDisconnectedDemandEdges(),
		NStopsOOB:                make([]float64, b),
		BatchRoutes:              batchRoutes,
	}

	left := state.NRoutesLeftToPlan()
	hasCurrent := state.HasCurrentRoute()
	for bi, routes := range batchRoutes {
		oob := 0
		for ri, route := range routes {
			stops := graphalgo.StripPadding(route)
			if !visitsEachStopOnce(stops) {
				return nil, util.WrapErrorf(ErrRouteHasLoop, util.ErrInternalServerError,
					"scenario %d route %d: %v", bi, ri, stops)
			}
			l := len(stops)
			if l == 0 {
				continue
			}
			oob += max(c.minRouteLen-l, 0)
			if c.hasMaxRouteLen {
				oob += max(l-c.maxRouteLen, 0)
			}
		}
		// the current route is already counted above
		unstarted := left[bi]
		if hasCurrent[bi] {
			unstarted = max(unstarted-1, 0)
		}
		out.NStopsOOB[bi] = float64(oob + unstarted*c.minRouteLen)

		demand := state.GetDemand(bi)
		transit := state.GetTransitTimes(bi)
		hasPath := state.GetHasPath(bi)
		nTransfers := state.GetNTransfers(bi)
		tripTimes := mat.NewDense(m, m, nil)
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				d := demand.At(i, j)
				out.TotalDemand[bi] += d
				if !hasPath.Get(i, j) {
					out.UnservedDemand[bi] += d
					out.TripsAtTransfers[bi][pkg.N_TRANSFER_BUCKETS-1] += d
					continue
				}
				nt := nTransfers.Get(i, j)
				out.TripsAtTransfers[bi][min(nt, pkg.N_TRANSFER_BUCKETS-1)] += d
				out.TotalTransfers[bi] += d * float64(nt)
				tripTimes.Set(i, j, transit.At(i, j))
				out.TotalDemandTime[bi] += d * transit.At(i, j)
			}
		}
		out.TripTimes[bi] = tripTimes
	}

	if returnPerRouteRiders {
		out.PerRouteRiders = c.perRouteRiders(state, batchRoutes)
	}
	return out, nil
}

func visitsEachStopOnce(stops []int) bool {
	seen := make(map[int]struct{}, len(stops))
	for _, s := range stops {
		if _, ok := seen[s]; ok {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}

// perRouteRiders sums, for every route, the demand of the trips whose
// shortest transit path rides that route on at least one hop.
func (c *baseCostModule) perRouteRiders(state *routegen.BatchState, batchRoutes [][][]int) [][]float64 {
	riders := make([][]float64, len(batchRoutes))
	for bi, routes := range batchRoutes {
		riders[bi] = make([]float64, len(routes))
		_, usedRoutes := graphalgo.RouteEdgeMatrix(routes, state.GetDriveTimes(bi),
			state.MeanStopTime()[bi], state.GetSymmetricRoutes())
		routeSeqs := graphalgo.AggregateEdgeFeatures(state.GetRouteNexts(bi), usedRoutes)
		demand := state.GetDemand(bi)

		m := state.MaxNodes()
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				d := demand.At(i, j)
				if d == 0 {
					continue
				}
				for _, ri := range uniqueRoutes(routeSeqs, i, j) {
					riders[bi][ri] += d
				}
			}
		}
	}
	return riders
}

func uniqueRoutes(routeSeqs *da.Matrix[[]int], i, j int) []int {
	seq := routeSeqs.Get(i, j)
	out := make([]int, 0, len(seq))
	for _, ri := range seq {
		if ri == pkg.EMPTY_STOP {
			continue
		}
		dup := false
		for _, o := range out {
			if o == ri {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, ri)
		}
	}
	return out
}
