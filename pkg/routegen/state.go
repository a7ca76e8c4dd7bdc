package routegen

import (
	"errors"
	"runtime"

	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/logger"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/lintang-b-s/routegen/pkg/util"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidAction      = errors.New("invalid action")
	ErrRouteTooLong       = errors.New("route is longer than the node count")
	ErrInvalidRoute       = errors.New("route visits a stop outside its scenario")
	ErrBatchSizeMismatch  = errors.New("batch size mismatch")
	ErrIncompatibleStates = errors.New("states can't be batched together")
)

// CostConfig is the part of a cost module that planning depends on.
type CostConfig interface {
	GetSymmetricRoutes() bool
	GetMeanStopTime() float64
	GetAvgTransferWaitTime() float64
	GetMinRouteLen() int
	// GetMaxRouteLen returns false when routes have no upper length bound.
	GetMaxRouteLen() (int, bool)
	GetWeights() map[string]float64
}

/*
BatchState. route networks under construction for a batch of independent scenarios.

every per-scenario matrix is padded to maxNodes, the node count of the largest
scenario of the batch. padded nodes have no streets and no demand, so they never
become reachable and never take part in a route.

a BatchState is owned by one goroutine at a time. scenarios and the street
shortest-path sequences are immutable and shared between clones, everything else is
copied.
*/
type BatchState struct {
	scenarios       []*scenario.Scenario
	symmetricRoutes bool
	maxNodes        int

	// scenario inputs padded to maxNodes
	driveTimes []*mat.Dense
	demand     []*mat.Dense
	nexts      []*da.Matrix[int]

	finishedRoutes [][][]int
	currentRoutes  [][]int // width maxNodes, padded with EMPTY_STOP

	nRoutesToPlan []int
	minRouteLen   []int
	maxRouteLen   []int
	meanStopTime  []float64
	transferTime  []float64
	costWeights   map[string][]float64

	baseValidTermsMat []*da.Matrix[bool]
	validTermsMat     []*da.Matrix[bool]
	directlyConnected []*da.Matrix[bool]
	hasPath           []*da.Matrix[bool]
	routeMat          []*mat.Dense
	transitTimes      []*mat.Dense
	routeNexts        []*da.Matrix[int]
	nTransfers        []*da.Matrix[int]

	finishedRouteTime          []float64
	currentRouteTime           []float64
	currentRouteTimesFromStart [][]float64

	normNodeFeatures []*mat.Dense

	pathSeqs         []*graphalgo.PathSet
	pathSeqsComputed bool

	numWorkers int
	log        *zap.Logger
}

type stateOptions struct {
	validTermsMat []*da.Matrix[bool]
	costWeights   map[string][]float64
	log           *zap.Logger
	numWorkers    int
}

type Option func(*stateOptions)

// WithValidTermsMat sets the terminal pairs a new route may start and end at.
// A single mask is used for every scenario. Masks smaller than the batch's
// largest scenario are padded with false.
func WithValidTermsMat(masks ...*da.Matrix[bool]) Option {
	return func(o *stateOptions) {
		o.validTermsMat = masks
	}
}

// WithCostWeights overrides the cost module's weights. Each entry holds one
// weight per scenario, or a single weight for the whole batch.
func WithCostWeights(weights map[string][]float64) Option {
	return func(o *stateOptions) {
		o.costWeights = weights
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *stateOptions) {
		o.log = log
	}
}

// WithNumWorkers bounds the goroutines used to refresh scenarios in parallel.
func WithNumWorkers(n int) Option {
	return func(o *stateOptions) {
		o.numWorkers = n
	}
}

// NewBatchState builds the state of a batch with no routes. nRoutesToPlan
// holds one value per scenario, or a single value for all of them.
func NewBatchState(scenarios []*scenario.Scenario, costCfg CostConfig, nRoutesToPlan []int,
	opts ...Option) (*BatchState, error) {
	o := stateOptions{numWorkers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	b := len(scenarios)
	if b == 0 {
		return nil, util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput, "empty batch")
	}
	routesToPlan, err := broadcast(nRoutesToPlan, b, "n routes to plan")
	if err != nil {
		return nil, err
	}
	if o.validTermsMat != nil {
		if _, err := broadcast(o.validTermsMat, b, "valid terminals mask"); err != nil {
			return nil, err
		}
	}
	weights := make(map[string][]float64)
	if o.costWeights != nil {
		for key, w := range o.costWeights {
			if weights[key], err = broadcast(w, b, "cost weight "+key); err != nil {
				return nil, err
			}
		}
	} else {
		for key, w := range costCfg.GetWeights() {
			weights[key], _ = broadcast([]float64{w}, b, key)
		}
	}

	maxNodes := 0
	for _, sc := range scenarios {
		maxNodes = max(maxNodes, sc.NumberOfNodes())
	}

	bs := &BatchState{
		scenarios:       scenarios,
		symmetricRoutes: costCfg.GetSymmetricRoutes(),
		maxNodes:        maxNodes,
		nRoutesToPlan:   routesToPlan,
		costWeights:     weights,
		numWorkers:      o.numWorkers,
		log:             logger.OrNop(o.log),
	}
	bs.allocate(b)

	for bi, sc := range scenarios {
		n := sc.NumberOfNodes()
		bs.driveTimes[bi] = da.PadDense(sc.GetDriveTimes(), maxNodes, inf)
		bs.demand[bi] = da.PadDense(sc.GetDemand(), maxNodes, 0)
		bs.nexts[bi] = da.PadMatrix(sc.GetNexts(), maxNodes, pkg.EMPTY_STOP)
		for i := n; i < maxNodes; i++ {
			bs.nexts[bi].Set(i, i, i)
		}

		bs.minRouteLen[bi] = costCfg.GetMinRouteLen()
		bs.maxRouteLen[bi] = n
		if maxLen, ok := costCfg.GetMaxRouteLen(); ok {
			bs.maxRouteLen[bi] = maxLen
		}
		bs.meanStopTime[bi] = costCfg.GetMeanStopTime()
		bs.transferTime[bi] = costCfg.GetAvgTransferWaitTime()

		var base *da.Matrix[bool]
		switch {
		case o.validTermsMat == nil:
			base = da.PadMatrix(da.NewOffDiagonalMask(n), maxNodes, false)
		case len(o.validTermsMat) == 1:
			base = da.PadMatrix(o.validTermsMat[0], maxNodes, false)
		default:
			base = da.PadMatrix(o.validTermsMat[bi], maxNodes, false)
		}
		if bs.symmetricRoutes {
			da.And(base, base.Transpose())
		}
		bs.baseValidTermsMat[bi] = base
		bs.validTermsMat[bi] = base.Clone()
		bs.resetDerived(bi)
	}

	return bs, nil
}

func (bs *BatchState) allocate(b int) {
	bs.driveTimes = make([]*mat.Dense, b)
	bs.demand = make([]*mat.Dense, b)
	bs.nexts = make([]*da.Matrix[int], b)
	bs.finishedRoutes = make([][][]int, b)
	bs.currentRoutes = make([][]int, b)
	bs.minRouteLen = make([]int, b)
	bs.maxRouteLen = make([]int, b)
	bs.meanStopTime = make([]float64, b)
	bs.transferTime = make([]float64, b)
	bs.baseValidTermsMat = make([]*da.Matrix[bool], b)
	bs.validTermsMat = make([]*da.Matrix[bool], b)
	bs.directlyConnected = make([]*da.Matrix[bool], b)
	bs.hasPath = make([]*da.Matrix[bool], b)
	bs.routeMat = make([]*mat.Dense, b)
	bs.transitTimes = make([]*mat.Dense, b)
	bs.routeNexts = make([]*da.Matrix[int], b)
	bs.nTransfers = make([]*da.Matrix[int], b)
	bs.finishedRouteTime = make([]float64, b)
	bs.currentRouteTime = make([]float64, b)
	bs.currentRouteTimesFromStart = make([][]float64, b)
	bs.normNodeFeatures = make([]*mat.Dense, b)
}

// resetDerived puts scenario bi back to having no routes at all. The valid
// terminals mask is restored from its base value.
func (bs *BatchState) resetDerived(bi int) {
	m := bs.maxNodes
	bs.finishedRoutes[bi] = [][]int{}
	bs.currentRoutes[bi] = emptyRoute(m)
	bs.finishedRouteTime[bi] = 0
	bs.currentRouteTime[bi] = 0
	bs.currentRouteTimesFromStart[bi] = make([]float64, m)

	bs.validTermsMat[bi] = bs.baseValidTermsMat[bi].Clone()
	bs.directlyConnected[bi] = da.NewIdentityMask(m)
	bs.hasPath[bi] = da.NewIdentityMask(m)
	bs.routeMat[bi] = da.NewInfDense(m)
	bs.transitTimes[bi] = da.NewInfDense(m)
	bs.routeNexts[bi] = noRouteNexts(m)
	bs.nTransfers[bi] = da.NewMatrix[int](m, m)
}

func emptyRoute(width int) []int {
	route := make([]int, width)
	for i := range route {
		route[i] = pkg.EMPTY_STOP
	}
	return route
}

// noRouteNexts is the next-hop table of a network without routes: every node
// only reaches itself.
func noRouteNexts(m int) *da.Matrix[int] {
	nexts := da.NewFilledMatrix(m, m, pkg.EMPTY_STOP)
	for i := 0; i < m; i++ {
		nexts.Set(i, i, i)
	}
	return nexts
}

// broadcast returns vals repeated to length b if it holds a single value, or
// a copy of vals if it already has length b.
func broadcast[T any](vals []T, b int, what string) ([]T, error) {
	out := make([]T, b)
	switch len(vals) {
	case 1:
		for i := range out {
			out[i] = vals[0]
		}
	case b:
		copy(out, vals)
	default:
		return nil, util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput,
			"%s has %d values for a batch of %d scenarios", what, len(vals), b)
	}
	return out, nil
}
