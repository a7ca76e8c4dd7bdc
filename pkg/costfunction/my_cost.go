package costfunction

import (
	"math"

	"github.com/lintang-b-s/routegen/pkg"
	"github.com/lintang-b-s/routegen/pkg/routegen"
	"github.com/lintang-b-s/routegen/pkg/util"
	"golang.org/x/exp/rand"
)

/*
MyCostModule. weighted sum of passenger time, operator time and constraint
violations:

	cost = wd * demandCost + wr * routeCost + wc * constraintCost

demandCost is the mean trip time plus twice the scenario diameter for every
unserved trip, and routeCost the total running time of the routes. both are
normalised by the diameter unless NoNorm is set. constraintCost is the share of
demand pairs left disconnected plus the share of stops out of the route length
bounds, each with a flat step once it is non-zero.

wd and wr come from the state's cost weights when it has them, so every scenario
can be planned with its own weights.
*/
type MyCostModule struct {
	baseCostModule
	demandTimeWeight          float64
	routeTimeWeight           float64
	constraintViolationWeight float64
	variableWeights           bool
	ignoreStopsOOB            bool
}

func NewMyCostModule(cfg util.PlanningConfig) *MyCostModule {
	return &MyCostModule{
		baseCostModule:            newBaseCostModule(cfg),
		demandTimeWeight:          cfg.DemandTimeWeight,
		routeTimeWeight:           cfg.RouteTimeWeight,
		constraintViolationWeight: cfg.ConstraintViolationWeight,
		variableWeights:           cfg.VariableWeights,
		ignoreStopsOOB:            cfg.IgnoreStopsOOB,
	}
}

func (c *MyCostModule) GetWeights() map[string]float64 {
	return map[string]float64{
		pkg.DEMAND_TIME_WEIGHT: c.demandTimeWeight,
		pkg.ROUTE_TIME_WEIGHT:  c.routeTimeWeight,
	}
}

func (c *MyCostModule) SetDemandTimeWeight(w float64) {
	c.demandTimeWeight = w
}

func (c *MyCostModule) SetRouteTimeWeight(w float64) {
	c.routeTimeWeight = w
}

func (c *MyCostModule) SetConstraintViolationWeight(w float64) {
	c.constraintViolationWeight = w
}

/*
SampleVariableWeights. one (demand, route) weight pair per scenario, for use with
routegen.WithCostWeights. without variable weights every scenario gets the
module's weights.

with variable weights the demand weight is uniform on [-r/2, 1+r/2] clamped to
[0, 1], with r = EXTREME_TO_BETWEEN_RATIO, so 0 and 1 come up r times as often as
all the values in between. the route weight is 1 minus the demand weight.
*/
func (c *MyCostModule) SampleVariableWeights(batchSize int, rng *rand.Rand) map[string][]float64 {
	dtm := make([]float64, batchSize)
	rtm := make([]float64, batchSize)
	for bi := 0; bi < batchSize; bi++ {
		if !c.variableWeights {
			dtm[bi], rtm[bi] = c.demandTimeWeight, c.routeTimeWeight
			continue
		}
		r := rng.Float64()*(1+pkg.EXTREME_TO_BETWEEN_RATIO) - pkg.EXTREME_TO_BETWEEN_RATIO/2
		dtm[bi] = util.Clamp(r, 0, 1)
		rtm[bi] = 1 - dtm[bi]
	}
	return map[string][]float64{
		pkg.DEMAND_TIME_WEIGHT: dtm,
		pkg.ROUTE_TIME_WEIGHT:  rtm,
	}
}

func (c *MyCostModule) Cost(state *routegen.BatchState, opts CostOptions) (*CostHelperOutput, error) {
	cho, err := c.costHelper(state, opts.ReturnPerRouteRiders)
	if err != nil {
		return nil, err
	}

	b := state.BatchSize()
	demandWeights := c.stateWeights(state, pkg.DEMAND_TIME_WEIGHT, c.demandTimeWeight)
	routeWeights := c.stateWeights(state, pkg.ROUTE_TIME_WEIGHT, c.routeTimeWeight)
	constraintWeight := c.constraintViolationWeight
	if opts.ConstraintWeight != nil {
		constraintWeight = *opts.ConstraintWeight
	}

	nRoutes := state.NRoutesToPlan()
	nDemandEdges := state.NDemandEdges()
	meanDemandTimes := cho.MeanDemandTime()
	diameters := state.Diameters()

	cho.Cost = make([]float64, b)
	for bi := 0; bi < b; bi++ {
		timeNormalizer := diameters[bi]
		if timeNormalizer == 0 {
			timeNormalizer = 1
		}

		fracUncovered := 0.0
		if nDemandEdges[bi] > 0 {
			fracUncovered = cho.NDisconnectedDemandEdges[bi] / nDemandEdges[bi]
		}
		fracStopsOOB := cho.NStopsOOB[bi] / c.stopsOOBDenominator(nRoutes[bi])

		unservedPenalty := 0.0
		if cho.TotalDemand[bi] > 0 {
			unservedPenalty = cho.UnservedDemand[bi] * timeNormalizer * 2 / cho.TotalDemand[bi]
		}
		demandCost := meanDemandTimes[bi] + unservedPenalty
		routeCost := cho.TotalRouteTime[bi]
		if !opts.NoNorm {
			demandCost /= timeNormalizer
			routeCost /= timeNormalizer*float64(nRoutes[bi]) + pkg.EPSILON
		}

		cost := demandCost*demandWeights[bi] + routeCost*routeWeights[bi]

		constraintCost := violationCost(fracUncovered)
		if !c.ignoreStopsOOB {
			constraintCost += violationCost(fracStopsOOB)
		}
		cost += constraintCost * constraintWeight

		if math.IsNaN(cost) || math.IsInf(cost, 0) {
			return nil, util.WrapErrorf(ErrInvalidCost, util.ErrInternalServerError,
				"scenario %d: cost %v", bi, cost)
		}
		if cost < 0 {
			return nil, util.WrapErrorf(ErrNegativeCost, util.ErrInternalServerError,
				"scenario %d: cost %v", bi, cost)
		}
		cho.Cost[bi] = cost
	}
	return cho, nil
}

// stateWeights returns the per-scenario weight the state carries under key,
// or the module's own weight for every scenario.
func (c *MyCostModule) stateWeights(state *routegen.BatchState, key string, fallback float64) []float64 {
	if w, ok := state.CostWeights()[key]; ok {
		return w
	}
	w := make([]float64, state.BatchSize())
	for bi := range w {
		w[bi] = fallback
	}
	return w
}

// stopsOOBDenominator is the stop count the routes to plan need at least, or
// at most when there is no lower bound.
func (c *MyCostModule) stopsOOBDenominator(nRoutes int) float64 {
	denom := nRoutes * c.minRouteLen
	if c.minRouteLen <= 0 {
		denom = nRoutes * c.maxRouteLen
	}
	if denom == 0 {
		denom = 1
	}
	return float64(denom)
}

func violationCost(frac float64) float64 {
	if frac > 0 {
		return frac + pkg.CONSTRAINT_STEP_PENALTY
	}
	return frac
}
