package costfunction

import (
	"math"

	"github.com/lintang-b-s/routegen/pkg"
	"github.com/lintang-b-s/routegen/pkg/logger"
	"github.com/lintang-b-s/routegen/pkg/routegen"
	"github.com/lintang-b-s/routegen/pkg/util"
	"go.uber.org/zap"
)

/*
NikolicCostModule. total passenger time, with every unserved trip charged the
mean time of a served trip plus a fixed extra time:

	cost = totalDemandTime + (meanServedTime + unsatPenaltyExtra) * unservedDemand

trips with more than 2 transfers count as served. when no trip is served at all
the mean is taken over every trip time of the scenario instead, unreachable pairs
counting 0.
*/
type NikolicCostModule struct {
	baseCostModule
	unsatPenaltyExtra float64
	log               *zap.Logger
}

func NewNikolicCostModule(cfg util.PlanningConfig, log *zap.Logger) *NikolicCostModule {
	base := newBaseCostModule(cfg)
	base.minRouteLen = 2
	base.maxRouteLen, base.hasMaxRouteLen = 0, false
	return &NikolicCostModule{
		baseCostModule:    base,
		unsatPenaltyExtra: cfg.UnsatPenaltyExtraS,
		log:               logger.OrNop(log),
	}
}

func (c *NikolicCostModule) GetWeights() map[string]float64 {
	return map[string]float64{}
}

// Cost ignores opts except ReturnPerRouteRiders.
func (c *NikolicCostModule) Cost(state *routegen.BatchState, opts CostOptions) (*CostHelperOutput, error) {
	cho, err := c.costHelper(state, opts.ReturnPerRouteRiders)
	if err != nil {
		return nil, err
	}

	cho.Cost = make([]float64, state.BatchSize())
	for bi := range cho.Cost {
		satDemand := cho.TotalDemand[bi] - cho.UnservedDemand[bi]
		var w2 float64
		if math.Abs(satDemand) <= pkg.ZERO_ATOL {
			w2 = c.meanTripTime(cho, bi, state.GetScenario(bi).NumberOfNodes())
		} else {
			w2 = cho.TotalDemandTime[bi] / satDemand
		}
		w2 += c.unsatPenaltyExtra

		cost := cho.TotalDemandTime[bi] + w2*cho.UnservedDemand[bi]
		if cost == 0 && cho.TotalDemand[bi] > 0 {
			return nil, util.WrapErrorf(ErrZeroCost, util.ErrInternalServerError,
				"scenario %d: total demand %v", bi, cho.TotalDemand[bi])
		}
		if math.IsNaN(cost) || math.IsInf(cost, 0) {
			return nil, util.WrapErrorf(ErrInvalidCost, util.ErrInternalServerError,
				"scenario %d: cost %v", bi, cost)
		}
		cho.Cost[bi] = cost
	}

	c.log.Debug("finished nikolic", zap.Int("batch_size", state.BatchSize()))
	return cho, nil
}

// meanTripTime averages the trip times between the first n nodes.
func (c *NikolicCostModule) meanTripTime(cho *CostHelperOutput, bi, n int) float64 {
	tt := cho.TripTimes[bi]
	sum := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum += tt.At(i, j)
		}
	}
	return sum / float64(n*n)
}
