package usecases

import (
	"context"
	"errors"

	"github.com/lintang-b-s/routegen/pkg/costfunction"
	"github.com/lintang-b-s/routegen/pkg/routegen"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/lintang-b-s/routegen/pkg/util"
	"go.uber.org/zap"
)

const (
	COST_MODULE_MY      = "my"
	COST_MODULE_NIKOLIC = "nikolic"
)

var (
	ErrUnknownCostModule = errors.New("unknown cost module")
)

type EvaluationRequest struct {
	Scenario   string
	Routes     [][]int
	CostModule string
	// nil keeps the configured weight
	DemandTimeWeight *float64
	RouteTimeWeight  *float64
}

type EvaluationResult struct {
	Scenario         string
	Metrics          map[string]float64
	PerRouteRiders   []float64
	HasDuplicates    bool
	NRoutes          int
	TotalRouteTimeMn float64
}

type EvaluationService struct {
	log       *zap.Logger
	scenarios ScenarioProvider
	cfg       util.PlanningConfig
}

func NewEvaluationService(log *zap.Logger, scenarios ScenarioProvider, cfg util.PlanningConfig) *EvaluationService {
	return &EvaluationService{
		log:       log,
		scenarios: scenarios,
		cfg:       cfg,
	}
}

// Evaluate scores a complete route network on one scenario.
func (es *EvaluationService) Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	sc, err := es.scenarios.GetScenario(req.Scenario)
	if err != nil {
		return nil, err
	}
	cm, err := es.newCostModule(req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	state, err := routegen.NewBatchState([]*scenario.Scenario{sc}, cm, []int{len(req.Routes)},
		routegen.WithLogger(es.log))
	if err != nil {
		return nil, err
	}
	if err := state.ReplaceRoutes([][][]int{req.Routes}, routegen.RefreshOptions{}); err != nil {
		return nil, err
	}

	cho, err := cm.Cost(state, costfunction.CostOptions{ReturnPerRouteRiders: true})
	if errors.Is(err, costfunction.ErrRouteHasLoop) {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "scenario %s", req.Scenario)
	} else if err != nil {
		return nil, err
	}

	summary := state.Summary(0)
	return &EvaluationResult{
		Scenario:         sc.GetName(),
		Metrics:          cho.GetMetrics()[0],
		PerRouteRiders:   cho.PerRouteRiders[0],
		HasDuplicates:    costfunction.CheckForDuplicateRoutes(cho.BatchRoutes)[0],
		NRoutes:          int(summary["n_finished_routes"]),
		TotalRouteTimeMn: summary["total_route_time_mn"],
	}, nil
}

func (es *EvaluationService) newCostModule(req EvaluationRequest) (costfunction.CostModule, error) {
	switch req.CostModule {
	case COST_MODULE_MY, "":
		cm := costfunction.NewMyCostModule(es.cfg)
		if req.DemandTimeWeight != nil {
			cm.SetDemandTimeWeight(*req.DemandTimeWeight)
		}
		if req.RouteTimeWeight != nil {
			cm.SetRouteTimeWeight(*req.RouteTimeWeight)
		}
		return cm, nil
	case COST_MODULE_NIKOLIC:
		return costfunction.NewNikolicCostModule(es.cfg, es.log), nil
	default:
		return nil, util.WrapErrorf(ErrUnknownCostModule, util.ErrBadParamInput, "%q", req.CostModule)
	}
}
