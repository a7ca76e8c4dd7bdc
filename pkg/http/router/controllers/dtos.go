package controllers

import (
	"github.com/lintang-b-s/routegen/pkg/http/usecases"
)

type evaluateRequest struct {
	Scenario         string   `json:"scenario" validate:"required,max=128"`
	Routes           [][]int  `json:"routes" validate:"required,min=1,dive,min=2,dive,min=0"`
	CostModule       string   `json:"cost_module" validate:"omitempty,oneof=my nikolic"`
	DemandTimeWeight *float64 `json:"demand_time_weight" validate:"omitempty,min=0,max=1"`
	RouteTimeWeight  *float64 `json:"route_time_weight" validate:"omitempty,min=0,max=1"`
}

func (r evaluateRequest) toUsecase() usecases.EvaluationRequest {
	return usecases.EvaluationRequest{
		Scenario:         r.Scenario,
		Routes:           r.Routes,
		CostModule:       r.CostModule,
		DemandTimeWeight: r.DemandTimeWeight,
		RouteTimeWeight:  r.RouteTimeWeight,
	}
}

type evaluateResponse struct {
	Scenario         string             `json:"scenario"`
	Metrics          map[string]float64 `json:"metrics"`
	PerRouteRiders   []float64          `json:"per_route_riders"`
	HasDuplicates    bool               `json:"has_duplicate_routes"`
	NRoutes          int                `json:"n_routes"`
	TotalRouteTimeMn float64            `json:"total_route_time_mn"`
}

func NewEvaluateResponse(res *usecases.EvaluationResult) evaluateResponse {
	return evaluateResponse{
		Scenario:         res.Scenario,
		Metrics:          res.Metrics,
		PerRouteRiders:   res.PerRouteRiders,
		HasDuplicates:    res.HasDuplicates,
		NRoutes:          res.NRoutes,
		TotalRouteTimeMn: res.TotalRouteTimeMn,
	}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
