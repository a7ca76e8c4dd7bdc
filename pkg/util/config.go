package util

import (
	"fmt"

	"github.com/lintang-b-s/routegen/pkg"
	"github.com/spf13/viper"
)

// ReadConfig loads config.{yaml,json,toml,...} from dir (./data/ when
// empty). Environment variables override file values.
func ReadConfig(dir string) error {
	if dir == "" {
		dir = "./data/"
	}
	viper.SetConfigName("config")
	viper.AddConfigPath(dir)
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

// PlanningConfig holds the planning and cost settings that override the
// defaults in pkg/constant.go.
type PlanningConfig struct {
	MeanStopTimeS             float64
	AvgTransferWaitTimeS      float64
	UnsatPenaltyExtraS        float64
	MinRouteLen               int
	MaxRouteLen               int // 0: bounded by the scenario's node count
	SymmetricRoutes           bool
	DemandTimeWeight          float64
	RouteTimeWeight           float64
	ConstraintViolationWeight float64
	VariableWeights           bool
	IgnoreStopsOOB            bool
	NRoutesToPlan             int
}

func LoadPlanningConfig() PlanningConfig {
	viper.SetDefault("MEAN_STOP_TIME_S", pkg.MEAN_STOP_TIME_S)
	viper.SetDefault("AVG_TRANSFER_WAIT_TIME_S", pkg.AVG_TRANSFER_WAIT_TIME_S)
	viper.SetDefault("UNSAT_PENALTY_EXTRA_S", pkg.UNSAT_PENALTY_EXTRA_S)
	viper.SetDefault("MIN_ROUTE_LEN", pkg.DEFAULT_MIN_ROUTE_LEN)
	viper.SetDefault("MAX_ROUTE_LEN", 0)
	viper.SetDefault("SYMMETRIC_ROUTES", true)
	viper.SetDefault("DEMAND_TIME_WEIGHT", pkg.DEFAULT_DEMAND_TIME_WEIGHT)
	viper.SetDefault("ROUTE_TIME_WEIGHT", pkg.DEFAULT_ROUTE_TIME_WEIGHT)
	viper.SetDefault("CONSTRAINT_VIOLATION_WEIGHT", pkg.DEFAULT_CONSTRAINT_VIOLATION_WEIGHT)
	viper.SetDefault("VARIABLE_WEIGHTS", false)
	viper.SetDefault("IGNORE_STOPS_OOB", false)
	viper.SetDefault("N_ROUTES_TO_PLAN", 10)

	return PlanningConfig{
		MeanStopTimeS:             viper.GetFloat64("MEAN_STOP_TIME_S"),
		AvgTransferWaitTimeS:      viper.GetFloat64("AVG_TRANSFER_WAIT_TIME_S"),
		UnsatPenaltyExtraS:        viper.GetFloat64("UNSAT_PENALTY_EXTRA_S"),
		MinRouteLen:               viper.GetInt("MIN_ROUTE_LEN"),
		MaxRouteLen:               viper.GetInt("MAX_ROUTE_LEN"),
		SymmetricRoutes:           viper.GetBool("SYMMETRIC_ROUTES"),
		DemandTimeWeight:          viper.GetFloat64("DEMAND_TIME_WEIGHT"),
		RouteTimeWeight:           viper.GetFloat64("ROUTE_TIME_WEIGHT"),
		ConstraintViolationWeight: viper.GetFloat64("CONSTRAINT_VIOLATION_WEIGHT"),
		VariableWeights:           viper.GetBool("VARIABLE_WEIGHTS"),
		IgnoreStopsOOB:            viper.GetBool("IGNORE_STOPS_OOB"),
		NRoutesToPlan:             viper.GetInt("N_ROUTES_TO_PLAN"),
	}
}
