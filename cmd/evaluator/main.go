package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/lintang-b-s/routegen/pkg/costfunction"
	"github.com/lintang-b-s/routegen/pkg/logger"
	"github.com/lintang-b-s/routegen/pkg/metrics"
	"github.com/lintang-b-s/routegen/pkg/routegen"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/lintang-b-s/routegen/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

var (
	scenarioFiles = flag.String("scenarios", "./data/mandl.scenario.bz2", "comma separated scenario files")
	routeFiles    = flag.String("routes", "./data/mandl.routes", "comma separated route files, one per scenario or one for all")
	costModule    = flag.String("cost", "my", "cost module: my or nikolic")
	configDir     = flag.String("config", "./data/", "directory holding config.yaml")
	reportFile    = flag.String("out", "./data/metrics.tsv", "metrics report output file")
	numWorkers    = flag.Int("workers", 0, "workers refreshing the batch, 0 uses GOMAXPROCS")
	seed          = flag.Uint64("seed", 0, "seed for sampled cost weights")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(*configDir); err != nil {
		fmt.Printf("config not loaded, using defaults: %v\n", err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := util.LoadPlanningConfig()

	scenarioNames := strings.Split(*scenarioFiles, ",")
	routeNames := strings.Split(*routeFiles, ",")
	if len(routeNames) != 1 && len(routeNames) != len(scenarioNames) {
		logger.Fatal("need one route file per scenario, or a single one",
			zap.Int("scenarios", len(scenarioNames)), zap.Int("route_files", len(routeNames)))
	}

	for i, name := range scenarioNames {
		scenarioNames[i] = strings.TrimSpace(name)
	}
	scenarios, err := scenario.ReadScenarios(context.Background(), scenarioNames)
	if err != nil {
		panic(err)
	}

	batchRoutes := make([][][]int, len(scenarios))
	nRoutes := make([]int, len(scenarios))
	for i := range scenarios {
		routeName := routeNames[0]
		if len(routeNames) > 1 {
			routeName = routeNames[i]
		}
		batchRoutes[i], err = scenario.ReadRoutes(strings.TrimSpace(routeName))
		if err != nil {
			panic(err)
		}
		nRoutes[i] = len(batchRoutes[i])
		logger.Info("scenario loaded", zap.Stringer("scenario", scenarios[i]), zap.Int("routes", nRoutes[i]))
	}

	opts := []routegen.Option{routegen.WithLogger(logger), routegen.WithNumWorkers(*numWorkers)}
	var cm costfunction.CostModule
	switch *costModule {
	case "my":
		mcm := costfunction.NewMyCostModule(cfg)
		rng := rand.New(rand.NewSource(*seed))
		opts = append(opts, routegen.WithCostWeights(mcm.SampleVariableWeights(len(scenarios), rng)))
		cm = mcm
	case "nikolic":
		cm = costfunction.NewNikolicCostModule(cfg, logger)
	default:
		logger.Fatal("unknown cost module", zap.String("cost", *costModule))
	}

	state, err := routegen.NewBatchState(scenarios, cm, nRoutes, opts...)
	if err != nil {
		panic(err)
	}
	if err := state.ReplaceRoutes(batchRoutes, routegen.RefreshOptions{}); err != nil {
		panic(err)
	}

	cho, err := cm.Cost(state, costfunction.CostOptions{})
	if err != nil {
		panic(err)
	}

	report := metrics.NewReport(cm.GetMetricNames())
	table := cho.GetMetricsTable()
	duplicates := costfunction.CheckForDuplicateRoutes(cho.BatchRoutes)
	for bi, sc := range scenarios {
		if err := report.AddRow(sc.GetName(), table.RawRowView(bi)); err != nil {
			panic(err)
		}
		summary := state.Summary(bi)
		logger.Info("scenario evaluated",
			zap.String("scenario", sc.GetName()),
			zap.Float64("cost", cho.Cost[bi]),
			zap.Float64("n_routes", summary["n_finished_routes"]),
			zap.Float64("total_route_time_mn", summary["total_route_time_mn"]),
			zap.Bool("duplicate_routes", duplicates[bi]),
		)
	}

	if err := report.WriteToFile(*reportFile); err != nil {
		panic(err)
	}

	means := report.Means()
	fields := make([]zap.Field, 0, len(means))
	for _, name := range report.GetNames() {
		fields = append(fields, zap.Float64(name, means[name]))
	}
	logger.Info("metric means", fields...)
	logger.Info("report written", zap.String("file", *reportFile))
}
