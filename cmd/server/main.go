package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lintang-b-s/routegen/pkg/http"
	"github.com/lintang-b-s/routegen/pkg/http/usecases"
	"github.com/lintang-b-s/routegen/pkg/logger"
	"github.com/lintang-b-s/routegen/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configDir    = flag.String("config", "./data/", "directory holding config.yaml")
	useRateLimit = flag.Bool("rate_limit", false, "throttle API requests")
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

	viper.SetDefault("SCENARIO_DIR", "./data/")
	viper.SetDefault("SCENARIO_CACHE_SIZE", 16)

	store, err := usecases.NewScenarioStore(viper.GetString("SCENARIO_DIR"), viper.GetInt("SCENARIO_CACHE_SIZE"), logger)
	if err != nil {
		panic(err)
	}
	evaluationService := usecases.NewEvaluationService(logger, store, util.LoadPlanningConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := http.NewServer(logger)
	err = api.Use(ctx, *useRateLimit, evaluationService)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("routegen evaluation server failed", zap.Error(err))
		return
	}
	logger.Info("routegen evaluation server stopped")
}
