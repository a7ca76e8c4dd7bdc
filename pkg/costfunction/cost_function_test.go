package costfunction

import (
	"math"
	"testing"

	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/routegen"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/lintang-b-s/routegen/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func testPlanningConfig() util.PlanningConfig {
	return util.PlanningConfig{
		MeanStopTimeS:             0,
		AvgTransferWaitTimeS:      pkg.AVG_TRANSFER_WAIT_TIME_S,
		UnsatPenaltyExtraS:        pkg.UNSAT_PENALTY_EXTRA_S,
		MinRouteLen:               2,
		SymmetricRoutes:           true,
		DemandTimeWeight:          0.5,
		RouteTimeWeight:           0.5,
		ConstraintViolationWeight: 5,
		NRoutesToPlan:             1,
	}
}

func newScenario(t *testing.T, street [][]float64, demand map[[2]int]float64) *scenario.Scenario {
	t.Helper()
	n := len(street)
	dm := mat.NewDense(n, n, nil)
	for ij, d := range demand {
		dm.Set(ij[0], ij[1], d)
	}
	sc, err := scenario.NewScenario("test", da.NewDenseFromRows(street), dm)
	require.NoError(t, err)
	return sc
}

// 0 -5- 1 -5- 2
func threeNodeScenario(t *testing.T, demand map[[2]int]float64) *scenario.Scenario {
	inf := math.Inf(1)
	return newScenario(t, [][]float64{
		{0, 5, inf},
		{5, 0, 5},
		{inf, 5, 0},
	}, demand)
}

// 0 -5- 1 -5- 2 -3- 3, two trips each way between the ends.
func lineScenario(t *testing.T) *scenario.Scenario {
	inf := math.Inf(1)
	return newScenario(t, [][]float64{
		{0, 5, inf, inf},
		{5, 0, 5, inf},
		{inf, 5, 0, 3},
		{inf, inf, 3, 0},
	}, map[[2]int]float64{{0, 3}: 2, {3, 0}: 2})
}

func newState(t *testing.T, cm CostModule, sc *scenario.Scenario, nRoutes int,
	routes [][]int, opts ...routegen.Option) *routegen.BatchState {
	t.Helper()
	bs, err := routegen.NewBatchState([]*scenario.Scenario{sc}, cm, []int{nRoutes}, opts...)
	require.NoError(t, err)
	if routes != nil {
		require.NoError(t, bs.ReplaceRoutes([][][]int{routes}, routegen.RefreshOptions{}))
	}
	return bs
}

func TestMyCostConcreteScenario(t *testing.T) {
	cm := NewMyCostModule(testPlanningConfig())
	bs := newState(t, cm, threeNodeScenario(t, map[[2]int]float64{{0, 2}: 1}), 1, [][]int{{0, 1, 2}})

	cho, err := cm.Cost(bs, CostOptions{})
	require.NoError(t, err)

	assert.Equal(t, 10.0, bs.GetRouteMat(0).At(0, 2))
	assert.True(t, bs.GetHasPath(0).Get(0, 2))
	assert.Equal(t, []float64{0}, cho.UnservedDemand)
	assert.Equal(t, []float64{1}, cho.TotalDemand)
	assert.Equal(t, []float64{10}, cho.TotalDemandTime)
	assert.Equal(t, []float64{20}, cho.TotalRouteTime)
	assert.Equal(t, [pkg.N_TRANSFER_BUCKETS]float64{1, 0, 0, 0}, cho.TripsAtTransfers[0])
	assert.Equal(t, []float64{0}, cho.NStopsOOB)
	// demand 10/10 and route time 20/(1*10), equally weighted
	assert.InDelta(t, 1.5, cho.Cost[0], 1e-5)
}

func TestMyCost(t *testing.T) {
	zero := 0.0
	threeNode := map[[2]int]float64{{0, 2}: 1}

	testCases := []struct {
		name    string
		cfg     func(*util.PlanningConfig)
		demand  map[[2]int]float64
		routes  [][]int
		opts    CostOptions
		weights map[string][]float64
		want    float64
	}{
		{
			// demand 2*10/10, uncovered 0.5+0.1, stops oob 2/2+0.1
			name:   "no routes",
			demand: threeNode,
			want:   0.5*2 + 5*(0.6+1.1),
		},
		{
			name:   "no routes without constraint weight",
			demand: threeNode,
			opts:   CostOptions{ConstraintWeight: &zero},
			want:   1,
		},
		{
			name:   "no routes ignoring stops out of bounds",
			demand: threeNode,
			cfg:    func(c *util.PlanningConfig) { c.IgnoreStopsOOB = true },
			want:   1 + 5*0.6,
		},
		{
			name:   "not normalised",
			demand: threeNode,
			routes: [][]int{{0, 1, 2}},
			opts:   CostOptions{NoNorm: true},
			want:   0.5*10 + 0.5*20,
		},
		{
			name:    "weights from the state",
			demand:  threeNode,
			routes:  [][]int{{0, 1, 2}},
			weights: map[string][]float64{pkg.DEMAND_TIME_WEIGHT: {1}, pkg.ROUTE_TIME_WEIGHT: {0}},
			want:    1,
		},
		{
			name:   "route shorter than the minimum",
			demand: threeNode,
			routes: [][]int{{0, 1, 2}},
			cfg:    func(c *util.PlanningConfig) { c.MinRouteLen = 4 },
			// 1 missing stop out of 1*4
			want: 1.5 + 5*(0.25+0.1),
		},
		{
			name:   "route longer than the maximum",
			demand: threeNode,
			routes: [][]int{{0, 1, 2}},
			cfg:    func(c *util.PlanningConfig) { c.MaxRouteLen = 2 },
			want:   1.5 + 5*(0.5+0.1),
		},
		{
			name:   "no demand",
			routes: [][]int{{0, 1, 2}},
			want:   1,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testPlanningConfig()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			cm := NewMyCostModule(cfg)
			var opts []routegen.Option
			if tt.weights != nil {
				opts = append(opts, routegen.WithCostWeights(tt.weights))
			}
			bs := newState(t, cm, threeNodeScenario(t, tt.demand), 1, tt.routes, opts...)

			cho, err := cm.Cost(bs, tt.opts)
			require.NoError(t, err)
			require.Len(t, cho.Cost, 1)
			assert.InDelta(t, tt.want, cho.Cost[0], 1e-4)
		})
	}
}

func TestMyCostStaysFiniteWhileBuilding(t *testing.T) {
	cms := []CostModule{
		NewMyCostModule(testPlanningConfig()),
		NewNikolicCostModule(testPlanningConfig(), nil),
	}
	actions := []routegen.PathAction{{From: 0, To: 1}, {From: 1, To: 3}, routegen.DoneAction,
		{From: 2, To: 3}, routegen.DoneAction}

	for _, cm := range cms {
		bs := newState(t, cm, lineScenario(t), 2, nil)
		for _, action := range actions {
			require.NoError(t, bs.ShortestPathAction([]routegen.PathAction{action}))
			cho, err := cm.Cost(bs, CostOptions{})
			require.NoError(t, err)
			for _, c := range cho.Cost {
				assert.False(t, math.IsNaN(c) || math.IsInf(c, 0))
				assert.GreaterOrEqual(t, c, 0.0)
			}
		}
		assert.Equal(t, []bool{true}, bs.IsDone())
	}
}

func TestCostRejectsLoops(t *testing.T) {
	cfg := testPlanningConfig()
	cms := []CostModule{NewMyCostModule(cfg), NewNikolicCostModule(cfg, nil)}
	for _, cm := range cms {
		bs := newState(t, cm, threeNodeScenario(t, map[[2]int]float64{{0, 2}: 1}), 1, [][]int{{0, 1, 0}})
		_, err := cm.Cost(bs, CostOptions{})
		require.ErrorIs(t, err, ErrRouteHasLoop)
	}
}

func TestNikolicCost(t *testing.T) {
	threeNode := map[[2]int]float64{{0, 2}: 1}
	testCases := []struct {
		name    string
		demand  map[[2]int]float64
		routes  [][]int
		want    float64
		wantErr error
	}{
		{name: "all demand served", demand: threeNode, routes: [][]int{{0, 1, 2}}, want: 10},
		// nothing served and every trip time is 0
		{name: "no demand served", demand: threeNode, want: pkg.UNSAT_PENALTY_EXTRA_S},
		{
			// two trips of 5 served, so the unserved one costs 5+3000
			name:   "some demand served",
			demand: map[[2]int]float64{{0, 1}: 2, {0, 2}: 1},
			routes: [][]int{{0, 1}},
			want:   2*5 + (5 + pkg.UNSAT_PENALTY_EXTRA_S),
		},
		{
			// only 0-1 and 1-0 have a trip time, 5 each, averaged over 9 pairs
			name:   "fallback mean over all trips",
			demand: map[[2]int]float64{{0, 2}: 1},
			routes: [][]int{{0, 1}},
			want:   10.0/9 + pkg.UNSAT_PENALTY_EXTRA_S,
		},
		{name: "no demand", routes: [][]int{{0, 1, 2}}, want: 0},
		{
			name:    "only demand within a node",
			demand:  map[[2]int]float64{{1, 1}: 1},
			routes:  [][]int{{0, 1, 2}},
			wantErr: ErrZeroCost,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			cm := NewNikolicCostModule(testPlanningConfig(), nil)
			bs := newState(t, cm, threeNodeScenario(t, tt.demand), 1, tt.routes)

			cho, err := cm.Cost(bs, CostOptions{})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, cho.Cost[0], 1e-6)
		})
	}
}

func TestNikolicSettings(t *testing.T) {
	cfg := testPlanningConfig()
	cfg.MinRouteLen = 5
	cfg.MaxRouteLen = 3
	cm := NewNikolicCostModule(cfg, nil)

	assert.Equal(t, 2, cm.GetMinRouteLen())
	_, hasMax := cm.GetMaxRouteLen()
	assert.False(t, hasMax)
	assert.Empty(t, cm.GetWeights())
	assert.Equal(t, MetricNames(), cm.GetMetricNames())
}

func TestPerRouteRiders(t *testing.T) {
	cm := NewMyCostModule(testPlanningConfig())
	bs := newState(t, cm, lineScenario(t), 2, [][]int{{0, 1}, {1, 2, 3}})

	cho, err := cm.Cost(bs, CostOptions{ReturnPerRouteRiders: true})
	require.NoError(t, err)
	// both trips ride both routes
	assert.Equal(t, [][]float64{{4, 4}}, cho.PerRouteRiders)

	cho, err = cm.Cost(bs, CostOptions{})
	require.NoError(t, err)
	assert.Nil(t, cho.PerRouteRiders)
}

func TestMetrics(t *testing.T) {
	cm := NewMyCostModule(testPlanningConfig())
	bs := newState(t, cm, lineScenario(t), 2, [][]int{{0, 1}, {1, 2, 3}})

	cho, err := cm.Cost(bs, CostOptions{})
	require.NoError(t, err)
	assert.Equal(t, [pkg.N_TRANSFER_BUCKETS]float64{0, 4, 0, 0}, cho.TripsAtTransfers[0])
	assert.Equal(t, []float64{4}, cho.TotalTransfers)
	// 5 + 8 + one transfer
	assert.Equal(t, 313.0, cho.TripTimes[0].At(0, 3))
	assert.Equal(t, [][][]int{{{0, 1, -1}, {1, 2, 3}}}, cho.BatchRoutes)

	metrics := cho.GetMetrics()
	require.Len(t, metrics, 1)
	m := metrics[0]
	assert.Equal(t, cho.Cost[0], m[METRIC_COST])
	assert.InDelta(t, 313.0/60, m[METRIC_ATT], 1e-5)
	assert.InDelta(t, 26.0/60, m[METRIC_RTT], 1e-9)
	assert.Equal(t, 0.0, m[METRIC_D0])
	assert.Equal(t, 100.0, m[METRIC_D1])
	assert.Equal(t, 0.0, m[METRIC_DUN])
	assert.Equal(t, 0.0, m[METRIC_DISCONNECTED])
	assert.Equal(t, 0.0, m[METRIC_STOPS_OOB])

	table := cho.GetMetricsTable()
	r, c := table.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, len(MetricNames()), c)
	for k, name := range MetricNames() {
		assert.Equal(t, m[name], table.At(0, k))
	}
}

func TestMetricsWithoutDemand(t *testing.T) {
	cm := NewMyCostModule(testPlanningConfig())
	bs := newState(t, cm, threeNodeScenario(t, nil), 1, nil)

	cho, err := cm.Cost(bs, CostOptions{})
	require.NoError(t, err)
	for _, v := range cho.GetMetrics()[0] {
		assert.False(t, math.IsNaN(v))
	}
}

func TestSampleVariableWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	cm := NewMyCostModule(testPlanningConfig())
	fixed := cm.SampleVariableWeights(3, rng)
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, fixed[pkg.DEMAND_TIME_WEIGHT])
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, fixed[pkg.ROUTE_TIME_WEIGHT])

	cfg := testPlanningConfig()
	cfg.VariableWeights = true
	cm = NewMyCostModule(cfg)
	n := 3000
	w := cm.SampleVariableWeights(n, rng)
	zeros, ones := 0, 0
	for i := 0; i < n; i++ {
		dtm, rtm := w[pkg.DEMAND_TIME_WEIGHT][i], w[pkg.ROUTE_TIME_WEIGHT][i]
		require.GreaterOrEqual(t, dtm, 0.0)
		require.LessOrEqual(t, dtm, 1.0)
		require.InDelta(t, 1.0, dtm+rtm, 1e-12)
		switch dtm {
		case 0:
			zeros++
		case 1:
			ones++
		}
	}
	// each extreme a third of the time
	assert.InDelta(t, 1.0/3, float64(zeros)/float64(n), 0.05)
	assert.InDelta(t, 1.0/3, float64(ones)/float64(n), 0.05)
}

func TestSetWeights(t *testing.T) {
	cm := NewMyCostModule(testPlanningConfig())
	cm.SetDemandTimeWeight(0.9)
	cm.SetRouteTimeWeight(0.1)
	cm.SetConstraintViolationWeight(0)
	assert.Equal(t, map[string]float64{pkg.DEMAND_TIME_WEIGHT: 0.9, pkg.ROUTE_TIME_WEIGHT: 0.1}, cm.GetWeights())

	// states built after the change pick up the new weights
	bs := newState(t, cm, threeNodeScenario(t, map[[2]int]float64{{0, 2}: 1}), 1, [][]int{{0, 1, 2}})
	cho, err := cm.Cost(bs, CostOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.9*1+0.1*2, cho.Cost[0], 1e-5)
}

func TestCheckForDuplicateRoutes(t *testing.T) {
	batch := graphalgo.PadRoutes([][][]int{
		{{0, 1, 2}, {0, 1, 2}},
		{{0, 1, 2}, {2, 1, 0}},
		{{0, 1}, {0, 1, 2}},
	})
	assert.Equal(t, []bool{true, false, false}, CheckForDuplicateRoutes(batch))
	assert.Equal(t, []bool{false}, CheckForDuplicateRoutes([][][]int{{{0, 1}}}))
	assert.Equal(t, []bool{false}, CheckForDuplicateRoutes([][][]int{{{0, 1}, {-1, -1}, {-1, -1}}}))
}

func TestCheckForDuplicateRoutesMixedBatch(t *testing.T) {
	cm := NewMyCostModule(testPlanningConfig())
	bs, err := routegen.NewBatchState([]*scenario.Scenario{lineScenario(t), lineScenario(t)}, cm, []int{3, 1})
	require.NoError(t, err)
	require.NoError(t, bs.ReplaceRoutes([][][]int{
		{{0, 1}, {1, 2}, {2, 3}},
		{{0, 1, 2, 3}},
	}, routegen.RefreshOptions{}))

	cho, err := cm.Cost(bs, CostOptions{})
	require.NoError(t, err)
	// the single route of the second scenario is padded to three rows
	require.Len(t, cho.BatchRoutes[1], 3)
	assert.Equal(t, []int{-1, -1, -1, -1}, cho.BatchRoutes[1][2])
	assert.Equal(t, []bool{false, false}, CheckForDuplicateRoutes(cho.BatchRoutes))

	require.NoError(t, bs.ReplaceRoutes([][][]int{
		{{0, 1}, {1, 2}, {0, 1}},
		{{0, 1, 2, 3}},
	}, routegen.RefreshOptions{}))
	cho, err = cm.Cost(bs, CostOptions{})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, CheckForDuplicateRoutes(cho.BatchRoutes))
}
