package routegen

import (
	"math"
	"testing"

	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type testCostConfig struct {
	symmetric    bool
	meanStopTime float64
	transferTime float64
	minLen       int
	maxLen       int
	hasMax       bool
	weights      map[string]float64
}

func newTestCostConfig() *testCostConfig {
	return &testCostConfig{
		symmetric:    true,
		transferTime: pkg.AVG_TRANSFER_WAIT_TIME_S,
		minLen:       2,
		weights: map[string]float64{
			pkg.DEMAND_TIME_WEIGHT: 0.5,
			pkg.ROUTE_TIME_WEIGHT:  0.5,
		},
	}
}

func (c *testCostConfig) GetSymmetricRoutes() bool        { return c.symmetric }
func (c *testCostConfig) GetMeanStopTime() float64        { return c.meanStopTime }
func (c *testCostConfig) GetAvgTransferWaitTime() float64 { return c.transferTime }
func (c *testCostConfig) GetMinRouteLen() int             { return c.minLen }
func (c *testCostConfig) GetMaxRouteLen() (int, bool)     { return c.maxLen, c.hasMax }
func (c *testCostConfig) GetWeights() map[string]float64  { return c.weights }

// threeNodeScenario: 0 -5- 1 -5- 2, one trip from 0 to 2.
func threeNodeScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	inf := math.Inf(1)
	street := da.NewDenseFromRows([][]float64{
		{0, 5, inf},
		{5, 0, 5},
		{inf, 5, 0},
	})
	demand := mat.NewDense(3, 3, nil)
	demand.Set(0, 2, 1)
	sc, err := scenario.NewScenario("three", street, demand)
	require.NoError(t, err)
	return sc
}

// lineScenario: 0 -5- 1 -5- 2 -3- 3, with demand between both ends.
func lineScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	inf := math.Inf(1)
	street := da.NewDenseFromRows([][]float64{
		{0, 5, inf, inf},
		{5, 0, 5, inf},
		{inf, 5, 0, 3},
		{inf, inf, 3, 0},
	})
	demand := mat.NewDense(4, 4, nil)
	demand.Set(0, 3, 2)
	demand.Set(3, 0, 2)
	sc, err := scenario.NewScenario("line", street, demand)
	require.NoError(t, err)
	return sc
}

func newLineState(t *testing.T, cfg *testCostConfig, nRoutes int, opts ...Option) *BatchState {
	t.Helper()
	bs, err := NewBatchState([]*scenario.Scenario{lineScenario(t)}, cfg, []int{nRoutes}, opts...)
	require.NoError(t, err)
	return bs
}

// requireConsistent checks the invariants that must hold after every
// mutation.
func requireConsistent(t *testing.T, bs *BatchState) {
	t.Helper()
	for bi := 0; bi < bs.BatchSize(); bi++ {
		m := bs.MaxNodes()
		tt := bs.GetTransitTimes(bi)
		for i := 0; i < m; i++ {
			require.Equal(t, 0.0, tt.At(i, i))
			for j := 0; j < m; j++ {
				require.Equal(t, tt.At(i, j) < math.Inf(1), bs.GetHasPath(bi).Get(i, j))
				if bs.GetDirectlyConnected(bi).Get(i, j) {
					require.True(t, bs.GetHasPath(bi).Get(i, j))
				}
				if !bs.GetHasPath(bi).Get(i, j) {
					require.Equal(t, 0, bs.GetNTransfers(bi).Get(i, j))
				}
				if bs.GetSymmetricRoutes() {
					require.Equal(t, bs.GetValidTermsMat(bi).Get(i, j), bs.GetValidTermsMat(bi).Get(j, i))
				}
			}
		}
	}
	for _, routes := range bs.Routes() {
		for _, route := range routes {
			seen := map[int]bool{}
			for _, s := range route {
				require.False(t, seen[s], "route %v has a loop", route)
				seen[s] = true
			}
		}
	}
}

func requireNotWorse(t *testing.T, before, after *mat.Dense) {
	t.Helper()
	r, c := before.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			require.LessOrEqual(t, after.At(i, j), before.At(i, j))
		}
	}
}

func requireSameState(t *testing.T, want, got *BatchState) {
	t.Helper()
	require.Equal(t, want.BatchSize(), got.BatchSize())
	require.Equal(t, want.Routes(), got.Routes())
	require.Equal(t, want.CurrentRoutes(), got.CurrentRoutes())
	require.Equal(t, want.TotalRouteTime(), got.TotalRouteTime())
	require.Equal(t, want.NRoutesToPlan(), got.NRoutesToPlan())
	require.Equal(t, want.CostWeights(), got.CostWeights())
	for bi := 0; bi < want.BatchSize(); bi++ {
		require.True(t, da.EqualDense(want.GetRouteMat(bi), got.GetRouteMat(bi)))
		require.True(t, da.EqualDense(want.GetTransitTimes(bi), got.GetTransitTimes(bi)))
		require.True(t, da.EqualMatrix(want.GetRouteNexts(bi), got.GetRouteNexts(bi)))
		require.True(t, da.EqualMatrix(want.GetNTransfers(bi), got.GetNTransfers(bi)))
		require.True(t, da.EqualMatrix(want.GetHasPath(bi), got.GetHasPath(bi)))
		require.True(t, da.EqualMatrix(want.GetDirectlyConnected(bi), got.GetDirectlyConnected(bi)))
		require.True(t, da.EqualMatrix(want.GetValidTermsMat(bi), got.GetValidTermsMat(bi)))
	}
}
