package scenario

import (
	"context"
	"errors"
	"fmt"
	"math"

	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/util"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidScenario = errors.New("invalid scenario")
)

// Scenario is one city: its street network and its travel demand. It is
// immutable once built, so many planning states may share one Scenario.
type Scenario struct {
	name        string
	numNodes    int
	streetTimes *mat.Dense // direct street time, +Inf without a street edge
	driveTimes  *mat.Dense // shortest street time between every pair
	nexts       *da.Matrix[int]
	demand      *mat.Dense
	diameter    float64
}

// NewScenario validates the street and demand matrices and precomputes the
// shortest street paths between every pair of nodes.
func NewScenario(name string, streetTimes, demand mat.Matrix) (*Scenario, error) {
	if err := validate(streetTimes, demand); err != nil {
		return nil, err
	}
	st := mat.DenseCopyOf(streetTimes)
	nexts, drive := graphalgo.FloydWarshall(st)
	return build(name, st, demand, nexts, drive), nil
}

// NewScenarios builds several scenarios at once, computing their shortest
// street paths concurrently. names, streetTimes and demands are parallel.
func NewScenarios(ctx context.Context, names []string, streetTimes, demands []mat.Matrix) ([]*Scenario, error) {
	if len(streetTimes) != len(names) || len(demands) != len(names) {
		return nil, util.WrapErrorf(ErrInvalidScenario, util.ErrBadParamInput,
			"%d names, %d street matrices, %d demand matrices", len(names), len(streetTimes), len(demands))
	}
	sts := make([]*mat.Dense, len(names))
	dists := make([]mat.Matrix, len(names))
	for i := range names {
		if err := validate(streetTimes[i], demands[i]); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", names[i], err)
		}
		sts[i] = mat.DenseCopyOf(streetTimes[i])
		dists[i] = sts[i]
	}

	nexts, drives, err := graphalgo.BatchFloydWarshall(ctx, dists)
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, len(names))
	for i := range names {
		scenarios[i] = build(names[i], sts[i], demands[i], nexts[i], drives[i])
	}
	return scenarios, nil
}

func validate(streetTimes, demand mat.Matrix) error {
	n, c := streetTimes.Dims()
	if n == 0 || n != c {
		return util.WrapErrorf(ErrInvalidScenario, util.ErrBadParamInput,
			"street time matrix must be square and non-empty, got %dx%d", n, c)
	}
	dr, dc := demand.Dims()
	if dr != n || dc != n {
		return util.WrapErrorf(ErrInvalidScenario, util.ErrBadParamInput,
			"demand matrix is %dx%d, street matrix is %dx%d", dr, dc, n, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			st, dm := streetTimes.At(i, j), demand.At(i, j)
			if math.IsNaN(st) || st < 0 {
				return util.WrapErrorf(ErrInvalidScenario, util.ErrBadParamInput,
					"street time (%d,%d) = %v", i, j, st)
			}
			if math.IsNaN(dm) || math.IsInf(dm, 0) || dm < 0 {
				return util.WrapErrorf(ErrInvalidScenario, util.ErrBadParamInput,
					"demand (%d,%d) = %v", i, j, dm)
			}
		}
	}
	return nil
}

func build(name string, st *mat.Dense, demand mat.Matrix, nexts *da.Matrix[int], drive *mat.Dense) *Scenario {
	n, _ := st.Dims()
	return &Scenario{
		name:        name,
		numNodes:    n,
		streetTimes: st,
		driveTimes:  drive,
		nexts:       nexts,
		demand:      mat.DenseCopyOf(demand),
		diameter:    da.MaxFinite(drive),
	}
}

func (s *Scenario) GetName() string {
	return s.name
}

func (s *Scenario) NumberOfNodes() int {
	return s.numNodes
}

func (s *Scenario) GetStreetTimes() *mat.Dense {
	return s.streetTimes
}

// GetDriveTimes returns the shortest street travel time between every pair.
func (s *Scenario) GetDriveTimes() *mat.Dense {
	return s.driveTimes
}

// GetNexts returns the next-hop table of the shortest street paths.
func (s *Scenario) GetNexts() *da.Matrix[int] {
	return s.nexts
}

func (s *Scenario) GetDemand() *mat.Dense {
	return s.demand
}

// GetDiameter is the longest shortest drive time between two nodes.
func (s *Scenario) GetDiameter() float64 {
	return s.diameter
}

func (s *Scenario) TotalDemand() float64 {
	return da.SumDense(s.demand)
}

func (s *Scenario) String() string {
	return fmt.Sprintf("scenario %q (%d nodes, demand %.1f)", s.name, s.numNodes, s.TotalDemand())
}
