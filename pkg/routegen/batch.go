package routegen

import (
	"maps"
	"slices"

	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/scenario"
	"github.com/lintang-b-s/routegen/pkg/util"
	"gonum.org/v1/gonum/mat"
)

// Clone returns a deep copy of bs. Scenarios and the street path sequences
// are immutable and shared with the copy.
func (bs *BatchState) Clone() *BatchState {
	idx := make([]int, bs.BatchSize())
	for i := range idx {
		idx[i] = i
	}
	c, _ := bs.IndexSelect(idx)
	return c
}

// IndexSelect returns a new state holding copies of the scenarios at idx, in
// that order. An index may appear more than once.
func (bs *BatchState) IndexSelect(idx []int) (*BatchState, error) {
	if len(idx) == 0 {
		return nil, util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput, "empty index selection")
	}
	for _, bi := range idx {
		if bi < 0 || bi >= bs.BatchSize() {
			return nil, util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput,
				"index %d is outside the batch of %d scenarios", bi, bs.BatchSize())
		}
	}

	out := &BatchState{
		scenarios:        make([]*scenario.Scenario, len(idx)),
		symmetricRoutes:  bs.symmetricRoutes,
		maxNodes:         bs.maxNodes,
		nRoutesToPlan:    make([]int, len(idx)),
		costWeights:      make(map[string][]float64, len(bs.costWeights)),
		pathSeqsComputed: bs.pathSeqsComputed,
		numWorkers:       bs.numWorkers,
		log:              bs.log,
	}
	out.allocate(len(idx))
	for key := range bs.costWeights {
		out.costWeights[key] = make([]float64, len(idx))
	}
	if bs.pathSeqsComputed {
		out.pathSeqs = make([]*graphalgo.PathSet, len(idx))
	}

	for oi, bi := range idx {
		out.copyScenarioFrom(oi, bs, bi)
	}
	return out, nil
}

// copyScenarioFrom deep-copies scenario bi of src into slot oi of bs.
func (bs *BatchState) copyScenarioFrom(oi int, src *BatchState, bi int) {
	bs.scenarios[oi] = src.scenarios[bi]
	bs.driveTimes[oi] = mat.DenseCopyOf(src.driveTimes[bi])
	bs.demand[oi] = mat.DenseCopyOf(src.demand[bi])
	bs.nexts[oi] = src.nexts[bi].Clone()

	bs.finishedRoutes[oi] = copyRoutes(src.finishedRoutes[bi])
	bs.currentRoutes[oi] = slices.Clone(src.currentRoutes[bi])

	bs.nRoutesToPlan[oi] = src.nRoutesToPlan[bi]
	bs.minRouteLen[oi] = src.minRouteLen[bi]
	bs.maxRouteLen[oi] = src.maxRouteLen[bi]
	bs.meanStopTime[oi] = src.meanStopTime[bi]
	bs.transferTime[oi] = src.transferTime[bi]
	for key, w := range src.costWeights {
		bs.costWeights[key][oi] = w[bi]
	}

	bs.baseValidTermsMat[oi] = src.baseValidTermsMat[bi].Clone()
	bs.validTermsMat[oi] = src.validTermsMat[bi].Clone()
	bs.directlyConnected[oi] = src.directlyConnected[bi].Clone()
	bs.hasPath[oi] = src.hasPath[bi].Clone()
	bs.routeMat[oi] = mat.DenseCopyOf(src.routeMat[bi])
	bs.transitTimes[oi] = mat.DenseCopyOf(src.transitTimes[bi])
	bs.routeNexts[oi] = src.routeNexts[bi].Clone()
	bs.nTransfers[oi] = src.nTransfers[bi].Clone()

	bs.finishedRouteTime[oi] = src.finishedRouteTime[bi]
	bs.currentRouteTime[oi] = src.currentRouteTime[bi]
	bs.currentRouteTimesFromStart[oi] = slices.Clone(src.currentRouteTimesFromStart[bi])
	if f := src.normNodeFeatures[bi]; f != nil {
		bs.normNodeFeatures[oi] = mat.DenseCopyOf(f)
	}
	if bs.pathSeqsComputed {
		bs.pathSeqs[oi] = src.pathSeqs[bi]
	}
}

func copyRoutes(routes [][]int) [][]int {
	out := make([][]int, len(routes))
	for i, r := range routes {
		out[i] = slices.Clone(r)
	}
	return out
}

// BatchToList splits bs into single-scenario states.
func (bs *BatchState) BatchToList() []*BatchState {
	states := make([]*BatchState, bs.BatchSize())
	for bi := range states {
		states[bi], _ = bs.IndexSelect([]int{bi})
	}
	return states
}

// BatchFromList concatenates states into one batch. The states must share
// their padded node count, route symmetry and cost weight names.
func BatchFromList(states []*BatchState) (*BatchState, error) {
	if len(states) == 0 {
		return nil, util.WrapErrorf(ErrIncompatibleStates, util.ErrBadParamInput, "no states to batch")
	}
	first := states[0]
	total := 0
	keys := slices.Sorted(maps.Keys(first.costWeights))
	pathSeqsComputed := true
	for i, s := range states {
		if s.maxNodes != first.maxNodes || s.symmetricRoutes != first.symmetricRoutes {
			return nil, util.WrapErrorf(ErrIncompatibleStates, util.ErrBadParamInput,
				"state %d: %d nodes, symmetric %v; state 0: %d nodes, symmetric %v",
				i, s.maxNodes, s.symmetricRoutes, first.maxNodes, first.symmetricRoutes)
		}
		if !slices.Equal(keys, slices.Sorted(maps.Keys(s.costWeights))) {
			return nil, util.WrapErrorf(ErrIncompatibleStates, util.ErrBadParamInput,
				"state %d has different cost weights", i)
		}
		pathSeqsComputed = pathSeqsComputed && s.pathSeqsComputed
		total += s.BatchSize()
	}

	out := &BatchState{
		scenarios:        make([]*scenario.Scenario, total),
		symmetricRoutes:  first.symmetricRoutes,
		maxNodes:         first.maxNodes,
		nRoutesToPlan:    make([]int, total),
		costWeights:      make(map[string][]float64, len(keys)),
		pathSeqsComputed: pathSeqsComputed,
		numWorkers:       first.numWorkers,
		log:              first.log,
	}
	out.allocate(total)
	for _, key := range keys {
		out.costWeights[key] = make([]float64, total)
	}
	if pathSeqsComputed {
		out.pathSeqs = make([]*graphalgo.PathSet, total)
	}

	oi := 0
	for _, s := range states {
		for bi := 0; bi < s.BatchSize(); bi++ {
			out.copyScenarioFrom(oi, s, bi)
			oi++
		}
	}
	return out, nil
}

// SetNormalizedFeatures stores per-node features computed by the caller, one
// matrix per scenario. The state only carries them along.
func (bs *BatchState) SetNormalizedFeatures(features []*mat.Dense) error {
	if len(features) != bs.BatchSize() {
		return util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput,
			"got features for %d scenarios, batch has %d", len(features), bs.BatchSize())
	}
	for bi, f := range features {
		if f == nil {
			bs.normNodeFeatures[bi] = nil
			continue
		}
		bs.normNodeFeatures[bi] = mat.DenseCopyOf(f)
	}
	return nil
}

func (bs *BatchState) NormNodeFeatures() []*mat.Dense {
	return bs.normNodeFeatures
}
