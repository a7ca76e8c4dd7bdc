package routegen

import (
	"github.com/lintang-b-s/routegen/pkg"
	"github.com/lintang-b-s/routegen/pkg/graphalgo"
	"github.com/lintang-b-s/routegen/pkg/util"
)

// PathAction picks the street shortest path from From to To as the next
// piece of a scenario's current route.
type PathAction struct {
	From int
	To   int
}

// DoneAction finishes the current route.
var DoneAction = PathAction{From: pkg.EMPTY_STOP, To: pkg.EMPTY_STOP}

func (a PathAction) IsDone() bool {
	return a.From == pkg.EMPTY_STOP
}

/*
ShortestPathAction. applies one action per scenario:

  - scenarios that are done ignore their action.
  - DoneAction moves the current route, if it has at least 2 stops, to the finished
    routes and clears it.
  - otherwise the street shortest path from From to To starts the current route if
    there is none, is prepended to it if To is its first stop, or appended to it if
    From is its last stop. the shared stop is kept once.

every action is checked before the state changes: an action fitting none of the
cases above returns ErrInvalidAction, and one that makes a route longer than the
node count returns ErrRouteTooLong.
*/
func (bs *BatchState) ShortestPathAction(actions []PathAction) error {
	if len(actions) != bs.BatchSize() {
		return util.WrapErrorf(ErrBatchSizeMismatch, util.ErrBadParamInput,
			"got %d actions for a batch of %d scenarios", len(actions), bs.BatchSize())
	}

	isDone := bs.IsDone()
	pathSeqs := bs.ShortestPathSequences()
	updated := make([][]int, len(actions))
	for bi, action := range actions {
		if isDone[bi] || action.IsDone() {
			continue
		}
		route, err := bs.extendRoute(bi, action, pathSeqs[bi])
		if err != nil {
			return err
		}
		updated[bi] = route
	}

	for bi, action := range actions {
		switch {
		case isDone[bi]:
			bs.currentRoutes[bi] = emptyRoute(bs.maxNodes)
		case action.IsDone():
			stops := graphalgo.StripPadding(bs.currentRoutes[bi])
			if len(stops) >= 2 {
				bs.finishedRoutes[bi] = append(bs.finishedRoutes[bi], append([]int(nil), stops...))
				bs.finishedRouteTime[bi] += bs.currentRouteTime[bi]
			}
			bs.currentRoutes[bi] = emptyRoute(bs.maxNodes)
		default:
			route := emptyRoute(bs.maxNodes)
			copy(route, updated[bi])
			bs.currentRoutes[bi] = route
		}
	}

	current := make([][][]int, len(actions))
	for bi, route := range bs.currentRoutes {
		current[bi] = [][]int{route}
	}
	routeTimes := bs.GetTotalRouteTime(current)
	for bi, route := range bs.currentRoutes {
		bs.currentRouteTime[bi] = routeTimes[bi]
		legs := graphalgo.RouteLegTimes(route, bs.driveTimes[bi], bs.meanStopTime[bi])
		fromStart := make([]float64, bs.maxNodes)
		for k, leg := range legs {
			fromStart[k+1] = fromStart[k] + leg
		}
		bs.currentRouteTimesFromStart[bi] = fromStart
	}

	bs.refresh(current, RefreshOptions{})
	return nil
}

// extendRoute returns the current route of scenario bi after action, without
// changing the state.
func (bs *BatchState) extendRoute(bi int, action PathAction, paths *graphalgo.PathSet) ([]int, error) {
	n := bs.scenarios[bi].NumberOfNodes()
	if action.From < 0 || action.From >= n || action.To < 0 || action.To >= n {
		return nil, util.WrapErrorf(ErrInvalidAction, util.ErrBadParamInput,
			"scenario %d: path (%d, %d) is outside the scenario's %d nodes", bi, action.From, action.To, n)
	}
	newPart := paths.Path(action.From, action.To)
	if len(newPart) == 0 {
		return nil, util.WrapErrorf(ErrInvalidAction, util.ErrBadParamInput,
			"scenario %d: no street path from %d to %d", bi, action.From, action.To)
	}

	current := graphalgo.StripPadding(bs.currentRoutes[bi])
	var route []int
	switch {
	case len(current) == 0:
		route = append([]int(nil), newPart...)
	case action.To == current[0]:
		route = append(append([]int(nil), newPart...), current[1:]...)
	case action.From == current[len(current)-1]:
		route = append(append([]int(nil), current...), newPart[1:]...)
	default:
		return nil, util.WrapErrorf(ErrInvalidAction, util.ErrBadParamInput,
			"scenario %d: path (%d, %d) neither ends at route start %d nor starts at route end %d",
			bi, action.From, action.To, current[0], current[len(current)-1])
	}

	if len(route) > bs.maxNodes {
		return nil, util.WrapErrorf(ErrRouteTooLong, util.ErrBadParamInput,
			"scenario %d: route would have %d stops, at most %d fit", bi, len(route), bs.maxNodes)
	}
	seen := make(map[int]struct{}, len(route))
	for _, s := range route {
		if _, ok := seen[s]; ok {
			return nil, util.WrapErrorf(ErrInvalidAction, util.ErrBadParamInput,
				"scenario %d: route would visit stop %d twice", bi, s)
		}
		seen[s] = struct{}{}
	}
	return route, nil
}
