package graphalgo

import (
	"github.com/lintang-b-s/routegen/pkg"
	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"gonum.org/v1/gonum/mat"
)

// StripPadding returns the stops of route up to the first EMPTY_STOP.
func StripPadding(route []int) []int {
	for i, s := range route {
		if s == pkg.EMPTY_STOP {
			return route[:i]
		}
	}
	return route
}

// RouteLen counts the non-padding stops of route.
func RouteLen(route []int) int {
	n := 0
	for _, s := range route {
		if s != pkg.EMPTY_STOP {
			n++
		}
	}
	return n
}

/*
RouteLegTimes. time of each leg (stop k -> stop k+1) of a route, driving along the
street shortest path, plus the dwell time at the departing stop if that stop is an
intermediate one. legs that touch padding take 0 time.

len(result) == max(len(route)-1, 0).
*/
func RouteLegTimes(route []int, driveTimes mat.Matrix, meanStopTime float64) []float64 {
	if len(route) < 2 {
		return []float64{}
	}
	legs := make([]float64, len(route)-1)
	for k := 0; k+1 < len(route); k++ {
		from, to := route[k], route[k+1]
		if from == pkg.EMPTY_STOP || to == pkg.EMPTY_STOP {
			continue
		}
		legs[k] = driveTimes.At(from, to)
		if k > 0 {
			legs[k] += meanStopTime
		}
	}
	return legs
}

// RouteTime is the one-way running time of a route.
func RouteTime(route []int, driveTimes mat.Matrix, meanStopTime float64) float64 {
	t := 0.0
	for _, leg := range RouteLegTimes(route, driveTimes, meanStopTime) {
		t += leg
	}
	return t
}

// ReverseRouteTime is the running time of a route driven from its last stop
// back to its first.
func ReverseRouteTime(route []int, driveTimes mat.Matrix, meanStopTime float64) float64 {
	stops := StripPadding(route)
	reversed := make([]int, len(stops))
	for i, s := range stops {
		reversed[len(stops)-1-i] = s
	}
	return RouteTime(reversed, driveTimes, meanStopTime)
}

/*
RouteEdgeMatrix. travel time of the best direct ride between every two nodes,
riding exactly one of the given routes without transfer.

A ride from the a-th to the b-th stop of a route (a < b) drives every leg in
between and dwells meanStopTime at each of the b-a-1 intermediate stops. with
symmetric routes the route can also be ridden from the b-th stop back to the a-th,
using the reverse drive times.

usedRoutes[i][j] is the index of the route that gives the best ride from i to j
(the first such route on ties), or EMPTY_STOP if no route connects them.
the diagonal is 0.
*/
func RouteEdgeMatrix(routes [][]int, driveTimes mat.Matrix, meanStopTime float64,
	symmetric bool) (*mat.Dense, *da.Matrix[int]) {
	n, _ := driveTimes.Dims()
	routeMat := da.NewInfDense(n)
	usedRoutes := da.NewFilledMatrix(n, n, pkg.EMPTY_STOP)

	for ri, route := range routes {
		stops := StripPadding(route)
		for a := 0; a < len(stops); a++ {
			forward, backward := 0.0, 0.0
			for b := a + 1; b < len(stops); b++ {
				forward += driveTimes.At(stops[b-1], stops[b])
				backward += driveTimes.At(stops[b], stops[b-1])
				if b-1 > a {
					forward += meanStopTime
					backward += meanStopTime
				}

				from, to := stops[a], stops[b]
				if from == to {
					continue
				}
				if forward < routeMat.At(from, to) {
					routeMat.Set(from, to, forward)
					usedRoutes.Set(from, to, ri)
				}
				if symmetric && backward < routeMat.At(to, from) {
					routeMat.Set(to, from, backward)
					usedRoutes.Set(to, from, ri)
				}
			}
		}
	}

	return routeMat, usedRoutes
}

// PadRoutes stacks the routes of every scenario into one batch array of
// shape [batch][maxRoutes][maxLen], filling the gaps with EMPTY_STOP.
func PadRoutes(batchRoutes [][][]int) [][][]int {
	maxRoutes, maxLen := 0, 0
	for _, routes := range batchRoutes {
		maxRoutes = max(maxRoutes, len(routes))
		for _, route := range routes {
			maxLen = max(maxLen, len(StripPadding(route)))
		}
	}

	padded := make([][][]int, len(batchRoutes))
	for bi, routes := range batchRoutes {
		padded[bi] = make([][]int, maxRoutes)
		for ri := 0; ri < maxRoutes; ri++ {
			row := make([]int, maxLen)
			for k := range row {
				row[k] = pkg.EMPTY_STOP
			}
			if ri < len(routes) {
				copy(row, StripPadding(routes[ri]))
			}
			padded[bi][ri] = row
		}
	}
	return padded
}
