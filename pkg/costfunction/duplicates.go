package costfunction

import (
	"slices"

	"github.com/lintang-b-s/routegen/pkg/graphalgo"
)

// CheckForDuplicateRoutes reports, per scenario, whether two of its routes
// visit the same stops in the same order. Rows that are all padding are not
// routes and never match. A route and its reverse are not duplicates.
func CheckForDuplicateRoutes(batchRoutes [][][]int) []bool {
	dup := make([]bool, len(batchRoutes))
	for bi, routes := range batchRoutes {
	outer:
		for a := 0; a < len(routes); a++ {
			if graphalgo.RouteLen(routes[a]) == 0 {
				continue
			}
			for b := a + 1; b < len(routes); b++ {
				if slices.Equal(routes[a], routes[b]) {
					dup[bi] = true
					break outer
				}
			}
		}
	}
	return dup
}
