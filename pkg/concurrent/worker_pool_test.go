package concurrent

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool(t *testing.T) {
	workers := NewWorkerPool[int, int](3, 10)
	for i := 0; i < 10; i++ {
		workers.AddJob(i)
	}
	workers.Close()
	workers.Start(func(job int) int { return job * job })
	workers.Wait()

	got := make([]int, 0, 10)
	for res := range workers.CollectResults() {
		got = append(got, res)
	}
	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 4, 9, 16, 25, 36, 49, 64, 81}, got)
}

func TestForEachIndex(t *testing.T) {
	testCases := []struct {
		name       string
		numWorkers int
		n          int
	}{
		{name: "empty", numWorkers: 4, n: 0},
		{name: "single job runs inline", numWorkers: 4, n: 1},
		{name: "more jobs than workers", numWorkers: 2, n: 17},
		{name: "default worker count", numWorkers: 0, n: 8},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]int, tt.n)
			ForEachIndex(tt.numWorkers, tt.n, func(i int) {
				out[i] = i + 1
			})
			for i, v := range out {
				assert.Equal(t, i+1, v)
			}
		})
	}
}
