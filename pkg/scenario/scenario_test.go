package scenario

import (
	"bufio"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	da "github.com/lintang-b-s/routegen/pkg/datastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var inf = math.Inf(1)

func lineStreet() *mat.Dense {
	return da.NewDenseFromRows([][]float64{
		{0, 5, inf, inf},
		{5, 0, 5, inf},
		{inf, 5, 0, 3},
		{inf, inf, 3, 0},
	})
}

func lineDemand() *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	d.Set(0, 3, 2)
	d.Set(3, 0, 1.5)
	return d
}

func bufioReader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestNewScenario(t *testing.T) {
	sc, err := NewScenario("line", lineStreet(), lineDemand())
	require.NoError(t, err)

	assert.Equal(t, "line", sc.GetName())
	assert.Equal(t, 4, sc.NumberOfNodes())
	assert.Equal(t, 13.0, sc.GetDriveTimes().At(0, 3))
	assert.Equal(t, 8.0, sc.GetDriveTimes().At(3, 1))
	assert.Equal(t, 1, sc.GetNexts().Get(0, 3))
	assert.Equal(t, 13.0, sc.GetDiameter())
	assert.Equal(t, 3.5, sc.TotalDemand())
	assert.True(t, math.IsInf(sc.GetStreetTimes().At(0, 3), 1))
	assert.Contains(t, sc.String(), "line")
}

func TestNewScenarioDisconnected(t *testing.T) {
	street := da.NewDenseFromRows([][]float64{
		{0, 4, inf},
		{4, 0, inf},
		{inf, inf, 0},
	})
	sc, err := NewScenario("islands", street, mat.NewDense(3, 3, nil))
	require.NoError(t, err)
	assert.True(t, math.IsInf(sc.GetDriveTimes().At(0, 2), 1))
	// unreachable pairs do not count
	assert.Equal(t, 4.0, sc.GetDiameter())
}

func TestNewScenarioInvalid(t *testing.T) {
	negDemand := lineDemand()
	negDemand.Set(1, 2, -1)
	nanStreet := lineStreet()
	nanStreet.Set(0, 1, math.NaN())
	infDemand := lineDemand()
	infDemand.Set(0, 1, inf)

	testCases := []struct {
		name   string
		street mat.Matrix
		demand mat.Matrix
	}{
		{name: "not square", street: mat.NewDense(2, 3, nil), demand: mat.NewDense(2, 3, nil)},
		{name: "sizes differ", street: lineStreet(), demand: mat.NewDense(3, 3, nil)},
		{name: "negative demand", street: lineStreet(), demand: negDemand},
		{name: "infinite demand", street: lineStreet(), demand: infDemand},
		{name: "nan street time", street: nanStreet, demand: lineDemand()},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScenario("bad", tt.street, tt.demand)
			require.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestScenarioFileRoundTrip(t *testing.T) {
	sc, err := NewScenario("line", lineStreet(), lineDemand())
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "mandl.scenario.bz2")
	require.NoError(t, sc.WriteScenario(filename))

	got, err := ReadScenario(filename)
	require.NoError(t, err)
	assert.Equal(t, "mandl", got.GetName())
	assert.True(t, da.EqualDense(sc.GetStreetTimes(), got.GetStreetTimes()))
	assert.True(t, da.EqualDense(sc.GetDriveTimes(), got.GetDriveTimes()))
	assert.True(t, da.EqualDense(sc.GetDemand(), got.GetDemand()))
	assert.True(t, da.EqualMatrix(sc.GetNexts(), got.GetNexts()))
}

func TestReadScenarios(t *testing.T) {
	dir := t.TempDir()
	line, err := NewScenario("line", lineStreet(), lineDemand())
	require.NoError(t, err)
	pair, err := NewScenario("pair", da.NewDenseFromRows([][]float64{{0, 7}, {inf, 0}}), mat.NewDense(2, 2, nil))
	require.NoError(t, err)

	files := []string{filepath.Join(dir, "pair.scenario.bz2"), filepath.Join(dir, "line.scenario.bz2")}
	require.NoError(t, pair.WriteScenario(files[0]))
	require.NoError(t, line.WriteScenario(files[1]))

	got, err := ReadScenarios(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, want := range []*Scenario{pair, line} {
		assert.Equal(t, want.GetName(), got[i].GetName())
		assert.Equal(t, want.GetDiameter(), got[i].GetDiameter())
		assert.True(t, da.EqualDense(want.GetDriveTimes(), got[i].GetDriveTimes()))
		assert.True(t, da.EqualMatrix(want.GetNexts(), got[i].GetNexts()))
	}

	_, err = ReadScenarios(context.Background(), []string{files[0], filepath.Join(dir, "missing.scenario.bz2")})
	require.ErrorIs(t, err, os.ErrNotExist)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ReadScenarios(cancelled, files)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewScenariosInvalid(t *testing.T) {
	_, err := NewScenarios(context.Background(), []string{"a", "b"},
		[]mat.Matrix{lineStreet()}, []mat.Matrix{lineDemand()})
	require.ErrorIs(t, err, ErrInvalidScenario)

	_, err = NewScenarios(context.Background(), []string{"line"},
		[]mat.Matrix{lineStreet()}, []mat.Matrix{mat.NewDense(2, 2, nil)})
	require.ErrorIs(t, err, ErrInvalidScenario)
}

func TestReadScenarioInvalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "bad node count", content: "zero\n"},
		{name: "short row", content: "2\n0 1\n1\n0 0\n0 0\n"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readScenario("bad", bufioReader(tt.content))
			require.ErrorIs(t, err, ErrInvalidScenario)
		})
	}

	_, err := readScenario("bad", bufioReader("2\n0 x\n1 0\n0 0\n0 0\n"))
	require.Error(t, err)
}

func TestParseRoutes(t *testing.T) {
	routes, err := ParseRoutes(strings.NewReader("# mandl\n0 1 2\n\n3 2  1\n4 5"))
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 2, 1}, {4, 5}}, routes)

	_, err = ParseRoutes(strings.NewReader("0 one 2\n"))
	require.Error(t, err)
}

func TestRoutesFileRoundTrip(t *testing.T) {
	routes := [][]int{{0, 1, 2}, {7, 3}}
	filename := filepath.Join(t.TempDir(), "routes.txt")
	require.NoError(t, WriteRoutes(filename, routes))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "0 1 2\n7 3\n", string(content))

	got, err := ReadRoutes(filename)
	require.NoError(t, err)
	assert.Equal(t, routes, got)
}
