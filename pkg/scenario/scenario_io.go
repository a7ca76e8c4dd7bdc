package scenario

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/routegen/pkg/util"
	"gonum.org/v1/gonum/mat"
)

/*
scenario file format (bzip2 compressed text):

	n
	n rows of street times (space separated, +Inf where there is no street)
	n rows of demand
*/

func (s *Scenario) WriteScenario(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}

	w := bufio.NewWriter(bz)
	if err := s.write(w); err != nil {
		bz.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		bz.Close()
		return err
	}
	return bz.Close()
}

func (s *Scenario) write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d\n", s.numNodes); err != nil {
		return err
	}
	for _, m := range []*mat.Dense{s.streetTimes, s.demand} {
		for i := 0; i < s.numNodes; i++ {
			for j := 0; j < s.numNodes; j++ {
				fmt.Fprint(w, strconv.FormatFloat(m.At(i, j), 'f', -1, 64))
				if j < s.numNodes-1 {
					fmt.Fprint(w, " ")
				}
			}
			if _, err := fmt.Fprint(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadScenario reads a bzip2 scenario file. The scenario is named after the
// file name without its extensions.
func ReadScenario(filename string) (*Scenario, error) {
	street, demand, err := readScenarioFile(filename)
	if err != nil {
		return nil, err
	}
	return NewScenario(scenarioName(filename), street, demand)
}

// ReadScenarios reads several scenario files, preprocessing them
// concurrently. Scenarios keep the order of filenames.
func ReadScenarios(ctx context.Context, filenames []string) ([]*Scenario, error) {
	names := make([]string, len(filenames))
	streets := make([]mat.Matrix, len(filenames))
	demands := make([]mat.Matrix, len(filenames))
	for i, filename := range filenames {
		street, demand, err := readScenarioFile(filename)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		names[i], streets[i], demands[i] = scenarioName(filename), street, demand
	}
	return NewScenarios(ctx, names, streets, demands)
}

func scenarioName(filename string) string {
	name := filepath.Base(filename)
	if idx := strings.Index(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}

func readScenarioFile(filename string) (*mat.Dense, *mat.Dense, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)
	if err != nil {
		return nil, nil, err
	}
	return readMatrices(bufio.NewReader(bz))
}

func readScenario(name string, br *bufio.Reader) (*Scenario, error) {
	street, demand, err := readMatrices(br)
	if err != nil {
		return nil, err
	}
	return NewScenario(name, street, demand)
}

func readMatrices(br *bufio.Reader) (*mat.Dense, *mat.Dense, error) {
	line, err := util.ReadLine(br)
	if err != nil {
		return nil, nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n <= 0 {
		return nil, nil, util.WrapErrorf(ErrInvalidScenario, util.ErrBadParamInput,
			"invalid node count %q", line)
	}

	street, err := readMatrix(br, n)
	if err != nil {
		return nil, nil, err
	}
	demand, err := readMatrix(br, n)
	if err != nil {
		return nil, nil, err
	}
	return street, demand, nil
}

func readMatrix(br *bufio.Reader, n int) (*mat.Dense, error) {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		line, err := util.ReadLine(br)
		if err != nil {
			return nil, err
		}
		tokens := strings.Fields(line)
		if len(tokens) != n {
			return nil, util.WrapErrorf(ErrInvalidScenario, util.ErrBadParamInput,
				"row %d has %d values, want %d", i, len(tokens), n)
		}
		for j, tok := range tokens {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, util.WrapErrorf(err, util.ErrBadParamInput,
					"row %d col %d: %q is not a number", i, j, tok)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}
