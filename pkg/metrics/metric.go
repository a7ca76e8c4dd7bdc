package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lintang-b-s/routegen/pkg/util"
)

var (
	ErrInvalidReport = errors.New("invalid metrics report")
)

const scenarioColumn = "scenario"

type Row struct {
	Scenario string
	Values   []float64
}

// Report is a table of metric values, one row per evaluated scenario.
type Report struct {
	names []string
	rows  []Row
}

func NewReport(names []string) *Report {
	return &Report{
		names: append([]string(nil), names...),
		rows:  make([]Row, 0),
	}
}

func (r *Report) GetNames() []string {
	return r.names
}

func (r *Report) GetRows() []Row {
	return r.rows
}

func (r *Report) AddRow(scenario string, values []float64) error {
	if len(values) != len(r.names) {
		return util.WrapErrorf(ErrInvalidReport, util.ErrBadParamInput,
			"row %q has %d values, report has %d metrics", scenario, len(values), len(r.names))
	}
	r.rows = append(r.rows, Row{Scenario: scenario, Values: append([]float64(nil), values...)})
	return nil
}

// Means averages every metric over the rows. It is empty without rows.
func (r *Report) Means() map[string]float64 {
	means := make(map[string]float64, len(r.names))
	if len(r.rows) == 0 {
		return means
	}
	for k, name := range r.names {
		sum := 0.0
		for _, row := range r.rows {
			sum += row.Values[k]
		}
		means[name] = sum / float64(len(r.rows))
	}
	return means
}

/*
WriteToFile. tab separated, since metric names may contain spaces:

	scenario	<name 1>	<name 2> ...
	<scenario>	<value 1>	<value 2> ...
*/
func (r *Report) WriteToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := r.write(w); err != nil {
		return err
	}
	return w.Flush()
}

func (r *Report) write(w io.Writer) error {
	header := append([]string{scenarioColumn}, r.names...)
	if _, err := fmt.Fprintf(w, "%s\n", strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range r.rows {
		fields := make([]string, 0, len(row.Values)+1)
		fields = append(fields, row.Scenario)
		for _, v := range row.Values {
			fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if _, err := fmt.Fprintf(w, "%s\n", strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return nil
}

func ReadFromFile(filename string) (*Report, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	line, err := util.ReadLine(br)
	if err != nil {
		return nil, util.WrapErrorf(ErrInvalidReport, util.ErrBadParamInput, "missing header: %v", err)
	}
	header := strings.Split(line, "\t")
	if header[0] != scenarioColumn {
		return nil, util.WrapErrorf(ErrInvalidReport, util.ErrBadParamInput,
			"header starts with %q", header[0])
	}
	report := NewReport(header[1:])

	for lineNo := 2; ; lineNo++ {
		line, err := util.ReadLine(br)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		values := make([]float64, 0, len(parts)-1)
		for _, p := range parts[1:] {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, util.WrapErrorf(ErrInvalidReport, util.ErrBadParamInput,
					"line %d: %v", lineNo, err)
			}
			values = append(values, v)
		}
		if err := report.AddRow(parts[0], values); err != nil {
			return nil, err
		}
	}
	return report, nil
}
