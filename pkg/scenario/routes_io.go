package scenario

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

// ReadRoutes reads a plain text route file: one route per line, stops
// separated by spaces. Blank lines and lines starting with '#' are skipped.
func ReadRoutes(filename string) ([][]int, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRoutes(f)
}

func ParseRoutes(r io.Reader) ([][]int, error) {
	br := bufio.NewReader(r)
	routes := make([][]int, 0)
	for lineNo := 1; ; lineNo++ {
		line, err := util.ReadLine(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Fields(line)
		route := make([]int, len(tokens))
		for i, tok := range tokens {
			stop, err := strconv.Atoi(tok)
			if err != nil {
				return nil, util.WrapErrorf(err, util.ErrBadParamInput,
					"line %d: %q is not a stop index", lineNo, tok)
			}
			route[i] = stop
		}
		routes = append(routes, route)
	}
	return routes, nil
}

func WriteRoutes(filename string, routes [][]int) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, route := range routes {
		for i, stop := range route {
			fmt.Fprintf(w, "%d", stop)
			if i < len(route)-1 {
				fmt.Fprint(w, " ")
			}
		}
		fmt.Fprint(w, "\n")
	}
	return w.Flush()
}
