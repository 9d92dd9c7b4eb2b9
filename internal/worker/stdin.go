package worker

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadInputs collects one input per line from r, e.g. hostnames piped into
// resolve. Surrounding whitespace and "# comment" lines are dropped, and
// repeated inputs are kept only once, in first-seen order.
func ReadInputs(r io.Reader) ([]string, error) {
	var (
		inputs []string
		seen   = make(map[string]struct{})
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		in := strings.TrimSpace(sc.Text())
		if in == "" || in[0] == '#' {
			continue
		}
		if _, dup := seen[in]; dup {
			continue
		}
		seen[in] = struct{}{}
		inputs = append(inputs, in)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading inputs: %w", err)
	}
	return inputs, nil
}
