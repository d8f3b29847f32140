package synth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gnolang/ruslic/internal/types"
)

// Separator ends every solution the synthesizer prints.
const Separator = "-----------------------------------------------------\n"

// ParseSolutions splits the synthesizer's output into solutions. Each one
// is a function followed by a statistics line of the form
// `@|synth_time|ast_nodes|ast_nodes_unsimp|rule_apps|`.
func ParseSolutions(out string) ([]types.Solution, error) {
	var slns []types.Solution
	for _, piece := range strings.Split(out, Separator) {
		lines := countLines(piece)
		if lines <= 2 {
			continue
		}
		if !strings.HasPrefix(piece, "fn ") {
			return nil, fmt.Errorf("%w: solution does not start with a function: %q", ErrFailed, firstLine(piece))
		}
		_, stats, ok := strings.Cut(piece, "@|")
		if !ok {
			return nil, fmt.Errorf("%w: solution has no statistics", ErrFailed)
		}
		fields := strings.Split(stats, "|")
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: short statistics %q", ErrFailed, strings.TrimSpace(stats))
		}
		var nums [4]uint64
		for i := range nums {
			n, err := strconv.ParseUint(strings.TrimSpace(fields[i]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad statistic %q", ErrFailed, fields[i])
			}
			nums[i] = n
		}
		slns = append(slns, types.Solution{
			Code:           piece,
			Loc:            lines - 2,
			SynthTime:      nums[0],
			ASTNodes:       nums[1],
			ASTNodesUnsimp: nums[2],
			RuleApps:       nums[3],
			Idx:            len(slns),
		})
	}
	return slns, nil
}

// countLines counts lines the way a line iterator does: a trailing newline
// does not start another line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
