package formatter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gnolang/ruslic/internal/types"
)

// SummaryMarker prefixes the machine-readable summary line so that it can
// be picked out of a build log.
const SummaryMarker = "###### SUMMARY @@@@@@"

// FormatSummary renders the outcome counts and, per solution index, the
// number of solved goals with their total lines and synthesis time.
func FormatSummary(s types.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unsupported: %d\nUnsolvable: %d\nTimeout: %d\n", s.Unsupported, s.Unsolvable, s.Timeout)
	b.WriteString("Solved: ")
	if len(s.Solved) == 0 {
		b.WriteString("0\n")
		return b.String()
	}
	for _, c := range s.Solved {
		fmt.Fprintf(&b, " %d (loc %d, time %d),", c.Solved, c.Loc, c.Time)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatSummaryJSON renders results as one marked JSON line.
func FormatSummaryJSON(results map[string]types.SynthesisResult) (string, error) {
	d, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	return SummaryMarker + string(d) + "\n", nil
}

// ParseSummaries collects the results of every marked line in r. Results
// of one line are ordered by function path.
func ParseSummaries(r io.Reader) ([]types.SynthesisResult, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64<<20)

	var out []types.SynthesisResult
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		_, payload, ok := strings.Cut(scanner.Text(), SummaryMarker)
		if !ok {
			continue
		}
		var results map[string]types.SynthesisResult
		if err := json.Unmarshal([]byte(payload), &results); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, results[name])
		}
	}
	return out, scanner.Err()
}

// FormatMeanStats renders the per-index averages and the pure function
// table of the solved results.
func FormatMeanStats(pureFns types.UsedPureFns, stats []types.MeanStats) string {
	var b strings.Builder
	for i, s := range stats {
		fmt.Fprintf(&b, "%s synth_time %.2fms, loc %.2f, spec_ast %.2f, ast_nodes %.2f (unsimplified %.2f), rule_apps %.2f\n",
			lineStyle.Sprintf("[Solution #%d]", i), s.SynthTime, s.Loc, s.SpecAST, s.ASTNodes, s.ASTNodesUnsimp, s.RuleApps)
	}

	executable, ast := 0, 0
	for _, fn := range pureFns {
		if fn.Executable {
			executable++
		}
		ast += fn.ASTNodes
	}
	fmt.Fprintf(&b, "Pure functions: %d (%d executable, %d ast nodes)\n", len(pureFns), executable, ast)
	return b.String()
}

// SolvedOf picks the solved results.
func SolvedOf(results []types.SynthesisResult) []*types.Solved {
	var out []*types.Solved
	for _, r := range results {
		if r.Kind == types.KindSolved {
			out = append(out, r.Solved)
		}
	}
	return out
}
