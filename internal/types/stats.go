package types

import "fmt"

// MeanStats holds per-solution-index averages over solved functions.
type MeanStats struct {
	SynthTime      float64 `json:"synth_time"`
	Loc            float64 `json:"loc"`
	SpecAST        float64 `json:"spec_ast"`
	ASTNodes       float64 `json:"ast_nodes"`
	ASTNodesUnsimp float64 `json:"ast_nodes_unsimp"`
	RuleApps       float64 `json:"rule_apps"`
}

// CalculateMeanStats averages the statistics of the i-th solution of every
// solved function into the i-th entry of the result, and merges the pure
// function tables. A pure function reported with two different records is an
// error.
func CalculateMeanStats(solved []*Solved) (UsedPureFns, []MeanStats, error) {
	pureFns := make(UsedPureFns)
	var (
		counts []float64
		sums   []MeanStats
	)
	for _, s := range solved {
		for k, v := range s.PureFnAST {
			if old, ok := pureFns[k]; ok {
				if old != v {
					return nil, nil, fmt.Errorf("pure function %s reported as %+v and %+v", k, old, v)
				}
				continue
			}
			pureFns[k] = v
		}
		for idx, sln := range s.Solutions {
			if len(counts) <= idx {
				counts = append(counts, 0)
				sums = append(sums, MeanStats{})
			}
			counts[idx]++
			sums[idx].SynthTime += float64(sln.SynthTime)
			sums[idx].Loc += float64(sln.Loc)
			sums[idx].SpecAST += float64(s.SynthAST)
			sums[idx].ASTNodes += float64(sln.ASTNodes)
			sums[idx].ASTNodesUnsimp += float64(sln.ASTNodesUnsimp)
			sums[idx].RuleApps += float64(sln.RuleApps)
		}
	}
	for i := range sums {
		c := counts[i]
		sums[i].SynthTime /= c
		sums[i].Loc /= c
		sums[i].SpecAST /= c
		sums[i].ASTNodes /= c
		sums[i].ASTNodesUnsimp /= c
		sums[i].RuleApps /= c
	}
	return pureFns, sums, nil
}

// SolvedCount is the per-index aggregate printed by the summary.
type SolvedCount struct {
	Solved int    `json:"solved"`
	Loc    int    `json:"loc"`
	Time   uint64 `json:"time"`
}

// Summary counts outcomes by kind.
type Summary struct {
	Unsupported int           `json:"unsupported"`
	Unsolvable  int           `json:"unsolvable"`
	Timeout     int           `json:"timeout"`
	Solved      []SolvedCount `json:"solved"`
}

func Summarise(results []SynthesisResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Kind {
		case KindUnsupported:
			s.Unsupported++
		case KindUnsolvable:
			s.Unsolvable++
		case KindTimeout:
			s.Timeout++
		case KindSolved:
			for idx, sln := range r.Solved.Solutions {
				if len(s.Solved) <= idx {
					s.Solved = append(s.Solved, SolvedCount{})
				}
				s.Solved[idx].Solved++
				s.Solved[idx].Loc += sln.Loc
				s.Solved[idx].Time += sln.SynthTime
			}
		}
	}
	return s
}
