package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReasonText(t *testing.T) {
	t.Parallel()
	d, err := json.Marshal(Unsupported{InMain: true, Reason: LateBoundRegion})
	require.NoError(t, err)
	assert.JSONEq(t, `{"in_main": true, "reason": "LateBoundRegion"}`, string(d))

	var u Unsupported
	require.NoError(t, json.Unmarshal(d, &u))
	assert.Equal(t, LateBoundRegion, u.Reason)

	assert.Error(t, json.Unmarshal([]byte(`{"reason": "Sideways"}`), &u))
	assert.Equal(t, "unsupported: Closure (supporting signature)", (&Unsupported{Reason: Closure}).Error())
}

func TestSolutionBody(t *testing.T) {
	t.Parallel()
	sln := Solution{Code: "fn f(x: &mut i32) {\n  let y = 1;\n  *x = y\n}@|1|2|3|4|\n", Loc: 2}
	assert.Equal(t, "\n  let y = 1;\n  *x = y\n", sln.Body())

	empty := Solution{Code: "fn f() {\n}@|1|2|3|4|\n", Loc: 0}
	assert.Equal(t, "\n", empty.Body())
}

func TestCalculateMeanStats(t *testing.T) {
	t.Parallel()
	a := &Solved{
		SynthAST:  10,
		PureFnAST: UsedPureFns{"len": {Executable: true, ASTNodes: 4}},
		Solutions: []Solution{
			{Loc: 2, SynthTime: 100, ASTNodes: 8, ASTNodesUnsimp: 10, RuleApps: 20},
			{Loc: 3, SynthTime: 300, ASTNodes: 9, ASTNodesUnsimp: 11, RuleApps: 30, Idx: 1},
		},
	}
	b := &Solved{
		SynthAST:  20,
		PureFnAST: UsedPureFns{"len": {Executable: true, ASTNodes: 4}, "sum": {ASTNodes: 6}},
		Solutions: []Solution{{Loc: 4, SynthTime: 200, ASTNodes: 12, ASTNodesUnsimp: 14, RuleApps: 40}},
	}

	pure, stats, err := CalculateMeanStats([]*Solved{a, b})
	require.NoError(t, err)
	assert.Len(t, pure, 2)
	require.Len(t, stats, 2)
	assert.Equal(t, MeanStats{SynthTime: 150, Loc: 3, SpecAST: 15, ASTNodes: 10, ASTNodesUnsimp: 12, RuleApps: 30}, stats[0])
	assert.Equal(t, MeanStats{SynthTime: 300, Loc: 3, SpecAST: 10, ASTNodes: 9, ASTNodesUnsimp: 11, RuleApps: 30}, stats[1])

	b.PureFnAST["len"] = PureFnUse{ASTNodes: 5}
	_, _, err = CalculateMeanStats([]*Solved{a, b})
	assert.ErrorContains(t, err, "pure function len")
}

func TestSummarise(t *testing.T) {
	t.Parallel()
	s := Summarise([]SynthesisResult{
		NewUnsupported(true, &Unsupported{Reason: Unsafe}),
		NewUnsolvable(false, 10),
		NewUnsolvable(false, 20),
		NewSolved(false, &Solved{Solutions: []Solution{{Loc: 2, SynthTime: 5}, {Loc: 3, SynthTime: 7}}}),
	})
	assert.Equal(t, Summary{
		Unsupported: 1,
		Unsolvable:  2,
		Solved:      []SolvedCount{{Solved: 1, Loc: 2, Time: 5}, {Solved: 1, Loc: 3, Time: 7}},
	}, s)
	assert.Equal(t, "Unsolvable(10ms)", NewUnsolvable(false, 10).String())
}
