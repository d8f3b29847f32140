package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/ruslic/formatter"
	"github.com/gnolang/ruslic/internal/synth"
	"github.com/gnolang/ruslic/internal/types"
	"github.com/gnolang/ruslic/pipeline"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestInitAndEmit(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "ruslic.yaml")
	out := execute(t, "init", "--config", cfgPath)
	assert.Contains(t, out, "Configuration file created/updated: "+cfgPath)

	cfg, err := pipeline.LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "ruslic", cfg.Name)

	out = execute(t, "emit", "--config", cfgPath, filepath.Join("..", "pipeline", "testdata", "bank.yaml"))
	assert.Contains(t, out, "// Account::withdraw\n"+synth.Header)
	assert.Contains(t, out, "// shout: unsupported")
}

func TestPrintAggregate(t *testing.T) {
	solved := types.NewSolved(false, &types.Solved{
		ExecTime:  10,
		SynthAST:  6,
		PureFnAST: types.UsedPureFns{"len": {Executable: true, ASTNodes: 2}},
		Solutions: []types.Solution{{Code: "fn f() {\n  1\n}@|8|2|3|4|\n", Loc: 1, SynthTime: 8, ASTNodes: 2, ASTNodesUnsimp: 3, RuleApps: 4}},
	})
	line, err := formatter.FormatSummaryJSON(map[string]types.SynthesisResult{
		"f": solved,
		"g": types.NewTimeout(false),
	})
	require.NoError(t, err)
	logPath := filepath.Join(t.TempDir(), "build.log")
	require.NoError(t, os.WriteFile(logPath, []byte("warning: unused\n"+line), 0o644))

	results, err := readSummaries(logPath)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var text bytes.Buffer
	require.NoError(t, printAggregate(&text, results, false))
	assert.True(t, strings.HasPrefix(text.String(), "Unsupported: 0\nUnsolvable: 0\nTimeout: 1\nSolved:  1 (loc 1, time 8),\n"))
	assert.Contains(t, text.String(), "Pure functions: 1 (1 executable, 2 ast nodes)")

	var js bytes.Buffer
	require.NoError(t, printAggregate(&js, results, true))
	var agg aggregate
	require.NoError(t, json.Unmarshal(js.Bytes(), &agg))
	assert.Equal(t, 1, agg.Summary.Timeout)
	require.Len(t, agg.MeanStats, 1)
	assert.InDelta(t, 6.0, agg.MeanStats[0].SpecAST, 1e-9)
}
