package synth

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/types"
)

const twoSolutions = "fn set_one(x: &mut i32) {\n  *x = 1\n}@|12|3|4|5|\n" + Separator +
	"fn set_one(x: &mut i32) {\n  let y = 1;\n  *x = y\n}@|20|6|8|9|\n" + Separator +
	"\n"

func TestParseSolutions(t *testing.T) {
	t.Parallel()
	slns, err := ParseSolutions(twoSolutions)
	require.NoError(t, err)
	require.Len(t, slns, 2)

	assert.Equal(t, types.Solution{
		Code:           "fn set_one(x: &mut i32) {\n  *x = 1\n}@|12|3|4|5|\n",
		Loc:            1,
		SynthTime:      12,
		ASTNodes:       3,
		ASTNodesUnsimp: 4,
		RuleApps:       5,
		Idx:            0,
	}, slns[0])
	assert.Equal(t, 2, slns[1].Loc)
	assert.Equal(t, 1, slns[1].Idx)
	assert.Equal(t, uint64(9), slns[1].RuleApps)
	assert.Equal(t, "\n  *x = 1\n", slns[0].Body())
}

func TestParseSolutionsErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		out  string
	}{
		{"not a function", "let x = 1;\nfoo\nbar\n"},
		{"no statistics", "fn f() {\n}\nnothing\n"},
		{"short statistics", "fn f() {\n}\n@|1|2\n"},
		{"bad number", "fn f() {\n}\n@|1|x|3|4|\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseSolutions(tt.out)
			assert.ErrorIs(t, err, ErrFailed)
		})
	}

	slns, err := ParseSolutions("")
	require.NoError(t, err)
	assert.Empty(t, slns)
}

func TestFlags(t *testing.T) {
	t.Parallel()
	p := NewProcess(Config{Solutions: 2}, nil)
	assert.Equal(t, []string{"-c", "2", "--solutions=2"}, p.flags(" -c  2 ", "tmp-x"))
	assert.Equal(t, []string{"--solutions=5"}, p.flags("--solutions=5", "tmp-x"))

	p = NewProcess(Config{OutputTrace: true}, nil)
	assert.Equal(t, []string{"--solutions=1", "-j", filepath.Join("tmp-x", "trace.json")}, p.flags("", "tmp-x"))
}

// fakeSynth writes a shell script standing in for the synthesizer. It runs
// in the work directory with the program path as its first argument.
func fakeSynth(t *testing.T, script string) Config {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "suslik.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return Config{Command: "/bin/sh", Args: []string{path}, Dir: dir, Timeout: 5 * time.Second, Solutions: 1}
}

func testProgram() *ssl.Program {
	return &ssl.Program{
		Preds:    ssl.PredMap{},
		Goal:     &ssl.Signature{UniqueName: "set_one", FnName: "set_one"},
		ASTNodes: 7,
	}
}

func workDirs(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "tmp-set_one-*"))
	require.NoError(t, err)
	return matches
}

func TestProcessSolved(t *testing.T) {
	t.Parallel()
	cfg := fakeSynth(t, `cp "$1" seen.syn
echo "$@" > args.txt
printf 'fn set_one(x: &mut i32) {\n  *x = 1\n}@|12|3|4|5|\n'
`)
	res, err := NewProcess(cfg, nil).Run(context.Background(), testProgram(), "-c 2")
	require.NoError(t, err)
	require.Equal(t, types.KindSolved, res.Kind)
	assert.Equal(t, 7, res.Solved.SynthAST)
	require.Len(t, res.Solved.Solutions, 1)
	assert.Equal(t, 1, res.Solved.Solutions[0].Loc)

	seen, err := os.ReadFile(filepath.Join(cfg.Dir, "seen.syn"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(seen), Header))
	assert.Contains(t, string(seen), "set_one \"set_one\"")

	args, err := os.ReadFile(filepath.Join(cfg.Dir, "args.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "tmp.syn -c 2 --solutions=1")

	assert.Empty(t, workDirs(t, cfg.Dir))
}

func TestProcessUnsolvable(t *testing.T) {
	t.Parallel()
	cfg := fakeSynth(t, "exit 2\n")
	res, err := NewProcess(cfg, nil).Run(context.Background(), testProgram(), "")
	require.NoError(t, err)
	assert.Equal(t, types.KindUnsolvable, res.Kind)
	assert.Empty(t, workDirs(t, cfg.Dir))

	cfg.FailOnUnsynth = true
	_, err = NewProcess(cfg, nil).Run(context.Background(), testProgram(), "")
	assert.ErrorIs(t, err, ErrFailed)
}

func TestProcessFailure(t *testing.T) {
	t.Parallel()
	cfg := fakeSynth(t, "echo boom >&2\nexit 1\n")
	_, err := NewProcess(cfg, nil).Run(context.Background(), testProgram(), "")
	require.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, workDirs(t, cfg.Dir), 1)
}

func TestProcessTimeout(t *testing.T) {
	t.Parallel()
	cfg := fakeSynth(t, "exec sleep 10\n")
	cfg.Timeout = 200 * time.Millisecond
	res, err := NewProcess(cfg, nil).Run(context.Background(), testProgram(), "")
	require.NoError(t, err)
	assert.Equal(t, types.KindTimeout, res.Kind)
	assert.Len(t, workDirs(t, cfg.Dir), 1)
}

func TestProcessCancelled(t *testing.T) {
	t.Parallel()
	cfg := fakeSynth(t, "exit 0\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProcess(cfg, nil).Run(ctx, testProgram(), "")
	assert.ErrorIs(t, err, context.Canceled)
}
