package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/ruslic/internal/types"
)

func solvedResult() types.SynthesisResult {
	return types.NewSolved(false, &types.Solved{
		ExecTime:  120,
		SynthAST:  11,
		PureFnAST: types.UsedPureFns{"Account::balance": {Executable: true, ASTNodes: 3}},
		Solutions: []types.Solution{{Code: "fn f() {\n}\n@|1|2|3|4|\n", Loc: 1, SynthTime: 1, ASTNodes: 2, ASTNodesUnsimp: 3, RuleApps: 4}},
	})
}

func TestCache(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	c, err := New(cacheDir)
	require.NoError(t, err)

	key := Key("program", "-c 2")

	t.Run("NotFound", func(t *testing.T) {
		_, found := c.Get(key)
		assert.False(t, found)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, c.Set(key, solvedResult()))

		got, found := c.Get(key)
		require.True(t, found)
		assert.Equal(t, solvedResult(), got)

		reopened, err := New(cacheDir)
		require.NoError(t, err)
		got, found = reopened.Get(key)
		require.True(t, found)
		assert.Equal(t, solvedResult(), got)
	})

	t.Run("Expired", func(t *testing.T) {
		c.SetMaxAge(time.Nanosecond)
		time.Sleep(time.Millisecond)
		_, found := c.Get(key)
		assert.False(t, found)
		c.SetMaxAge(time.Hour)
	})

	t.Run("DependencyChanged", func(t *testing.T) {
		jar := filepath.Join(tmpDir, "suslik.jar")
		require.NoError(t, os.WriteFile(jar, []byte("v1"), 0o644))
		require.NoError(t, c.SetDependencies(jar))
		require.NoError(t, c.Set(key, types.NewUnsolvable(true, 40)))

		_, found := c.Get(key)
		require.True(t, found)

		require.NoError(t, os.WriteFile(jar, []byte("v2"), 0o644))
		_, found = c.Get(key)
		assert.False(t, found)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		require.NoError(t, c.SetDependencies())
		require.NoError(t, c.Set(key, solvedResult()))
		require.NoError(t, c.InvalidateAll())
		assert.Zero(t, c.Len())
	})
}

func TestKey(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Key("p", "a"), Key("p", "a"))
	assert.NotEqual(t, Key("p", "a"), Key("p", "b"))
	assert.NotEqual(t, Key("pa", ""), Key("p", "a"))
}

func TestCacheable(t *testing.T) {
	t.Parallel()
	assert.True(t, Cacheable(solvedResult()))
	assert.True(t, Cacheable(types.NewUnsolvable(false, 1)))
	assert.False(t, Cacheable(types.NewTimeout(false)))
	assert.False(t, Cacheable(types.NewUnsupported(false, &types.Unsupported{Reason: types.Other})))
}
