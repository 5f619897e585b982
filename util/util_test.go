package util

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestGatherMediaPathsFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.mid"))
	touch(t, filepath.Join(dir, "nested", "a.MIDI"))
	touch(t, filepath.Join(dir, "c.txt"))
	touch(t, filepath.Join(dir, "d.png"))

	paths, err := GatherMediaPaths(dir, []string{".mid", ".midi"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.mid"),
		filepath.Join(dir, "nested", "a.MIDI"),
	}, paths)

	limited, err := GatherMediaPaths(dir, []string{".mid", ".midi"}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGatherMediaPathsMissingDir(t *testing.T) {
	_, err := GatherMediaPaths(filepath.Join(t.TempDir(), "missing"), []string{".png"}, 0)
	assert.Error(t, err)
}

func TestGetKeysSorted(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, GetKeys(map[int]string{3: "c", 1: "a", 2: "b"}))
}

func TestSum(t *testing.T) {
	assert.InDelta(t, 6.5, Sum([]float64{1, 2, 3.5}), 1e-12)
	assert.Equal(t, 6.0, Sum([]int{1, 2, 3}))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
