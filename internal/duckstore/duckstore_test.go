package duckstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-intervals/interval"
	"github.com/inodb/vibe-intervals/store"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.duckdb")
	src, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	require.NoError(t, src.CreateSchema())

	seed := []struct {
		chrom string
		f     *interval.Feature
	}{
		{"12", interval.NewFeature(100, 200, "a")},
		{"12", interval.NewFeature(150, 160, "b")},
		{"12", interval.NewFeature(300, 400, "c")},
		{"X", interval.NewFeature(50, 60, "d")},
	}
	for _, s := range seed {
		require.NoError(t, src.InsertFeature(s.chrom, s.f))
	}
	return src
}

func TestLoadAll(t *testing.T) {
	src := newTestSource(t)

	features, err := src.LoadAll()
	require.NoError(t, err)

	assert.Len(t, features["12"], 3)
	assert.Len(t, features["X"], 1)
	assert.Equal(t, "a", features["12"][0].Description)
	assert.Equal(t, int32(100), features["12"][0].Begin())
}

func TestLoadChromosome(t *testing.T) {
	src := newTestSource(t)

	features, err := src.LoadChromosome("X")
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "d", features[0].Description)

	none, err := src.LoadChromosome("7")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// The SQL push-down answers must match the in-memory engine over the same
// data.
func TestFindOverlapsMatchesEngine(t *testing.T) {
	src := newTestSource(t)

	features, err := src.LoadChromosome("12")
	require.NoError(t, err)
	ivs := make([]interval.Interval, len(features))
	for i, f := range features {
		ivs[i] = f
	}
	engine := store.NewFlat(ivs)

	for _, q := range [][2]int32{{120, 155}, {0, 1000}, {250, 280}, {400, 400}} {
		fromDB, err := src.FindOverlaps("12", q[0], q[1])
		require.NoError(t, err)
		got := engine.FindOverlaps(q[0], q[1])
		require.Len(t, got, len(fromDB), "query [%d,%d]", q[0], q[1])

		names := make(map[string]bool)
		for _, f := range fromDB {
			names[f.Description] = true
		}
		for _, iv := range got {
			assert.True(t, names[iv.(*interval.Feature).Description])
		}
	}
}
