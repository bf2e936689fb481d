package benchtool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-intervals/interval"
	"github.com/inodb/vibe-intervals/store"
)

var testConfig = Config{
	Count:     2000,
	SeqWidth:  100000,
	MaxLength: 50,
	Queries:   200,
	Window:    1000,
	Seed:      11,
}

func testSpecs() []Spec {
	return []Spec{
		{Name: "flat", Build: func(ivs []interval.Interval) Engine {
			return store.NewFlat(ivs)
		}},
		{Name: "nclist", Build: func(ivs []interval.Interval) Engine {
			return store.NewStore(ivs)
		}},
	}
}

func TestGenerateReproducible(t *testing.T) {
	a := Generate(testConfig)
	b := Generate(testConfig)

	require.Len(t, a, testConfig.Count)
	for i := range a {
		assert.True(t, a[i].EqualsInterval(b[i]), "mismatch at %d", i)
	}
}

func TestRunAll(t *testing.T) {
	results := RunAll(testSpecs(), testConfig)
	require.Len(t, results, 2)

	assert.Equal(t, "flat", results[0].Name)
	assert.Equal(t, "nclist", results[1].Name)
	for _, r := range results {
		assert.Equal(t, testConfig.Count, r.Count)
		assert.Equal(t, testConfig.Queries, r.Queries)
		assert.Positive(t, r.QueryTime)
		assert.GreaterOrEqual(t, r.Quantile(0.99), r.Quantile(0.50))
	}

	// identical seeds mean identical hit totals across engines
	assert.Equal(t, results[0].Hits, results[1].Hits)
}

func TestRenderTable(t *testing.T) {
	var sb strings.Builder
	RenderTable(&sb, RunAll(testSpecs()[:1], testConfig))

	out := sb.String()
	assert.Contains(t, out, "flat")
	assert.Contains(t, out, "2,000")
	assert.Contains(t, out, "ENGINE")
}
