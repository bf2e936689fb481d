package bedio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBED = `# a comment
track name=test
chr1	100	200	featA
chr1	150	250	featB
chr2	0	50
1	300	400	.
bogus line
chr3	20	20	empty
`

func TestParse(t *testing.T) {
	l := NewLoader("")
	features, err := l.parse(strings.NewReader(sampleBED))
	require.NoError(t, err)

	require.Len(t, features["1"], 3)
	require.Len(t, features["2"], 1)
	// the bogus line and the empty interval are skipped
	assert.NotContains(t, features, "3")

	a := features["1"][0]
	assert.Equal(t, int32(101), a.Begin())
	assert.Equal(t, int32(200), a.End())
	assert.Equal(t, "featA", a.Description)

	// missing name falls back to a positional description
	assert.Equal(t, "2:0-50", features["2"][0].Description)
	assert.Equal(t, "1:300-400", features["1"][2].Description)
}

func TestLoadPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bed")
	require.NoError(t, os.WriteFile(path, []byte(sampleBED), 0o644))

	features, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Len(t, features["1"], 3)
}

func TestLoadGzippedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bed.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleBED))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	features, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Len(t, features["1"], 3)
	assert.Len(t, features["2"], 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader("/nonexistent/path.bed").Load()
	assert.Error(t, err)
}
