package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-intervals/interval"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		input   string
		chrom   string
		from    int32
		to      int32
		wantErr bool
	}{
		{"1:100-200", "1", 100, 200, false},
		{"chrX:5-5", "X", 5, 5, false},
		{"2:300", "2", 300, 300, false},
		{"1:200-100", "", 0, 0, true},
		{"nocolon", "", 0, 0, true},
		{"1:abc-200", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			chrom, from, to, err := parseRegion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.chrom, chrom)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestBuildEngine(t *testing.T) {
	ivs := []interval.Interval{
		interval.NewFeature(10, 20, "a"),
		interval.NewFeature(15, 30, "b"),
	}

	for _, name := range []string{"flat", "nclist"} {
		engine, err := buildEngine(name, append([]interval.Interval(nil), ivs...), false, false)
		require.NoError(t, err)
		assert.Equal(t, 2, engine.Size())
		assert.Len(t, engine.FindOverlaps(18, 18), 2)
	}

	_, err := buildEngine("btree", ivs, false, false)
	assert.Error(t, err)
}

func TestRunQueryOverBEDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.bed")
	content := "chr1\t100\t200\tfeatA\nchr1\t150\t250\tfeatB\nchr2\t10\t20\tfeatC\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	assert.NoError(t, runQuery(path, []string{"1:180-190", "3:1-10"}, "flat", false, false))
	assert.NoError(t, runQuery(path, []string{"1:180-190"}, "nclist", false, false))
	assert.Error(t, runQuery(path, []string{"bad"}, "flat", false, false))
	assert.Error(t, runQuery("/missing.bed", []string{"1:1-2"}, "flat", false, false))
}
