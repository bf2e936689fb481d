package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetConfig points HOME at a fresh directory and reinitialises viper, so
// each test sees an empty config store.
func resetConfig(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	require.NoError(t, initConfig())
	return home
}

func TestLookupSetting(t *testing.T) {
	for _, s := range settings {
		_, err := lookupSetting(s.key)
		assert.NoError(t, err, "key %s", s.key)
	}

	_, err := lookupSetting("bench.bogus")
	assert.Error(t, err)
}

func TestParseSettingValues(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		want    any
		wantErr bool
	}{
		{"query.engine", "flat", "flat", false},
		{"query.engine", "nclist", "nclist", false},
		{"query.engine", "btree", nil, true},
		{"query.little-endian", "true", true, false},
		{"query.no-unnest", "false", false, false},
		{"query.no-unnest", "maybe", nil, true},
		{"bench.count", "500000", 500000, false},
		{"bench.count", "0", nil, true},
		{"bench.window", "-5", nil, true},
		{"bench.queries", "many", nil, true},
		{"bench.seed", "-42", int64(-42), false},
		{"bench.seed", "soon", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s, err := lookupSetting(tt.key)
			require.NoError(t, err)

			got, err := s.parse(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigSetGetShow(t *testing.T) {
	home := resetConfig(t)
	var out strings.Builder

	require.NoError(t, runConfigSet(&out, "bench.count", "5000"))
	assert.Contains(t, out.String(), "bench.count = 5000")

	// the value lands in the config file under HOME
	data, err := os.ReadFile(filepath.Join(home, ".vibe-intervals.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "5000")

	out.Reset()
	require.NoError(t, runConfigGet(&out, "bench.count"))
	assert.Equal(t, "5000\n", out.String())

	out.Reset()
	require.NoError(t, runConfigSet(&out, "query.engine", "nclist"))
	out.Reset()
	require.NoError(t, runConfigShow(&out))
	assert.Contains(t, out.String(), "bench.count")
	assert.Contains(t, out.String(), "nclist")
}

func TestConfigSetRejectsInvalidInput(t *testing.T) {
	resetConfig(t)
	var out strings.Builder

	assert.Error(t, runConfigSet(&out, "unknown.key", "1"))
	assert.Error(t, runConfigSet(&out, "bench.count", "zero"))
	assert.Error(t, runConfigSet(&out, "query.engine", "btree"))
	assert.Error(t, runConfigGet(&out, "unknown.key"))

	// known key, nothing stored
	assert.Error(t, runConfigGet(&out, "bench.window"))
}

func TestConfigShowEmpty(t *testing.T) {
	resetConfig(t)
	var out strings.Builder

	require.NoError(t, runConfigShow(&out))
	assert.Contains(t, out.String(), "No settings stored")
	assert.Contains(t, out.String(), "query.engine")
	assert.Contains(t, out.String(), "bench.seed")
}

// Stored settings become flag defaults, and explicit flags still win.
func TestConfigDefaultsFlowIntoFlags(t *testing.T) {
	resetConfig(t)
	var out strings.Builder
	require.NoError(t, runConfigSet(&out, "query.engine", "nclist"))
	require.NoError(t, runConfigSet(&out, "query.no-unnest", "true"))
	require.NoError(t, runConfigSet(&out, "bench.count", "5000"))
	require.NoError(t, runConfigSet(&out, "bench.seed", "42"))

	query := newQueryCmd()
	assert.Equal(t, "nclist", configString(query, "engine", "query.engine", "flat"))
	assert.True(t, configBool(query, "no-unnest", "query.no-unnest", false))
	assert.False(t, configBool(query, "little-endian", "query.little-endian", false))

	bench := newBenchCmd()
	assert.Equal(t, 5000, configInt(bench, "count", "bench.count", 100000))
	assert.Equal(t, int64(42), configInt64(bench, "seed", "bench.seed", 1))
	assert.Equal(t, 10000, configInt(bench, "queries", "bench.queries", 10000))

	// an explicit flag overrides the stored default
	require.NoError(t, query.Flags().Set("engine", "flat"))
	assert.Equal(t, "flat", configString(query, "engine", "query.engine", "flat"))
}
