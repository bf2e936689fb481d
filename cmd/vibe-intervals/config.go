package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// A setting is a recognised configuration key. Each one stores a default for
// a query or bench flag; flags given on the command line win.
type setting struct {
	key   string
	usage string
	parse func(string) (any, error)
}

var settings = []setting{
	{"query.engine", "default index engine (flat or nclist)", parseEngineName},
	{"query.little-endian", "order ties by end ascending in the flat engine", parseBoolValue},
	{"query.no-unnest", "disable the unnested top-level block", parseBoolValue},
	{"bench.count", "intervals to generate", parsePositiveInt},
	{"bench.width", "coordinate space width", parsePositiveInt},
	{"bench.max-length", "maximum interval length", parsePositiveInt},
	{"bench.queries", "number of windowed queries", parsePositiveInt},
	{"bench.window", "query window width", parsePositiveInt},
	{"bench.seed", "RNG seed for bench loads", parseInt64Value},
}

func lookupSetting(key string) (setting, error) {
	for _, s := range settings {
		if s.key == key {
			return s, nil
		}
	}
	return setting{}, fmt.Errorf("unknown config key %q (\"vibe-intervals config\" lists the known keys while none are stored)", key)
}

func parseEngineName(value string) (any, error) {
	switch value {
	case "flat", "nclist":
		return value, nil
	}
	return nil, fmt.Errorf("engine must be flat or nclist, got %q", value)
}

func parseBoolValue(value string) (any, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, fmt.Errorf("expected true or false, got %q", value)
	}
	return b, nil
}

func parsePositiveInt(value string) (any, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return nil, fmt.Errorf("expected a positive integer, got %q", value)
	}
	return n, nil
}

func parseInt64Value(value string) (any, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("expected an integer, got %q", value)
	}
	return n, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored defaults for query and bench",
		Long: `Show, get, or set defaults for the query and bench commands. Values are
stored in ~/.vibe-intervals.yaml and validated against the flags they back;
command-line flags always override them.`,
		Example: `  vibe-intervals config                          # show stored settings
  vibe-intervals config set query.engine nclist
  vibe-intervals config set bench.count 500000
  vibe-intervals config get bench.count`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a default for a query or bench flag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a stored default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func runConfigShow(w io.Writer) error {
	stored := make(map[string]any)
	for _, s := range settings {
		if viper.IsSet(s.key) {
			stored[s.key] = viper.Get(s.key)
		}
	}
	if len(stored) == 0 {
		fmt.Fprintln(w, "# No settings stored. Known keys:")
		for _, s := range settings {
			fmt.Fprintf(w, "#   %-20s %s\n", s.key, s.usage)
		}
		return nil
	}

	out, err := yaml.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, key, value string) error {
	s, err := lookupSetting(key)
	if err != nil {
		return err
	}
	parsed, err := s.parse(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	viper.Set(s.key, parsed)

	cfgFile, err := configFilePath()
	if err != nil {
		return err
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %v in %s\n", s.key, parsed, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	s, err := lookupSetting(key)
	if err != nil {
		return err
	}
	if !viper.IsSet(s.key) {
		return fmt.Errorf("key %q is not set", s.key)
	}
	fmt.Fprintln(w, viper.Get(s.key))
	return nil
}

// configFilePath answers the file set requests write to: the file viper
// loaded, or ~/.vibe-intervals.yaml when none exists yet.
func configFilePath() (string, error) {
	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".vibe-intervals.yaml"), nil
}

// configString, configBool, configInt and configInt64 answer a flag's
// effective value: the command-line flag when given, the stored setting when
// one exists, the flag default otherwise.

func configString(cmd *cobra.Command, flag, key, fallback string) string {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

func configBool(cmd *cobra.Command, flag, key string, fallback bool) bool {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return fallback
}

func configInt(cmd *cobra.Command, flag, key string, fallback int) int {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}

func configInt64(cmd *cobra.Command, flag, key string, fallback int64) int64 {
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetInt64(key)
	}
	return fallback
}
