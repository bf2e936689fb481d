// Package main provides the vibe-intervals command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vibe-intervals",
		Short: "Interval index for genomic features",
		Long: `vibe-intervals builds in-memory interval indexes over genomic features
and answers overlap queries against them.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newQueryCmd())
	root.AddCommand(newBenchCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig wires the ~/.vibe-intervals.yaml config file into viper.
func initConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil // no home directory, run with defaults
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".vibe-intervals")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("VIBE_INTERVALS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// newLogger builds the CLI logger; debug level when --verbose is set.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
