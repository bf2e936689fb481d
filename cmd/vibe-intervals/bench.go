package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-intervals/internal/benchtool"
	"github.com/inodb/vibe-intervals/interval"
	"github.com/inodb/vibe-intervals/store"
)

func newBenchCmd() *cobra.Command {
	cfg := benchtool.Config{}
	var (
		count    int
		seqWidth int
		maxLen   int
		queries  int
		window   int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the index engines on a synthetic load",
		Long: `Generate a reproducible random feature set, build each engine from it,
and time windowed overlap queries. Engines run concurrently over the same
load.`,
		Example: `  vibe-intervals bench
  vibe-intervals bench --count 1000000 --queries 100000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stored config supplies defaults; explicit flags win
			cfg.Count = configInt(cmd, "count", "bench.count", count)
			cfg.SeqWidth = int32(configInt(cmd, "width", "bench.width", seqWidth))
			cfg.MaxLength = int32(configInt(cmd, "max-length", "bench.max-length", maxLen))
			cfg.Queries = configInt(cmd, "queries", "bench.queries", queries)
			cfg.Window = int32(configInt(cmd, "window", "bench.window", window))
			cfg.Seed = configInt64(cmd, "seed", "bench.seed", seed)

			specs := []benchtool.Spec{
				{Name: "flat", Build: func(ivs []interval.Interval) benchtool.Engine {
					return store.NewFlat(ivs)
				}},
				{Name: "flat-no-unnest", Build: func(ivs []interval.Interval) benchtool.Engine {
					return store.NewFlat(ivs, store.NoUnnest())
				}},
				{Name: "nclist", Build: func(ivs []interval.Interval) benchtool.Engine {
					return store.NewStore(ivs)
				}},
			}

			benchtool.RenderTable(os.Stdout, benchtool.RunAll(specs, cfg))
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 100000, "Number of intervals to generate")
	cmd.Flags().IntVar(&seqWidth, "width", 10000000, "Coordinate space width")
	cmd.Flags().IntVar(&maxLen, "max-length", 50, "Maximum interval length")
	cmd.Flags().IntVar(&queries, "queries", 10000, "Number of windowed queries")
	cmd.Flags().IntVar(&window, "window", 1000, "Query window width")
	cmd.Flags().Int64Var(&seed, "seed", 1, "RNG seed")

	return cmd
}
