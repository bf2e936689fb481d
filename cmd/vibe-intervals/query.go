package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-intervals/internal/bedio"
	"github.com/inodb/vibe-intervals/internal/duckstore"
	"github.com/inodb/vibe-intervals/interval"
	"github.com/inodb/vibe-intervals/store"
)

// overlapIndex is the store surface the query command needs, satisfied by
// both engines.
type overlapIndex interface {
	Size() int
	FindOverlaps(from, to int32) []interval.Interval
}

func newQueryCmd() *cobra.Command {
	var (
		engineName   string
		littleEndian bool
		noUnnest     bool
	)

	cmd := &cobra.Command{
		Use:   "query <source> <region>...",
		Short: "Answer overlap queries against a feature file",
		Long: `Load features from a BED file (.bed, .bed.gz) or a DuckDB database
(.duckdb), build an interval index per chromosome, and print every feature
overlapping each region.

Regions use the form chrom:from-to with 1-based inclusive coordinates.`,
		Example: `  vibe-intervals query features.bed 1:10000-20000
  vibe-intervals query --engine nclist features.duckdb X:500-800 X:900-1200`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// stored config supplies defaults; explicit flags win
			engineName = configString(cmd, "engine", "query.engine", engineName)
			littleEndian = configBool(cmd, "little-endian", "query.little-endian", littleEndian)
			noUnnest = configBool(cmd, "no-unnest", "query.no-unnest", noUnnest)
			return runQuery(args[0], args[1:], engineName, littleEndian, noUnnest)
		},
	}

	cmd.Flags().StringVar(&engineName, "engine", "flat", "Index engine: flat or nclist")
	cmd.Flags().BoolVar(&littleEndian, "little-endian", false, "Order ties by end ascending (flat engine only)")
	cmd.Flags().BoolVar(&noUnnest, "no-unnest", false, "Disable the unnested top-level block (flat engine only)")

	return cmd
}

func runQuery(source string, regions []string, engineName string, littleEndian, noUnnest bool) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	features, err := loadFeatures(source, logger)
	if err != nil {
		return err
	}

	total := 0
	for _, fs := range features {
		total += len(fs)
	}
	logger.Info("loaded features",
		zap.String("source", source),
		zap.Int("chromosomes", len(features)),
		zap.Int("features", total))

	indexes := make(map[string]overlapIndex, len(features))
	for chrom, fs := range features {
		ivs := make([]interval.Interval, len(fs))
		for i, f := range fs {
			ivs[i] = f
		}
		index, err := buildEngine(engineName, ivs, littleEndian, noUnnest)
		if err != nil {
			return err
		}
		indexes[chrom] = index
	}

	for _, region := range regions {
		chrom, from, to, err := parseRegion(region)
		if err != nil {
			return err
		}
		index, ok := indexes[chrom]
		if !ok {
			fmt.Printf("%s\t0 overlaps\n", region)
			continue
		}
		overlaps := index.FindOverlaps(from, to)
		fmt.Printf("%s\t%d overlaps\n", region, len(overlaps))
		for _, iv := range overlaps {
			f := iv.(*interval.Feature)
			fmt.Printf("\t%s:%d-%d\t%s\n", chrom, f.Begin(), f.End(), f.Description)
		}
	}
	return nil
}

// loadFeatures picks the loader from the source file extension.
func loadFeatures(source string, logger *zap.Logger) (map[string][]*interval.Feature, error) {
	if strings.HasSuffix(source, ".duckdb") || strings.HasSuffix(source, ".db") {
		src, err := duckstore.Open(source)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.LoadAll()
	}

	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("source file: %w", err)
	}
	loader := bedio.NewLoader(source)
	loader.SetLogger(logger)
	return loader.Load()
}

func buildEngine(name string, ivs []interval.Interval, littleEndian, noUnnest bool) (overlapIndex, error) {
	switch name {
	case "flat":
		var opts []store.FlatOption
		if littleEndian {
			opts = append(opts, store.LittleEndian())
		}
		if noUnnest {
			opts = append(opts, store.NoUnnest())
		}
		return store.NewFlat(ivs, opts...), nil
	case "nclist":
		return store.NewStore(ivs), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (use flat or nclist)", name)
	}
}

// parseRegion parses a chrom:from-to region string.
func parseRegion(region string) (string, int32, int32, error) {
	chrom, span, ok := strings.Cut(region, ":")
	if !ok {
		return "", 0, 0, fmt.Errorf("invalid region %q: expected chrom:from-to", region)
	}
	fromStr, toStr, ok := strings.Cut(span, "-")
	if !ok {
		// a bare position is a zero-width query
		toStr = fromStr
	}
	from, err := strconv.ParseInt(fromStr, 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region %q: %w", region, err)
	}
	to, err := strconv.ParseInt(toStr, 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid region %q: %w", region, err)
	}
	if to < from {
		return "", 0, 0, fmt.Errorf("invalid region %q: end before start", region)
	}
	return strings.TrimPrefix(chrom, "chr"), int32(from), int32(to), nil
}
