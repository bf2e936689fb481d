// Package benchtool generates synthetic interval loads and times the store
// engines against them.
package benchtool

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/stat"

	"github.com/inodb/vibe-intervals/interval"
)

// Engine is the store surface the harness drives.
type Engine interface {
	Size() int
	AppendOverlaps(from, to int32, result []interval.Interval) []interval.Interval
}

// Config describes one synthetic load.
type Config struct {
	Count     int   // intervals to generate
	SeqWidth  int32 // coordinate space width
	MaxLength int32 // maximum interval length
	Queries   int   // number of windowed queries
	Window    int32 // query window width
	Seed      int64 // RNG seed, for reproducible loads
}

// Spec names an engine constructor to benchmark.
type Spec struct {
	Name  string
	Build func([]interval.Interval) Engine
}

// Result holds the timings for one engine over one load.
type Result struct {
	Name      string
	Count     int
	BuildTime time.Duration
	Queries   int
	QueryTime time.Duration
	Hits      int
	latencies []float64 // seconds, sorted
}

// Generate produces a reproducible random feature set for the load.
func Generate(cfg Config) []interval.Interval {
	rng := rand.New(rand.NewSource(cfg.Seed))
	maxLength := cfg.MaxLength
	if maxLength < 1 {
		maxLength = 1
	}
	ivs := make([]interval.Interval, cfg.Count)
	for i := range ivs {
		start := int32(rng.Intn(int(cfg.SeqWidth)))
		ivs[i] = interval.NewFeature(start, start+int32(rng.Intn(int(maxLength))),
			fmt.Sprintf("f%d", i))
	}
	return ivs
}

// Run builds the engine from a fresh copy of ivs and times the query load.
func Run(spec Spec, cfg Config, ivs []interval.Interval) Result {
	data := make([]interval.Interval, len(ivs))
	copy(data, ivs)

	buildStart := time.Now()
	engine := spec.Build(data)
	// an initial query forces any deferred finalisation into the build time
	buf := engine.AppendOverlaps(0, 0, nil)
	buildTime := time.Since(buildStart)

	rng := rand.New(rand.NewSource(cfg.Seed + 1))
	result := Result{
		Name:      spec.Name,
		Count:     engine.Size(),
		BuildTime: buildTime,
		Queries:   cfg.Queries,
		latencies: make([]float64, 0, cfg.Queries),
	}

	span := cfg.SeqWidth - cfg.Window
	if span < 1 {
		span = 1
	}
	queryStart := time.Now()
	for q := 0; q < cfg.Queries; q++ {
		from := int32(rng.Intn(int(span)))
		t0 := time.Now()
		buf = engine.AppendOverlaps(from, from+cfg.Window, buf[:0])
		result.latencies = append(result.latencies, time.Since(t0).Seconds())
		result.Hits += len(buf)
	}
	result.QueryTime = time.Since(queryStart)
	sort.Float64s(result.latencies)
	return result
}

// RunAll benchmarks every engine spec concurrently over the same generated
// load, answering results in spec order.
func RunAll(specs []Spec, cfg Config) []Result {
	ivs := Generate(cfg)
	results := make([]Result, len(specs))

	var wg sync.WaitGroup
	wg.Add(len(specs))
	for i, spec := range specs {
		go func(i int, spec Spec) {
			defer wg.Done()
			results[i] = Run(spec, cfg, ivs)
		}(i, spec)
	}
	wg.Wait()
	return results
}

// Quantile answers the p-quantile of the per-query latency, in seconds.
func (r Result) Quantile(p float64) float64 {
	if len(r.latencies) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, r.latencies, nil)
}

// RenderTable writes the results as a table.
func RenderTable(w io.Writer, results []Result) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{
		"engine", "intervals", "build", "queries", "total", "p50", "p99", "hits",
	})
	for _, r := range results {
		tbl.AppendRow(table.Row{
			r.Name,
			humanize.Comma(int64(r.Count)),
			r.BuildTime.Round(time.Microsecond),
			humanize.Comma(int64(r.Queries)),
			r.QueryTime.Round(time.Microsecond),
			formatSeconds(r.Quantile(0.50)),
			formatSeconds(r.Quantile(0.99)),
			humanize.Comma(int64(r.Hits)),
		})
	}
	tbl.Render()
}

func formatSeconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(100 * time.Nanosecond).String()
}
