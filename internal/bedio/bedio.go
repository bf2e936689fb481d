// Package bedio loads genomic features from BED files into interval
// payloads.
package bedio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/inodb/vibe-intervals/interval"
)

// Loader reads BED3/BED4 files, plain or gzipped.
type Loader struct {
	path   string
	logger *zap.Logger
}

// NewLoader creates a new BED loader.
func NewLoader(path string) *Loader {
	return &Loader{path: path, logger: zap.NewNop()}
}

// SetLogger sets the logger for warnings about skipped lines.
func (l *Loader) SetLogger(lg *zap.Logger) {
	l.logger = lg
}

// Load parses the whole file and returns features grouped by chromosome.
// BED coordinates are half-open and 0-based; features are converted to
// 1-based inclusive intervals. Malformed lines are skipped with a warning.
func (l *Loader) Load() (map[string][]*interval.Feature, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open BED file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(l.path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.parse(reader)
}

// parse reads BED content line by line.
func (l *Loader) parse(reader io.Reader) (map[string][]*interval.Feature, error) {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	features := make(map[string][]*interval.Feature)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip headers, comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}

		chrom, feat, err := parseLine(line)
		if err != nil {
			l.logger.Warn("skipping malformed BED line",
				zap.Int("line", lineNum), zap.Error(err))
			continue
		}
		features[chrom] = append(features[chrom], feat)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read BED file: %w", err)
	}

	return features, nil
}

// parseLine parses one BED line into a chromosome and feature.
func parseLine(line string) (string, *interval.Feature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		// some BED writers use spaces
		fields = strings.Fields(line)
	}
	if len(fields) < 3 {
		return "", nil, fmt.Errorf("expected at least 3 fields, got %d", len(fields))
	}

	chrom := normalizeChrom(fields[0])
	start, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return "", nil, fmt.Errorf("parse start: %w", err)
	}
	end, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return "", nil, fmt.Errorf("parse end: %w", err)
	}
	if end <= start {
		return "", nil, fmt.Errorf("empty interval %d-%d", start, end)
	}

	name := ""
	if len(fields) >= 4 {
		name = fields[3]
	}
	if name == "" || name == "." {
		name = fmt.Sprintf("%s:%d-%d", chrom, start, end)
	}

	// convert 0-based half-open to 1-based inclusive
	return chrom, interval.NewFeature(int32(start)+1, int32(end), name), nil
}

// normalizeChrom strips any leading "chr" prefix.
func normalizeChrom(chrom string) string {
	return strings.TrimPrefix(chrom, "chr")
}
