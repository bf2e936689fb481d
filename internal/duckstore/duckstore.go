// Package duckstore loads interval features from a DuckDB database.
package duckstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-intervals/interval"
)

// Source provides access to features stored in a DuckDB database with a
// features(chrom, start, end_, name) table.
type Source struct {
	db   *sql.DB
	path string
}

// Open opens a DuckDB database. The path can be a local file, an empty
// string for an in-memory database, or an S3 URL (s3://bucket/path.duckdb).
func Open(path string) (*Source, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// Enable httpfs extension for S3 support
	if strings.HasPrefix(path, "s3://") {
		if _, err := db.Exec("INSTALL httpfs; LOAD httpfs;"); err != nil {
			db.Close()
			return nil, fmt.Errorf("load httpfs extension: %w", err)
		}
	}

	return &Source{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// CreateSchema creates the features table if it does not exist.
func (s *Source) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS features (
			chrom VARCHAR NOT NULL,
			start INTEGER NOT NULL,
			end_ INTEGER NOT NULL,
			name VARCHAR
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertFeature inserts one feature for a chromosome.
func (s *Source) InsertFeature(chrom string, f *interval.Feature) error {
	_, err := s.db.Exec(`
		INSERT INTO features (chrom, start, end_, name) VALUES (?, ?, ?, ?)
	`, chrom, f.Begin(), f.End(), f.Description)
	if err != nil {
		return fmt.Errorf("insert feature: %w", err)
	}
	return nil
}

// LoadAll returns all features grouped by chromosome.
func (s *Source) LoadAll() (map[string][]*interval.Feature, error) {
	rows, err := s.db.Query(`
		SELECT chrom, start, end_, name
		FROM features
		ORDER BY chrom, start
	`)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	features := make(map[string][]*interval.Feature)
	for rows.Next() {
		chrom, f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features[chrom] = append(features[chrom], f)
	}
	return features, rows.Err()
}

// LoadChromosome returns all features for one chromosome.
func (s *Source) LoadChromosome(chrom string) ([]*interval.Feature, error) {
	rows, err := s.db.Query(`
		SELECT chrom, start, end_, name
		FROM features
		WHERE chrom = ?
		ORDER BY start
	`, chrom)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	var features []*interval.Feature
	for rows.Next() {
		_, f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// FindOverlaps pushes an overlap query down to the database. Used to
// cross-check the in-memory engines against SQL answers.
func (s *Source) FindOverlaps(chrom string, from, to int32) ([]*interval.Feature, error) {
	rows, err := s.db.Query(`
		SELECT chrom, start, end_, name
		FROM features
		WHERE chrom = ? AND start <= ? AND end_ >= ?
		ORDER BY start
	`, chrom, to, from)
	if err != nil {
		return nil, fmt.Errorf("query overlaps: %w", err)
	}
	defer rows.Close()

	var features []*interval.Feature
	for rows.Next() {
		_, f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

func scanFeature(rows *sql.Rows) (string, *interval.Feature, error) {
	var (
		chrom      string
		start, end int32
		name       sql.NullString
	)
	if err := rows.Scan(&chrom, &start, &end, &name); err != nil {
		return "", nil, fmt.Errorf("scan feature: %w", err)
	}
	desc := name.String
	if desc == "" {
		desc = fmt.Sprintf("%s:%d-%d", chrom, start, end)
	}
	return chrom, interval.NewFeature(start, end, desc), nil
}
