// Package duckdb caches enrichment results in a DuckDB database so reruns
// over the same cohort skip the service round trips for known variants.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-annotate/internal/annotate"
	"github.com/inodb/vibe-annotate/internal/vcf"
)

// Store manages a DuckDB connection holding cached annotations.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS annotations (
		chrom VARCHAR,
		pos VARCHAR,
		ref VARCHAR,
		alt VARCHAR,
		effect VARCHAR,
		allele_freq VARCHAR,
		PRIMARY KEY (chrom, pos, ref, alt)
	)`)
	return err
}

// Lookup returns cached annotations for the given variants, keyed by
// Variant.Key(). Variants without a cached row are simply absent from the
// result.
func (s *Store) Lookup(variants []*vcf.Variant) (map[string]annotate.CachedAnnotation, error) {
	stmt, err := s.db.Prepare(`SELECT effect, allele_freq FROM annotations
		WHERE chrom=? AND pos=? AND ref=? AND alt=?`)
	if err != nil {
		return nil, fmt.Errorf("prepare lookup: %w", err)
	}
	defer stmt.Close()

	found := make(map[string]annotate.CachedAnnotation)
	for _, v := range variants {
		var ann annotate.CachedAnnotation
		err := stmt.QueryRow(v.Chrom, v.Pos, v.Ref, v.Alt).Scan(&ann.Effect, &ann.AlleleFreq)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup annotation: %w", err)
		}
		found[v.Key()] = ann
	}

	return found, nil
}

// Save upserts the enrichment fields of already-enriched variants. Rows from
// earlier runs are replaced, so a variant re-fetched after a service-side
// update keeps the newest annotation.
func (s *Store) Save(variants []*vcf.Variant) error {
	if len(variants) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO annotations
		(chrom, pos, ref, alt, effect, allele_freq)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range variants {
		if _, err := stmt.Exec(v.Chrom, v.Pos, v.Ref, v.Alt, v.Effect(), v.AlleleFreq()); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert annotation: %w", err)
		}
	}

	return tx.Commit()
}

// Count returns how many annotations are cached.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM annotations").Scan(&n); err != nil {
		return 0, fmt.Errorf("count annotations: %w", err)
	}
	return n, nil
}
