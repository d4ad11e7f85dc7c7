// Package store is the Store Gateway (spec.md section 4.1): the only
// component that opens a connection to the backing relational store. It
// wraps a *sql.DB the way the teacher's internal/repository wraps one per
// entity, plus an in-process bleve index standing in for the store's BM25
// extension.
package store

import (
	_ "embed"
	"database/sql"
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

//go:embed schema.sql
var schemaSQL string

// Store is the Store Gateway. All Store Gateway operations in spec.md
// section 4.1 are methods on this type, split across the files in this
// package by entity the way the teacher splits ArticleRepository and
// SummaryRepository.
type Store struct {
	db   *sql.DB
	text bleve.Index
}

// Open connects to Postgres, applies the schema, and opens (or builds) the
// full-text index. textIndexPath may be empty to use an in-memory index,
// useful for tests.
func Open(db *sql.DB, textIndexPath string) (*Store, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	idx, err := openTextIndex(textIndexPath)
	if err != nil {
		return nil, fmt.Errorf("open text index: %w", err)
	}

	return &Store{db: db, text: idx}, nil
}

func (s *Store) Close() error {
	if s.text != nil {
		s.text.Close()
	}
	return nil
}

// classifyPGError maps a Postgres driver error onto the Store Gateway's
// failure taxonomy (spec.md section 4.1): sql.ErrNoRows becomes NotFound;
// unique, foreign-key, not-null and check violations are fatal
// ConstraintViolation errors; everything else that reaches here after a
// query attempt is treated as StoreUnavailable so the runtime retries it.
func classifyPGError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
