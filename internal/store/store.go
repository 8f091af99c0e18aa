// Package store is the persistent repository for every entity. Queries are
// plain functions of the current rows; there is no cache above the
// transaction boundary.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/models"
)

// Store wraps a gorm handle. Inside Transaction the handle is the open tx.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(models.All()...)
}

// Transaction runs fn inside one database transaction. Any error rolls back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// forUpdate adds a row lock where the dialect supports one. SQLite has no
// row locks; it serializes writers on the database lock instead.
func (s *Store) forUpdate(db *gorm.DB) *gorm.DB {
	if s.db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// Page is an offset/limit window: offset=From, limit=Size.
type Page struct {
	From int
	Size int
}

// NewPage validates paging parameters.
func NewPage(from, size int) (Page, error) {
	if from < 0 {
		return Page{}, apperr.Validation("Parameter from must be zero or positive, got %d", from)
	}
	if size <= 0 {
		return Page{}, apperr.Validation("Parameter size must be positive, got %d", size)
	}
	return Page{From: from, Size: size}, nil
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	return db.Offset(p.From).Limit(p.Size)
}

func notFoundOr(err error, notFound *apperr.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperr.Internal("db error: "+err.Error(), err)
}

func dbError(err error) error {
	if err == nil {
		return nil
	}
	return apperr.Internal("db error: "+err.Error(), err)
}

// duplicateOr maps unique-index violations to a conflict.
func duplicateOr(err error, conflict *apperr.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		conflict.Cause = err
		return conflict
	}
	return dbError(err)
}
