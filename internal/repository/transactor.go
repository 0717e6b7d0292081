package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrStaleVersion signals that an optimistic-lock update matched no row:
// another writer got there first and the caller's view is stale.
var ErrStaleVersion = errors.New("stale version")

// Transactor runs a function inside a single database transaction.
// Repositories joined via WithTx share that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor constructs a gorm-backed transactor.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}
