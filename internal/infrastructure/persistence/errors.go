package persistence

import (
	"errors"
	"strings"

	"github.com/verone/backoffice/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// isUniqueViolation matches translated and raw duplicate key errors
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// wrapErr maps a GORM error onto the domain error vocabulary
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case isUniqueViolation(err):
		return shared.ErrConcurrencyConflict
	default:
		return shared.NewPersistenceError(op, err)
	}
}

// lockForUpdate adds FOR UPDATE when the dialect supports row locks.
// SQLite serializes writers and relies on unique indexes instead.
func lockForUpdate(db *gorm.DB, forUpdate bool) *gorm.DB {
	if !forUpdate || db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
