package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate is returned when a write hits a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate value")

	// ErrAlreadySet is returned by the set-once operations when the field
	// already holds a value (or the row does not exist).
	ErrAlreadySet = errors.New("field already set")
)

// isUniqueViolation matches uniqueness conflicts from both gorm's error
// translation and raw postgres errors (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}

// wrapStorage keeps persistence failures distinguishable from domain errors.
func wrapStorage(op string, err error) error {
	return fmt.Errorf("storage: %s: %w", op, err)
}
