package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"missionhub_backend/internals/features/missions/model"
)

// MissionStore is the relational collaborator. The real implementation
// lives in the repository package; tests substitute an in-memory fake.
type MissionStore interface {
	UIDExists(ctx context.Context, uid string) (bool, error)
	UsedOrderNumbers(ctx context.Context) ([]int, error)
	Insert(ctx context.Context, fields map[string]interface{}) error
	UpdateByUID(ctx context.Context, uid string, fields map[string]interface{}) error
	GetByUID(ctx context.Context, uid string) (*model.MissionModel, error)
}

// ConflictError: an explicitly chosen mission UID already exists, or the
// store's uniqueness constraint fired on insert.
type ConflictError struct {
	UID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("mission %q already exists", e.UID)
}

var ErrMissingDocument = errors.New("mission document is required")

// IsSchemaMismatch recognizes the "missing column" error class that
// triggers degradation to a narrower field set. Postgres reports
// undefined_column as 42703; hosted schema caches surface the same problem
// as a message-level mismatch.
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42703" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "does not exist") ||
		strings.Contains(msg, "unknown column") ||
		strings.Contains(msg, "schema cache")
}

// IsUniqueViolation recognizes the store's uniqueness backstop (23505).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
