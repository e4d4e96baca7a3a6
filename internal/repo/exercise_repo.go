// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Exercise
// model, the per-user exercise library.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an exercise is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - Creating a duplicate (user_id, name) pair returns ErrDuplicate; the
//     NOCASE collation on the name column makes the unique index
//     case-insensitive, which is the concurrency backstop for get-or-create.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for convenience and consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateExercise inserts a new library entry owned by userID. Name must
// already be trimmed by the caller. Returns ErrDuplicate when the owner
// already has an exercise with the same name (any casing).
func CreateExercise(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error) {
	e := &domain.Exercise{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return e, nil
}

// ListExercises returns all library entries for userID ordered by name
// ascending. An empty slice is returned when the user has none.
func ListExercises(ctx context.Context, db *gorm.DB, userID string) ([]domain.Exercise, error) {
	var out []domain.Exercise
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc").
		Find(&out).Error
	return out, err
}

// CountExercises returns the total number of library entries for userID.
func CountExercises(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Exercise{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListExercisesPage returns a paginated slice of library entries for userID,
// name ascending. Use CountExercises for pagination metadata.
func ListExercisesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Exercise, error) {
	var out []domain.Exercise
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetExerciseByName fetches the owner's exercise whose name matches the
// given name case-insensitively (SQL LOWER; the service layer additionally
// fold-matches for non-ASCII names). Returns ErrNotFound when absent.
func GetExerciseByName(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error) {
	var e domain.Exercise
	err := db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteExercise removes a library entry owned by userID. The schema-level
// RESTRICT constraint rejects the delete while any workout still references
// the exercise; that surfaces as ErrInUse. Not exposed over HTTP, kept for
// embedders and exercised by tests.
func DeleteExercise(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Exercise{})
	if res.Error != nil {
		if isForeignKeyViolation(res.Error) {
			return ErrInUse
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
