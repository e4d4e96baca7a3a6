// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// WorkoutExercise join entity: loading it with its parent workout for
// ownership-chain checks, computing the next append position, and deleting
// it together with its sets.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
)

// ErrDuplicate indicates a unique-index violation: a concurrent writer
// claimed the same (workout_id, position) or (workout_exercise_id,
// set_number) ordinal, or an equivalent exercise name already exists.
var ErrDuplicate = errors.New("duplicate")

// ErrInUse indicates a RESTRICT foreign key rejected a delete because the
// target is still referenced (an exercise used by a workout).
var ErrInUse = errors.New("referenced by workout")

// IsDuplicate reports whether err is a unique-constraint violation, across
// drivers that may not map to gorm.ErrDuplicatedKey.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	// SQLite: "UNIQUE constraint failed"; Postgres: "duplicate key value
	// violates unique constraint".
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}

// isForeignKeyViolation detects RESTRICT/foreign-key failures for SQLite and
// Postgres wording.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}

// GetWorkoutExercise fetches a workout exercise by ID together with its
// parent Workout so callers can verify the ownership chain. Returns
// ErrNotFound when absent. No user filter here; ownership lives on the
// parent and is checked by the service.
func GetWorkoutExercise(ctx context.Context, db *gorm.DB, id string) (*domain.WorkoutExercise, error) {
	var we domain.WorkoutExercise
	err := db.WithContext(ctx).
		Preload("Workout").
		Where("id = ?", id).
		First(&we).Error
	if err != nil {
		return nil, err
	}
	return &we, nil
}

// NextPosition computes the append position for a workout: one past the
// current maximum, 0 when the workout has no exercises. Run inside the same
// transaction as the subsequent insert; the unique index turns the
// read-max-then-insert race into ErrDuplicate.
func NextPosition(ctx context.Context, db *gorm.DB, workoutID string) (int, error) {
	var row struct {
		Position int
	}
	res := db.WithContext(ctx).
		Model(&domain.WorkoutExercise{}).
		Select("position").
		Where("workout_id = ?", workoutID).
		Order("position desc").
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, nil
	}
	return row.Position + 1, nil
}

// CreateWorkoutExercise inserts the join row binding exerciseID to workoutID
// at the given position. Returns ErrDuplicate when the position was taken by
// a concurrent append.
func CreateWorkoutExercise(ctx context.Context, db *gorm.DB, workoutID, exerciseID string, position int) (*domain.WorkoutExercise, error) {
	we := &domain.WorkoutExercise{
		ID:         uuid.NewString(),
		WorkoutID:  workoutID,
		ExerciseID: exerciseID,
		Position:   position,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(we).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return we, nil
}

// DeleteWorkoutExercise removes the join row and all of its sets, sets
// first. Remaining positions keep their gaps; nothing is renumbered. The
// given db handle should be transaction-bound.
func DeleteWorkoutExercise(ctx context.Context, db *gorm.DB, id string) error {
	if err := db.WithContext(ctx).
		Where("workout_exercise_id = ?", id).
		Delete(&domain.Set{}).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.WorkoutExercise{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
