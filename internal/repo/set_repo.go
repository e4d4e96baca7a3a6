// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Set model:
// two-level parent preloads for ownership-chain checks, next set number
// computation, insert, and delete.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
)

// GetSet fetches a set by ID together with its WorkoutExercise and that
// row's Workout, so callers can walk Set → WorkoutExercise → Workout → owner.
// Returns ErrNotFound when absent.
func GetSet(ctx context.Context, db *gorm.DB, id string) (*domain.Set, error) {
	var s domain.Set
	err := db.WithContext(ctx).
		Preload("WorkoutExercise").
		Preload("WorkoutExercise.Workout").
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// NextSetNumber computes the append set number for a workout exercise: one
// past the current maximum, 1 when no sets exist. Run inside the same
// transaction as the subsequent insert.
func NextSetNumber(ctx context.Context, db *gorm.DB, workoutExerciseID string) (int, error) {
	var row struct {
		SetNumber int
	}
	res := db.WithContext(ctx).
		Model(&domain.Set{}).
		Select("set_number").
		Where("workout_exercise_id = ?", workoutExerciseID).
		Order("set_number desc").
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 1, nil
	}
	return row.SetNumber + 1, nil
}

// CreateSet inserts a set with the given number, reps, and weight (either of
// which may be nil). Returns ErrDuplicate when the set number was taken by a
// concurrent append.
func CreateSet(ctx context.Context, db *gorm.DB, workoutExerciseID string, setNumber int, reps *int, weight *string) (*domain.Set, error) {
	s := &domain.Set{
		ID:                uuid.NewString(),
		WorkoutExerciseID: workoutExerciseID,
		SetNumber:         setNumber,
		Reps:              reps,
		Weight:            weight,
		CreatedAt:         time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s, nil
}

// DeleteSet removes a set by ID. Returns ErrNotFound when no row matched, so
// repeated deletes are idempotent from the caller's perspective.
func DeleteSet(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Set{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
