// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Workout
// model and its aggregate reads.
//
// Ownership is enforced by the lookup predicate itself (id AND user_id), not
// by a post-check, so "does not exist" and "not yours" are indistinguishable
// by construction.
//
// Functions:
//
//   - CreateWorkout(ctx, db, userID, name, date) -> *domain.Workout, error
//     Inserts a new workout with UUID primary key; lifecycle timestamps unset.
//
//   - GetWorkout(ctx, db, id, userID) -> *domain.Workout, error
//     Fetches one workout with its exercises (position ASC), each exercise's
//     library entry, and its sets (set_number ASC). ErrNotFound when missing
//     or not owned.
//
//   - ListWorkoutsByDate(ctx, db, userID, date) -> []domain.Workout, error
//     All of the owner's workouts on one calendar day, started_at ascending.
//     Workouts that have not started (NULL started_at) sort first, SQLite's
//     default NULL placement, relied upon and pinned by tests.
//
//   - UpdateWorkout(ctx, db, id, userID, name, date) -> error
//     Updates name/date when owned; ErrNotFound otherwise.
//
//   - DeleteWorkout(ctx, db, id, userID) -> *domain.Workout, error
//     Deletes the aggregate bottom-up (sets, workout_exercises, workout).
//     Callers wrap it in a transaction; see WorkoutService.Delete.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
)

// aggregateScope preloads the ordered aggregate body under a workout query.
func aggregateScope(q *gorm.DB) *gorm.DB {
	return q.
		Preload("WorkoutExercises", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("WorkoutExercises.Exercise").
		Preload("WorkoutExercises.Sets", func(db *gorm.DB) *gorm.DB {
			return db.Order("set_number asc")
		})
}

// CreateWorkout inserts a new workout owned by userID for the given calendar
// date. Name may be nil; StartedAt/CompletedAt begin unset.
func CreateWorkout(ctx context.Context, db *gorm.DB, userID string, name *string, date string) (*domain.Workout, error) {
	w := &domain.Workout{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Date:   date,
	}
	if err := db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// GetWorkout fetches a single workout by its ID and owner with the full
// ordered aggregate. Returns ErrNotFound when the record does not exist or
// belongs to another user.
func GetWorkout(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Workout, error) {
	var w domain.Workout
	err := aggregateScope(db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkoutsByDate returns the owner's workouts on the given calendar day,
// each with the full ordered aggregate, sorted by started_at ascending with
// not-started workouts (NULL started_at) first.
func ListWorkoutsByDate(ctx context.Context, db *gorm.DB, userID, date string) ([]domain.Workout, error) {
	var out []domain.Workout
	err := aggregateScope(db.WithContext(ctx)).
		Where("user_id = ? AND date = ?", userID, date).
		Order("started_at asc, id asc").
		Find(&out).Error
	return out, err
}

// UpdateWorkout sets name and date on a workout owned by userID. Returns
// ErrNotFound when no row matched (missing or not owned).
func UpdateWorkout(ctx context.Context, db *gorm.DB, id, userID string, name *string, date string) error {
	res := db.WithContext(ctx).
		Model(&domain.Workout{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"name": name, "date": date})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWorkout removes a workout owned by userID together with all of its
// workout_exercises and their sets, children first. The explicit bottom-up
// order keeps the delete correct even on connections where the driver has
// not enabled FK cascades. It returns the deleted record (without aggregate
// body) or ErrNotFound.
//
// The given db handle should be transaction-bound so the three deletes are
// one atomic unit.
func DeleteWorkout(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Workout, error) {
	var w domain.Workout
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&w).Error
	if err != nil {
		return nil, err
	}

	weIDs := db.WithContext(ctx).
		Model(&domain.WorkoutExercise{}).
		Select("id").
		Where("workout_id = ?", w.ID)

	if err := db.WithContext(ctx).
		Where("workout_exercise_id IN (?)", weIDs).
		Delete(&domain.Set{}).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Where("workout_id = ?", w.ID).
		Delete(&domain.WorkoutExercise{}).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// CountWorkoutsByDate returns how many workouts the owner has on one day.
func CountWorkoutsByDate(ctx context.Context, db *gorm.DB, userID, date string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Workout{}).
		Where("user_id = ? AND date = ?", userID, date).
		Count(&total).Error
	return total, err
}
