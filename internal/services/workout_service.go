// Package services: WorkoutService.
//
// This file implements the WorkoutService, which manages the lifecycle of
// workout sessions: create, read (single aggregate or per-day list), rename/
// reschedule, and cascading delete. It normalizes names, maps repository
// not-found results onto service sentinels, and wraps the cascade delete in
// one transaction so the aggregate is removed as a unit.
//
// Ownership failures surface as ErrWorkoutNotFound, identical to genuinely
// missing records, so handlers cannot leak the existence of other users'
// workouts.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
)

// WorkoutRepo defines the repository contract required by WorkoutService.
type WorkoutRepo interface {
	// CreateWorkout inserts a new workout row for the given user.
	CreateWorkout(ctx context.Context, db *gorm.DB, userID string, name *string, date string) (*domain.Workout, error)

	// GetWorkout fetches one workout with its ordered aggregate, enforcing
	// ownership in the lookup predicate.
	GetWorkout(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Workout, error)

	// ListWorkoutsByDate returns the owner's workouts for one calendar day.
	ListWorkoutsByDate(ctx context.Context, db *gorm.DB, userID, date string) ([]domain.Workout, error)

	// UpdateWorkout sets name/date when owned.
	UpdateWorkout(ctx context.Context, db *gorm.DB, id, userID string, name *string, date string) error

	// DeleteWorkout removes the aggregate bottom-up and returns the deleted
	// record.
	DeleteWorkout(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Workout, error)
}

// WorkoutService provides workout-session operations. It enforces name
// normalization and ownership mapping; ordinal-bearing mutations live in
// WorkoutExerciseService.
type WorkoutService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the workout repository used by this service.
	Repo WorkoutRepo

	// NameMaxLen caps stored workout names by rune length.
	NameMaxLen int
}

// NewWorkoutService constructs a WorkoutService with the API's name cap.
func NewWorkoutService(db *gorm.DB, r WorkoutRepo) *WorkoutService {
	return &WorkoutService{
		DB:         db,
		Repo:       r,
		NameMaxLen: 100,
	}
}

// Create inserts a new workout owned by userID on the given calendar date.
// The name is normalized and clipped; lifecycle timestamps begin unset.
func (s *WorkoutService) Create(ctx context.Context, userID, name, date string) (*domain.Workout, error) {
	n := s.normalize(name)
	return s.Repo.CreateWorkout(ctx, s.DB, userID, n, date)
}

// GetByID returns the full ordered aggregate, or ErrWorkoutNotFound when
// missing or not owned.
func (s *WorkoutService) GetByID(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	w, err := s.Repo.GetWorkout(ctx, s.DB, workoutID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return w, nil
}

// ListByDate returns the owner's workouts on one day, started_at ascending
// (not-started first). The slice may be empty.
func (s *WorkoutService) ListByDate(ctx context.Context, userID, date string) ([]domain.Workout, error) {
	return s.Repo.ListWorkoutsByDate(ctx, s.DB, userID, date)
}

// Update renames and/or reschedules a workout owned by userID. Only name and
// date are touched; StartedAt/CompletedAt are left alone. Returns
// ErrWorkoutNotFound when missing or not owned.
func (s *WorkoutService) Update(ctx context.Context, userID, workoutID, name, date string) (*domain.Workout, error) {
	n := s.normalize(name)
	if err := s.Repo.UpdateWorkout(ctx, s.DB, workoutID, userID, n, date); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return s.GetByID(ctx, userID, workoutID)
}

// Delete removes the workout and everything underneath it (workout exercises
// and their sets) in one transaction, and returns the deleted record.
// Deleting an already-deleted id returns ErrWorkoutNotFound, so deletes are
// idempotent from the caller's perspective.
func (s *WorkoutService) Delete(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	var deleted *domain.Workout
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := s.Repo.DeleteWorkout(ctx, tx, workoutID, userID)
		if err != nil {
			return err
		}
		deleted = w
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return deleted, nil
}

// normalize trims whitespace, collapses runs of spaces, and clips to the
// configured length. Returns nil for a blank result so the column stores
// NULL rather than an empty string.
func (s *WorkoutService) normalize(name string) *string {
	n := strings.Join(strings.Fields(strings.TrimSpace(name)), " ")
	if n == "" {
		return nil
	}
	if s.NameMaxLen > 0 && utf8.RuneCountInString(n) > s.NameMaxLen {
		n = string([]rune(n)[:s.NameMaxLen])
	}
	return &n
}
