// Package services: WorkoutExerciseService.
//
// This file implements the densest part of the application: attaching and
// detaching exercises and sets on a workout while holding two invariants.
// First, ownership: every mutation walks the parent chain (Set →
// WorkoutExercise → Workout) and compares the workout's owner to the acting
// user; a mismatch surfaces as the same not-found sentinel as a missing
// record. Second, ordinals: positions and set numbers are appended as
// max+1 inside a transaction, with the unique indexes converting a
// concurrent duplicate append into a conflict that is retried whole exactly
// once (the ordinal is re-derived, never reused).
//
// Observability: the public methods are OpenTelemetry-instrumented; spans
// carry the workout/exercise/set identifiers.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-workout-backend/internal/domain"
	"github.com/tbourn/go-workout-backend/internal/repo"
)

// SetInput carries the optional measurements for a new set. Nil fields are
// stored as NULL (a planned set with nothing logged yet). Weight must
// already be validated as decimal text with at most two fraction digits.
type SetInput struct {
	Reps   *int
	Weight *string
}

// WorkoutExerciseService implements the multi-entity mutations on the
// workout aggregate. Catalog lookups go through the embedded
// ExerciseService so AddExercise can get-or-create inside its transaction.
type WorkoutExerciseService struct {
	// DB is the database handle; each mutation opens its own transaction.
	DB *gorm.DB
	// Catalog resolves exercise names to library entries.
	Catalog *ExerciseService
	// IdemTTL bounds how long a recorded Idempotency-Key replays the
	// original result. Zero means the 24h default.
	IdemTTL time.Duration
}

// AddExercise appends the named exercise to the workout.
//
// Semantics:
//   - The name is resolved via the catalog's get-or-create (trimmed,
//     case-insensitive), scoped to userID.
//   - The workout must exist and belong to userID; otherwise
//     ErrWorkoutNotFound (never a distinct "forbidden").
//   - The new row takes position max+1, or 0 for the first exercise, so
//     appended exercises always order after all existing ones.
//
// Concurrency & atomicity:
//   - Resolution, ownership check, position derivation, and insert run in
//     one transaction. A duplicate-position conflict from a concurrent
//     append rolls the transaction back and the whole sequence runs once
//     more with a freshly derived position; a second conflict surfaces as
//     ErrOrdinalConflict.
func (s *WorkoutExerciseService) AddExercise(ctx context.Context, userID, workoutID, exerciseName string) (*domain.WorkoutExercise, error) {
	tr := otel.Tracer("services/WorkoutExerciseService")
	ctx, span := tr.Start(ctx, "AddExercise",
		trace.WithAttributes(
			attribute.String("workout.id", workoutID),
			attribute.String("user.id", userID),
		))
	defer span.End()

	var we *domain.WorkoutExercise
	attempt := func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ex, err := s.Catalog.GetOrCreate(ctx, tx, userID, exerciseName)
			if err != nil {
				return err
			}

			if _, err := repo.GetWorkout(ctx, tx, workoutID, userID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrWorkoutNotFound
				}
				return err
			}

			pos, err := repo.NextPosition(ctx, tx, workoutID)
			if err != nil {
				return err
			}

			created, err := repo.CreateWorkoutExercise(ctx, tx, workoutID, ex.ID, pos)
			if err != nil {
				return err
			}
			we = created
			return nil
		})
	}

	err := attempt()
	if errors.Is(err, repo.ErrDuplicate) {
		// Lost the append race; re-derive the position once.
		err = attempt()
		if errors.Is(err, repo.ErrDuplicate) {
			err = ErrOrdinalConflict
		}
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("workout_exercise.id", we.ID),
		attribute.Int("workout_exercise.order", we.Position),
	)
	return we, nil
}

// RemoveExercise detaches a workout exercise and deletes its sets. When the
// row is missing or its parent workout belongs to someone else, it returns
// ErrWorkoutExerciseNotFound without mutating anything. Remaining positions
// keep their gaps.
func (s *WorkoutExerciseService) RemoveExercise(ctx context.Context, userID, workoutExerciseID string) error {
	tr := otel.Tracer("services/WorkoutExerciseService")
	ctx, span := tr.Start(ctx, "RemoveExercise",
		trace.WithAttributes(
			attribute.String("workout_exercise.id", workoutExerciseID),
			attribute.String("user.id", userID),
		))
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		we, err := repo.GetWorkoutExercise(ctx, tx, workoutExerciseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkoutExerciseNotFound
			}
			return err
		}
		if we.Workout.UserID != userID {
			return ErrWorkoutExerciseNotFound
		}
		return repo.DeleteWorkoutExercise(ctx, tx, we.ID)
	})
}

// AddSet appends a set under a workout exercise. Ownership is verified via
// the parent workout; a missing or foreign row yields
// ErrWorkoutExerciseNotFound. The set number is max+1, starting at 1, with
// the same transaction-plus-retry-once discipline as AddExercise.
func (s *WorkoutExerciseService) AddSet(ctx context.Context, userID, workoutExerciseID string, in SetInput) (*domain.Set, error) {
	tr := otel.Tracer("services/WorkoutExerciseService")
	ctx, span := tr.Start(ctx, "AddSet",
		trace.WithAttributes(
			attribute.String("workout_exercise.id", workoutExerciseID),
			attribute.String("user.id", userID),
		))
	defer span.End()

	var set *domain.Set
	attempt := func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			we, err := repo.GetWorkoutExercise(ctx, tx, workoutExerciseID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrWorkoutExerciseNotFound
				}
				return err
			}
			if we.Workout.UserID != userID {
				return ErrWorkoutExerciseNotFound
			}

			num, err := repo.NextSetNumber(ctx, tx, we.ID)
			if err != nil {
				return err
			}

			created, err := repo.CreateSet(ctx, tx, we.ID, num, in.Reps, in.Weight)
			if err != nil {
				return err
			}
			set = created
			return nil
		})
	}

	err := attempt()
	if errors.Is(err, repo.ErrDuplicate) {
		err = attempt()
		if errors.Is(err, repo.ErrDuplicate) {
			err = ErrOrdinalConflict
		}
	}
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("set.id", set.ID),
		attribute.Int("set.number", set.SetNumber),
	)
	return set, nil
}

// RemoveSet deletes a set after verifying ownership through both parents
// (set → workout exercise → workout). Missing or foreign rows yield
// ErrSetNotFound with no mutation; repeated removal is therefore idempotent.
func (s *WorkoutExerciseService) RemoveSet(ctx context.Context, userID, setID string) error {
	tr := otel.Tracer("services/WorkoutExerciseService")
	ctx, span := tr.Start(ctx, "RemoveSet",
		trace.WithAttributes(
			attribute.String("set.id", setID),
			attribute.String("user.id", userID),
		))
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		set, err := repo.GetSet(ctx, tx, setID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSetNotFound
			}
			return err
		}
		if set.WorkoutExercise.Workout.UserID != userID {
			return ErrSetNotFound
		}
		return repo.DeleteSet(ctx, tx, set.ID)
	})
}
