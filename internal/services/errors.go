// Package services defines the business logic for the workout aggregate:
// the exercise catalog, workout sessions, and the exercise/set mutations.
// This file centralizes common service-level error values so that they can
// be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; the
// handler layer translates them into HTTP statuses. Ownership failures map
// to the same "not found" errors as genuinely missing records; the two are
// deliberately indistinguishable so the API never leaks which IDs exist.
package services

import "errors"

var (
	// ErrWorkoutNotFound indicates that the requested workout does not
	// exist or is not owned by the acting user.
	ErrWorkoutNotFound = errors.New("workout not found")

	// ErrWorkoutExerciseNotFound indicates that the requested workout
	// exercise does not exist or its parent workout is not owned by the
	// acting user.
	ErrWorkoutExerciseNotFound = errors.New("workout exercise not found")

	// ErrSetNotFound indicates that the requested set does not exist or its
	// workout (via the parent chain) is not owned by the acting user.
	ErrSetNotFound = errors.New("set not found")

	// ErrEmptyExerciseName is returned when an exercise name is blank after
	// trimming.
	ErrEmptyExerciseName = errors.New("exercise name is empty")

	// ErrExerciseInUse is returned when deleting an exercise that is still
	// referenced by at least one workout.
	ErrExerciseInUse = errors.New("exercise is referenced by a workout")

	// ErrOrdinalConflict is returned when a concurrent append claimed the
	// same position/set number twice in a row; the whole add operation is
	// retried once internally before this surfaces.
	ErrOrdinalConflict = errors.New("ordinal conflict")
)
