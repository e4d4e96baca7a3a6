// Package domain defines the persistence models for the workout aggregate:
// the per-user exercise library, workout sessions, the join entity binding
// an exercise to a workout at a position, and the sets logged underneath it.
// These types are mapped with GORM and form the core data layer of the
// application.
package domain

import "time"

// Exercise is one entry in a user's exercise library. Exercises are created
// lazily the first time a name is referenced and are unique per owner by
// case-insensitive name.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owning user; part of the uniqueness scope.
//   - Name: trimmed display name. The column collates NOCASE so the unique
//     index enforces case-insensitive uniqueness per owner.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Exercise struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_exercises_user_name,priority:1"`
	Name      string    `json:"name"       gorm:"type:varchar(255) COLLATE NOCASE;not null;uniqueIndex:ux_exercises_user_name,priority:2"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Exercise.
func (Exercise) TableName() string { return "exercises" }

// Workout represents one training session on one calendar day.
//
// Lifecycle is carried by the two optional timestamps: neither set means the
// workout has not started, StartedAt alone means in progress, both set means
// completed. The mutation operations in this module only ever touch Name and
// Date; the timestamps belong to the session-tracking surface.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: owner; every access is scoped by this column.
//   - Name: optional session label (1-100 chars where provided via the API).
//   - Date: calendar day in ISO form (YYYY-MM-DD), no time component.
//   - StartedAt / CompletedAt: optional lifecycle timestamps.
type Workout struct {
	ID          string     `json:"id"                     gorm:"type:char(36);primaryKey"`
	UserID      string     `json:"user_id"                gorm:"type:varchar(64);not null;index:idx_workouts_user_date,priority:1"`
	Name        *string    `json:"name,omitempty"         gorm:"type:varchar(100)"`
	Date        string     `json:"date"                   gorm:"type:date;not null;index:idx_workouts_user_date,priority:2"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// WorkoutExercises is the ordered aggregate body; the repo layer
	// populates it with position-ascending preloads.
	WorkoutExercises []WorkoutExercise `json:"workout_exercises,omitempty" gorm:"foreignKey:WorkoutID"`
}

// TableName returns the database table name for Workout.
func (Workout) TableName() string { return "workouts" }

// WorkoutExercise binds an Exercise to a Workout at a zero-based position.
//
// Positions are assigned append-only (max+1, 0 when empty) and never
// renumbered on removal, so gaps are normal; only relative order matters.
// The (workout_id, position) unique index turns a concurrent duplicate
// append into a detectable conflict instead of a silent lost update.
type WorkoutExercise struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	WorkoutID  string    `json:"workout_id"  gorm:"type:char(36);not null;index;uniqueIndex:ux_workout_position,priority:1"`
	ExerciseID string    `json:"exercise_id" gorm:"type:char(36);not null;index"`
	Position   int       `json:"order"       gorm:"column:position;not null;uniqueIndex:ux_workout_position,priority:2"`
	CreatedAt  time.Time `json:"created_at"`

	// Workout is the owning session. Rows are cascade-deleted with it.
	Workout Workout `json:"-" gorm:"foreignKey:WorkoutID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	// Exercise is the library entry. RESTRICT keeps referenced exercises
	// from being deleted out from under their workouts.
	Exercise Exercise `json:"exercise" gorm:"foreignKey:ExerciseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	// Sets are the logged sets, set_number ascending.
	Sets []Set `json:"sets,omitempty" gorm:"foreignKey:WorkoutExerciseID"`
}

// TableName returns the database table name for WorkoutExercise.
func (WorkoutExercise) TableName() string { return "workout_exercises" }

// Set is one logged set under a WorkoutExercise. SetNumber starts at 1 and
// is assigned append-only per workout exercise; reps and weight may both be
// absent (a planned but not yet filled-in set).
//
// Weight is decimal text with at most two fraction digits ("225.00"). It is
// stored as TEXT so the value round-trips exactly; validation happens at the
// transport boundary before any store access.
type Set struct {
	ID                string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	WorkoutExerciseID string    `json:"workout_exercise_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_exercise_set_number,priority:1"`
	SetNumber         int       `json:"set_number"          gorm:"not null;uniqueIndex:ux_exercise_set_number,priority:2"`
	Reps              *int      `json:"reps,omitempty"`
	Weight            *string   `json:"weight,omitempty"    gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"`

	// WorkoutExercise is the parent join row. Sets are cascade-deleted
	// with it.
	WorkoutExercise WorkoutExercise `json:"-" gorm:"foreignKey:WorkoutExerciseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Set.
func (Set) TableName() string { return "sets" }
