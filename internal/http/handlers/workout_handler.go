// Workout HTTP handlers.
//
// This file exposes REST endpoints for workout resources:
//   - POST   /workouts            (create)
//   - GET    /workouts?date=…     (list one calendar day)
//   - GET    /workouts/{id}       (get aggregate)
//   - PUT    /workouts/{id}       (rename / reschedule)
//   - DELETE /workouts/{id}       (cascading delete)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. The acting user is
// never read from the body; see userID().
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workout-backend/internal/domain"
	"github.com/tbourn/go-workout-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// WorkoutService defines workout lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type WorkoutService interface {
	// Create starts a new workout for userID on a calendar date.
	Create(ctx context.Context, userID, name, date string) (*domain.Workout, error)
	// GetByID returns the full ordered aggregate.
	GetByID(ctx context.Context, userID, workoutID string) (*domain.Workout, error)
	// ListByDate returns the user's workouts on one day.
	ListByDate(ctx context.Context, userID, date string) ([]domain.Workout, error)
	// Update renames/reschedules a workout that belongs to userID.
	Update(ctx context.Context, userID, workoutID, name, date string) (*domain.Workout, error)
	// Delete removes the aggregate and returns the deleted record.
	Delete(ctx context.Context, userID, workoutID string) (*domain.Workout, error)
}

// ExerciseCatalog defines the library operations consumed by HTTP handlers.
type ExerciseCatalog interface {
	// ListPage returns a page of the user's exercise library and the total.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Exercise, int64, error)
}

// AggregateService defines the ownership-checked exercise/set mutations.
type AggregateService interface {
	// AddExercise appends a named exercise to a workout.
	AddExercise(ctx context.Context, userID, workoutID, exerciseName string) (*domain.WorkoutExercise, error)
	// RemoveExercise detaches a workout exercise and its sets.
	RemoveExercise(ctx context.Context, userID, workoutExerciseID string) error
	// AddSet appends a set under a workout exercise.
	AddSet(ctx context.Context, userID, workoutExerciseID string, in services.SetInput) (*domain.Set, error)
	// RemoveSet deletes a single set.
	RemoveSet(ctx context.Context, userID, setID string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for workouts, the exercise library, and
// set mutations. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	workoutSvc WorkoutService
	catalogSvc ExerciseCatalog
	aggSvc     AggregateService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(workoutSvc WorkoutService, catalogSvc ExerciseCatalog, aggSvc AggregateService) *Handlers {
	return &Handlers{workoutSvc: workoutSvc, catalogSvc: catalogSvc, aggSvc: aggSvc}
}

// userID extracts the authenticated user id from Gin context (set by
// upstream auth middleware). If absent, it falls back to the "X-User-ID"
// header (tests use it), and finally to "demo-user". It never touches
// c.Request if it's nil, and never reads identity from the request body.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateWorkoutRequest is the JSON payload for creating a workout.
type CreateWorkoutRequest struct {
	// Name labels the session (1-100 chars).
	Name string `json:"name" binding:"required,min=1,max=100" example:"Leg Day"`
	// Date is the ISO calendar day the session belongs to.
	Date string `json:"date" binding:"required" example:"2024-03-01"`
}

// UpdateWorkoutRequest is the JSON payload for renaming/rescheduling.
type UpdateWorkoutRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100" example:"Upper Body"`
	Date string `json:"date" binding:"required" example:"2024-03-02"`
}

//
// Handlers
//

// CreateWorkout godoc
// @ID          createWorkout
// @Summary     Create a workout
// @Description Creates a workout session for the current user on a calendar day.
// @Tags        Workouts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateWorkoutRequest  true  "Create workout payload"
//
// @Success     201  {object}  domain.Workout
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workouts [post]
func (h *Handlers) CreateWorkout(c *gin.Context) {
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"name": "required, 1-100 characters"})
		return
	}
	if !validISODate(req.Date) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"date": "must be a calendar date (YYYY-MM-DD)"})
		return
	}

	w, err := h.workoutSvc.Create(c.Request.Context(), userID(c), req.Name, req.Date)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, w)
}

// ListWorkouts godoc
// @ID          listWorkouts
// @Summary     List workouts for a day
// @Description Returns the user's workouts on the given calendar date, started_at ascending (not-started first), each with ordered exercises and sets.
// @Tags        Workouts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       date       query   string  true  "Calendar date"          example(2024-03-01)
//
// @Success     200  {array}   domain.Workout
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workouts [get]
func (h *Handlers) ListWorkouts(c *gin.Context) {
	date := c.Query("date")
	if !validISODate(date) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"date": "must be a calendar date (YYYY-MM-DD)"})
		return
	}

	items, err := h.workoutSvc.ListByDate(c.Request.Context(), userID(c), date)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Workout{}
	}
	ok(c, http.StatusOK, items)
}

// GetWorkout godoc
// @ID          getWorkout
// @Summary     Get a workout aggregate
// @Description Returns one workout with its exercises (order ascending) and each exercise's sets (set number ascending).
// @Tags        Workouts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workout ID (UUID)"      format(uuid)
//
// @Success     200  {object}  domain.Workout
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Workout not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workouts/{id} [get]
func (h *Handlers) GetWorkout(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(id) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"workout_id": "must be a UUID"})
		return
	}

	w, err := h.workoutSvc.GetByID(c.Request.Context(), userID(c), id)
	if err != nil {
		if err == services.ErrWorkoutNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "workout not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, w)
}

// UpdateWorkout godoc
// @ID          updateWorkout
// @Summary     Rename or reschedule a workout
// @Description Updates name and date of a workout owned by the current user. Lifecycle timestamps are untouched.
// @Tags        Workouts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workout ID (UUID)"      format(uuid)
// @Param       body       body    handlers.UpdateWorkoutRequest  true  "New name/date"
//
// @Success     200  {object}  domain.Workout
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Workout not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workouts/{id} [put]
func (h *Handlers) UpdateWorkout(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(id) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"workout_id": "must be a UUID"})
		return
	}

	var req UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"name": "required, 1-100 characters"})
		return
	}
	if !validISODate(req.Date) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"date": "must be a calendar date (YYYY-MM-DD)"})
		return
	}

	w, err := h.workoutSvc.Update(c.Request.Context(), userID(c), id, req.Name, req.Date)
	if err != nil {
		if err == services.ErrWorkoutNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "workout not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, w)
}

// DeleteWorkout godoc
// @ID          deleteWorkout
// @Summary     Delete a workout
// @Description Deletes a workout and, in the same transaction, all of its workout exercises and their sets. Returns the deleted record.
// @Tags        Workouts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workout ID (UUID)"      format(uuid)
//
// @Success     200  {object}  domain.Workout
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Workout not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workouts/{id} [delete]
func (h *Handlers) DeleteWorkout(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(id) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"workout_id": "must be a UUID"})
		return
	}

	w, err := h.workoutSvc.Delete(c.Request.Context(), userID(c), id)
	if err != nil {
		if err == services.ErrWorkoutNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "workout not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, w)
}
