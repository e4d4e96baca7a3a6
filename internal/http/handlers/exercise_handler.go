// Exercise HTTP handlers.
//
// This file exposes REST endpoints for the exercise library and the
// workout↔exercise attachment:
//   - GET    /exercises                  (list library, paginated, ETag)
//   - POST   /workouts/{id}/exercises    (attach by name, append order)
//   - DELETE /workout-exercises/{id}     (detach, cascades to sets)
//
// Attachment resolves names through the catalog's get-or-create, so a user
// typing "bench press" and "Bench Press" on different days always hits the
// same library entry.
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
	"github.com/tbourn/go-workout-backend/internal/repo"
	"github.com/tbourn/go-workout-backend/internal/services"
	"github.com/tbourn/go-workout-backend/internal/utils"
)

// AddExerciseRequest is the JSON payload for attaching an exercise by name.
type AddExerciseRequest struct {
	// ExerciseName is resolved case-insensitively against the user's
	// library, creating the entry on first reference (1-255 chars).
	ExerciseName string `json:"exercise_name" binding:"required,min=1,max=255" example:"Squat"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListExercisesResponse wraps a page of the library and pagination info.
type ListExercisesResponse struct {
	Exercises  []domain.Exercise `json:"exercises"`
	Pagination Pagination        `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// ListExercises godoc
// @ID          listExercises
// @Summary     List the exercise library (paginated)
// @Description Returns a page of the user's exercises, name ascending. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Exercises
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListExercisesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /exercises [get]
func (h *Handlers) ListExercises(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.catalogSvc.(*services.ExerciseService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ExercisesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"exercises:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.catalogSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListExercisesResponse{
		Exercises: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// AddExercise godoc
// @ID          addExercise
// @Summary     Attach an exercise to a workout
// @Description Resolves the name against the user's library (creating on first use) and appends it after all existing exercises.
// @Tags        Exercises
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Workout ID (UUID)"      format(uuid)
// @Param       body       body    handlers.AddExerciseRequest  true  "Exercise name"
//
// @Success     201  {object}  domain.WorkoutExercise
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Workout not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent append conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workouts/{id}/exercises [post]
func (h *Handlers) AddExercise(c *gin.Context) {
	workoutID := c.Param("id")
	if !validUUID(workoutID) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"workout_id": "must be a UUID"})
		return
	}

	var req AddExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ExerciseName) == "" {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"exercise_name": "required, 1-255 characters"})
		return
	}

	ctx := c.Request.Context()
	currentUser := userID(c)

	// Idempotency (replay path): read validated key if present.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.aggSvc.(*services.WorkoutExerciseService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, workoutID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetWorkoutExercise(ctx, svc.DB, rec.ResultID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	we, err := h.aggSvc.AddExercise(ctx, currentUser, workoutID, req.ExerciseName)
	if err != nil {
		switch err {
		case services.ErrWorkoutNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "workout not found")
		case services.ErrEmptyExerciseName:
			failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
				map[string]string{"exercise_name": "required, 1-255 characters"})
		case services.ErrOrdinalConflict:
			fail(c, http.StatusConflict, ErrCodeConflict, "concurrent update, retry the request")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	// Idempotency (store path): best effort.
	if idemKey != "" {
		if svc, okSvc := h.aggSvc.(*services.WorkoutExerciseService); okSvc && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, workoutID, idemKey,
				we.ID, http.StatusCreated, idemTTL(svc))
		}
	}

	ok(c, http.StatusCreated, we)
}

// RemoveExercise godoc
// @ID          removeExercise
// @Summary     Detach an exercise from its workout
// @Description Removes the workout exercise and all of its sets. Remaining positions keep their gaps.
// @Tags        Exercises
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"       example(user123)
// @Param       id         path    string  true  "Workout exercise ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Workout exercise not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workout-exercises/{id} [delete]
func (h *Handlers) RemoveExercise(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(id) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"workout_exercise_id": "must be a UUID"})
		return
	}

	if err := h.aggSvc.RemoveExercise(c.Request.Context(), userID(c), id); err != nil {
		if err == services.ErrWorkoutExerciseNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "workout exercise not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// middlewareGetIdempotencyKey extracts an idempotency key if an upstream
// middleware has already validated/stashed it. The fallback behavior reads
// the "Idempotency-Key" header directly when no dedicated middleware exists.
func middlewareGetIdempotencyKey(c *gin.Context) (string, bool) {
	if v := strings.TrimSpace(c.GetHeader("Idempotency-Key")); v != "" {
		return v, true
	}
	return "", false
}

// idemTTL returns the configured replay window, defaulting to 24h.
func idemTTL(svc *services.WorkoutExerciseService) time.Duration {
	if svc.IdemTTL > 0 {
		return svc.IdemTTL
	}
	return 24 * time.Hour
}
