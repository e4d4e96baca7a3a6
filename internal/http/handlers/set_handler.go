// Set HTTP handlers.
//
// This file exposes the REST endpoints for logging sets:
//   - POST   /workout-exercises/{id}/sets  (append a set)
//   - DELETE /sets/{id}                    (remove a set)
//
// Reps and weight are both optional; a set can be planned before anything
// is logged. Weight travels as decimal text and must match the two-decimal
// pattern; it round-trips exactly as entered.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-workout-backend/internal/repo"
	"github.com/tbourn/go-workout-backend/internal/services"
)

// AddSetRequest is the JSON payload for appending a set.
type AddSetRequest struct {
	// Reps performed; non-negative when present.
	Reps *int `json:"reps,omitempty" example:"5"`
	// Weight as decimal text, at most two fraction digits.
	Weight *string `json:"weight,omitempty" example:"225.00"`
}

// AddSet godoc
// @ID          addSet
// @Summary     Log a set
// @Description Appends a set under a workout exercise with the next set number (starting at 1).
// @Tags        Sets
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"       example(user123)
// @Param       id         path    string  true  "Workout exercise ID (UUID)"  format(uuid)
// @Param       body       body    handlers.AddSetRequest  true  "Set payload"
//
// @Success     201  {object}  domain.Set
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Workout exercise not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Concurrent append conflict"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /workout-exercises/{id}/sets [post]
func (h *Handlers) AddSet(c *gin.Context) {
	weID := c.Param("id")
	if !validUUID(weID) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"workout_exercise_id": "must be a UUID"})
		return
	}

	var req AddSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Reps != nil && *req.Reps < 0 {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"reps": "must be a non-negative integer"})
		return
	}
	if req.Weight != nil && !validWeight(*req.Weight) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"weight": "must be a decimal with at most 2 fraction digits"})
		return
	}

	ctx := c.Request.Context()
	currentUser := userID(c)

	// Idempotency (replay path): read validated key if present.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.aggSvc.(*services.WorkoutExerciseService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, weID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetSet(ctx, svc.DB, rec.ResultID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusOK, prev)
					return
				}
			}
		}
	}

	set, err := h.aggSvc.AddSet(ctx, currentUser, weID,
		services.SetInput{Reps: req.Reps, Weight: req.Weight})
	if err != nil {
		switch err {
		case services.ErrWorkoutExerciseNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "workout exercise not found")
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
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, weID, idemKey,
				set.ID, http.StatusCreated, idemTTL(svc))
		}
	}

	ok(c, http.StatusCreated, set)
}

// RemoveSet godoc
// @ID          removeSet
// @Summary     Remove a set
// @Description Deletes one set. Remaining set numbers keep their gaps.
// @Tags        Sets
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Set ID (UUID)"          format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     404  {object}  handlers.ErrorResponse  "Set not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /sets/{id} [delete]
func (h *Handlers) RemoveSet(c *gin.Context) {
	id := c.Param("id")
	if !validUUID(id) {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "invalid input",
			map[string]string{"set_id": "must be a UUID"})
		return
	}

	if err := h.aggSvc.RemoveSet(c.Request.Context(), userID(c), id); err != nil {
		if err == services.ErrSetNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "set not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}
