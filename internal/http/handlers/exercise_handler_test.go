package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
	"github.com/tbourn/go-workout-backend/internal/repo"
	"github.com/tbourn/go-workout-backend/internal/services"
)

// Minimal shim implementing services.ExerciseRepo using repo package (like router.go)
type testExerciseRepo struct{}

func (testExerciseRepo) CreateExercise(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error) {
	return repo.CreateExercise(ctx, db, userID, name)
}

func (testExerciseRepo) ListExercises(ctx context.Context, db *gorm.DB, userID string) ([]domain.Exercise, error) {
	return repo.ListExercises(ctx, db, userID)
}

func (testExerciseRepo) GetExerciseByName(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error) {
	return repo.GetExerciseByName(ctx, db, userID, name)
}

func (testExerciseRepo) CountExercises(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountExercises(ctx, db, userID)
}

func (testExerciseRepo) ListExercisesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Exercise, error) {
	return repo.ListExercisesPage(ctx, db, userID, offset, limit)
}

// newAggregateHandlers wires real services over one in-memory DB, the same
// shape RegisterRoutes produces.
func newAggregateHandlers(t *testing.T) (*gorm.DB, *Handlers) {
	t.Helper()
	db := newWorkoutDB(t)
	workoutSvc := services.NewWorkoutService(db, testWorkoutRepo{})
	catalogSvc := services.NewExerciseService(db, testExerciseRepo{})
	aggSvc := &services.WorkoutExerciseService{DB: db, Catalog: catalogSvc}
	return db, New(workoutSvc, catalogSvc, aggSvc)
}

// ---------- ListExercises ----------

func TestListExercises_ETag304_and_SuccessPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newWorkoutDB(t)
	svc := services.NewExerciseService(db, testExerciseRepo{})
	h := New(stubWorkoutSvc{}, svc, stubAggSvc{})

	// Seed library entries for user u1
	ctx := context.Background()
	for _, name := range []string{"Bench Press", "Squat"} {
		if _, err := repo.CreateExercise(ctx, db, "u1", name); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	r := gin.New()
	r.GET("/exercises", h.ListExercises)

	// Compute expected ETag
	count, maxTS, err := repo.ExercisesStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.Unix()
	}
	etag := fmt.Sprintf(`W/"exercises:%s:%d:%d"`, "u1", count, ts)

	// 304 path
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/exercises", nil)
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("etag 304 -> %d", w.Code)
	}

	// 200 success with pagination
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/exercises?page=1&page_size=1", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list 200 -> %d body=%s", w.Code, w.Body.String())
	}
	var out ListExercisesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.Pagination.Page != 1 || out.Pagination.PageSize != 1 || out.Pagination.Total != count {
		t.Fatalf("pagination mismatch: %#v", out.Pagination)
	}
	if out.Pagination.TotalPages != 2 || out.Pagination.HasNext != true {
		t.Fatalf("pages/hasnext mismatch: %#v", out.Pagination)
	}
	if len(out.Exercises) != 1 || out.Exercises[0].Name != "Bench Press" {
		t.Fatalf("expected Bench Press on page 1, got %#v", out.Exercises)
	}
}

func TestListExercises_SkipETagPrecheck_And_ListError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Use the stub catalog (not *services.ExerciseService) so db==nil → ETag pre-check is skipped.
	svc := stubCatalogSvc{
		listPage: func(ctx context.Context, u string, p, ps int) ([]domain.Exercise, int64, error) {
			return nil, 0, gorm.ErrInvalidField
		},
	}
	h := New(stubWorkoutSvc{}, svc, stubAggSvc{})

	r := gin.New()
	r.GET("/exercises", h.ListExercises)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/exercises", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("list error -> %d", w.Code)
	}
	if w.Header().Get("ETag") != "" {
		t.Fatalf("ETag should be absent when pre-check is skipped")
	}
}

// ---------- AddExercise ----------

func TestAddExercise_UUID_Binding_ErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(agg AggregateService) *gin.Engine {
		h := New(stubWorkoutSvc{}, stubCatalogSvc{}, agg)
		r := gin.New()
		r.POST("/workouts/:id/exercises", h.AddExercise)
		return r
	}

	// bad UUID -> 400
	{
		r := newRouter(stubAggSvc{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/workouts/not-uuid/exercises", bytes.NewBufferString(`{"exercise_name":"Squat"}`))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("uuid 400 -> %d", w.Code)
		}
	}

	// blank name -> 400
	{
		r := newRouter(stubAggSvc{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/workouts/"+uuid.NewString()+"/exercises", bytes.NewBufferString(`{"exercise_name":"   "}`))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("blank name 400 -> %d", w.Code)
		}
	}

	// service error mapping
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrWorkoutNotFound, http.StatusNotFound},
		{services.ErrEmptyExerciseName, http.StatusBadRequest},
		{services.ErrOrdinalConflict, http.StatusConflict},
		{gorm.ErrInvalidField, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		errAgg := stubAggSvc{
			addExercise: func(context.Context, string, string, string) (*domain.WorkoutExercise, error) {
				return nil, tc.err
			},
		}
		r := newRouter(errAgg)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/workouts/"+uuid.NewString()+"/exercises", bytes.NewBufferString(`{"exercise_name":"Squat"}`))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%v -> %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}

func TestAddExercise_Success_AppendsWithCatalogReuse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, h := newAggregateHandlers(t)
	r := gin.New()
	r.POST("/workouts/:id/exercises", h.AddExercise)

	workoutSvc := services.NewWorkoutService(db, testWorkoutRepo{})
	created, err := workoutSvc.Create(context.Background(), "u1", "Leg Day", "2024-03-01")
	if err != nil {
		t.Fatalf("seed workout: %v", err)
	}

	post := func(name string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/workouts/"+created.ID+"/exercises", bytes.NewBufferString(fmt.Sprintf(`{"exercise_name":%q}`, name)))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		return w
	}

	// first append -> 201 at position 0
	w := post("Squat")
	if w.Code != http.StatusCreated {
		t.Fatalf("append -> %d body=%s", w.Code, w.Body.String())
	}
	var first domain.WorkoutExercise
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("json: %v", err)
	}
	if first.WorkoutID != created.ID || first.Position != 0 || first.ExerciseID == "" {
		t.Fatalf("unexpected workout exercise: %#v", first)
	}

	// case-variant spelling reuses the same library entry at position 1
	w = post("  squat ")
	if w.Code != http.StatusCreated {
		t.Fatalf("second append -> %d body=%s", w.Code, w.Body.String())
	}
	var second domain.WorkoutExercise
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("json: %v", err)
	}
	if second.Position != 1 || second.ExerciseID != first.ExerciseID {
		t.Fatalf("catalog reuse mismatch: %#v vs %#v", second, first)
	}

	var libCount int64
	if err := db.Model(&domain.Exercise{}).Where("user_id = ?", "u1").Count(&libCount).Error; err != nil {
		t.Fatalf("count library: %v", err)
	}
	if libCount != 1 {
		t.Fatalf("library rows = %d", libCount)
	}
}

func TestAddExercise_IdempotencyKey_ReplaysStoredResult(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, h := newAggregateHandlers(t)
	r := gin.New()
	r.POST("/workouts/:id/exercises", h.AddExercise)

	workoutSvc := services.NewWorkoutService(db, testWorkoutRepo{})
	created, err := workoutSvc.Create(context.Background(), "u1", "Leg Day", "2024-03-01")
	if err != nil {
		t.Fatalf("seed workout: %v", err)
	}

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/workouts/"+created.ID+"/exercises", bytes.NewBufferString(`{"exercise_name":"Squat"}`))
		req.Header.Set("X-User-ID", "u1")
		req.Header.Set("Idempotency-Key", "key-1")
		r.ServeHTTP(w, req)
		return w
	}

	// first request creates and records the result
	w := post()
	if w.Code != http.StatusCreated {
		t.Fatalf("first append -> %d body=%s", w.Code, w.Body.String())
	}
	var first domain.WorkoutExercise
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("json: %v", err)
	}
	var idemCount int64
	if err := db.Model(&domain.Idempotency{}).Count(&idemCount).Error; err != nil {
		t.Fatalf("count idempotency: %v", err)
	}
	if idemCount != 1 {
		t.Fatalf("idempotency rows after first request = %d", idemCount)
	}

	// retry replays the stored result instead of appending again
	w = post()
	if w.Code != http.StatusOK {
		t.Fatalf("replay -> %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("missing Idempotency-Replayed header")
	}
	var replay domain.WorkoutExercise
	if err := json.Unmarshal(w.Body.Bytes(), &replay); err != nil {
		t.Fatalf("json replay: %v", err)
	}
	if replay.ID != first.ID || replay.Position != first.Position {
		t.Fatalf("replay mismatch: %#v vs %#v", replay, first)
	}
	var weCount int64
	if err := db.Model(&domain.WorkoutExercise{}).Where("workout_id = ?", created.ID).Count(&weCount).Error; err != nil {
		t.Fatalf("count workout exercises: %v", err)
	}
	if weCount != 1 {
		t.Fatalf("workout exercises after replay = %d", weCount)
	}

	// a different user with the same key gets its own append, not the replay
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workouts/"+created.ID+"/exercises", bytes.NewBufferString(`{"exercise_name":"Squat"}`))
	req.Header.Set("X-User-ID", "u2")
	req.Header.Set("Idempotency-Key", "key-1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound { // u2 does not own the workout
		t.Fatalf("other user -> %d body=%s", w.Code, w.Body.String())
	}
}

// ---------- RemoveExercise ----------

func TestRemoveExercise_UUID_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, h := newAggregateHandlers(t)
	r := gin.New()
	r.POST("/workouts/:id/exercises", h.AddExercise)
	r.DELETE("/workout-exercises/:id", h.RemoveExercise)

	workoutSvc := services.NewWorkoutService(db, testWorkoutRepo{})
	created, err := workoutSvc.Create(context.Background(), "u1", "Leg Day", "2024-03-01")
	if err != nil {
		t.Fatalf("seed workout: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/workouts/"+created.ID+"/exercises", bytes.NewBufferString(`{"exercise_name":"Squat"}`))
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("append -> %d", w.Code)
	}
	var we domain.WorkoutExercise
	if err := json.Unmarshal(w.Body.Bytes(), &we); err != nil {
		t.Fatalf("json: %v", err)
	}

	// bad UUID -> 400
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/workout-exercises/not-uuid", nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("uuid 400 -> %d", w.Code)
	}

	// foreign owner -> 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/workout-exercises/"+we.ID, nil)
	req.Header.Set("X-User-ID", "intruder")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign owner -> %d", w.Code)
	}

	// owner -> 204, repeat -> 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/workout-exercises/"+we.ID, nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("detach -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/workout-exercises/"+we.ID, nil)
	req.Header.Set("X-User-ID", "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat detach -> %d", w.Code)
	}
}
