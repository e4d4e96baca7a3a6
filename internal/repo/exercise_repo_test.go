package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-workout-backend/internal/domain"
)

func newExerciseRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("exercise_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateExercise_Error_NoTable(t *testing.T) {
	db := newExerciseRepoDB(t /* no migrations */)
	e, err := CreateExercise(context.Background(), db, "u1", "Squat")
	if err == nil || e != nil {
		t.Fatalf("expected error creating without table, got e=%v err=%v", e, err)
	}
}

func TestCreateExercise_Success_PersistsAndSetsFields(t *testing.T) {
	db := newExerciseRepoDB(t, &domain.Exercise{})

	e, err := CreateExercise(context.Background(), db, "u1", "Squat")
	if err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if e.ID == "" || e.UserID != "u1" || e.Name != "Squat" {
		t.Fatalf("unexpected Exercise fields: %+v", e)
	}

	var got domain.Exercise
	if err := db.First(&got, "id = ?", e.ID).Error; err != nil {
		t.Fatalf("load created exercise: %v", err)
	}
	if got.Name != "Squat" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateExercise_DuplicateName_CaseInsensitive(t *testing.T) {
	db := newExerciseRepoDB(t, &domain.Exercise{})

	if _, err := CreateExercise(context.Background(), db, "u1", "Bench Press"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// Same spelling.
	if _, err := CreateExercise(context.Background(), db, "u1", "Bench Press"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for exact duplicate, got %v", err)
	}
	// Different casing hits the NOCASE unique index too.
	if _, err := CreateExercise(context.Background(), db, "u1", "bench press"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for case-variant duplicate, got %v", err)
	}
	// A different user may reuse the name.
	if _, err := CreateExercise(context.Background(), db, "u2", "Bench Press"); err != nil {
		t.Fatalf("other user create: %v", err)
	}
}

func TestListExercises_NameAscendingAndFilter(t *testing.T) {
	db := newExerciseRepoDB(t, &domain.Exercise{})

	for _, seed := range []struct{ user, name string }{
		{"u1", "Squat"},
		{"u1", "Bench Press"},
		{"u1", "Deadlift"},
		{"u2", "Other"},
	} {
		if _, err := CreateExercise(context.Background(), db, seed.user, seed.name); err != nil {
			t.Fatalf("seed %q: %v", seed.name, err)
		}
	}

	list, err := ListExercises(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 exercises for u1, got %d", len(list))
	}
	if list[0].Name != "Bench Press" || list[1].Name != "Deadlift" || list[2].Name != "Squat" {
		t.Fatalf("unexpected order: %#v", list)
	}
}

func TestCountExercises_Success(t *testing.T) {
	db := newExerciseRepoDB(t, &domain.Exercise{})

	for _, seed := range []struct{ user, name string }{
		{"u1", "Squat"}, {"u1", "Row"}, {"u2", "Curl"},
	} {
		if _, err := CreateExercise(context.Background(), db, seed.user, seed.name); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := CountExercises(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("CountExercises: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2, got %d", total)
	}
}

func TestListExercisesPage_PaginationAndOrder(t *testing.T) {
	db := newExerciseRepoDB(t, &domain.Exercise{})

	// Name-ascending order is a,b,c,d,e.
	for _, n := range []string{"c", "a", "e", "b", "d"} {
		if _, err := CreateExercise(context.Background(), db, "u1", n); err != nil {
			t.Fatalf("seed %q: %v", n, err)
		}
	}

	page, err := ListExercisesPage(context.Background(), db, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListExercisesPage: %v", err)
	}
	if len(page) != 2 || page[0].Name != "b" || page[1].Name != "c" {
		t.Fatalf("unexpected page slice: %+v", page)
	}
}

func TestGetExerciseByName_CaseInsensitiveAndNotFound(t *testing.T) {
	db := newExerciseRepoDB(t, &domain.Exercise{})

	if _, err := GetExerciseByName(context.Background(), db, "u1", "Squat"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	created, err := CreateExercise(context.Background(), db, "u1", "Squat")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, q := range []string{"Squat", "squat", "SQUAT"} {
		got, err := GetExerciseByName(context.Background(), db, "u1", q)
		if err != nil {
			t.Fatalf("GetExerciseByName(%q): %v", q, err)
		}
		if got.ID != created.ID {
			t.Fatalf("expected id %s for %q, got %+v", created.ID, q, got)
		}
	}

	// Other users never see the entry.
	if _, err := GetExerciseByName(context.Background(), db, "u2", "Squat"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestDeleteExercise_SuccessAndNotFound(t *testing.T) {
	db := newExerciseRepoDB(t, &domain.Exercise{})

	e, err := CreateExercise(context.Background(), db, "u1", "Squat")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Wrong owner -> not found.
	if err := DeleteExercise(context.Background(), db, e.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}

	if err := DeleteExercise(context.Background(), db, e.ID, "u1"); err != nil {
		t.Fatalf("DeleteExercise: %v", err)
	}
	if err := DeleteExercise(context.Background(), db, e.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}
