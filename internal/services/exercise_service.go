// Package services: ExerciseService.
//
// This file implements the ExerciseService, which manages the per-user
// exercise library. Its central operation is get-or-create: callers hand in
// a raw name ("bench press ") and get back the canonical library entry,
// creating it on first reference. Matching is case-insensitive; repeated
// calls with equivalent spellings never create duplicates.
//
// Case-insensitivity is enforced twice: a Unicode case-fold comparison in Go
// (SQLite's LOWER() only folds ASCII) and, as the concurrency backstop, the
// NOCASE unique index on (user_id, name); a losing racer re-fetches the
// winner's row instead of erroring.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"golang.org/x/text/cases"

	"github.com/tbourn/go-workout-backend/internal/domain"
	"github.com/tbourn/go-workout-backend/internal/repo"
)

// ExerciseRepo defines the repository contract required by ExerciseService.
type ExerciseRepo interface {
	// CreateExercise inserts a library entry; repo.ErrDuplicate on conflict.
	CreateExercise(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error)

	// ListExercises returns the owner's library ordered by name ascending.
	ListExercises(ctx context.Context, db *gorm.DB, userID string) ([]domain.Exercise, error)

	// GetExerciseByName fetches by case-insensitive name match.
	GetExerciseByName(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error)

	// CountExercises returns the library size for pagination.
	CountExercises(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListExercisesPage returns a page of the owner's library.
	ListExercisesPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Exercise, error)
}

// ExerciseService provides catalog operations: listing the library and the
// trim/fold get-or-create lookup used when attaching exercises to workouts.
type ExerciseService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the exercise repository used by this service.
	Repo ExerciseRepo

	// NameMaxLen caps stored names by rune length.
	NameMaxLen int
}

// NewExerciseService constructs an ExerciseService with the catalog's
// default name cap.
func NewExerciseService(db *gorm.DB, r ExerciseRepo) *ExerciseService {
	return &ExerciseService{
		DB:         db,
		Repo:       r,
		NameMaxLen: 255,
	}
}

// List returns the owner's full library, name ascending.
func (s *ExerciseService) List(ctx context.Context, userID string) ([]domain.Exercise, error) {
	return s.Repo.ListExercises(ctx, s.DB, userID)
}

// ListPage returns a page of the owner's library plus the total count.
// It applies defaults for invalid page/pageSize.
func (s *ExerciseService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Exercise, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountExercises(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Exercise{}, 0, nil
	}

	items, err := s.Repo.ListExercisesPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// GetOrCreate resolves rawName to the owner's library entry, creating it on
// first reference. The name is trimmed; matching ignores case. Safe to call
// repeatedly with equivalent spellings. Uses the given db handle (which may
// be transaction-bound) so AddExercise can run it inside its transaction.
func (s *ExerciseService) GetOrCreate(ctx context.Context, db *gorm.DB, userID, rawName string) (*domain.Exercise, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return nil, ErrEmptyExerciseName
	}
	name = s.clip(name)

	if e, err := s.lookup(ctx, db, userID, name); err != nil {
		return nil, err
	} else if e != nil {
		return e, nil
	}

	e, err := s.Repo.CreateExercise(ctx, db, userID, name)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, repo.ErrDuplicate) {
		return nil, err
	}

	// A concurrent caller created the equivalent name between our lookup
	// and insert; the unique index broke the tie. Fetch the winner.
	if e, err := s.lookup(ctx, db, userID, name); err != nil {
		return nil, err
	} else if e != nil {
		return e, nil
	}
	return nil, repo.ErrDuplicate
}

// lookup finds an existing entry matching name case-insensitively: first by
// the SQL predicate, then by Unicode case-folding over the owner's library
// for names the ASCII-only LOWER() cannot match. Returns (nil, nil) when
// absent.
func (s *ExerciseService) lookup(ctx context.Context, db *gorm.DB, userID, name string) (*domain.Exercise, error) {
	e, err := s.Repo.GetExerciseByName(ctx, db, userID, name)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	existing, err := s.Repo.ListExercises(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	folded := caseFolder.String(name)
	for i := range existing {
		if caseFolder.String(existing[i].Name) == folded {
			return &existing[i], nil
		}
	}
	return nil, nil
}

// clip truncates a name to the configured maximum rune length.
func (s *ExerciseService) clip(name string) string {
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}

// caseFolder performs locale-independent Unicode case folding for name
// equality. Folding (not lowercasing) is the correct operation for
// caseless matching.
var caseFolder = cases.Fold()
