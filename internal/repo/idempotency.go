// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for POST endpoints: add
// operations must be retried whole rather than assumed to have partially
// succeeded, so replays short-circuit before any ordinal is derived.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-workout-backend/internal/domain"
)

// GetIdempotency returns a non-expired record for (userID, scopeID, key) or
// ErrNotFound. ScopeID is the resource the POST targeted (workout id for
// add-exercise, workout-exercise id for add-set).
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, scopeID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(scopeID) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND scope_id = ? AND key = ? AND expires_at > ?", userID, scopeID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique
// violation (the same key already recorded for this user and scope).
func CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scopeID, key, resultID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    userID,
		ScopeID:   scopeID,
		Key:       key,
		ResultID:  resultID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
