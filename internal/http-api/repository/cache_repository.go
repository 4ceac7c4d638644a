package repository

import (
	"context"
	"fmt"
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/shared"

	"gorm.io/gorm"
)

type CacheRepository interface {
	Create(ctx context.Context, record *models.CacheRecord) error
	FindByID(ctx context.Context, id int64) (*models.CacheRecord, error)
	FindByKey(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.CacheRecord, error)
	ReplaceEssential(ctx context.Context, id int64, essential models.EssentialData, now, nextFetch time.Time, ttlSeconds int64) error
	BumpAccess(ctx context.Context, id int64, now time.Time) error
	IncrementError(ctx context.Context, id int64, now time.Time) error
	IncrementReference(ctx context.Context, id int64, now time.Time) error
	DecrementReference(ctx context.Context, id int64, now time.Time) (*models.CacheRecord, error)
	Delete(ctx context.Context, id int64) error
	PurgeOlderThan(ctx context.Context, kind shared.MediaKind, cutoff time.Time) (int64, error)
}

type cacheRepository struct {
	db *gorm.DB
}

func NewCacheRepository(db *gorm.DB) CacheRepository {
	return &cacheRepository{db: db}
}

func (r *cacheRepository) Create(ctx context.Context, record *models.CacheRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if IsDuplicateKey(err) {
			return err
		}
		return fmt.Errorf("create cache record: %w", err)
	}
	return nil
}

func (r *cacheRepository) FindByID(ctx context.Context, id int64) (*models.CacheRecord, error) {
	var record models.CacheRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *cacheRepository) FindByKey(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.CacheRecord, error) {
	var record models.CacheRecord
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND external_id = ? AND media_kind = ?", provider, externalID, kind).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ReplaceEssential swaps in a merged essential payload and refreshes the
// fetch-control fields. The counters ride along as SQL-side increments so
// concurrent fetches of the same record never lose updates.
func (r *cacheRepository) ReplaceEssential(ctx context.Context, id int64, essential models.EssentialData, now, nextFetch time.Time, ttlSeconds int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.CacheRecord{ID: id}).
		UpdateColumns(map[string]any{
			"essential":     essential,
			"last_fetched":  now,
			"next_fetch":    nextFetch,
			"ttl_seconds":   ttlSeconds,
			"fetch_count":   gorm.Expr("fetch_count + 1"),
			"access_count":  gorm.Expr("access_count + 1"),
			"last_accessed": now,
			"updated_at":    now,
		})
	if result.Error != nil {
		return fmt.Errorf("replace essential data: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cacheRepository) BumpAccess(ctx context.Context, id int64, now time.Time) error {
	return r.bump(ctx, id, map[string]any{
		"access_count":  gorm.Expr("access_count + 1"),
		"last_accessed": now,
	})
}

func (r *cacheRepository) IncrementError(ctx context.Context, id int64, now time.Time) error {
	return r.bump(ctx, id, map[string]any{
		"error_count":   gorm.Expr("error_count + 1"),
		"last_accessed": now,
	})
}

func (r *cacheRepository) IncrementReference(ctx context.Context, id int64, now time.Time) error {
	return r.bump(ctx, id, map[string]any{
		"reference_count": gorm.Expr("reference_count + 1"),
		"last_accessed":   now,
	})
}

// DecrementReference atomically lowers the reference count and returns the
// record as it stands afterwards, so the caller can decide on eviction.
func (r *cacheRepository) DecrementReference(ctx context.Context, id int64, now time.Time) (*models.CacheRecord, error) {
	if err := r.bump(ctx, id, map[string]any{
		"reference_count": gorm.Expr("reference_count - 1"),
		"last_accessed":   now,
	}); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *cacheRepository) bump(ctx context.Context, id int64, columns map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.CacheRecord{ID: id}).
		UpdateColumns(columns)
	if result.Error != nil {
		return fmt.Errorf("update cache counters: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&models.CacheRecord{}, id).Error; err != nil {
		return fmt.Errorf("delete cache record: %w", err)
	}
	return nil
}

// PurgeOlderThan removes records of one kind whose last fetch predates the
// cutoff. Referenced records are kept: purging them would orphan library
// entries.
func (r *cacheRepository) PurgeOlderThan(ctx context.Context, kind shared.MediaKind, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("media_kind = ? AND last_fetched < ? AND reference_count = 0", kind, cutoff).
		Delete(&models.CacheRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge cache records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
