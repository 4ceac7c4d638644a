package repository

import (
	"context"
	"fmt"

	"mediahub/internal/http-api/models"

	"gorm.io/gorm"
)

type LibraryRepository interface {
	Create(ctx context.Context, entry *models.LibraryEntry) error
	FindByID(ctx context.Context, id int64, userID string) (*models.LibraryEntry, error)
	List(ctx context.Context, userID string) ([]models.LibraryEntry, error)
	Save(ctx context.Context, entry *models.LibraryEntry) error
	Delete(ctx context.Context, id int64, userID string) error
}

type libraryRepository struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func (r *libraryRepository) Create(ctx context.Context, entry *models.LibraryEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if IsDuplicateKey(err) {
			return err
		}
		return fmt.Errorf("add to library: %w", err)
	}
	return nil
}

// FindByID is ownership-scoped: an entry belonging to another user is
// indistinguishable from a missing one.
func (r *libraryRepository) FindByID(ctx context.Context, id int64, userID string) (*models.LibraryEntry, error) {
	var entry models.LibraryEntry
	if err := r.db.WithContext(ctx).
		Preload("CacheRecord").
		Where("id = ? AND user_id = ?", id, userID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *libraryRepository) List(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	var entries []models.LibraryEntry
	if err := r.db.WithContext(ctx).
		Preload("CacheRecord").
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	return entries, nil
}

func (r *libraryRepository) Save(ctx context.Context, entry *models.LibraryEntry) error {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("update library entry: %w", err)
	}
	return nil
}

func (r *libraryRepository) Delete(ctx context.Context, id int64, userID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.LibraryEntry{})
	if result.Error != nil {
		return fmt.Errorf("remove from library: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
