package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/http-api/repository"
	"mediahub/internal/shared"
)

const maxNotesLength = 3000

// ProgressPatch carries the progress subfields of an update request. Only
// non-nil fields are merged; a nil field leaves the stored value alone.
type ProgressPatch struct {
	Episodes   *int              `json:"episodes,omitempty"`
	Chapters   *int              `json:"chapters,omitempty"`
	Volumes    *int              `json:"volumes,omitempty"`
	Seasons    *int              `json:"seasons,omitempty"`
	Minutes    *int              `json:"minutes,omitempty"`
	Hours      *float64          `json:"hours,omitempty"`
	Pages      *int              `json:"pages,omitempty"`
	Percentage *float64          `json:"percentage,omitempty"`
	Tasks      []models.GameTask `json:"tasks,omitempty"`
}

// EntryUpdate is a partial update of a library entry. Every field is
// optional; status changes run the transition side effects before the
// explicit timestamp overrides are applied.
type EntryUpdate struct {
	Status        *shared.Status
	UserRating    *int
	PersonalNotes *string
	Progress      *ProgressPatch
	StartedAt     *time.Time
	CompletedAt   *time.Time
	DroppedAt     *time.Time
}

// EntryCreate describes an add-to-library request.
type EntryCreate struct {
	CacheRecordID int64
	Status        *shared.Status
	UserRating    *int
	PersonalNotes *string
	Progress      *ProgressPatch
}

// DeleteResult reports what a removal did, including whether the
// referenced cache record was evicted with it.
type DeleteResult struct {
	DeletedID          int64 `json:"deleted_id"`
	CacheRecordDeleted bool  `json:"cache_record_deleted"`
}

type LibraryService interface {
	Add(ctx context.Context, userID string, in EntryCreate) (*models.LibraryEntry, error)
	Get(ctx context.Context, id int64, userID string) (*models.LibraryEntry, error)
	List(ctx context.Context, userID string) ([]models.LibraryEntry, error)
	Update(ctx context.Context, id int64, userID string, in EntryUpdate) (*models.LibraryEntry, error)
	Delete(ctx context.Context, id int64, userID string) (*DeleteResult, error)
}

type libraryService struct {
	repo      repository.LibraryRepository
	cacheRepo repository.CacheRepository
	hot       *repository.EssentialRedisRepo
	logger    *slog.Logger
	now       func() time.Time
}

func NewLibraryService(repo repository.LibraryRepository, cacheRepo repository.CacheRepository, hot *repository.EssentialRedisRepo, logger *slog.Logger) LibraryService {
	return &libraryService{
		repo:      repo,
		cacheRepo: cacheRepo,
		hot:       hot,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *libraryService) Add(ctx context.Context, userID string, in EntryCreate) (*models.LibraryEntry, error) {
	if err := validateEntryFields(in.Status, in.UserRating, in.PersonalNotes); err != nil {
		return nil, err
	}

	record, err := s.cacheRepo.FindByID(ctx, in.CacheRecordID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("cache record %d: %w", in.CacheRecordID, ErrNotFound)
		}
		return nil, err
	}

	now := s.now()
	entry := &models.LibraryEntry{
		UserID:        userID,
		CacheRecordID: record.ID,
		MediaKind:     record.MediaKind,
		Status:        shared.StatusPlanned,
	}
	if in.Status != nil && *in.Status != shared.StatusPlanned {
		s.applyStatus(entry, *in.Status, record, now)
	}
	applyEntryFields(entry, in.UserRating, in.PersonalNotes, in.Progress, now)

	if err := s.repo.Create(ctx, entry); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, fmt.Errorf("library entry for cache record %d: %w", record.ID, ErrConflict)
		}
		return nil, err
	}

	if err := s.cacheRepo.IncrementReference(ctx, record.ID, now); err != nil {
		// The entry exists; a failed counter bump is a stale-count hazard,
		// not a failed add.
		s.logger.Error("failed to increment reference count", "cache_record_id", record.ID, "error", err)
	}

	entry.CacheRecord = record
	return entry, nil
}

func (s *libraryService) Get(ctx context.Context, id int64, userID string) (*models.LibraryEntry, error) {
	entry, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("library entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return entry, nil
}

func (s *libraryService) List(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	return s.repo.List(ctx, userID)
}

func (s *libraryService) Update(ctx context.Context, id int64, userID string, in EntryUpdate) (*models.LibraryEntry, error) {
	if err := validateEntryFields(in.Status, in.UserRating, in.PersonalNotes); err != nil {
		return nil, err
	}

	entry, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("library entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	now := s.now()
	if in.Status != nil {
		record := entry.CacheRecord
		if record == nil {
			record, err = s.cacheRepo.FindByID(ctx, entry.CacheRecordID)
			if err != nil {
				return nil, fmt.Errorf("cache record %d for entry %d: %w", entry.CacheRecordID, id, err)
			}
		}
		s.applyStatus(entry, *in.Status, record, now)
	}
	applyEntryFields(entry, in.UserRating, in.PersonalNotes, in.Progress, now)

	// Explicit timestamp overrides win over transition side effects.
	if in.StartedAt != nil {
		entry.StartedAt = in.StartedAt
	}
	if in.CompletedAt != nil {
		entry.CompletedAt = in.CompletedAt
	}
	if in.DroppedAt != nil {
		entry.DroppedAt = in.DroppedAt
	}

	if err := s.repo.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *libraryService) Delete(ctx context.Context, id int64, userID string) (*DeleteResult, error) {
	entry, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("library entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("library entry %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	result := &DeleteResult{DeletedID: id}
	record, err := s.cacheRepo.DecrementReference(ctx, entry.CacheRecordID, s.now())
	if err != nil {
		s.logger.Error("failed to decrement reference count", "cache_record_id", entry.CacheRecordID, "error", err)
		return result, nil
	}

	// Hand-entered records are garbage once unreferenced; provider records
	// stay cached for the next lookup.
	if record.ReferenceCount <= 0 && record.Provider == shared.ProviderManual {
		if err := s.cacheRepo.Delete(ctx, record.ID); err != nil {
			s.logger.Error("failed to evict manual cache record", "cache_record_id", record.ID, "error", err)
			return result, nil
		}
		if err := s.hot.Invalidate(ctx, record.Provider, record.ExternalID, record.MediaKind); err != nil {
			s.logger.Warn("failed to invalidate hot cache", "cache_record_id", record.ID, "error", err)
		}
		result.CacheRecordDeleted = true
	}
	return result, nil
}

// applyStatus runs the transition side effects for the target status. Any
// state may move to any other; side effects are additive, never rejected.
func (s *libraryService) applyStatus(entry *models.LibraryEntry, target shared.Status, record *models.CacheRecord, now time.Time) {
	switch target {
	case shared.StatusPlanned:
		entry.StartedAt = nil
		entry.CompletedAt = nil
		entry.DroppedAt = nil
	case shared.StatusInProgress:
		if entry.StartedAt == nil {
			startedAt := now
			entry.StartedAt = &startedAt
		}
		entry.CompletedAt = nil
		entry.DroppedAt = nil
	case shared.StatusCompleted:
		completedAt := now
		entry.CompletedAt = &completedAt
		entry.DroppedAt = nil
		autoFillProgress(entry, record, now)
	case shared.StatusDropped:
		droppedAt := now
		entry.DroppedAt = &droppedAt
		entry.CompletedAt = nil
	}
	entry.Status = target
}

// autoFillProgress back-fills progress from the cache record's totals on
// completion. For games the task list is the unit of progress, so every
// task is marked done and no percentage is written.
func autoFillProgress(entry *models.LibraryEntry, record *models.CacheRecord, now time.Time) {
	essential := record.Essential

	switch entry.MediaKind {
	case shared.KindAnime:
		if essential.Episodes != nil {
			entry.Progress.Episodes = cloneInt(*essential.Episodes)
		}
	case shared.KindManga:
		if essential.Chapters != nil {
			entry.Progress.Chapters = cloneInt(*essential.Chapters)
		}
		if essential.Volumes != nil {
			entry.Progress.Volumes = cloneInt(*essential.Volumes)
		}
	case shared.KindSeries:
		if essential.Seasons != nil {
			entry.Progress.Seasons = cloneInt(*essential.Seasons)
		}
		if essential.Episodes != nil {
			entry.Progress.Episodes = cloneInt(*essential.Episodes)
		}
	case shared.KindMovie:
		if essential.Runtime != nil {
			entry.Progress.Minutes = cloneInt(*essential.Runtime)
		}
	case shared.KindBook:
		if essential.PageCount != nil {
			entry.Progress.Pages = cloneInt(*essential.PageCount)
		}
	case shared.KindGame:
		for i := range entry.Progress.Tasks {
			entry.Progress.Tasks[i].Completed = true
		}
	}

	if entry.MediaKind != shared.KindGame {
		full := 100.0
		entry.Progress.Percentage = &full
	}
	entry.Progress.LastUpdated = now
}

func applyEntryFields(entry *models.LibraryEntry, rating *int, notes *string, patch *ProgressPatch, now time.Time) {
	if rating != nil {
		entry.UserRating = rating
	}
	if notes != nil {
		entry.PersonalNotes = notes
	}
	if patch == nil {
		return
	}

	if patch.Episodes != nil {
		entry.Progress.Episodes = patch.Episodes
	}
	if patch.Chapters != nil {
		entry.Progress.Chapters = patch.Chapters
	}
	if patch.Volumes != nil {
		entry.Progress.Volumes = patch.Volumes
	}
	if patch.Seasons != nil {
		entry.Progress.Seasons = patch.Seasons
	}
	if patch.Minutes != nil {
		entry.Progress.Minutes = patch.Minutes
	}
	if patch.Hours != nil {
		entry.Progress.Hours = patch.Hours
	}
	if patch.Pages != nil {
		entry.Progress.Pages = patch.Pages
	}
	if patch.Percentage != nil {
		entry.Progress.Percentage = patch.Percentage
	}
	if patch.Tasks != nil {
		entry.Progress.Tasks = patch.Tasks
	}
	entry.Progress.LastUpdated = now
}

func validateEntryFields(status *shared.Status, rating *int, notes *string) error {
	verr := NewValidationError()
	if status != nil && !shared.ValidStatus(*status) {
		verr.Add("status", fmt.Sprintf("unknown status %q", *status))
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		verr.Add("user_rating", "rating must be between 1 and 5")
	}
	if notes != nil && len(*notes) > maxNotesLength {
		verr.Add("personal_notes", fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

func cloneInt(v int) *int {
	return &v
}
