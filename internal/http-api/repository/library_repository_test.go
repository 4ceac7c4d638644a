package repository

import (
	"context"
	"testing"
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/shared"

	"github.com/stretchr/testify/require"
)

const (
	ownerID    = "11111111-1111-1111-1111-111111111111"
	strangerID = "22222222-2222-2222-2222-222222222222"
)

func TestLibraryRepositoryOwnershipScope(t *testing.T) {
	db := newTestDB(t)
	cacheRepo := NewCacheRepository(db)
	repo := NewLibraryRepository(db)
	ctx := context.Background()

	record := seedRecord(t, cacheRepo, shared.ProviderJikan, "5114", shared.KindAnime)
	entry := &models.LibraryEntry{
		UserID:        ownerID,
		CacheRecordID: record.ID,
		MediaKind:     shared.KindAnime,
		Status:        shared.StatusPlanned,
	}
	require.NoError(t, repo.Create(ctx, entry))
	require.NotZero(t, entry.ID)

	found, err := repo.FindByID(ctx, entry.ID, ownerID)
	require.NoError(t, err)
	require.NotNil(t, found.CacheRecord)
	require.Equal(t, record.ID, found.CacheRecord.ID)

	// Another user's entry looks like a missing one.
	_, err = repo.FindByID(ctx, entry.ID, strangerID)
	require.True(t, IsNotFound(err))

	err = repo.Delete(ctx, entry.ID, strangerID)
	require.True(t, IsNotFound(err))
}

func TestLibraryRepositoryDuplicateEntry(t *testing.T) {
	db := newTestDB(t)
	cacheRepo := NewCacheRepository(db)
	repo := NewLibraryRepository(db)
	ctx := context.Background()

	record := seedRecord(t, cacheRepo, shared.ProviderTMDB, "603", shared.KindMovie)

	first := &models.LibraryEntry{UserID: ownerID, CacheRecordID: record.ID, MediaKind: shared.KindMovie, Status: shared.StatusPlanned}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.LibraryEntry{UserID: ownerID, CacheRecordID: record.ID, MediaKind: shared.KindMovie, Status: shared.StatusPlanned}
	err := repo.Create(ctx, dup)
	require.True(t, IsDuplicateKey(err))

	// A different user may track the same record.
	other := &models.LibraryEntry{UserID: strangerID, CacheRecordID: record.ID, MediaKind: shared.KindMovie, Status: shared.StatusPlanned}
	require.NoError(t, repo.Create(ctx, other))
}

func TestLibraryRepositoryListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	cacheRepo := NewCacheRepository(db)
	repo := NewLibraryRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	for i, externalID := range []string{"1", "2", "3"} {
		record := seedRecord(t, cacheRepo, shared.ProviderRAWG, externalID, shared.KindGame)
		entry := &models.LibraryEntry{
			UserID:        ownerID,
			CacheRecordID: record.ID,
			MediaKind:     shared.KindGame,
			Status:        shared.StatusPlanned,
			AddedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, entry))
	}

	entries, err := repo.List(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "3", entries[0].CacheRecord.ExternalID)
	require.Equal(t, "1", entries[2].CacheRecord.ExternalID)

	entries, err = repo.List(ctx, strangerID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLibraryRepositorySavePersistsProgress(t *testing.T) {
	db := newTestDB(t)
	cacheRepo := NewCacheRepository(db)
	repo := NewLibraryRepository(db)
	ctx := context.Background()

	record := seedRecord(t, cacheRepo, shared.ProviderJikan, "21", shared.KindManga)
	entry := &models.LibraryEntry{
		UserID:        ownerID,
		CacheRecordID: record.ID,
		MediaKind:     shared.KindManga,
		Status:        shared.StatusPlanned,
	}
	require.NoError(t, repo.Create(ctx, entry))

	entry.Status = shared.StatusInProgress
	entry.Progress = models.Progress{
		Chapters:    intp(45),
		Volumes:     intp(5),
		LastUpdated: time.Now().UTC(),
	}
	rating := 4
	entry.UserRating = &rating
	require.NoError(t, repo.Save(ctx, entry))

	reloaded, err := repo.FindByID(ctx, entry.ID, ownerID)
	require.NoError(t, err)
	require.Equal(t, shared.StatusInProgress, reloaded.Status)
	require.Equal(t, 45, *reloaded.Progress.Chapters)
	require.Equal(t, 5, *reloaded.Progress.Volumes)
	require.Equal(t, 4, *reloaded.UserRating)
}
