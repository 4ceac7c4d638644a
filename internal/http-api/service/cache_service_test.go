package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/http-api/repository"
	"mediahub/internal/providers"
	"mediahub/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockCacheRepository mocks the CacheRepository interface
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Create(ctx context.Context, record *models.CacheRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCacheRepository) FindByID(ctx context.Context, id int64) (*models.CacheRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CacheRecord), args.Error(1)
}

func (m *MockCacheRepository) FindByKey(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.CacheRecord, error) {
	args := m.Called(ctx, provider, externalID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CacheRecord), args.Error(1)
}

func (m *MockCacheRepository) ReplaceEssential(ctx context.Context, id int64, essential models.EssentialData, now, nextFetch time.Time, ttlSeconds int64) error {
	args := m.Called(ctx, id, essential, now, nextFetch, ttlSeconds)
	return args.Error(0)
}

func (m *MockCacheRepository) BumpAccess(ctx context.Context, id int64, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockCacheRepository) IncrementError(ctx context.Context, id int64, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockCacheRepository) IncrementReference(ctx context.Context, id int64, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockCacheRepository) DecrementReference(ctx context.Context, id int64, now time.Time) (*models.CacheRecord, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CacheRecord), args.Error(1)
}

func (m *MockCacheRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCacheRepository) PurgeOlderThan(ctx context.Context, kind shared.MediaKind, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, kind, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// stubAdapter returns a fixed result or error for every call.
type stubAdapter struct {
	result *providers.Result
	err    error
}

func (a *stubAdapter) Search(ctx context.Context, query string, kind shared.MediaKind) ([]providers.Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	return []providers.Result{*a.result}, nil
}

func (a *stubAdapter) GetByID(ctx context.Context, externalID string, kind shared.MediaKind) (*providers.Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

var testTime = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopHot(t *testing.T) *repository.EssentialRedisRepo {
	t.Helper()
	hot, err := repository.NewEssentialRedisRepo("", "")
	assert.NoError(t, err)
	return hot
}

func newTestCacheService(t *testing.T, repo *MockCacheRepository, registry *providers.Registry) *cacheService {
	t.Helper()
	if registry == nil {
		registry = providers.NewRegistry()
	}
	svc := NewCacheService(repo, noopHot(t), registry, 30, testLogger()).(*cacheService)
	svc.now = func() time.Time { return testTime }
	return svc
}

func strp(s string) *string { return &s }

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func TestUpsertCreatesNewRecord(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	repo.On("FindByKey", mock.Anything, shared.ProviderTMDB, "603", shared.KindMovie).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.CacheRecord")).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*models.CacheRecord)
			record.ID = 7

			assert.Equal(t, testTime, record.LastFetched)
			assert.Equal(t, testTime.Add(24*time.Hour), record.NextFetch)
			assert.Equal(t, int64(86400), record.TTLSeconds)
			assert.Equal(t, int64(1), record.FetchCount)
			assert.Equal(t, int64(1), record.AccessCount)
		}).
		Return(nil)

	result, err := svc.Upsert(context.Background(), shared.ProviderTMDB, "603", shared.KindMovie,
		models.EssentialData{Title: "The Matrix", Runtime: intp(136)})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), result.CacheRecordID)
	assert.False(t, result.WasCached)
	repo.AssertExpectations(t)
}

func TestUpsertMergesExistingRecord(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	existing := &models.CacheRecord{
		ID:         3,
		Provider:   shared.ProviderRAWG,
		ExternalID: "3498",
		MediaKind:  shared.KindGame,
		Essential: models.EssentialData{
			Title:      "Grand Theft Auto V",
			PlayHours:  floatp(72.5),
			Metacritic: intp(92),
		},
	}
	repo.On("FindByKey", mock.Anything, shared.ProviderRAWG, "3498", shared.KindGame).
		Return(existing, nil)
	repo.On("ReplaceEssential", mock.Anything, int64(3), mock.AnythingOfType("models.EssentialData"),
		testTime, testTime.Add(24*time.Hour), int64(86400)).
		Run(func(args mock.Arguments) {
			merged := args.Get(2).(models.EssentialData)
			// Sticky fields survive a payload that omits them.
			assert.Equal(t, "GTA V", merged.Title)
			assert.Equal(t, 72.5, *merged.PlayHours)
			assert.Equal(t, 92, *merged.Metacritic)
		}).
		Return(nil)

	result, err := svc.Upsert(context.Background(), shared.ProviderRAWG, "3498", shared.KindGame,
		models.EssentialData{Title: "GTA V"})

	assert.NoError(t, err)
	assert.Equal(t, int64(3), result.CacheRecordID)
	assert.True(t, result.WasCached)
	repo.AssertExpectations(t)
}

func TestUpsertManualGeneratesExternalID(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	var generatedID string
	repo.On("FindByKey", mock.Anything, shared.ProviderManual, mock.AnythingOfType("string"), shared.KindBook).
		Run(func(args mock.Arguments) {
			generatedID = args.Get(2).(string)
		}).
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.CacheRecord")).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*models.CacheRecord)
			record.ID = 1
			assert.Equal(t, generatedID, record.ExternalID)
		}).
		Return(nil)

	_, err := svc.Upsert(context.Background(), shared.ProviderManual, "", shared.KindBook,
		models.EssentialData{Title: "My Reading Notes"})

	assert.NoError(t, err)
	assert.NotEmpty(t, generatedID)
	repo.AssertExpectations(t)
}

func TestUpsertValidation(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	t.Run("unknown kind", func(t *testing.T) {
		_, err := svc.Upsert(context.Background(), shared.ProviderTMDB, "1", "podcast",
			models.EssentialData{Title: "x"})
		var kindErr *UnsupportedKindError
		assert.ErrorAs(t, err, &kindErr)
		assert.Equal(t, "podcast", kindErr.Kind)
	})

	t.Run("missing title and external id", func(t *testing.T) {
		_, err := svc.Upsert(context.Background(), shared.ProviderTMDB, "", shared.KindMovie,
			models.EssentialData{Title: "   "})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "title")
		assert.Contains(t, verr.Fields, "external_id")
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := svc.Upsert(context.Background(), "netflix", "1", shared.KindMovie,
			models.EssentialData{Title: "x"})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "provider")
	})

	repo.AssertNotCalled(t, "Create")
}

func TestReadBumpsAccessStats(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	record := &models.CacheRecord{ID: 9, AccessCount: 3}
	repo.On("FindByKey", mock.Anything, shared.ProviderJikan, "5114", shared.KindAnime).
		Return(record, nil)
	repo.On("BumpAccess", mock.Anything, int64(9), testTime).Return(nil)

	got, err := svc.Read(context.Background(), shared.ProviderJikan, "5114", shared.KindAnime)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), got.AccessCount)
	assert.Equal(t, testTime, got.LastAccessed)
	repo.AssertExpectations(t)
}

func TestReadMissing(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	repo.On("FindByKey", mock.Anything, shared.ProviderJikan, "0", shared.KindAnime).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Read(context.Background(), shared.ProviderJikan, "0", shared.KindAnime)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchOrRefreshServesFreshCopy(t *testing.T) {
	repo := new(MockCacheRepository)
	registry := providers.NewRegistry()
	registry.Register(shared.ProviderTMDB, &stubAdapter{err: errors.New("adapter must not be called")})
	svc := newTestCacheService(t, repo, registry)

	record := &models.CacheRecord{
		ID:        4,
		Provider:  shared.ProviderTMDB,
		MediaKind: shared.KindMovie,
		NextFetch: testTime.Add(time.Hour),
		Essential: models.EssentialData{Title: "Dune"},
	}
	repo.On("FindByKey", mock.Anything, shared.ProviderTMDB, "438631", shared.KindMovie).
		Return(record, nil)
	repo.On("BumpAccess", mock.Anything, int64(4), testTime).Return(nil)

	data, err := svc.FetchOrRefresh(context.Background(), shared.ProviderTMDB, "438631", shared.KindMovie)

	assert.NoError(t, err)
	assert.Equal(t, "Dune", data.Title)
	repo.AssertExpectations(t)
}

func TestFetchOrRefreshRefreshesExpiredRecord(t *testing.T) {
	repo := new(MockCacheRepository)
	registry := providers.NewRegistry()
	registry.Register(shared.ProviderJikan, &stubAdapter{result: &providers.Result{
		Provider:   shared.ProviderJikan,
		ExternalID: "21",
		MediaKind:  shared.KindAnime,
		Essential: models.EssentialData{
			Title:    "One Piece",
			Episodes: intp(1100),
			Status:   strp("airing"),
		},
	}})
	svc := newTestCacheService(t, repo, registry)

	stale := &models.CacheRecord{
		ID:        6,
		Provider:  shared.ProviderJikan,
		MediaKind: shared.KindAnime,
		NextFetch: testTime.Add(-time.Hour),
		Essential: models.EssentialData{Title: "One Piece", Episodes: intp(1050)},
	}
	repo.On("FindByKey", mock.Anything, shared.ProviderJikan, "21", shared.KindAnime).
		Return(stale, nil)
	// Airing content lands in the daily refresh window.
	repo.On("ReplaceEssential", mock.Anything, int64(6), mock.AnythingOfType("models.EssentialData"),
		testTime, testTime.Add(24*time.Hour), int64(86400)).
		Return(nil)

	data, err := svc.FetchOrRefresh(context.Background(), shared.ProviderJikan, "21", shared.KindAnime)

	assert.NoError(t, err)
	assert.Equal(t, 1100, *data.Episodes)
	repo.AssertExpectations(t)
}

func TestFetchOrRefreshServesStaleOnProviderFailure(t *testing.T) {
	repo := new(MockCacheRepository)
	registry := providers.NewRegistry()
	registry.Register(shared.ProviderRAWG, &stubAdapter{err: errors.New("rate limited")})
	svc := newTestCacheService(t, repo, registry)

	stale := &models.CacheRecord{
		ID:        8,
		Provider:  shared.ProviderRAWG,
		MediaKind: shared.KindGame,
		NextFetch: testTime.Add(-time.Minute),
		Essential: models.EssentialData{Title: "Hades"},
	}
	repo.On("FindByKey", mock.Anything, shared.ProviderRAWG, "274755", shared.KindGame).
		Return(stale, nil)
	repo.On("IncrementError", mock.Anything, int64(8), testTime).Return(nil)

	data, err := svc.FetchOrRefresh(context.Background(), shared.ProviderRAWG, "274755", shared.KindGame)

	assert.NoError(t, err)
	assert.Equal(t, "Hades", data.Title)
	// The failure counts against errorCount only; no successful fetch happened.
	repo.AssertNotCalled(t, "ReplaceEssential", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestFetchOrRefreshMissWithProviderFailure(t *testing.T) {
	repo := new(MockCacheRepository)
	registry := providers.NewRegistry()
	registry.Register(shared.ProviderGoogleBooks, &stubAdapter{err: errors.New("upstream down")})
	svc := newTestCacheService(t, repo, registry)

	repo.On("FindByKey", mock.Anything, shared.ProviderGoogleBooks, "zyTCAlFPjgYC", shared.KindBook).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.FetchOrRefresh(context.Background(), shared.ProviderGoogleBooks, "zyTCAlFPjgYC", shared.KindBook)
	assert.ErrorIs(t, err, ErrUpstreamFetch)
}

func TestFetchOrRefreshManualRecord(t *testing.T) {
	t.Run("serves stored copy past its window", func(t *testing.T) {
		repo := new(MockCacheRepository)
		svc := newTestCacheService(t, repo, nil)

		record := &models.CacheRecord{
			ID:        2,
			Provider:  shared.ProviderManual,
			MediaKind: shared.KindBook,
			NextFetch: testTime.Add(-48 * time.Hour),
			Essential: models.EssentialData{Title: "Family Recipes"},
		}
		repo.On("FindByKey", mock.Anything, shared.ProviderManual, "abc", shared.KindBook).
			Return(record, nil)
		repo.On("BumpAccess", mock.Anything, int64(2), testTime).Return(nil)

		data, err := svc.FetchOrRefresh(context.Background(), shared.ProviderManual, "abc", shared.KindBook)
		assert.NoError(t, err)
		assert.Equal(t, "Family Recipes", data.Title)
	})

	t.Run("missing manual record is not found", func(t *testing.T) {
		repo := new(MockCacheRepository)
		svc := newTestCacheService(t, repo, nil)

		repo.On("FindByKey", mock.Anything, shared.ProviderManual, "nope", shared.KindBook).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.FetchOrRefresh(context.Background(), shared.ProviderManual, "nope", shared.KindBook)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPurgeUsesDefaultAge(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	cutoff := testTime.Add(-30 * 24 * time.Hour)
	repo.On("PurgeOlderThan", mock.Anything, shared.KindMovie, cutoff).Return(int64(4), nil)

	deleted, err := svc.Purge(context.Background(), shared.KindMovie, 0)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	repo.AssertExpectations(t)
}

func TestPurgeRejectsUnknownKind(t *testing.T) {
	repo := new(MockCacheRepository)
	svc := newTestCacheService(t, repo, nil)

	_, err := svc.Purge(context.Background(), "podcast", 7)
	var kindErr *UnsupportedKindError
	assert.ErrorAs(t, err, &kindErr)
}

func TestLifecycleWindow(t *testing.T) {
	assert.Equal(t, windowDaily, lifecycleWindow("ongoing"))
	assert.Equal(t, windowDaily, lifecycleWindow("Airing"))
	assert.Equal(t, windowWeekly, lifecycleWindow("upcoming"))
	assert.Equal(t, windowWeekly, lifecycleWindow("announced"))
	assert.Equal(t, windowMonthly, lifecycleWindow("finished"))
	assert.Equal(t, windowMonthly, lifecycleWindow(""))
}

func TestMergeEssentialStickyFields(t *testing.T) {
	old := models.EssentialData{
		Title:      "Old Title",
		PlayHours:  floatp(30),
		Metacritic: intp(88),
	}
	incoming := models.EssentialData{Title: "New Title", Metacritic: intp(90)}

	merged := mergeEssential(old, incoming)

	assert.Equal(t, "New Title", merged.Title)
	assert.Equal(t, 30.0, *merged.PlayHours)
	assert.Equal(t, 90, *merged.Metacritic)
}
