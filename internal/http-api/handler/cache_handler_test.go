package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediahub/internal/http-api/models"
	"mediahub/internal/http-api/service"
	"mediahub/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockCacheService mocks the CacheService interface
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Upsert(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind, raw models.EssentialData) (*service.UpsertResult, error) {
	args := m.Called(ctx, provider, externalID, kind, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UpsertResult), args.Error(1)
}

func (m *MockCacheService) Read(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.CacheRecord, error) {
	args := m.Called(ctx, provider, externalID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CacheRecord), args.Error(1)
}

func (m *MockCacheService) FetchOrRefresh(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.EssentialData, error) {
	args := m.Called(ctx, provider, externalID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EssentialData), args.Error(1)
}

func (m *MockCacheService) Purge(ctx context.Context, kind shared.MediaKind, olderThanDays int) (int64, error) {
	args := m.Called(ctx, kind, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// identity stands in for the auth middleware in handler tests.
func identity(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func newCacheRouter(svc *MockCacheService, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/cache")
	group.Use(identity("test-user", role))
	NewCacheHandler(svc).RegisterRoutes(group)
	return r
}

func TestUpsertEndpoint(t *testing.T) {
	body := `{"provider": "tmdb", "external_id": "603", "media_kind": "movie",
		"essential_data": {"title": "The Matrix", "runtime": 136}}`

	t.Run("new record returns 201", func(t *testing.T) {
		svc := new(MockCacheService)
		svc.On("Upsert", mock.Anything, shared.ProviderTMDB, "603", shared.KindMovie, mock.AnythingOfType("models.EssentialData")).
			Return(&service.UpsertResult{CacheRecordID: 7, WasCached: false}, nil)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/cache/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(7), resp["cache_record_id"])
		assert.Equal(t, false, resp["was_cached"])
	})

	t.Run("merged record returns 200", func(t *testing.T) {
		svc := new(MockCacheService)
		svc.On("Upsert", mock.Anything, shared.ProviderTMDB, "603", shared.KindMovie, mock.AnythingOfType("models.EssentialData")).
			Return(&service.UpsertResult{CacheRecordID: 7, WasCached: true}, nil)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/cache/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		svc := new(MockCacheService)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/cache/", strings.NewReader(`{"provider": "tmdb"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Upsert")
	})

	t.Run("validation error carries field map", func(t *testing.T) {
		svc := new(MockCacheService)
		verr := service.NewValidationError().Add("title", "title is required")
		svc.On("Upsert", mock.Anything, shared.ProviderTMDB, "603", shared.KindMovie, mock.AnythingOfType("models.EssentialData")).
			Return(nil, verr)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/cache/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"title"`)
	})
}

func TestReadEndpoint(t *testing.T) {
	t.Run("missing record returns 404", func(t *testing.T) {
		svc := new(MockCacheService)
		svc.On("Read", mock.Anything, shared.ProviderJikan, "0", shared.KindAnime).
			Return(nil, service.ErrNotFound)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/cache/jikan/anime/0", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("found record returns full view", func(t *testing.T) {
		svc := new(MockCacheService)
		svc.On("Read", mock.Anything, shared.ProviderTMDB, "603", shared.KindMovie).
			Return(&models.CacheRecord{
				ID:         7,
				Provider:   shared.ProviderTMDB,
				ExternalID: "603",
				MediaKind:  shared.KindMovie,
				Essential:  models.EssentialData{Title: "The Matrix"},
				FetchCount: 2,
			}, nil)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/cache/tmdb/movie/603", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"fetch_count":2`)
	})
}

func TestFetchOrRefreshEndpoint(t *testing.T) {
	t.Run("upstream failure with no cached copy returns 502", func(t *testing.T) {
		svc := new(MockCacheService)
		svc.On("FetchOrRefresh", mock.Anything, shared.ProviderRAWG, "999", shared.KindGame).
			Return(nil, service.ErrUpstreamFetch)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/cache/rawg/game/999/data", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("serves essential data", func(t *testing.T) {
		svc := new(MockCacheService)
		svc.On("FetchOrRefresh", mock.Anything, shared.ProviderRAWG, "3498", shared.KindGame).
			Return(&models.EssentialData{Title: "Grand Theft Auto V"}, nil)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/cache/rawg/game/3498/data", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Grand Theft Auto V")
	})
}

func TestPurgeEndpoint(t *testing.T) {
	t.Run("requires admin role", func(t *testing.T) {
		svc := new(MockCacheService)
		r := newCacheRouter(svc, "user")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/cache/movie", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "Purge")
	})

	t.Run("admin purge with explicit age", func(t *testing.T) {
		svc := new(MockCacheService)
		svc.On("Purge", mock.Anything, shared.KindMovie, 7).Return(int64(3), nil)
		r := newCacheRouter(svc, "admin")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/cache/movie?older_than_days=7", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted_count":3`)
	})

	t.Run("rejects malformed age", func(t *testing.T) {
		svc := new(MockCacheService)
		r := newCacheRouter(svc, "admin")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/cache/movie?older_than_days=soon", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Purge")
	})
}
