package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/http-api/normalizer"
	"mediahub/internal/http-api/repository"
	"mediahub/internal/providers"
	"mediahub/internal/shared"

	"github.com/google/uuid"
)

// Refresh windows. The manual upsert path always uses the daily window;
// provider refreshes pick one based on the content's lifecycle class.
const (
	windowDaily   = 24 * time.Hour
	windowWeekly  = 7 * 24 * time.Hour
	windowMonthly = 30 * 24 * time.Hour
)

// UpsertResult reports where an upsert landed.
type UpsertResult struct {
	CacheRecordID int64 `json:"cache_record_id"`
	WasCached     bool  `json:"was_cached"`
}

type CacheService interface {
	Upsert(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind, raw models.EssentialData) (*UpsertResult, error)
	Read(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.CacheRecord, error)
	FetchOrRefresh(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.EssentialData, error)
	Purge(ctx context.Context, kind shared.MediaKind, olderThanDays int) (int64, error)
}

type cacheService struct {
	repo             repository.CacheRepository
	hot              *repository.EssentialRedisRepo
	adapters         *providers.Registry
	purgeDefaultDays int
	logger           *slog.Logger
	now              func() time.Time
}

func NewCacheService(repo repository.CacheRepository, hot *repository.EssentialRedisRepo, adapters *providers.Registry, purgeDefaultDays int, logger *slog.Logger) CacheService {
	return &cacheService{
		repo:             repo,
		hot:              hot,
		adapters:         adapters,
		purgeDefaultDays: purgeDefaultDays,
		logger:           logger,
		now:              time.Now,
	}
}

// Upsert stores or merges a normalized payload under its unique key. The
// externalId for manual records may be omitted; a generated opaque id takes
// its place since hand-entered titles have no provider-scoped identity.
func (s *cacheService) Upsert(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind, raw models.EssentialData) (*UpsertResult, error) {
	if provider == shared.ProviderManual && externalID == "" {
		externalID = uuid.New().String()
	}
	if err := validateKey(provider, externalID, kind, raw.Title); err != nil {
		return nil, err
	}

	normalized := normalizer.Normalize(kind, raw)
	record, wasCached, err := s.store(ctx, provider, externalID, kind, normalized, windowDaily)
	if err != nil {
		return nil, err
	}
	return &UpsertResult{CacheRecordID: record.ID, WasCached: wasCached}, nil
}

// Read returns the stored record and bumps its access stats. It never
// consults the provider.
func (s *cacheService) Read(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.CacheRecord, error) {
	if !shared.ValidMediaKind(kind) {
		return nil, &UnsupportedKindError{Kind: string(kind)}
	}

	record, err := s.repo.FindByKey(ctx, provider, externalID, kind)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("cache record %s/%s/%s: %w", provider, kind, externalID, ErrNotFound)
		}
		return nil, err
	}

	now := s.now()
	if err := s.repo.BumpAccess(ctx, record.ID, now); err != nil {
		return nil, err
	}
	record.AccessCount++
	record.LastAccessed = now
	return record, nil
}

// FetchOrRefresh serves stored data while it is fresh and goes back to the
// provider once the refresh window has passed. Adapter failures degrade to
// the stale copy whenever one exists.
func (s *cacheService) FetchOrRefresh(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind) (*models.EssentialData, error) {
	if !shared.ValidMediaKind(kind) {
		return nil, &UnsupportedKindError{Kind: string(kind)}
	}

	now := s.now()
	record, err := s.repo.FindByKey(ctx, provider, externalID, kind)
	if err != nil && !repository.IsNotFound(err) {
		return nil, err
	}

	if record != nil && record.Fresh(now) {
		if err := s.repo.BumpAccess(ctx, record.ID, now); err != nil {
			return nil, err
		}
		if hot := s.hot.Get(ctx, provider, externalID, kind); hot != nil {
			return hot, nil
		}
		s.cacheHot(ctx, record)
		return &record.Essential, nil
	}

	adapter, ok := s.adapters.Get(provider)
	if !ok {
		// No adapter (manual records): the stored copy is all there is.
		if record != nil {
			if err := s.repo.BumpAccess(ctx, record.ID, now); err != nil {
				return nil, err
			}
			return &record.Essential, nil
		}
		return nil, fmt.Errorf("cache record %s/%s/%s: %w", provider, kind, externalID, ErrNotFound)
	}

	result, err := adapter.GetByID(ctx, externalID, kind)
	if err != nil {
		if record != nil {
			// Graceful degradation: serve stale, count the failure.
			s.logger.Warn("provider fetch failed, serving stale data",
				"provider", provider, "external_id", externalID, "kind", kind, "error", err)
			if bumpErr := s.repo.IncrementError(ctx, record.ID, now); bumpErr != nil {
				return nil, bumpErr
			}
			return &record.Essential, nil
		}
		return nil, fmt.Errorf("%w: %s/%s/%s: %v", ErrUpstreamFetch, provider, kind, externalID, err)
	}

	normalized := normalizer.Normalize(kind, result.Essential)
	stored, _, err := s.store(ctx, provider, externalID, kind, normalized, lifecycleWindow(normalized.Lifecycle()))
	if err != nil {
		return nil, err
	}
	return &stored.Essential, nil
}

// Purge removes unreferenced records of one kind that have not been
// fetched within the age limit.
func (s *cacheService) Purge(ctx context.Context, kind shared.MediaKind, olderThanDays int) (int64, error) {
	if !shared.ValidMediaKind(kind) {
		return 0, &UnsupportedKindError{Kind: string(kind)}
	}
	if olderThanDays <= 0 {
		olderThanDays = s.purgeDefaultDays
	}

	cutoff := s.now().Add(-time.Duration(olderThanDays) * 24 * time.Hour)
	deleted, err := s.repo.PurgeOlderThan(ctx, kind, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("purged cache records", "kind", kind, "older_than_days", olderThanDays, "deleted", deleted)
	return deleted, nil
}

// store is the shared create-or-merge path behind Upsert and FetchOrRefresh.
func (s *cacheService) store(ctx context.Context, provider shared.Provider, externalID string, kind shared.MediaKind, normalized models.EssentialData, window time.Duration) (*models.CacheRecord, bool, error) {
	now := s.now()
	nextFetch := now.Add(window)
	ttlSeconds := int64(window / time.Second)

	existing, err := s.repo.FindByKey(ctx, provider, externalID, kind)
	if err != nil && !repository.IsNotFound(err) {
		return nil, false, err
	}

	if existing != nil {
		merged := mergeEssential(existing.Essential, normalized)
		if err := s.repo.ReplaceEssential(ctx, existing.ID, merged, now, nextFetch, ttlSeconds); err != nil {
			return nil, false, err
		}
		existing.Essential = merged
		existing.LastFetched = now
		existing.NextFetch = nextFetch
		existing.TTLSeconds = ttlSeconds
		s.cacheHot(ctx, existing)
		return existing, true, nil
	}

	record := &models.CacheRecord{
		Provider:     provider,
		ExternalID:   externalID,
		MediaKind:    kind,
		Essential:    normalized,
		LastFetched:  now,
		NextFetch:    nextFetch,
		TTLSeconds:   ttlSeconds,
		FetchCount:   1,
		AccessCount:  1,
		LastAccessed: now,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if repository.IsDuplicateKey(err) {
			// Lost a create race: the other writer's record wins, merge
			// into it instead.
			winner, findErr := s.repo.FindByKey(ctx, provider, externalID, kind)
			if findErr != nil {
				return nil, false, findErr
			}
			merged := mergeEssential(winner.Essential, normalized)
			if err := s.repo.ReplaceEssential(ctx, winner.ID, merged, now, nextFetch, ttlSeconds); err != nil {
				return nil, false, err
			}
			winner.Essential = merged
			s.cacheHot(ctx, winner)
			return winner, true, nil
		}
		return nil, false, err
	}
	s.cacheHot(ctx, record)
	return record, false, nil
}

// cacheHot mirrors a record's essential data into redis until its next
// scheduled fetch. Best effort; a redis failure never fails the request.
func (s *cacheService) cacheHot(ctx context.Context, record *models.CacheRecord) {
	ttl := time.Until(record.NextFetch)
	if err := s.hot.Set(ctx, record.Provider, record.ExternalID, record.MediaKind, &record.Essential, ttl); err != nil {
		s.logger.Warn("failed to cache essential data in redis", "record_id", record.ID, "error", err)
	}
}

// mergeEssential applies the overwrite-and-drop merge: the new normalized
// payload wins wholesale, except for the sticky fields which survive when
// the new payload omits them.
func mergeEssential(old, incoming models.EssentialData) models.EssentialData {
	merged := incoming
	if merged.PlayHours == nil && old.PlayHours != nil {
		merged.PlayHours = old.PlayHours
	}
	if merged.Metacritic == nil && old.Metacritic != nil {
		merged.Metacritic = old.Metacritic
	}
	return merged
}

func lifecycleWindow(lifecycle string) time.Duration {
	switch strings.ToLower(lifecycle) {
	case shared.LifecycleOngoing, shared.LifecycleAiring:
		return windowDaily
	case shared.LifecycleUpcoming, shared.LifecycleAnnounced:
		return windowWeekly
	default:
		return windowMonthly
	}
}

func validateKey(provider shared.Provider, externalID string, kind shared.MediaKind, title string) error {
	if !shared.ValidMediaKind(kind) {
		return &UnsupportedKindError{Kind: string(kind)}
	}

	verr := NewValidationError()
	if provider == "" {
		verr.Add("provider", "provider is required")
	} else if !shared.ValidProvider(provider) {
		verr.Add("provider", fmt.Sprintf("unknown provider %q", provider))
	}
	if externalID == "" {
		verr.Add("external_id", "external id is required")
	}
	if strings.TrimSpace(title) == "" {
		verr.Add("title", "title is required")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}
