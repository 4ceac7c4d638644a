package dto

import (
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/shared"
)

// UpsertCacheRequest: payload to store or merge a title's metadata.
// Manual entries may omit external_id; an opaque id is generated.
type UpsertCacheRequest struct {
	Provider   shared.Provider      `json:"provider" binding:"required"`
	ExternalID string               `json:"external_id"`
	MediaKind  shared.MediaKind     `json:"media_kind" binding:"required"`
	Essential  models.EssentialData `json:"essential_data" binding:"required"`
}

// UpsertCacheResponse mirrors the upsert result.
type UpsertCacheResponse struct {
	CacheRecordID int64 `json:"cache_record_id"`
	WasCached     bool  `json:"was_cached"`
}

// CacheRecordResponse: full record view including refresh control and
// usage stats.
type CacheRecordResponse struct {
	ID             int64                `json:"id"`
	Provider       shared.Provider      `json:"provider"`
	ExternalID     string               `json:"external_id"`
	MediaKind      shared.MediaKind     `json:"media_kind"`
	Essential      models.EssentialData `json:"essential_data"`
	LastFetched    time.Time            `json:"last_fetched"`
	NextFetch      time.Time            `json:"next_fetch"`
	TTLSeconds     int64                `json:"ttl_seconds"`
	FetchCount     int64                `json:"fetch_count"`
	ErrorCount     int64                `json:"error_count"`
	ReferenceCount int64                `json:"reference_count"`
	LastAccessed   time.Time            `json:"last_accessed"`
	AccessCount    int64                `json:"access_count"`
}

func FromCacheRecord(record models.CacheRecord) CacheRecordResponse {
	return CacheRecordResponse{
		ID:             record.ID,
		Provider:       record.Provider,
		ExternalID:     record.ExternalID,
		MediaKind:      record.MediaKind,
		Essential:      record.Essential,
		LastFetched:    record.LastFetched,
		NextFetch:      record.NextFetch,
		TTLSeconds:     record.TTLSeconds,
		FetchCount:     record.FetchCount,
		ErrorCount:     record.ErrorCount,
		ReferenceCount: record.ReferenceCount,
		LastAccessed:   record.LastAccessed,
		AccessCount:    record.AccessCount,
	}
}

// PurgeCacheResponse reports an age-based bulk purge.
type PurgeCacheResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// SearchResultResponse is one provider search hit.
type SearchResultResponse struct {
	Provider   shared.Provider      `json:"provider"`
	ExternalID string               `json:"external_id"`
	MediaKind  shared.MediaKind     `json:"media_kind"`
	Essential  models.EssentialData `json:"essential_data"`
}

type SearchListResponse struct {
	Items []SearchResultResponse `json:"items"`
	Total int                    `json:"total"`
}
