package models

import (
	"time"

	"mediahub/internal/shared"
)

// CacheRecord holds one distinct external (or hand-entered) title, shared by
// every library entry that tracks it. One table for all media kinds; the
// kind column discriminates the essential payload variant.
type CacheRecord struct {
	ID         int64            `json:"id" gorm:"primaryKey;autoIncrement"`
	Provider   shared.Provider  `json:"provider" gorm:"size:32;not null;uniqueIndex:idx_cache_provider_external_kind"`
	ExternalID string           `json:"external_id" gorm:"size:128;not null;uniqueIndex:idx_cache_provider_external_kind"`
	MediaKind  shared.MediaKind `json:"media_kind" gorm:"size:16;not null;uniqueIndex:idx_cache_provider_external_kind"`

	Essential EssentialData `json:"essential_data" gorm:"serializer:json;not null"`

	// Refresh control
	LastFetched time.Time `json:"last_fetched"`
	NextFetch   time.Time `json:"next_fetch" gorm:"index"`
	TTLSeconds  int64     `json:"ttl_seconds"`
	FetchCount  int64     `json:"fetch_count" gorm:"not null;default:0"`
	ErrorCount  int64     `json:"error_count" gorm:"not null;default:0"`

	// Usage stats
	ReferenceCount int64     `json:"reference_count" gorm:"not null;default:0"`
	LastAccessed   time.Time `json:"last_accessed"`
	AccessCount    int64     `json:"access_count" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (CacheRecord) TableName() string {
	return "cache_records"
}

// Fresh reports whether the record can be served without consulting the
// provider again.
func (r *CacheRecord) Fresh(now time.Time) bool {
	return now.Before(r.NextFetch)
}
