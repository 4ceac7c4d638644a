package dto

import (
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/http-api/service"
	"mediahub/internal/shared"
)

// AddLibraryEntryRequest: payload to add a tracked title to the caller's
// library.
type AddLibraryEntryRequest struct {
	CacheRecordID int64                  `json:"cache_record_id" binding:"required,gt=0"`
	Status        *shared.Status         `json:"status,omitempty"`
	UserRating    *int                   `json:"user_rating,omitempty" binding:"omitempty,min=1,max=5"`
	PersonalNotes *string                `json:"personal_notes,omitempty" binding:"omitempty,max=3000"`
	Progress      *service.ProgressPatch `json:"progress,omitempty"`
}

// UpdateLibraryEntryRequest: partial update; absent fields are untouched.
type UpdateLibraryEntryRequest struct {
	Status        *shared.Status         `json:"status,omitempty"`
	UserRating    *int                   `json:"user_rating,omitempty" binding:"omitempty,min=1,max=5"`
	PersonalNotes *string                `json:"personal_notes,omitempty" binding:"omitempty,max=3000"`
	Progress      *service.ProgressPatch `json:"progress,omitempty"`
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	DroppedAt     *time.Time             `json:"dropped_at,omitempty"`
}

// LibraryEntryResponse: response for a library item.
type LibraryEntryResponse struct {
	ID            int64                `json:"id"`
	CacheRecordID int64                `json:"cache_record_id"`
	MediaKind     shared.MediaKind     `json:"media_kind"`
	Status        shared.Status        `json:"status"`
	Progress      models.Progress      `json:"progress"`
	UserRating    *int                 `json:"user_rating,omitempty"`
	PersonalNotes *string              `json:"personal_notes,omitempty"`
	StartedAt     *time.Time           `json:"started_at,omitempty"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	DroppedAt     *time.Time           `json:"dropped_at,omitempty"`
	AddedAt       time.Time            `json:"added_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	CacheRecord   *CacheRecordResponse `json:"cache_record,omitempty"`
}

func FromLibraryEntry(entry models.LibraryEntry) LibraryEntryResponse {
	resp := LibraryEntryResponse{
		ID:            entry.ID,
		CacheRecordID: entry.CacheRecordID,
		MediaKind:     entry.MediaKind,
		Status:        entry.Status,
		Progress:      entry.Progress,
		UserRating:    entry.UserRating,
		PersonalNotes: entry.PersonalNotes,
		StartedAt:     entry.StartedAt,
		CompletedAt:   entry.CompletedAt,
		DroppedAt:     entry.DroppedAt,
		AddedAt:       entry.AddedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
	if entry.CacheRecord != nil {
		record := FromCacheRecord(*entry.CacheRecord)
		resp.CacheRecord = &record
	}
	return resp
}

// LibraryListResponse: the caller's library, newest first.
type LibraryListResponse struct {
	Items []LibraryEntryResponse `json:"items"`
	Total int                    `json:"total"`
}

// DeleteLibraryEntryResponse reports a removal and whether the referenced
// cache record was evicted with it.
type DeleteLibraryEntryResponse struct {
	DeletedID          int64 `json:"deleted_id"`
	CacheRecordDeleted bool  `json:"cache_record_deleted"`
}
