package models

import (
	"time"

	"mediahub/internal/shared"
)

// GameTask is one item on a game entry's task list; tasks are the unit of
// progress for games instead of a percentage.
type GameTask struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// Progress carries the kind-specific progress fields of a library entry.
// Only the fields relevant to the entry's media kind are ever set.
type Progress struct {
	Episodes    *int       `json:"episodes,omitempty"` // anime, series
	Chapters    *int       `json:"chapters,omitempty"` // manga
	Volumes     *int       `json:"volumes,omitempty"`  // manga
	Seasons     *int       `json:"seasons,omitempty"`  // series
	Minutes     *int       `json:"minutes,omitempty"`  // movie
	Hours       *float64   `json:"hours,omitempty"`    // game
	Pages       *int       `json:"pages,omitempty"`    // book
	Percentage  *float64   `json:"percentage,omitempty"`
	Tasks       []GameTask `json:"tasks,omitempty"` // game
	LastUpdated time.Time  `json:"lastUpdated"`
}

// LibraryEntry is one user's personal tracking of one cache record. The
// record is shared, not owned; deleting an entry only decrements the
// record's reference count.
type LibraryEntry struct {
	ID            int64            `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID        string           `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_library_user_cache;index"`
	CacheRecordID int64            `json:"cache_record_id" gorm:"not null;uniqueIndex:idx_library_user_cache"`
	MediaKind     shared.MediaKind `json:"media_kind" gorm:"size:16;not null"`

	Status        shared.Status `json:"status" gorm:"size:16;not null;default:'planned'"`
	Progress      Progress      `json:"progress" gorm:"serializer:json"`
	UserRating    *int          `json:"user_rating,omitempty" gorm:"check:user_rating >= 1 AND user_rating <= 5"`
	PersonalNotes *string       `json:"personal_notes,omitempty" gorm:"size:3000"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DroppedAt   *time.Time `json:"dropped_at,omitempty"`

	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	CacheRecord *CacheRecord `json:"cache_record,omitempty" gorm:"foreignKey:CacheRecordID"`
}

func (LibraryEntry) TableName() string {
	return "library_entries"
}
