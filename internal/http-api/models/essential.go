package models

// ReleasePeriod is a partial release date. A period without a year carries
// no information and is pruned during normalization.
type ReleasePeriod struct {
	Year  int  `json:"year"`
	Month *int `json:"month,omitempty"`
}

// EssentialData is the canonical, pruned metadata payload of a cache record.
// It is a tagged union over media kinds: the common fields apply to every
// kind, the rest are populated only for the kinds they belong to. Stored as
// a single JSON column, so empty fields must stay nil to keep records small
// and comparable.
type EssentialData struct {
	Title         string         `json:"title"`
	Description   *string        `json:"description,omitempty"`
	CoverImage    *string        `json:"coverImage,omitempty"`
	ReleaseYear   *int           `json:"releaseYear,omitempty"`
	ReleasePeriod *ReleasePeriod `json:"releasePeriod,omitempty"`
	Genres        []string       `json:"genres,omitempty"`
	AverageRating *float64       `json:"averageRating,omitempty"`
	RatingCount   *int           `json:"ratingCount,omitempty"`
	// Lifecycle class ("ongoing", "upcoming", ...); drives the refresh TTL.
	Status *string `json:"status,omitempty"`

	// movie, series
	Runtime           *int  `json:"runtime,omitempty"`
	Episodes          *int  `json:"episodes,omitempty"` // series, anime
	Seasons           *int  `json:"seasons,omitempty"`
	EpisodesPerSeason []int `json:"episodesPerSeason,omitempty"`

	// anime, manga
	Chapters   *int     `json:"chapters,omitempty"`
	Volumes    *int     `json:"volumes,omitempty"`
	PageCount  *int     `json:"pageCount,omitempty"`
	Popularity *int     `json:"popularity,omitempty"`
	Members    *int     `json:"members,omitempty"`
	Studios    []string `json:"studios,omitempty"`
	Authors    []string `json:"authors,omitempty"`

	// game
	PlayHours  *float64 `json:"playHours,omitempty"`
	Metacritic *int     `json:"metacritic,omitempty"`
	Platforms  []string `json:"platforms,omitempty"`
}

// Lifecycle returns the lifecycle class or "" when the provider did not
// report one.
func (e *EssentialData) Lifecycle() string {
	if e.Status == nil {
		return ""
	}
	return *e.Status
}
