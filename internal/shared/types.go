package shared

// shared types across the application
// 1st: provider and media kind enums used by cache keys
// 2nd: library entry status values for the tracking state machine
// 3rd: content lifecycle classes driving refresh TTLs

// Provider identifies where a cache record's metadata came from.
type Provider string

const (
	ProviderTMDB        Provider = "tmdb"
	ProviderJikan       Provider = "mal/jikan"
	ProviderRAWG        Provider = "rawg"
	ProviderGoogleBooks Provider = "google_books"
	ProviderManual      Provider = "manual"
)

// MediaKind is the discriminant for the kind-specific payload of a record.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
	KindAnime  MediaKind = "anime"
	KindManga  MediaKind = "manga"
	KindBook   MediaKind = "book"
	KindGame   MediaKind = "game"
)

// Status is the user-facing tracking state of a library entry.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDropped    Status = "dropped"
)

// Lifecycle classes as reported in essential data. Ongoing content is
// refreshed daily, upcoming weekly, everything else monthly.
const (
	LifecycleOngoing   = "ongoing"
	LifecycleAiring    = "airing"
	LifecycleUpcoming  = "upcoming"
	LifecycleAnnounced = "announced"
)

var providers = map[Provider]bool{
	ProviderTMDB:        true,
	ProviderJikan:       true,
	ProviderRAWG:        true,
	ProviderGoogleBooks: true,
	ProviderManual:      true,
}

var mediaKinds = map[MediaKind]bool{
	KindMovie:  true,
	KindSeries: true,
	KindAnime:  true,
	KindManga:  true,
	KindBook:   true,
	KindGame:   true,
}

var statuses = map[Status]bool{
	StatusPlanned:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusDropped:    true,
}

// ValidProvider reports whether p is a known provider key.
func ValidProvider(p Provider) bool {
	return providers[p]
}

// ValidMediaKind reports whether k is a supported media kind.
func ValidMediaKind(k MediaKind) bool {
	return mediaKinds[k]
}

// ValidStatus reports whether s is a known tracking status.
func ValidStatus(s Status) bool {
	return statuses[s]
}
