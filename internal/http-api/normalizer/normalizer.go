// Package normalizer converts raw provider payloads (or hand-entered
// fields) into the canonical essential-data shape stored on cache records.
package normalizer

import (
	"strings"

	"mediahub/internal/http-api/models"
	"mediahub/internal/shared"
)

// Normalize prunes empty fields from in and keeps only the fields that
// belong to the given media kind. Title is the one field exempt from
// pruning: it survives even when empty so a record never loses its key
// display field. Numeric fields count as present whenever they are set,
// including zero.
func Normalize(kind shared.MediaKind, in models.EssentialData) models.EssentialData {
	out := models.EssentialData{
		Title:         strings.TrimSpace(in.Title),
		Description:   pruneString(in.Description),
		CoverImage:    pruneString(in.CoverImage),
		ReleaseYear:   in.ReleaseYear,
		ReleasePeriod: prunePeriod(in.ReleasePeriod),
		Genres:        pruneStrings(in.Genres),
		AverageRating: in.AverageRating,
		RatingCount:   in.RatingCount,
		Status:        pruneString(in.Status),
	}

	switch kind {
	case shared.KindMovie:
		out.Runtime = in.Runtime
	case shared.KindSeries:
		out.Runtime = in.Runtime
		out.Episodes = in.Episodes
		out.Seasons = in.Seasons
		if len(in.EpisodesPerSeason) > 0 {
			out.EpisodesPerSeason = in.EpisodesPerSeason
		}
	case shared.KindAnime:
		out.Episodes = in.Episodes
		out.Popularity = in.Popularity
		out.Members = in.Members
		out.Studios = pruneStrings(in.Studios)
	case shared.KindManga:
		out.Chapters = in.Chapters
		out.Volumes = in.Volumes
		out.PageCount = in.PageCount
		out.Popularity = in.Popularity
		out.Members = in.Members
		out.Authors = pruneStrings(in.Authors)
	case shared.KindGame:
		out.PlayHours = in.PlayHours
		out.Metacritic = in.Metacritic
		out.Platforms = pruneStrings(in.Platforms)
	case shared.KindBook:
		// books carry only the common fields
	}

	return out
}

func pruneString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func pruneStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// prunePeriod drops a release period without a year; a bare month is not a
// usable release date.
func prunePeriod(p *models.ReleasePeriod) *models.ReleasePeriod {
	if p == nil || p.Year == 0 {
		return nil
	}
	out := models.ReleasePeriod{Year: p.Year, Month: p.Month}
	return &out
}
