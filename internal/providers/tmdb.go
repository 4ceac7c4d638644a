package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mediahub/internal/http-api/models"
	"mediahub/internal/shared"

	"golang.org/x/time/rate"
)

// TMDBClient serves movies and series from The Movie Database.
type TMDBClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewTMDBClient(baseURL, apiKey string, timeout time.Duration) *TMDBClient {
	return &TMDBClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  newHTTPClient(timeout),
		// TMDB allows ~50 req/s; stay well under it
		rateLimiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

type tmdbTitle struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"` // tv uses name instead of title
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	Status           string  `json:"status"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Seasons []struct {
		SeasonNumber int `json:"season_number"`
		EpisodeCount int `json:"episode_count"`
	} `json:"seasons"`
}

type tmdbSearchResponse struct {
	Results []tmdbTitle `json:"results"`
}

func (c *TMDBClient) GetByID(ctx context.Context, externalID string, kind shared.MediaKind) (*Result, error) {
	path, err := c.detailPath(externalID, kind)
	if err != nil {
		return nil, err
	}

	var payload tmdbTitle
	endpoint := fmt.Sprintf("%s%s?api_key=%s", c.baseURL, path, url.QueryEscape(c.apiKey))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("tmdb get %s: %w", externalID, err)
	}

	result := c.toResult(payload, kind)
	return &result, nil
}

func (c *TMDBClient) Search(ctx context.Context, query string, kind shared.MediaKind) ([]Result, error) {
	var path string
	switch kind {
	case shared.KindMovie:
		path = "/search/movie"
	case shared.KindSeries:
		path = "/search/tv"
	default:
		return nil, fmt.Errorf("tmdb does not serve kind %q", kind)
	}

	var payload tmdbSearchResponse
	endpoint := fmt.Sprintf("%s%s?api_key=%s&query=%s", c.baseURL, path, url.QueryEscape(c.apiKey), url.QueryEscape(query))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w", query, err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, item := range payload.Results {
		results = append(results, c.toResult(item, kind))
	}
	return results, nil
}

func (c *TMDBClient) detailPath(externalID string, kind shared.MediaKind) (string, error) {
	switch kind {
	case shared.KindMovie:
		return "/movie/" + url.PathEscape(externalID), nil
	case shared.KindSeries:
		return "/tv/" + url.PathEscape(externalID), nil
	default:
		return "", fmt.Errorf("tmdb does not serve kind %q", kind)
	}
}

func (c *TMDBClient) toResult(payload tmdbTitle, kind shared.MediaKind) Result {
	title := payload.Title
	date := payload.ReleaseDate
	if kind == shared.KindSeries {
		title = payload.Name
		date = payload.FirstAirDate
	}

	essential := models.EssentialData{
		Title:         title,
		Description:   str(payload.Overview),
		AverageRating: floatp(payload.VoteAverage),
		RatingCount:   intp(payload.VoteCount),
		Status:        str(tmdbLifecycle(payload.Status)),
	}
	if payload.PosterPath != "" {
		essential.CoverImage = str("https://image.tmdb.org/t/p/w500" + payload.PosterPath)
	}
	if len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil {
			essential.ReleaseYear = &year
		}
	}
	for _, g := range payload.Genres {
		essential.Genres = append(essential.Genres, g.Name)
	}

	switch kind {
	case shared.KindMovie:
		essential.Runtime = intp(payload.Runtime)
	case shared.KindSeries:
		if len(payload.EpisodeRunTime) > 0 {
			essential.Runtime = intp(payload.EpisodeRunTime[0])
		}
		essential.Episodes = intp(payload.NumberOfEpisodes)
		essential.Seasons = intp(payload.NumberOfSeasons)
		for _, s := range payload.Seasons {
			if s.SeasonNumber > 0 {
				essential.EpisodesPerSeason = append(essential.EpisodesPerSeason, s.EpisodeCount)
			}
		}
	}

	return Result{
		Provider:   shared.ProviderTMDB,
		ExternalID: strconv.FormatInt(payload.ID, 10),
		MediaKind:  kind,
		Essential:  essential,
	}
}

func tmdbLifecycle(status string) string {
	switch status {
	case "Returning Series", "In Production":
		return shared.LifecycleOngoing
	case "Planned", "Rumored", "Post Production":
		return shared.LifecycleUpcoming
	case "":
		return ""
	default: // Released, Ended, Canceled
		return "finished"
	}
}
