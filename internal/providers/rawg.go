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

// RAWGClient serves games from the RAWG video game database.
type RAWGClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewRAWGClient(baseURL, apiKey string, timeout time.Duration) *RAWGClient {
	return &RAWGClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  newHTTPClient(timeout),
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

type rawgGame struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	DescriptionRaw string  `json:"description_raw"`
	BackgroundImg  string  `json:"background_image"`
	Released       string  `json:"released"`
	TBA            bool    `json:"tba"`
	Rating         float64 `json:"rating"`
	RatingsCount   int     `json:"ratings_count"`
	Playtime       int     `json:"playtime"`
	Metacritic     int     `json:"metacritic"`
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
}

type rawgSearchResponse struct {
	Results []rawgGame `json:"results"`
}

func (c *RAWGClient) GetByID(ctx context.Context, externalID string, kind shared.MediaKind) (*Result, error) {
	if kind != shared.KindGame {
		return nil, fmt.Errorf("rawg does not serve kind %q", kind)
	}

	var payload rawgGame
	endpoint := fmt.Sprintf("%s/games/%s?key=%s", c.baseURL, url.PathEscape(externalID), url.QueryEscape(c.apiKey))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("rawg get %s: %w", externalID, err)
	}

	result := c.toResult(payload)
	return &result, nil
}

func (c *RAWGClient) Search(ctx context.Context, query string, kind shared.MediaKind) ([]Result, error) {
	if kind != shared.KindGame {
		return nil, fmt.Errorf("rawg does not serve kind %q", kind)
	}

	var payload rawgSearchResponse
	endpoint := fmt.Sprintf("%s/games?key=%s&search=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(query))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("rawg search %q: %w", query, err)
	}

	results := make([]Result, 0, len(payload.Results))
	for _, item := range payload.Results {
		results = append(results, c.toResult(item))
	}
	return results, nil
}

func (c *RAWGClient) toResult(game rawgGame) Result {
	essential := models.EssentialData{
		Title:         game.Name,
		Description:   str(game.DescriptionRaw),
		CoverImage:    str(game.BackgroundImg),
		AverageRating: floatp(game.Rating),
		RatingCount:   intp(game.RatingsCount),
		Metacritic:    intp(game.Metacritic),
	}
	if game.Playtime > 0 {
		essential.PlayHours = floatp(float64(game.Playtime))
	}
	for _, g := range game.Genres {
		essential.Genres = append(essential.Genres, g.Name)
	}
	for _, p := range game.Platforms {
		essential.Platforms = append(essential.Platforms, p.Platform.Name)
	}

	lifecycle := "finished"
	switch {
	case game.TBA:
		lifecycle = shared.LifecycleAnnounced
	case len(game.Released) >= 4:
		if year, err := strconv.Atoi(game.Released[:4]); err == nil {
			essential.ReleaseYear = &year
			if time.Now().Year() < year {
				lifecycle = shared.LifecycleUpcoming
			}
		}
	}
	essential.Status = str(lifecycle)

	return Result{
		Provider:   shared.ProviderRAWG,
		ExternalID: strconv.FormatInt(game.ID, 10),
		MediaKind:  shared.KindGame,
		Essential:  essential,
	}
}
