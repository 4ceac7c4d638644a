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

// JikanClient serves anime and manga from the unofficial MyAnimeList API.
type JikanClient struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewJikanClient(baseURL string, timeout time.Duration) *JikanClient {
	return &JikanClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
		// Jikan allows 3 requests per second
		rateLimiter: rate.NewLimiter(rate.Limit(3), 3),
	}
}

type jikanEntry struct {
	MalID    int64   `json:"mal_id"`
	Title    string  `json:"title"`
	Synopsis string  `json:"synopsis"`
	Status   string  `json:"status"`
	Episodes int     `json:"episodes"`
	Chapters int     `json:"chapters"`
	Volumes  int     `json:"volumes"`
	Score    float64 `json:"score"`
	ScoredBy int     `json:"scored_by"`
	Rank     int     `json:"rank"`
	Members  int     `json:"members"`
	Images   struct {
		JPG struct {
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Aired struct {
		Prop struct {
			From struct {
				Year  int `json:"year"`
				Month int `json:"month"`
			} `json:"from"`
		} `json:"prop"`
	} `json:"aired"`
	Published struct {
		Prop struct {
			From struct {
				Year  int `json:"year"`
				Month int `json:"month"`
			} `json:"from"`
		} `json:"prop"`
	} `json:"published"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Studios []struct {
		Name string `json:"name"`
	} `json:"studios"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

type jikanDetailResponse struct {
	Data jikanEntry `json:"data"`
}

type jikanSearchResponse struct {
	Data []jikanEntry `json:"data"`
}

func (c *JikanClient) GetByID(ctx context.Context, externalID string, kind shared.MediaKind) (*Result, error) {
	path, err := c.resourcePath(kind)
	if err != nil {
		return nil, err
	}

	var payload jikanDetailResponse
	endpoint := fmt.Sprintf("%s%s/%s", c.baseURL, path, url.PathEscape(externalID))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("jikan get %s: %w", externalID, err)
	}

	result := c.toResult(payload.Data, kind)
	return &result, nil
}

func (c *JikanClient) Search(ctx context.Context, query string, kind shared.MediaKind) ([]Result, error) {
	path, err := c.resourcePath(kind)
	if err != nil {
		return nil, err
	}

	var payload jikanSearchResponse
	endpoint := fmt.Sprintf("%s%s?q=%s", c.baseURL, path, url.QueryEscape(query))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("jikan search %q: %w", query, err)
	}

	results := make([]Result, 0, len(payload.Data))
	for _, item := range payload.Data {
		results = append(results, c.toResult(item, kind))
	}
	return results, nil
}

func (c *JikanClient) resourcePath(kind shared.MediaKind) (string, error) {
	switch kind {
	case shared.KindAnime:
		return "/anime", nil
	case shared.KindManga:
		return "/manga", nil
	default:
		return "", fmt.Errorf("jikan does not serve kind %q", kind)
	}
}

func (c *JikanClient) toResult(entry jikanEntry, kind shared.MediaKind) Result {
	essential := models.EssentialData{
		Title:         entry.Title,
		Description:   str(entry.Synopsis),
		CoverImage:    str(entry.Images.JPG.LargeImageURL),
		AverageRating: floatp(entry.Score),
		RatingCount:   intp(entry.ScoredBy),
		Status:        str(jikanLifecycle(entry.Status)),
		Popularity:    intp(entry.Rank),
		Members:       intp(entry.Members),
	}

	from := entry.Aired.Prop.From
	if kind == shared.KindManga {
		from = entry.Published.Prop.From
	}
	if from.Year != 0 {
		period := models.ReleasePeriod{Year: from.Year, Month: intp(from.Month)}
		essential.ReleasePeriod = &period
		essential.ReleaseYear = &period.Year
	}

	for _, g := range entry.Genres {
		essential.Genres = append(essential.Genres, g.Name)
	}

	switch kind {
	case shared.KindAnime:
		essential.Episodes = intp(entry.Episodes)
		for _, s := range entry.Studios {
			essential.Studios = append(essential.Studios, s.Name)
		}
	case shared.KindManga:
		essential.Chapters = intp(entry.Chapters)
		essential.Volumes = intp(entry.Volumes)
		for _, a := range entry.Authors {
			essential.Authors = append(essential.Authors, a.Name)
		}
	}

	return Result{
		Provider:   shared.ProviderJikan,
		ExternalID: strconv.FormatInt(entry.MalID, 10),
		MediaKind:  kind,
		Essential:  essential,
	}
}

func jikanLifecycle(status string) string {
	switch status {
	case "Currently Airing", "Publishing":
		return shared.LifecycleOngoing
	case "Not yet aired", "Not yet published", "Upcoming":
		return shared.LifecycleUpcoming
	case "":
		return ""
	default: // Finished Airing, Finished, Discontinued, On Hiatus
		return "finished"
	}
}
