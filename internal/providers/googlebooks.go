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

// GoogleBooksClient serves books from the Google Books volumes API.
type GoogleBooksClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

func NewGoogleBooksClient(baseURL, apiKey string, timeout time.Duration) *GoogleBooksClient {
	return &GoogleBooksClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		httpClient:  newHTTPClient(timeout),
		rateLimiter: rate.NewLimiter(rate.Limit(5), 10),
	}
}

type googleVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		PublishedDate string   `json:"publishedDate"`
		Categories    []string `json:"categories"`
		AverageRating float64  `json:"averageRating"`
		RatingsCount  int      `json:"ratingsCount"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

type googleSearchResponse struct {
	Items []googleVolume `json:"items"`
}

func (c *GoogleBooksClient) GetByID(ctx context.Context, externalID string, kind shared.MediaKind) (*Result, error) {
	if kind != shared.KindBook {
		return nil, fmt.Errorf("google books does not serve kind %q", kind)
	}

	var payload googleVolume
	endpoint := fmt.Sprintf("%s/volumes/%s%s", c.baseURL, url.PathEscape(externalID), c.keyParam("?"))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("google books get %s: %w", externalID, err)
	}

	result := c.toResult(payload)
	return &result, nil
}

func (c *GoogleBooksClient) Search(ctx context.Context, query string, kind shared.MediaKind) ([]Result, error) {
	if kind != shared.KindBook {
		return nil, fmt.Errorf("google books does not serve kind %q", kind)
	}

	var payload googleSearchResponse
	endpoint := fmt.Sprintf("%s/volumes?q=%s%s", c.baseURL, url.QueryEscape(query), c.keyParam("&"))
	if err := getJSON(ctx, c.httpClient, c.rateLimiter, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("google books search %q: %w", query, err)
	}

	results := make([]Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		results = append(results, c.toResult(item))
	}
	return results, nil
}

func (c *GoogleBooksClient) keyParam(sep string) string {
	if c.apiKey == "" {
		return ""
	}
	return sep + "key=" + url.QueryEscape(c.apiKey)
}

func (c *GoogleBooksClient) toResult(volume googleVolume) Result {
	info := volume.VolumeInfo
	essential := models.EssentialData{
		Title:         info.Title,
		Description:   str(info.Description),
		CoverImage:    str(info.ImageLinks.Thumbnail),
		Genres:        info.Categories,
		AverageRating: floatp(info.AverageRating),
		RatingCount:   intp(info.RatingsCount),
	}
	if len(info.PublishedDate) >= 4 {
		if year, err := strconv.Atoi(info.PublishedDate[:4]); err == nil {
			essential.ReleaseYear = &year
		}
	}

	return Result{
		Provider:   shared.ProviderGoogleBooks,
		ExternalID: volume.ID,
		MediaKind:  shared.KindBook,
		Essential:  essential,
	}
}
