package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"mediahub/internal/http-api/dto"
	"mediahub/internal/providers"
	"mediahub/internal/shared"

	"github.com/gin-gonic/gin"
)

// SearchHandler forwards search queries straight to a provider adapter.
// Results are not cached; only explicit upserts enter the store.
type SearchHandler struct {
	registry *providers.Registry
}

func NewSearchHandler(registry *providers.Registry) *SearchHandler {
	return &SearchHandler{registry: registry}
}

func (h *SearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Search)
}

func (h *SearchHandler) Search(c *gin.Context) {
	provider := shared.Provider(c.Query("provider"))
	kind := shared.MediaKind(c.Query("kind"))
	query := strings.TrimSpace(c.Query("q"))

	if !shared.ValidProvider(provider) || provider == shared.ProviderManual {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown or unsearchable provider"})
		return
	}
	if !shared.ValidMediaKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown media kind"})
		return
	}
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be empty"})
		return
	}

	adapter, ok := h.registry.Get(provider)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
	defer cancel()

	results, err := adapter.Search(ctx, query, kind)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider search failed"})
		return
	}

	items := make([]dto.SearchResultResponse, 0, len(results))
	for _, result := range results {
		items = append(items, dto.SearchResultResponse{
			Provider:   result.Provider,
			ExternalID: result.ExternalID,
			MediaKind:  result.MediaKind,
			Essential:  result.Essential,
		})
	}

	c.JSON(http.StatusOK, dto.SearchListResponse{Items: items, Total: len(items)})
}
