package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"mediahub/internal/http-api/dto"
	"mediahub/internal/http-api/middleware"
	"mediahub/internal/http-api/service"
	"mediahub/internal/shared"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct {
	svc service.CacheService
}

func NewCacheHandler(svc service.CacheService) *CacheHandler {
	return &CacheHandler{svc: svc}
}

func (h *CacheHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/", h.Upsert)
	rg.GET("/:provider/:kind/:external_id", h.Read)
	rg.GET("/:provider/:kind/:external_id/data", h.FetchOrRefresh)
	rg.DELETE("/:kind", middleware.RequireRole("admin"), h.Purge)
}

// pathProvider resolves the provider path segment. The canonical jikan key
// contains a slash, so routes take the url-safe slug instead.
func pathProvider(segment string) shared.Provider {
	switch segment {
	case "jikan", "mal-jikan":
		return shared.ProviderJikan
	default:
		return shared.Provider(segment)
	}
}

// Upsert stores or merges metadata for one title
func (h *CacheHandler) Upsert(c *gin.Context) {
	var req dto.UpsertCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := h.svc.Upsert(ctx, req.Provider, req.ExternalID, req.MediaKind, req.Essential)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.WasCached {
		status = http.StatusOK
	}
	c.JSON(status, dto.UpsertCacheResponse{
		CacheRecordID: result.CacheRecordID,
		WasCached:     result.WasCached,
	})
}

// Read returns the stored record without touching the provider
func (h *CacheHandler) Read(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	record, err := h.svc.Read(ctx,
		pathProvider(c.Param("provider")),
		c.Param("external_id"),
		shared.MediaKind(c.Param("kind")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromCacheRecord(*record))
}

// FetchOrRefresh serves fresh data, refreshing from the provider when the
// record's window has passed
func (h *CacheHandler) FetchOrRefresh(c *gin.Context) {
	// Provider calls get the longer budget
	ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
	defer cancel()

	essential, err := h.svc.FetchOrRefresh(ctx,
		pathProvider(c.Param("provider")),
		c.Param("external_id"),
		shared.MediaKind(c.Param("kind")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, essential)
}

// Purge removes stale unreferenced records of one kind
func (h *CacheHandler) Purge(c *gin.Context) {
	olderThanDays := 0
	if raw := c.Query("older_than_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid older_than_days"})
			return
		}
		olderThanDays = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	deleted, err := h.svc.Purge(ctx, shared.MediaKind(c.Param("kind")), olderThanDays)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PurgeCacheResponse{DeletedCount: deleted})
}
