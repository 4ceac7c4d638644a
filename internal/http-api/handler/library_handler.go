package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"mediahub/internal/http-api/dto"
	"mediahub/internal/http-api/middleware"
	"mediahub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type LibraryHandler struct {
	svc service.LibraryService
}

func NewLibraryHandler(svc service.LibraryService) *LibraryHandler {
	return &LibraryHandler{svc: svc}
}

func (h *LibraryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/", h.Add)
	rg.GET("/", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// Add a tracked title to the caller's library
func (h *LibraryHandler) Add(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.AddLibraryEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entry, err := h.svc.Add(ctx, userID, service.EntryCreate{
		CacheRecordID: req.CacheRecordID,
		Status:        req.Status,
		UserRating:    req.UserRating,
		PersonalNotes: req.PersonalNotes,
		Progress:      req.Progress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromLibraryEntry(*entry))
}

// List the caller's library, newest first
func (h *LibraryHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.svc.List(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]dto.LibraryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.FromLibraryEntry(entry))
	}

	c.JSON(http.StatusOK, dto.LibraryListResponse{Items: items, Total: len(items)})
}

// Get one entry by id
func (h *LibraryHandler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entry, err := h.svc.Get(ctx, id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromLibraryEntry(*entry))
}

// Update status, rating, notes, progress or timestamps of one entry
func (h *LibraryHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req dto.UpdateLibraryEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entry, err := h.svc.Update(ctx, id, userID, service.EntryUpdate{
		Status:        req.Status,
		UserRating:    req.UserRating,
		PersonalNotes: req.PersonalNotes,
		Progress:      req.Progress,
		StartedAt:     req.StartedAt,
		CompletedAt:   req.CompletedAt,
		DroppedAt:     req.DroppedAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromLibraryEntry(*entry))
}

// Delete one entry, evicting an unreferenced manual cache record with it
func (h *LibraryHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	result, err := h.svc.Delete(ctx, id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeleteLibraryEntryResponse{
		DeletedID:          result.DeletedID,
		CacheRecordDeleted: result.CacheRecordDeleted,
	})
}
