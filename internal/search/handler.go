package search

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tryonhub/pkg/models"
	"tryonhub/pkg/storage"
)

// CacheTTL is how long a query's merged results stay fresh.
const CacheTTL = 10 * time.Minute

type Handler struct {
	Agg   *Aggregator
	Cache storage.Store
}

func NewHandler(agg *Aggregator, cache storage.Store) *Handler {
	return &Handler{Agg: agg, Cache: cache}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/unified-search", h.unifiedSearch)
}

type searchReq struct {
	Query string `json:"query"`
}

type cachedResults struct {
	Query    string               `json:"query"`
	Items    []models.GalleryItem `json:"items"`
	CachedAt time.Time            `json:"cached_at"`
}

func (h *Handler) unifiedSearch(c *gin.Context) {
	var req searchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query required"})
		return
	}

	if items, ok := h.cached(c.Request.Context(), query); ok {
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"cached":         true,
			"garment_images": items,
		})
		return
	}

	items, err := h.Agg.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if items == nil {
		items = []models.GalleryItem{}
	}

	h.store(c.Request.Context(), query, items)

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"cached":         false,
		"garment_images": items,
	})
}

func cacheKey(query string) string {
	return "unified_search:" + normalizeKey(query)
}

func (h *Handler) cached(ctx context.Context, query string) ([]models.GalleryItem, bool) {
	if h.Cache == nil {
		return nil, false
	}
	var entry cachedResults
	if err := h.Cache.Get(ctx, cacheKey(query), &entry); err != nil {
		return nil, false
	}
	if time.Since(entry.CachedAt) > CacheTTL {
		return nil, false
	}
	return entry.Items, true
}

func (h *Handler) store(ctx context.Context, query string, items []models.GalleryItem) {
	if h.Cache == nil {
		return
	}
	entry := cachedResults{Query: query, Items: items, CachedAt: time.Now().UTC()}
	if err := h.Cache.Set(ctx, cacheKey(query), entry); err != nil {
		log.Printf("[search] cache write failed: %v", err)
	}
}
