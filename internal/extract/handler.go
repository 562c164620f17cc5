package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"tryonhub/internal/bridge"
	"tryonhub/internal/scanner"
	"tryonhub/internal/wardrobe"
	"tryonhub/pkg/models"
)

// Handler exposes the full extraction tier stack over HTTP: connected
// page clients first, a direct server-side fetch second, the caller's
// wardrobe as the labeled fallback.
type Handler struct {
	Hub      *bridge.Hub
	Fetcher  *scanner.Fetcher
	Wardrobe *wardrobe.Repo
}

func NewHandler(hub *bridge.Hub, fetcher *scanner.Fetcher, repo *wardrobe.Repo) *Handler {
	return &Handler{Hub: hub, Fetcher: fetcher, Wardrobe: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extract-images", h.extractImages)
}

type extractReq struct {
	PageURL string `json:"page_url"`
	UserID  string `json:"user_id"`
}

func (h *Handler) extractImages(c *gin.Context) {
	var req extractReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.PageURL = strings.TrimSpace(req.PageURL)
	u, err := url.Parse(req.PageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_url must be absolute http(s)"})
		return
	}

	var strategies []Strategy
	if h.Hub != nil {
		strategies = append(strategies, &BridgeStrategy{Hub: h.Hub})
	}
	strategies = append(strategies, &DirectStrategy{Fetcher: h.Fetcher})
	if req.UserID != "" && h.Wardrobe != nil {
		// the caller names the user, so the session-flag gate is skipped
		strategies = append(strategies, &WardrobeStrategy{
			Source: &repoGarments{repo: h.Wardrobe, userID: req.UserID},
		})
	}

	res, err := NewDriver(nil, strategies...).Run(c.Request.Context(), req.PageURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "extraction failed"})
		return
	}

	items := res.Items
	if items == nil {
		items = []models.GalleryItem{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"strategy": res.Strategy,
		"fallback": res.Fallback,
		"empty":    res.Empty,
		"items":    items,
	})
}

// repoGarments reads the wardrobe repo directly, the server-side stand-in
// for the client's Collection.
type repoGarments struct {
	repo    *wardrobe.Repo
	userID  string
	entries []models.WardrobeEntry
}

func (r *repoGarments) Load(ctx context.Context) error {
	entries, err := r.repo.ListByUser(ctx, r.userID)
	if err != nil {
		return fmt.Errorf("load wardrobe: %w", err)
	}
	r.entries = entries
	return nil
}

func (r *repoGarments) GalleryItems() []models.GalleryItem {
	return wardrobe.GalleryItems(r.entries)
}
