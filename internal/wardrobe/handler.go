package wardrobe

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"

	"tryonhub/internal/bridge"
	"tryonhub/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *bridge.Hub
}

func NewHandler(repo *Repo, hub *bridge.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/wardrobe/user/:id", h.list)
	rg.POST("/wardrobe/save", h.save)
	rg.DELETE("/wardrobe/remove", h.remove)
}

type saveReq struct {
	UserID       string `json:"user_id"`
	GarmentID    string `json:"garment_id"`
	GarmentImage string `json:"garment_image"`
	GarmentType  string `json:"garment_type"`
	GarmentURL   string `json:"garment_url"`
	DateAdded    string `json:"date_added"`
}

func (h *Handler) save(c *gin.Context) {
	var req saveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	if req.GarmentImage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "garment_image required"})
		return
	}

	garmentType := normalizeGarmentType(req.GarmentType)
	if garmentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "garment_type must be one of: upper, lower"})
		return
	}

	if req.GarmentID == "" {
		req.GarmentID = "garment_" + ksuid.New().String()
	}

	added := time.Now().UTC()
	if req.DateAdded != "" {
		if t, err := time.Parse(time.RFC3339, req.DateAdded); err == nil {
			added = t.UTC()
		}
	}

	entry := models.WardrobeEntry{
		UserID:       req.UserID,
		GarmentID:    req.GarmentID,
		GarmentImage: req.GarmentImage,
		GarmentType:  garmentType,
		GarmentURL:   req.GarmentURL,
		DateAdded:    added,
	}

	if err := h.Repo.Save(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if h.Hub != nil {
		ev := bridge.WardrobeEvent{
			Type:      "wardrobe.save",
			UserID:    entry.UserID,
			GarmentID: entry.GarmentID,
			At:        time.Now().UTC().Format(time.RFC3339),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "garment_id": entry.GarmentID})
}

type removeReq struct {
	UserID       string `json:"user_id"`
	GarmentID    string `json:"garment_id"`
	GarmentImage string `json:"garment_image"`
}

func (h *Handler) remove(c *gin.Context) {
	var req removeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	if req.GarmentID == "" && req.GarmentImage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "garment_id or garment_image required"})
		return
	}

	var (
		ok  bool
		err error
	)
	if req.GarmentID != "" {
		ok, err = h.Repo.Delete(c.Request.Context(), req.UserID, req.GarmentID)
	} else {
		ok, err = h.Repo.DeleteByImage(c.Request.Context(), req.UserID, req.GarmentImage)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		ev := bridge.WardrobeEvent{
			Type:      "wardrobe.remove",
			UserID:    req.UserID,
			GarmentID: req.GarmentID,
			At:        time.Now().UTC().Format(time.RFC3339),
		}
		go h.Hub.BroadcastJSON(ev)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) list(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id required"})
		return
	}

	items, err := h.Repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	if items == nil {
		items = []models.WardrobeEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   len(items),
		"items":   items,
	})
}

func normalizeGarmentType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upper", "top":
		return models.GarmentUpper
	case "lower", "bottom":
		return models.GarmentLower
	default:
		return ""
	}
}
