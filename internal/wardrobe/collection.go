package wardrobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"tryonhub/internal/classify"
	"tryonhub/pkg/models"
)

// Client talks to the wardrobe endpoints of a tryonhub backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Fetch(ctx context.Context, userID string) ([]models.WardrobeEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/wardrobe/user/"+userID, nil)
	if err != nil {
		return nil, fmt.Errorf("wardrobe fetch: build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wardrobe fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("wardrobe fetch: status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Items []models.WardrobeEntry `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("wardrobe fetch: decode: %w", err)
	}
	return out.Items, nil
}

func (c *Client) Save(ctx context.Context, e models.WardrobeEntry) error {
	return c.postJSON(ctx, http.MethodPost, "/api/wardrobe/save", e)
}

func (c *Client) Remove(ctx context.Context, userID, garmentImage string) error {
	return c.postJSON(ctx, http.MethodDelete, "/api/wardrobe/remove", map[string]string{
		"user_id":       userID,
		"garment_image": garmentImage,
	})
}

func (c *Client) postJSON(ctx context.Context, method, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("wardrobe %s: encode: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("wardrobe %s: build request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("wardrobe %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wardrobe %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return nil
}

// Collection is the client-side wardrobe mirror. Every mutation goes to the
// backend first; the local cache changes only after the backend confirms,
// so the cache never shows a favorite the backend does not have.
type Collection struct {
	mu     sync.Mutex
	client *Client
	userID string
	items  []models.WardrobeEntry
}

func NewCollection(client *Client, userID string) *Collection {
	return &Collection{client: client, userID: userID}
}

// Load replaces the cache with the backend's current state.
func (col *Collection) Load(ctx context.Context) error {
	items, err := col.client.Fetch(ctx, col.userID)
	if err != nil {
		return err
	}
	col.mu.Lock()
	col.items = items
	col.mu.Unlock()
	return nil
}

func (col *Collection) Items() []models.WardrobeEntry {
	col.mu.Lock()
	defer col.mu.Unlock()
	out := make([]models.WardrobeEntry, len(col.items))
	copy(out, col.items)
	return out
}

func (col *Collection) Contains(garmentImage string) bool {
	col.mu.Lock()
	defer col.mu.Unlock()
	for _, e := range col.items {
		if e.GarmentImage == garmentImage {
			return true
		}
	}
	return false
}

// GalleryItems renders the cache as wardrobe-mode gallery items.
func (col *Collection) GalleryItems() []models.GalleryItem {
	return GalleryItems(col.Items())
}

// GalleryItems renders wardrobe entries as wardrobe-mode gallery items.
func GalleryItems(entries []models.WardrobeEntry) []models.GalleryItem {
	out := make([]models.GalleryItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.GalleryItem{
			Src:         e.GarmentImage,
			URL:         e.GarmentURL,
			SourceMode:  models.ModeWardrobe,
			IsFavorited: true,
		})
	}
	return out
}

// Save favorites a gallery item: backend first, cache on confirmation.
// Implements the gallery's Favoriter.
func (col *Collection) Save(ctx context.Context, item models.GalleryItem) error {
	entry := models.WardrobeEntry{
		UserID:       col.userID,
		GarmentID:    "garment_" + ksuid.New().String(),
		GarmentImage: item.Src,
		GarmentType:  classify.DetectGarmentType(item.URL),
		GarmentURL:   item.URL,
		DateAdded:    time.Now().UTC(),
	}

	if err := col.client.Save(ctx, entry); err != nil {
		return err
	}

	col.mu.Lock()
	col.items = append([]models.WardrobeEntry{entry}, col.items...)
	col.mu.Unlock()
	return nil
}

// Remove unfavorites a gallery item: backend first, cache on confirmation.
func (col *Collection) Remove(ctx context.Context, item models.GalleryItem) error {
	if err := col.client.Remove(ctx, col.userID, item.Src); err != nil {
		return err
	}

	col.mu.Lock()
	defer col.mu.Unlock()
	for i, e := range col.items {
		if e.GarmentImage == item.Src {
			col.items = append(col.items[:i], col.items[i+1:]...)
			break
		}
	}
	return nil
}
