package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tryonhub/pkg/models"
)

// JSONSource queries a store that exposes a JSON search endpoint.
//
// Expected response format:
//
//	GET {BaseURL}/search?q={query}
//	{
//	  "products": [
//	    {
//	      "name": "Slim Fit Jeans",
//	      "price": "49.99 EUR",
//	      "image_url": "https://cdn.store.example/p/123.jpg",
//	      "product_url": "https://store.example/p/123"
//	    },
//	    ...
//	  ]
//	}
type JSONSource struct {
	StoreName string
	BaseURL   string
	Client    *http.Client
}

func NewJSONSource(storeName, baseURL string) *JSONSource {
	return &JSONSource{
		StoreName: storeName,
		BaseURL:   baseURL,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *JSONSource) Name() string { return s.StoreName }

func (s *JSONSource) Search(ctx context.Context, query string) ([]models.GalleryItem, error) {
	u := s.BaseURL + "/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", s.StoreName, err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", s.StoreName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s: status %d: %s", s.StoreName, resp.StatusCode, string(body))
	}

	var raw struct {
		Products []struct {
			Name       string `json:"name"`
			Price      string `json:"price"`
			ImageURL   string `json:"image_url"`
			ProductURL string `json:"product_url"`
		} `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s: decode json: %w", s.StoreName, err)
	}

	result := make([]models.GalleryItem, 0, len(raw.Products))
	for _, p := range raw.Products {
		if p.ImageURL == "" {
			continue
		}
		result = append(result, models.GalleryItem{
			Src:   p.ImageURL,
			Title: p.Name,
			Price: p.Price,
			Store: s.StoreName,
			URL:   p.ProductURL,
		})
	}
	return result, nil
}
