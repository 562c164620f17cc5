package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"tryonhub/internal/scanner"
	"tryonhub/pkg/models"
)

// HTMLSource queries a store with no API by fetching its search results
// page and scanning it for garment images. SearchURL must contain a
// {query} placeholder, e.g. "https://store.example/search?q={query}".
type HTMLSource struct {
	StoreName string
	SearchURL string
	Fetcher   *scanner.Fetcher
}

func NewHTMLSource(storeName, searchURL string) *HTMLSource {
	return &HTMLSource{
		StoreName: storeName,
		SearchURL: searchURL,
		Fetcher:   scanner.NewFetcher(),
	}
}

func (s *HTMLSource) Name() string { return s.StoreName }

func (s *HTMLSource) Search(ctx context.Context, query string) ([]models.GalleryItem, error) {
	if !strings.Contains(s.SearchURL, "{query}") {
		return nil, fmt.Errorf("%s: search url missing {query} placeholder", s.StoreName)
	}
	pageURL := strings.ReplaceAll(s.SearchURL, "{query}", url.QueryEscape(query))

	candidates, err := s.Fetcher.FetchAndScan(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.StoreName, err)
	}

	result := make([]models.GalleryItem, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, models.GalleryItem{
			Src:   c.Src,
			Title: c.Alt,
			Store: s.StoreName,
			URL:   pageURL,
		})
	}
	return result, nil
}
