package search

import (
	"context"
	"log"
	"sort"
	"strings"
	"unicode"

	"tryonhub/pkg/models"
)

// MaxResults caps the merged result set across all stores.
const MaxResults = 24

// Source is implemented by each store backend (JSON API / HTML search page).
// Each source runs the query against its own store and maps hits into
// gallery items.
type Source interface {
	Name() string
	Search(ctx context.Context, query string) ([]models.GalleryItem, error)
}

// Aggregator coordinates calls to multiple stores and merges their hits
// into a single deduplicated result set.
type Aggregator struct {
	Sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources}
}

// Search queries all stores and merges the results. A broken store is
// logged and skipped so the others still answer.
func (a *Aggregator) Search(ctx context.Context, query string) ([]models.GalleryItem, error) {
	query = strings.TrimSpace(query)

	bySrc := make(map[string]models.GalleryItem)
	var order []string

	for _, src := range a.Sources {
		log.Printf("[search] querying %s for %q", src.Name(), query)
		items, err := src.Search(ctx, query)
		if err != nil {
			log.Printf("[search] source %s error: %v", src.Name(), err)
			// keep going: one broken store should not kill the whole search
			continue
		}

		for _, item := range items {
			if item.Src == "" {
				continue
			}
			item.SourceMode = models.ModeExplorer
			key := resultKey(item)
			if existing, ok := bySrc[key]; ok {
				bySrc[key] = mergeItem(existing, item)
			} else {
				bySrc[key] = item
				order = append(order, key)
			}
		}
	}

	result := make([]models.GalleryItem, 0, len(order))
	for _, key := range order {
		result = append(result, bySrc[key])
	}

	// stable order: items with both title and price first
	sort.SliceStable(result, func(i, j int) bool {
		return completeness(result[i]) > completeness(result[j])
	})

	if len(result) > MaxResults {
		result = result[:MaxResults]
	}
	return result, nil
}

// resultKey groups hits that point at the same product image from
// different stores. The image URL normalized is good enough here.
func resultKey(item models.GalleryItem) string {
	return normalizeKey(item.Src)
}

// normalizeKey converts a string to a canonical form: lowercase,
// strip non-letter/digit runs down to single spaces.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))

	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// mergeItem fills gaps in the base hit from a duplicate: keep the base
// title, take whichever price/store/url the base is missing.
func mergeItem(base, incoming models.GalleryItem) models.GalleryItem {
	if base.Title == "" {
		base.Title = incoming.Title
	}
	if base.Price == "" {
		base.Price = incoming.Price
	}
	if base.Store == "" {
		base.Store = incoming.Store
	}
	if base.URL == "" {
		base.URL = incoming.URL
	}
	return base
}

func completeness(item models.GalleryItem) int {
	n := 0
	if item.Title != "" {
		n++
	}
	if item.Price != "" {
		n++
	}
	return n
}
