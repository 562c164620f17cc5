package extract

import (
	"context"
	"log"

	"tryonhub/internal/gallery"
	"tryonhub/pkg/models"
)

// Strategy is one way of getting garment candidates for a page. The
// driver walks strategies in order and the first one yielding at least
// one item wins.
type Strategy interface {
	Name() string
	// Fallback strategies don't show page content; their results are
	// labeled so the UI can say "from your wardrobe" instead.
	Fallback() bool
	Extract(ctx context.Context, pageURL string) ([]models.GalleryItem, error)
}

// Result is what one extraction run produced.
type Result struct {
	Strategy string
	Items    []models.GalleryItem
	Fallback bool
	// Empty means every tier came back dry; the UI renders an explicit
	// empty state rather than a blank grid.
	Empty bool
}

// Driver runs the ordered strategy list against a page and pushes the
// winner into the gallery.
type Driver struct {
	Strategies []Strategy
	Gallery    *gallery.Gallery
}

func NewDriver(g *gallery.Gallery, strategies ...Strategy) *Driver {
	return &Driver{Strategies: strategies, Gallery: g}
}

// Run extracts candidates for pageURL. Re-running is safe: stale gallery
// state is cleared before any strategy executes, so a second invocation
// never shows the previous page's items while working.
func (d *Driver) Run(ctx context.Context, pageURL string) (*Result, error) {
	if d.Gallery != nil {
		d.Gallery.Clear()
	}

	for _, s := range d.Strategies {
		items, err := s.Extract(ctx, pageURL)
		if err != nil {
			log.Printf("[extract] strategy %s failed, trying next: %v", s.Name(), err)
			continue
		}
		if len(items) == 0 {
			log.Printf("[extract] strategy %s found nothing, trying next", s.Name())
			continue
		}

		mode := models.ModeOnline
		if s.Fallback() {
			mode = models.ModeWardrobe
		}
		if d.Gallery != nil {
			d.Gallery.SetItems(mode, items)
		}

		log.Printf("[extract] strategy %s won with %d items", s.Name(), len(items))
		return &Result{
			Strategy: s.Name(),
			Items:    items,
			Fallback: s.Fallback(),
		}, nil
	}

	log.Printf("[extract] all strategies dry for %s", pageURL)
	return &Result{Empty: true}, nil
}
