// Package gallery owns the paginated garment grid state: which source the
// grid shows, the current page, per-item favorite flags and the multi-select
// set for multi-garment try-ons. One Gallery instance is owned by one
// controller; nothing here is ambient.
package gallery

import (
	"context"
	"fmt"
	"sync"

	"tryonhub/pkg/models"
)

// PageSize is the fixed grid size. Pages always render exactly this many
// cells; trailing cells on the last page are empty placeholders.
const PageSize = 4

// Favoriter confirms favorite mutations against the backend. The gallery
// reflects a toggle only after the backend call succeeds.
type Favoriter interface {
	Save(ctx context.Context, item models.GalleryItem) error
	Remove(ctx context.Context, item models.GalleryItem) error
}

// Cell is one rendered grid slot.
type Cell struct {
	Item  *models.GalleryItem
	Empty bool
}

type Gallery struct {
	mu        sync.Mutex
	mode      string
	items     []models.GalleryItem
	pageIndex int
	selected  []string // srcs selected for multi-try-on, insertion order
	backend   Favoriter
}

func New(backend Favoriter) *Gallery {
	return &Gallery{mode: models.ModeOnline, backend: backend}
}

// SetItems switches the gallery to mode, replaces the whole item list and
// resets pagination. The previous source's items never survive a switch.
func (g *Gallery) SetItems(mode string, items []models.GalleryItem) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.mode = mode
	g.items = make([]models.GalleryItem, len(items))
	copy(g.items, items)
	for i := range g.items {
		g.items[i].SourceMode = mode
	}
	g.pageIndex = 0
}

// Clear empties the gallery and resets pagination, used before a fresh
// extraction so a stale result from a prior page is never shown.
func (g *Gallery) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = nil
	g.pageIndex = 0
}

func (g *Gallery) Mode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

func (g *Gallery) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

func (g *Gallery) PageIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pageIndex
}

// PageCount is at least 1 even for an empty gallery (the empty grid is
// still a page).
func (g *Gallery) PageCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pageCountLocked()
}

func (g *Gallery) pageCountLocked() int {
	if len(g.items) == 0 {
		return 1
	}
	return (len(g.items) + PageSize - 1) / PageSize
}

// NextPage advances one page, clamped at the last page. No wrap-around.
func (g *Gallery) NextPage() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pageIndex < g.pageCountLocked()-1 {
		g.pageIndex++
	}
	return g.pageIndex
}

// PrevPage goes back one page, clamped at zero. No wrap-around.
func (g *Gallery) PrevPage() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pageIndex > 0 {
		g.pageIndex--
	}
	return g.pageIndex
}

// Page renders the current page as exactly PageSize cells.
func (g *Gallery) Page() []Cell {
	g.mu.Lock()
	defer g.mu.Unlock()

	cells := make([]Cell, PageSize)
	start := g.pageIndex * PageSize
	for i := 0; i < PageSize; i++ {
		idx := start + i
		if idx < len(g.items) {
			item := g.items[idx]
			cells[i] = Cell{Item: &item}
		} else {
			cells[i] = Cell{Empty: true}
		}
	}
	return cells
}

// ToggleMultiSelect adds or removes an item from the multi-try-on set.
// Selection is keyed by src and survives page turns; it is cleared only by
// ClearSelection after a successful try-on submission.
func (g *Gallery) ToggleMultiSelect(src string, checked bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, s := range g.selected {
		if s == src {
			if !checked {
				g.selected = append(g.selected[:i], g.selected[i+1:]...)
			}
			return
		}
	}
	if checked {
		g.selected = append(g.selected, src)
	}
}

// Selected returns the multi-try-on srcs in selection order.
func (g *Gallery) Selected() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.selected))
	copy(out, g.selected)
	return out
}

func (g *Gallery) ClearSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selected = nil
}

// ToggleFavorite flips an item's favorite flag, confirming the mutation
// against the backend first. On backend failure the gallery state is left
// exactly as before and the error is surfaced to the caller.
func (g *Gallery) ToggleFavorite(ctx context.Context, src string) error {
	g.mu.Lock()
	idx := -1
	for i := range g.items {
		if g.items[i].Src == src {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.mu.Unlock()
		return fmt.Errorf("toggle favorite: item %q not in gallery", src)
	}
	item := g.items[idx]
	g.mu.Unlock()

	// backend first, reflect after confirmation
	var err error
	if item.IsFavorited {
		err = g.backend.Remove(ctx, item)
	} else {
		err = g.backend.Save(ctx, item)
	}
	if err != nil {
		return fmt.Errorf("toggle favorite: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	// the list may have been swapped while the backend call was in flight;
	// only flip the flag if the item is still present
	for i := range g.items {
		if g.items[i].Src == src {
			g.items[i].IsFavorited = !item.IsFavorited
			break
		}
	}
	return nil
}
