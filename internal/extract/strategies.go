package extract

import (
	"context"
	"errors"
	"fmt"

	"tryonhub/internal/bridge"
	"tryonhub/internal/scanner"
	"tryonhub/internal/wardrobe"
	"tryonhub/pkg/models"
	"tryonhub/pkg/storage"
)

// BridgeStrategy asks a connected page client for its images over the
// messaging bridge. With no client connected it fails instantly so the
// driver moves on without burning the scan wait.
type BridgeStrategy struct {
	Hub *bridge.Hub
}

func (s *BridgeStrategy) Name() string   { return "bridge" }
func (s *BridgeStrategy) Fallback() bool { return false }

func (s *BridgeStrategy) Extract(ctx context.Context, pageURL string) ([]models.GalleryItem, error) {
	candidates, err := s.Hub.RequestImages(ctx, pageURL)
	if err != nil {
		if errors.Is(err, bridge.ErrNoClients) {
			return nil, fmt.Errorf("no page client connected: %w", err)
		}
		return nil, err
	}
	return candidatesToItems(candidates), nil
}

// DirectStrategy downloads the page HTML itself and runs the scanner
// in-process.
type DirectStrategy struct {
	Fetcher *scanner.Fetcher
}

func (s *DirectStrategy) Name() string   { return "direct" }
func (s *DirectStrategy) Fallback() bool { return false }

func (s *DirectStrategy) Extract(ctx context.Context, pageURL string) ([]models.GalleryItem, error) {
	candidates, err := s.Fetcher.FetchAndScan(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return candidatesToItems(candidates), nil
}

func candidatesToItems(candidates []models.ImageCandidate) []models.GalleryItem {
	items := make([]models.GalleryItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, models.GalleryItem{
			Src:   c.Src,
			Title: c.Alt,
		})
	}
	return items
}

// GarmentSource is the slice of the wardrobe the fallback tier reads.
// The client-side Collection satisfies it; the server reads its repo
// directly through the same shape.
type GarmentSource interface {
	Load(ctx context.Context) error
	GalleryItems() []models.GalleryItem
}

var _ GarmentSource = (*wardrobe.Collection)(nil)

// WardrobeStrategy is the last resort: show the signed-in user's saved
// garments instead of page content. No session or an empty wardrobe
// yields zero items, which the driver turns into the explicit empty
// state.
type WardrobeStrategy struct {
	Source GarmentSource
	// Store gates the tier on the persisted session flag; nil skips the
	// check for callers that already know who the user is.
	Store storage.Store
}

func (s *WardrobeStrategy) Name() string   { return "wardrobe" }
func (s *WardrobeStrategy) Fallback() bool { return true }

func (s *WardrobeStrategy) Extract(ctx context.Context, _ string) ([]models.GalleryItem, error) {
	if s.Store != nil {
		signedIn, err := s.Store.GetString(ctx, storage.KeySignedIn)
		if err != nil || signedIn != "true" {
			return nil, nil
		}
	}

	if err := s.Source.Load(ctx); err != nil {
		return nil, err
	}
	return s.Source.GalleryItems(), nil
}
