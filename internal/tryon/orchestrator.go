package tryon

import (
	"context"
	"errors"
	"log"
	"sync"

	"tryonhub/internal/classify"
	"tryonhub/internal/gallery"
	"tryonhub/pkg/storage"
)

// GarmentRef is an unresolved garment going into a try-on: an image
// reference plus its body zone.
type GarmentRef struct {
	Image string
	Type  string
}

// Orchestrator drives a full try-on round: guard checks, image
// resolution, optional background removal, the generation call and the
// post-success bookkeeping. One submission runs at a time; a second
// concurrent one is rejected with ErrBusy.
type Orchestrator struct {
	Pipeline *Client
	Resolver *Resolver
	Gallery  *gallery.Gallery
	Store    storage.Store
	AIModel  string

	mu      sync.Mutex
	running bool
}

func NewOrchestrator(pipeline *Client, resolver *Resolver, g *gallery.Gallery, store storage.Store, aiModel string) *Orchestrator {
	return &Orchestrator{
		Pipeline: pipeline,
		Resolver: resolver,
		Gallery:  g,
		Store:    store,
		AIModel:  aiModel,
	}
}

// TryOnSingle runs one garment against the current avatar.
func (o *Orchestrator) TryOnSingle(ctx context.Context, imageRef, garmentType string) ([]byte, error) {
	var garments []GarmentRef
	if imageRef != "" {
		garments = []GarmentRef{{Image: imageRef, Type: garmentType}}
	}
	return o.run(ctx, garments, false)
}

// TryOnSelection runs the gallery's multi-select set. Garment types are
// inferred from each image reference since the selection only carries
// sources.
func (o *Orchestrator) TryOnSelection(ctx context.Context) ([]byte, error) {
	var garments []GarmentRef
	if o.Gallery != nil {
		for _, src := range o.Gallery.Selected() {
			garments = append(garments, GarmentRef{
				Image: src,
				Type:  classify.DetectGarmentType(src),
			})
		}
	}
	return o.run(ctx, garments, true)
}

func (o *Orchestrator) run(ctx context.Context, garments []GarmentRef, fromSelection bool) ([]byte, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.finish()

	// guard checks come before any resolution or pipeline traffic
	avatarRef, err := o.avatarRef(ctx)
	if err != nil {
		return nil, err
	}
	if len(garments) == 0 {
		return nil, ErrNoGarment
	}

	avatarBytes, _, err := o.Resolver.Resolve(ctx, avatarRef)
	if err != nil {
		return nil, classifyErr(err)
	}

	parts := make([]GarmentPart, 0, len(garments))
	for _, g := range garments {
		b, _, err := o.Resolver.Resolve(ctx, g.Image)
		if err != nil {
			return nil, classifyErr(err)
		}
		parts = append(parts, GarmentPart{Image: b, Type: g.Type})
	}

	// single garment gets a background strip first; failure keeps the
	// original bytes
	if len(parts) == 1 {
		if stripped, err := o.Pipeline.RemoveBackground(ctx, parts[0].Image); err != nil {
			log.Printf("[tryon] garment bg removal failed, using original: %v", err)
		} else {
			parts[0].Image = stripped
		}
	}

	result, err := o.Pipeline.TryOn(ctx, TryOnRequest{
		Avatar:   avatarBytes,
		Garments: parts,
		AIModel:  o.AIModel,
	})
	if err != nil {
		return nil, classifyErr(err)
	}

	// same soft treatment for the composite
	if stripped, err := o.Pipeline.RemoveBackground(ctx, result); err != nil {
		log.Printf("[tryon] result bg removal failed, keeping composite: %v", err)
	} else {
		result = stripped
	}

	if fromSelection && o.Gallery != nil {
		o.Gallery.ClearSelection()
	}
	return result, nil
}

// avatarRef prefers the background-removed avatar over the raw upload.
func (o *Orchestrator) avatarRef(ctx context.Context) (string, error) {
	for _, key := range []string{storage.KeyAvatarBgRemoved, storage.KeyAvatarImg} {
		ref, err := o.Store.GetString(ctx, key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return "", err
		}
		if ref != "" {
			return ref, nil
		}
	}
	return "", ErrNoAvatar
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrBusy
	}
	o.running = true
	return nil
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}
